// Package shellhook renders the shell integration script and installs the
// line that loads it into a shell profile.
package shellhook

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

var ErrUnsupportedShell = errors.New("unsupported shell")

// ProfileMarker 标记 profile 中由本工具写入的行，用于幂等检查
const ProfileMarker = "# added by nodeswitch"

// Shells lists the shells a script can be rendered for.
var Shells = []string{"bash", "zsh"}

const scriptTemplate = `# nodeswitch shell integration ({{.Shell}})
case ":$PATH:" in
  *":{{.DefaultBin}}:"*) ;;
  *) export PATH={{quote .DefaultBin}}":$PATH" ;;
esac

nodeswitch() {
  if [ "$1" = use ] || [ "$1" = set ] || { [ "$1" = list ] && [ "$2" = pick ]; }; then
    local __ns_out
    __ns_out="$(command {{quote .Exe}} "$@" --export)" || return $?
    eval "$__ns_out"
  else
    command {{quote .Exe}} "$@"
  fi
}

_nodeswitch_hook() {
  local __ns_out
  __ns_out="$(command {{quote .Exe}} hook-env)" && [ -n "$__ns_out" ] && eval "$__ns_out"
}
{{if eq .Shell "zsh"}}
autoload -U add-zsh-hook
add-zsh-hook precmd _nodeswitch_hook
{{else}}
case ";${PROMPT_COMMAND:-};" in
  *";_nodeswitch_hook;"*) ;;
  *) PROMPT_COMMAND="_nodeswitch_hook${PROMPT_COMMAND:+;$PROMPT_COMMAND}" ;;
esac
{{end}}`

var scriptTmpl = template.Must(template.New("hook").Funcs(template.FuncMap{"quote": Quote}).Parse(scriptTemplate))

// Quote 用单引号包裹，适用于 POSIX shell
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// ExportPath is the statement the hook evals to apply a new PATH.
func ExportPath(path string) string {
	return "export PATH=" + Quote(path)
}

// DetectShell maps a $SHELL value to a supported shell name.
func DetectShell(shellEnv string) (string, error) {
	name := filepath.Base(strings.TrimSpace(shellEnv))
	for _, s := range Shells {
		if name == s {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedShell, shellEnv)
}

// Script renders the integration script. defaultBin is the bin directory of
// the default link, which newly started shells put on PATH.
func Script(shell, exe, defaultBin string) (string, error) {
	if _, err := DetectShell(shell); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	err := scriptTmpl.Execute(&buf, map[string]string{
		"Shell":      shell,
		"Exe":        exe,
		"DefaultBin": defaultBin,
	})
	if err != nil {
		return "", fmt.Errorf("render %s hook: %w", shell, err)
	}
	return buf.String(), nil
}

// ProfilePath returns the rc file the hook is installed into.
func ProfilePath(shell, home string) (string, error) {
	switch shell {
	case "bash":
		return filepath.Join(home, ".bashrc"), nil
	case "zsh":
		return filepath.Join(home, ".zshrc"), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedShell, shell)
}

// Installer 负责把加载脚本的那一行写进 profile
type Installer struct {
	ProfilePath string
	Shell       string
	Exe         string
}

func (i *Installer) loadLine() string {
	return fmt.Sprintf(`eval "$(%s init --print --shell %s)"`, Quote(i.Exe), i.Shell)
}

// Installed reports whether the profile already carries the hook.
func (i *Installer) Installed() (bool, error) {
	data, err := os.ReadFile(i.ProfilePath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == ProfileMarker {
			return true, nil
		}
	}
	return false, nil
}

// Install appends the hook unless it is already present. It returns false
// when nothing was written.
func (i *Installer) Install() (bool, error) {
	ok, err := i.Installed()
	if err != nil || ok {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(i.ProfilePath), 0o755); err != nil {
		return false, err
	}
	f, err := os.OpenFile(i.ProfilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return false, fmt.Errorf("failed to open %s: %w", i.ProfilePath, err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "\n%s\n%s\n", ProfileMarker, i.loadLine()); err != nil {
		return false, fmt.Errorf("failed to write %s: %w", i.ProfilePath, err)
	}
	return true, nil
}
