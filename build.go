//go:build buildtool

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// nodeswitch 的构建脚本
// 用法：
//   go run -tags buildtool ./build.go [task] [flags]
// 例如：
//   go run -tags buildtool ./build.go build
//   go run -tags buildtool ./build.go release
//   go run -tags buildtool ./build.go build-all

const (
	defaultAppName  = "nodeswitch"
	defaultBuildDir = "build"
	defaultDistDir  = "dist"
	mainPackage     = "./cmd"
	versionVar      = "github.com/kira1928/nodeswitch.Version"
)

// 只构建能下载到 Node.js 官方归档的平台
var allPlatforms = []string{
	"darwin/amd64",
	"darwin/arm64",
	"linux/amd64",
	"linux/arm64",
}

type options struct {
	appName  string
	buildDir string
	distDir  string
	goos     string
	goarch   string
	verbose  bool
}

func main() {
	task, opts := parseArgs(os.Args[1:])
	if task == "help" || task == "" {
		printHelp()
		return
	}

	var err error
	switch task {
	case "build":
		err = buildCurrent(opts, "")
	case "dev":
		err = buildCurrent(opts, "dev")
	case "release":
		err = buildCurrent(opts, "release")
	case "build-all":
		err = buildAll(opts)
	case "install":
		err = runCmd("go", []string{"install", "-ldflags", versionFlag(), mainPackage}, os.Environ(), opts.verbose)
	case "test":
		err = runCmd("go", []string{"test", "./..."}, os.Environ(), opts.verbose)
	case "clean":
		err = clean(opts)
	default:
		printHelp()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func parseArgs(args []string) (string, options) {
	opts := options{
		appName:  defaultAppName,
		buildDir: defaultBuildDir,
		distDir:  defaultDistDir,
		goos:     runtime.GOOS,
		goarch:   runtime.GOARCH,
	}

	task := ""
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		task = args[0]
		args = args[1:]
	}

	next := func(i *int) string {
		*i++
		if *i < len(args) {
			return args[*i]
		}
		return ""
	}
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-os":
			opts.goos = next(&i)
		case "-arch":
			opts.goarch = next(&i)
		case "-build-dir":
			opts.buildDir = next(&i)
		case "-dist-dir":
			opts.distDir = next(&i)
		case "-v", "-verbose":
			opts.verbose = true
		case "-h", "--help":
			task = "help"
		}
	}
	return task, opts
}

func printHelp() {
	fmt.Println("nodeswitch build")
	fmt.Println()
	fmt.Println("usage: go run -tags buildtool ./build.go <task> [flags]")
	fmt.Println()
	fmt.Println("tasks:")
	fmt.Println("  build       build for the current platform")
	fmt.Println("  dev         build without optimizations")
	fmt.Println("  release     stripped build")
	fmt.Println("  build-all   release builds for every supported platform into dist/")
	fmt.Println("  install     go install with the version stamped in")
	fmt.Println("  test        go test ./...")
	fmt.Println("  clean       remove build/ and dist/")
	fmt.Println()
	fmt.Println("flags: -os <GOOS> -arch <GOARCH> -build-dir <dir> -dist-dir <dir> -v")
}

// versionFlag 把 git describe 的结果注入到 nodeswitch.Version
func versionFlag() string {
	v := readGitDescribe()
	if v == "" {
		v = "dev"
	}
	return fmt.Sprintf("-X %s=%s", versionVar, v)
}

func buildCurrent(opts options, mode string) error {
	if err := os.MkdirAll(opts.buildDir, 0o755); err != nil {
		return err
	}
	outName := opts.appName
	if mode == "dev" {
		outName += "-debug"
	}
	outPath := filepath.Join(opts.buildDir, outName)
	fmt.Printf("building %s/%s (%s) ...\n", opts.goos, opts.goarch, modeOrDefault(mode))

	ldflags := versionFlag()
	args := []string{"build"}
	switch mode {
	case "dev":
		args = append(args, "-gcflags", "all=-N -l")
	case "release":
		ldflags += " -s -w"
	}
	args = append(args, "-ldflags", ldflags, "-o", outPath, mainPackage)

	env := append(os.Environ(), "GOOS="+opts.goos, "GOARCH="+opts.goarch)
	if err := runCmd("go", args, env, opts.verbose); err != nil {
		return err
	}
	fmt.Printf("done: %s\n", outPath)
	return nil
}

func buildAll(opts options) error {
	if err := os.MkdirAll(opts.distDir, 0o755); err != nil {
		return err
	}
	ldflags := versionFlag() + " -s -w"
	for _, p := range allPlatforms {
		osName, arch, ok := strings.Cut(p, "/")
		if !ok {
			return fmt.Errorf("invalid platform: %s", p)
		}
		outPath := filepath.Join(opts.distDir, fmt.Sprintf("%s-%s-%s", opts.appName, osName, arch))

		fmt.Printf("building %s/%s ...\n", osName, arch)
		args := []string{"build", "-ldflags", ldflags, "-o", outPath, mainPackage}
		env := append(os.Environ(), "GOOS="+osName, "GOARCH="+arch)
		if err := runCmd("go", args, env, opts.verbose); err != nil {
			return err
		}
	}
	fmt.Printf("artifacts in %s/\n", opts.distDir)
	return nil
}

func clean(opts options) error {
	if err := os.RemoveAll(opts.buildDir); err != nil {
		return err
	}
	return os.RemoveAll(opts.distDir)
}

func runCmd(cmd string, args []string, env []string, verbose bool) error {
	if verbose {
		fmt.Printf("$ %s %s\n", cmd, strings.Join(args, " "))
	}
	c := exec.Command(cmd, args...)
	if env != nil {
		c.Env = env
	}
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	c.Stdin = os.Stdin
	return c.Run()
}

func readGitDescribe() string {
	out, err := exec.Command("git", "describe", "--tags", "--always", "--dirty").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func modeOrDefault(mode string) string {
	if mode == "" {
		return "default"
	}
	return mode
}
