// Package active asks the node on PATH which version it is.
package active

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/kira1928/nodeswitch/pkg/version"
)

// ErrNoRuntime 表示当前 PATH 上没有可执行的 node
var ErrNoRuntime = errors.New("no node runtime on PATH")

// Detector runs `<Command> --version`.
type Detector struct {
	Command string
}

func NewDetector() *Detector {
	return &Detector{Command: "node"}
}

func (d *Detector) CreateExecuteCmd(ctx context.Context, args ...string) (*exec.Cmd, error) {
	path, err := exec.LookPath(d.Command)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoRuntime, err)
	}
	return exec.CommandContext(ctx, path, args...), nil
}

// Version returns the version reported by the runtime.
func (d *Detector) Version(ctx context.Context) (version.Version, error) {
	cmd, err := d.CreateExecuteCmd(ctx, "--version")
	if err != nil {
		return version.Version{}, err
	}
	out, err := cmd.Output()
	if err != nil {
		return version.Version{}, fmt.Errorf("%s --version: %w", d.Command, err)
	}
	return version.Parse(string(bytes.TrimSpace(out)))
}
