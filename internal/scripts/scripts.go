// Package scripts runs the post-action scripts packages ship.
package scripts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/conn-castle/package-console/internal/messages"
	"github.com/conn-castle/package-console/internal/packages"
)

// Script is one queued post-action script.
type Script struct {
	Path      string
	RootPath  string
	ToolsPath string
	Package   packages.Identity
	Project   string
}

// Args returns the positional arguments passed after the script path.
func (s Script) Args() []string {
	return []string{s.RootPath, s.ToolsPath, s.Package.String(), s.Project}
}

// Runner executes a script.
type Runner interface {
	Run(ctx context.Context, script Script) error
}

// ShellRunner runs scripts as `<shell> <path> <root> <tools> <id@version> <project>`.
type ShellRunner struct {
	Shell  string
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

// Run executes script and waits for it to finish. A non-zero exit is returned as an error.
func (r ShellRunner) Run(ctx context.Context, script Script) error {
	if strings.TrimSpace(script.Path) == "" {
		return errors.New(messages.ScriptPathRequired)
	}
	shell := r.Shell
	if shell == "" {
		shell = "sh"
	}
	args := append([]string{script.Path}, script.Args()...)
	cmd := exec.CommandContext(ctx, shell, args...)
	cmd.Dir = r.Dir
	if cmd.Dir == "" {
		cmd.Dir = script.RootPath
	}
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf(messages.ScriptFailedFmt, script.Path, err)
	}
	return nil
}
