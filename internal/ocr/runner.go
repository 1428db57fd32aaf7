package ocr

import (
	"bytes"
	"context"
	"os/exec"
)

// Runner executes an external command with bytes on stdin and returns its
// stdout. Tests substitute a stub so no binary is needed.
type Runner interface {
	Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

// NewExecRunner returns the production Runner backed by exec.CommandContext,
// so a cancelled context kills the process.
func NewExecRunner() Runner {
	return execRunner{}
}

func (execRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf
	if err := cmd.Run(); err != nil {
		if errBuf.Len() > 0 {
			return nil, &RunError{Err: err, Stderr: errBuf.String()}
		}
		return nil, err
	}
	return out.Bytes(), nil
}

// RunError carries the command's stderr alongside the exec error.
type RunError struct {
	Err    error
	Stderr string
}

func (e *RunError) Error() string {
	return e.Err.Error() + ": " + e.Stderr
}

func (e *RunError) Unwrap() error {
	return e.Err
}
