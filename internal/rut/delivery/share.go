package delivery

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ExecSharer runs a configured command with the file path as last argument,
// e.g. "termux-share -a send".
type ExecSharer struct {
	args []string
}

func NewExecSharer(command string) *ExecSharer {
	return &ExecSharer{args: strings.Fields(command)}
}

func (s *ExecSharer) Share(ctx context.Context, path string) error {
	if len(s.args) == 0 {
		return ErrShareUnavailable
	}
	name, err := exec.LookPath(s.args[0])
	if err != nil {
		return fmt.Errorf("%w: %v", ErrShareUnavailable, err)
	}

	args := append(append([]string{}, s.args[1:]...), path)
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("share command failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
