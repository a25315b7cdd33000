// Package hypr wraps the hyprctl commands parla uses for window lookup, key
// dispatch, and notifications.
package hypr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CommandError is a failed hyprctl invocation with whatever it printed on stderr.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("hyprctl %s: %v", strings.Join(e.Args, " "), e.Err)
	if e.Stderr != "" {
		msg += " (" + e.Stderr + ")"
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

// hyprctl runs hyprctl and returns stdout only, so JSON replies stay parseable.
func hyprctl(ctx context.Context, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, "hyprctl", args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, &CommandError{Args: args, Stderr: strings.TrimSpace(stderr.String()), Err: err}
	}
	return stdout.Bytes(), nil
}

// dispatch runs `hyprctl --quiet dispatch <args>`.
func dispatch(ctx context.Context, args ...string) error {
	_, err := hyprctl(ctx, append([]string{"--quiet", "dispatch"}, args...)...)
	return err
}
