// Package output injects text at the cursor through the clipboard and a paste keystroke.
package output

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/atotto/clipboard"
)

// Clipboard reads and writes the system clipboard.
type Clipboard interface {
	Write(ctx context.Context, text string) error
	Read(ctx context.Context) (string, error)
}

// NewClipboard writes through argv when set and through the system clipboard
// tools otherwise. Reads always use the system clipboard.
func NewClipboard(argv []string) Clipboard {
	if len(argv) == 0 {
		return systemClipboard{}
	}
	return commandClipboard{argv: append([]string(nil), argv...)}
}

type systemClipboard struct{}

func (systemClipboard) Write(_ context.Context, text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write system clipboard: %w", err)
	}
	return nil
}

func (systemClipboard) Read(context.Context) (string, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("read system clipboard: %w", err)
	}
	return text, nil
}

type commandClipboard struct {
	argv []string
}

func (c commandClipboard) Write(ctx context.Context, text string) error {
	return runCommandWithInput(ctx, c.argv, text)
}

func (commandClipboard) Read(ctx context.Context) (string, error) {
	return systemClipboard{}.Read(ctx)
}

// runCommandWithInput executes argv and optionally writes input to stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("run %s: %w (%s)", argv[0], err, msg)
		}
		return fmt.Errorf("run %s: %w", argv[0], err)
	}
	return nil
}
