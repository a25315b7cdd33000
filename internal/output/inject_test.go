package output

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rbright/parla/internal/config"
	"github.com/stretchr/testify/require"
)

type recordingKeys struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (k *recordingKeys) SendShortcut(_ context.Context, shortcut string, address string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.sent = append(k.sent, shortcut+"|"+address)
	return k.err
}

type memoryClipboard struct {
	text string
	err  error
}

func (m *memoryClipboard) Write(_ context.Context, text string) error {
	if m.err != nil {
		return m.err
	}
	m.text = text
	return nil
}

func (m *memoryClipboard) Read(context.Context) (string, error) {
	return m.text, nil
}

func TestRunCommandWithInputWritesStdin(t *testing.T) {
	scriptPath := writeStdinCaptureScript(t)
	outputPath := filepath.Join(t.TempDir(), "stdin.txt")

	err := runCommandWithInput(context.Background(), []string{scriptPath, outputPath}, "hello from parla")
	require.NoError(t, err)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	require.Equal(t, "hello from parla", string(data))
}

func TestRunCommandWithInputRejectsEmptyArgv(t *testing.T) {
	err := runCommandWithInput(context.Background(), nil, "payload")
	require.Error(t, err)
	require.Contains(t, err.Error(), "argv cannot be empty")
}

func TestRunCommandWithInputIncludesStderr(t *testing.T) {
	err := runCommandWithInput(context.Background(), []string{writeFailScript(t, "clipboard failed")}, "x")
	require.Error(t, err)
	require.Contains(t, err.Error(), "clipboard failed")
}

func TestInjectorTypePastesWithTerminalShortcut(t *testing.T) {
	cfg := config.Default().Output
	clip := &memoryClipboard{}
	keys := &recordingKeys{}
	injector := NewInjector(cfg, clip, keys, nil)

	require.NoError(t, injector.Type(context.Background(), "ls -la", true))
	require.NoError(t, injector.Type(context.Background(), "hello", false))

	require.Equal(t, "hello", clip.text)
	require.Equal(t, []string{"CTRL SHIFT,V|", "CTRL,V|"}, keys.sent)
}

func TestInjectorTypeSkipsEmptyText(t *testing.T) {
	clip := &memoryClipboard{}
	keys := &recordingKeys{}
	injector := NewInjector(config.Default().Output, clip, keys, nil)

	require.NoError(t, injector.Type(context.Background(), "", false))
	require.Empty(t, clip.text)
	require.Empty(t, keys.sent)
}

func TestInjectorTypeAppendsTrailingSpace(t *testing.T) {
	cfg := config.Default().Output
	cfg.TrailingSpace = true
	cfg.Paste = false
	clip := &memoryClipboard{}
	injector := NewInjector(cfg, clip, &recordingKeys{}, nil)

	require.NoError(t, injector.Type(context.Background(), "word", false))
	require.Equal(t, "word ", clip.text)
}

func TestInjectorTypeReturnsClipboardError(t *testing.T) {
	clip := &memoryClipboard{err: errors.New("no display")}
	injector := NewInjector(config.Default().Output, clip, &recordingKeys{}, nil)

	err := injector.Type(context.Background(), "text", false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "set clipboard")
}

func TestInjectorPasteFailureDoesNotFailType(t *testing.T) {
	clip := &memoryClipboard{}
	keys := &recordingKeys{err: errors.New("sendshortcut failed")}
	injector := NewInjector(config.Default().Output, clip, keys, nil)

	require.NoError(t, injector.Type(context.Background(), "text", false))
	require.Equal(t, "text", clip.text)
}

func TestInjectorUsesCommandClipboardAndPasteCmd(t *testing.T) {
	clipboardPath := filepath.Join(t.TempDir(), "clipboard.txt")
	markerPath := filepath.Join(t.TempDir(), "pasted.txt")

	cfg := config.Default().Output
	cfg.ClipboardCmd = config.CommandConfig{Argv: []string{writeStdinCaptureScript(t), clipboardPath}}
	cfg.PasteCmd = config.CommandConfig{Argv: []string{writeStdinCaptureScript(t), markerPath}}
	keys := &recordingKeys{}
	injector := NewInjector(cfg, nil, keys, nil)

	require.NoError(t, injector.Type(context.Background(), "captured transcript", false))

	data, err := os.ReadFile(clipboardPath)
	require.NoError(t, err)
	require.Equal(t, "captured transcript", string(data))
	_, err = os.Stat(markerPath)
	require.NoError(t, err)
	require.Empty(t, keys.sent)
}

func TestHyprKeysTargetsActiveWindow(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installHyprctlPasteStub(t)

	err := hyprKeys{}.SendShortcut(context.Background(), "SUPER,V", "")
	require.NoError(t, err)
	err = hyprKeys{}.SendShortcut(context.Background(), "CTRL,C", "0xfeed")
	require.NoError(t, err)

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	require.Contains(t, string(data), "--quiet dispatch sendshortcut SUPER,V,address:0xabc")
	require.Contains(t, string(data), "--quiet dispatch sendshortcut CTRL,C,address:0xfeed")
}

func TestParseShortcut(t *testing.T) {
	tests := []struct {
		in      string
		want    Shortcut
		wantErr string
	}{
		{in: "CTRL,V", want: Shortcut{Ctrl: true, Key: "V"}},
		{in: "ctrl shift, v", want: Shortcut{Ctrl: true, Shift: true, Key: "V"}},
		{in: ",C", want: Shortcut{Key: "C"}},
		{in: "ALT,X", want: Shortcut{Alt: true, Key: "X"}},
		{in: "CTRL+V", wantErr: "MODS,KEY"},
		{in: "CTRL,", wantErr: "no key"},
		{in: "HYPER,V", wantErr: "unsupported modifier"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseShortcut(tc.in)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestUinputKeysRejectsUnsupportedKey(t *testing.T) {
	err := (&uinputKeys{}).SendShortcut(context.Background(), "CTRL,F12", "")
	require.ErrorContains(t, err, "not supported")
}

func writeStdinCaptureScript(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "capture-stdin.sh")
	script := `#!/usr/bin/env bash
set -euo pipefail
cat > "$1"
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func writeFailScript(t *testing.T, message string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "fail.sh")
	script := "#!/usr/bin/env bash\nset -euo pipefail\necho " + "\"" + message + "\"" + " >&2\nexit 1\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func installHyprctlPasteStub(t *testing.T) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "hyprctl")
	script := `#!/usr/bin/env bash
set -euo pipefail
if [[ "${1:-}" == "-j" && "${2:-}" == "activewindow" ]]; then
  echo '{"address":"0xabc","class":"brave-browser","initialClass":"brave-browser"}'
  exit 0
fi
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`
	require.NoError(t, os.WriteFile(path, []byte(strings.TrimSpace(script)+"\n"), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))
}
