package hypr

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestQueryActiveWindowTrimsFields(t *testing.T) {
	installHyprctlStub(t, `
if [[ "${1:-}" == "-j" && "${2:-}" == "activewindow" ]]; then
  echo '{"address":" 0xabc ","class":" kitty ","initialClass":" Kitty ","title":" ~/src: vim ","pid":42}'
  exit 0
fi
exit 1
`)

	window, err := QueryActiveWindow(context.Background())
	require.NoError(t, err)
	require.Equal(t, "0xabc", window.Address)
	require.Equal(t, "kitty", window.Class)
	require.Equal(t, "Kitty", window.InitialClass)
	require.Equal(t, "~/src: vim", window.Title)
	require.Equal(t, 42, window.PID)
}

func TestQueryActiveWindowWithRetryRecovers(t *testing.T) {
	counter := filepath.Join(t.TempDir(), "count")
	t.Setenv("HYPR_COUNT_FILE", counter)
	installHyprctlStub(t, `
n=$(cat "${HYPR_COUNT_FILE}" 2>/dev/null || echo 0)
n=$((n+1))
echo "$n" > "${HYPR_COUNT_FILE}"
if [[ "$n" -lt 3 ]]; then
  echo '{"address":""}'
  exit 0
fi
echo '{"address":"0xdef","class":"firefox"}'
`)

	window, err := QueryActiveWindowWithRetry(context.Background(), 5, time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, "0xdef", window.Address)
}

func TestQueryActiveWindowWithRetryExhausts(t *testing.T) {
	installHyprctlStub(t, `echo '{"address":""}'`)

	_, err := QueryActiveWindowWithRetry(context.Background(), 2, time.Millisecond)
	require.Error(t, err)
	require.Contains(t, err.Error(), "resolve active window")
}

func TestBuildShortcut(t *testing.T) {
	got, err := BuildShortcut(" CTRL SHIFT,V ", " 0xabc ")
	require.NoError(t, err)
	require.Equal(t, "CTRL SHIFT,V,address:0xabc", got)

	_, err = BuildShortcut("", "0xabc")
	require.Error(t, err)
	_, err = BuildShortcut("CTRL,V", "")
	require.ErrorContains(t, err, "address is required")
}

func TestQueryActiveWindowRejectsEmptyAddress(t *testing.T) {
	installHyprctlStub(t, `
if [[ "${1:-}" == "-j" && "${2:-}" == "activewindow" ]]; then
  echo '{"address":"","class":"brave"}'
  exit 0
fi
echo '[]'
`)

	_, err := QueryActiveWindow(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty address")
}

func TestSendShortcutRequiresNonEmptyPayload(t *testing.T) {
	err := SendShortcut(context.Background(), " ")
	require.Error(t, err)
	require.Contains(t, err.Error(), "non-empty payload")
}

func TestNotifyAndDismissUseHyprctlDispatch(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installHyprctlStub(t, `
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`)

	err := Notify(context.Background(), 3, 1200, "", "Speech recognition error")
	require.NoError(t, err)

	err = DismissNotify(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	require.Equal(t, "--quiet dispatch notify 3 1200 rgb(89b4fa) Speech recognition error", lines[0])
	require.Equal(t, "--quiet dispatch dismissnotify", lines[1])
}

func TestSendShortcutReturnsCombinedOutputOnFailure(t *testing.T) {
	installHyprctlStub(t, `
echo 'boom from hyprctl' >&2
exit 1
`)

	err := SendShortcut(context.Background(), "CTRL,V,address:0xabc")
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom from hyprctl")
}

func TestQueryActiveWindowIgnoresStderrNoise(t *testing.T) {
	installHyprctlStub(t, `
echo 'warning: config reloaded' >&2
echo '{"address":"0x1","class":"firefox","title":"Docs"}'
`)

	window, err := QueryActiveWindow(context.Background())
	require.NoError(t, err)
	require.Equal(t, "firefox", window.Class)
}

func TestCommandErrorUnwraps(t *testing.T) {
	installHyprctlStub(t, "exit 3")

	err := DismissNotify(context.Background())
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	require.Equal(t, []string{"--quiet", "dispatch", "dismissnotify"}, cmdErr.Args)

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 3, exitErr.ExitCode())
}

func installHyprctlStub(t *testing.T, body string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "hyprctl")
	script := "#!/usr/bin/env bash\nset -euo pipefail\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))
}
