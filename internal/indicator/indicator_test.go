package indicator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/rbright/parla/internal/config"
)

type fakeSurface struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeSurface) show(_ context.Context, s status, text string, timeoutMS int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("show %s %q %d", s, text, timeoutMS))
	return nil
}

func (f *fakeSurface) hide(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "hide")
	return nil
}

func (f *fakeSurface) log() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func testIndicator(t *testing.T) (*Indicator, *fakeSurface) {
	t.Helper()
	cfg := config.Default().Indicator
	cfg.SoundEnable = false
	surface := &fakeSurface{}
	ind := newIndicator(cfg, surface, nil)
	ind.messages = messagesFor(language.English)
	return ind, surface
}

func TestRecordingTakesPriorityOverProcessing(t *testing.T) {
	ind, surface := testIndicator(t)
	ctx := context.Background()

	ind.BeginProcessing(ctx)
	require.Equal(t, "processing", ind.Status())

	ind.ShowRecording(ctx)
	require.Equal(t, "recording", ind.Status())

	ind.BeginProcessing(ctx)
	ind.StopRecording(ctx)
	require.Equal(t, "processing", ind.Status())

	ind.EndProcessing(ctx, nil)
	ind.EndProcessing(ctx, nil)
	require.Equal(t, "idle", ind.Status())

	require.Equal(t, []string{
		`show processing "Transcribing…" 300000`,
		`show recording "Recording…" 300000`,
		`show processing "Transcribing… (2)" 300000`,
		`show processing "Transcribing…" 300000`,
		"hide",
	}, surface.log())
}

func TestCancelReturnsToIdle(t *testing.T) {
	ind, surface := testIndicator(t)
	ind.ShowRecording(context.Background())
	ind.CancelRecording(context.Background())

	require.Equal(t, "idle", ind.Status())
	require.Equal(t, []string{`show recording "Recording…" 300000`, "hide"}, surface.log())
}

func TestProcessingErrorShowsNoticeAndLetsItExpire(t *testing.T) {
	ind, surface := testIndicator(t)
	ctx := context.Background()

	ind.BeginProcessing(ctx)
	ind.EndProcessing(ctx, errors.New("stt down"))

	require.Equal(t, []string{
		`show processing "Transcribing…" 300000`,
		"hide",
		`show error "Speech recognition error" 1600`,
	}, surface.log())

	ind.BeginProcessing(ctx)
	ind.EndProcessing(ctx, nil)
	calls := surface.log()
	require.Equal(t, "hide", calls[len(calls)-1])
}

func TestShowErrorAfterIdleDoesNotHide(t *testing.T) {
	ind, surface := testIndicator(t)
	ind.cfg.ErrorTimeoutMS = 0
	ind.ShowError(context.Background(), "Microphone unavailable")
	ind.EndProcessing(context.Background(), nil)

	require.Equal(t, []string{`show error "Microphone unavailable" 1200`}, surface.log())
}

func TestCuesPlayWhenSoundEnabled(t *testing.T) {
	ind, _ := testIndicator(t)
	ind.cfg.SoundEnable = true

	played := make(chan cueKind, 4)
	ind.play = func(kind cueKind) error {
		played <- kind
		return nil
	}

	ind.ShowRecording(context.Background())
	select {
	case kind := <-played:
		require.Equal(t, cueStart, kind)
	case <-time.After(2 * time.Second):
		t.Fatal("start cue was not played")
	}
}

func TestSurfaceForBackends(t *testing.T) {
	cfg := config.Default().Indicator

	cfg.Enable = false
	require.IsType(t, noneSurface{}, surfaceFor(cfg))

	cfg.Enable = true
	cfg.Backend = "hypr"
	require.IsType(t, hyprSurface{}, surfaceFor(cfg))
	cfg.Backend = "desktop"
	require.IsType(t, &desktopSurface{}, surfaceFor(cfg))
	cfg.Backend = "notify"
	require.IsType(t, notifySurface{}, surfaceFor(cfg))
	cfg.Backend = "tray"
	require.IsType(t, traySurface{}, surfaceFor(cfg))
	cfg.Backend = "none"
	require.IsType(t, noneSurface{}, surfaceFor(cfg))
}

func TestRunTrayNoopForOtherBackends(t *testing.T) {
	ind, _ := testIndicator(t)
	stop := ind.RunTray(func() {})
	require.NotNil(t, stop)
	stop()
}

func TestHyprBackendDispatch(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installHyprctlStub(t, `
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`)

	cfg := config.Default().Indicator
	cfg.SoundEnable = false
	ind := New(cfg, nil)
	ind.messages = messagesFor(language.English)

	ctx := context.Background()
	ind.ShowRecording(ctx)
	ind.BeginProcessing(ctx)
	ind.StopRecording(ctx)
	ind.EndProcessing(ctx, nil)
	ind.ShowError(ctx, "custom error")

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Equal(t, []string{
		"--quiet dispatch notify 1 300000 rgb(89b4fa) Recording…",
		"--quiet dispatch notify 1 300000 rgb(cba6f7) Transcribing…",
		"--quiet dispatch dismissnotify",
		"--quiet dispatch notify 3 1600 rgb(f38ba8) custom error",
	}, lines)
}

func TestDisabledIndicatorSkipsHyprctl(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "hypr-args.log")
	t.Setenv("HYPR_ARGS_FILE", argsFile)
	installHyprctlStub(t, `
printf '%s\n' "$*" >> "${HYPR_ARGS_FILE}"
`)

	cfg := config.Default().Indicator
	cfg.Enable = false
	cfg.SoundEnable = false
	ind := New(cfg, nil)
	ind.ShowRecording(context.Background())
	ind.ShowError(context.Background(), "ignored")
	ind.StopRecording(context.Background())

	_, err := os.Stat(argsFile)
	require.True(t, os.IsNotExist(err))
}

func TestParseNotifyID(t *testing.T) {
	id, err := parseNotifyID("u 42")
	require.NoError(t, err)
	require.Equal(t, uint32(42), id)

	_, err = parseNotifyID("s nope")
	require.Error(t, err)
	_, err = parseNotifyID("u notanumber")
	require.Error(t, err)
}

func TestDesktopSurfaceReplacesNotification(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "busctl-args.log")
	t.Setenv("BUSCTL_ARGS_FILE", argsFile)
	installStub(t, "busctl", `
printf '%s\n' "$*" >> "${BUSCTL_ARGS_FILE}"
if [[ "$*" == *" Notify "* ]]; then
  echo "u 7"
fi
`)

	s := &desktopSurface{appName: "parla-test"}
	ctx := context.Background()
	require.NoError(t, s.show(ctx, statusRecording, "Recording…", 300000))
	require.NoError(t, s.show(ctx, statusProcessing, "Transcribing…", 300000))
	require.NoError(t, s.hide(ctx))
	require.NoError(t, s.hide(ctx))

	data, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[0], "Notify susssasa{sv}i parla-test 0 ")
	require.Contains(t, lines[1], "Notify susssasa{sv}i parla-test 7 ")
	require.True(t, strings.HasSuffix(lines[2], "CloseNotification u 7"))
}

func installHyprctlStub(t *testing.T, body string) {
	t.Helper()
	installStub(t, "hyprctl", body)
}

func installStub(t *testing.T, name, body string) {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, name)
	script := "#!/usr/bin/env bash\nset -euo pipefail\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))
}
