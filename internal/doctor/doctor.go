// Package doctor runs readiness diagnostics for config, desktop tools, audio,
// and the configured speech and polish backends.
package doctor

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/atotto/clipboard"

	"github.com/rbright/parla/internal/audio"
	"github.com/rbright/parla/internal/config"
	"github.com/rbright/parla/internal/hotkey"
	"github.com/rbright/parla/internal/stt"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", status, check.Name, check.Message)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, loaded config.Loaded) Report {
	cfg := loaded.Config
	checks := []Check{{
		Name:    "config",
		Pass:    true,
		Message: configMessage(loaded),
	}}

	checks = append(checks, checkEnv("XDG_SESSION_TYPE", func(v string) bool {
		v = strings.ToLower(strings.TrimSpace(v))
		return v == "wayland" || v == "x11"
	}, "graphical session detected", "expected XDG_SESSION_TYPE=wayland or x11"))

	checks = append(checks, checkHotkey(cfg.Hotkey))

	if len(cfg.Output.ClipboardCmd.Argv) > 0 {
		checks = append(checks, checkCommand(cfg.Output.ClipboardCmd.Argv, "clipboard_cmd"))
	} else {
		checks = append(checks, checkClipboardLibrary())
	}

	if cfg.Output.Paste {
		switch {
		case len(cfg.Output.PasteCmd.Argv) > 0:
			checks = append(checks, checkCommand(cfg.Output.PasteCmd.Argv, "paste_cmd"))
		case cfg.Output.Keys == "uinput":
			checks = append(checks, checkUinput())
		default:
			checks = append(checks, checkBinary("hyprctl", "default paste path requires hyprctl"))
		}
	}

	switch cfg.Foreground.Backend {
	case "hypr":
		checks = append(checks, checkBinary("hyprctl", "foreground window inspection"))
	case "x11":
		checks = append(checks, checkBinary("xdotool", "foreground window inspection"))
	}

	if cfg.Audio.Backend == "pulse" {
		checks = append(checks, checkAudioSelection(ctx, cfg))
	}
	checks = append(checks, checkSTT(cfg.STT))
	if cfg.LLM.Enable {
		checks = append(checks, checkLLM(ctx, cfg.LLM))
	}

	return Report{Checks: checks}
}

func configMessage(loaded config.Loaded) string {
	msg := fmt.Sprintf("loaded %q", loaded.Path)
	if !loaded.Exists {
		msg = fmt.Sprintf("%q not found, using defaults", loaded.Path)
	}
	if n := len(loaded.Warnings); n > 0 {
		msg += fmt.Sprintf(" (%d warnings)", n)
	}
	return msg
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	if predicate(os.Getenv(name)) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

func checkHotkey(cfg config.HotkeyConfig) Check {
	if cfg.Backend == "ipc" {
		return Check{Name: "hotkey", Pass: true, Message: "ipc backend: bind `parla press` / `parla release` in the compositor"}
	}
	names := []string{cfg.Dictation}
	if strings.TrimSpace(cfg.Command) != "" {
		names = append(names, cfg.Command)
	}
	for _, name := range names {
		if _, err := hotkey.KeyCode(name); err != nil {
			return Check{Name: "hotkey", Pass: false, Message: err.Error()}
		}
	}
	return Check{Name: "hotkey", Pass: true, Message: fmt.Sprintf("keys %s", strings.Join(names, ", "))}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

func checkClipboardLibrary() Check {
	if clipboard.Unsupported {
		return Check{Name: "clipboard", Pass: false, Message: "no wl-copy, xclip or xsel found for the clipboard library"}
	}
	return Check{Name: "clipboard", Pass: true, Message: "system clipboard available"}
}

func checkUinput() Check {
	f, err := os.OpenFile("/dev/uinput", os.O_WRONLY, 0)
	if err != nil {
		return Check{Name: "uinput", Pass: false, Message: err.Error()}
	}
	_ = f.Close()
	return Check{Name: "uinput", Pass: true, Message: "/dev/uinput is writable"}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.Config) Check {
	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkSTT verifies the engine's static prerequisites without contacting it.
func checkSTT(cfg config.STTConfig) Check {
	name := "stt." + cfg.Engine
	switch cfg.Engine {
	case "local":
		path := config.ExpandHome(cfg.Local.Model)
		info, err := os.Stat(path)
		if err != nil {
			return Check{Name: name, Pass: false, Message: fmt.Sprintf("model %q: %v", path, err)}
		}
		if !stt.LocalEngineBuilt {
			return Check{Name: name, Pass: false, Message: fmt.Sprintf(
				"model %q found but this binary lacks whisper; rebuild with -tags whisper or set stt.engine to tencent, google or openai", path)}
		}
		return Check{Name: name, Pass: true, Message: fmt.Sprintf("model %q (%d MiB)", path, info.Size()>>20)}
	case "tencent":
		if cfg.Tencent.SecretID == "" || cfg.Tencent.SecretKey == "" {
			return Check{Name: name, Pass: false, Message: "stt.tencent.secret_id and secret_key are required"}
		}
		return Check{Name: name, Pass: true, Message: fmt.Sprintf("credentials present for %s", cfg.Tencent.Region)}
	case "google":
		if cfg.Google.Project == "" {
			return Check{Name: name, Pass: false, Message: "stt.google.project is required"}
		}
		return Check{Name: name, Pass: true, Message: fmt.Sprintf("project %s in %s", cfg.Google.Project, cfg.Google.Location)}
	case "openai":
		if cfg.OpenAI.APIKey == "" && cfg.OpenAI.BaseURL == "" {
			return Check{Name: name, Pass: false, Message: "stt.openai.api_key is required for the hosted endpoint"}
		}
		return Check{Name: name, Pass: true, Message: fmt.Sprintf("model %s", cfg.OpenAI.Model)}
	default:
		return Check{Name: name, Pass: false, Message: "unknown engine"}
	}
}

// checkLLM probes the OpenAI-compatible /models endpoint.
func checkLLM(ctx context.Context, cfg config.LLMConfig) Check {
	url := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/") + "/models"

	reqCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return Check{Name: "llm", Pass: false, Message: err.Error()}
	}
	if cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return Check{Name: "llm", Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Check{Name: "llm", Pass: false, Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, url)}
	}
	return Check{Name: "llm", Pass: true, Message: fmt.Sprintf("reachable at %s (model %s)", url, cfg.Model)}
}
