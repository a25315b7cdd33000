package config

import "time"

const (
	defaultPrompt = "Clean up the following dictated text. Fix punctuation and obvious recognition errors, " +
		"keep the wording and language, and output only the corrected text.\n\n"
	defaultSelectionPrompt = "The user selected this text:\n{{selection}}\n\n" +
		"Apply the following spoken instruction to it and output only the result:\n{{text}}"
	defaultCommandPrompt = "Convert the following spoken request into a single shell command. " +
		"Output only the command, without explanation or code fences.\n\n"
)

// DefaultTerminalClasses are window classes treated as terminal emulators.
var DefaultTerminalClasses = []string{
	"kitty", "alacritty", "foot", "footclient", "wezterm", "org.wezfurlong.wezterm",
	"com.mitchellh.ghostty", "ghostty", "gnome-terminal", "org.gnome.terminal",
	"org.gnome.ptyxis", "konsole", "org.kde.konsole", "xterm", "tilix", "terminator",
	"st", "st-256color", "urxvt",
}

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	clipboard := "wl-copy --trim-newline"

	return Config{
		Hotkey: HotkeyConfig{
			Backend:   "gohook",
			Dictation: "rctrl",
			Command:   "ralt",
		},
		Audio: AudioConfig{
			Backend:    "pulse",
			Input:      "default",
			Fallback:   "default",
			SampleRate: 16000,
			FrameSize:  1024,
			PreRoll:    500 * time.Millisecond,
		},
		Segment: SegmentConfig{
			Enable:           true,
			SilenceThreshold: 0.01,
			MinDuration:      8 * time.Second,
			SilenceDuration:  time.Second,
		},
		Session: SessionConfig{MinFinalDuration: 500 * time.Millisecond},
		Selection: SelectionConfig{
			Enable:       true,
			Timeout:      150 * time.Millisecond,
			PollInterval: 15 * time.Millisecond,
			CopyShortcut: "CTRL,C",
		},
		STT: STTConfig{
			Engine:              "local",
			Language:            "en",
			SilenceThreshold:    0.01,
			Timeout:             30 * time.Second,
			DictionaryThreshold: 0.92,
			Local:               LocalSTTConfig{Model: "~/.local/share/parla/models/ggml-base.bin", Threads: 4},
			Tencent: TencentConfig{
				Region:     "ap-shanghai",
				EngineType: "16k_zh",
				Endpoint:   "https://asr.tencentcloudapi.com",
			},
			Google: GoogleConfig{Location: "global", Model: "long"},
			OpenAI: OpenAISTTConfig{Model: "whisper-1"},
		},
		LLM: LLMConfig{
			Enable:          false,
			BaseURL:         "http://127.0.0.1:11434/v1",
			Model:           "qwen2.5:7b",
			Timeout:         60 * time.Second,
			Prompt:          defaultPrompt,
			SelectionPrompt: defaultSelectionPrompt,
			DefaultProfile:  "general",
			CommandProfile:  "bash",
			Profiles: map[string]Profile{
				"bash": {Prompt: defaultCommandPrompt},
			},
		},
		Output: OutputConfig{
			ClipboardCmd:     MustCommand(clipboard),
			Paste:            true,
			Shortcut:         "CTRL,V",
			TerminalShortcut: "CTRL SHIFT,V",
			Keys:             "hypr",
		},
		Foreground: ForegroundConfig{
			Backend:         "hypr",
			TerminalClasses: append([]string(nil), DefaultTerminalClasses...),
		},
		Indicator: IndicatorConfig{
			Enable:         true,
			Backend:        "hypr",
			DesktopAppName: "parla-indicator",
			SoundEnable:    true,
			ErrorTimeoutMS: 1600,
		},
		Vocab: VocabConfig{
			Sets:       map[string]VocabSet{},
			MaxPhrases: 1024,
		},
		History: HistoryConfig{Enable: true, Retention: 30 * 24 * time.Hour},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}
