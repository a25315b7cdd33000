// Package config resolves, parses, validates, and defaults parla configuration.
package config

import "time"

// Config is the fully materialized runtime configuration used by parla.
type Config struct {
	Hotkey     HotkeyConfig     `yaml:"hotkey"`
	Audio      AudioConfig      `yaml:"audio"`
	Segment    SegmentConfig    `yaml:"segment"`
	Session    SessionConfig    `yaml:"session"`
	Selection  SelectionConfig  `yaml:"selection"`
	STT        STTConfig        `yaml:"stt"`
	LLM        LLMConfig        `yaml:"llm"`
	Output     OutputConfig     `yaml:"output"`
	Foreground ForegroundConfig `yaml:"foreground"`
	Indicator  IndicatorConfig  `yaml:"indicator"`
	Vocab      VocabConfig      `yaml:"vocab"`
	History    HistoryConfig    `yaml:"history"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Log        LogConfig        `yaml:"log"`
	Debug      DebugConfig      `yaml:"debug"`
}

// HotkeyConfig names the two push-to-talk keys. Backend "ipc" disables the
// global key hook so compositor bindings drive press/release over the socket.
type HotkeyConfig struct {
	Backend   string `yaml:"backend"`
	Dictation string `yaml:"dictation"`
	Command   string `yaml:"command"`
}

// AudioConfig controls capture backend, device selection, and frame layout.
type AudioConfig struct {
	Backend    string        `yaml:"backend"`
	Input      string        `yaml:"input"`
	Fallback   string        `yaml:"fallback"`
	SampleRate int           `yaml:"sample_rate"`
	FrameSize  int           `yaml:"frame_size"`
	PreRoll    time.Duration `yaml:"pre_roll"`
}

// SegmentConfig controls silence-triggered mid-session cuts.
type SegmentConfig struct {
	Enable           bool          `yaml:"enable"`
	SilenceThreshold float64       `yaml:"silence_threshold"`
	MinDuration      time.Duration `yaml:"min_duration"`
	SilenceDuration  time.Duration `yaml:"silence_duration"`
}

// SessionConfig controls final-unit policy.
type SessionConfig struct {
	MinFinalDuration time.Duration `yaml:"min_final_duration"`
}

// SelectionConfig controls the copy-selection probe run at press time.
type SelectionConfig struct {
	Enable       bool          `yaml:"enable"`
	Timeout      time.Duration `yaml:"timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
	CopyShortcut string        `yaml:"copy_shortcut"`
}

// STTConfig selects the transcription engine and its shared post-processing.
type STTConfig struct {
	Engine               string        `yaml:"engine"`
	Language             string        `yaml:"language"`
	SilenceThreshold     float64       `yaml:"silence_threshold"`
	Timeout              time.Duration `yaml:"timeout"`
	FullwidthPunctuation bool          `yaml:"fullwidth_punctuation"`
	DictionaryThreshold  float64       `yaml:"dictionary_threshold"`

	Local   LocalSTTConfig  `yaml:"local"`
	Tencent TencentConfig   `yaml:"tencent"`
	Google  GoogleConfig    `yaml:"google"`
	OpenAI  OpenAISTTConfig `yaml:"openai"`
}

// LocalSTTConfig points at a whisper.cpp ggml model file.
type LocalSTTConfig struct {
	Model   string `yaml:"model"`
	Threads int    `yaml:"threads"`
}

// TencentConfig configures the Tencent Cloud SentenceRecognition API.
type TencentConfig struct {
	SecretID   string `yaml:"secret_id"`
	SecretKey  string `yaml:"secret_key"`
	Region     string `yaml:"region"`
	EngineType string `yaml:"engine_type"`
	Endpoint   string `yaml:"endpoint"`
}

// GoogleConfig configures Cloud Speech-to-Text v2.
type GoogleConfig struct {
	Project         string `yaml:"project"`
	Location        string `yaml:"location"`
	Model           string `yaml:"model"`
	CredentialsFile string `yaml:"credentials_file"`
	CredentialsJSON string `yaml:"credentials_json"`
}

// OpenAISTTConfig configures an OpenAI-compatible transcription endpoint.
type OpenAISTTConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// LLMConfig controls transcript polishing through a chat-completion endpoint.
type LLMConfig struct {
	Enable          bool               `yaml:"enable"`
	BaseURL         string             `yaml:"base_url"`
	APIKey          string             `yaml:"api_key"`
	Model           string             `yaml:"model"`
	Timeout         time.Duration      `yaml:"timeout"`
	Prompt          string             `yaml:"prompt"`
	SelectionPrompt string             `yaml:"selection_prompt"`
	DefaultProfile  string             `yaml:"default_profile"`
	CommandProfile  string             `yaml:"command_profile"`
	Profiles        map[string]Profile `yaml:"profiles"`
	AutoMatch       []AutoMatchRule    `yaml:"auto_match"`
}

// Profile is one named polish prompt.
type Profile struct {
	Prompt string `yaml:"prompt"`
}

// AutoMatchRule maps a window-title pattern to a profile name.
type AutoMatchRule struct {
	Pattern string `yaml:"pattern"`
	Profile string `yaml:"profile"`
}

// OutputConfig controls clipboard writes and paste dispatch.
type OutputConfig struct {
	ClipboardCmd     CommandConfig `yaml:"clipboard_cmd"`
	PasteCmd         CommandConfig `yaml:"paste_cmd"`
	Paste            bool          `yaml:"paste"`
	Shortcut         string        `yaml:"shortcut"`
	TerminalShortcut string        `yaml:"terminal_shortcut"`
	Keys             string        `yaml:"keys"`
	TrailingSpace    bool          `yaml:"trailing_space"`
}

// ForegroundConfig controls active-window inspection.
type ForegroundConfig struct {
	Backend         string   `yaml:"backend"`
	TerminalClasses []string `yaml:"terminal_classes"`
}

// IndicatorConfig controls visual indicator and audio cue behavior.
type IndicatorConfig struct {
	Enable         bool   `yaml:"enable"`
	Backend        string `yaml:"backend"`
	DesktopAppName string `yaml:"desktop_app_name"`
	SoundEnable    bool   `yaml:"sound_enable"`
	ErrorTimeoutMS int    `yaml:"error_timeout_ms"`
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// VocabConfig controls enabled dictionary phrase sets and dedupe limits.
type VocabConfig struct {
	GlobalSets []string            `yaml:"global"`
	Sets       map[string]VocabSet `yaml:"sets"`
	MaxPhrases int                 `yaml:"max_phrases"`
}

// VocabSet is one named phrase group with a shared boost value.
type VocabSet struct {
	Name    string   `yaml:"-"`
	Boost   float64  `yaml:"boost"`
	Phrases []string `yaml:"phrases"`
}

// HistoryConfig controls the processed-unit history store.
type HistoryConfig struct {
	Enable bool   `yaml:"enable"`
	Path   string `yaml:"path"`

	// Retention expires entries after this long. Zero keeps them forever.
	Retention time.Duration `yaml:"retention"`
}

// MetricsConfig controls the Prometheus endpoint. Empty Listen disables it.
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// LogConfig controls the JSONL runtime log.
type LogConfig struct {
	Level      string `yaml:"level"`
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	DumpAudio bool `yaml:"dump_audio"`
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

// SpeechPhrase is the normalized phrase payload sent to ASR adapters.
type SpeechPhrase struct {
	Phrase string
	Boost  float32
}
