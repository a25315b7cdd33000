package config

import (
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
)

var (
	hotkeyBackends     = []string{"gohook", "ipc"}
	audioBackends      = []string{"pulse", "portaudio"}
	sttEngines         = []string{"local", "tencent", "google", "openai"}
	keyBackends        = []string{"hypr", "uinput"}
	foregroundBackends = []string{"hypr", "x11", "none"}
	indicatorBackends  = []string{"hypr", "desktop", "notify", "tray", "none"}
	logLevels          = []string{"debug", "info", "warn", "error"}
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if err := oneOf("hotkey.backend", cfg.Hotkey.Backend, hotkeyBackends); err != nil {
		return nil, err
	}
	if cfg.Hotkey.Backend == "gohook" && strings.TrimSpace(cfg.Hotkey.Dictation) == "" {
		return nil, fmt.Errorf("hotkey.dictation must not be empty")
	}
	if cmd := strings.TrimSpace(cfg.Hotkey.Command); cmd != "" && strings.EqualFold(strings.TrimSpace(cfg.Hotkey.Dictation), cmd) {
		return nil, fmt.Errorf("hotkey.dictation and hotkey.command must differ")
	}

	if err := oneOf("audio.backend", cfg.Audio.Backend, audioBackends); err != nil {
		return nil, err
	}
	if cfg.Audio.SampleRate <= 0 {
		return nil, fmt.Errorf("audio.sample_rate must be > 0")
	}
	if cfg.Audio.FrameSize <= 0 {
		return nil, fmt.Errorf("audio.frame_size must be > 0")
	}
	if cfg.Audio.PreRoll < 0 {
		return nil, fmt.Errorf("audio.pre_roll must be >= 0")
	}

	if cfg.Segment.SilenceThreshold <= 0 || cfg.Segment.SilenceThreshold >= 1 {
		return nil, fmt.Errorf("segment.silence_threshold must be in (0, 1)")
	}
	if cfg.Segment.Enable && cfg.Segment.MinDuration <= 0 {
		return nil, fmt.Errorf("segment.min_duration must be > 0")
	}
	if cfg.Segment.Enable && cfg.Segment.SilenceDuration <= 0 {
		return nil, fmt.Errorf("segment.silence_duration must be > 0")
	}
	if cfg.Session.MinFinalDuration < 0 {
		return nil, fmt.Errorf("session.min_final_duration must be >= 0")
	}

	if cfg.Selection.Enable {
		if cfg.Selection.Timeout <= 0 {
			return nil, fmt.Errorf("selection.timeout must be > 0")
		}
		if cfg.Selection.PollInterval <= 0 || cfg.Selection.PollInterval > cfg.Selection.Timeout {
			return nil, fmt.Errorf("selection.poll_interval must be > 0 and <= selection.timeout")
		}
	}

	if err := oneOf("stt.engine", cfg.STT.Engine, sttEngines); err != nil {
		return nil, err
	}
	if cfg.STT.SilenceThreshold < 0 {
		return nil, fmt.Errorf("stt.silence_threshold must be >= 0")
	}
	if cfg.STT.DictionaryThreshold < 0 || cfg.STT.DictionaryThreshold > 1 {
		return nil, fmt.Errorf("stt.dictionary_threshold must be in [0, 1]")
	}
	switch cfg.STT.Engine {
	case "local":
		if strings.TrimSpace(cfg.STT.Local.Model) == "" {
			return nil, fmt.Errorf("stt.local.model must not be empty")
		}
	case "google":
		if strings.TrimSpace(cfg.STT.Google.Location) == "" {
			return nil, fmt.Errorf("stt.google.location must not be empty")
		}
	}

	llmWarnings, err := validateLLM(cfg.LLM)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, llmWarnings...)

	if err := oneOf("output.keys", cfg.Output.Keys, keyBackends); err != nil {
		return nil, err
	}
	if cfg.Output.Paste && cfg.Output.PasteCmd.Raw != "" && len(cfg.Output.PasteCmd.Argv) == 0 {
		return nil, fmt.Errorf("output.paste_cmd is configured but empty")
	}
	if cfg.Output.Paste && len(cfg.Output.PasteCmd.Argv) == 0 && strings.TrimSpace(cfg.Output.Shortcut) == "" {
		return nil, fmt.Errorf("output.shortcut must not be empty when output.paste=true and output.paste_cmd is unset")
	}

	if err := oneOf("foreground.backend", cfg.Foreground.Backend, foregroundBackends); err != nil {
		return nil, err
	}
	if err := oneOf("indicator.backend", cfg.Indicator.Backend, indicatorBackends); err != nil {
		return nil, err
	}
	if cfg.Indicator.Backend == "desktop" && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.backend=desktop")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}

	if cfg.Vocab.MaxPhrases <= 0 {
		return nil, fmt.Errorf("vocab.max_phrases must be > 0")
	}
	_, vocabWarnings, err := BuildSpeechPhrases(cfg)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, vocabWarnings...)

	if cfg.History.Retention < 0 {
		return nil, fmt.Errorf("history.retention must be >= 0")
	}

	if err := oneOf("log.level", cfg.Log.Level, logLevels); err != nil {
		return nil, err
	}

	return warnings, nil
}

func validateLLM(cfg LLMConfig) ([]Warning, error) {
	var warnings []Warning
	if !cfg.Enable {
		return nil, nil
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("llm.base_url must not be empty when llm.enable=true")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("llm.model must not be empty when llm.enable=true")
	}
	if cfg.SelectionPrompt != "" && !strings.Contains(cfg.SelectionPrompt, "{{text}}") {
		warnings = append(warnings, Warning{Message: "llm.selection_prompt has no {{text}} placeholder; the transcript is appended"})
	}
	for i, rule := range cfg.AutoMatch {
		if _, err := regexp.Compile("(?i)" + rule.Pattern); err != nil {
			return nil, fmt.Errorf("llm.auto_match[%d].pattern: %w", i, err)
		}
		if _, ok := cfg.Profiles[rule.Profile]; !ok {
			warnings = append(warnings, Warning{Message: fmt.Sprintf("llm.auto_match[%d] references unknown profile %q; rule is ignored", i, rule.Profile)})
		}
	}
	if _, ok := cfg.Profiles[cfg.DefaultProfile]; !ok && cfg.DefaultProfile != "" && cfg.DefaultProfile != "general" {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("llm.default_profile %q is not defined; falling back to llm.prompt", cfg.DefaultProfile)})
	}
	if _, ok := cfg.Profiles[cfg.CommandProfile]; !ok {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("llm.command_profile %q is not defined; command mode uses llm.prompt", cfg.CommandProfile)})
	}
	return warnings, nil
}

func oneOf(key string, value string, allowed []string) error {
	if slices.Contains(allowed, value) {
		return nil
	}
	return fmt.Errorf("%s must be one of: %s", key, strings.Join(allowed, ", "))
}

// BuildSpeechPhrases merges enabled vocab sets into deterministic ASR phrase payloads.
func BuildSpeechPhrases(cfg Config) ([]SpeechPhrase, []Warning, error) {
	enabledSets := cfg.Vocab.GlobalSets
	if len(enabledSets) == 0 {
		return nil, nil, nil
	}

	type candidate struct {
		boost float64
		from  string
	}

	warnings := make([]Warning, 0)
	selected := make(map[string]candidate)

	for _, name := range enabledSets {
		set, ok := cfg.Vocab.Sets[name]
		if !ok {
			return nil, nil, fmt.Errorf("vocab.global references unknown set %q", name)
		}
		for _, phrase := range set.Phrases {
			phrase = strings.TrimSpace(phrase)
			if phrase == "" {
				continue
			}
			if existing, exists := selected[phrase]; exists {
				if set.Boost > existing.boost {
					warnings = append(warnings, Warning{Message: fmt.Sprintf("phrase %q present in %q and %q; using higher boost %.2f", phrase, existing.from, name, set.Boost)})
					selected[phrase] = candidate{boost: set.Boost, from: name}
				}
				continue
			}
			selected[phrase] = candidate{boost: set.Boost, from: name}
		}
	}

	if len(selected) > cfg.Vocab.MaxPhrases {
		return nil, nil, fmt.Errorf("vocabulary phrase count %d exceeds vocab.max_phrases=%d", len(selected), cfg.Vocab.MaxPhrases)
	}

	phrases := make([]SpeechPhrase, 0, len(selected))
	for phrase, c := range selected {
		phrases = append(phrases, SpeechPhrase{Phrase: phrase, Boost: float32(c.boost)})
	}

	sort.Slice(phrases, func(i, j int) bool {
		if phrases[i].Phrase == phrases[j].Phrase {
			return phrases[i].Boost < phrases[j].Boost
		}
		return phrases[i].Phrase < phrases[j].Phrase
	})

	return phrases, warnings, nil
}
