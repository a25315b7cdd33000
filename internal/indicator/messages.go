package indicator

import (
	"os"
	"strings"

	"golang.org/x/text/language"
)

type messages struct {
	recording  string
	processing string
	errorText  string
}

var catalog = map[string]messages{
	"en": {
		recording:  "Recording…",
		processing: "Transcribing…",
		errorText:  "Speech recognition error",
	},
	"zh": {
		recording:  "录音中…",
		processing: "识别中…",
		errorText:  "语音识别出错",
	},
}

// localeEnv lists the variables consulted for UI text, highest priority first.
var localeEnv = []string{"LANGUAGE", "LC_ALL", "LC_MESSAGES", "LANG"}

func messagesFromEnv() messages {
	for _, key := range localeEnv {
		raw := os.Getenv(key)
		if key == "LANGUAGE" {
			raw, _, _ = strings.Cut(raw, ":")
		}
		if strings.TrimSpace(raw) != "" {
			return messagesFor(localeTag(raw))
		}
	}
	return messagesFor(language.English)
}

// localeTag converts a POSIX locale such as "zh_CN.UTF-8" into a language tag.
// C, POSIX and unparsable values map to English.
func localeTag(raw string) language.Tag {
	raw, _, _ = strings.Cut(strings.TrimSpace(raw), ".")
	raw, _, _ = strings.Cut(raw, "@")
	tag, err := language.Parse(strings.ReplaceAll(raw, "_", "-"))
	if err != nil {
		return language.English
	}
	return tag
}

func messagesFor(tag language.Tag) messages {
	base, _ := tag.Base()
	if m, ok := catalog[base.String()]; ok {
		return m
	}
	return catalog["en"]
}
