package indicator

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestMessagesForLocale(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{raw: "en_US.UTF-8", want: "Recording…"},
		{raw: "fr_FR.UTF-8", want: "Recording…"},
		{raw: "C", want: "Recording…"},
		{raw: "POSIX", want: "Recording…"},
		{raw: "zh_CN.UTF-8", want: "录音中…"},
		{raw: "zh_TW.UTF-8@pinyin", want: "录音中…"},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			require.Equal(t, tc.want, messagesFor(localeTag(tc.raw)).recording)
		})
	}
}

func TestMessagesFromEnvPriority(t *testing.T) {
	t.Setenv("LANGUAGE", "")
	t.Setenv("LC_ALL", "")
	t.Setenv("LANG", "en_US.UTF-8")
	t.Setenv("LC_MESSAGES", "zh_TW.UTF-8")
	require.Equal(t, "识别中…", messagesFromEnv().processing)

	t.Setenv("LANGUAGE", "en_GB:zh")
	require.Equal(t, "Transcribing…", messagesFromEnv().processing)
}

func TestMessagesDefaultToEnglish(t *testing.T) {
	for _, key := range localeEnv {
		t.Setenv(key, "")
	}
	require.Equal(t, catalog["en"], messagesFromEnv())
	require.Equal(t, "Speech recognition error", messagesFor(language.Und).errorText)
}
