package stt

import "strings"

// whisperPrompt joins dictionary phrases into an initial prompt that biases
// decoding toward their spelling.
func whisperPrompt(hints []Hint) string {
	return strings.Join(hintPhrases(hints), "，")
}
