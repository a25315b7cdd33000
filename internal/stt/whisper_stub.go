//go:build !whisper

package stt

import (
	"context"
	"errors"

	"github.com/rbright/parla/internal/config"
)

// LocalEngineBuilt reports whether whisper.cpp is linked into this binary.
const LocalEngineBuilt = false

var errWhisperUnavailable = errors.New(`stt.engine "local" needs a binary built with -tags whisper ` +
	`and libwhisper on the linker path; set stt.engine to tencent, google or openai to use a hosted engine`)

type whisperEngine struct{}

func newWhisperEngine(config.LocalSTTConfig) Engine { return whisperEngine{} }

func (whisperEngine) Name() string                  { return "local" }
func (whisperEngine) Preload(context.Context) error { return errWhisperUnavailable }
func (whisperEngine) Close() error                  { return nil }

func (whisperEngine) recognize(context.Context, request) (string, error) {
	return "", errWhisperUnavailable
}
