package stt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"cloud.google.com/go/auth/credentials"
	speech "cloud.google.com/go/speech/apiv2"
	speechpb "cloud.google.com/go/speech/apiv2/speechpb"
	"google.golang.org/api/option"

	"github.com/rbright/parla/internal/config"
)

const speechAPIEndpointPort = 443

type recognizeFunc func(context.Context, *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error)

// googleEngine calls Cloud Speech-to-Text v2 synchronous Recognize.
type googleEngine struct {
	cfg config.GoogleConfig

	mu     sync.Mutex
	client *speech.Client
	call   recognizeFunc
}

func newGoogleEngine(cfg config.GoogleConfig) Engine {
	return &googleEngine{cfg: cfg}
}

func (e *googleEngine) Name() string { return "google" }

func (e *googleEngine) Preload(ctx context.Context) error {
	if strings.TrimSpace(e.cfg.Project) == "" {
		return errors.New("stt.google.project is required")
	}
	_, err := e.recognizer(ctx)
	return err
}

func (e *googleEngine) recognizer(ctx context.Context) (recognizeFunc, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.call != nil {
		return e.call, nil
	}

	creds, err := credentials.DetectDefault(&credentials.DetectOptions{
		CredentialsJSON: []byte(e.cfg.CredentialsJSON),
		CredentialsFile: config.ExpandHome(e.cfg.CredentialsFile),
		Scopes:          []string{"https://www.googleapis.com/auth/cloud-platform"},
	})
	if err != nil {
		return nil, fmt.Errorf("detect credentials: %w", err)
	}

	opts := []option.ClientOption{option.WithAuthCredentials(creds)}
	if location := e.location(); location != "global" {
		opts = append(opts, option.WithEndpoint(fmt.Sprintf("%s-speech.googleapis.com:%d", location, speechAPIEndpointPort)))
	}

	client, err := speech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create speech client: %w", err)
	}
	e.client = client
	e.call = func(ctx context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
		return client.Recognize(ctx, req)
	}
	return e.call, nil
}

func (e *googleEngine) location() string {
	if location := strings.TrimSpace(e.cfg.Location); location != "" {
		return location
	}
	return "global"
}

func (e *googleEngine) recognize(ctx context.Context, req request) (string, error) {
	call, err := e.recognizer(ctx)
	if err != nil {
		return "", err
	}
	resp, err := call(ctx, e.buildRequest(req))
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(resp.GetResults()))
	for _, result := range resp.GetResults() {
		alternatives := result.GetAlternatives()
		if len(alternatives) == 0 {
			continue
		}
		if text := strings.TrimSpace(alternatives[0].GetTranscript()); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}

func (e *googleEngine) buildRequest(req request) *speechpb.RecognizeRequest {
	cfg := &speechpb.RecognitionConfig{
		DecodingConfig: &speechpb.RecognitionConfig_AutoDecodingConfig{
			AutoDecodingConfig: &speechpb.AutoDetectDecodingConfig{},
		},
		Model:         e.cfg.Model,
		LanguageCodes: []string{req.language},
		Features:      &speechpb.RecognitionFeatures{EnableAutomaticPunctuation: true},
	}

	if len(req.hints) > 0 {
		phrases := make([]*speechpb.PhraseSet_Phrase, 0, len(req.hints))
		for _, h := range req.hints {
			phrases = append(phrases, &speechpb.PhraseSet_Phrase{Value: h.Phrase, Boost: h.Boost})
		}
		cfg.Adaptation = &speechpb.SpeechAdaptation{
			PhraseSets: []*speechpb.SpeechAdaptation_AdaptationPhraseSet{{
				Value: &speechpb.SpeechAdaptation_AdaptationPhraseSet_InlinePhraseSet{
					InlinePhraseSet: &speechpb.PhraseSet{Phrases: phrases},
				},
			}},
		}
	}

	return &speechpb.RecognizeRequest{
		Recognizer:  fmt.Sprintf("projects/%s/locations/%s/recognizers/_", e.cfg.Project, e.location()),
		Config:      cfg,
		AudioSource: &speechpb.RecognizeRequest_Content{Content: req.wav},
	}
}

func (e *googleEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client == nil {
		return nil
	}
	err := e.client.Close()
	e.client = nil
	e.call = nil
	return err
}
