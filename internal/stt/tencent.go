package stt

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/http2"

	"github.com/rbright/parla/internal/config"
)

const (
	tencentService = "asr"
	tencentAction  = "SentenceRecognition"
	tencentVersion = "2019-06-14"
	tencentCType   = "application/json; charset=utf-8"
	// Hotwords share one weight; Tencent accepts 1-11 with 11 meaning "force".
	tencentHotwordWeight = 10
)

// tencentEngine calls Tencent Cloud one-sentence recognition with TC3 signing.
type tencentEngine struct {
	cfg    config.TencentConfig
	client *http.Client
	now    func() time.Time
}

func newTencentEngine(cfg config.TencentConfig, timeout time.Duration) Engine {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	_ = http2.ConfigureTransport(tr)
	return &tencentEngine{
		cfg:    cfg,
		client: &http.Client{Transport: tr, Timeout: timeout},
		now:    time.Now,
	}
}

func (e *tencentEngine) Name() string { return "tencent" }

func (e *tencentEngine) Preload(context.Context) error {
	if strings.TrimSpace(e.cfg.SecretID) == "" || strings.TrimSpace(e.cfg.SecretKey) == "" {
		return errors.New("stt.tencent.secret_id and stt.tencent.secret_key are required")
	}
	if _, err := url.Parse(e.cfg.Endpoint); err != nil {
		return fmt.Errorf("stt.tencent.endpoint: %w", err)
	}
	return nil
}

func (e *tencentEngine) Close() error {
	e.client.CloseIdleConnections()
	return nil
}

type tencentRequest struct {
	EngSerViceType string `json:"EngSerViceType"`
	SourceType     int    `json:"SourceType"`
	VoiceFormat    string `json:"VoiceFormat"`
	Data           string `json:"Data"`
	DataLen        int    `json:"DataLen"`
	HotwordList    string `json:"HotwordList,omitempty"`
}

type tencentResponse struct {
	Response struct {
		Result    *string `json:"Result"`
		RequestID string  `json:"RequestId"`
		Error     *struct {
			Code    string `json:"Code"`
			Message string `json:"Message"`
		} `json:"Error"`
	} `json:"Response"`
}

func (e *tencentEngine) recognize(ctx context.Context, req request) (string, error) {
	endpoint, err := url.Parse(e.cfg.Endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}

	payload, err := json.Marshal(tencentRequest{
		EngSerViceType: e.cfg.EngineType,
		SourceType:     1,
		VoiceFormat:    "wav",
		Data:           base64.StdEncoding.EncodeToString(req.wav),
		DataLen:        len(req.wav),
		HotwordList:    tencentHotwords(req.hints),
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	timestamp := e.now().Unix()
	signature, scope := tc3Sign(e.cfg.SecretKey, endpoint.Host, payload, timestamp)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", fmt.Sprintf(
		"TC3-HMAC-SHA256 Credential=%s/%s, SignedHeaders=content-type;host, Signature=%s",
		e.cfg.SecretID, scope, signature,
	))
	httpReq.Header.Set("Content-Type", tencentCType)
	httpReq.Header.Set("X-TC-Action", tencentAction)
	httpReq.Header.Set("X-TC-Version", tencentVersion)
	httpReq.Header.Set("X-TC-Timestamp", strconv.FormatInt(timestamp, 10))
	if e.cfg.Region != "" {
		httpReq.Header.Set("X-TC-Region", e.cfg.Region)
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode/100 != 2 {
		return "", &httpStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var decoded tencentResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if apiErr := decoded.Response.Error; apiErr != nil {
		return "", fmt.Errorf("tencent asr error %s: %s (request %s)", apiErr.Code, apiErr.Message, decoded.Response.RequestID)
	}
	if decoded.Response.Result == nil {
		return "", errors.New("tencent asr response missing Result")
	}
	return strings.TrimSpace(*decoded.Response.Result), nil
}

func tencentHotwords(hints []Hint) string {
	words := make([]string, 0, len(hints))
	for _, phrase := range hintPhrases(hints) {
		words = append(words, phrase+"|"+strconv.Itoa(tencentHotwordWeight))
	}
	return strings.Join(words, ",")
}

// tc3Sign returns the TC3-HMAC-SHA256 signature and credential scope for a
// JSON POST to "/" on host.
func tc3Sign(secretKey, host string, payload []byte, timestamp int64) (string, string) {
	date := time.Unix(timestamp, 0).UTC().Format("2006-01-02")
	scope := date + "/" + tencentService + "/tc3_request"

	payloadHash := sha256.Sum256(payload)
	canonical := strings.Join([]string{
		http.MethodPost,
		"/",
		"",
		"content-type:" + tencentCType + "\nhost:" + host + "\n",
		"content-type;host",
		hex.EncodeToString(payloadHash[:]),
	}, "\n")
	canonicalHash := sha256.Sum256([]byte(canonical))
	stringToSign := strings.Join([]string{
		"TC3-HMAC-SHA256",
		strconv.FormatInt(timestamp, 10),
		scope,
		hex.EncodeToString(canonicalHash[:]),
	}, "\n")

	key := hmacSHA256([]byte("TC3"+secretKey), date)
	key = hmacSHA256(key, tencentService)
	key = hmacSHA256(key, "tc3_request")
	return hex.EncodeToString(hmacSHA256(key, stringToSign)), scope
}

func hmacSHA256(key []byte, msg string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(msg))
	return mac.Sum(nil)
}
