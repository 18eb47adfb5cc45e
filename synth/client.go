// Package synth fetches synthesized phrase audio together with word-level
// timing anchors from the speech-synthesis service.
package synth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ieee0824/pitchflow/audio"
	"github.com/ieee0824/pitchflow/internal/logging"
	"github.com/ieee0824/pitchflow/timing"
)

var ErrEmptyText = errors.New("empty text")

// Voice is a synthesis voice offered by the service.
type Voice struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Gender      string `json:"gender"`
}

// Voices are the Japanese neural voices the service exposes.
var Voices = []Voice{
	{ID: "female1", Name: "ja-JP-NanamiNeural", DisplayName: "Nanami", Gender: "female"},
	{ID: "female2", Name: "ja-JP-AoiNeural", DisplayName: "Aoi", Gender: "female"},
	{ID: "female3", Name: "ja-JP-MayuNeural", DisplayName: "Mayu", Gender: "female"},
	{ID: "female4", Name: "ja-JP-ShioriNeural", DisplayName: "Shiori", Gender: "female"},
	{ID: "male1", Name: "ja-JP-KeitaNeural", DisplayName: "Keita", Gender: "male"},
	{ID: "male2", Name: "ja-JP-DaichiNeural", DisplayName: "Daichi", Gender: "male"},
	{ID: "male3", Name: "ja-JP-NaokiNeural", DisplayName: "Naoki", Gender: "male"},
}

const (
	DefaultVoice = "female1"
	DefaultRate  = 1.0
)

// LookupVoice returns the voice with the given ID.
func LookupVoice(id string) (Voice, bool) {
	for _, v := range Voices {
		if v.ID == id {
			return v, true
		}
	}
	return Voice{}, false
}

// Result is synthesized audio plus the anchors for each spoken word.
type Result struct {
	Audio      *audio.Clip
	Anchors    []timing.Anchor
	DurationMS float64
}

// Synthesizer produces phrase audio with word timings.
type Synthesizer interface {
	SynthesizeWithTimings(ctx context.Context, text string) (*Result, error)
}

// APIError is a non-200 response from the service.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("synth error: %d - %s", e.StatusCode, e.Detail)
}

// Config holds client settings.
type Config struct {
	BaseURL string        `json:"base_url"`
	Voice   string        `json:"voice"`
	Rate    float64       `json:"rate"` // 0.5 to 2.0
	APIKey  string        `json:"api_key"`
	Timeout time.Duration `json:"timeout"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "http://localhost:8000",
		Voice:   DefaultVoice,
		Rate:    DefaultRate,
		Timeout: 30 * time.Second,
	}
}

// Client talks to the synthesis service over HTTP.
type Client struct {
	config *Config
	http   *http.Client
	logger zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.Component(logger, "synth")
	}
}

// NewClient creates a client. A nil config uses DefaultConfig.
func NewClient(config *Config, opts ...Option) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	cfg := *config
	if cfg.Voice == "" {
		cfg.Voice = DefaultVoice
	}
	if cfg.Rate == 0 {
		cfg.Rate = DefaultRate
	}
	c := &Client{
		config: &cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type timingsResponse struct {
	AudioBase64 string          `json:"audio_base64"`
	WordTimings []timing.Anchor `json:"word_timings"`
	DurationMS  float64         `json:"duration_ms"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// SynthesizeWithTimings renders text and returns the decoded audio with its
// word anchors.
func (c *Client) SynthesizeWithTimings(ctx context.Context, text string) (*Result, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}

	q := url.Values{}
	q.Set("text", text)
	q.Set("voice", c.config.Voice)
	q.Set("rate", strconv.FormatFloat(c.config.Rate, 'f', -1, 64))
	endpoint := strings.TrimRight(c.config.BaseURL, "/") + "/tts/with-timings?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("synth request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		detail := "TTS failed"
		var er errorResponse
		if json.Unmarshal(body, &er) == nil && er.Detail != "" {
			detail = er.Detail
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: detail}
	}

	var tr timingsResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	clip, err := audio.DecodeBase64(tr.AudioBase64)
	if err != nil {
		return nil, fmt.Errorf("decode audio: %w", err)
	}

	c.logger.Debug().
		Int("anchors", len(tr.WordTimings)).
		Float64("duration_ms", tr.DurationMS).
		Dur("latency", time.Since(start)).
		Msg("synthesized phrase")

	return &Result{
		Audio:      clip,
		Anchors:    tr.WordTimings,
		DurationMS: tr.DurationMS,
	}, nil
}
