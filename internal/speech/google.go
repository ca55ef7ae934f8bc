package speech

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-audio/wav"
	"golang.org/x/time/rate"
)

// DefaultEndpoint is the Speech-to-Text v1 recognize method.
const DefaultEndpoint = "https://speech.googleapis.com/v1/speech:recognize"

// maxInlineAudio is the service limit for inline (non-streaming) content.
const maxInlineAudio = 10 * 1024 * 1024

// GoogleConfig holds configuration for the Google recognizer.
type GoogleConfig struct {
	APIKey   string
	Endpoint string // defaults to DefaultEndpoint
	Language string // BCP-47, defaults to "en-US"

	// Source of the recording; required
	Source Source

	// HTTP client (optional, defaults to one with Timeout)
	HTTPClient *http.Client
	Timeout    time.Duration

	// Rate limit requests per minute (defaults to 30)
	RequestsPerMinute int
}

// GoogleRecognizer transcribes a 16-bit PCM WAV recording with the Google
// Speech-to-Text REST API.
type GoogleRecognizer struct {
	apiKey   string
	endpoint string
	language string
	source   Source
	client   *http.Client

	rateLimiter *rate.Limiter
}

// NewGoogleRecognizer creates a recognizer.
func NewGoogleRecognizer(config GoogleConfig) (*GoogleRecognizer, error) {
	if config.Source == nil {
		return nil, errors.New("speech: recording source required")
	}
	if config.Endpoint == "" {
		config.Endpoint = DefaultEndpoint
	}
	if config.Language == "" {
		config.Language = "en-US"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: config.Timeout}
	}
	if config.RequestsPerMinute == 0 {
		config.RequestsPerMinute = 30
	}

	return &GoogleRecognizer{
		apiKey:      config.APIKey,
		endpoint:    config.Endpoint,
		language:    config.Language,
		source:      config.Source,
		client:      config.HTTPClient,
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RequestsPerMinute)), 1),
	}, nil
}

type recognizeRequest struct {
	Config recognitionConfig `json:"config"`
	Audio  recognitionAudio  `json:"audio"`
}

type recognitionConfig struct {
	Encoding        string `json:"encoding"`
	SampleRateHertz int    `json:"sampleRateHertz"`
	LanguageCode    string `json:"languageCode"`
	MaxAlternatives int    `json:"maxAlternatives"`
}

type recognitionAudio struct {
	Content string `json:"content"`
}

type recognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"results"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Recognize captures from the source and transcribes it. It never panics
// and never returns a partially filled Result: either Text or Err is set.
func (g *GoogleRecognizer) Recognize(ctx context.Context) Result {
	path, temporary, err := g.source.Capture(ctx)
	if err != nil {
		return Failed(fmt.Errorf("capture: %w", err))
	}
	if temporary {
		defer os.Remove(path) //nolint:errcheck
	}

	text, err := g.RecognizeFile(ctx, path)
	if err != nil {
		return Failed(err)
	}
	return OK(text)
}

// RecognizeFile transcribes an existing WAV file.
func (g *GoogleRecognizer) RecognizeFile(ctx context.Context, path string) (string, error) {
	content, sampleRate, err := readRecording(path)
	if err != nil {
		return "", err
	}

	if err := g.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait cancelled: %w", err)
	}

	body, err := json.Marshal(recognizeRequest{
		Config: recognitionConfig{
			Encoding:        "LINEAR16",
			SampleRateHertz: sampleRate,
			LanguageCode:    g.language,
			MaxAlternatives: 1,
		},
		Audio: recognitionAudio{Content: base64.StdEncoding.EncodeToString(content)},
	})
	if err != nil {
		return "", err
	}

	endpoint := g.endpoint
	if g.apiKey != "" {
		endpoint += "?key=" + url.QueryEscape(g.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", ErrUnavailable, err)
	}

	var parsed recognizeResponse
	if err := json.Unmarshal(raw, &parsed); err != nil && resp.StatusCode == http.StatusOK {
		return "", fmt.Errorf("%w: malformed response: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		if parsed.Error != nil && parsed.Error.Message != "" {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("%w: %s", ErrUnavailable, msg)
	}

	log.Debug("Speech recognized", "results", len(parsed.Results), "elapsed", time.Since(start))

	for _, r := range parsed.Results {
		for _, alt := range r.Alternatives {
			if t := strings.TrimSpace(alt.Transcript); t != "" {
				return t, nil
			}
		}
	}
	return "", ErrNoSpeech
}

// readRecording validates a WAV file and returns its raw bytes and rate.
func readRecording(path string) ([]byte, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close() //nolint:errcheck

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, fmt.Errorf("%s: not a valid WAV file", path)
	}
	if dec.BitDepth != 16 {
		return nil, 0, fmt.Errorf("%s: need 16-bit PCM, got %d-bit", path, dec.BitDepth)
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	if dec.PCMLen() == 0 {
		return nil, 0, ErrNoSpeech
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read recording: %w", err)
	}
	if len(content) > maxInlineAudio {
		return nil, 0, fmt.Errorf("%s: recording too large (%d bytes)", path, len(content))
	}
	return content, int(dec.SampleRate), nil
}

var _ Recognizer = (*GoogleRecognizer)(nil)
