// ABOUTME: Gemini REST client for generated notes and instrument photo analysis
// ABOUTME: Speech output is normalized to the canonical stored note format
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sonicmapper/sonicmapper-go/internal/generate"
	"github.com/Sonicmapper/sonicmapper-go/pkg/audio"
	"github.com/Sonicmapper/sonicmapper-go/pkg/codec"
)

const (
	DefaultBaseURL     = "https://generativelanguage.googleapis.com/v1beta"
	DefaultTTSModel    = "gemini-2.5-flash-preview-tts"
	DefaultVisionModel = "gemini-2.5-flash"
	DefaultVoice       = "Kore"

	suggestPrompt = "Identify the parts of this instrument that can be played. List them briefly."
)

type Config struct {
	APIKey      string
	BaseURL     string
	TTSModel    string
	VisionModel string
	Voice       string
	Timeout     time.Duration
	Retry       RetryConfig
	Codec       *codec.Codec
	Logger      *slog.Logger
}

// Client talks to the Gemini generateContent API
type Client struct {
	cfg        Config
	httpClient *http.Client
	codec      *codec.Codec
	logger     *slog.Logger
}

var (
	_ generate.NoteGenerator = (*Client)(nil)
	_ generate.ImageAnalyzer = (*Client)(nil)
)

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.TTSModel == "" {
		cfg.TTSModel = DefaultTTSModel
	}
	if cfg.VisionModel == "" {
		cfg.VisionModel = DefaultVisionModel
	}
	if cfg.Voice == "" {
		cfg.Voice = DefaultVoice
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.Retry.MaxAttempts == 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	c := cfg.Codec
	if c == nil {
		c = codec.New(nil)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		codec:      c,
		logger:     logger,
	}
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
	Role  string `json:"role,omitempty"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type request struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type response struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

// GenerateNote asks the speech model for a spoken intro followed by the note
// and returns it as a stored note
func (c *Client) GenerateNote(ctx context.Context, instrument, description string) (string, error) {
	prompt := fmt.Sprintf("Say cheerfully: Now playing a %s on a %s. Then play a single, clear, "+
		"high-quality audio sample of a %s playing the note %s. The sound should be sustain and clear.",
		description, instrument, instrument, description)

	req := request{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig: voiceConfig{
					PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: c.cfg.Voice},
				},
			},
		},
	}

	result, err := c.generate(ctx, c.cfg.TTSModel, req)
	if err != nil {
		return "", err
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 ||
		result.Candidates[0].Content.Parts[0].InlineData == nil {
		return "", fmt.Errorf("%w: no audio in response", generate.ErrUnavailable)
	}

	data := result.Candidates[0].Content.Parts[0].InlineData
	c.logger.Debug("note generated", "instrument", instrument, "description", description, "mime", data.MimeType)

	return c.normalize(data)
}

// AnalyzeImage asks the vision model which parts of the instrument can be played
func (c *Client) AnalyzeImage(ctx context.Context, image []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = http.DetectContentType(image)
	}

	req := request{
		Contents: []content{{
			Parts: []part{
				{InlineData: &inlineData{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
				{Text: suggestPrompt},
			},
		}},
	}

	result, err := c.generate(ctx, c.cfg.VisionModel, req)
	if err != nil {
		return "", err
	}

	if len(result.Candidates) == 0 {
		return "", nil
	}

	var text strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}
	return strings.TrimSpace(text.String()), nil
}

func (c *Client) generate(ctx context.Context, model string, reqBody request) (*response, error) {
	if c.cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: no API key configured", generate.ErrUnavailable)
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	var result response
	retryErr := withRetry(ctx, c.cfg.Retry, func() error {
		url := fmt.Sprintf("%s/models/%s:generateContent", c.cfg.BaseURL, model)
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
		if err != nil {
			return permanent(fmt.Errorf("creating request: %w", err))
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", c.cfg.APIKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			apiErr := fmt.Errorf("gemini API error %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
			if isRetryableHTTPStatus(resp.StatusCode) {
				c.logger.Warn("gemini request failed, retrying", "model", model, "status", resp.StatusCode)
				return apiErr
			}
			return permanent(apiErr)
		}

		if err := json.Unmarshal(respBody, &result); err != nil {
			return permanent(fmt.Errorf("decoding response: %w", err))
		}
		return nil
	})

	if retryErr != nil {
		return nil, retryErr
	}

	if result.Error != nil {
		return nil, fmt.Errorf("gemini error: %s", result.Error.Message)
	}

	return &result, nil
}

// normalize converts returned speech into a stored note. The model replies
// with 16-bit mono PCM; a rate other than 24000 Hz is rendered through the codec.
func (c *Client) normalize(data *inlineData) (string, error) {
	rate := pcmRate(data.MimeType)
	if rate == 0 || rate == audio.CanonicalSampleRate {
		if err := codec.Validate(data.Data); err != nil {
			return "", fmt.Errorf("%w: %w", codec.ErrSourceDecode, err)
		}
		return data.Data, nil
	}

	raw, err := codec.DecodeText(data.Data)
	if err != nil {
		return "", fmt.Errorf("%w: %w", codec.ErrSourceDecode, err)
	}
	if len(raw)%audio.BytesPerSample != 0 {
		return "", fmt.Errorf("%w: %w", codec.ErrSourceDecode, codec.ErrTruncatedStream)
	}

	frames := len(raw) / audio.BytesPerSample
	buf := audio.NewBuffer(audio.Format{SampleRate: rate, Channels: 1, BitDepth: 16}, frames)
	samples := buf.Channel(0)
	for i := range samples {
		samples[i] = audio.SampleFromInt16(int16(binary.LittleEndian.Uint16(raw[i*2:])))
	}

	c.logger.Debug("resampling generated note", "from", rate, "to", audio.CanonicalSampleRate)
	return c.codec.Encode(buf)
}

// pcmRate extracts rate=N from a mime type such as audio/L16;codec=pcm;rate=24000
func pcmRate(mimeType string) int {
	for _, param := range strings.Split(mimeType, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || !strings.EqualFold(key, "rate") {
			continue
		}
		rate, err := strconv.Atoi(value)
		if err != nil || rate <= 0 {
			return 0
		}
		return rate
	}
	return 0
}
