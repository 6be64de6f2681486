package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bryanwahyu/chromaleap/internal/domain/ai"
)

const (
	DefaultModel = "gemini-2.5-pro"

	// matches the upload limit advertised to users
	maxImageBytes = 20 << 20
)

// Client calls Gemini directly. The image is downloaded and sent inline since
// the API does not fetch arbitrary URLs.
type Client struct {
	APIKey string
	Model  string
	httpc  *http.Client
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		APIKey: strings.TrimSpace(apiKey),
		Model:  strings.TrimSpace(model),
		httpc:  http.DefaultClient,
	}
}

func (c *Client) Complete(ctx context.Context, in ai.CompletionRequest) (string, error) {
	data, format, err := c.fetchImage(ctx, in.ImageURL)
	if err != nil {
		return "", ai.FromStatus(0, err)
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(c.APIKey))
	if err != nil {
		return "", ai.FromStatus(0, err)
	}
	defer cl.Close()

	m := cl.GenerativeModel(modelName(in.Model, c.Model))
	m.SetTemperature(in.Temperature)
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(in.SystemPrompt)}}

	resp, err := m.GenerateContent(ctx, genai.Text(in.UserText), genai.ImageData(format, data))
	if err != nil {
		return "", ai.FromStatus(statusOf(err), err)
	}
	text := textOf(resp)
	if text == "" {
		return "", ai.ErrEmptyCompletion
	}
	return text, nil
}

func (c *Client) fetchImage(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("fetch image: %w", err)
	}
	if len(data) > maxImageBytes {
		return nil, "", fmt.Errorf("fetch image: larger than %d bytes", maxImageBytes)
	}
	return data, imageFormat(data), nil
}

// imageFormat returns the subtype genai.ImageData expects ("jpeg", "png", ...).
func imageFormat(data []byte) string {
	mt := mimetype.Detect(data).String()
	if !strings.HasPrefix(mt, "image/") {
		return "jpeg"
	}
	return strings.TrimPrefix(mt, "image/")
}

// modelName strips the gateway-style vendor prefix.
func modelName(names ...string) string {
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			return strings.TrimPrefix(n, "google/")
		}
	}
	return DefaultModel
}

func textOf(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			break
		}
	}
	return b.String()
}

// statusOf maps REST and gRPC failures onto HTTP status codes.
func statusOf(err error) int {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code
	}
	if st, ok := status.FromError(err); ok {
		switch st.Code() {
		case codes.ResourceExhausted:
			return http.StatusTooManyRequests
		case codes.PermissionDenied:
			return http.StatusForbidden
		case codes.Unavailable:
			return http.StatusServiceUnavailable
		}
	}
	return 0
}
