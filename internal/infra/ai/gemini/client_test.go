package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bryanwahyu/chromaleap/internal/domain/ai"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

func TestStatusOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"googleapi 429", &googleapi.Error{Code: 429}, 429},
		{"wrapped googleapi 402", fmt.Errorf("call: %w", &googleapi.Error{Code: 402}), 402},
		{"grpc exhausted", status.Error(codes.ResourceExhausted, "quota"), 429},
		{"grpc unavailable", status.Error(codes.Unavailable, "down"), 503},
		{"plain error", errors.New("boom"), 0},
	}
	for _, tc := range cases {
		if got := statusOf(tc.err); got != tc.want {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}

	if !errors.Is(ai.FromStatus(statusOf(&googleapi.Error{Code: 429}), nil), ai.ErrRateLimited) {
		t.Errorf("expected rate limit mapping")
	}
}

func TestModelName(t *testing.T) {
	if got := modelName("", "google/gemini-2.5-flash"); got != "gemini-2.5-flash" {
		t.Errorf("expected prefix stripped, got %q", got)
	}
	if got := modelName("gemini-1.5-pro", "other"); got != "gemini-1.5-pro" {
		t.Errorf("expected request model to win, got %q", got)
	}
	if got := modelName("", " "); got != DefaultModel {
		t.Errorf("expected default, got %q", got)
	}
}

func TestTextOf(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{
		{Content: &genai.Content{Parts: []genai.Part{genai.Text("```json\n"), genai.Text("{}\n```")}}},
		{Content: &genai.Content{Parts: []genai.Part{genai.Text("ignored")}}},
	}}
	if got := textOf(resp); got != "```json\n{}\n```" {
		t.Errorf("unexpected text %q", got)
	}
	if textOf(nil) != "" || textOf(&genai.GenerateContentResponse{}) != "" {
		t.Errorf("expected empty text")
	}
}

func TestFetchImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.png" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(pngHeader)
	}))
	defer srv.Close()

	c := NewClient("key", "")
	data, format, err := c.fetchImage(context.Background(), srv.URL+"/ok.png")
	if err != nil {
		t.Fatalf("fetchImage failed: %v", err)
	}
	if len(data) != len(pngHeader) || format != "png" {
		t.Errorf("unexpected image %d bytes format %q", len(data), format)
	}

	if _, _, err := c.fetchImage(context.Background(), srv.URL+"/missing.png"); err == nil {
		t.Errorf("expected error for missing image")
	}
}

func TestComplete_UnreachableImageIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewClient("key", "").Complete(context.Background(), ai.CompletionRequest{ImageURL: srv.URL + "/gone.jpg"})
	if !errors.Is(err, ai.ErrUpstreamUnavailable) {
		t.Errorf("expected upstream error, got %v", err)
	}
}
