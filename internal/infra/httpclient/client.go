package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	appanalyses "github.com/bryanwahyu/chromaleap/internal/application/analyses"
	domain "github.com/bryanwahyu/chromaleap/internal/domain/analysis"
)

// APIError is a non-success answer from the analysis server. Message is the
// server's "error" field and is meant for the user.
type APIError struct {
	StatusCode  int
	Message     string
	RawResponse string
}

func (e *APIError) Error() string { return e.Message }

// Client talks to the ChromaLeap HTTP API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: http.DefaultClient}
}

// Analyze posts imageURL to the analysis endpoint. A 200 with success:false
// is reported as an *APIError as well.
func (c *Client) Analyze(ctx context.Context, imageURL string) (appanalyses.Outcome, error) {
	payload, err := json.Marshal(map[string]string{"imageUrl": imageURL})
	if err != nil {
		return appanalyses.Outcome{}, err
	}

	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		appanalyses.Outcome
	}
	if err := c.do(ctx, http.MethodPost, "/v1/analyze-image", payload, &body); err != nil {
		return appanalyses.Outcome{}, err
	}
	if !body.Success {
		msg := body.Error
		if msg == "" {
			msg = "Analysis failed"
		}
		return appanalyses.Outcome{}, &APIError{StatusCode: http.StatusOK, Message: msg}
	}
	return body.Outcome, nil
}

// Get fetches a stored analysis; a 404 is returned as domain.ErrNotFound.
func (c *Client) Get(ctx context.Context, id domain.RecordID) (*domain.Record, error) {
	var rec domain.Record
	err := c.do(ctx, http.MethodGet, "/v1/analyses/"+url.PathEscape(string(id)), nil, &rec)
	if apiErr, ok := err.(*APIError); ok && apiErr.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, out any) error {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error       string `json:"error"`
			RawResponse string `json:"rawResponse"`
		}
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			apiErr.Message, apiErr.RawResponse = e.Error, e.RawResponse
		} else {
			apiErr.Message = fmt.Sprintf("%s %s: %s", method, path, resp.Status)
		}
		return apiErr
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
