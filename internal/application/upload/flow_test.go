package upload

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/bryanwahyu/chromaleap/internal/application/analyses"
	domain "github.com/bryanwahyu/chromaleap/internal/domain/analysis"
)

type fakeStorage struct {
	mu    sync.Mutex
	calls int
	names []string
	err   error
	block chan struct{}
}

func (s *fakeStorage) Put(_ context.Context, body io.Reader, _ int64, filename, _ string) (string, error) {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.names = append(s.names, filename)
	if s.err != nil {
		return "", s.err
	}
	if _, err := io.ReadAll(body); err != nil {
		return "", err
	}
	return "https://cdn.example.com/image-analyses/" + filename, nil
}

type fakeAnalyzer struct {
	url string
	err error
}

func (a *fakeAnalyzer) Analyze(_ context.Context, imageURL string) (analyses.Outcome, error) {
	a.url = imageURL
	if a.err != nil {
		return analyses.Outcome{}, a.err
	}
	return analyses.Outcome{
		Analysis:   domain.MustResult(`{"hypothesized_pipeline":[{"effect_name":"Exposure"}]}`),
		AnalysisID: "rec-1",
	}, nil
}

func file(name, ct string) File {
	data := []byte("fake image bytes")
	return File{
		Name:        name,
		ContentType: ct,
		Size:        int64(len(data)),
		Open:        func() (io.ReadCloser, error) { return io.NopCloser(bytes.NewReader(data)), nil },
	}
}

func wait(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case r, ok := <-ch:
		if !ok {
			t.Fatal("channel closed without result")
		}
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for result")
	}
	return Result{}
}

func TestNonImageNeverTouchesStorage(t *testing.T) {
	cases := [][]File{
		nil,
		{file("notes.txt", "text/plain")},
		{file("doc.pdf", "application/pdf"), file("clip.mp4", "video/mp4")},
	}
	for _, files := range cases {
		st := &fakeStorage{}
		flow := New(st, &fakeAnalyzer{})
		ch, err := flow.Start(context.Background(), files)
		if !errors.Is(err, ErrNotImage) || !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("err = %v, want ErrNotImage", err)
		}
		if ch != nil {
			t.Error("no task expected for rejected input")
		}
		if st.calls != 0 {
			t.Errorf("storage called %d times", st.calls)
		}
		if flow.Phase() != Idle {
			t.Errorf("phase = %v, want idle", flow.Phase())
		}
	}
}

func TestFlowSuccessPicksFirstImage(t *testing.T) {
	st := &fakeStorage{}
	an := &fakeAnalyzer{}
	flow := New(st, an)

	var mu sync.Mutex
	var events []Event
	flow.Subscribe(func(ev Event) {
		mu.Lock()
		events = append(events, ev)
		mu.Unlock()
	})

	ch, err := flow.Start(context.Background(), []File{
		file("readme.md", "text/markdown"),
		file("sunset.jpg", "image/jpeg"),
		file("other.png", "image/png"),
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	res := wait(t, ch)
	if res.Err != nil {
		t.Fatalf("result error: %v", res.Err)
	}
	if res.File != "sunset.jpg" || st.calls != 1 || st.names[0] != "sunset.jpg" {
		t.Errorf("wrong file uploaded: %+v %v", res, st.names)
	}
	if an.url != res.ImageURL || res.ImageURL == "" {
		t.Errorf("analyzer got %q, result url %q", an.url, res.ImageURL)
	}
	if res.Outcome.AnalysisID != "rec-1" {
		t.Errorf("outcome = %+v", res.Outcome)
	}
	if _, ok := <-ch; ok {
		t.Error("channel should be closed after the result")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []struct {
		phase    Phase
		progress int
	}{{Uploading, 0}, {Analyzing, 50}, {Idle, 100}}
	if len(events) != len(want) {
		t.Fatalf("events = %+v", events)
	}
	for i, w := range want {
		if events[i].Phase != w.phase || events[i].Progress != w.progress {
			t.Errorf("event %d = %+v, want %v/%d", i, events[i], w.phase, w.progress)
		}
	}
}

func TestFlowStorageFailureReturnsToIdle(t *testing.T) {
	an := &fakeAnalyzer{}
	flow := New(&fakeStorage{err: errors.New("bucket not found")}, an)

	ch, err := flow.Start(context.Background(), []File{file("a.webp", "image/webp")})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	res := wait(t, ch)
	if res.Err == nil || res.Err.Error() != "bucket not found" {
		t.Errorf("err = %v", res.Err)
	}
	if an.url != "" {
		t.Error("analyzer must not run after a failed upload")
	}
	if flow.Phase() != Idle {
		t.Errorf("phase = %v", flow.Phase())
	}
}

func TestFlowAnalysisFailureReturnsToIdle(t *testing.T) {
	flow := New(&fakeStorage{}, &fakeAnalyzer{err: errors.New("Rate limit exceeded. Please try again later.")})

	ch, err := flow.Start(context.Background(), []File{file("a.png", "image/png")})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	res := wait(t, ch)
	if res.Err == nil {
		t.Fatal("expected error")
	}
	if res.ImageURL == "" {
		t.Error("image url should be kept even when analysis fails")
	}
	if flow.Phase() != Idle {
		t.Errorf("phase = %v", flow.Phase())
	}

	// idle again, so a new flow can start
	ch, err = flow.Start(context.Background(), []File{file("b.png", "image/png")})
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	wait(t, ch)
}

func TestFlowBusy(t *testing.T) {
	st := &fakeStorage{block: make(chan struct{})}
	flow := New(st, &fakeAnalyzer{})

	ch, err := flow.Start(context.Background(), []File{file("a.png", "image/png")})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if flow.Phase() != Uploading {
		t.Errorf("phase = %v, want uploading", flow.Phase())
	}
	if _, err := flow.Start(context.Background(), []File{file("b.png", "image/png")}); !errors.Is(err, ErrBusy) {
		t.Errorf("second start: err = %v, want ErrBusy", err)
	}
	close(st.block)
	wait(t, ch)
}

func TestIsImage(t *testing.T) {
	cases := map[string]bool{
		"image/jpeg":      true,
		"IMAGE/PNG":       true,
		" image/webp ":    true,
		"text/plain":      false,
		"":                false,
		"application/pdf": false,
	}
	for ct, want := range cases {
		if got := IsImage(ct); got != want {
			t.Errorf("IsImage(%q) = %v, want %v", ct, got, want)
		}
	}
}
