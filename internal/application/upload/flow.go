package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/apex/log"

	"github.com/bryanwahyu/chromaleap/internal/application/analyses"
	domain "github.com/bryanwahyu/chromaleap/internal/domain/analysis"
)

// Phase of the upload flow.
type Phase int

const (
	Idle Phase = iota
	Uploading
	Analyzing
)

func (p Phase) String() string {
	switch p {
	case Uploading:
		return "uploading"
	case Analyzing:
		return "analyzing"
	default:
		return "idle"
	}
}

// MsgNotImage is shown when a drop holds no image.
const MsgNotImage = "Please upload an image file (JPG, PNG, WEBP)"

var (
	// ErrBusy is returned by Start while a previous flow is still running.
	ErrBusy = errors.New("an upload is already in progress")
	// ErrNotImage wraps domain.ErrInvalidInput; its text is shown to the user as is.
	ErrNotImage = fmt.Errorf("%w: %s", domain.ErrInvalidInput, MsgNotImage)
)

// Storage uploads a file and returns its public URL.
type Storage interface {
	Put(ctx context.Context, body io.Reader, size int64, filename, contentType string) (string, error)
}

// Analyzer calls the analysis endpoint for an image URL.
type Analyzer interface {
	Analyze(ctx context.Context, imageURL string) (analyses.Outcome, error)
}

// File is one candidate picked or dropped by the user.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// Result is delivered once per Start, either with an analysis or an error.
type Result struct {
	File     string
	ImageURL string
	Outcome  analyses.Outcome
	Err      error
}

// Event is published to subscribers on every phase change.
type Event struct {
	Phase    Phase
	Progress int
	File     string
	Err      error
}

// Flow drives Storage then Analyzer for one image at a time.
type Flow struct {
	Storage  Storage
	Analyzer Analyzer

	mu    sync.Mutex
	phase Phase
	subs  []func(Event)
}

func New(storage Storage, analyzer Analyzer) *Flow {
	return &Flow{Storage: storage, Analyzer: analyzer}
}

// Subscribe registers fn for phase events. fn runs on the flow goroutine.
func (f *Flow) Subscribe(fn func(Event)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, fn)
}

func (f *Flow) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

// IsImage reports whether contentType is an image/* MIME type.
func IsImage(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(contentType)), "image/")
}

// PickImage returns the first image among files.
func PickImage(files []File) (File, bool) {
	for _, f := range files {
		if IsImage(f.ContentType) {
			return f, true
		}
	}
	return File{}, false
}

// Start picks the first image out of files and runs upload then analysis in
// the background. The returned channel yields exactly one Result and is then
// closed. Non-image input is rejected synchronously and nothing is uploaded.
func (f *Flow) Start(ctx context.Context, files []File) (<-chan Result, error) {
	file, ok := PickImage(files)
	if !ok {
		return nil, ErrNotImage
	}

	f.mu.Lock()
	if f.phase != Idle {
		f.mu.Unlock()
		return nil, ErrBusy
	}
	f.phase = Uploading
	f.mu.Unlock()

	out := make(chan Result, 1)
	go func() {
		defer close(out)
		res := f.run(ctx, file)
		out <- res
	}()
	return out, nil
}

func (f *Flow) run(ctx context.Context, file File) Result {
	res := Result{File: file.Name}
	logger := log.WithField("file", file.Name)

	f.publish(Event{Phase: Uploading, Progress: 0, File: file.Name})
	url, err := f.put(ctx, file)
	if err != nil {
		logger.WithError(err).Warn("upload failed")
		res.Err = err
		f.finish(Event{Phase: Idle, File: file.Name, Err: err})
		return res
	}
	res.ImageURL = url

	f.setPhase(Analyzing)
	f.publish(Event{Phase: Analyzing, Progress: 50, File: file.Name})

	outcome, err := f.Analyzer.Analyze(ctx, url)
	if err != nil {
		logger.WithError(err).Warn("analysis failed")
		res.Err = err
		f.finish(Event{Phase: Idle, File: file.Name, Err: err})
		return res
	}
	res.Outcome = outcome
	f.finish(Event{Phase: Idle, Progress: 100, File: file.Name})
	return res
}

func (f *Flow) put(ctx context.Context, file File) (string, error) {
	if file.Open == nil {
		return "", fmt.Errorf("open %s: no content", file.Name)
	}
	body, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", file.Name, err)
	}
	defer body.Close()
	return f.Storage.Put(ctx, body, file.Size, file.Name, file.ContentType)
}

func (f *Flow) setPhase(p Phase) {
	f.mu.Lock()
	f.phase = p
	f.mu.Unlock()
}

// finish goes back to Idle before subscribers are told, so a subscriber may
// Start the next flow right away.
func (f *Flow) finish(ev Event) {
	f.setPhase(Idle)
	f.publish(ev)
}

func (f *Flow) publish(ev Event) {
	f.mu.Lock()
	subs := append([]func(Event){}, f.subs...)
	f.mu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}
