package analyses

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/apex/log"

	"github.com/bryanwahyu/chromaleap/internal/application"
	"github.com/bryanwahyu/chromaleap/internal/domain/ai"
	domain "github.com/bryanwahyu/chromaleap/internal/domain/analysis"
	"github.com/bryanwahyu/chromaleap/internal/infra/ai/prompt"
)

// DefaultTemperature keeps the model close to deterministic.
const DefaultTemperature float32 = 0.3

// Service implements the analyze use-case. It holds no per-request state and
// is safe for concurrent use.
type Service struct {
	// Model is nil when no credential is configured; every Analyze then fails
	// with ai.ErrNotConfigured before any network call.
	Model ai.Client
	// Repo is optional; without it nothing is persisted.
	Repo  domain.Repository
	Clock application.Clock

	ModelName   string
	Temperature float32

	// OnPersistError is called when a successful analysis could not be stored.
	OnPersistError func(err error)
}

// Outcome is what a caller gets back for one image.
type Outcome struct {
	Analysis   domain.Result   `json:"analysis"`
	AnalysisID domain.RecordID `json:"analysisId,omitempty"`
}

// Configured reports whether a vision model client is set.
func (s *Service) Configured() bool { return s.Model != nil }

// Analyze asks the vision model for an editing pipeline hypothesis of the
// image at imageURL and stores the parsed document.
func (s *Service) Analyze(ctx context.Context, imageURL string) (Outcome, error) {
	if !s.Configured() {
		return Outcome{}, ai.ErrNotConfigured
	}
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return Outcome{}, domain.ErrInvalidInput
	}

	temp := s.Temperature
	if temp == 0 {
		temp = DefaultTemperature
	}

	logger := log.WithField("image_url", imageURL)
	text, err := s.Model.Complete(ctx, ai.CompletionRequest{
		SystemPrompt: prompt.GetSystemPrompt(),
		UserText:     prompt.GetUserPrompt(),
		ImageURL:     imageURL,
		Model:        s.ModelName,
		Temperature:  temp,
	})
	if err != nil {
		logger.WithError(err).Warn("vision model call failed")
		return Outcome{}, err
	}

	result, err := domain.Extract(text)
	if err != nil {
		logger.WithError(err).Warn("model reply is not valid JSON")
		return Outcome{}, err
	}

	out := Outcome{Analysis: result}
	if s.Repo == nil {
		return out, nil
	}

	// persistence is best-effort, the caller still gets the analysis
	id, err := s.Repo.Insert(ctx, &domain.Record{
		ImageURL:  imageURL,
		Result:    result,
		CreatedAt: s.now(),
	})
	if err != nil {
		logger.WithError(err).Error("persist analysis failed")
		if s.OnPersistError != nil {
			s.OnPersistError(err)
		}
		return out, nil
	}
	out.AnalysisID = id
	logger.WithField("analysis_id", id).Info("analysis stored")
	return out, nil
}

// ErrStorageDisabled is returned by read operations when no repository is wired.
var ErrStorageDisabled = errors.New("analysis storage is disabled")

// Get returns a stored analysis.
func (s *Service) Get(ctx context.Context, id domain.RecordID) (*domain.Record, error) {
	if s.Repo == nil {
		return nil, ErrStorageDisabled
	}
	if strings.TrimSpace(string(id)) == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.Repo.Get(ctx, id)
}

// List returns one page of stored analyses, newest first.
func (s *Service) List(ctx context.Context, page, pageSize int) (domain.Page, error) {
	if s.Repo == nil {
		return domain.Page{}, ErrStorageDisabled
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	items, err := s.Repo.Paginate(ctx, page, pageSize)
	if err != nil {
		return domain.Page{}, err
	}
	return domain.Page{Data: items, Page: page, PageSize: pageSize}, nil
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return application.SystemClock{}.Now()
	}
	return s.Clock.Now()
}
