package cli

import (
	"sync"

	"github.com/bryanwahyu/chromaleap/internal/application/upload"
	"github.com/bryanwahyu/chromaleap/internal/domain/analysis"
)

// Session holds the one analysis visible in a terminal session.
type Session struct {
	mu         sync.Mutex
	result     analysis.Result
	imageURL   string
	analysisID analysis.RecordID
}

// Complete stores a successful flow result. Failed results leave the session
// untouched.
func (s *Session) Complete(r upload.Result) bool {
	if r.Err != nil || r.Outcome.Analysis.IsZero() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = r.Outcome.Analysis
	s.imageURL = r.ImageURL
	s.analysisID = r.Outcome.AnalysisID
	return true
}

// Show replaces the current analysis with a stored record.
func (s *Session) Show(rec *analysis.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result, s.imageURL, s.analysisID = rec.Result, rec.ImageURL, rec.ID
}

// Current returns the visible analysis, ok is false when there is none.
func (s *Session) Current() (res analysis.Result, imageURL string, id analysis.RecordID, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.imageURL, s.analysisID, !s.result.IsZero()
}

// Reset clears the session ("analyze another image").
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result, s.imageURL, s.analysisID = analysis.Result{}, "", ""
}
