package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmynk/compartilha/internal/calculator"
	"github.com/mmynk/compartilha/internal/models"
)

// History period bounds, in months.
const (
	DefaultHistoryMonths = 3
	MaxHistoryMonths     = 12
)

// HistoryFilter narrows the history list.
type HistoryFilter struct {
	// Months keeps divisions created in the last Months months.
	Months int
	// Status keeps one status only. Empty keeps both.
	Status models.Status
	// Search matches the division name or a participant name, ignoring case.
	Search string
}

// HistoryResult is the filtered history list.
type HistoryResult struct {
	Entries []calculator.Summary
	// OpenCount and FinalizedCount count the filtered entries per status.
	OpenCount      int
	FinalizedCount int
}

func (f HistoryFilter) normalized() HistoryFilter {
	switch {
	case f.Months <= 0:
		f.Months = DefaultHistoryMonths
	case f.Months > MaxHistoryMonths:
		f.Months = MaxHistoryMonths
	}
	if f.Status != models.StatusOpen && f.Status != models.StatusFinalized {
		f.Status = ""
	}
	f.Search = models.NameKey(f.Search)
	return f
}

// History lists the user's divisions, newest first as the API returns them.
// Divisions without a parsable creation date are always kept.
func (s *Session) History(ctx context.Context, filter HistoryFilter) (HistoryResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	divisions, err := s.backend.ListDivisions(ctx)
	if err != nil {
		s.fail("list_divisions", err)
		return HistoryResult{}, fmt.Errorf("failed to list divisions: %w", err)
	}

	f := filter.normalized()
	since := s.now().AddDate(0, -f.Months, 0)

	var kept []models.Division
	for _, d := range divisions {
		if created, err := time.Parse(time.RFC3339, d.CreatedAt); err == nil && created.Before(since) {
			continue
		}
		if f.Status != "" && d.Status != f.Status {
			continue
		}
		if f.Search != "" && !matches(d, f.Search) {
			continue
		}
		kept = append(kept, d)
	}

	result := HistoryResult{Entries: calculator.SummarizeAll(kept)}
	for _, d := range kept {
		if d.Finalized() {
			result.FinalizedCount++
		} else {
			result.OpenCount++
		}
	}
	return result, nil
}

func matches(d models.Division, key string) bool {
	if strings.Contains(models.NameKey(d.DisplayName()), key) {
		return true
	}
	for _, p := range d.People {
		if strings.Contains(models.NameKey(p.Name), key) {
			return true
		}
	}
	return false
}

// Continue opens a division from the history. Open divisions go to the
// distribution screen and finalized ones to the summary.
func (s *Session) Continue(ctx context.Context, divisionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.backend.GetDivision(ctx, divisionID)
	if err != nil {
		s.fail("get_division", err)
		return nil
	}
	s.open(ctx, d)
	return nil
}

func (s *Session) open(ctx context.Context, d models.Division) {
	if !d.Finalized() {
		s.enterDistribution(ctx, d, nil)
		return
	}
	totals, err := s.backend.CalculateTotals(ctx, d.ID)
	if err != nil {
		s.logger.Warn("Failed to fetch totals", "division_id", d.ID, "error", err)
		totals = calculator.CalculateTotals(d)
	}
	s.enterSummary(d, totals)
}

// Duplicate copies a division and opens the copy.
func (s *Session) Duplicate(ctx context.Context, divisionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, err := s.backend.DuplicateDivision(ctx, divisionID)
	if err != nil {
		s.fail("duplicate_division", err)
		return nil
	}
	s.logger.Info("Division duplicated", "source_id", divisionID, "division_id", d.ID)
	s.enterDistribution(ctx, d, nil)
	return nil
}

// DeleteDivision deletes a division. Deleting the one on screen starts over.
func (s *Session) DeleteDivision(ctx context.Context, divisionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.DeleteDivision(ctx, divisionID); err != nil {
		s.fail("delete_division", err)
		return nil
	}
	s.logger.Info("Division deleted", "division_id", divisionID)
	if s.divisionID() == divisionID {
		s.reset()
	}
	return nil
}

// Resume reopens a division after the server restarted. Failures are only
// logged and leave the session on the upload screen.
func (s *Session) Resume(ctx context.Context, divisionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if divisionID == "" || s.screen != ScreenUpload {
		return
	}
	d, err := s.backend.GetDivision(ctx, divisionID)
	if err != nil {
		s.logger.Info("Could not resume division", "division_id", divisionID, "error", err)
		return
	}
	s.open(ctx, d)
}
