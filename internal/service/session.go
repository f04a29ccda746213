// Package service drives the screens of one browser session.
//
// A Session is the single owner of a user's UI state. Every operation holds
// the session lock for its whole duration, network call included, so
// operations on one session never interleave.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mmynk/compartilha/internal/allocation"
	"github.com/mmynk/compartilha/internal/api"
	"github.com/mmynk/compartilha/internal/debounce"
	"github.com/mmynk/compartilha/internal/models"
	"github.com/mmynk/compartilha/internal/validation"
)

// DefaultConfigDelay is how long fee and discount edits settle before they are saved.
const DefaultConfigDelay = time.Second

var (
	// ErrWrongScreen is returned when an operation does not apply to the current screen.
	ErrWrongScreen = errors.New("operation not available on this screen")
	// ErrReadOnly is returned when a finalized division would be modified.
	ErrReadOnly = errors.New("division is finalized")
	// ErrItemNotFound is returned when an item ID is not in the division.
	ErrItemNotFound = errors.New("item not found")
)

// Backend is the part of the bill-splitting API a session uses.
type Backend interface {
	CreateDivision(ctx context.Context, req api.CreateDivisionRequest) (models.Division, error)
	CalculateTotals(ctx context.Context, divisionID string) (models.Totals, error)
	UpdateConfig(ctx context.Context, divisionID string, feePercent, discount float64) (models.Division, error)
	Rename(ctx context.Context, divisionID, name string) (models.Division, error)
	DistributeItem(ctx context.Context, divisionID, itemID string, shares []models.Share) (models.Division, error)
	AddItem(ctx context.Context, divisionID string, in models.ItemInput) (models.Division, error)
	EditItem(ctx context.Context, divisionID, itemID string, in models.ItemInput) (models.Division, error)
	DeleteItem(ctx context.Context, divisionID, itemID string) (models.Division, error)
	AddPerson(ctx context.Context, divisionID, name string) (models.Division, error)
	DeletePerson(ctx context.Context, divisionID, personID string) (models.Division, error)
	Finalize(ctx context.Context, divisionID string) (models.Division, error)
	ListDivisions(ctx context.Context) ([]models.Division, error)
	GetDivision(ctx context.Context, divisionID string) (models.Division, error)
	DeleteDivision(ctx context.Context, divisionID string) error
	DuplicateDivision(ctx context.Context, divisionID string) (models.Division, error)
	ScanReceipt(ctx context.Context, filename, contentType string, data []byte) (models.ScanResult, error)
}

var _ Backend = (*api.Client)(nil)

// Options tune a Session. Zero values pick the defaults.
type Options struct {
	// ConfigDelay is the debounce delay of fee and discount edits.
	ConfigDelay time.Duration
	// SaveTimeout bounds a debounced save, which runs outside any request.
	SaveTimeout time.Duration
	// Now is the clock used for name suggestions and history periods.
	Now func() time.Time
	// Logger defaults to slog.Default() with a "component" attribute.
	Logger *slog.Logger
}

// Session is the UI state machine of one browser session.
type Session struct {
	backend     Backend
	logger      *slog.Logger
	now         func() time.Time
	saveTimeout time.Duration
	config      *debounce.Debouncer

	mu           sync.Mutex
	screen       Screen
	upload       UploadState
	people       PeopleState
	dist         DistributionState
	editor       *allocation.Editor
	editorErrors validation.Violations
	summary      SummaryState
	alert        *Alert
	onDivision   func(divisionID string)
}

// NewSession creates a session on the upload screen.
func NewSession(backend Backend, opts Options) *Session {
	if opts.ConfigDelay <= 0 {
		opts.ConfigDelay = DefaultConfigDelay
	}
	if opts.SaveTimeout <= 0 {
		opts.SaveTimeout = api.DefaultTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default().With("component", "session")
	}
	return &Session{
		backend:     backend,
		logger:      opts.Logger,
		now:         opts.Now,
		saveTimeout: opts.SaveTimeout,
		config:      debounce.New(opts.ConfigDelay),
		screen:      ScreenUpload,
	}
}

// OnDivisionChange registers fn to be called with the ID of the division the
// session works on, or "" when it leaves it.
func (s *Session) OnDivisionChange(fn func(divisionID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDivision = fn
}

// Screen returns the current screen.
func (s *Session) Screen() Screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen
}

// State returns a copy of the current screen's payload.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.screen {
	case ScreenPeople:
		p := s.people
		p.Names = append([]string(nil), s.people.Names...)
		return p
	case ScreenDistribution:
		d := s.dist
		if s.editor != nil {
			d.Editor = s.editorView()
		}
		if s.dist.ItemForm != nil {
			form := *s.dist.ItemForm
			d.ItemForm = &form
		}
		return d
	case ScreenSummary:
		return s.summary
	default:
		return s.upload
	}
}

// DivisionID returns the ID of the division on screen, if any.
func (s *Session) DivisionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.divisionID()
}

// PopAlert returns the pending alert and clears it.
func (s *Session) PopAlert() *Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.alert
	s.alert = nil
	return a
}

// Reset drops everything and returns to the upload screen.
// A pending config save is discarded.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// Close stops background work. The session must not be used afterwards.
func (s *Session) Close() {
	s.config.Stop()
}

// GoBack moves to the previous screen. Leaving the people or distribution
// screen starts over; leaving the summary returns to the distribution screen.
func (s *Session) GoBack(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.screen {
	case ScreenPeople, ScreenDistribution:
		s.reset()
	case ScreenSummary:
		s.enterDistribution(ctx, s.summary.Division, &s.summary.Totals)
	}
}

func (s *Session) reset() {
	s.config.Cancel()
	prev := s.divisionID()
	s.screen = ScreenUpload
	s.upload = UploadState{}
	s.people = PeopleState{}
	s.dist = DistributionState{}
	s.summary = SummaryState{}
	s.editor = nil
	s.editorErrors = nil
	if prev != "" {
		s.notifyDivision("")
	}
}

func (s *Session) divisionID() string {
	switch s.screen {
	case ScreenDistribution:
		return s.dist.Division.ID
	case ScreenSummary:
		return s.summary.Division.ID
	}
	return ""
}

func (s *Session) notifyDivision(id string) {
	if s.onDivision != nil {
		s.onDivision(id)
	}
}

// fail records err as the pending alert. An expired sign-in also resets the
// session, since no further call can succeed.
func (s *Session) fail(op string, err error) {
	a := alertFor(err)
	s.logger.Warn("Operation failed", "operation", op, "alert", a.Code, "error", err)
	s.alert = &a
	if a.Code == CodeSessionExpired {
		s.reset()
	}
}
