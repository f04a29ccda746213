package service

import (
	"github.com/mmynk/compartilha/internal/allocation"
	"github.com/mmynk/compartilha/internal/calculator"
	"github.com/mmynk/compartilha/internal/models"
	"github.com/mmynk/compartilha/internal/validation"
)

// Screen identifies which step of the flow a session is on.
type Screen int

const (
	ScreenUpload Screen = iota
	ScreenPeople
	ScreenDistribution
	ScreenSummary
)

func (s Screen) String() string {
	switch s {
	case ScreenUpload:
		return "upload"
	case ScreenPeople:
		return "people"
	case ScreenDistribution:
		return "distribution"
	case ScreenSummary:
		return "summary"
	default:
		return "unknown"
	}
}

// State is the payload of the current screen. The concrete type is one of
// UploadState, PeopleState, DistributionState or SummaryState.
type State interface {
	Screen() Screen
}

// UploadState is the receipt upload screen.
type UploadState struct {
	// Error is an i18n code shown under the file picker.
	Error string
}

func (UploadState) Screen() Screen { return ScreenUpload }

// PeopleState is the participant entry screen.
type PeopleState struct {
	// Items are the scanned items the division will be created with.
	Items []models.ItemInput
	// Names are the participant slots, blank ones included.
	Names []string
	// Name is the optional division name.
	Name string
	// SuggestedName is offered as a placeholder for Name.
	SuggestedName string
	Violations    validation.Violations
}

func (PeopleState) Screen() Screen { return ScreenPeople }

// CanAddSlot reports whether another participant slot fits.
func (p PeopleState) CanAddSlot() bool { return len(p.Names) < validation.MaxPeople }

// CanRemoveSlot reports whether a slot can be removed.
func (p PeopleState) CanRemoveSlot() bool { return len(p.Names) > validation.MinPeople }

// EditorView is a read-only copy of the allocation editor.
type EditorView struct {
	Item       models.Item
	People     []models.Person
	Mode       allocation.Mode
	Locked     bool
	Quantities map[string]float64
	Selected   map[string]bool
	Remaining  float64
	CanConfirm bool
	Violations validation.Violations
}

// ItemFormView is the add/edit item dialog. ItemID is empty when adding.
type ItemFormView struct {
	ItemID     string
	Form       validation.ItemForm
	Violations validation.Violations
}

// DistributionState is the screen where items are distributed among people.
type DistributionState struct {
	// Division is the last division confirmed by the API.
	Division models.Division
	// Totals are the last totals returned by the API.
	Totals models.Totals

	// FeeDraft and DiscountDraft are the config fields as typed, not yet saved.
	FeeDraft      float64
	DiscountDraft float64
	ConfigErrors  validation.Violations

	// Renaming is set while the name field is being edited.
	Renaming   bool
	NameDraft  string
	NameErrors validation.Violations

	Editor       *EditorView
	ItemForm     *ItemFormView
	PersonErrors validation.Violations
	Violations   validation.Violations
}

func (DistributionState) Screen() Screen { return ScreenDistribution }

// LocalBill returns the bill totals using the config drafts, so the screen
// reflects fee and discount edits before the API confirms them.
func (d DistributionState) LocalBill() calculator.BillTotals {
	return calculator.Bill(calculator.Subtotal(d.Division.Items), d.DiscountDraft, d.FeeDraft)
}

// ReadOnly reports whether the division can no longer be edited.
func (d DistributionState) ReadOnly() bool { return d.Division.Finalized() }

// SummaryState is the final per-person summary.
type SummaryState struct {
	Division models.Division
	Totals   models.Totals
}

func (SummaryState) Screen() Screen { return ScreenSummary }

// Ranked returns the person totals ordered by total, largest first.
func (s SummaryState) Ranked() []models.PersonTotal { return calculator.Rank(s.Totals.People) }

// BillTotal is the sum of the person totals.
func (s SummaryState) BillTotal() float64 { return calculator.SumTotals(s.Totals.People) }
