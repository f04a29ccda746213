package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmynk/compartilha/internal/api"
	"github.com/mmynk/compartilha/internal/models"
	"github.com/mmynk/compartilha/internal/scan"
	"github.com/mmynk/compartilha/internal/validation"
)

// Upload screen error codes.
const (
	CodeSelectFile   = "select_file"
	CodeFileTooLarge = "file_too_large"
	CodeUnsupported  = "unsupported"
	CodeNoItems      = "no_items"
	CodeScanFailed   = "scan_failed"
)

// Scan uploads a receipt and moves to the people screen with the items read
// from it. Problems are reported on the upload screen.
func (s *Session) Scan(ctx context.Context, filename, contentType string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.screen != ScreenUpload {
		return ErrWrongScreen
	}

	up, err := scan.Prepare(filename, contentType, data)
	if err != nil {
		s.upload.Error = uploadErrorCode(err)
		s.logger.Info("Receipt rejected", "filename", filename, "size", len(data), "error", err)
		return nil
	}

	result, err := s.backend.ScanReceipt(ctx, up.Filename, up.ContentType, up.Data)
	if err != nil {
		if s.signedOut(err) {
			return nil
		}
		s.upload.Error = CodeScanFailed
		s.logger.Warn("Scan failed", "filename", filename, "error", err)
		return nil
	}
	if !result.Success || len(result.Items) == 0 {
		s.upload.Error = CodeNoItems
		return nil
	}

	items := make([]models.ItemInput, len(result.Items))
	for i, item := range result.Items {
		items[i] = models.ItemInput{Name: item.Name, Quantity: item.Quantity, UnitPrice: item.UnitPrice}
	}
	s.logger.Info("Receipt scanned", "items", len(items))
	s.enterPeople(items)
	return nil
}

// StartManual moves to the people screen with no items.
func (s *Session) StartManual() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.screen != ScreenUpload {
		return ErrWrongScreen
	}
	s.enterPeople(nil)
	return nil
}

func (s *Session) enterPeople(items []models.ItemInput) {
	s.upload = UploadState{}
	s.people = PeopleState{
		Items:         items,
		Names:         make([]string, validation.MinPeople),
		SuggestedName: SuggestName(s.now()),
	}
	s.screen = ScreenPeople
}

// EditPeople stores the participant form as typed, so adding or removing a
// slot keeps what was already entered.
func (s *Session) EditPeople(names []string, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.screen != ScreenPeople {
		return ErrWrongScreen
	}
	if len(names) > validation.MaxPeople {
		names = names[:validation.MaxPeople]
	}
	s.people.Names = append([]string(nil), names...)
	for len(s.people.Names) < validation.MinPeople {
		s.people.Names = append(s.people.Names, "")
	}
	s.people.Name = name
	s.people.Violations = nil
	return nil
}

// AddPersonSlot adds an empty participant slot, up to the maximum.
func (s *Session) AddPersonSlot() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.screen != ScreenPeople {
		return ErrWrongScreen
	}
	if s.people.CanAddSlot() {
		s.people.Names = append(s.people.Names, "")
	}
	return nil
}

// RemovePersonSlot removes the slot at index i, keeping the minimum.
func (s *Session) RemovePersonSlot(i int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.screen != ScreenPeople {
		return ErrWrongScreen
	}
	if s.people.CanRemoveSlot() && i >= 0 && i < len(s.people.Names) {
		s.people.Names = append(s.people.Names[:i:i], s.people.Names[i+1:]...)
	}
	return nil
}

// DefinePeople creates the division and moves to the distribution screen.
// Invalid names stay on the people screen; an API failure raises an alert
// and starts over.
func (s *Session) DefinePeople(ctx context.Context, names []string, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.screen != ScreenPeople {
		return ErrWrongScreen
	}

	s.people.Names = append([]string(nil), names...)
	s.people.Name = name
	clean, v := validation.People(names)
	if !v.Empty() {
		s.people.Violations = v
		return nil
	}
	s.people.Violations = nil

	req := api.CreateDivisionRequest{
		Items:       s.people.Items,
		PeopleNames: clean,
		Name:        trimmed(name),
	}
	d, err := s.backend.CreateDivision(ctx, req)
	if err != nil {
		s.fail("create_division", err)
		s.reset()
		return nil
	}
	s.logger.Info("Division created", "division_id", d.ID, "people", len(d.People), "items", len(d.Items))
	s.enterDistribution(ctx, d, nil)
	return nil
}

// signedOut raises the session-expired alert when err says so.
func (s *Session) signedOut(err error) bool {
	if a := alertFor(err); a.Code == CodeSessionExpired {
		s.fail("scan_receipt", err)
		return true
	}
	return false
}

func uploadErrorCode(err error) string {
	switch {
	case errors.Is(err, scan.ErrEmpty):
		return CodeSelectFile
	case errors.Is(err, scan.ErrTooLarge):
		return CodeFileTooLarge
	default:
		return CodeUnsupported
	}
}

// SuggestName proposes a division name from the meal period and the date,
// such as "Jantar - 12/10".
func SuggestName(t time.Time) string {
	var period string
	switch h := t.Hour(); {
	case h >= 6 && h < 11:
		period = "Café da manhã"
	case h >= 11 && h < 14:
		period = "Almoço"
	case h >= 14 && h < 18:
		period = "Lanche"
	case h >= 18 && h < 22:
		period = "Jantar"
	default:
		period = "Lanche noturno"
	}
	return fmt.Sprintf("%s - %02d/%02d", period, t.Day(), int(t.Month()))
}
