package service

import (
	"context"
	"errors"
	"strings"

	"github.com/mmynk/compartilha/internal/allocation"
	"github.com/mmynk/compartilha/internal/calculator"
	"github.com/mmynk/compartilha/internal/models"
	"github.com/mmynk/compartilha/internal/validation"
)

// enterDistribution shows d on the distribution screen. Totals are fetched
// unless known ones are passed.
func (s *Session) enterDistribution(ctx context.Context, d models.Division, totals *models.Totals) {
	s.config.Cancel()
	s.people = PeopleState{}
	s.summary = SummaryState{}
	s.editor = nil
	s.editorErrors = nil
	s.dist = DistributionState{
		Division:      d,
		FeeDraft:      d.FeePercent,
		DiscountDraft: d.Discount,
		NameDraft:     d.DisplayName(),
	}
	if totals != nil {
		s.dist.Totals = *totals
	} else {
		s.dist.Totals = calculator.CalculateTotals(d)
		s.refreshTotals(ctx)
	}
	s.screen = ScreenDistribution
	s.notifyDivision(d.ID)
}

// refreshTotals replaces the totals with the API's. Failures keep the
// previous totals and are only logged.
func (s *Session) refreshTotals(ctx context.Context) {
	totals, err := s.backend.CalculateTotals(ctx, s.dist.Division.ID)
	if err != nil {
		s.logger.Warn("Failed to fetch totals", "division_id", s.dist.Division.ID, "error", err)
		if a := alertFor(err); a.Code == CodeSessionExpired {
			s.fail("calculate_totals", err)
		}
		return
	}
	s.dist.Totals = totals
}

// apply installs a division confirmed by the API and refreshes the totals.
// Drafts the user has not touched follow the new division.
func (s *Session) apply(ctx context.Context, d models.Division) {
	prev := s.dist.Division
	s.dist.Division = d
	if s.dist.FeeDraft == prev.FeePercent && s.dist.DiscountDraft == prev.Discount {
		s.dist.FeeDraft = d.FeePercent
		s.dist.DiscountDraft = d.Discount
	}
	if !s.dist.Renaming {
		s.dist.NameDraft = d.DisplayName()
	}
	s.dist.Violations = nil
	s.refreshTotals(ctx)
}

// mutate checks that the division can be changed, runs call and applies its
// result. It reports whether the call succeeded.
func (s *Session) mutate(ctx context.Context, op string, call func(divisionID string) (models.Division, error)) bool {
	if s.dist.ReadOnly() {
		s.fail(op, ErrReadOnly)
		return false
	}
	d, err := call(s.dist.Division.ID)
	if err != nil {
		s.fail(op, err)
		return false
	}
	s.logger.Info("Division updated", "operation", op, "division_id", d.ID)
	s.apply(ctx, d)
	return true
}

func (s *Session) onDistribution() error {
	if s.screen != ScreenDistribution {
		return ErrWrongScreen
	}
	return nil
}

// OpenEditor opens the allocation editor for an item.
func (s *Session) OpenEditor(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.onDistribution(); err != nil {
		return err
	}
	if s.dist.ReadOnly() {
		s.fail("open_editor", ErrReadOnly)
		return nil
	}
	item, ok := s.dist.Division.Item(itemID)
	if !ok {
		return ErrItemNotFound
	}
	s.editor = allocation.NewEditor(item, s.dist.Division.People)
	s.editorErrors = nil
	return nil
}

// AdjustEditor steps a person's quantity in the open editor.
func (s *Session) AdjustEditor(personID string, delta float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editor == nil {
		return false
	}
	s.editorErrors = nil
	return s.editor.Adjust(personID, delta)
}

// ToggleEditor selects or deselects a person for the by-value split.
func (s *Session) ToggleEditor(personID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editor != nil {
		s.editorErrors = nil
		s.editor.Toggle(personID)
	}
}

// SetEditorMode switches the editor tab.
func (s *Session) SetEditorMode(m allocation.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editor != nil {
		s.editorErrors = nil
		s.editor.SetMode(m)
	}
}

// CloseEditor discards the editor draft.
func (s *Session) CloseEditor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editor = nil
	s.editorErrors = nil
}

// ConfirmEditor sends the editor draft. An over-allocated draft is rejected
// without calling the API and the editor stays open.
func (s *Session) ConfirmEditor(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.onDistribution(); err != nil {
		return err
	}
	if s.editor == nil {
		return nil
	}

	shares, err := s.editor.Confirm()
	if errors.Is(err, allocation.ErrOverAllocated) {
		s.editorErrors = validation.Violations{"quantity": validation.CodeOverAllocated}
		return nil
	}
	if err != nil {
		return err
	}

	itemID := s.editor.Item().ID
	ok := s.mutate(ctx, "distribute_item", func(id string) (models.Division, error) {
		return s.backend.DistributeItem(ctx, id, itemID, shares)
	})
	if ok {
		s.editor = nil
		s.editorErrors = nil
	}
	return nil
}

func (s *Session) editorView() *EditorView {
	e := s.editor
	v := &EditorView{
		Item:       e.Item(),
		People:     e.People(),
		Mode:       e.Mode(),
		Locked:     e.Locked(),
		Quantities: make(map[string]float64, len(e.People())),
		Selected:   make(map[string]bool, len(e.People())),
		Remaining:  e.Remaining(),
		CanConfirm: e.CanConfirm(),
		Violations: s.editorErrors,
	}
	for _, p := range e.People() {
		v.Quantities[p.ID] = e.Quantity(p.ID)
		v.Selected[p.ID] = e.Selected(p.ID)
	}
	return v
}

// OpenItemForm opens the item dialog, empty for a new item or filled with
// the item to edit.
func (s *Session) OpenItemForm(itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.onDistribution(); err != nil {
		return err
	}
	if s.dist.ReadOnly() {
		s.fail("open_item_form", ErrReadOnly)
		return nil
	}
	form := &ItemFormView{}
	if itemID != "" {
		item, ok := s.dist.Division.Item(itemID)
		if !ok {
			return ErrItemNotFound
		}
		form.ItemID = item.ID
		form.Form = validation.ItemForm{
			Name:      item.Name,
			Quantity:  calculator.FormatQuantity(item.Quantity),
			UnitPrice: calculator.FormatAmount(item.UnitPrice),
		}
	}
	s.dist.ItemForm = form
	return nil
}

// CloseItemForm discards the item dialog.
func (s *Session) CloseItemForm() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dist.ItemForm = nil
}

// SaveItem adds or edits an item. itemID is empty when adding.
// Invalid fields keep the dialog open.
func (s *Session) SaveItem(ctx context.Context, itemID string, f validation.ItemForm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.onDistribution(); err != nil {
		return err
	}

	in, v := validation.Item(f)
	if !v.Empty() {
		s.dist.ItemForm = &ItemFormView{ItemID: itemID, Form: f, Violations: v}
		return nil
	}

	var ok bool
	if itemID == "" {
		ok = s.mutate(ctx, "add_item", func(id string) (models.Division, error) {
			return s.backend.AddItem(ctx, id, in)
		})
	} else {
		ok = s.mutate(ctx, "edit_item", func(id string) (models.Division, error) {
			return s.backend.EditItem(ctx, id, itemID, in)
		})
	}
	switch {
	case ok:
		s.dist.ItemForm = nil
	case s.screen == ScreenDistribution:
		s.dist.ItemForm = &ItemFormView{ItemID: itemID, Form: f}
	}
	return nil
}

// DeleteItem removes an item.
func (s *Session) DeleteItem(ctx context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.onDistribution(); err != nil {
		return err
	}
	s.mutate(ctx, "delete_item", func(id string) (models.Division, error) {
		return s.backend.DeleteItem(ctx, id, itemID)
	})
	return nil
}

// AddPerson adds a participant after checking the name is free.
func (s *Session) AddPerson(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.onDistribution(); err != nil {
		return err
	}

	name, v := validation.NewPerson(name, s.dist.Division)
	if !v.Empty() {
		s.dist.PersonErrors = v
		return nil
	}
	if s.mutate(ctx, "add_person", func(id string) (models.Division, error) {
		return s.backend.AddPerson(ctx, id, name)
	}) {
		s.dist.PersonErrors = nil
	}
	return nil
}

// DeletePerson removes a participant and their allocations.
func (s *Session) DeletePerson(ctx context.Context, personID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.onDistribution(); err != nil {
		return err
	}
	s.mutate(ctx, "delete_person", func(id string) (models.Division, error) {
		return s.backend.DeletePerson(ctx, id, personID)
	})
	return nil
}

// StartRename opens the name field.
func (s *Session) StartRename() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.onDistribution(); err != nil {
		return err
	}
	if s.dist.ReadOnly() {
		s.fail("rename", ErrReadOnly)
		return nil
	}
	s.dist.Renaming = true
	s.dist.NameDraft = s.dist.Division.DisplayName()
	s.dist.NameErrors = nil
	return nil
}

// Rename saves a new division name. A blank name keeps the field open.
func (s *Session) Rename(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.onDistribution(); err != nil {
		return err
	}

	s.dist.NameDraft = name
	name, v := validation.DivisionName(name)
	if !v.Empty() {
		s.dist.Renaming = true
		s.dist.NameErrors = v
		return nil
	}
	s.dist.Renaming = false
	if !s.mutate(ctx, "rename", func(id string) (models.Division, error) {
		return s.backend.Rename(ctx, id, name)
	}) {
		s.dist.Renaming = s.screen == ScreenDistribution
		return nil
	}
	s.dist.NameErrors = nil
	return nil
}

// CancelRename closes the name field and restores the saved name.
func (s *Session) CancelRename() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dist.Renaming = false
	s.dist.NameErrors = nil
	s.dist.NameDraft = s.dist.Division.DisplayName()
}

// SetConfig records the fee and discount as typed and schedules a save.
// Bursts of edits are collapsed into one save after the debounce delay, and
// nothing is sent when the values equal the division's.
func (s *Session) SetConfig(f validation.ConfigForm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.onDistribution(); err != nil {
		return err
	}
	if s.dist.ReadOnly() {
		s.fail("update_config", ErrReadOnly)
		return nil
	}

	fee, discount, v := validation.Config(f)
	if !v.Empty() {
		s.dist.ConfigErrors = v
		s.config.Cancel()
		return nil
	}
	s.dist.ConfigErrors = nil
	s.dist.FeeDraft = fee
	s.dist.DiscountDraft = discount

	divisionID := s.dist.Division.ID
	s.config.Trigger(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.screen != ScreenDistribution || s.dist.Division.ID != divisionID {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
		defer cancel()
		s.saveConfig(ctx)
	})
	return nil
}

// FlushConfig saves a pending config edit now instead of after the delay.
func (s *Session) FlushConfig() {
	s.config.Flush()
}

// ConfigPending reports whether a config edit is waiting to be saved.
func (s *Session) ConfigPending() bool {
	return s.config.Pending()
}

// saveConfig sends the config drafts if they differ from the division. It
// reports whether the division now carries the drafts.
func (s *Session) saveConfig(ctx context.Context) bool {
	fee, discount := s.dist.FeeDraft, s.dist.DiscountDraft
	if fee == s.dist.Division.FeePercent && discount == s.dist.Division.Discount {
		return true
	}
	return s.mutate(ctx, "update_config", func(id string) (models.Division, error) {
		return s.backend.UpdateConfig(ctx, id, fee, discount)
	})
}

// Finalize closes the division and moves to the summary screen. Every item
// must be fully distributed; a pending config edit is saved first.
func (s *Session) Finalize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.onDistribution(); err != nil {
		return err
	}
	if s.dist.ReadOnly() {
		s.enterSummary(s.dist.Division, s.dist.Totals)
		return nil
	}

	// The drafts are compared with the division rather than asking the
	// debouncer, whose timer may already have fired and be waiting on s.mu.
	s.config.Cancel()
	if !s.saveConfig(ctx) || s.screen != ScreenDistribution {
		return nil
	}
	if !s.dist.Division.FullyDistributed() {
		s.dist.Violations = validation.Violations{"items": validation.CodeNotDistributed}
		return nil
	}

	d, err := s.backend.Finalize(ctx, s.dist.Division.ID)
	if err != nil {
		s.fail("finalize", err)
		return nil
	}
	if d.ID == "" {
		d = s.dist.Division
	}
	d.Status = models.StatusFinalized
	s.logger.Info("Division finalized", "division_id", d.ID)
	s.enterSummary(d, s.dist.Totals)
	return nil
}

func (s *Session) enterSummary(d models.Division, totals models.Totals) {
	s.config.Cancel()
	s.editor = nil
	s.editorErrors = nil
	s.dist = DistributionState{}
	s.summary = SummaryState{Division: d, Totals: totals}
	s.screen = ScreenSummary
	s.notifyDivision(d.ID)
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
