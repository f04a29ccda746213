// Package allocation implements the editor used to distribute one item among people.
package allocation

import (
	"errors"
	"math"

	"github.com/mmynk/compartilha/internal/models"
)

// ErrOverAllocated is returned when a by-quantity allocation exceeds the item quantity.
var ErrOverAllocated = errors.New("allocated quantity exceeds item quantity")

// Mode selects how the editor distributes an item.
type Mode string

const (
	// ByQuantity assigns whole units to each person.
	ByQuantity Mode = "quantidade"
	// ByValue splits the full quantity evenly among the selected people.
	ByValue Mode = "valor"
)

// Editor holds the draft allocation of one item. Nothing is sent anywhere
// until Confirm returns the shares.
type Editor struct {
	item       models.Item
	people     []models.Person
	mode       Mode
	locked     bool
	quantities map[string]float64
	selected   map[string]bool
}

// NewEditor opens the editor for item with the division's people.
//
// An item whose current allocation has a non-integral quantity was split by
// value, so the editor opens in ByValue mode and by-quantity editing is
// locked; stepping whole units from a fractional state would lose it.
func NewEditor(item models.Item, people []models.Person) *Editor {
	e := &Editor{
		item:       item,
		people:     people,
		mode:       ByQuantity,
		locked:     item.HasFractionalAllocation(),
		quantities: make(map[string]float64, len(people)),
		selected:   make(map[string]bool, len(people)),
	}
	if e.locked {
		e.mode = ByValue
	}
	for _, p := range people {
		q := item.AssignedTo[p.ID]
		e.quantities[p.ID] = q
		if q > 0 {
			e.selected[p.ID] = true
		}
	}
	return e
}

// Item returns the item being edited.
func (e *Editor) Item() models.Item { return e.item }

// People returns the people the item can be distributed to.
func (e *Editor) People() []models.Person { return e.people }

// Mode returns the active mode.
func (e *Editor) Mode() Mode { return e.mode }

// SetMode switches between ByQuantity and ByValue. Unknown modes are ignored.
func (e *Editor) SetMode(m Mode) {
	if m == ByQuantity || m == ByValue {
		e.mode = m
	}
}

// Locked reports whether by-quantity editing is disabled.
func (e *Editor) Locked() bool { return e.locked }

// Quantity returns the by-quantity draft for a person.
func (e *Editor) Quantity(personID string) float64 {
	return e.quantities[personID]
}

// Adjust changes a person's by-quantity draft by delta. The person's value is
// floored at zero, and the change is dropped if the running sum would exceed
// the item quantity. Only whole-unit deltas are accepted. It reports whether
// the draft changed.
func (e *Editor) Adjust(personID string, delta float64) bool {
	if e.locked || math.IsInf(delta, 0) || delta != math.Trunc(delta) {
		return false
	}
	current, ok := e.quantities[personID]
	if !ok {
		return false
	}
	next := current + delta
	if next < 0 {
		next = 0
	}
	if next > current && e.quantityTotal()-current+next > e.item.Quantity+models.Epsilon {
		return false
	}
	e.quantities[personID] = next
	return next != current
}

// Toggle selects or deselects a person for the by-value split.
func (e *Editor) Toggle(personID string) {
	if _, ok := e.quantities[personID]; !ok {
		return
	}
	if e.selected[personID] {
		delete(e.selected, personID)
		return
	}
	e.selected[personID] = true
}

// Selected reports whether a person is part of the by-value split.
func (e *Editor) Selected(personID string) bool {
	return e.selected[personID]
}

// Total returns the quantity the current draft distributes.
func (e *Editor) Total() float64 {
	if e.mode == ByValue {
		if len(e.selected) > 0 {
			return e.item.Quantity
		}
		return 0
	}
	return e.quantityTotal()
}

// Remaining returns the item quantity not covered by the current draft.
// It is negative when the draft over-allocates.
func (e *Editor) Remaining() float64 {
	return e.item.Quantity - e.Total()
}

// CanConfirm reports whether Confirm would succeed.
func (e *Editor) CanConfirm() bool {
	return e.mode == ByValue || e.Remaining() >= -models.Epsilon
}

// Confirm returns the shares to send for the current draft, in the order of
// the division's people. Only positive quantities are included.
func (e *Editor) Confirm() ([]models.Share, error) {
	if !e.CanConfirm() {
		return nil, ErrOverAllocated
	}

	shares := []models.Share{}
	if e.mode == ByValue {
		if len(e.selected) == 0 {
			return shares, nil
		}
		per := e.item.Quantity / float64(len(e.selected))
		for _, p := range e.people {
			if e.selected[p.ID] && per > 0 {
				shares = append(shares, models.Share{PersonID: p.ID, Quantity: per})
			}
		}
		return shares, nil
	}

	for _, p := range e.people {
		if q := e.quantities[p.ID]; q > 0 {
			shares = append(shares, models.Share{PersonID: p.ID, Quantity: q})
		}
	}
	return shares, nil
}

func (e *Editor) quantityTotal() float64 {
	var sum float64
	for _, q := range e.quantities {
		sum += q
	}
	return sum
}
