package models

import (
	"math"
	"strings"

	"github.com/goccy/go-json"
)

// Epsilon is the tolerance used for every quantity comparison.
const Epsilon = 1e-9

// DefaultFeePercent is the service fee the API applies to new divisions.
const DefaultFeePercent = 10.0

// DefaultDivisionName is the name the API gives to unnamed divisions.
const DefaultDivisionName = "Divisão sem nome"

// Status is the lifecycle state of a division.
type Status string

const (
	// StatusOpen divisions can still be edited.
	StatusOpen Status = "em_andamento"
	// StatusFinalized divisions are read-only display data.
	StatusFinalized Status = "finalizada"
)

// Division represents a bill being split among people.
// It is the response body of every mutating API call.
type Division struct {
	// ID is the identifier assigned by the API (e.g. "divisao_<hex>").
	ID string `json:"id"`

	// Name is the display name of the division.
	Name string `json:"nome"`

	// Items are the purchased lines, in the order the API returns them.
	Items []Item `json:"itens"`

	// People are the participants splitting the bill.
	People []Person `json:"pessoas"`

	// Status is either StatusOpen or StatusFinalized.
	Status Status `json:"status"`

	// FeePercent is the service fee percentage (0..100) applied after the discount.
	FeePercent float64 `json:"taxa_servico_percentual"`

	// Discount is a flat amount subtracted from the subtotal before the fee.
	Discount float64 `json:"desconto_valor"`

	// CreatedAt is the creation timestamp as sent by the API (RFC 3339).
	// Listing endpoints may omit it.
	CreatedAt string `json:"created_at,omitempty"`
}

// UnmarshalJSON applies the API's defaults for fields that older
// divisions may not carry.
func (d *Division) UnmarshalJSON(data []byte) error {
	type plain Division
	aux := struct {
		*plain
		FeePercent *float64 `json:"taxa_servico_percentual"`
	}{plain: (*plain)(d)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.FeePercent != nil {
		d.FeePercent = *aux.FeePercent
	} else {
		d.FeePercent = DefaultFeePercent
	}
	if d.Status == "" {
		d.Status = StatusOpen
	}
	return nil
}

// DisplayName returns the name to show, falling back to the API default.
func (d Division) DisplayName() string {
	if strings.TrimSpace(d.Name) == "" {
		return DefaultDivisionName
	}
	return d.Name
}

// Finalized reports whether the division is read-only.
func (d Division) Finalized() bool {
	return d.Status == StatusFinalized
}

// Item returns the item with the given ID.
func (d Division) Item(id string) (Item, bool) {
	for _, item := range d.Items {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

// Person returns the participant with the given ID.
func (d Division) Person(id string) (Person, bool) {
	for _, p := range d.People {
		if p.ID == id {
			return p, true
		}
	}
	return Person{}, false
}

// HasPersonNamed reports whether a participant already uses name,
// ignoring case and surrounding whitespace.
func (d Division) HasPersonNamed(name string) bool {
	key := NameKey(name)
	for _, p := range d.People {
		if NameKey(p.Name) == key {
			return true
		}
	}
	return false
}

// FullyDistributed reports whether every item is fully allocated.
func (d Division) FullyDistributed() bool {
	for _, item := range d.Items {
		if !item.FullyDistributed() {
			return false
		}
	}
	return true
}

// Item represents a single purchased line, such as "2x Pizza".
type Item struct {
	// ID is the identifier assigned by the API.
	ID string `json:"id"`

	// Name is the description of the item (e.g., "Coca-Cola").
	Name string `json:"nome"`

	// Quantity is how many units were bought. It may be fractional.
	Quantity float64 `json:"quantidade"`

	// UnitPrice is the price of one unit.
	UnitPrice float64 `json:"valor_unitario"`

	// AssignedTo maps a person ID to the quantity of this item they consumed.
	// The sum of the values never exceeds Quantity (within Epsilon).
	AssignedTo map[string]float64 `json:"atribuido_a"`
}

// Subtotal is Quantity × UnitPrice.
func (i Item) Subtotal() float64 {
	return i.Quantity * i.UnitPrice
}

// Allocated is the sum of all assigned quantities.
func (i Item) Allocated() float64 {
	var sum float64
	for _, q := range i.AssignedTo {
		sum += q
	}
	return sum
}

// Remaining is the quantity still to be assigned.
func (i Item) Remaining() float64 {
	return i.Quantity - i.Allocated()
}

// FullyDistributed reports whether the whole quantity has been assigned.
func (i Item) FullyDistributed() bool {
	return i.Remaining() <= Epsilon
}

// HasFractionalAllocation reports whether any assigned quantity is non-integral,
// which means the item was split by value.
func (i Item) HasFractionalAllocation() bool {
	for _, q := range i.AssignedTo {
		if math.Abs(q-math.Trunc(q)) > Epsilon {
			return true
		}
	}
	return false
}

// ItemInput is the payload for adding or editing an item.
type ItemInput struct {
	Name      string  `json:"nome"`
	Quantity  float64 `json:"quantidade"`
	UnitPrice float64 `json:"valor_unitario"`
}

// Person represents a participant of a division.
type Person struct {
	// ID is the identifier assigned by the API (e.g. "pessoa_<hex>").
	ID string `json:"id"`

	// Name is the display name, unique per division ignoring case.
	Name string `json:"nome"`
}

// Initial returns the uppercase first letter of the name, used for avatars.
func (p Person) Initial() string {
	for _, r := range strings.TrimSpace(p.Name) {
		return strings.ToUpper(string(r))
	}
	return "?"
}

// Share is one person's quantity of one item.
type Share struct {
	PersonID string  `json:"pessoa_id"`
	Quantity float64 `json:"quantidade"`
}

// NameKey normalizes a participant name for uniqueness checks.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
