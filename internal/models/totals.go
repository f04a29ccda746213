package models

// ConsumedItem represents an item's share for one person.
type ConsumedItem struct {
	Name            string  `json:"nome"`
	Quantity        float64 `json:"quantidade"`
	Value           float64 `json:"valor"`             // Quantity × unit price
	DiscountApplied float64 `json:"desconto_aplicado"` // This item's slice of the person's discount
}

// PersonTotal represents one person's calculated share of a division.
// This is the output of the cost allocation calculation.
type PersonTotal struct {
	// ID is the person ID. The API omits it; locally computed totals set it.
	ID string `json:"id,omitempty"`

	// Name is the display name of the person.
	Name string `json:"nome"`

	// Items are the items this person consumed with their values.
	Items []ConsumedItem `json:"itens"`

	// Subtotal is the sum of this person's consumed item values.
	Subtotal float64 `json:"subtotal"`

	// Fee is this person's service fee:
	// (subtotal − discount) × fee% / 100.
	Fee float64 `json:"taxa"`

	// Discount is this person's proportional share of the flat discount:
	// discount × subtotal / bill_subtotal.
	Discount float64 `json:"desconto"`

	// Total is the final amount this person owes (subtotal − discount + fee).
	Total float64 `json:"total"`

	// BillPercent is Total as a percentage of the grand total.
	BillPercent float64 `json:"percentual_da_conta"`
}

// Progress represents how much of a division has been distributed.
type Progress struct {
	// DistributedPercent is distributed quantity / total quantity × 100, rounded to 2 decimals.
	DistributedPercent float64 `json:"percentual_distribuido"`

	// RemainingItems counts items that are not fully distributed.
	RemainingItems int `json:"itens_restantes"`
}

// Complete reports whether every item has been distributed.
func (p Progress) Complete() bool {
	return p.RemainingItems == 0
}

// Totals is the response of the totals endpoint.
type Totals struct {
	People   []PersonTotal `json:"pessoas"`
	Progress Progress      `json:"progresso"`
}

// ScanResult is the response of the receipt scan endpoint.
type ScanResult struct {
	Success bool   `json:"success"`
	Items   []Item `json:"itens"`
}
