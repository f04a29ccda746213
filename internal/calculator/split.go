package calculator

import (
	"math"

	"github.com/mmynk/compartilha/internal/models"
)

// BillTotals holds the bill-level derived values of a division.
type BillTotals struct {
	Subtotal     float64
	Discount     float64
	PostDiscount float64
	FeePercent   float64
	Fee          float64
	GrandTotal   float64
}

// Bill computes the bill-level totals from a subtotal, a flat discount and a fee percentage.
// Based on: grand_total = (subtotal − discount) × (1 + fee% / 100)
func Bill(subtotal, discount, feePercent float64) BillTotals {
	postDiscount := subtotal - discount
	fee := postDiscount * feePercent / 100
	return BillTotals{
		Subtotal:     subtotal,
		Discount:     discount,
		PostDiscount: postDiscount,
		FeePercent:   feePercent,
		Fee:          fee,
		GrandTotal:   postDiscount + fee,
	}
}

// BillOf computes the bill-level totals of a division.
func BillOf(d models.Division) BillTotals {
	return Bill(Subtotal(d.Items), d.Discount, d.FeePercent)
}

// Subtotal is the sum of quantity × unit price over all items.
func Subtotal(items []models.Item) float64 {
	var sum float64
	for _, item := range items {
		sum += item.Subtotal()
	}
	return sum
}

// PersonShare applies the proportional discount and the fee to one person's subtotal.
// The discount is split by the person's fraction of the bill subtotal; the fee is
// charged on what remains. Nothing is rounded here.
func PersonShare(personSubtotal float64, bill BillTotals) (discount, fee, total float64) {
	var proportion float64
	if bill.Subtotal != 0 {
		proportion = personSubtotal / bill.Subtotal
	}
	discount = bill.Discount * proportion
	fee = (personSubtotal - discount) * bill.FeePercent / 100
	total = personSubtotal - discount + fee
	return discount, fee, total
}

// CalculateTotals computes how much each person owes, including their proportional
// discount and service fee, plus the distribution progress.
//
// Algorithm:
//   - post_discount = subtotal − discount, fee_total = post_discount × fee% / 100
//   - person_subtotal = Σ allocated_qty × unit_price
//   - proportion = person_subtotal / subtotal (0 when subtotal is 0)
//   - person_discount = discount × proportion
//   - person_fee = (person_subtotal − person_discount) × fee% / 100
//   - person_total = person_subtotal − person_discount + person_fee
//
// The person totals are not reconciled against the grand total: once every
// item is distributed they add up to it within floating-point tolerance.
func CalculateTotals(d models.Division) models.Totals {
	bill := BillOf(d)

	people := make([]models.PersonTotal, len(d.People))
	index := make(map[string]int, len(d.People))
	for i, p := range d.People {
		people[i] = models.PersonTotal{ID: p.ID, Name: p.Name, Items: []models.ConsumedItem{}}
		index[p.ID] = i
	}

	// Walk people in division order so consumed items come out deterministically
	for _, item := range d.Items {
		for _, p := range d.People {
			qty, ok := item.AssignedTo[p.ID]
			if !ok || qty <= 0 {
				continue
			}
			value := qty * item.UnitPrice
			pt := &people[index[p.ID]]
			pt.Subtotal += value
			pt.Items = append(pt.Items, models.ConsumedItem{
				Name:     item.Name,
				Quantity: qty,
				Value:    value,
			})
		}
	}

	if bill.Subtotal == 0 {
		return models.Totals{
			People:   people,
			Progress: models.Progress{RemainingItems: len(d.Items)},
		}
	}

	for i := range people {
		pt := &people[i]
		pt.Discount, pt.Fee, pt.Total = PersonShare(pt.Subtotal, bill)
		if bill.GrandTotal > 0 {
			pt.BillPercent = pt.Total / bill.GrandTotal * 100
		}
		for j := range pt.Items {
			if pt.Subtotal > 0 {
				pt.Items[j].DiscountApplied = pt.Discount * pt.Items[j].Value / pt.Subtotal
			}
		}
	}

	return models.Totals{People: people, Progress: Progress(d)}
}

// Progress computes how much of the division has been distributed.
func Progress(d models.Division) models.Progress {
	var total, distributed float64
	remaining := 0
	for _, item := range d.Items {
		total += item.Quantity
		distributed += item.Allocated()
		if !item.FullyDistributed() {
			remaining++
		}
	}

	var percent float64
	if total > 0 {
		percent = math.Round(distributed/total*100*100) / 100
	}
	return models.Progress{DistributedPercent: percent, RemainingItems: remaining}
}
