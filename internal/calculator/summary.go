package calculator

import (
	"sort"

	"github.com/mmynk/compartilha/internal/models"
)

// Summary is a division with its totals computed client-side.
// The history list uses it so that no extra totals request is needed per division.
type Summary struct {
	Division     models.Division
	Bill         BillTotals
	People       []models.PersonTotal
	PendingItems int
}

// PeopleCount returns the number of participants.
func (s Summary) PeopleCount() int {
	return len(s.Division.People)
}

// Summarize computes the totals of a division the same way the API does.
func Summarize(d models.Division) Summary {
	totals := CalculateTotals(d)
	pending := 0
	for _, item := range d.Items {
		if !item.FullyDistributed() {
			pending++
		}
	}
	return Summary{
		Division:     d,
		Bill:         BillOf(d),
		People:       totals.People,
		PendingItems: pending,
	}
}

// SummarizeAll summarizes every division, keeping the input order.
func SummarizeAll(divisions []models.Division) []Summary {
	out := make([]Summary, len(divisions))
	for i, d := range divisions {
		out[i] = Summarize(d)
	}
	return out
}

// Rank returns a copy of people ordered by total, largest first.
// People with equal totals keep their original order.
func Rank(people []models.PersonTotal) []models.PersonTotal {
	ranked := make([]models.PersonTotal, len(people))
	copy(ranked, people)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Total > ranked[j].Total
	})
	return ranked
}

// SumTotals adds up the person totals. This is the figure shown as the
// bill total on the summary screen.
func SumTotals(people []models.PersonTotal) float64 {
	var sum float64
	for _, p := range people {
		sum += p.Total
	}
	return sum
}

// FindByName returns the person total with the given name.
func FindByName(people []models.PersonTotal, name string) (models.PersonTotal, bool) {
	for _, p := range people {
		if p.Name == name {
			return p, true
		}
	}
	return models.PersonTotal{}, false
}
