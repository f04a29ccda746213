// Package validation checks form input before anything is sent to the API.
// Failures are reported per field so screens can show them inline.
package validation

import (
	"math"
	"strconv"
	"strings"

	"github.com/mmynk/compartilha/internal/models"
)

// Violation codes. They double as i18n message keys.
const (
	CodeRequired       = "required"
	CodeMustBePositive = "must_be_positive"
	CodeOutOfRange     = "out_of_range"
	CodeInvalidNumber  = "invalid_number"
	CodeMinPeople      = "min_people"
	CodeMaxPeople      = "max_people"
	CodeDuplicateName  = "duplicate_name"
	CodeNameTaken      = "name_taken"
	CodeNotDistributed = "not_distributed"
	CodeOverAllocated  = "over_allocated"
)

// MinPeople and MaxPeople bound the participant list of a new division.
const (
	MinPeople = 2
	MaxPeople = 10
)

// Violations maps a field name to a violation code.
type Violations map[string]string

// Empty reports whether there are no violations.
func (v Violations) Empty() bool { return len(v) == 0 }

// Add records a violation unless the field already has one.
func (v Violations) Add(field, code string) {
	if _, ok := v[field]; !ok {
		v[field] = code
	}
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, CodeRequired)
	}
}

func PositiveFloat(field string, val float64, v Violations) {
	if val <= 0 {
		v.Add(field, CodeMustBePositive)
	}
}

func RangeFloat(field string, val, minVal, maxVal float64, v Violations) {
	if val < minVal || val > maxVal {
		v.Add(field, CodeOutOfRange)
	}
}

// ParseDecimal reads a number typed by a user. Both "12.5" and "12,5" are
// accepted; NaN and infinities are not.
func ParseDecimal(field, value string, v Violations) float64 {
	s := strings.TrimSpace(value)
	if s == "" {
		v.Add(field, CodeRequired)
		return 0
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		v.Add(field, CodeInvalidNumber)
		return 0
	}
	return f
}

// People validates the participant list of a new division. Blank entries are
// dropped and the rest trimmed; at least MinPeople and at most MaxPeople names
// must remain, with no two equal ignoring case.
func People(names []string) ([]string, Violations) {
	v := Violations{}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}

	switch {
	case len(out) < MinPeople:
		v.Add("people", CodeMinPeople)
	case len(out) > MaxPeople:
		v.Add("people", CodeMaxPeople)
	}

	seen := make(map[string]bool, len(out))
	for _, n := range out {
		key := models.NameKey(n)
		if seen[key] {
			v.Add("people", CodeDuplicateName)
			break
		}
		seen[key] = true
	}
	return out, v
}

// NewPerson validates a participant added to an existing division.
func NewPerson(name string, d models.Division) (string, Violations) {
	v := Violations{}
	name = strings.TrimSpace(name)
	Required("name", name, v)
	if name != "" && d.HasPersonNamed(name) {
		v.Add("name", CodeNameTaken)
	}
	return name, v
}

// ItemForm is the raw input of the add/edit item form.
type ItemForm struct {
	Name      string
	Quantity  string
	UnitPrice string
}

// Item validates an item form. Every field is required and the numbers must be positive.
func Item(f ItemForm) (models.ItemInput, Violations) {
	v := Violations{}
	in := models.ItemInput{Name: strings.TrimSpace(f.Name)}
	Required("name", in.Name, v)
	in.Quantity = ParseDecimal("quantity", f.Quantity, v)
	if _, bad := v["quantity"]; !bad {
		PositiveFloat("quantity", in.Quantity, v)
	}
	in.UnitPrice = ParseDecimal("unit_price", f.UnitPrice, v)
	if _, bad := v["unit_price"]; !bad {
		PositiveFloat("unit_price", in.UnitPrice, v)
	}
	return in, v
}

// ConfigForm is the raw input of the fee/discount fields.
type ConfigForm struct {
	FeePercent string
	Discount   string
}

// Config validates the fee and discount. Empty fields count as zero.
func Config(f ConfigForm) (fee, discount float64, v Violations) {
	v = Violations{}
	if strings.TrimSpace(f.FeePercent) != "" {
		fee = ParseDecimal("fee", f.FeePercent, v)
	}
	if strings.TrimSpace(f.Discount) != "" {
		discount = ParseDecimal("discount", f.Discount, v)
	}
	if _, bad := v["fee"]; !bad {
		RangeFloat("fee", fee, 0, 100, v)
	}
	if _, bad := v["discount"]; !bad && discount < 0 {
		v.Add("discount", CodeOutOfRange)
	}
	return fee, discount, v
}

// DivisionName validates a rename. The name is trimmed and must not be blank.
func DivisionName(name string) (string, Violations) {
	v := Violations{}
	name = strings.TrimSpace(name)
	Required("name", name, v)
	return name, v
}
