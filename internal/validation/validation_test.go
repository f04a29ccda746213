package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmynk/compartilha/internal/models"
)

func TestPeople(t *testing.T) {
	tests := []struct {
		name      string
		in        []string
		wantNames []string
		wantCode  string
	}{
		{"two names", []string{"Ana", "Leo"}, []string{"Ana", "Leo"}, ""},
		{"blank slots dropped and trimmed", []string{" Ana ", "", "  ", "Leo"}, []string{"Ana", "Leo"}, ""},
		{"one name", []string{"Ana", ""}, []string{"Ana"}, CodeMinPeople},
		{"case-insensitive duplicate", []string{"Ana", "ana "}, []string{"Ana", "ana"}, CodeDuplicateName},
		{"too many", []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"}, nil, CodeMaxPeople},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			names, v := People(tt.in)
			if tt.wantCode == "" {
				assert.True(t, v.Empty(), "unexpected violations %v", v)
			} else {
				assert.Equal(t, tt.wantCode, v["people"])
			}
			if tt.wantNames != nil {
				assert.Equal(t, tt.wantNames, names)
			}
		})
	}
}

func TestNewPerson(t *testing.T) {
	d := models.Division{People: []models.Person{{ID: "1", Name: "Ana"}}}

	name, v := NewPerson("  Leo ", d)
	assert.True(t, v.Empty())
	assert.Equal(t, "Leo", name)

	_, v = NewPerson("ANA", d)
	assert.Equal(t, CodeNameTaken, v["name"])

	_, v = NewPerson("   ", d)
	assert.Equal(t, CodeRequired, v["name"])
}

func TestItem(t *testing.T) {
	in, v := Item(ItemForm{Name: " Couvert ", Quantity: "4", UnitPrice: "15,50"})
	assert.True(t, v.Empty())
	assert.Equal(t, models.ItemInput{Name: "Couvert", Quantity: 4, UnitPrice: 15.5}, in)

	_, v = Item(ItemForm{})
	assert.Equal(t, Violations{"name": CodeRequired, "quantity": CodeRequired, "unit_price": CodeRequired}, v)

	_, v = Item(ItemForm{Name: "x", Quantity: "0", UnitPrice: "abc"})
	assert.Equal(t, CodeMustBePositive, v["quantity"])
	assert.Equal(t, CodeInvalidNumber, v["unit_price"])

	_, v = Item(ItemForm{Name: "x", Quantity: "NaN", UnitPrice: "Inf"})
	assert.Equal(t, Violations{"quantity": CodeInvalidNumber, "unit_price": CodeInvalidNumber}, v)
}

func TestConfig(t *testing.T) {
	fee, discount, v := Config(ConfigForm{FeePercent: "12.5", Discount: "20"})
	assert.True(t, v.Empty())
	assert.Equal(t, 12.5, fee)
	assert.Equal(t, 20.0, discount)

	fee, discount, v = Config(ConfigForm{})
	assert.True(t, v.Empty())
	assert.Zero(t, fee)
	assert.Zero(t, discount)

	_, _, v = Config(ConfigForm{FeePercent: "101", Discount: "-1"})
	assert.Equal(t, CodeOutOfRange, v["fee"])
	assert.Equal(t, CodeOutOfRange, v["discount"])

	fee, discount, v = Config(ConfigForm{FeePercent: "nan", Discount: "+Inf"})
	assert.Equal(t, Violations{"fee": CodeInvalidNumber, "discount": CodeInvalidNumber}, v)
	assert.Zero(t, fee)
	assert.Zero(t, discount)
}

func TestDivisionName(t *testing.T) {
	name, v := DivisionName("  Jantar - 12/10 ")
	assert.True(t, v.Empty())
	assert.Equal(t, "Jantar - 12/10", name)

	_, v = DivisionName(" ")
	assert.False(t, v.Empty())
}
