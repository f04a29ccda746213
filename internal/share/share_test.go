package share

import (
	"net/url"
	"strings"
	"testing"

	"github.com/mmynk/compartilha/internal/models"
)

func TestSimpleText(t *testing.T) {
	people := []models.PersonTotal{
		{Name: "Ana", Total: 22},
		{Name: "Leo", Total: 33.5},
	}

	got := SimpleText(people)
	want := "=== RESUMO DA CONTA ===\n\n" +
		"> Leo ................. R$ 33.50\n" +
		"> Ana ................. R$ 22.00\n\n" +
		">>> TOTAL: R$ 55.50 <<<\n\n" +
		"--- Dividido com Compartilha AI ---"
	if got != want {
		t.Errorf("SimpleText() =\n%s\nwant\n%s", got, want)
	}
}

func TestDetailedText(t *testing.T) {
	d := models.Division{
		People: []models.Person{{ID: "p1", Name: "Ana"}, {ID: "p2", Name: "Leo"}, {ID: "p3", Name: "Bia"}},
		Items: []models.Item{
			{ID: "i1", Name: "Pizza", Quantity: 1, UnitPrice: 40, AssignedTo: map[string]float64{"p1": 0.5, "p2": 0.5}},
			{ID: "i2", Name: "Chopp", Quantity: 2, UnitPrice: 10, AssignedTo: map[string]float64{"p2": 2}},
		},
	}
	people := []models.PersonTotal{
		{ID: "p1", Name: "Ana", Total: 22},
		{ID: "p2", Name: "Leo", Total: 44},
		{ID: "p3", Name: "Bia", Total: 0},
	}

	got := DetailedText(d, people)

	for _, want := range []string{
		"=== DETALHES DA CONTA ===\n\n👤 *ANA*\n",
		"  • (½) Pizza ........ R$ 20.00\n",
		"  *Total Ana: R$ 22.00*\n\n",
		"  • (2) Chopp ........ R$ 20.00\n",
		"👤 *BIA*\n  (Nenhum item individual registrado)\n",
		"-------------------------\n>>> TOTAL GERAL: R$ 66.00 <<<\n-------------------------\n\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("DetailedText() missing %q in:\n%s", want, got)
		}
	}
	if !strings.HasSuffix(got, footer) {
		t.Errorf("DetailedText() should end with the footer")
	}
}

func TestText(t *testing.T) {
	people := []models.PersonTotal{{Name: "Ana", Total: 10}}
	if Text("whatever", models.Division{}, people) != SimpleText(people) {
		t.Errorf("unknown format should render the simple text")
	}
}

func TestWhatsAppURL(t *testing.T) {
	text := "> Ana & Leo R$ 10.00\n"
	got := WhatsAppURL(text)

	if strings.Contains(got, "+") {
		t.Errorf("spaces must be percent-encoded, got %s", got)
	}
	u, err := url.Parse(got)
	if err != nil {
		t.Fatalf("invalid URL: %v", err)
	}
	if u.Query().Get("text") != text {
		t.Errorf("round trip = %q, want %q", u.Query().Get("text"), text)
	}
}
