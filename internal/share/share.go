// Package share builds the plain-text summaries people send to each other
// once a division is finished.
package share

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/mmynk/compartilha/internal/calculator"
	"github.com/mmynk/compartilha/internal/models"
)

const footer = "--- Dividido com Compartilha AI ---"

// Format selects the share text layout.
type Format string

const (
	Simple   Format = "resumo"
	Detailed Format = "detalhado"
)

// Text renders the share text in the given format. Unknown formats render Simple.
func Text(f Format, d models.Division, people []models.PersonTotal) string {
	if f == Detailed {
		return DetailedText(d, people)
	}
	return SimpleText(people)
}

// SimpleText lists each person's total, largest first, and the bill total.
func SimpleText(people []models.PersonTotal) string {
	var b strings.Builder
	b.WriteString("=== RESUMO DA CONTA ===\n\n")

	ranked := calculator.Rank(people)
	for i, p := range ranked {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "> %s %s %s", p.Name, dots(20-runeLen(p.Name)), money(p.Total))
	}

	fmt.Fprintf(&b, "\n\n>>> TOTAL: %s <<<", money(calculator.SumTotals(people)))
	b.WriteString("\n\n" + footer)
	return b.String()
}

// DetailedText lists, per person, the items they consumed with fraction
// quantities, followed by their total and the bill total.
func DetailedText(d models.Division, people []models.PersonTotal) string {
	var b strings.Builder
	divider := strings.Repeat("-", 25)
	b.WriteString("=== DETALHES DA CONTA ===\n\n")

	for _, p := range d.People {
		fmt.Fprintf(&b, "👤 *%s*\n", strings.ToUpper(p.Name))

		consumed := 0
		for _, item := range d.Items {
			q := item.AssignedTo[p.ID]
			if q <= 0 {
				continue
			}
			consumed++
			name := fmt.Sprintf("(%s) %s", calculator.FormatFraction(q), item.Name)
			value := money(q * item.UnitPrice)
			fmt.Fprintf(&b, "  • %s %s %s\n", name, dots(25-runeLen(name)-runeLen(value)), value)
		}
		if consumed == 0 {
			b.WriteString("  (Nenhum item individual registrado)\n")
		}

		if total, ok := totalOf(people, p); ok {
			fmt.Fprintf(&b, "  *Total %s: %s*\n\n", p.Name, money(total.Total))
		}
	}

	b.WriteString(divider + "\n")
	fmt.Fprintf(&b, ">>> TOTAL GERAL: %s <<<\n", money(calculator.SumTotals(people)))
	b.WriteString(divider + "\n\n")
	b.WriteString(footer)
	return b.String()
}

// WhatsAppURL returns the link that opens WhatsApp with text ready to send.
func WhatsAppURL(text string) string {
	return "https://api.whatsapp.com/send?text=" + strings.ReplaceAll(url.QueryEscape(text), "+", "%20")
}

func totalOf(people []models.PersonTotal, p models.Person) (models.PersonTotal, bool) {
	for _, t := range people {
		if t.ID != "" && t.ID == p.ID {
			return t, true
		}
	}
	return calculator.FindByName(people, p.Name)
}

func money(v float64) string {
	return "R$ " + calculator.FormatAmount(v)
}

func dots(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(".", n)
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
