package calculator

import "testing"

func TestFormatFraction(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1.0, "1"},
		{3, "3"},
		{0, "0"},
		{-0.001, "0"},
		{0.5, "½"},
		{1.0 / 3, "⅓"},
		{0.333, "⅓"},
		{2.0 / 3, "⅔"},
		{0.25, "¼"},
		{0.75, "¾"},
		{0.2, "⅕"},
		{0.4, "⅖"},
		{0.6, "⅗"},
		{0.8, "⅘"},
		{1.0 / 6, "⅙"},
		{5.0 / 6, "⅚"},
		{0.125, "⅛"},
		{0.875, "⅞"},
		{0.37, "0.37"},
		{0.63, "0.63"},
		{1.5, "1.50"},
		{0.995, "1"},
		{0.07, "0.07"},
	}

	for _, tt := range tests {
		if got := FormatFraction(tt.in); got != tt.want {
			t.Errorf("FormatFraction(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatBRL(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "R$ 0,00"},
		{22, "R$ 22,00"},
		{1234.5, "R$ 1.234,50"},
		{1234567.891, "R$ 1.234.567,89"},
		{-10.5, "R$ -10,50"},
		{0.005, "R$ 0,01"},
	}
	for _, tt := range tests {
		if got := FormatBRL(tt.in); got != tt.want {
			t.Errorf("FormatBRL(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatAmountAndQuantity(t *testing.T) {
	if got := FormatAmount(22); got != "22.00" {
		t.Errorf("FormatAmount(22) = %q", got)
	}
	if got := Round2(2.675); got != 2.68 {
		t.Errorf("Round2(2.675) = %v, want 2.68", got)
	}
	if got := FormatQuantity(1.0 / 3); got != "0.33" {
		t.Errorf("FormatQuantity(1/3) = %q", got)
	}
	if got := FormatQuantity(2); got != "2" {
		t.Errorf("FormatQuantity(2) = %q", got)
	}
}
