package calculator

import (
	"math"
	"strconv"
)

// fractionTolerance is how close a quantity must be to a table entry to use its glyph.
const fractionTolerance = 0.01

// fractionGlyphs are the vulgar fractions used to display split quantities.
// 3/8 and 5/8 are left out: within the tolerance they would swallow ordinary
// two-decimal quantities such as 0.37 and 0.63.
var fractionGlyphs = []struct {
	value float64
	glyph string
}{
	{1.0 / 2, "½"},
	{1.0 / 3, "⅓"}, {2.0 / 3, "⅔"},
	{1.0 / 4, "¼"}, {3.0 / 4, "¾"},
	{1.0 / 5, "⅕"}, {2.0 / 5, "⅖"}, {3.0 / 5, "⅗"}, {4.0 / 5, "⅘"},
	{1.0 / 6, "⅙"}, {5.0 / 6, "⅚"},
	{1.0 / 8, "⅛"}, {7.0 / 8, "⅞"},
}

// FormatFraction renders an allocated quantity compactly: whole numbers as
// integers, common fractions as a single glyph, anything else with 2 decimals.
//
//	FormatFraction(1)       == "1"
//	FormatFraction(0.5)     == "½"
//	FormatFraction(1.0 / 3) == "⅓"
//	FormatFraction(0.37)    == "0.37"
func FormatFraction(q float64) string {
	if r := math.Round(q); math.Abs(q-r) < fractionTolerance {
		// +0 turns a rounded -0 into 0
		return strconv.FormatFloat(r+0, 'f', 0, 64)
	}
	for _, f := range fractionGlyphs {
		if math.Abs(q-f.value) < fractionTolerance {
			return f.glyph
		}
	}
	return strconv.FormatFloat(q, 'f', 2, 64)
}
