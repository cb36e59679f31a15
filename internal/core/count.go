// Package core provides the event and group domain types and the small
// parsing helpers shared by ingestion and enrichment.
//
// This file contains the coercion rules for numeric and boolean columns.
package core

import (
	"math"
	"strconv"
	"strings"
)

// ParseCount coerces an attendance or membership cell to a non-negative
// integer. Blank, non-numeric, NaN and negative values all become 0.
// Fractional values round half away from zero.
//
// Examples:
//
//	ParseCount("12")   -> 12
//	ParseCount(" 7 ")  -> 7
//	ParseCount("3.5")  -> 4
//	ParseCount("abc")  -> 0
//	ParseCount("-4")   -> 0
func ParseCount(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0
	}
	return int(math.Round(f))
}

// ParseFlag reads a boolean export column. Accepts true/false in any case,
// 1/0 and yes/no; anything else is false.
func ParseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "y":
		return true
	default:
		return false
	}
}
