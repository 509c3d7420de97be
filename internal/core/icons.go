package core

import "strings"

// IconNone is stored for categories without a recognised icon.
const IconNone = "none"

var icons = map[string]struct{}{
	IconNone:        {},
	"bank":          {},
	"bills":         {},
	"book":          {},
	"car":           {},
	"clothes":       {},
	"coffee":        {},
	"education":     {},
	"entertainment": {},
	"food":          {},
	"fuel":          {},
	"gift":          {},
	"groceries":     {},
	"health":        {},
	"home":          {},
	"insurance":     {},
	"investment":    {},
	"pet":           {},
	"phone":         {},
	"salary":        {},
	"savings":       {},
	"shopping":      {},
	"sport":         {},
	"tax":           {},
	"transport":     {},
	"travel":        {},
	"utilities":     {},
}

// NormalizeIcon returns key if it names a known icon and IconNone otherwise.
func NormalizeIcon(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	if _, ok := icons[key]; ok {
		return key
	}
	return IconNone
}
