package services

import (
	"strconv"
	"strings"
)

// openEndedDeposit is the flat deposit for "$5000+" style bands, where no
// upper bound exists to average against.
const openEndedDeposit = 3000

// HalfPayment computes the 50% deposit for a budget band like
// "$1000-$5000": strip the dollar signs, average the bounds, halve.
// Bands with a trailing "+" get the flat open-ended deposit. Anything
// unparsable yields 0.
func HalfPayment(band string) float64 {
	band = strings.TrimSpace(band)
	if band == "" {
		return 0
	}
	if strings.Contains(band, "+") {
		return openEndedDeposit
	}

	cleaned := strings.ReplaceAll(band, "$", "")
	parts := strings.Split(cleaned, "-")
	if len(parts) != 2 {
		return 0
	}

	min, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	max, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil {
		return 0
	}

	return (min + max) / 2 * 0.5
}
