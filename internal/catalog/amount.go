package catalog

import (
	"regexp"
	"strconv"
	"strings"
)

// AmountRange is a parsed loan-amount interval in whole dollars.
type AmountRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

var dollarFigure = regexp.MustCompile(`\$[\d,]+`)

// ParseLoanAmount parses feed strings like "$5,000 - $10,000" or
// "Up to $2,000" into an AmountRange. "N/A", empty input and any shape it
// does not recognize all parse to {0, 0}.
func ParseLoanAmount(s string) AmountRange {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" {
		return AmountRange{}
	}

	figures := dollarFigure.FindAllString(s, -1)

	if strings.Contains(s, "Up to") {
		if len(figures) == 0 {
			return AmountRange{}
		}
		return AmountRange{Min: 0, Max: parseDollars(figures[0])}
	}

	if len(figures) == 2 {
		return AmountRange{Min: parseDollars(figures[0]), Max: parseDollars(figures[1])}
	}

	return AmountRange{}
}

func parseDollars(fig string) int {
	fig = strings.TrimPrefix(fig, "$")
	fig = strings.ReplaceAll(fig, ",", "")
	n, err := strconv.Atoi(fig)
	if err != nil {
		return 0
	}
	return n
}

// overlaps reports whether the two closed intervals intersect.
func (r AmountRange) overlaps(min, max int) bool {
	return r.Max >= min && r.Min <= max
}
