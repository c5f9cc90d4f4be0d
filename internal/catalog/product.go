package catalog

import "strings"

// Tier is the ordinal scale used for approval-rate and popularity
// thresholds. The zero value means the field was missing or unrecognized
// and always fails a threshold check.
type Tier int

const (
	TierUnknown Tier = iota
	TierLow
	TierMedium
	TierHigh
	TierVeryHigh
)

var tierNames = map[Tier]string{
	TierLow:      "Low",
	TierMedium:   "Medium",
	TierHigh:     "High",
	TierVeryHigh: "Very High",
}

func (t Tier) String() string {
	if s, ok := tierNames[t]; ok {
		return s
	}
	return "Unknown"
}

func ParseTier(s string) Tier {
	switch strings.TrimSpace(s) {
	case "Low":
		return TierLow
	case "Medium":
		return TierMedium
	case "High":
		return TierHigh
	case "Very High":
		return TierVeryHigh
	default:
		return TierUnknown
	}
}

type Product struct {
	ID           int    `json:"id"`
	Company      string `json:"company"`
	Product      string `json:"product"`
	Category     string `json:"category"`
	Amount       string `json:"amount"`
	ApprovalRate string `json:"approvalRate"`
	Popularity   string `json:"popularity"`
	Description  string `json:"description,omitempty"`
	IsActive     *bool  `json:"isActive,omitempty"`
}

// Active reports whether the product should be served. Products are active
// unless the feed explicitly sets isActive to false.
func (p Product) Active() bool {
	return p.IsActive == nil || *p.IsActive
}

func (p Product) popularityTier() Tier { return ParseTier(p.Popularity) }
func (p Product) approvalTier() Tier   { return ParseTier(p.ApprovalRate) }

// matchesQuery does a case-insensitive substring match over company, product
// name, category and, when present, description.
func (p Product) matchesQuery(query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(p.Company), q) {
		return true
	}
	if strings.Contains(strings.ToLower(p.Product), q) {
		return true
	}
	if strings.Contains(strings.ToLower(p.Category), q) {
		return true
	}
	return p.Description != "" && strings.Contains(strings.ToLower(p.Description), q)
}
