package legacy

import "strings"

const (
	CategoryPromoters  = "Promoters"
	CategoryNewsletter = "Newsletter"
	CategoryVIP        = "VIP"
)

type groupRule struct {
	needle   string
	category string
}

// groupRules are checked in order; the first hit wins.
var groupRules = []groupRule{
	{needle: "promo", category: CategoryPromoters},
	{needle: "newsletter", category: CategoryNewsletter},
	{needle: "vip", category: CategoryVIP},
}

var categoryColors = map[string]string{
	CategoryPromoters:  "#f97316",
	CategoryNewsletter: "#3b82f6",
	CategoryVIP:        "#eab308",
}

const adHocColor = "#6b7280"

// MapGroup maps a legacy group name onto a category name by case-insensitive substring match.
//
// An empty group maps to "" (no category). A group no rule matches maps to its own trimmed text.
func MapGroup(group string) string {
	trimmed := strings.TrimSpace(group)
	if trimmed == "" {
		return ""
	}

	lower := strings.ToLower(trimmed)
	for _, rule := range groupRules {
		if strings.Contains(lower, rule.needle) {
			return rule.category
		}
	}
	return trimmed
}

// CategoryColor returns the display color for a mapped category.
func CategoryColor(name string) string {
	if c, ok := categoryColors[name]; ok {
		return c
	}
	return adHocColor
}

// CategoryDescription describes a category created by the importer.
func CategoryDescription(name, group string) string {
	if _, ok := categoryColors[name]; ok {
		return "Imported from WordPress groups"
	}
	return "Imported from WordPress group " + strings.TrimSpace(group)
}
