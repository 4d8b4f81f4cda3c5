package legacy

import "testing"

func TestMapGroup(t *testing.T) {
	tests := []struct {
		group    string
		expected string
	}{
		{group: "Club Promoters", expected: CategoryPromoters},
		{group: "PROMO list", expected: CategoryPromoters},
		{group: "Monthly Newsletter", expected: CategoryNewsletter},
		{group: "vip guests", expected: CategoryVIP},
		{group: "Promo Newsletter", expected: CategoryPromoters},
		{group: "Newsletter VIP", expected: CategoryNewsletter},
		{group: "  Radio DJs ", expected: "Radio DJs"},
		{group: "", expected: ""},
		{group: "   ", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.group, func(t *testing.T) {
			if got := MapGroup(tt.group); got != tt.expected {
				t.Errorf("MapGroup(%q) = %q, want %q", tt.group, got, tt.expected)
			}
		})
	}
}

func TestCategoryColor(t *testing.T) {
	if CategoryColor(CategoryVIP) == adHocColor {
		t.Error("expected a dedicated color for VIP")
	}
	if CategoryColor("Radio DJs") != adHocColor {
		t.Error("expected ad hoc color for unmapped category")
	}
}
