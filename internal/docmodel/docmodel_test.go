package docmodel

import "testing"

func TestTypePriorityOrdersCategoriesByPrecedence(t *testing.T) {
	tests := []struct {
		category SuggestionCategory
		want     float64
	}{
		{SuggestFilenames, 1.0},
		{SuggestVendors, 0.9},
		{SuggestEntities, 0.8},
		{SuggestKeywords, 0.7},
		{SuggestAllTerms, 0.5},
		{SuggestionCategory("unknown"), 0},
	}
	for _, tt := range tests {
		if got := tt.category.TypePriority(); got != tt.want {
			t.Errorf("%q.TypePriority() = %v, want %v", tt.category, got, tt.want)
		}
	}
}

func TestTypePriorityIsStrictlyDescendingAcrossBuiltinCategories(t *testing.T) {
	order := []SuggestionCategory{
		SuggestFilenames, SuggestVendors, SuggestEntities, SuggestKeywords, SuggestAllTerms,
	}
	for i := 1; i < len(order); i++ {
		if order[i].TypePriority() >= order[i-1].TypePriority() {
			t.Errorf("%q.TypePriority() = %v, want strictly less than %q's %v",
				order[i], order[i].TypePriority(), order[i-1], order[i-1].TypePriority())
		}
	}
}
