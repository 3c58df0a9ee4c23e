package util

import (
	"strings"

	"golang.org/x/text/cases"
)

func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// FoldText case-folds s for case-insensitive comparisons. Folding handles
// more than ASCII, so "İT Support" and "it support" compare equal.
func FoldText(s string) string {
	return cases.Fold().String(CleanText(s))
}

// ContainsFold reports whether needle occurs in haystack ignoring case.
// Both are folded; callers matching many needles should fold once themselves.
func ContainsFold(haystack, needle string) bool {
	n := FoldText(needle)
	if n == "" {
		return false
	}
	return strings.Contains(FoldText(haystack), n)
}
