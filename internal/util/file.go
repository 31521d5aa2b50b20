package util

import (
	"github.com/pmezard/go-difflib/difflib"
)

// UnifiedDiff generates a plain unified diff between two file contents.
// Returns "" when the contents are identical.
func UnifiedDiff(from, to, path string, context int) string {
	if from == to {
		return ""
	}
	d := difflib.UnifiedDiff{
		A:        difflib.SplitLines(from),
		B:        difflib.SplitLines(to),
		FromFile: "a/" + path,
		ToFile:   "b/" + path,
		Context:  context,
	}
	text, err := difflib.GetUnifiedDiffString(d)
	if err != nil {
		return "(diff error: " + err.Error() + ")"
	}
	return text
}
