package match

import (
	"regexp"
	"strings"
)

// specialProperties carry no discriminative signal for alignment: they are
// near-universal and their values either always or never agree.
var specialProperties = map[string]struct{}{
	"url":   {},
	"x":     {},
	"y":     {},
	"image": {},
}

var hasLetterOrDigit = regexp.MustCompile(`[a-zA-Z\d]`)

// CleanProps removes properties that are very likely parsing artifacts:
// quote-prefixed names, names containing % (mangled formatting), names with
// no letter or digit at all, and the special-property denylist.
func CleanProps(props map[string]struct{}) map[string]struct{} {
	cleaned := make(map[string]struct{}, len(props))
	for prop := range props {
		if strings.HasPrefix(prop, `"`) {
			continue
		}
		if strings.Contains(prop, "%") {
			continue
		}
		if !hasLetterOrDigit.MatchString(prop) {
			continue
		}
		if _, ok := specialProperties[prop]; ok {
			continue
		}
		cleaned[prop] = struct{}{}
	}
	return cleaned
}

// DirectMatches returns the properties present in both inventories.
func DirectMatches(src, trg map[string]struct{}) map[string]struct{} {
	out := map[string]struct{}{}
	for p := range src {
		if _, ok := trg[p]; ok {
			out[p] = struct{}{}
		}
	}
	return out
}
