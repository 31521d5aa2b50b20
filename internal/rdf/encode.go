package rdf

import (
	"fmt"

	"github.com/termfx/langfx/internal/model"
)

// EncodeSubject rebuilds the resource URI for an entity-local name.
func EncodeSubject(subject, lang string) string {
	return fmt.Sprintf("<http://%s.dbpedia.org/resource/%s>", lang, subject)
}

// EncodeProperty rebuilds the property URI for a property-local name.
func EncodeProperty(prop, lang string) string {
	return fmt.Sprintf("<http://%s.dbpedia.org/property/%s>", lang, prop)
}

// EncodeValue rebuilds the object position of a triple from a parsed value.
// String values come back language-tagged, so the round trip is lossy for
// literals whose original tag differed from lang.
func EncodeValue(v model.Value, lang string) string {
	switch v.Format {
	case model.FormatInstance:
		return fmt.Sprintf("<http://%s.dbpedia.org/resource/%s>", lang, v.Literal)
	case model.FormatString:
		return fmt.Sprintf("%q@%s", v.Literal, lang)
	case model.FormatOther:
		return v.Literal
	default:
		return fmt.Sprintf("%q^^<http://www.w3.org/2001/XMLSchema#%s>", v.Literal, v.Format)
	}
}

// EncodeLine rebuilds a full dump line from a triple.
func EncodeLine(t model.Triple, lang string) string {
	return EncodeSubject(t.Subject, lang) + " " + EncodeProperty(t.Property, lang) + " " + EncodeValue(t.Value, lang) + " ."
}
