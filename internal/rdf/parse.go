package rdf

import (
	"strings"

	"github.com/termfx/langfx/internal/model"
)

// ParseLine tokenizes one Turtle line of the infobox dumps into a triple.
// A line has the shape `<S> <P> O .` where S and P are resource/property
// URIs and O is a resource, a literal or anything else. The line is split on
// `"> "` into exactly three segments; fewer segments means the line is
// malformed.
func ParseLine(line string) (model.Triple, error) {
	parts := strings.SplitN(line, "> ", 3)
	if len(parts) < 3 {
		return model.Triple{}, model.ErrMalformedLine
	}

	subject := SubjectName(parts[0])
	property := PropertyName(parts[1])
	if subject == "" || property == "" {
		return model.Triple{}, model.ErrMalformedLine
	}

	value, err := ParseValue(parts[2])
	if err != nil {
		return model.Triple{}, err
	}

	return model.Triple{Subject: subject, Property: property, Value: value}, nil
}

// SubjectName extracts the entity-local name from a subject URI fragment.
func SubjectName(subject string) string {
	idx := strings.LastIndex(subject, "resource/")
	if idx < 0 {
		return ""
	}
	return subject[idx+len("resource/"):]
}

// PropertyName extracts the property-local name from a property URI fragment.
func PropertyName(prop string) string {
	idx := strings.LastIndex(prop, "property/")
	if idx < 0 {
		return ""
	}
	return prop[idx+len("property/"):]
}

// ParseValue classifies the object position of a triple line. The raw text
// still carries the trailing ` .` statement terminator.
//
// Resource objects (`<.../resource/Name>`) become instance values. Typed
// literals (`"lit"^^<...#type>`) keep the bare type name as format.
// Language-tagged and plain literals become strings with the tag discarded.
// Everything else passes through verbatim as "other".
func ParseValue(raw string) (model.Value, error) {
	if len(raw) < 2 {
		return model.Value{}, model.ErrMalformedLine
	}
	// strip the statement terminator
	v := strings.TrimSpace(raw[:len(raw)-2])

	if strings.HasSuffix(v, ">") {
		v = v[:len(v)-1]
		if idx := strings.LastIndex(v, "resource/"); idx >= 0 {
			return model.Value{Literal: v[idx+len("resource/"):], Format: model.FormatInstance}, nil
		}
		if lit, typ, ok := strings.Cut(v, "^^"); ok {
			typ = typ[strings.LastIndex(typ, "#")+1:]
			if strings.HasSuffix(lit, `"`) && len(lit) >= 2 {
				lit = lit[1 : len(lit)-1]
			}
			return model.Value{Literal: lit, Format: typ}, nil
		}
		return model.Value{Literal: v + ">", Format: model.FormatOther}, nil
	}

	// the literal is the text between the first and the last quote; a
	// language tag after the closing quote is dropped
	if strings.HasPrefix(v, `"`) {
		if end := strings.LastIndex(v, `"`); end > 0 {
			return model.Value{Literal: v[1:end], Format: model.FormatString}, nil
		}
	}
	return model.Value{Literal: v, Format: model.FormatOther}, nil
}
