package model

// Format tags a value with the shape it had in the source dump. Typed
// literals carry their bare XML-Schema type name (`integer`, `date`, ...)
// instead of one of the fixed tags, so the tag set is open-ended.
type Format = string

const (
	// FormatInstance marks a value that is itself an entity name.
	FormatInstance Format = "instance"
	// FormatString marks a plain or language-tagged literal.
	FormatString Format = "string"
	// FormatOther marks anything that is neither a resource nor a literal.
	FormatOther Format = "other"
)

// Value is the object position of a triple: the literal text plus its format
// tag.
type Value struct {
	Literal string
	Format  Format
}

// IsTyped reports whether the value carries an XML-Schema datatype rather
// than one of the fixed format tags.
func (v Value) IsTyped() bool {
	switch v.Format {
	case FormatInstance, FormatString, FormatOther:
		return false
	}
	return v.Format != ""
}

// Triple is one (subject, property, value) fact extracted from an infobox
// dump line. Subject and Property are entity-local names: UTF-8, underscored,
// no surrounding URI.
type Triple struct {
	Subject  string
	Property string
	Value    Value
}

// Row is one line of a shard file: the non-key columns of a triple. In
// property-sharded files Key is the subject; in subject-sharded files it is
// the property.
type Row struct {
	Key    string
	Value  string
	Format Format
}

// ShardKey selects which triple component shards are grouped by.
type ShardKey string

const (
	ByProperty ShardKey = "property"
	BySubject  ShardKey = "subject"
)

// Header returns the CSV header row for shards grouped by this key.
func (k ShardKey) Header() []string {
	if k == BySubject {
		return []string{"property", "value", "format"}
	}
	return []string{"subject", "value", "format"}
}

// Pair is one entry of a match report. Exactly one side is empty when the
// property stayed unmatched on the other side.
type Pair struct {
	Source string
	Target string
}

// Matched reports whether both sides of the pair are filled.
func (p Pair) Matched() bool {
	return p.Source != "" && p.Target != ""
}
