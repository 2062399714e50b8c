package roster

import "strings"

// Role prefixes for the asymmetric E5 embedding convention: indexed passages
// and search queries must be encoded differently.
const (
	PassagePrefix = "passage: "
	QueryPrefix   = "query: "
)

// Payload field names, matching the source roster columns. These are also the
// keys stored in the vector index payload.
const (
	FieldDisplayName     = "DisplayName"
	FieldTitle           = "Title"
	FieldDepartment      = "Department"
	FieldCompany         = "Company"
	FieldTelephoneNumber = "TelephoneNumber"
	FieldUPN             = "UPN"
	FieldOUPath          = "OUPath"
)

// Record is one directory entry parsed from the staff roster.
// All attributes are optional; absent values are empty strings.
type Record struct {
	DisplayName     string
	Title           string
	Department      string
	Company         string
	TelephoneNumber string
	UPN             string
	OUPath          string
}

// passageFields defines the fixed render order and the localized labels used
// when building the passage text.
var passageFields = []struct {
	label string
	value func(Record) string
}{
	{"Név", func(r Record) string { return r.DisplayName }},
	{"Beosztás", func(r Record) string { return r.Title }},
	{"Tanszék", func(r Record) string { return r.Department }},
	{"Kar", func(r Record) string { return r.Company }},
	{"Telefonszám", func(r Record) string { return r.TelephoneNumber }},
	{"Email", func(r Record) string { return r.UPN }},
	{"Szervezeti egység", func(r Record) string { return r.OUPath }},
}

// Passage renders the record as its canonical indexable text: a comma-joined
// list of "label: value" fragments in fixed field order, prefixed with the
// passage role marker. Absent fields are omitted entirely. Pure function;
// the same record always yields the same passage.
func (r Record) Passage() string {
	parts := make([]string, 0, len(passageFields))
	for _, f := range passageFields {
		if v := f.value(r); v != "" {
			parts = append(parts, f.label+": "+v)
		}
	}
	return PassagePrefix + strings.Join(parts, ", ")
}

// Payload returns the attribute map persisted alongside the vector. Absent
// attributes are present as empty strings, never missing keys, so payload
// typing stays uniform in the index.
func (r Record) Payload() map[string]string {
	return map[string]string{
		FieldDisplayName:     r.DisplayName,
		FieldTitle:           r.Title,
		FieldDepartment:      r.Department,
		FieldCompany:         r.Company,
		FieldTelephoneNumber: r.TelephoneNumber,
		FieldUPN:             r.UPN,
		FieldOUPath:          r.OUPath,
	}
}

// Empty reports whether the record carries no attributes at all.
func (r Record) Empty() bool {
	return r == Record{}
}

// QueryText wraps a raw user query with the query role marker expected by the
// embedding model.
func QueryText(query string) string {
	return QueryPrefix + query
}
