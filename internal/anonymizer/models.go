// Package anonymizer assigns stable display labels to real identifiers so
// ledger entries never carry plaintext principal or organization IDs. The
// mapping is one-way: a label alone cannot be reversed without the mapping
// table, and once assigned a label is never reassigned or deleted.
package anonymizer

import "fmt"

// EntityKind distinguishes the two label namespaces. Sequences are allocated
// independently per kind.
type EntityKind string

const (
	EntityKindUser EntityKind = "User"
	EntityKindOrg  EntityKind = "Org"
)

// Valid reports whether the kind is one of the known namespaces.
func (k EntityKind) Valid() bool {
	return k == EntityKindUser || k == EntityKindOrg
}

// Label is the anonymized identity for one (kind, real ID) pair.
type Label struct {
	Kind     EntityKind
	Sequence int64
}

// String renders the label as a type-prefixed counter, e.g. "User-0042".
func (l Label) String() string {
	return fmt.Sprintf("%s-%04d", l.Kind, l.Sequence)
}
