package model

// PersonRecord is a source-agnostic person produced by either graph builder.
// Parents and children are referenced by name; the two sources never share ids.
type PersonRecord struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Sex      string   `json:"sex,omitempty"`
	Birth    string   `json:"birth,omitempty"`
	Death    string   `json:"death,omitempty"`
	Father   string   `json:"father,omitempty"`
	Mother   string   `json:"mother,omitempty"`
	Children []string `json:"children,omitempty"` // discovery order, duplicates kept
}

// Context returns the family context of the record.
func (p PersonRecord) Context() FamilyContext {
	return FamilyContext{
		Father:   p.Father,
		Mother:   p.Mother,
		Children: p.Children,
	}
}

// FamilyLink is GEDCOM family scaffolding used to resolve parents and
// children. It is discarded once PersonRecords are built.
type FamilyLink struct {
	ID        string   `json:"id"`
	HusbandID string   `json:"husband_id,omitempty"`
	WifeID    string   `json:"wife_id,omitempty"`
	ChildIDs  []string `json:"child_ids,omitempty"`
}

// RelationKind is the interpreted meaning of a scraped relation link.
type RelationKind string

const (
	RelationUnknown RelationKind = "unknown"
	// RelationParentOf means the link owner is a parent of the related person.
	RelationParentOf RelationKind = "parent_of"
	// RelationChildOf means the link owner is a child of the related person.
	RelationChildOf RelationKind = "child_of"
)

// RelationLink is one relation entry taken verbatim from a scraped page.
// The source only states that some relation exists between OwnerPID and
// RelatedPID; Kind stays RelationUnknown until a policy interprets it.
type RelationLink struct {
	Kind        RelationKind `json:"kind"`
	OwnerPID    string       `json:"owner_pid"`
	OwnerName   string       `json:"owner_name,omitempty"`
	RelatedName string       `json:"related_name"`
	RelatedPID  string       `json:"related_pid,omitempty"`
}

// FamilyContext is the relation context attached to a name for review.
// Father/Mother are typed (GEDCOM); Parents are untyped (scraped source).
type FamilyContext struct {
	Father   string   `json:"father,omitempty"`
	Mother   string   `json:"mother,omitempty"`
	Parents  []string `json:"parents,omitempty"`
	Children []string `json:"children,omitempty"`
}
