package extraction

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/kinship-cli/internal/model"
)

// RelationPolicy classifies an untyped scraped relation link.
type RelationPolicy func(link model.RelationLink) model.RelationKind

// Policy names accepted by PolicyByName.
const (
	PolicyOwnerIsParent = "owner_is_parent"
	PolicyOwnerIsChild  = "owner_is_child"
	PolicyUntyped       = "untyped"
)

// OwnerIsParent reads every link as "owner is a parent of the related person".
// This is how the harvested dump has historically been interpreted.
func OwnerIsParent(model.RelationLink) model.RelationKind { return model.RelationParentOf }

// OwnerIsChild reads every link as "owner is a child of the related person".
func OwnerIsChild(model.RelationLink) model.RelationKind { return model.RelationChildOf }

// Untyped keeps links unclassified, so no family context is inferred.
func Untyped(model.RelationLink) model.RelationKind { return model.RelationUnknown }

// PolicyByName resolves a configured policy name. Empty selects OwnerIsParent.
func PolicyByName(name string) (RelationPolicy, error) {
	switch name {
	case "", PolicyOwnerIsParent:
		return OwnerIsParent, nil
	case PolicyOwnerIsChild:
		return OwnerIsChild, nil
	case PolicyUntyped:
		return Untyped, nil
	default:
		return nil, eris.Errorf("extraction: unknown relation policy %q", name)
	}
}
