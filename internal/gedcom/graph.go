package gedcom

import (
	"slices"

	"github.com/sells-group/kinship-cli/internal/model"
)

// BuildPeople resolves decoded records into person records keyed by id.
// Individuals without a name are dropped. A FAMC/FAMS/HUSB/WIFE/CHIL
// reference that does not resolve leaves that relation unset.
func BuildPeople(doc *Document) map[string]model.PersonRecord {
	present := make(map[string]Individual, len(doc.Individuals))
	for _, ind := range doc.Individuals {
		if ind.Name == "" {
			continue
		}
		present[ind.ID] = ind
	}

	families := make(map[string]model.FamilyLink, len(doc.Families))
	for _, f := range doc.Families {
		families[f.ID] = f
	}

	nameOf := func(id string) string {
		if id == "" {
			return ""
		}
		return present[id].Name
	}

	people := make(map[string]model.PersonRecord, len(present))
	for id, ind := range present {
		p := model.PersonRecord{
			ID:    id,
			Name:  ind.Name,
			Sex:   ind.Sex,
			Birth: ind.Birth,
			Death: ind.Death,
		}

		if fam, ok := families[ind.FamilyAsChild]; ok && ind.FamilyAsChild != "" {
			p.Father = nameOf(fam.HusbandID)
			p.Mother = nameOf(fam.WifeID)
		}

		for _, famID := range ind.FamiliesAsSpouse {
			fam, ok := families[famID]
			if !ok {
				continue
			}
			for _, childID := range fam.ChildIDs {
				if child, ok := present[childID]; ok {
					p.Children = append(p.Children, child.Name)
				}
			}
		}

		people[id] = p
	}
	return people
}

// Sorted returns the records ordered by natural id order.
func Sorted(people map[string]model.PersonRecord) []model.PersonRecord {
	ids := make([]string, 0, len(people))
	for id := range people {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, model.CompareIDs)

	out := make([]model.PersonRecord, len(ids))
	for i, id := range ids {
		out[i] = people[id]
	}
	return out
}
