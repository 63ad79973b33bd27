package extraction

import (
	"slices"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/kinship-cli/internal/model"
)

// placeholderName is the pagination link the scraper picks up on long lists.
const placeholderName = "more.."

// Graph is the derived scraped population.
type Graph struct {
	// Names is the sorted set of distinct display names.
	Names []string
	// PIDNames maps a pid to the sorted display names it appeared under.
	PIDNames map[string][]string
	// Owners maps a related pid to the owner names that linked to it, in
	// first-seen order.
	Owners map[string][]string
	// Contexts holds the inferred family context per display name.
	Contexts map[string]model.FamilyContext
	// Links are the classified relation links in traversal order.
	Links []model.RelationLink
}

// Context returns the inferred family context for a display name.
func (g *Graph) Context(name string) model.FamilyContext {
	return g.Contexts[name]
}

// Derive lifts the dump into tagged relation links, classifies them with
// policy and infers parent/children context. A nil policy means OwnerIsParent.
func Derive(ds *Dataset, policy RelationPolicy) *Graph {
	if policy == nil {
		policy = OwnerIsParent
	}

	g := &Graph{
		PIDNames: make(map[string][]string),
		Owners:   make(map[string][]string),
		Contexts: make(map[string]model.FamilyContext),
	}
	if ds == nil {
		return g
	}

	owners := make([]string, 0, len(ds.People))
	for pid := range ds.People {
		owners = append(owners, pid)
	}
	sort.Slice(owners, func(i, j int) bool { return model.CompareIDs(owners[i], owners[j]) < 0 })

	// First pass collects names so owner names can be resolved from other
	// owners' links regardless of visiting order.
	names := make(map[string]struct{})
	firstSeen := make(map[string]string)
	pidNames := make(map[string]map[string]struct{})
	for _, owner := range owners {
		for _, rel := range relations(ds.People[owner]) {
			names[rel.Name] = struct{}{}
			pid := string(rel.PID)
			if pid == "" {
				continue
			}
			if _, ok := firstSeen[pid]; !ok {
				firstSeen[pid] = rel.Name
			}
			if pidNames[pid] == nil {
				pidNames[pid] = make(map[string]struct{})
			}
			pidNames[pid][rel.Name] = struct{}{}
		}
	}

	for _, owner := range owners {
		ownerName := firstSeen[owner]
		if ownerName == "" {
			ownerName = strings.TrimSpace(ds.People[owner].Name)
		}
		for _, rel := range relations(ds.People[owner]) {
			link := model.RelationLink{
				Kind:        model.RelationUnknown,
				OwnerPID:    owner,
				OwnerName:   ownerName,
				RelatedName: rel.Name,
				RelatedPID:  string(rel.PID),
			}
			link.Kind = policy(link)
			g.Links = append(g.Links, link)
			g.apply(link)
		}
	}

	g.Names = sortedKeys(names)
	for pid, set := range pidNames {
		g.PIDNames[pid] = sortedKeys(set)
	}
	for name := range names {
		if _, ok := g.Contexts[name]; !ok {
			g.Contexts[name] = model.FamilyContext{}
		}
	}

	zap.L().With(zap.String("component", "extraction")).Debug("derived graph",
		zap.Int("owners", len(owners)),
		zap.Int("links", len(g.Links)),
		zap.Int("names", len(g.Names)),
	)
	return g
}

// apply records a classified link into the inferred contexts.
func (g *Graph) apply(link model.RelationLink) {
	if link.OwnerName == "" {
		return
	}
	switch link.Kind {
	case model.RelationParentOf:
		parent := link.OwnerName
		if link.RelatedPID != "" {
			g.Owners[link.RelatedPID] = appendDistinct(g.Owners[link.RelatedPID], link.OwnerName)
			parent = g.Owners[link.RelatedPID][0]
		}
		g.setParent(link.RelatedName, parent)
		g.addChild(link.OwnerName, link.RelatedName)
	case model.RelationChildOf:
		g.setParent(link.OwnerName, link.RelatedName)
		g.addChild(link.RelatedName, link.OwnerName)
	}
}

func (g *Graph) setParent(name, parent string) {
	c := g.Contexts[name]
	if len(c.Parents) == 0 {
		c.Parents = []string{parent}
	}
	g.Contexts[name] = c
}

func (g *Graph) addChild(name, child string) {
	c := g.Contexts[name]
	c.Children = append(c.Children, child)
	g.Contexts[name] = c
}

// relations returns the page's links with empty and placeholder names removed.
func relations(p Person) []Relation {
	out := make([]Relation, 0, len(p.Relations))
	for _, rel := range p.Relations {
		rel.Name = strings.TrimSpace(rel.Name)
		if rel.Name == "" || rel.Name == placeholderName {
			continue
		}
		out = append(out, rel)
	}
	return out
}

func appendDistinct(list []string, v string) []string {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
