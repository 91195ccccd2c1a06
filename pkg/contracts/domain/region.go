package domain

// TaxonomyGroup is a named bucket of region keywords
type TaxonomyGroup struct {
	Name     string   `json:"name" yaml:"name"`
	Keywords []string `json:"keywords" yaml:"keywords"`
}

// RegionTaxonomy is the static group → keyword table used to classify
// region labels. Group order is significant: earlier groups win ties.
type RegionTaxonomy struct {
	Groups        []TaxonomyGroup `json:"groups" yaml:"groups"`
	FallbackGroup string          `json:"fallback_group" yaml:"fallback_group"`
}

// GroupNames returns group names in taxonomy order, fallback last
func (t RegionTaxonomy) GroupNames() []string {
	names := make([]string, 0, len(t.Groups)+1)
	for _, g := range t.Groups {
		names = append(names, g.Name)
	}
	if t.FallbackGroup != "" {
		names = append(names, t.FallbackGroup)
	}
	return names
}

// RegionClassification maps taxonomy groups to the labels of one table
type RegionClassification struct {
	Order  []string            `json:"order"`
	Groups map[string][]string `json:"groups"`
}

// Members returns the labels classified into group. Unknown groups yield
// an empty, non-nil slice.
func (c *RegionClassification) Members(group string) []string {
	if c == nil {
		return []string{}
	}
	out := make([]string, len(c.Groups[group]))
	copy(out, c.Groups[group])
	return out
}

// GroupOf returns the group that holds label
func (c *RegionClassification) GroupOf(label string) (string, bool) {
	if c == nil {
		return "", false
	}
	for _, name := range c.Order {
		for _, m := range c.Groups[name] {
			if m == label {
				return name, true
			}
		}
	}
	return "", false
}

// Headline is one news search result
type Headline struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Excerpt string `json:"excerpt"`
}
