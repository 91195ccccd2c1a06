package taxonomy

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v2"

	"kbpulse/pkg/contracts/domain"
)

// Classifier assigns region labels to taxonomy groups
type Classifier struct {
	taxonomy domain.RegionTaxonomy
	// exact maps a keyword to the first group that lists it
	exact map[string]string
}

// NewClassifier validates and copies the taxonomy
func NewClassifier(t domain.RegionTaxonomy) (*Classifier, error) {
	if err := Validate(t); err != nil {
		return nil, err
	}

	c := &Classifier{
		taxonomy: cloneTaxonomy(t),
		exact:    make(map[string]string),
	}
	for _, g := range c.taxonomy.Groups {
		for _, kw := range g.Keywords {
			if _, taken := c.exact[kw]; !taken {
				c.exact[kw] = g.Name
			}
		}
	}
	return c, nil
}

// MustNewClassifier is NewClassifier for taxonomies known to be valid
func MustNewClassifier(t domain.RegionTaxonomy) *Classifier {
	c, err := NewClassifier(t)
	if err != nil {
		panic(err)
	}
	return c
}

// Taxonomy returns a copy of the classifier's taxonomy
func (c *Classifier) Taxonomy() domain.RegionTaxonomy {
	return cloneTaxonomy(c.taxonomy)
}

// GroupFor returns the single group a label belongs to
func (c *Classifier) GroupFor(label string) string {
	if group, ok := c.exact[label]; ok {
		return group
	}
	for _, g := range c.taxonomy.Groups {
		for _, kw := range g.Keywords {
			if strings.Contains(label, kw) {
				return g.Name
			}
		}
	}
	return c.taxonomy.FallbackGroup
}

// Classify groups labels. Every taxonomy group, including the fallback, is
// present in the result; members are deduplicated and sorted.
func (c *Classifier) Classify(labels []string) *domain.RegionClassification {
	order := c.taxonomy.GroupNames()
	groups := make(map[string][]string, len(order))
	for _, name := range order {
		groups[name] = []string{}
	}

	seen := make(map[string]bool, len(labels))
	for _, label := range labels {
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		group := c.GroupFor(label)
		groups[group] = append(groups[group], label)
	}
	for _, members := range groups {
		sort.Strings(members)
	}

	return &domain.RegionClassification{Order: order, Groups: groups}
}

// Members classifies labels and returns one group's members. Unknown groups
// yield an empty slice.
func (c *Classifier) Members(labels []string, group string) []string {
	return c.Classify(labels).Members(group)
}

// Validate checks that group names are present and unique, that the
// fallback group is named and distinct, and that no keyword is blank.
func Validate(t domain.RegionTaxonomy) error {
	if strings.TrimSpace(t.FallbackGroup) == "" {
		return fmt.Errorf("taxonomy fallback group must be named")
	}
	names := make(map[string]bool, len(t.Groups))
	for i, g := range t.Groups {
		if strings.TrimSpace(g.Name) == "" {
			return fmt.Errorf("taxonomy group %d has no name", i)
		}
		if names[g.Name] {
			return fmt.Errorf("taxonomy group %q is defined twice", g.Name)
		}
		names[g.Name] = true
		for _, kw := range g.Keywords {
			if strings.TrimSpace(kw) == "" {
				return fmt.Errorf("taxonomy group %q has a blank keyword", g.Name)
			}
		}
	}
	if names[t.FallbackGroup] {
		return fmt.Errorf("fallback group %q collides with a taxonomy group", t.FallbackGroup)
	}
	return nil
}

// LoadTaxonomy reads a taxonomy from a YAML file
func LoadTaxonomy(path string) (domain.RegionTaxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.RegionTaxonomy{}, fmt.Errorf("failed to read taxonomy file: %w", err)
	}
	var t domain.RegionTaxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return domain.RegionTaxonomy{}, fmt.Errorf("failed to parse taxonomy file: %w", err)
	}
	if err := Validate(t); err != nil {
		return domain.RegionTaxonomy{}, fmt.Errorf("invalid taxonomy in %s: %w", path, err)
	}
	return t, nil
}

// Load returns the taxonomy from path, or the default when path is empty
func Load(path string) (domain.RegionTaxonomy, error) {
	if path == "" {
		return DefaultTaxonomy(), nil
	}
	return LoadTaxonomy(path)
}

func cloneTaxonomy(t domain.RegionTaxonomy) domain.RegionTaxonomy {
	out := domain.RegionTaxonomy{
		FallbackGroup: t.FallbackGroup,
		Groups:        make([]domain.TaxonomyGroup, len(t.Groups)),
	}
	for i, g := range t.Groups {
		out.Groups[i] = domain.TaxonomyGroup{
			Name:     g.Name,
			Keywords: append([]string(nil), g.Keywords...),
		}
	}
	return out
}
