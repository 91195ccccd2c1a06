// Package taxonomy classifies region labels into the groups of a static
// RegionTaxonomy.
//
// The taxonomy is data. DefaultTaxonomy mirrors the KB weekly workbook's
// nation, region, metro/province and district columns, and a YAML file can
// replace it without code changes. A Classifier copies the taxonomy at
// construction and never mutates it, so one instance is safe to share
// across goroutines.
//
// Matching for each label: an exact keyword match in any group wins; then
// the first group (in taxonomy order) with a keyword contained in the label;
// otherwise the fallback group. Every label lands in exactly one group.
package taxonomy
