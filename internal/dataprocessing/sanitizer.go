package dataprocessing

import (
	"regexp"
	"strconv"
	"strings"

	"kbpulse/pkg/contracts/domain"
)

// ColumnRule inspects one label. It returns the label to carry forward and
// whether the column survives.
type ColumnRule struct {
	Name  string
	Apply func(label string) (string, bool)
}

var (
	placeholderPattern = regexp.MustCompile(`^Unnamed:\s*\d+`)
	mangleSuffix       = regexp.MustCompile(`^(.+)\.\d+$`)
	lineBreaks         = strings.NewReplacer("\r\n", "", "\r", "", "\n", "")
)

// DefaultColumnRules normalizes label text, then drops numeric and
// placeholder labels. Order matters: later rules see normalized text.
var DefaultColumnRules = []ColumnRule{
	{Name: "normalize", Apply: func(label string) (string, bool) {
		return NormalizeLabel(label), true
	}},
	{Name: "numeric_label", Apply: func(label string) (string, bool) {
		return label, !IsNumericLabel(label)
	}},
	{Name: "placeholder", Apply: func(label string) (string, bool) {
		return label, label != "" && !placeholderPattern.MatchString(label)
	}},
}

// NormalizeLabel trims surrounding whitespace and removes embedded line breaks
func NormalizeLabel(label string) string {
	return strings.TrimSpace(lineBreaks.Replace(label))
}

// IsNumericLabel reports whether a label is a number, allowing thousands
// separators and the ".N" suffix added to repeated headers.
func IsNumericLabel(label string) bool {
	if parsesAsNumber(label) {
		return true
	}
	if m := mangleSuffix.FindStringSubmatch(label); m != nil {
		return parsesAsNumber(m[1])
	}
	return false
}

func parsesAsNumber(s string) bool {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// DroppedColumn records a column removed by a rule
type DroppedColumn struct {
	Label string `json:"label"`
	Rule  string `json:"rule"`
}

// ColumnSanitizer filters region columns with an ordered rule list
type ColumnSanitizer struct {
	Rules []ColumnRule
}

// NewColumnSanitizer creates a sanitizer with the default rules
func NewColumnSanitizer() *ColumnSanitizer {
	return &ColumnSanitizer{Rules: DefaultColumnRules}
}

// Sanitize returns a new table with surviving columns in their original
// order. The first column is always kept; only its text is normalized.
// A label that normalizes to one already kept is dropped as a duplicate.
func (s *ColumnSanitizer) Sanitize(t *domain.SheetTable) (*domain.SheetTable, []DroppedColumn) {
	if t == nil || len(t.Columns) == 0 {
		return t.Clone(), nil
	}

	keep := []int{0}
	labels := []string{NormalizeLabel(t.Columns[0])}
	seen := map[string]bool{labels[0]: true}
	var dropped []DroppedColumn

	for i := 1; i < len(t.Columns); i++ {
		label, ok, rule := s.apply(t.Columns[i])
		if ok && seen[label] {
			ok, rule = false, "duplicate"
		}
		if !ok {
			dropped = append(dropped, DroppedColumn{Label: t.Columns[i], Rule: rule})
			continue
		}
		seen[label] = true
		keep = append(keep, i)
		labels = append(labels, label)
	}

	out := &domain.SheetTable{
		Sheet:   t.Sheet,
		Columns: labels,
		Rows:    make([][]string, len(t.Rows)),
	}
	for r, row := range t.Rows {
		cells := make([]string, len(keep))
		for j, idx := range keep {
			if idx < len(row) {
				cells[j] = row[idx]
			}
		}
		out.Rows[r] = cells
	}
	return out, dropped
}

func (s *ColumnSanitizer) apply(label string) (string, bool, string) {
	for _, rule := range s.Rules {
		var ok bool
		label, ok = rule.Apply(label)
		if !ok {
			return label, false, rule.Name
		}
	}
	return label, true, ""
}
