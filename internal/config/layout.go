package config

import (
	"fmt"

	"github.com/verte-zerg/passdown/internal/layout"
)

// BuildLayout resolves the report layout: the layout file when set, else the
// built-in table, with the configured overrides applied.
func BuildLayout(lc LayoutConfig) (layout.Layout, error) {
	l := layout.Default()
	if lc.File != nil && *lc.File != "" {
		loaded, err := layout.Load(*lc.File)
		if err != nil {
			return layout.Layout{}, err
		}
		l = loaded
	}
	if lc.NotOnFileCombine != nil {
		var err error
		l, err = l.WithCombine(layout.NotOnFile, layout.CombineRule(*lc.NotOnFileCombine))
		if err != nil {
			return layout.Layout{}, fmt.Errorf("not-on-file-combine: %w", err)
		}
	}
	rule := l.SortID
	if lc.SortIDBasis != nil {
		rule.Basis = layout.SortIDBasis(*lc.SortIDBasis)
	}
	if lc.SortIDOffset != nil {
		rule.Offset = *lc.SortIDOffset
	}
	if lc.SortIDWidth != nil {
		rule.Width = *lc.SortIDWidth
	}
	l = l.WithSortID(rule)
	if err := l.Validate(); err != nil {
		return layout.Layout{}, err
	}
	return l, nil
}
