// FILE: src/internal/filter/filter.go
package filter

import (
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"

	"quantumlog/src/internal/config"
	"quantumlog/src/internal/core"
	"quantumlog/src/internal/format"

	"github.com/lixenwraith/log"
)

// Filter keeps or drops replayed console rows by regex
type Filter struct {
	kind  config.FilterType
	logic config.FilterLogic
	rule  atomic.Pointer[rule]

	logger *log.Logger

	processed atomic.Uint64
	matched   atomic.Uint64
	dropped   atomic.Uint64
}

// rule is an immutable compiled pattern set
type rule struct {
	source   []string
	patterns []*regexp.Regexp
}

func compile(patterns []string) (*rule, error) {
	r := &rule{
		source:   append([]string(nil), patterns...),
		patterns: make([]*regexp.Regexp, 0, len(patterns)),
	}
	for i, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern[%d] '%s': %w", i, pattern, err)
		}
		r.patterns = append(r.patterns, re)
	}
	return r, nil
}

// match reports whether text satisfies the set under logic
func (r *rule) match(text string, logic config.FilterLogic) bool {
	requireAll := logic == config.FilterLogicAnd
	for _, re := range r.patterns {
		if re.MatchString(text) != requireAll {
			return !requireAll
		}
	}
	return requireAll
}

// NewFilter creates a filter; type defaults to include and logic to or
func NewFilter(cfg config.FilterConfig, logger *log.Logger) (*Filter, error) {
	f := &Filter{
		kind:   cfg.Type,
		logic:  cfg.Logic,
		logger: logger,
	}
	if f.kind == "" {
		f.kind = config.FilterTypeInclude
	}
	if f.logic == "" {
		f.logic = config.FilterLogicOr
	}

	r, err := compile(cfg.Patterns)
	if err != nil {
		return nil, err
	}
	f.rule.Store(r)

	logger.Debug("msg", "Filter created",
		"component", "filter",
		"type", f.kind,
		"logic", f.logic,
		"pattern_count", len(r.patterns))

	return f, nil
}

// Apply reports whether a row passes. The text matched is the row kind,
// the rendered payload values and the location, space separated.
func (f *Filter) Apply(row core.Row) bool {
	f.processed.Add(1)

	r := f.rule.Load()
	if len(r.patterns) == 0 {
		return true
	}

	hit := r.match(rowText(row), f.logic)
	if hit {
		f.matched.Add(1)
	}

	pass := hit == (f.kind == config.FilterTypeInclude)
	if !pass {
		f.dropped.Add(1)
	}
	return pass
}

func rowText(row core.Row) string {
	parts := make([]string, 0, len(row.Payload)+2)
	if row.Kind != core.KindLog {
		parts = append(parts, string(row.Kind))
	}
	for _, v := range row.Payload {
		parts = append(parts, format.Stringify(v))
	}
	if row.Location != nil {
		parts = append(parts, *row.Location)
	}
	return strings.Join(parts, " ")
}

// GetStats returns filter statistics
func (f *Filter) GetStats() map[string]any {
	return map[string]any{
		"type":            f.kind,
		"logic":           f.logic,
		"patterns":        f.rule.Load().source,
		"total_processed": f.processed.Load(),
		"total_matched":   f.matched.Load(),
		"total_dropped":   f.dropped.Load(),
	}
}

// UpdatePatterns swaps the pattern set; on error the old set stays
func (f *Filter) UpdatePatterns(patterns []string) error {
	r, err := compile(patterns)
	if err != nil {
		return err
	}
	f.rule.Store(r)

	f.logger.Info("msg", "Filter patterns updated",
		"component", "filter",
		"pattern_count", len(r.patterns))
	return nil
}
