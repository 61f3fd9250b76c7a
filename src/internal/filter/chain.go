// FILE: src/internal/filter/chain.go
package filter

import (
	"fmt"
	"sync/atomic"

	"quantumlog/src/internal/config"
	"quantumlog/src/internal/core"

	"github.com/lixenwraith/log"
)

// Chain manages a sequence of filters, applying them in order.
type Chain struct {
	filters []*Filter
	logger  *log.Logger

	// Statistics
	totalProcessed atomic.Uint64
	totalPassed    atomic.Uint64
}

// NewChain creates a new filter chain from a slice of filter configurations.
func NewChain(configs []config.FilterConfig, logger *log.Logger) (*Chain, error) {
	chain := &Chain{
		filters: make([]*Filter, 0, len(configs)),
		logger:  logger,
	}

	for i, cfg := range configs {
		f, err := NewFilter(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("filter[%d]: %w", i, err)
		}
		chain.filters = append(chain.filters, f)
	}

	logger.Info("msg", "Filter chain created",
		"component", "filter_chain",
		"filter_count", len(configs))
	return chain, nil
}

// Apply passes a row only if every filter does.
// Group boundaries always pass so nesting stays balanced.
func (c *Chain) Apply(row core.Row) bool {
	c.totalProcessed.Add(1)

	if !isStructural(row.Kind) {
		if i := c.rejectedBy(row); i >= 0 {
			c.logger.Debug("msg", "Row filtered out",
				"component", "filter_chain",
				"filter_index", i,
				"kind", row.Kind)
			return false
		}
	}

	c.totalPassed.Add(1)
	return true
}

// rejectedBy returns the index of the first filter dropping row, or -1
func (c *Chain) rejectedBy(row core.Row) int {
	for i, f := range c.filters {
		if !f.Apply(row) {
			return i
		}
	}
	return -1
}

// Filter returns a copy of env holding only the rows that pass.
// A nil env is returned as is.
func (c *Chain) Filter(env *core.Envelope) *core.Envelope {
	if env == nil {
		return nil
	}
	out := *env
	out.Rows = make([]core.Row, 0, len(env.Rows))
	for _, row := range env.Rows {
		if c.Apply(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return &out
}

func isStructural(kind core.RowKind) bool {
	switch kind {
	case core.KindGroup, core.KindGroupCollapsed, core.KindGroupEnd:
		return true
	}
	return false
}

// GetStats returns aggregated statistics for the entire chain.
func (c *Chain) GetStats() map[string]any {
	filterStats := make([]map[string]any, len(c.filters))
	for i, f := range c.filters {
		filterStats[i] = f.GetStats()
	}

	return map[string]any{
		"filter_count":    len(c.filters),
		"total_processed": c.totalProcessed.Load(),
		"total_passed":    c.totalPassed.Load(),
		"filters":         filterStats,
	}
}
