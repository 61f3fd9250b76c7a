// FILE: src/internal/filter/filter_test.go
package filter

import (
	"testing"

	"quantumlog/src/internal/config"
	"quantumlog/src/internal/core"

	"github.com/lixenwraith/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *log.Logger {
	return log.NewLogger()
}

func row(kind core.RowKind, loc string, values ...any) core.Row {
	r := core.Row{Payload: values, Kind: kind}
	if loc != "" {
		r.Location = core.Loc(loc)
	}
	return r
}

func TestNewFilter(t *testing.T) {
	logger := newTestLogger()

	t.Run("SuccessWithDefaults", func(t *testing.T) {
		f, err := NewFilter(config.FilterConfig{Patterns: []string{"test"}}, logger)
		require.NoError(t, err)
		assert.Equal(t, config.FilterTypeInclude, f.kind)
		assert.Equal(t, config.FilterLogicOr, f.logic)
	})

	t.Run("ErrorInvalidRegex", func(t *testing.T) {
		f, err := NewFilter(config.FilterConfig{Patterns: []string{"["}}, logger)
		assert.Error(t, err)
		assert.Nil(t, f)
		assert.Contains(t, err.Error(), "pattern[0]")
	})
}

func TestFilter_Apply(t *testing.T) {
	logger := newTestLogger()

	testCases := []struct {
		name     string
		cfg      config.FilterConfig
		row      core.Row
		expected bool
	}{
		{
			name:     "IncludeOR_MatchPayload",
			cfg:      config.FilterConfig{Type: config.FilterTypeInclude, Patterns: []string{"payment", "cache"}},
			row:      row(core.KindLog, "", "cache miss"),
			expected: true,
		},
		{
			name:     "IncludeOR_NoMatch",
			cfg:      config.FilterConfig{Type: config.FilterTypeInclude, Patterns: []string{"payment"}},
			row:      row(core.KindLog, "", "cache miss"),
			expected: false,
		},
		{
			name:     "IncludeAND_MatchAll",
			cfg:      config.FilterConfig{Type: config.FilterTypeInclude, Logic: config.FilterLogicAnd, Patterns: []string{"^warn ", "slow"}},
			row:      row(core.KindWarn, "", "slow provider"),
			expected: true,
		},
		{
			name:     "IncludeAND_MatchOne",
			cfg:      config.FilterConfig{Type: config.FilterTypeInclude, Logic: config.FilterLogicAnd, Patterns: []string{"^error ", "slow"}},
			row:      row(core.KindWarn, "", "slow provider"),
			expected: false,
		},
		{
			name:     "ExcludeOnLocation",
			cfg:      config.FilterConfig{Type: config.FilterTypeExclude, Patterns: []string{`vendor/.*\.go:\d+$`}},
			row:      row(core.KindLog, "vendor/lib/client.go:42", "retry"),
			expected: false,
		},
		{
			name:     "ExcludeNoMatch",
			cfg:      config.FilterConfig{Type: config.FilterTypeExclude, Patterns: []string{"vendor/"}},
			row:      row(core.KindLog, "app/main.go:7", "retry"),
			expected: true,
		},
		{
			name:     "MatchOnStructuredPayload",
			cfg:      config.FilterConfig{Type: config.FilterTypeInclude, Patterns: []string{`"order_id":17`}},
			row:      row(core.KindInfo, "", map[string]any{"order_id": 17}),
			expected: true,
		},
		{
			name:     "PlainRowHasNoKindPrefix",
			cfg:      config.FilterConfig{Type: config.FilterTypeInclude, Patterns: []string{"^hello$"}},
			row:      row(core.KindLog, "", "hello"),
			expected: true,
		},
		{
			name:     "NoPatterns",
			cfg:      config.FilterConfig{Type: config.FilterTypeInclude},
			row:      row(core.KindLog, ""),
			expected: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := NewFilter(tc.cfg, logger)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, f.Apply(tc.row))
		})
	}
}

func TestFilter_StatsAndUpdate(t *testing.T) {
	f, err := NewFilter(config.FilterConfig{Type: config.FilterTypeExclude, Patterns: []string{"noise"}}, newTestLogger())
	require.NoError(t, err)

	assert.False(t, f.Apply(row(core.KindLog, "", "noise")))
	assert.True(t, f.Apply(row(core.KindLog, "", "signal")))

	stats := f.GetStats()
	assert.Equal(t, uint64(2), stats["total_processed"])
	assert.Equal(t, uint64(1), stats["total_matched"])
	assert.Equal(t, uint64(1), stats["total_dropped"])

	assert.Equal(t, []string{"noise"}, stats["patterns"])

	assert.Error(t, f.UpdatePatterns([]string{"("}))
	assert.False(t, f.Apply(row(core.KindLog, "", "noise")), "failed update keeps old patterns")

	require.NoError(t, f.UpdatePatterns([]string{"signal"}))
	assert.True(t, f.Apply(row(core.KindLog, "", "noise")))
	assert.False(t, f.Apply(row(core.KindLog, "", "signal")))
}
