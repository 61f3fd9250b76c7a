// FILE: src/internal/format/text_test.go
package format

import (
	"testing"

	"quantumlog/src/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTextFormatter(t *testing.T) {
	logger := newTestLogger()
	t.Run("InvalidTemplate", func(t *testing.T) {
		options := map[string]any{"template": "{{ .Message | InvalidFunc }}"}
		_, err := NewTextFormatter(options, logger)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid template")
	})
}

func TestTextFormatter_Format(t *testing.T) {
	logger := newTestLogger()

	t.Run("DefaultTemplate", func(t *testing.T) {
		formatter, err := NewTextFormatter(nil, logger)
		require.NoError(t, err)

		output, err := formatter.Format(Line{Kind: core.KindWarn, Value: "disk low", Location: "app.go:12"})
		require.NoError(t, err)
		assert.Equal(t, "disk low [app.go:12]", output)
	})

	t.Run("NoLocation", func(t *testing.T) {
		formatter, err := NewTextFormatter(nil, logger)
		require.NoError(t, err)

		output, err := formatter.Format(Line{Value: map[string]any{"k": "v"}})
		require.NoError(t, err)
		assert.Equal(t, `{"k":"v"}`, output)
	})

	t.Run("CustomTemplate", func(t *testing.T) {
		options := map[string]any{"template": "{{ToUpper .Kind}}: {{.Message}}"}
		formatter, err := NewTextFormatter(options, logger)
		require.NoError(t, err)

		output, err := formatter.Format(Line{Kind: core.KindError, Value: "failed"})
		require.NoError(t, err)
		assert.Equal(t, "ERROR: failed", output)
	})
}

func TestRawFormatter_Format(t *testing.T) {
	formatter, err := NewRawFormatter(nil, newTestLogger())
	require.NoError(t, err)

	output, err := formatter.Format(Line{Value: "as-is", Location: "ignored.go:1"})
	require.NoError(t, err)
	assert.Equal(t, "as-is", output)
}
