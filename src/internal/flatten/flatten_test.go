// FILE: src/internal/flatten/flatten_test.go
package flatten

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"quantumlog/src/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type node struct {
	Name string
	Next *node
}

type pair struct {
	Left  *node
	Right *node
}

type tagged struct {
	ID     int    `json:"id"`
	Secret string `json:"-"`
	Plain  string
	hidden string
}

type brokenJSON struct{ ID int }

func (brokenJSON) MarshalJSON() ([]byte, error) { return nil, errors.New("cannot marshal") }

func (b brokenJSON) String() string { return "broken" }

type ratio float64

type account struct {
	Name    string
	balance int
	owner   *account
}

func (a *account) Describe() []Member {
	return []Member{
		{Name: "Name", Visibility: Public, Value: a.Name},
		{Name: "balance", Visibility: Private, Value: a.balance},
		{Name: "owner", Visibility: Protected, Value: a.owner},
		{Name: "registry", Visibility: Protected, Static: true, Value: "global"},
	}
}

func TestFlatten_Primitives(t *testing.T) {
	f := New(0)

	testCases := []struct {
		name  string
		input any
	}{
		{"String", "hello"},
		{"Int", 42},
		{"Float", 3.5},
		{"Bool", true},
		{"Nil", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := f.Flatten(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.input, out)
		})
	}
}

func TestFlatten_NonFiniteFloats(t *testing.T) {
	f := New(0)

	testCases := []struct {
		name  string
		input any
		want  any
	}{
		{"NaN", math.NaN(), "NaN"},
		{"PosInf", math.Inf(1), "+Inf"},
		{"NegInf", math.Inf(-1), "-Inf"},
		{"Float32Inf", float32(math.Inf(1)), "+Inf"},
		{"NamedFloat", ratio(math.NaN()), "NaN"},
		{"Nested", map[string]any{"r": []float64{1, math.Inf(-1)}}, map[string]any{"r": []any{1.0, "-Inf"}}},
		{"InvalidNumber", json.Number("NaN"), "NaN"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := f.Flatten(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out)

			_, err = json.Marshal(out)
			assert.NoError(t, err)
		})
	}
}

func TestFlatten_Structs(t *testing.T) {
	f := New(0)

	t.Run("ExportedFieldsAndClassName", func(t *testing.T) {
		out, err := f.Flatten(tagged{ID: 7, Secret: "x", Plain: "p", hidden: "h"})
		require.NoError(t, err)

		assert.Equal(t, map[string]any{
			core.ClassNameKey: "flatten.tagged",
			"id":              7,
			"Plain":           "p",
		}, out)
	})

	t.Run("DescribedMembers", func(t *testing.T) {
		out, err := f.Flatten(&account{Name: "bob", balance: 10})
		require.NoError(t, err)

		assert.Equal(t, map[string]any{
			core.ClassNameKey:           "flatten.account",
			"Name":                      "bob",
			"private balance":           10,
			"protected owner":           nil,
			"protected static registry": "global",
		}, out)
	})

	t.Run("NoDuplicateKeysBetweenPasses", func(t *testing.T) {
		out, err := f.Flatten(&account{Name: "bob"})
		require.NoError(t, err)

		m := out.(map[string]any)
		_, dup := m["public Name"]
		assert.False(t, dup, "plain pass already emitted Name")
	})

	t.Run("MarshalersRunEagerly", func(t *testing.T) {
		ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		out, err := f.Flatten(ts)
		require.NoError(t, err)
		assert.Equal(t, "2024-01-02T03:04:05Z", out)
	})

	t.Run("FailingMarshalerBecomesText", func(t *testing.T) {
		out, err := f.Flatten(map[string]any{"b": brokenJSON{ID: 1}})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"b": "broken [flatten.brokenJSON]"}, out)

		_, err = json.Marshal(out)
		assert.NoError(t, err)
	})

	t.Run("ErrorsBecomeMessages", func(t *testing.T) {
		out, err := f.Flatten(errors.New("boom"))
		require.NoError(t, err)
		assert.Equal(t, "boom", out)
	})

	t.Run("Deterministic", func(t *testing.T) {
		in := map[string]any{"a": []any{1, "two", &node{Name: "n"}}, "b": tagged{ID: 1}}
		first, err := f.Flatten(in)
		require.NoError(t, err)
		second, err := f.Flatten(in)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestFlatten_Cycles(t *testing.T) {
	f := New(0)

	t.Run("SelfReference", func(t *testing.T) {
		n := &node{Name: "a"}
		n.Next = n

		out, err := f.Flatten(n)
		require.NoError(t, err)

		m := out.(map[string]any)
		assert.Equal(t, "a", m["Name"])
		assert.Equal(t, "recursion - parent object [flatten.node]", m["Next"])
	})

	t.Run("IndirectCycle", func(t *testing.T) {
		a := &node{Name: "a"}
		b := &node{Name: "b"}
		c := &node{Name: "c"}
		a.Next, b.Next, c.Next = b, c, a

		out, err := f.Flatten(a)
		require.NoError(t, err)

		mb := out.(map[string]any)["Next"].(map[string]any)
		mc := mb["Next"].(map[string]any)
		assert.Equal(t, "c", mc["Name"])
		assert.Equal(t, "recursion - parent object [flatten.node]", mc["Next"])
	})

	t.Run("DescribedCycle", func(t *testing.T) {
		a := &account{Name: "root"}
		a.owner = a

		out, err := f.Flatten(a)
		require.NoError(t, err)
		assert.Equal(t, "recursion - parent object [flatten.account]", out.(map[string]any)["protected owner"])
	})

	t.Run("MapCycle", func(t *testing.T) {
		m := map[string]any{"k": 1}
		m["self"] = m

		out, err := f.Flatten(m)
		require.NoError(t, err)
		assert.Contains(t, out.(map[string]any)["self"], "recursion - parent object")
	})

	t.Run("SiblingsShareObject", func(t *testing.T) {
		shared := &node{Name: "s"}
		out, err := f.Flatten(pair{Left: shared, Right: shared})
		require.NoError(t, err)

		m := out.(map[string]any)
		assert.Equal(t, m["Left"], m["Right"])
		assert.Equal(t, "s", m["Right"].(map[string]any)["Name"])
	})

	t.Run("SeparateCallsDoNotShareState", func(t *testing.T) {
		shared := &node{Name: "s"}
		first, err := f.Flatten(shared)
		require.NoError(t, err)
		second, err := f.Flatten(shared)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestFlatten_DepthCeiling(t *testing.T) {
	f := New(10)

	head := &node{Name: "0"}
	cur := head
	for i := 1; i < 100; i++ {
		cur.Next = &node{Name: "n"}
		cur = cur.Next
	}

	out, err := f.Flatten(head)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDepthExceeded)

	levels := 0
	m := out.(map[string]any)
	for {
		next := m["Next"]
		if s, ok := next.(string); ok {
			assert.Equal(t, "depth limit exceeded [flatten.node]", s)
			break
		}
		m = next.(map[string]any)
		levels++
	}
	assert.Equal(t, 9, levels)
}

func TestFlattenAll(t *testing.T) {
	f := New(0)
	n := &node{Name: "x"}

	out, err := f.FlattenAll([]any{"a", n, n})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, out[1], out[2])
}
