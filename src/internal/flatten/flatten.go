// FILE: src/internal/flatten/flatten.go
package flatten

import (
	"bytes"
	"encoding"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"quantumlog/src/internal/core"
)

// Visibility qualifies a described member
type Visibility string

const (
	Public    Visibility = "public"
	Protected Visibility = "protected"
	Private   Visibility = "private"
)

// Member is one opt-in member exposed through Describe
type Member struct {
	Name       string
	Visibility Visibility
	Static     bool
	Value      any
}

// Describer lets a type expose members that plain field enumeration cannot see,
// such as unexported state or package-level values
type Describer interface {
	Describe() []Member
}

// Label returns the synthesized key used for a described member
func (m Member) Label() string {
	vis := m.Visibility
	if vis == "" {
		vis = Public
	}
	if m.Static {
		return string(vis) + " static " + m.Name
	}
	return string(vis) + " " + m.Name
}

// Flattener converts arbitrary Go values into trees of primitives, []any and map[string]any
type Flattener struct {
	maxDepth int
}

// New creates a flattener with the given recursion ceiling
func New(maxDepth int) *Flattener {
	if maxDepth <= 0 {
		maxDepth = core.DefaultMaxDepth
	}
	return &Flattener{maxDepth: maxDepth}
}

// Flatten converts v using a fresh visited set.
// The returned value is always usable; a non-nil error wrapping core.ErrDepthExceeded
// reports that at least one subtree was replaced by a sentinel.
func (f *Flattener) Flatten(v any) (any, error) {
	w := &walker{
		maxDepth: f.maxDepth,
		visited:  make(map[identity]struct{}),
	}
	out := w.value(v, 0)
	if w.truncated > 0 {
		return out, fmt.Errorf("%w: %d subtree(s) cut at depth %d", core.ErrDepthExceeded, w.truncated, f.maxDepth)
	}
	return out, nil
}

// FlattenAll flattens each value; errors are combined into the first one seen
func (f *Flattener) FlattenAll(values []any) ([]any, error) {
	out := make([]any, len(values))
	var firstErr error
	for i, v := range values {
		fv, err := f.Flatten(v)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		out[i] = fv
	}
	return out, firstErr
}

type identity struct {
	ptr uintptr
	typ reflect.Type
}

type walker struct {
	maxDepth  int
	visited   map[identity]struct{}
	truncated int
}

var (
	describerType = reflect.TypeOf((*Describer)(nil)).Elem()
	jsonType      = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textType      = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	errorType     = reflect.TypeOf((*error)(nil)).Elem()
)

func (w *walker) value(v any, depth int) any {
	switch tv := v.(type) {
	case nil:
		return nil
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr:
		return tv
	case float32:
		if finite(float64(tv)) {
			return tv
		}
		return floatText(float64(tv))
	case float64:
		if finite(tv) {
			return tv
		}
		return floatText(tv)
	case json.Number:
		if json.Valid([]byte(tv)) {
			return tv
		}
		return string(tv)
	case []byte:
		if utf8.Valid(tv) {
			return string(tv)
		}
		return tv
	}
	return w.reflect(reflect.ValueOf(v), depth)
}

func (w *walker) reflect(rv reflect.Value, depth int) any {
	if !rv.IsValid() {
		return nil
	}

	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		return w.reflect(rv.Elem(), depth)
	}

	t := rv.Type()
	if rv.CanInterface() {
		if t.Implements(describerType) {
			if rv.Kind() == reflect.Pointer && rv.IsNil() {
				return nil
			}
			return w.guarded(rv, depth, func() any { return w.object(rv, depth) })
		}
		if t.Implements(jsonType) || t.Implements(textType) {
			if rv.Kind() == reflect.Pointer && rv.IsNil() {
				return nil
			}
			return marshaled(rv)
		}
		if t.Implements(errorType) {
			if rv.Kind() == reflect.Pointer && rv.IsNil() {
				return nil
			}
			return rv.Interface().(error).Error()
		}
	}

	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
		return w.guarded(rv, depth, func() any {
			elem := rv.Elem()
			if elem.Kind() == reflect.Struct {
				return w.object(rv, depth)
			}
			return w.reflect(elem, depth+1)
		})

	case reflect.Map:
		if rv.IsNil() {
			return nil
		}
		return w.guarded(rv, depth, func() any {
			out := make(map[string]any, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				out[fmt.Sprint(iter.Key().Interface())] = w.reflect(iter.Value(), depth+1)
			}
			return out
		})

	case reflect.Slice:
		if rv.IsNil() {
			return nil
		}
		if rv.Len() == 0 {
			return []any{}
		}
		if t.Elem().Kind() == reflect.Uint8 && utf8.Valid(rv.Bytes()) {
			return string(rv.Bytes())
		}
		return w.guarded(rv, depth, func() any { return w.sequence(rv, depth) })

	case reflect.Array:
		if depth >= w.maxDepth {
			return w.cut(t)
		}
		return w.sequence(rv, depth)

	case reflect.Struct:
		if depth >= w.maxDepth {
			return w.cut(t)
		}
		return w.object(rv, depth)

	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return w.scalar(rv)

	default:
		// chan, func, complex, unsafe pointer
		return fmt.Sprintf("%v [%s]", safeInterface(rv), t)
	}
}

// scalar returns builtin-typed values as-is and normalizes named scalar types
func (w *walker) scalar(rv reflect.Value) any {
	if k := rv.Kind(); (k == reflect.Float32 || k == reflect.Float64) && !finite(rv.Float()) {
		return floatText(rv.Float())
	}
	if rv.CanInterface() && rv.Type().PkgPath() == "" {
		return rv.Interface()
	}
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// floatText renders NaN and the infinities, which JSON cannot carry, as "NaN", "+Inf" and "-Inf"
func floatText(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// marshaled runs a value's own JSON or text marshaler now, so a failing or
// invalid marshaler degrades to text instead of failing the envelope encode
func marshaled(rv reflect.Value) any {
	v := rv.Interface()
	if m, ok := v.(json.Marshaler); ok {
		if data, err := m.MarshalJSON(); err == nil {
			dec := json.NewDecoder(bytes.NewReader(data))
			dec.UseNumber()
			var out any
			if err := dec.Decode(&out); err == nil && !dec.More() {
				return out
			}
		}
	}
	if m, ok := v.(encoding.TextMarshaler); ok {
		if text, err := m.MarshalText(); err == nil {
			return string(text)
		}
	}
	return fmt.Sprintf("%v [%s]", v, rv.Type())
}

// guarded runs fn with rv marked as on the current path.
// Re-entering an identity already on the path yields the recursion sentinel.
func (w *walker) guarded(rv reflect.Value, depth int, fn func() any) any {
	id, tracked := identityOf(rv)
	if tracked {
		if _, seen := w.visited[id]; seen {
			return "recursion - parent object [" + typeName(rv.Type()) + "]"
		}
	}
	if depth >= w.maxDepth {
		return w.cut(rv.Type())
	}
	if tracked {
		w.visited[id] = struct{}{}
		defer delete(w.visited, id)
	}
	return fn()
}

func (w *walker) cut(t reflect.Type) string {
	w.truncated++
	return "depth limit exceeded [" + typeName(t) + "]"
}

func (w *walker) sequence(rv reflect.Value, depth int) []any {
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = w.reflect(rv.Index(i), depth+1)
	}
	return out
}

// object renders a struct (or a Describer) as a mapping.
// The plain pass covers exported fields; the describe pass adds opt-in members
// whose names were not emitted by the plain pass.
func (w *walker) object(rv reflect.Value, depth int) map[string]any {
	out := map[string]any{core.ClassNameKey: typeName(rv.Type())}
	emitted := make(map[string]bool)

	sv := rv
	for sv.Kind() == reflect.Pointer || sv.Kind() == reflect.Interface {
		if sv.IsNil() {
			break
		}
		sv = sv.Elem()
	}

	if sv.Kind() == reflect.Struct {
		st := sv.Type()
		for i := 0; i < st.NumField(); i++ {
			field := st.Field(i)
			if !field.IsExported() {
				continue
			}
			key := fieldKey(field)
			if key == "" {
				continue
			}
			out[key] = w.reflect(sv.Field(i), depth+1)
			emitted[key] = true
			emitted[field.Name] = true
		}
	}

	if d, ok := describerOf(rv); ok {
		for _, m := range d.Describe() {
			if emitted[m.Name] {
				continue
			}
			label := m.Label()
			if _, dup := out[label]; dup {
				continue
			}
			out[label] = w.value(m.Value, depth+1)
		}
	}

	return out
}

func describerOf(rv reflect.Value) (Describer, bool) {
	if rv.CanInterface() {
		if d, ok := rv.Interface().(Describer); ok {
			return d, true
		}
	}
	if rv.Kind() != reflect.Pointer && rv.CanAddr() && rv.Addr().CanInterface() {
		if d, ok := rv.Addr().Interface().(Describer); ok {
			return d, true
		}
	}
	return nil, false
}

func fieldKey(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	if name, _, _ := strings.Cut(tag, ","); name != "" {
		return name
	}
	return f.Name
}

func identityOf(rv reflect.Value) (identity, bool) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map:
		if rv.IsNil() {
			return identity{}, false
		}
		return identity{ptr: rv.Pointer(), typ: rv.Type()}, true
	case reflect.Slice:
		if rv.IsNil() || rv.Len() == 0 {
			return identity{}, false
		}
		return identity{ptr: rv.Pointer(), typ: rv.Type()}, true
	}
	return identity{}, false
}

func typeName(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if name := t.String(); name != "" {
		return name
	}
	return t.Kind().String()
}

func safeInterface(rv reflect.Value) any {
	if rv.CanInterface() {
		return rv.Interface()
	}
	return rv.Kind().String()
}
