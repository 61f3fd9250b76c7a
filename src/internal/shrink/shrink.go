// FILE: src/internal/shrink/shrink.go
package shrink

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sort"

	"quantumlog/src/internal/core"
	"quantumlog/src/internal/format"
)

// TruncationMessage is the payload of the error row announcing truncation
const TruncationMessage = "!! log truncated to fit transport limit !!"

// Result describes one shrink run
type Result struct {
	Encoded   string
	Truncated bool
	Removed   int // table entries and rows removed
}

// Shrink returns the encoded envelope, degraded until it fits within limit bytes.
// When no degradation can reach the limit the smallest encoding is returned along
// with an error wrapping core.ErrShrinkExhausted.
func Shrink(env *core.Envelope, limit int) (string, error) {
	res, err := Apply(env, limit)
	if res == nil {
		return "", err
	}
	return res.Encoded, err
}

// Apply runs the degradation steps in priority order on a copy of env:
//  1. prepend a truncation error row
//  2. remove status entries from table rows, front to back
//  3. remove non-error entries from table rows, front to back
//  4. drop non-table, non-error rows, front to back
//  5. drop the request URI
//  6. pop rows from the end
//
// The size is re-measured after every removal.
func Apply(env *core.Envelope, limit int) (*Result, error) {
	if env == nil {
		env = core.NewEnvelope()
	}

	encoded, err := format.Encode(env)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || len(encoded) <= limit {
		return &Result{Encoded: encoded}, nil
	}

	work := clone(env)
	work.Rows = append([]core.Row{truncationRow()}, work.Rows...)

	s, err := newShrinker(work)
	if err != nil {
		return nil, err
	}
	res := &Result{Truncated: true}

	for {
		if base64.StdEncoding.EncodedLen(s.size) <= limit {
			encoded, err = format.Encode(work)
			if err != nil {
				return nil, err
			}
			if len(encoded) <= limit {
				res.Encoded = encoded
				return res, nil
			}
			if err := s.resync(); err != nil {
				return nil, err
			}
		}

		if !s.step() {
			break
		}
		res.Removed++
	}

	encoded, err = format.Encode(work)
	if err != nil {
		return nil, err
	}
	res.Encoded = encoded
	if len(encoded) <= limit {
		return res, nil
	}
	return res, fmt.Errorf("%w: smallest encoding is %d bytes, limit %d", core.ErrShrinkExhausted, len(encoded), limit)
}

func truncationRow() core.Row {
	return core.Row{
		Payload: []any{TruncationMessage},
		Kind:    core.KindError,
	}
}

// cursor marks the first table item not yet known to be ineligible for a phase
type cursor struct {
	row, slot, item int
}

type shrinker struct {
	env  *core.Envelope
	size int // length of the JSON document, before base64

	statusCursor   cursor
	nonErrorCursor cursor
}

func newShrinker(env *core.Envelope) (*shrinker, error) {
	s := &shrinker{env: env}
	return s, s.resync()
}

func (s *shrinker) resync() error {
	data, err := format.EncodeJSON(s.env)
	if err != nil {
		return err
	}
	s.size = len(data)
	return nil
}

// step applies the highest-priority degradation still available
func (s *shrinker) step() bool {
	if s.removeTableItem(&s.statusCursor, isStatus) {
		return true
	}
	if s.removeTableItem(&s.nonErrorCursor, isNonError) {
		return true
	}
	if s.dropRow(func(r core.Row) bool { return r.Kind != core.KindTable && r.Kind != core.KindError }) {
		return true
	}
	if s.dropRequestURI() {
		return true
	}
	return s.popRow()
}

// dropRequestURI clears the optional request_uri member
func (s *shrinker) dropRequestURI() bool {
	if s.env.RequestURI == "" {
		return false
	}
	s.size -= jsonLen("request_uri") + 1 + jsonLen(s.env.RequestURI) + 1
	s.env.RequestURI = ""
	return true
}

func isStatus(item any) bool {
	level, ok := entryLevel(item)
	return ok && level == core.StatusStatus
}

// Items without a level are plain table rows and count as non-error
func isNonError(item any) bool {
	level, ok := entryLevel(item)
	return !ok || level != core.StatusError
}

// removeTableItem removes the first matching item at or after cur
func (s *shrinker) removeTableItem(cur *cursor, match func(any) bool) bool {
	rows := s.env.Rows
	for ; cur.row < len(rows); cur.row, cur.slot, cur.item = cur.row+1, 0, 0 {
		row := rows[cur.row]
		if row.Kind != core.KindTable {
			continue
		}
		for ; cur.slot < len(row.Payload); cur.slot, cur.item = cur.slot+1, 0 {
			switch container := row.Payload[cur.slot].(type) {
			case []any:
				for ; cur.item < len(container); cur.item++ {
					if !match(container[cur.item]) {
						continue
					}
					s.size -= itemSize(container[cur.item], len(container))
					row.Payload[cur.slot] = append(container[:cur.item], container[cur.item+1:]...)
					return true
				}
			case map[string]any:
				keys := sortedKeys(container)
				for ; cur.item < len(keys); cur.item++ {
					key := keys[cur.item]
					if !match(container[key]) {
						continue
					}
					s.size -= itemSize(container[key], len(container)) + jsonLen(key) + 1
					delete(container, key)
					return true
				}
			}
		}
	}
	return false
}

// dropRow removes the first row accepted by eligible
func (s *shrinker) dropRow(eligible func(core.Row) bool) bool {
	for i, row := range s.env.Rows {
		if eligible(row) {
			s.removeRow(i)
			return true
		}
	}
	return false
}

func (s *shrinker) popRow() bool {
	if len(s.env.Rows) == 0 {
		return false
	}
	s.removeRow(len(s.env.Rows) - 1)
	return true
}

func (s *shrinker) removeRow(i int) {
	rows := s.env.Rows
	s.size -= itemSize(rows[i], len(rows))
	s.env.Rows = append(rows[:i], rows[i+1:]...)

	// Row indices shifted, so table cursors must rescan from this row
	for _, cur := range []*cursor{&s.statusCursor, &s.nonErrorCursor} {
		if cur.row >= i {
			*cur = cursor{row: i}
		}
	}
}

// itemSize is the number of JSON bytes an element contributes to a container of n elements
func itemSize(v any, n int) int {
	size := jsonLen(v)
	if n > 1 {
		size++ // separator
	}
	return size
}

func jsonLen(v any) int {
	data, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return len(data)
}

// entryLevel extracts the level of a table item: a core.Entry, a decoded
// map with a "Level" key, or the positional form with the level at index 3
func entryLevel(item any) (core.Status, bool) {
	switch v := item.(type) {
	case core.Entry:
		return v.Level, true
	case *core.Entry:
		if v == nil {
			return "", false
		}
		return v.Level, true
	case map[string]any:
		if level, ok := v["Level"].(string); ok {
			return core.Status(level), true
		}
		if level, ok := v["Level"].(core.Status); ok {
			return level, true
		}
	case []any:
		if len(v) > 3 {
			if level, ok := v[3].(string); ok {
				return core.Status(level), true
			}
		}
	}
	return "", false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// clone copies the row list and every table container so removals never touch env
func clone(env *core.Envelope) *core.Envelope {
	out := *env
	out.Columns = append([]string(nil), env.Columns...)
	out.Rows = make([]core.Row, len(env.Rows))
	for i, row := range env.Rows {
		if row.Kind == core.KindTable {
			payload := make([]any, len(row.Payload))
			for j, slot := range row.Payload {
				switch c := slot.(type) {
				case []any:
					payload[j] = append([]any(nil), c...)
				case map[string]any:
					m := make(map[string]any, len(c))
					for k, v := range c {
						m[k] = v
					}
					payload[j] = m
				default:
					payload[j] = slot
				}
			}
			row.Payload = payload
		}
		out.Rows[i] = row
	}
	return &out
}
