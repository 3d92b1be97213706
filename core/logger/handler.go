package logger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"
)

type format uint8

const (
	formatJSON format = iota
	formatKV
)

const tsLayout = "2006-01-02T15:04:05.000Z07:00"

// lineSink receives one encoded record per call.
type lineSink interface {
	Write(line []byte) error
}

// boundAttr is an attribute attached with Logger.With, remembered with the
// group path active at the time.
type boundAttr struct {
	prefix string
	attr   slog.Attr
}

// handler is a slog.Handler producing flat records: groups become dotted
// keys, context scope is merged in, and keys come out in a fixed rank order.
type handler struct {
	level  slog.Leveler
	sink   lineSink
	format format
	rank   map[string]int
	bound  []boundAttr
	prefix string
}

func newHandler(level slog.Leveler, sink lineSink, f format, order []string) *handler {
	rank := make(map[string]int, len(order))
	for i, k := range order {
		if _, dup := rank[k]; !dup {
			rank[k] = i
		}
	}
	return &handler{level: level, sink: sink, format: f, rank: rank}
}

func (h *handler) Enabled(_ context.Context, l slog.Level) bool {
	floor := slog.LevelInfo
	if h.level != nil {
		floor = h.level.Level()
	}
	return l >= floor
}

func (h *handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	next := *h
	next.bound = make([]boundAttr, len(h.bound), len(h.bound)+len(attrs))
	copy(next.bound, h.bound)
	for _, a := range attrs {
		next.bound = append(next.bound, boundAttr{prefix: h.prefix, attr: a})
	}
	return &next
}

func (h *handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = h.prefix + name + "."
	return &next
}

func (h *handler) Handle(ctx context.Context, r slog.Record) error {
	if h.sink == nil {
		return errors.New("logger: no sink")
	}
	rec := newRecord()
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	ts = ts.UTC()
	rec.set("ts", ts.Format(tsLayout))
	rec.set("level", levelName(r.Level))
	if h.format == formatJSON {
		rec.set("ts_unix_nano", ts.UnixNano())
	}
	for _, b := range h.bound {
		rec.add(b.prefix, b.attr)
	}
	r.Attrs(func(a slog.Attr) bool {
		rec.add(h.prefix, a)
		return true
	})
	scopeOf(ctx).fill(rec)

	rec.setDefault("component", "app")
	if msg := strings.TrimSpace(r.Message); msg != "" {
		rec.setDefault("event", msg)
	}
	rec.setDefault("event", "unknown")
	rec.normalize()
	if h.format == formatJSON {
		rec.splitRID()
	} else if rid, ok := rec.values["rid"].(string); ok {
		rec.set("rid", CompactRID(rid))
	}

	keys := rec.sorted(h.rank)
	var line []byte
	var err error
	if h.format == formatKV {
		line = encodeKV(rec.values, keys)
	} else if line, err = encodeJSON(rec.values, keys); err != nil {
		return err
	}
	return h.sink.Write(line)
}

// record is an insertion-ordered field set. Later writes to a key replace
// the value but keep its first position.
type record struct {
	keys   []string
	values map[string]any
}

func newRecord() *record {
	return &record{keys: make([]string, 0, 16), values: make(map[string]any, 16)}
}

func (r *record) set(k string, v any) {
	if _, ok := r.values[k]; !ok {
		r.keys = append(r.keys, k)
	}
	r.values[k] = v
}

func (r *record) setDefault(k string, v any) {
	if _, ok := r.values[k]; !ok {
		r.set(k, v)
	}
}

func (r *record) drop(k string) {
	if _, ok := r.values[k]; !ok {
		return
	}
	delete(r.values, k)
	for i, key := range r.keys {
		if key == k {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			return
		}
	}
}

// add flattens a into the record under prefix.
func (r *record) add(prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		p := prefix
		if a.Key != "" {
			p += a.Key + "."
		}
		for _, child := range a.Value.Group() {
			r.add(p, child)
		}
		return
	}
	key := strings.TrimSpace(a.Key)
	if key == "" {
		return
	}
	key = prefix + key
	if v, ok := plain(key, a.Value); ok {
		r.set(key, v)
	}
}

// plain converts v to a JSON-friendly scalar. Durations are reported in
// milliseconds.
func plain(key string, v slog.Value) (any, bool) {
	switch v.Kind() {
	case slog.KindString:
		return strings.TrimSpace(v.String()), true
	case slog.KindInt64:
		return v.Int64(), true
	case slog.KindUint64:
		if u := v.Uint64(); u <= math.MaxInt64 {
			return int64(u), true
		}
		return v.Uint64(), true
	case slog.KindFloat64:
		return v.Float64(), true
	case slog.KindBool:
		return v.Bool(), true
	case slog.KindDuration:
		return v.Duration().Milliseconds(), true
	case slog.KindTime:
		return v.Time().UTC().Format(time.RFC3339Nano), true
	}
	switch x := v.Any().(type) {
	case nil:
		return nil, false
	case error:
		return x.Error(), true
	case time.Duration:
		return x.Milliseconds(), true
	case fmt.Stringer:
		return x.String(), true
	case []string:
		return x, true
	default:
		return fmt.Sprint(x), true
	}
}

// normalize canonicalizes enumerated fields and drops empty strings.
func (r *record) normalize() {
	for _, k := range []struct {
		key   string
		table map[string]string
	}{{"status", statusValues}, {"outcome", outcomeValues}} {
		raw, ok := r.values[k.key].(string)
		if !ok {
			continue
		}
		if v, ok := canonical(k.table, raw); ok {
			r.values[k.key] = v
		} else {
			r.drop(k.key)
		}
	}
	for _, k := range append([]string(nil), r.keys...) {
		if s, ok := r.values[k].(string); ok && s == "" {
			r.drop(k)
		}
	}
}

// splitRID keeps the readable id in rid and the original in rid_full when
// compaction changed it.
func (r *record) splitRID() {
	rid, ok := r.values["rid"].(string)
	if !ok {
		return
	}
	if short := CompactRID(rid); short != rid {
		r.setDefault("rid_full", rid)
		r.values["rid"] = short
	}
}

func (r *record) sorted(rank map[string]int) []string {
	keys := append([]string(nil), r.keys...)
	pos := func(k string) int {
		if i, ok := rank[k]; ok {
			return i
		}
		return len(rank)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		pi, pj := pos(keys[i]), pos(keys[j])
		if pi != pj {
			return pi < pj
		}
		if pi == len(rank) {
			return keys[i] < keys[j]
		}
		return false
	})
	return keys
}
