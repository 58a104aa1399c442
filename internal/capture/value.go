// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package capture

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tomtom215/guardian/internal/world"
)

// Kind is the type tag of a slot value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindFloat
	KindInt
	KindTicks
	KindPosition
	KindHistogram
	KindSet
)

func (k Kind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindTicks:
		return "ticks"
	case KindPosition:
		return "position"
	case KindHistogram:
		return "histogram"
	case KindSet:
		return "set"
	default:
		return "invalid"
	}
}

// Value is a tagged union over the slot kinds. The zero Value is invalid.
type Value struct {
	kind Kind
	num  float64
	i    int64
	pos  world.Vec3
	hist Histogram
	set  StringSet
}

// Float wraps a float64.
func Float(v float64) Value { return Value{kind: KindFloat, num: v} }

// Int wraps an integer counter.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Ticks wraps a tick count or tick timestamp.
func Ticks(v int64) Value { return Value{kind: KindTicks, i: v} }

// Position wraps a block-space position.
func Position(v world.Vec3) Value { return Value{kind: KindPosition, pos: v} }

// HistogramValue wraps a histogram.
func HistogramValue(h Histogram) Value { return Value{kind: KindHistogram, hist: h} }

// SetValue wraps a string set.
func SetValue(s StringSet) Value { return Value{kind: KindSet, set: s} }

// Kind returns the value's type tag.
func (v Value) Kind() Kind { return v.kind }

// Valid reports whether v carries a kind.
func (v Value) Valid() bool { return v.kind != KindInvalid }

// AsFloat returns the float payload.
func (v Value) AsFloat() (float64, bool) { return v.num, v.kind == KindFloat }

// AsInt returns the integer payload.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsTicks returns the tick payload.
func (v Value) AsTicks() (int64, bool) { return v.i, v.kind == KindTicks }

// AsPosition returns the position payload.
func (v Value) AsPosition() (world.Vec3, bool) { return v.pos, v.kind == KindPosition }

// AsHistogram returns the histogram payload.
func (v Value) AsHistogram() (Histogram, bool) { return v.hist, v.kind == KindHistogram }

// AsSet returns the set payload.
func (v Value) AsSet() (StringSet, bool) { return v.set, v.kind == KindSet }

func (v Value) String() string {
	switch v.kind {
	case KindFloat:
		return fmt.Sprintf("%.4f", v.num)
	case KindInt, KindTicks:
		return fmt.Sprintf("%d", v.i)
	case KindPosition:
		return fmt.Sprintf("(%.2f, %.2f, %.2f)", v.pos.X, v.pos.Y, v.pos.Z)
	case KindHistogram:
		return v.hist.String()
	case KindSet:
		return v.set.String()
	default:
		return "<invalid>"
	}
}

// Histogram is an immutable string-keyed counter.
type Histogram struct {
	counts map[string]int64
	total  int64
}

// NewHistogram returns an empty histogram.
func NewHistogram() Histogram {
	return Histogram{}
}

// Inc returns a copy of h with key incremented by one.
func (h Histogram) Inc(key string) Histogram {
	return h.Add(key, 1)
}

// Add returns a copy of h with n added to key.
func (h Histogram) Add(key string, n int64) Histogram {
	counts := make(map[string]int64, len(h.counts)+1)
	for k, c := range h.counts {
		counts[k] = c
	}
	counts[key] += n
	return Histogram{counts: counts, total: h.total + n}
}

// Count returns the count for key.
func (h Histogram) Count(key string) int64 {
	return h.counts[key]
}

// Total returns the sum of all counts.
func (h Histogram) Total() int64 {
	return h.total
}

// Ratio returns Count(key)/Total, or 0 for an empty histogram.
func (h Histogram) Ratio(key string) float64 {
	if h.total == 0 {
		return 0
	}
	return float64(h.counts[key]) / float64(h.total)
}

// Keys returns the keys in sorted order.
func (h Histogram) Keys() []string {
	keys := make([]string, 0, len(h.counts))
	for k := range h.counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (h Histogram) String() string {
	keys := h.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, h.counts[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// StringSet is an immutable set of strings.
type StringSet struct {
	items map[string]struct{}
}

// NewStringSet builds a set from the given items.
func NewStringSet(items ...string) StringSet {
	m := make(map[string]struct{}, len(items))
	for _, it := range items {
		m[it] = struct{}{}
	}
	return StringSet{items: m}
}

// With returns a copy of s including item.
func (s StringSet) With(item string) StringSet {
	m := make(map[string]struct{}, len(s.items)+1)
	for k := range s.items {
		m[k] = struct{}{}
	}
	m[item] = struct{}{}
	return StringSet{items: m}
}

// Contains reports whether item is in s.
func (s StringSet) Contains(item string) bool {
	_, ok := s.items[item]
	return ok
}

// Len returns the number of items.
func (s StringSet) Len() int {
	return len(s.items)
}

// Items returns the items in sorted order.
func (s StringSet) Items() []string {
	out := make([]string, 0, len(s.items))
	for k := range s.items {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s StringSet) String() string {
	return "[" + strings.Join(s.Items(), ", ") + "]"
}
