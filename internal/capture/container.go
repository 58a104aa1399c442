// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package capture

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tomtom215/guardian/internal/world"
)

var (
	// ErrSlotMissing is returned when a slot has never been written.
	ErrSlotMissing = errors.New("capture slot missing")

	// ErrKindMismatch is returned when a write or read disagrees with the
	// slot's fixed kind.
	ErrKindMismatch = errors.New("capture slot kind mismatch")

	// ErrInvalidValue is returned when writing the zero Value.
	ErrInvalidValue = errors.New("invalid capture value")
)

// SlotKey names a slot as "Owner:slot".
type SlotKey string

// Key builds a slot key from an owner name and a slot name.
func Key(owner, slot string) SlotKey {
	return SlotKey(owner + ":" + slot)
}

// Owner returns the part of the key before the first colon.
func (k SlotKey) Owner() string {
	owner, _, _ := strings.Cut(string(k), ":")
	return owner
}

// SlotError describes a failed slot access.
type SlotError struct {
	Key  SlotKey
	Want Kind
	Got  Kind
	Err  error
}

func (e *SlotError) Error() string {
	if errors.Is(e.Err, ErrKindMismatch) {
		return fmt.Sprintf("%s: %v (slot holds %s, got %s)", e.Key, e.Err, e.Want, e.Got)
	}
	return fmt.Sprintf("%s: %v", e.Key, e.Err)
}

func (e *SlotError) Unwrap() error { return e.Err }

// Container is the register set of one sequence. It is not safe for
// concurrent use; a sequence is only ever touched by the engine goroutine.
type Container struct {
	values   map[SlotKey]Value
	declared map[SlotKey]Kind
}

// NewContainer returns an empty container.
func NewContainer() *Container {
	return &Container{
		values:   make(map[SlotKey]Value),
		declared: make(map[SlotKey]Kind),
	}
}

// Declare fixes the kind of a slot before its first write.
func (c *Container) Declare(key SlotKey, kind Kind) error {
	if kind == KindInvalid {
		return &SlotError{Key: key, Err: ErrInvalidValue}
	}
	if existing, ok := c.kindOf(key); ok && existing != kind {
		return &SlotError{Key: key, Want: existing, Got: kind, Err: ErrKindMismatch}
	}
	c.declared[key] = kind
	return nil
}

func (c *Container) kindOf(key SlotKey) (Kind, bool) {
	if v, ok := c.values[key]; ok {
		return v.kind, true
	}
	k, ok := c.declared[key]
	return k, ok
}

func (c *Container) check(key SlotKey, v Value) error {
	if !v.Valid() {
		return &SlotError{Key: key, Err: ErrInvalidValue}
	}
	if existing, ok := c.kindOf(key); ok && existing != v.kind {
		return &SlotError{Key: key, Want: existing, Got: v.kind, Err: ErrKindMismatch}
	}
	return nil
}

// Get returns the raw value of a slot.
func (c *Container) Get(key SlotKey) (Value, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Has reports whether a slot has been written.
func (c *Container) Has(key SlotKey) bool {
	_, ok := c.values[key]
	return ok
}

// Set overwrites a slot.
func (c *Container) Set(key SlotKey, v Value) error {
	if err := c.check(key, v); err != nil {
		return err
	}
	c.values[key] = v
	return nil
}

// SetOnce writes v only if the slot is empty. It reports whether a write
// happened.
func (c *Container) SetOnce(key SlotKey, v Value) (bool, error) {
	if err := c.check(key, v); err != nil {
		return false, err
	}
	if _, ok := c.values[key]; ok {
		return false, nil
	}
	c.values[key] = v
	return true, nil
}

// Transform replaces the slot with fn(current), where current is def when
// the slot is empty. The new value must keep the slot's kind.
func (c *Container) Transform(key SlotKey, def Value, fn func(Value) Value) (Value, error) {
	if err := c.check(key, def); err != nil {
		return Value{}, err
	}
	cur, ok := c.values[key]
	if !ok {
		cur = def
	}
	next := fn(cur)
	if err := c.check(key, next); err != nil {
		return Value{}, err
	}
	if next.kind != cur.kind {
		return Value{}, &SlotError{Key: key, Want: cur.kind, Got: next.kind, Err: ErrKindMismatch}
	}
	c.values[key] = next
	return next, nil
}

func (c *Container) read(key SlotKey, want Kind) (Value, error) {
	v, ok := c.values[key]
	if !ok {
		return Value{}, &SlotError{Key: key, Want: want, Err: ErrSlotMissing}
	}
	if v.kind != want {
		return Value{}, &SlotError{Key: key, Want: v.kind, Got: want, Err: ErrKindMismatch}
	}
	return v, nil
}

// Float reads a float slot.
func (c *Container) Float(key SlotKey) (float64, error) {
	v, err := c.read(key, KindFloat)
	return v.num, err
}

// Int reads an integer slot.
func (c *Container) Int(key SlotKey) (int64, error) {
	v, err := c.read(key, KindInt)
	return v.i, err
}

// Ticks reads a tick slot.
func (c *Container) Ticks(key SlotKey) (int64, error) {
	v, err := c.read(key, KindTicks)
	return v.i, err
}

// Position reads a position slot.
func (c *Container) Position(key SlotKey) (world.Vec3, error) {
	v, err := c.read(key, KindPosition)
	return v.pos, err
}

// Histogram reads a histogram slot.
func (c *Container) Histogram(key SlotKey) (Histogram, error) {
	v, err := c.read(key, KindHistogram)
	return v.hist, err
}

// StringSet reads a string-set slot.
func (c *Container) StringSet(key SlotKey) (StringSet, error) {
	v, err := c.read(key, KindSet)
	return v.set, err
}

// Len returns the number of written slots.
func (c *Container) Len() int {
	return len(c.values)
}

// Dump renders all written slots as strings, keyed by slot name. Used for
// report evidence and the admin API.
func (c *Container) Dump() map[string]string {
	out := make(map[string]string, len(c.values))
	for k, v := range c.values {
		out[string(k)] = v.String()
	}
	return out
}

// Keys returns the written slot keys in sorted order.
func (c *Container) Keys() []SlotKey {
	keys := make([]SlotKey, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Floats returns every numeric slot (float, int, ticks) as a float64, keyed
// by slot name.
func (c *Container) Floats() map[string]float64 {
	out := make(map[string]float64, len(c.values))
	for k, v := range c.values {
		switch v.kind {
		case KindFloat:
			out[string(k)] = v.num
		case KindInt, KindTicks:
			out[string(k)] = float64(v.i)
		}
	}
	return out
}
