// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package capture

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/guardian/internal/world"
)

// ErrSchema is returned when captures declare conflicting or foreign slots.
var ErrSchema = errors.New("capture schema")

// SlotSpec declares one slot owned by a capture.
type SlotSpec struct {
	Key  SlotKey
	Kind Kind
}

// Subject is what a capture samples on each tick.
type Subject struct {
	Snapshot world.Snapshot
	Oracle   world.Oracle
	Tick     int64
}

// Capture samples a subject and updates its own slots.
type Capture interface {
	// Name is the slot owner prefix, e.g. "AltitudeCapture".
	Name() string

	// Slots declares every slot the capture writes.
	Slots() []SlotSpec

	// Apply samples the subject once.
	Apply(subject Subject, c *Container) error
}

// Registry runs a fixed list of captures against one container.
type Registry struct {
	captures  []Capture
	container *Container
}

// NewRegistry validates the slot schema of captures and returns a registry
// with a fresh container. reserved lists owner prefixes no capture may use.
func NewRegistry(captures []Capture, reserved ...string) (*Registry, error) {
	c := NewContainer()
	owners := make(map[SlotKey]string)

	for _, cp := range captures {
		name := cp.Name()
		for _, r := range reserved {
			if name == r {
				return nil, fmt.Errorf("%w: owner %q is reserved", ErrSchema, name)
			}
		}
		for _, spec := range cp.Slots() {
			if spec.Key.Owner() != name || !strings.Contains(string(spec.Key), ":") {
				return nil, fmt.Errorf("%w: %s declares foreign slot %s", ErrSchema, name, spec.Key)
			}
			if prev, ok := owners[spec.Key]; ok {
				return nil, fmt.Errorf("%w: slot %s declared by %s and %s", ErrSchema, spec.Key, prev, name)
			}
			if err := c.Declare(spec.Key, spec.Kind); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrSchema, err)
			}
			owners[spec.Key] = name
		}
	}

	return &Registry{captures: captures, container: c}, nil
}

// Container returns the registry's container.
func (r *Registry) Container() *Container {
	return r.container
}

// Names returns the capture names in run order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.captures))
	for i, cp := range r.captures {
		out[i] = cp.Name()
	}
	return out
}

// Apply runs every capture once. A failing capture does not stop the
// others; all failures are joined.
func (r *Registry) Apply(subject Subject) error {
	var errs []error
	for _, cp := range r.captures {
		if err := cp.Apply(subject, r.container); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", cp.Name(), err))
		}
	}
	return errors.Join(errs...)
}
