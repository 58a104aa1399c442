// Guardian - Behavioral Anomaly Detection for Game Servers
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/guardian

package world

import (
	"sync"
	"time"
)

// Oracle is the read-only view of the host engine consumed by captures and
// detection conditions.
type Oracle interface {
	// Snapshot returns the latest known state of an entity.
	Snapshot(id EntityID) (Snapshot, bool)

	// MaterialAt returns the material of the block containing pos.
	MaterialAt(world string, pos Vec3) Material

	// Bounds returns the vertical build limits of a world.
	Bounds(world string) (minY, maxY float64)
}

// MirrorConfig configures the default terrain of a Mirror.
type MirrorConfig struct {
	// FloorY is the top of the implicit solid floor. Blocks with Y < FloorY
	// are solid unless overridden.
	FloorY int `koanf:"floor_y"`

	// MinY and MaxY are the vertical limits reported by Bounds.
	MinY int `koanf:"min_y"`
	MaxY int `koanf:"max_y" validate:"gtfield=MinY"`

	// FloorMaterial names the implicit floor material.
	FloorMaterial string `koanf:"floor_material" validate:"required"`
}

// DefaultMirrorConfig returns a flat world with the floor at Y=64.
func DefaultMirrorConfig() MirrorConfig {
	return MirrorConfig{
		FloorY:        64,
		MinY:          -64,
		MaxY:          320,
		FloorMaterial: "stone",
	}
}

type blockKey struct {
	world string
	pos   BlockPos
}

// Mirror is an in-memory Oracle populated from host events.
// It is safe for concurrent use: the intake writes while the engine reads.
type Mirror struct {
	config   MirrorConfig
	entities map[EntityID]Snapshot
	blocks   map[blockKey]Material
	mu       sync.RWMutex
}

// NewMirror creates an empty mirror.
func NewMirror(config MirrorConfig) *Mirror {
	if config.MaxY <= config.MinY {
		def := DefaultMirrorConfig()
		config.MinY, config.MaxY = def.MinY, def.MaxY
	}
	if config.FloorMaterial == "" {
		config.FloorMaterial = "stone"
	}
	return &Mirror{
		config:   config,
		entities: make(map[EntityID]Snapshot),
		blocks:   make(map[blockKey]Material),
	}
}

// Snapshot implements Oracle.
func (m *Mirror) Snapshot(id EntityID) (Snapshot, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.entities[id]
	if !ok {
		return Snapshot{}, false
	}
	s.Effects = append([]Effect(nil), s.Effects...)
	return s, true
}

// MaterialAt implements Oracle.
func (m *Mirror) MaterialAt(world string, pos Vec3) Material {
	bp := pos.Block()

	m.mu.RLock()
	mat, ok := m.blocks[blockKey{world: world, pos: bp}]
	m.mu.RUnlock()
	if ok {
		return mat
	}

	if bp.Y < m.config.MinY || bp.Y >= m.config.MaxY {
		return Air
	}
	if bp.Y < m.config.FloorY {
		return Material{Name: m.config.FloorMaterial, Class: MaterialSolid}
	}
	return Air
}

// Bounds implements Oracle.
func (m *Mirror) Bounds(string) (minY, maxY float64) {
	return float64(m.config.MinY), float64(m.config.MaxY)
}

// Update stores the latest snapshot of an entity.
func (m *Mirror) Update(s Snapshot) {
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now()
	}
	s.Effects = append([]Effect(nil), s.Effects...)

	m.mu.Lock()
	m.entities[s.ID] = s
	m.mu.Unlock()
}

// Remove forgets an entity.
func (m *Mirror) Remove(id EntityID) {
	m.mu.Lock()
	delete(m.entities, id)
	m.mu.Unlock()
}

// SetBlock overrides the material of a single block.
func (m *Mirror) SetBlock(world string, pos BlockPos, mat Material) {
	m.mu.Lock()
	m.blocks[blockKey{world: world, pos: pos}] = mat
	m.mu.Unlock()
}

// ClearBlock removes a block override, restoring the default terrain.
func (m *Mirror) ClearBlock(world string, pos BlockPos) {
	m.mu.Lock()
	delete(m.blocks, blockKey{world: world, pos: pos})
	m.mu.Unlock()
}

// Entities returns the number of mirrored entities.
func (m *Mirror) Entities() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entities)
}
