// Package store defines the entity store consumed by the application
// core, plus its in-memory and SQLite-backed implementations.
package store

import (
	"eventcat/internal/domain"
)

// Fields carries the attributes for entity creation. Recognized keys are
// "uuid", "name", "author", "start", "stop" and "attributes"; a supplied
// "uuid" is honoured so that a redone creation yields the same identity.
type Fields map[string]any

// Snapshot captures everything needed to recreate a permanently deleted
// entity, including its trash state and catalogue membership.
type Snapshot struct {
	Kind      domain.EntityKind
	Catalogue *domain.Catalogue
	Event     *domain.Event

	// Memberships lists event UUIDs for a catalogue snapshot, or
	// containing catalogue UUIDs for an event snapshot.
	Memberships []string
}

// UUID returns the snapshotted entity's UUID
func (s *Snapshot) UUID() string {
	if s.Kind == domain.KindCatalogue {
		return s.Catalogue.UUID
	}
	return s.Event.UUID
}

// Store is the CRUD + trash + persistence surface the core operates on.
// Entities are addressed by UUID; a missing entity is reported as
// ErrNotFound and must be treated as recoverable by callers.
type Store interface {
	// Create inserts a new entity and returns its UUID. A "uuid" field
	// is honoured, otherwise one is generated.
	Create(kind domain.EntityKind, fields Fields) (string, error)

	// Resolve looks up an entity by UUID
	Resolve(uuid string) (domain.Entity, error)

	// Remove moves an entity to trash
	Remove(uuid string) error
	// Restore moves an entity out of trash
	Restore(uuid string) error
	// DeletePermanently purges an entity and its memberships
	DeletePermanently(uuid string) error

	// UpdateCatalogue and UpdateEvent overwrite the stored fields of an
	// existing entity (UUID and trash state excluded)
	UpdateCatalogue(c *domain.Catalogue) error
	UpdateEvent(e *domain.Event) error

	AddEventToCatalogue(catalogueUUID, eventUUID string) error

	// CataloguesOfEvent returns the catalogues containing the event
	CataloguesOfEvent(eventUUID string) ([]string, error)
	// Catalogues lists catalogues, optionally including trashed ones
	Catalogues(includeRemoved bool) ([]*domain.Catalogue, error)
	// EventsOf lists the events of a catalogue
	EventsOf(catalogueUUID string) ([]*domain.Event, error)

	// Snapshot and RestoreSnapshot support exact inversion of a
	// permanent deletion
	Snapshot(uuid string) (*Snapshot, error)
	RestoreSnapshot(snap *Snapshot) error

	// CanonicalizeImport validates a raw JSON import document, fills in
	// missing UUIDs and rejects entities already present
	CanonicalizeImport(raw []byte) (*ImportDescriptor, error)
	// ApplyImport inserts the entities described by a canonicalized
	// import and returns the created catalogue and event UUIDs
	ApplyImport(desc *ImportDescriptor) (*ImportResult, error)
	// ExportJSON serializes the given catalogues and their events
	ExportJSON(catalogueUUIDs []string) ([]byte, error)

	// Persist flushes pending state to durable storage
	Persist() error

	Close() error
}
