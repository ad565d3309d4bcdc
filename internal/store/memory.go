package store

import (
	"fmt"
	"sort"
	"sync"

	"eventcat/internal/domain"
)

// MemoryStore is a map-backed Store implementation. It backs the unit
// tests and the no-file fallback; nothing survives Close.
type MemoryStore struct {
	mu         sync.RWMutex
	catalogues map[string]*domain.Catalogue
	events     map[string]*domain.Event
	members    map[string]map[string]bool // catalogue uuid -> event uuids

	// creation order, for stable listings
	catalogueOrder []string
	eventOrder     []string
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		catalogues: make(map[string]*domain.Catalogue),
		events:     make(map[string]*domain.Event),
		members:    make(map[string]map[string]bool),
	}
}

func (s *MemoryStore) exists(uuid string) bool {
	_, catOK := s.catalogues[uuid]
	_, evOK := s.events[uuid]
	return catOK || evOK
}

// Create inserts a new entity and returns its UUID
func (s *MemoryStore) Create(kind domain.EntityKind, fields Fields) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch kind {
	case domain.KindCatalogue:
		cat, err := catalogueFromFields(fields)
		if err != nil {
			return "", err
		}
		if s.exists(cat.UUID) {
			return "", ErrDuplicateUUID
		}
		s.catalogues[cat.UUID] = cat
		s.catalogueOrder = append(s.catalogueOrder, cat.UUID)
		return cat.UUID, nil
	case domain.KindEvent:
		ev, err := eventFromFields(fields)
		if err != nil {
			return "", err
		}
		if s.exists(ev.UUID) {
			return "", ErrDuplicateUUID
		}
		s.events[ev.UUID] = ev
		s.eventOrder = append(s.eventOrder, ev.UUID)
		return ev.UUID, nil
	}
	return "", fmt.Errorf("create: unknown kind %q", kind)
}

// Resolve looks up an entity by UUID
func (s *MemoryStore) Resolve(uuid string) (domain.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolveLocked(uuid)
}

func (s *MemoryStore) resolveLocked(uuid string) (domain.Entity, error) {
	if cat, ok := s.catalogues[uuid]; ok {
		c := *cat
		return &c, nil
	}
	if ev, ok := s.events[uuid]; ok {
		e := *ev
		return &e, nil
	}
	return nil, ErrNotFound
}

// Remove moves an entity to trash
func (s *MemoryStore) Remove(uuid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setRemoved(uuid, true)
}

// Restore moves an entity out of trash
func (s *MemoryStore) Restore(uuid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setRemoved(uuid, false)
}

func (s *MemoryStore) setRemoved(uuid string, removed bool) error {
	if cat, ok := s.catalogues[uuid]; ok {
		if cat.Removed == removed {
			if removed {
				return ErrAlreadyRemoved
			}
			return ErrNotRemoved
		}
		cat.Removed = removed
		return nil
	}
	if ev, ok := s.events[uuid]; ok {
		if ev.Removed == removed {
			if removed {
				return ErrAlreadyRemoved
			}
			return ErrNotRemoved
		}
		ev.Removed = removed
		return nil
	}
	return ErrNotFound
}

// DeletePermanently purges an entity and its memberships
func (s *MemoryStore) DeletePermanently(uuid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.catalogues[uuid]; ok {
		delete(s.catalogues, uuid)
		delete(s.members, uuid)
		s.catalogueOrder = removeString(s.catalogueOrder, uuid)
		return nil
	}
	if _, ok := s.events[uuid]; ok {
		delete(s.events, uuid)
		for _, events := range s.members {
			delete(events, uuid)
		}
		s.eventOrder = removeString(s.eventOrder, uuid)
		return nil
	}
	return ErrNotFound
}

// UpdateCatalogue overwrites the stored fields of a catalogue
func (s *MemoryStore) UpdateCatalogue(c *domain.Catalogue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.catalogues[c.UUID]
	if !ok {
		return ErrNotFound
	}
	cur.Name = c.Name
	cur.Author = c.Author
	cur.Attributes = c.Attributes
	return nil
}

// UpdateEvent overwrites the stored fields of an event
func (s *MemoryStore) UpdateEvent(e *domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.events[e.UUID]
	if !ok {
		return ErrNotFound
	}
	cur.Start = e.Start
	cur.Stop = e.Stop
	cur.Author = e.Author
	cur.Attributes = e.Attributes
	return nil
}

// AddEventToCatalogue links an event into a catalogue
func (s *MemoryStore) AddEventToCatalogue(catalogueUUID, eventUUID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.catalogues[catalogueUUID]; !ok {
		return fmt.Errorf("catalogue %s: %w", catalogueUUID, ErrNotFound)
	}
	if _, ok := s.events[eventUUID]; !ok {
		return fmt.Errorf("event %s: %w", eventUUID, ErrNotFound)
	}
	if s.members[catalogueUUID] == nil {
		s.members[catalogueUUID] = make(map[string]bool)
	}
	s.members[catalogueUUID][eventUUID] = true
	return nil
}

// CataloguesOfEvent returns the catalogues containing the event
func (s *MemoryStore) CataloguesOfEvent(eventUUID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.events[eventUUID]; !ok {
		return nil, ErrNotFound
	}
	var result []string
	for _, catUUID := range s.catalogueOrder {
		if s.members[catUUID][eventUUID] {
			result = append(result, catUUID)
		}
	}
	return result, nil
}

// Catalogues lists catalogues in creation order
func (s *MemoryStore) Catalogues(includeRemoved bool) ([]*domain.Catalogue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Catalogue
	for _, id := range s.catalogueOrder {
		cat := s.catalogues[id]
		if cat.Removed && !includeRemoved {
			continue
		}
		c := *cat
		result = append(result, &c)
	}
	return result, nil
}

// EventsOf lists the events of a catalogue, ordered by start time
func (s *MemoryStore) EventsOf(catalogueUUID string) ([]*domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.catalogues[catalogueUUID]; !ok {
		return nil, ErrNotFound
	}
	var result []*domain.Event
	for id := range s.members[catalogueUUID] {
		if ev, ok := s.events[id]; ok {
			e := *ev
			result = append(result, &e)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Start.Equal(result[j].Start) {
			return result[i].UUID < result[j].UUID
		}
		return result[i].Start.Before(result[j].Start)
	})
	return result, nil
}

// Snapshot captures an entity for later exact restoration
func (s *MemoryStore) Snapshot(uuid string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if cat, ok := s.catalogues[uuid]; ok {
		c := *cat
		snap := &Snapshot{Kind: domain.KindCatalogue, Catalogue: &c}
		for ev := range s.members[uuid] {
			snap.Memberships = append(snap.Memberships, ev)
		}
		sort.Strings(snap.Memberships)
		return snap, nil
	}
	if ev, ok := s.events[uuid]; ok {
		e := *ev
		snap := &Snapshot{Kind: domain.KindEvent, Event: &e}
		for _, catUUID := range s.catalogueOrder {
			if s.members[catUUID][uuid] {
				snap.Memberships = append(snap.Memberships, catUUID)
			}
		}
		return snap, nil
	}
	return nil, ErrNotFound
}

// RestoreSnapshot recreates a permanently deleted entity
func (s *MemoryStore) RestoreSnapshot(snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.exists(snap.UUID()) {
		return ErrDuplicateUUID
	}
	switch snap.Kind {
	case domain.KindCatalogue:
		c := *snap.Catalogue
		s.catalogues[c.UUID] = &c
		s.catalogueOrder = append(s.catalogueOrder, c.UUID)
		for _, ev := range snap.Memberships {
			if _, ok := s.events[ev]; ok {
				if s.members[c.UUID] == nil {
					s.members[c.UUID] = make(map[string]bool)
				}
				s.members[c.UUID][ev] = true
			}
		}
	case domain.KindEvent:
		e := *snap.Event
		s.events[e.UUID] = &e
		s.eventOrder = append(s.eventOrder, e.UUID)
		for _, cat := range snap.Memberships {
			if _, ok := s.catalogues[cat]; ok {
				if s.members[cat] == nil {
					s.members[cat] = make(map[string]bool)
				}
				s.members[cat][e.UUID] = true
			}
		}
	default:
		return fmt.Errorf("restore snapshot: unknown kind %q", snap.Kind)
	}
	return nil
}

// CanonicalizeImport validates a raw JSON import document
func (s *MemoryStore) CanonicalizeImport(raw []byte) (*ImportDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return canonicalizeImport(raw, s.exists)
}

// ApplyImport inserts the entities described by a canonicalized import
func (s *MemoryStore) ApplyImport(desc *ImportDescriptor) (*ImportResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range desc.Catalogues {
		if s.exists(rec.UUID) {
			return nil, fmt.Errorf("catalogue %s: %w", rec.UUID, ErrDuplicateUUID)
		}
		for _, ev := range rec.Events {
			if s.exists(ev.UUID) {
				return nil, fmt.Errorf("event %s: %w", ev.UUID, ErrDuplicateUUID)
			}
		}
	}

	result := &ImportResult{}
	for _, rec := range desc.Catalogues {
		s.catalogues[rec.UUID] = &domain.Catalogue{
			UUID:       rec.UUID,
			Name:       rec.Name,
			Author:     rec.Author,
			Attributes: rec.Attributes,
		}
		s.catalogueOrder = append(s.catalogueOrder, rec.UUID)
		result.CatalogueUUIDs = append(result.CatalogueUUIDs, rec.UUID)

		for _, ev := range rec.Events {
			s.events[ev.UUID] = &domain.Event{
				UUID:       ev.UUID,
				Start:      ev.Start,
				Stop:       ev.Stop,
				Author:     ev.Author,
				Attributes: ev.Attributes,
			}
			s.eventOrder = append(s.eventOrder, ev.UUID)
			if s.members[rec.UUID] == nil {
				s.members[rec.UUID] = make(map[string]bool)
			}
			s.members[rec.UUID][ev.UUID] = true
			result.EventUUIDs = append(result.EventUUIDs, ev.UUID)
		}
	}
	return result, nil
}

// ExportJSON serializes the given catalogues and their events
func (s *MemoryStore) ExportJSON(catalogueUUIDs []string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var cats []*domain.Catalogue
	for _, id := range catalogueUUIDs {
		cat, ok := s.catalogues[id]
		if !ok {
			return nil, fmt.Errorf("catalogue %s: %w", id, ErrNotFound)
		}
		c := *cat
		cats = append(cats, &c)
	}
	return exportDocument(cats, func(catUUID string) ([]*domain.Event, error) {
		var events []*domain.Event
		for id := range s.members[catUUID] {
			if ev, ok := s.events[id]; ok {
				e := *ev
				events = append(events, &e)
			}
		}
		sort.Slice(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })
		return events, nil
	})
}

// Persist is a no-op for the in-memory store
func (s *MemoryStore) Persist() error { return nil }

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() error { return nil }

func removeString(list []string, value string) []string {
	for i, v := range list {
		if v == value {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
