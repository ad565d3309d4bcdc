package store

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"eventcat/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore is the durable Store implementation
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if necessary) the store database at path
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure database: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) exists(uuid string) bool {
	var n int
	err := s.db.QueryRow(
		`SELECT (SELECT COUNT(*) FROM catalogues WHERE uuid = ?) +
		        (SELECT COUNT(*) FROM events WHERE uuid = ?)`, uuid, uuid).Scan(&n)
	return err == nil && n > 0
}

func marshalAttributes(attrs map[string]any) (string, error) {
	if attrs == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(attrs)
	if err != nil {
		return "", fmt.Errorf("marshal attributes: %w", err)
	}
	return string(raw), nil
}

func unmarshalAttributes(raw string) map[string]any {
	if raw == "" || raw == "{}" {
		return nil
	}
	var attrs map[string]any
	if err := json.Unmarshal([]byte(raw), &attrs); err != nil {
		return nil
	}
	return attrs
}

// Create inserts a new entity and returns its UUID
func (s *SQLiteStore) Create(kind domain.EntityKind, fields Fields) (string, error) {
	switch kind {
	case domain.KindCatalogue:
		cat, err := catalogueFromFields(fields)
		if err != nil {
			return "", err
		}
		if s.exists(cat.UUID) {
			return "", ErrDuplicateUUID
		}
		if err := s.insertCatalogue(s.db, cat); err != nil {
			return "", err
		}
		return cat.UUID, nil
	case domain.KindEvent:
		ev, err := eventFromFields(fields)
		if err != nil {
			return "", err
		}
		if s.exists(ev.UUID) {
			return "", ErrDuplicateUUID
		}
		if err := s.insertEvent(s.db, ev); err != nil {
			return "", err
		}
		return ev.UUID, nil
	}
	return "", fmt.Errorf("create: unknown kind %q", kind)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (s *SQLiteStore) insertCatalogue(tx execer, cat *domain.Catalogue) error {
	attrs, err := marshalAttributes(cat.Attributes)
	if err != nil {
		return err
	}
	_, err = tx.Exec(
		`INSERT INTO catalogues (uuid, name, author, attributes, removed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		cat.UUID, cat.Name, cat.Author, attrs, boolInt(cat.Removed),
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert catalogue: %w", err)
	}
	return nil
}

func (s *SQLiteStore) insertEvent(tx execer, ev *domain.Event) error {
	attrs, err := marshalAttributes(ev.Attributes)
	if err != nil {
		return err
	}
	_, err = tx.Exec(
		`INSERT INTO events (uuid, start, stop, author, attributes, removed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.UUID, ev.Start.UTC().Format(time.RFC3339Nano), ev.Stop.UTC().Format(time.RFC3339Nano),
		ev.Author, attrs, boolInt(ev.Removed),
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Resolve looks up an entity by UUID
func (s *SQLiteStore) Resolve(uuid string) (domain.Entity, error) {
	if cat, err := s.catalogueByUUID(uuid); err == nil {
		return cat, nil
	} else if err != ErrNotFound {
		return nil, err
	}
	return s.eventByUUID(uuid)
}

func (s *SQLiteStore) catalogueByUUID(uuid string) (*domain.Catalogue, error) {
	var cat domain.Catalogue
	var attrs string
	var removed int
	err := s.db.QueryRow(
		`SELECT uuid, name, author, attributes, removed FROM catalogues WHERE uuid = ?`, uuid).
		Scan(&cat.UUID, &cat.Name, &cat.Author, &attrs, &removed)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query catalogue: %w", err)
	}
	cat.Attributes = unmarshalAttributes(attrs)
	cat.Removed = removed != 0
	return &cat, nil
}

func (s *SQLiteStore) eventByUUID(uuid string) (*domain.Event, error) {
	var ev domain.Event
	var start, stop, attrs string
	var removed int
	err := s.db.QueryRow(
		`SELECT uuid, start, stop, author, attributes, removed FROM events WHERE uuid = ?`, uuid).
		Scan(&ev.UUID, &start, &stop, &ev.Author, &attrs, &removed)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query event: %w", err)
	}
	if ev.Start, err = time.Parse(time.RFC3339Nano, start); err != nil {
		return nil, fmt.Errorf("parse event start: %w", err)
	}
	if ev.Stop, err = time.Parse(time.RFC3339Nano, stop); err != nil {
		return nil, fmt.Errorf("parse event stop: %w", err)
	}
	ev.Attributes = unmarshalAttributes(attrs)
	ev.Removed = removed != 0
	return &ev, nil
}

// Remove moves an entity to trash
func (s *SQLiteStore) Remove(uuid string) error {
	return s.setRemoved(uuid, true)
}

// Restore moves an entity out of trash
func (s *SQLiteStore) Restore(uuid string) error {
	return s.setRemoved(uuid, false)
}

func (s *SQLiteStore) setRemoved(uuid string, removed bool) error {
	entity, err := s.Resolve(uuid)
	if err != nil {
		return err
	}
	if entity.IsRemoved() == removed {
		if removed {
			return ErrAlreadyRemoved
		}
		return ErrNotRemoved
	}
	table := "catalogues"
	if entity.Ref().Kind == domain.KindEvent {
		table = "events"
	}
	_, err = s.db.Exec("UPDATE "+table+" SET removed = ? WHERE uuid = ?", boolInt(removed), uuid)
	if err != nil {
		return fmt.Errorf("update removed flag: %w", err)
	}
	return nil
}

// DeletePermanently purges an entity and its memberships
func (s *SQLiteStore) DeletePermanently(uuid string) error {
	entity, err := s.Resolve(uuid)
	if err != nil {
		return err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	if entity.Ref().Kind == domain.KindCatalogue {
		if _, err := tx.Exec(`DELETE FROM catalogue_events WHERE catalogue_uuid = ?`, uuid); err != nil {
			return fmt.Errorf("delete memberships: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM catalogues WHERE uuid = ?`, uuid); err != nil {
			return fmt.Errorf("delete catalogue: %w", err)
		}
	} else {
		if _, err := tx.Exec(`DELETE FROM catalogue_events WHERE event_uuid = ?`, uuid); err != nil {
			return fmt.Errorf("delete memberships: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM events WHERE uuid = ?`, uuid); err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
	}
	return tx.Commit()
}

// UpdateCatalogue overwrites the stored fields of a catalogue
func (s *SQLiteStore) UpdateCatalogue(c *domain.Catalogue) error {
	attrs, err := marshalAttributes(c.Attributes)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(
		`UPDATE catalogues SET name = ?, author = ?, attributes = ? WHERE uuid = ?`,
		c.Name, c.Author, attrs, c.UUID)
	if err != nil {
		return fmt.Errorf("update catalogue: %w", err)
	}
	return checkUpdated(res)
}

// UpdateEvent overwrites the stored fields of an event
func (s *SQLiteStore) UpdateEvent(e *domain.Event) error {
	attrs, err := marshalAttributes(e.Attributes)
	if err != nil {
		return err
	}
	res, err := s.db.Exec(
		`UPDATE events SET start = ?, stop = ?, author = ?, attributes = ? WHERE uuid = ?`,
		e.Start.UTC().Format(time.RFC3339Nano), e.Stop.UTC().Format(time.RFC3339Nano),
		e.Author, attrs, e.UUID)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return checkUpdated(res)
}

func checkUpdated(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddEventToCatalogue links an event into a catalogue
func (s *SQLiteStore) AddEventToCatalogue(catalogueUUID, eventUUID string) error {
	if _, err := s.catalogueByUUID(catalogueUUID); err != nil {
		return fmt.Errorf("catalogue %s: %w", catalogueUUID, err)
	}
	if _, err := s.eventByUUID(eventUUID); err != nil {
		return fmt.Errorf("event %s: %w", eventUUID, err)
	}
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO catalogue_events (catalogue_uuid, event_uuid) VALUES (?, ?)`,
		catalogueUUID, eventUUID)
	if err != nil {
		return fmt.Errorf("link event: %w", err)
	}
	return nil
}

// CataloguesOfEvent returns the catalogues containing the event
func (s *SQLiteStore) CataloguesOfEvent(eventUUID string) ([]string, error) {
	if _, err := s.eventByUUID(eventUUID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		`SELECT ce.catalogue_uuid FROM catalogue_events ce
		 JOIN catalogues c ON c.uuid = ce.catalogue_uuid
		 WHERE ce.event_uuid = ? ORDER BY c.created_at`, eventUUID)
	if err != nil {
		return nil, fmt.Errorf("query memberships: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	return result, rows.Err()
}

// Catalogues lists catalogues in creation order
func (s *SQLiteStore) Catalogues(includeRemoved bool) ([]*domain.Catalogue, error) {
	query := `SELECT uuid, name, author, attributes, removed FROM catalogues`
	if !includeRemoved {
		query += ` WHERE removed = 0`
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query catalogues: %w", err)
	}
	defer rows.Close()

	var result []*domain.Catalogue
	for rows.Next() {
		var cat domain.Catalogue
		var attrs string
		var removed int
		if err := rows.Scan(&cat.UUID, &cat.Name, &cat.Author, &attrs, &removed); err != nil {
			return nil, err
		}
		cat.Attributes = unmarshalAttributes(attrs)
		cat.Removed = removed != 0
		result = append(result, &cat)
	}
	return result, rows.Err()
}

// EventsOf lists the events of a catalogue, ordered by start time
func (s *SQLiteStore) EventsOf(catalogueUUID string) ([]*domain.Event, error) {
	if _, err := s.catalogueByUUID(catalogueUUID); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		`SELECT e.uuid FROM events e
		 JOIN catalogue_events ce ON ce.event_uuid = e.uuid
		 WHERE ce.catalogue_uuid = ? ORDER BY e.start, e.uuid`, catalogueUUID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var result []*domain.Event
	for _, id := range ids {
		ev, err := s.eventByUUID(id)
		if err != nil {
			return nil, err
		}
		result = append(result, ev)
	}
	return result, nil
}

// Snapshot captures an entity for later exact restoration
func (s *SQLiteStore) Snapshot(uuid string) (*Snapshot, error) {
	if cat, err := s.catalogueByUUID(uuid); err == nil {
		snap := &Snapshot{Kind: domain.KindCatalogue, Catalogue: cat}
		rows, err := s.db.Query(
			`SELECT event_uuid FROM catalogue_events WHERE catalogue_uuid = ? ORDER BY event_uuid`, uuid)
		if err != nil {
			return nil, fmt.Errorf("query memberships: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return nil, err
			}
			snap.Memberships = append(snap.Memberships, id)
		}
		return snap, rows.Err()
	} else if err != ErrNotFound {
		return nil, err
	}

	ev, err := s.eventByUUID(uuid)
	if err != nil {
		return nil, err
	}
	members, err := s.CataloguesOfEvent(uuid)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Kind: domain.KindEvent, Event: ev, Memberships: members}, nil
}

// RestoreSnapshot recreates a permanently deleted entity
func (s *SQLiteStore) RestoreSnapshot(snap *Snapshot) error {
	if s.exists(snap.UUID()) {
		return ErrDuplicateUUID
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin restore: %w", err)
	}
	defer tx.Rollback()

	switch snap.Kind {
	case domain.KindCatalogue:
		if err := s.insertCatalogue(tx, snap.Catalogue); err != nil {
			return err
		}
		for _, ev := range snap.Memberships {
			if _, err := tx.Exec(
				`INSERT INTO catalogue_events (catalogue_uuid, event_uuid)
				 SELECT ?, uuid FROM events WHERE uuid = ?`, snap.UUID(), ev); err != nil {
				return fmt.Errorf("restore membership: %w", err)
			}
		}
	case domain.KindEvent:
		if err := s.insertEvent(tx, snap.Event); err != nil {
			return err
		}
		for _, cat := range snap.Memberships {
			if _, err := tx.Exec(
				`INSERT INTO catalogue_events (catalogue_uuid, event_uuid)
				 SELECT uuid, ? FROM catalogues WHERE uuid = ?`, snap.UUID(), cat); err != nil {
				return fmt.Errorf("restore membership: %w", err)
			}
		}
	default:
		return fmt.Errorf("restore snapshot: unknown kind %q", snap.Kind)
	}
	return tx.Commit()
}

// CanonicalizeImport validates a raw JSON import document
func (s *SQLiteStore) CanonicalizeImport(raw []byte) (*ImportDescriptor, error) {
	return canonicalizeImport(raw, s.exists)
}

// ApplyImport inserts the entities described by a canonicalized import
func (s *SQLiteStore) ApplyImport(desc *ImportDescriptor) (*ImportResult, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	result := &ImportResult{}
	for _, rec := range desc.Catalogues {
		if s.exists(rec.UUID) {
			return nil, fmt.Errorf("catalogue %s: %w", rec.UUID, ErrDuplicateUUID)
		}
		cat := &domain.Catalogue{UUID: rec.UUID, Name: rec.Name, Author: rec.Author, Attributes: rec.Attributes}
		if err := s.insertCatalogue(tx, cat); err != nil {
			return nil, err
		}
		result.CatalogueUUIDs = append(result.CatalogueUUIDs, rec.UUID)

		for _, evRec := range rec.Events {
			if s.exists(evRec.UUID) {
				return nil, fmt.Errorf("event %s: %w", evRec.UUID, ErrDuplicateUUID)
			}
			ev := &domain.Event{
				UUID: evRec.UUID, Start: evRec.Start, Stop: evRec.Stop,
				Author: evRec.Author, Attributes: evRec.Attributes,
			}
			if err := s.insertEvent(tx, ev); err != nil {
				return nil, err
			}
			if _, err := tx.Exec(
				`INSERT INTO catalogue_events (catalogue_uuid, event_uuid) VALUES (?, ?)`,
				rec.UUID, evRec.UUID); err != nil {
				return nil, fmt.Errorf("link imported event: %w", err)
			}
			result.EventUUIDs = append(result.EventUUIDs, evRec.UUID)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}
	return result, nil
}

// ExportJSON serializes the given catalogues and their events
func (s *SQLiteStore) ExportJSON(catalogueUUIDs []string) ([]byte, error) {
	var cats []*domain.Catalogue
	for _, id := range catalogueUUIDs {
		cat, err := s.catalogueByUUID(id)
		if err != nil {
			return nil, fmt.Errorf("catalogue %s: %w", id, err)
		}
		cats = append(cats, cat)
	}
	return exportDocument(cats, s.EventsOf)
}

// Persist forces a WAL checkpoint so all committed state is in the
// main database file
func (s *SQLiteStore) Persist() error {
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE);"); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
