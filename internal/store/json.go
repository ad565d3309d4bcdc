// Canonical JSON import/export document structures. The same document
// shape is produced by export and accepted by import, so an exported
// catalogue set can be re-imported elsewhere unchanged.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"eventcat/internal/domain"
)

// ImportDescriptor is the canonicalized form of an import document.
// All entities carry valid UUIDs not yet present in the store, so
// applying the descriptor is deterministic and exactly reversible.
type ImportDescriptor struct {
	Catalogues []CatalogueRecord `json:"catalogues"`
}

// ImportResult reports the entities created by ApplyImport
type ImportResult struct {
	CatalogueUUIDs []string
	EventUUIDs     []string
}

// CatalogueRecord is one catalogue with its events in an import/export
// document
type CatalogueRecord struct {
	UUID       string         `json:"uuid,omitempty"`
	Name       string         `json:"name"`
	Author     string         `json:"author,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
	Events     []EventRecord  `json:"events,omitempty"`
}

// EventRecord is one event in an import/export document
type EventRecord struct {
	UUID       string         `json:"uuid,omitempty"`
	Start      time.Time      `json:"start"`
	Stop       time.Time      `json:"stop"`
	Author     string         `json:"author,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// canonicalizeImport parses and validates a raw import document. The
// exists function reports whether a UUID is already present in the
// store; such documents are rejected rather than silently merged.
func canonicalizeImport(raw []byte, exists func(string) bool) (*ImportDescriptor, error) {
	var desc ImportDescriptor
	if err := json.Unmarshal(raw, &desc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	if len(desc.Catalogues) == 0 {
		return nil, fmt.Errorf("%w: no catalogues", ErrInvalidImport)
	}

	seen := make(map[string]bool)
	checkUUID := func(id string) (string, error) {
		if id == "" {
			return uuid.NewString(), nil
		}
		if _, err := uuid.Parse(id); err != nil {
			return "", fmt.Errorf("%w: bad uuid %q", ErrInvalidImport, id)
		}
		if seen[id] {
			return "", fmt.Errorf("%w: duplicate uuid %q", ErrInvalidImport, id)
		}
		if exists != nil && exists(id) {
			return "", fmt.Errorf("%w: uuid %q: %v", ErrInvalidImport, id, ErrDuplicateUUID)
		}
		return id, nil
	}

	for i := range desc.Catalogues {
		cat := &desc.Catalogues[i]
		if cat.Name == "" {
			return nil, fmt.Errorf("%w: catalogue %d has no name", ErrInvalidImport, i)
		}
		id, err := checkUUID(cat.UUID)
		if err != nil {
			return nil, err
		}
		cat.UUID = id
		seen[id] = true

		for j := range cat.Events {
			ev := &cat.Events[j]
			if !ev.Stop.After(ev.Start) && !ev.Stop.Equal(ev.Start) {
				return nil, fmt.Errorf("%w: event %d of catalogue %q stops before it starts",
					ErrInvalidImport, j, cat.Name)
			}
			id, err := checkUUID(ev.UUID)
			if err != nil {
				return nil, err
			}
			ev.UUID = id
			seen[id] = true
		}
	}
	return &desc, nil
}

// exportDocument builds the canonical document for a set of catalogues
func exportDocument(cats []*domain.Catalogue, eventsOf func(string) ([]*domain.Event, error)) ([]byte, error) {
	doc := ImportDescriptor{}
	for _, cat := range cats {
		rec := CatalogueRecord{
			UUID:       cat.UUID,
			Name:       cat.Name,
			Author:     cat.Author,
			Attributes: cat.Attributes,
		}
		events, err := eventsOf(cat.UUID)
		if err != nil {
			return nil, err
		}
		for _, ev := range events {
			rec.Events = append(rec.Events, EventRecord{
				UUID:       ev.UUID,
				Start:      ev.Start,
				Stop:       ev.Stop,
				Author:     ev.Author,
				Attributes: ev.Attributes,
			})
		}
		doc.Catalogues = append(doc.Catalogues, rec)
	}
	return json.MarshalIndent(doc, "", "  ")
}
