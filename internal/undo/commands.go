package undo

import (
	"fmt"
	"time"

	"eventcat/internal/domain"
	"eventcat/internal/store"
)

// CreateCatalogue inserts a new empty catalogue. Undo purges it; redo
// recreates it under the same UUID.
type CreateCatalogue struct {
	store    store.Store
	notifier Notifier
	name     string
	author   string
	uuid     string // recorded on first execution
}

// NewCreateCatalogue builds the command; the catalogue UUID is assigned
// on first execution
func NewCreateCatalogue(st store.Store, n Notifier, name, author string) *CreateCatalogue {
	return &CreateCatalogue{store: st, notifier: n, name: name, author: author}
}

func (c *CreateCatalogue) Label() string {
	return fmt.Sprintf("create catalogue %q", c.name)
}

func (c *CreateCatalogue) Execute() error {
	fields := store.Fields{"name": c.name, "author": c.author}
	if c.uuid != "" {
		fields["uuid"] = c.uuid
	}
	id, err := c.store.Create(domain.KindCatalogue, fields)
	if err != nil {
		return err
	}
	c.uuid = id
	c.notifier.Notify(domain.VerbInserted, domain.KindCatalogue, []string{id})
	return nil
}

func (c *CreateCatalogue) Undo() error {
	if err := c.store.DeletePermanently(c.uuid); err != nil {
		return err
	}
	c.notifier.Notify(domain.VerbDeleted, domain.KindCatalogue, []string{c.uuid})
	return nil
}

// CreateEvent inserts a new event into a catalogue
type CreateEvent struct {
	store         store.Store
	notifier      Notifier
	catalogueUUID string
	start, stop   time.Time
	author        string
	uuid          string
}

// NewCreateEvent builds the command targeting the given catalogue
func NewCreateEvent(st store.Store, n Notifier, catalogueUUID string, start, stop time.Time, author string) *CreateEvent {
	return &CreateEvent{
		store: st, notifier: n,
		catalogueUUID: catalogueUUID,
		start:         start, stop: stop,
		author: author,
	}
}

func (c *CreateEvent) Label() string { return "create event" }

func (c *CreateEvent) Execute() error {
	fields := store.Fields{"start": c.start, "stop": c.stop, "author": c.author}
	if c.uuid != "" {
		fields["uuid"] = c.uuid
	}
	id, err := c.store.Create(domain.KindEvent, fields)
	if err != nil {
		return err
	}
	if err := c.store.AddEventToCatalogue(c.catalogueUUID, id); err != nil {
		// keep the store consistent when the link fails
		_ = c.store.DeletePermanently(id)
		return err
	}
	c.uuid = id
	c.notifier.Notify(domain.VerbInserted, domain.KindEvent, []string{id})
	return nil
}

func (c *CreateEvent) Undo() error {
	if err := c.store.DeletePermanently(c.uuid); err != nil {
		return err
	}
	c.notifier.Notify(domain.VerbDeleted, domain.KindEvent, []string{c.uuid})
	return nil
}

// MoveToTrash trashes the entities of the targeted selection that are
// not already trashed. Undo restores exactly the affected set.
type MoveToTrash struct {
	store    store.Store
	notifier Notifier
	kind     domain.EntityKind
	targets  []string
	affected []string // computed on first execution
}

// NewMoveToTrash builds the command over a selection snapshot
func NewMoveToTrash(st store.Store, n Notifier, kind domain.EntityKind, targets []string) *MoveToTrash {
	return &MoveToTrash{store: st, notifier: n, kind: kind, targets: append([]string(nil), targets...)}
}

func (c *MoveToTrash) Label() string {
	return fmt.Sprintf("move %d %s(s) to trash", len(c.targets), c.kind)
}

func (c *MoveToTrash) Execute() error {
	if c.affected == nil {
		for _, id := range c.targets {
			entity, err := c.store.Resolve(id)
			if err != nil || entity.IsRemoved() {
				continue
			}
			c.affected = append(c.affected, id)
		}
	}
	if err := removeAll(c.store, c.affected); err != nil {
		return err
	}
	c.notifier.Notify(domain.VerbMoved, c.kind, c.affected)
	return nil
}

func (c *MoveToTrash) Undo() error {
	if err := restoreAll(c.store, c.affected); err != nil {
		return err
	}
	c.notifier.Notify(domain.VerbMoved, c.kind, c.affected)
	return nil
}

// RestoreFromTrash restores the trashed entities of the targeted
// selection. Undo re-trashes exactly the affected set.
type RestoreFromTrash struct {
	store    store.Store
	notifier Notifier
	kind     domain.EntityKind
	targets  []string
	affected []string
}

// NewRestoreFromTrash builds the command over a selection snapshot
func NewRestoreFromTrash(st store.Store, n Notifier, kind domain.EntityKind, targets []string) *RestoreFromTrash {
	return &RestoreFromTrash{store: st, notifier: n, kind: kind, targets: append([]string(nil), targets...)}
}

func (c *RestoreFromTrash) Label() string {
	return fmt.Sprintf("restore %d %s(s) from trash", len(c.targets), c.kind)
}

func (c *RestoreFromTrash) Execute() error {
	if c.affected == nil {
		for _, id := range c.targets {
			entity, err := c.store.Resolve(id)
			if err != nil || !entity.IsRemoved() {
				continue
			}
			c.affected = append(c.affected, id)
		}
	}
	if err := restoreAll(c.store, c.affected); err != nil {
		return err
	}
	c.notifier.Notify(domain.VerbMoved, c.kind, c.affected)
	return nil
}

func (c *RestoreFromTrash) Undo() error {
	if err := removeAll(c.store, c.affected); err != nil {
		return err
	}
	c.notifier.Notify(domain.VerbMoved, c.kind, c.affected)
	return nil
}

// removeAll trashes the given entities, rolling back on failure so a
// failed execution leaves the store untouched
func removeAll(st store.Store, uuids []string) error {
	for i, id := range uuids {
		if err := st.Remove(id); err != nil {
			for _, done := range uuids[:i] {
				_ = st.Restore(done)
			}
			return fmt.Errorf("trash %s: %w", id, err)
		}
	}
	return nil
}

func restoreAll(st store.Store, uuids []string) error {
	for i, id := range uuids {
		if err := st.Restore(id); err != nil {
			for _, done := range uuids[:i] {
				_ = st.Remove(done)
			}
			return fmt.Errorf("restore %s: %w", id, err)
		}
	}
	return nil
}

// DeletePermanently purges the selected entities. Snapshots taken on
// first execution let undo recreate them exactly, including trash state
// and catalogue membership.
type DeletePermanently struct {
	store     store.Store
	notifier  Notifier
	kind      domain.EntityKind
	targets   []string
	snapshots []*store.Snapshot
}

// NewDeletePermanently builds the command over a selection snapshot
func NewDeletePermanently(st store.Store, n Notifier, kind domain.EntityKind, targets []string) *DeletePermanently {
	return &DeletePermanently{store: st, notifier: n, kind: kind, targets: append([]string(nil), targets...)}
}

func (c *DeletePermanently) Label() string {
	return fmt.Sprintf("delete %d %s(s) permanently", len(c.targets), c.kind)
}

func (c *DeletePermanently) Execute() error {
	if c.snapshots == nil {
		for _, id := range c.targets {
			snap, err := c.store.Snapshot(id)
			if err != nil {
				continue // stale selection entry, skip
			}
			c.snapshots = append(c.snapshots, snap)
		}
	}
	var deleted []string
	for _, snap := range c.snapshots {
		if err := c.store.DeletePermanently(snap.UUID()); err != nil {
			for _, done := range c.snapshots {
				if done.UUID() == snap.UUID() {
					break
				}
				_ = c.store.RestoreSnapshot(done)
			}
			return fmt.Errorf("delete %s: %w", snap.UUID(), err)
		}
		deleted = append(deleted, snap.UUID())
	}
	c.notifier.Notify(domain.VerbDeleted, c.kind, deleted)
	return nil
}

func (c *DeletePermanently) Undo() error {
	// restore in reverse order so catalogues precede their events
	for i := len(c.snapshots) - 1; i >= 0; i-- {
		if err := c.store.RestoreSnapshot(c.snapshots[i]); err != nil {
			return fmt.Errorf("restore %s: %w", c.snapshots[i].UUID(), err)
		}
	}
	uuids := make([]string, len(c.snapshots))
	for i, snap := range c.snapshots {
		uuids[i] = snap.UUID()
	}
	c.notifier.Notify(domain.VerbInserted, c.kind, uuids)
	return nil
}

// Import inserts the catalogues and events of a canonicalized import
// document. Undo removes exactly the entities the import created,
// nothing else; redo recreates them under the same UUIDs since the
// descriptor carries them.
type Import struct {
	store    store.Store
	notifier Notifier
	filename string
	desc     *store.ImportDescriptor
	result   *store.ImportResult
}

// NewImport builds the command from an already canonicalized descriptor
func NewImport(st store.Store, n Notifier, filename string, desc *store.ImportDescriptor) *Import {
	return &Import{store: st, notifier: n, filename: filename, desc: desc}
}

func (c *Import) Label() string {
	return fmt.Sprintf("import %q", c.filename)
}

func (c *Import) Execute() error {
	result, err := c.store.ApplyImport(c.desc)
	if err != nil {
		return err
	}
	c.result = result
	c.notifier.Notify(domain.VerbInserted, domain.KindCatalogue, result.CatalogueUUIDs)
	return nil
}

func (c *Import) Undo() error {
	// events first, then their catalogues
	for _, id := range c.result.EventUUIDs {
		if err := c.store.DeletePermanently(id); err != nil {
			return fmt.Errorf("delete imported event %s: %w", id, err)
		}
	}
	for _, id := range c.result.CatalogueUUIDs {
		if err := c.store.DeletePermanently(id); err != nil {
			return fmt.Errorf("delete imported catalogue %s: %w", id, err)
		}
	}
	c.notifier.Notify(domain.VerbDeleted, domain.KindCatalogue, c.result.CatalogueUUIDs)
	return nil
}
