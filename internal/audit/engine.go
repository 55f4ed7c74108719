// Package audit wraps every create, update and delete of a domain record in a
// transaction that also appends an audit log entry with before/after
// snapshots. The behavior for each table is supplied by a Kind descriptor so
// the read-diff-write-log sequence is written once.
package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmynk/homekitchen/internal/models"
	"github.com/mmynk/homekitchen/internal/storage"
)

// Observer is notified of every attempted mutation. err is nil on commit.
type Observer interface {
	ObserveMutation(table string, op Op, err error)
}

// Engine runs audited mutations against a store.
type Engine struct {
	store    storage.Store
	catalog  *Catalog
	observer Observer
	logger   *slog.Logger

	// cascadeChildren makes hard deletes log one entry per removed child
	// row in addition to the parent entry.
	cascadeChildren bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithObserver registers an observer for mutation outcomes.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) { e.observer = o }
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithCascadeChildren enables one audit entry per cascaded child deletion.
func WithCascadeChildren(enabled bool) EngineOption {
	return func(e *Engine) { e.cascadeChildren = enabled }
}

// NewEngine creates an engine writing through store and labelling entries from catalog.
func NewEngine(store storage.Store, catalog *Catalog, opts ...EngineOption) *Engine {
	e := &Engine{
		store:   store,
		catalog: catalog,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Catalog returns the label catalog in use.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// Child is a row removed together with its parent.
type Child struct {
	Table  string
	ID     int64
	Name   string
	Values models.Snapshot
}

// Kind describes one audited table.
type Kind[T any] struct {
	// Table is the logical table name recorded in audit entries.
	Table string

	// NameKey is the snapshot key holding the display name used in action
	// messages. When empty or missing the name is "#<id>".
	NameKey string

	// SelfActor records the created row's own ID as actor when the caller
	// passes actor 0.
	SelfActor bool

	ID     func(v *T) int64
	Fields func(v *T) models.Snapshot

	// Enrich adds derived keys to a snapshot, e.g. a referenced name.
	Enrich func(ctx context.Context, tx storage.Tx, v *T, s models.Snapshot) error

	// Build makes a new record from a create field map.
	Build func(f models.Fields) (*T, error)
	// Apply copies the present keys of a partial field map onto v.
	Apply func(v *T, f models.Fields) error
	// Validate runs before any write: after Build on create, after Apply
	// on update.
	Validate func(ctx context.Context, tx storage.Tx, v *T, op Op) error

	Get    func(tx storage.Tx, ctx context.Context, id int64) (*T, error)
	Insert func(tx storage.Tx, ctx context.Context, v *T) error
	Save   func(tx storage.Tx, ctx context.Context, v *T) error

	// Remove physically deletes the row. Kinds without Remove must set
	// SoftDelete, which flags v and returns the snapshots to record. Two nil
	// snapshots mean v was already deleted and nothing is written.
	Remove     func(tx storage.Tx, ctx context.Context, id int64) error
	SoftDelete func(v *T) (before, after models.Snapshot)

	// Children lists rows removed by the cascade of a hard delete.
	Children func(ctx context.Context, tx storage.Tx, v *T) ([]Child, error)
}

// Mutator applies audited mutations for one Kind.
type Mutator[T any] struct {
	engine *Engine
	kind   Kind[T]
}

// For binds a kind to an engine.
func For[T any](e *Engine, kind Kind[T]) *Mutator[T] {
	if kind.Remove == nil && kind.SoftDelete == nil {
		panic(fmt.Sprintf("audit: kind %s has neither Remove nor SoftDelete", kind.Table))
	}
	return &Mutator[T]{engine: e, kind: kind}
}

// Snapshot returns the enriched field map of v as it would be recorded.
func (m *Mutator[T]) Snapshot(ctx context.Context, tx storage.Tx, v *T) (models.Snapshot, error) {
	s := m.kind.Fields(v)
	if m.kind.Enrich != nil {
		if err := m.kind.Enrich(ctx, tx, v, s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Create builds a record from fields, validates and inserts it, then records
// an entry with no old values and the full created record as new values.
// The returned record carries its assigned ID and default timestamps.
func (m *Mutator[T]) Create(ctx context.Context, fields models.Fields, actor int64) (*T, error) {
	v, err := m.kind.Build(fields)
	if err != nil {
		if m.engine.observer != nil {
			m.engine.observer.ObserveMutation(m.kind.Table, OpCreate, err)
		}
		return nil, err
	}

	err = m.run(ctx, OpCreate, func(tx storage.Tx) ([]*models.AuditLog, error) {
		if m.kind.Validate != nil {
			if err := m.kind.Validate(ctx, tx, v, OpCreate); err != nil {
				return nil, err
			}
		}
		if err := m.kind.Insert(tx, ctx, v); err != nil {
			return nil, err
		}

		id := m.kind.ID(v)
		if actor == 0 && m.kind.SelfActor {
			actor = id
		}

		snap, err := m.Snapshot(ctx, tx, v)
		if err != nil {
			return nil, err
		}
		entry, err := m.entry(OpCreate, actor, id, snap, nil, snap)
		if err != nil {
			return nil, err
		}
		return []*models.AuditLog{entry}, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Update applies the keys present in fields to the record with the given ID.
// Keys not mentioned are left untouched. It returns storage.ErrNotFound
// without writing anything if the record does not exist.
func (m *Mutator[T]) Update(ctx context.Context, id int64, fields models.Fields, actor int64) (*T, error) {
	var updated *T
	err := m.run(ctx, OpUpdate, func(tx storage.Tx) ([]*models.AuditLog, error) {
		v, err := m.kind.Get(tx, ctx, id)
		if err != nil {
			return nil, err
		}

		before, err := m.Snapshot(ctx, tx, v)
		if err != nil {
			return nil, err
		}

		if err := m.kind.Apply(v, fields); err != nil {
			return nil, err
		}
		if m.kind.Validate != nil {
			if err := m.kind.Validate(ctx, tx, v, OpUpdate); err != nil {
				return nil, err
			}
		}
		if err := m.kind.Save(tx, ctx, v); err != nil {
			return nil, err
		}

		after, err := m.Snapshot(ctx, tx, v)
		if err != nil {
			return nil, err
		}
		entry, err := m.entry(OpUpdate, actor, id, after, before, after)
		if err != nil {
			return nil, err
		}

		if updated, err = m.kind.Get(tx, ctx, id); err != nil {
			return nil, err
		}
		return []*models.AuditLog{entry}, nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the record with the given ID, or flags it inactive for
// soft-deleted kinds. It returns storage.ErrNotFound without writing anything
// if the record does not exist.
func (m *Mutator[T]) Delete(ctx context.Context, id int64, actor int64) error {
	return m.run(ctx, OpDelete, func(tx storage.Tx) ([]*models.AuditLog, error) {
		v, err := m.kind.Get(tx, ctx, id)
		if err != nil {
			return nil, err
		}

		full, err := m.Snapshot(ctx, tx, v)
		if err != nil {
			return nil, err
		}

		if m.kind.SoftDelete != nil {
			before, after := m.kind.SoftDelete(v)
			if before == nil && after == nil {
				return nil, nil
			}
			if err := m.kind.Save(tx, ctx, v); err != nil {
				return nil, err
			}
			entry, err := m.entry(OpDelete, actor, id, full, before, after)
			if err != nil {
				return nil, err
			}
			return []*models.AuditLog{entry}, nil
		}

		var children []Child
		if m.engine.cascadeChildren && m.kind.Children != nil {
			if children, err = m.kind.Children(ctx, tx, v); err != nil {
				return nil, err
			}
		}

		if err := m.kind.Remove(tx, ctx, id); err != nil {
			return nil, err
		}

		entry, err := m.entry(OpDelete, actor, id, full, full, nil)
		if err != nil {
			return nil, err
		}
		entries := []*models.AuditLog{entry}
		for _, c := range children {
			ce, err := m.engine.childEntry(actor, c)
			if err != nil {
				return nil, err
			}
			entries = append(entries, ce)
		}
		return entries, nil
	})
}

// CheckCreate runs Build and Validate for a create without writing anything.
func (m *Mutator[T]) CheckCreate(ctx context.Context, fields models.Fields) error {
	v, err := m.kind.Build(fields)
	if err != nil {
		return err
	}
	if m.kind.Validate == nil {
		return nil
	}
	return m.engine.store.WithTx(ctx, func(tx storage.Tx) error {
		return m.kind.Validate(ctx, tx, v, OpCreate)
	})
}

// CheckUpdate loads the record, applies fields to the loaded copy and
// validates it without writing anything. It returns storage.ErrNotFound if
// the record does not exist.
func (m *Mutator[T]) CheckUpdate(ctx context.Context, id int64, fields models.Fields) error {
	return m.engine.store.WithTx(ctx, func(tx storage.Tx) error {
		v, err := m.kind.Get(tx, ctx, id)
		if err != nil {
			return err
		}
		if err := m.kind.Apply(v, fields); err != nil {
			return err
		}
		if m.kind.Validate == nil {
			return nil
		}
		return m.kind.Validate(ctx, tx, v, OpUpdate)
	})
}

// run executes fn and appends its entries inside one transaction.
func (m *Mutator[T]) run(ctx context.Context, op Op, fn func(tx storage.Tx) ([]*models.AuditLog, error)) error {
	var entries []*models.AuditLog
	err := m.engine.store.WithTx(ctx, func(tx storage.Tx) error {
		var err error
		if entries, err = fn(tx); err != nil {
			return err
		}
		for _, e := range entries {
			if err := tx.InsertAuditLog(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})

	if m.engine.observer != nil {
		m.engine.observer.ObserveMutation(m.kind.Table, op, err)
	}
	if err != nil {
		return err
	}

	for _, e := range entries {
		m.engine.logger.Info("Mutation recorded",
			"table", e.TableName,
			"op", op,
			"record_id", e.RecordID,
			"actor_id", e.UserID,
		)
	}
	return nil
}

// entry builds a normalized audit log. named is the snapshot the display
// name is read from.
func (m *Mutator[T]) entry(op Op, actor, id int64, named, before, after models.Snapshot) (*models.AuditLog, error) {
	oldN, err := before.Normalize()
	if err != nil {
		return nil, fmt.Errorf("failed to normalize old values: %w", err)
	}
	newN, err := after.Normalize()
	if err != nil {
		return nil, fmt.Errorf("failed to normalize new values: %w", err)
	}
	return &models.AuditLog{
		UserID:    actor,
		Action:    m.engine.catalog.Action(m.kind.Table, op, displayName(named, m.kind.NameKey, id)),
		TableName: m.kind.Table,
		RecordID:  id,
		OldValues: oldN,
		NewValues: newN,
	}, nil
}

func (e *Engine) childEntry(actor int64, c Child) (*models.AuditLog, error) {
	old, err := c.Values.Normalize()
	if err != nil {
		return nil, fmt.Errorf("failed to normalize child values: %w", err)
	}
	return &models.AuditLog{
		UserID:    actor,
		Action:    e.catalog.Action(c.Table, OpDelete, displayName(models.Snapshot{"name": c.Name}, "name", c.ID)),
		TableName: c.Table,
		RecordID:  c.ID,
		OldValues: old,
	}, nil
}

func displayName(s models.Snapshot, key string, id int64) string {
	if key != "" {
		if v, ok := s[key]; ok && v != nil && v != "" {
			return fmt.Sprint(v)
		}
	}
	return fmt.Sprintf("#%d", id)
}
