package audit_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/homekitchen/internal/audit"
	"github.com/mmynk/homekitchen/internal/models"
	"github.com/mmynk/homekitchen/internal/storage"
	"github.com/mmynk/homekitchen/internal/storage/sqlite"
)

type recorded struct {
	table string
	op    audit.Op
	err   error
}

type recorder struct{ calls []recorded }

func (r *recorder) ObserveMutation(table string, op audit.Op, err error) {
	r.calls = append(r.calls, recorded{table, op, err})
}

var errClosed = errors.New("status must not be empty")

// orderKind is a minimal hard-deleted kind over orders.
func orderKind() audit.Kind[models.Order] {
	return audit.Kind[models.Order]{
		Table: "orders",
		ID:    func(o *models.Order) int64 { return o.ID },
		Fields: func(o *models.Order) models.Snapshot {
			return models.Snapshot{"id": o.ID, "status": o.Status, "created_by": o.CreatedBy}
		},
		Build: func(f models.Fields) (*models.Order, error) {
			o := &models.Order{}
			if s, ok := f["status"].(string); ok {
				o.Status = s
			}
			return o, nil
		},
		Apply: func(o *models.Order, f models.Fields) error {
			if s, ok := f["status"].(string); ok {
				o.Status = s
			}
			return nil
		},
		Validate: func(_ context.Context, _ storage.Tx, o *models.Order, op audit.Op) error {
			if op == audit.OpUpdate && o.Status == "" {
				return errClosed
			}
			return nil
		},
		Get:    storage.Tx.GetOrder,
		Insert: storage.Tx.InsertOrder,
		Save:   storage.Tx.UpdateOrder,
		Remove: storage.Tx.DeleteOrder,
	}
}

func setup(t *testing.T, opts ...audit.EngineOption) (*audit.Mutator[models.Order], *sqlite.SQLiteStore) {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	engine := audit.NewEngine(store, audit.NewCatalog("en"), opts...)
	return audit.For(engine, orderKind()), store
}

func TestForRequiresDeleteStrategy(t *testing.T) {
	kind := orderKind()
	kind.Remove = nil
	engine := audit.NewEngine(nil, audit.NewCatalog("en"))
	assert.Panics(t, func() { audit.For(engine, kind) })
}

func TestMutatorLifecycle(t *testing.T) {
	obs := &recorder{}
	orders, store := setup(t, audit.WithObserver(obs))
	ctx := context.Background()

	o, err := orders.Create(ctx, models.Fields{}, 5)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusOpen, o.Status)

	_, err = orders.Update(ctx, o.ID, models.Fields{"status": "closed"}, 5)
	require.NoError(t, err)

	_, err = orders.Update(ctx, o.ID, models.Fields{"status": ""}, 5)
	require.ErrorIs(t, err, errClosed)

	require.NoError(t, orders.Delete(ctx, o.ID, 6))

	err = orders.Delete(ctx, o.ID, 6)
	require.ErrorIs(t, err, storage.ErrNotFound)

	logs, err := store.ListAuditLogs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 3)

	del, upd, crt := logs[0], logs[1], logs[2]

	assert.Nil(t, crt.OldValues)
	assert.Equal(t, "open", crt.NewValues["status"])
	assert.Equal(t, "created order #1", crt.Action)

	assert.Equal(t, []string{"status"}, models.Changed(upd.OldValues, upd.NewValues))
	assert.Equal(t, "closed", upd.NewValues["status"])

	assert.Nil(t, del.NewValues)
	assert.Equal(t, "closed", del.OldValues["status"])
	assert.Equal(t, int64(6), del.UserID)

	require.Len(t, obs.calls, 5)
	assert.Equal(t, recorded{"orders", audit.OpCreate, nil}, obs.calls[0])
	assert.ErrorIs(t, obs.calls[2].err, errClosed)
	assert.ErrorIs(t, obs.calls[4].err, storage.ErrNotFound)
}

func TestSnapshotEnrich(t *testing.T) {
	store, err := sqlite.New(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	kind := orderKind()
	kind.NameKey = "label"
	kind.Enrich = func(_ context.Context, _ storage.Tx, o *models.Order, s models.Snapshot) error {
		s["label"] = "cart of " + o.Status
		return nil
	}
	orders := audit.For(audit.NewEngine(store, audit.NewCatalog("en")), kind)

	_, err = orders.Create(context.Background(), models.Fields{"status": "open"}, 1)
	require.NoError(t, err)

	logs, err := store.ListAuditLogs(context.Background())
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "created order cart of open", logs[0].Action)
	assert.Equal(t, "cart of open", logs[0].NewValues["label"])
}

func TestChecksWriteNothing(t *testing.T) {
	obs := &recorder{}
	orders, store := setup(t, audit.WithObserver(obs))
	ctx := context.Background()

	o, err := orders.Create(ctx, models.Fields{}, 1)
	require.NoError(t, err)

	require.NoError(t, orders.CheckCreate(ctx, models.Fields{"status": "open"}))
	require.NoError(t, orders.CheckUpdate(ctx, o.ID, models.Fields{"status": "closed"}))
	assert.ErrorIs(t, orders.CheckUpdate(ctx, o.ID, models.Fields{"status": ""}), errClosed)
	assert.ErrorIs(t, orders.CheckUpdate(ctx, 999, models.Fields{}), storage.ErrNotFound)

	got, err := store.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusOpen, got.Status)

	logs, err := store.ListAuditLogs(ctx)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
	assert.Len(t, obs.calls, 1)
}
