package kitchen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/homekitchen/internal/audit"
	"github.com/mmynk/homekitchen/internal/auth"
	"github.com/mmynk/homekitchen/internal/models"
	"github.com/mmynk/homekitchen/internal/storage"
	"github.com/mmynk/homekitchen/internal/storage/sqlite"
)

// stepClock advances one second on every reading so rows get distinct timestamps.
type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func newStepClock() *stepClock {
	return &stepClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "kitchen.db"), sqlite.WithClock(newStepClock().Now))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestService(t *testing.T, opts ...audit.EngineOption) (*Service, *sqlite.SQLiteStore) {
	t.Helper()
	store := newTestStore(t)
	return newServiceOn(store, nil, opts...), store
}

func newServiceOn(store storage.Store, files FileStore, opts ...audit.EngineOption) *Service {
	engine := audit.NewEngine(store, audit.NewCatalog("en"), opts...)
	return New(store, engine, auth.NewBcrypt(bcrypt.MinCost), files)
}

var errForced = errors.New("forced storage failure")

// failingStore makes every audit log insert fail, after the entity write
// has already happened inside the transaction.
type failingStore struct {
	storage.Store
}

func (s failingStore) WithTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	return s.Store.WithTx(ctx, func(tx storage.Tx) error {
		return fn(failingTx{tx})
	})
}

type failingTx struct {
	storage.Tx
}

func (failingTx) InsertAuditLog(context.Context, *models.AuditLog) error {
	return errForced
}

// missingDishStore hides every dish from lookups made inside a transaction.
type missingDishStore struct {
	storage.Store
}

func (s missingDishStore) WithTx(ctx context.Context, fn func(tx storage.Tx) error) error {
	return s.Store.WithTx(ctx, func(tx storage.Tx) error {
		return fn(missingDishTx{tx})
	})
}

type missingDishTx struct {
	storage.Tx
}

func (missingDishTx) GetDish(_ context.Context, id int64) (*models.Dish, error) {
	return nil, fmt.Errorf("dish %d: %w", id, storage.ErrNotFound)
}

// brokenLookupStore fails every user lookup by name.
type brokenLookupStore struct {
	storage.Store
}

func (brokenLookupStore) GetUserByName(context.Context, string) (*models.User, error) {
	return nil, errForced
}

// memFiles is an in-memory FileStore.
type memFiles struct {
	mu      sync.Mutex
	n       int
	files   map[string][]byte
	removed []string
}

func newMemFiles() *memFiles {
	return &memFiles{files: make(map[string][]byte)}
}

func (m *memFiles) Save(_ context.Context, filename string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n++
	ref := fmt.Sprintf("/static/uploads/%d-%s", m.n, filename)
	m.files[ref] = data
	return ref, nil
}

func (m *memFiles) Remove(ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, ref)
	m.removed = append(m.removed, ref)
	return nil
}

// fixture creates a member, a dish and an open order.
type fixture struct {
	user  *models.User
	dish  *models.Dish
	order *models.Order
}

func newFixture(t *testing.T, svc *Service) fixture {
	t.Helper()
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, models.Fields{"name": "chef", "password": "666"}, 0)
	require.NoError(t, err)
	dish, err := svc.CreateDish(ctx, models.Fields{
		"name":        "Mapo Tofu",
		"description": "Spicy",
		"created_by":  user.ID,
	}, nil, user.ID)
	require.NoError(t, err)
	order, err := svc.CreateOrder(ctx, models.Fields{"created_by": user.ID}, user.ID)
	require.NoError(t, err)
	return fixture{user: user, dish: dish, order: order}
}

func auditCount(t *testing.T, store storage.Queries) int {
	t.Helper()
	logs, err := store.ListAuditLogs(context.Background())
	require.NoError(t, err)
	return len(logs)
}

func latestAudit(t *testing.T, store storage.Queries) *models.AuditLog {
	t.Helper()
	logs, err := store.ListAuditLogs(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, logs)
	return logs[0]
}
