// Package kitchen implements the household kitchen's operations: audited
// create/update/delete for members, dishes, orders and order items, plus the
// read queries the pages and API are built on.
package kitchen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mmynk/homekitchen/internal/audit"
	"github.com/mmynk/homekitchen/internal/auth"
	"github.com/mmynk/homekitchen/internal/models"
	"github.com/mmynk/homekitchen/internal/storage"
)

// DefaultPassword is assigned to members created without one.
const DefaultPassword = "666"

// FileStore persists uploaded images outside the database.
type FileStore interface {
	// Save stores body under a fresh name derived from filename and
	// returns a stable reference path.
	Save(ctx context.Context, filename string, body io.Reader) (string, error)
	// Remove permanently deletes the file behind ref. Unknown refs are ignored.
	Remove(ref string) error
}

// Image is an uploaded image file.
type Image struct {
	Filename string
	Body     io.Reader
}

// Service exposes the kitchen operations.
type Service struct {
	store  storage.Store
	engine *audit.Engine
	hasher auth.Hasher
	authn  auth.Authenticator
	files  FileStore
	logger *slog.Logger

	defaultPassword string

	users  *audit.Mutator[models.User]
	dishes *audit.Mutator[models.Dish]
	orders *audit.Mutator[models.Order]
	items  *audit.Mutator[models.OrderItem]
}

// Option configures a Service.
type Option func(*Service)

// WithDefaultPassword overrides DefaultPassword.
func WithDefaultPassword(pw string) Option {
	return func(s *Service) {
		if pw != "" {
			s.defaultPassword = pw
		}
	}
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New creates a Service. files may be nil when image uploads are not used.
func New(store storage.Store, engine *audit.Engine, hasher auth.Hasher, files FileStore, opts ...Option) *Service {
	s := &Service{
		store:           store,
		engine:          engine,
		hasher:          hasher,
		authn:           auth.NewPasswordAuthenticator(store, hasher),
		files:           files,
		logger:          slog.Default(),
		defaultPassword: DefaultPassword,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.users = audit.For(engine, s.userKind())
	s.dishes = audit.For(engine, s.dishKind())
	s.orders = audit.For(engine, s.orderKind())
	s.items = audit.For(engine, s.orderItemKind())
	return s
}

// none turns a storage miss into (nil, nil) for queries whose result is optional.
func none[T any](v *T, err error) (*T, error) {
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return v, err
}

// ---- Members ----

// Login resolves a name and password to a member. Any mismatch is reported
// as ErrAuthentication without saying which part was wrong. Storage failures
// are returned as they are.
func (s *Service) Login(ctx context.Context, name, password string) (*models.User, error) {
	user, err := s.authn.Authenticate(ctx, name, password)
	if errors.Is(err, ErrAuthentication) {
		s.logger.Warn("Login failed", "name", name)
		return nil, ErrAuthentication
	}
	if err != nil {
		s.logger.Error("Login lookup failed", "name", name, "error", err)
		return nil, err
	}
	s.logger.Info("Login succeeded", "user_id", user.ID)
	return user, nil
}

// CreateUser adds a member. fields: name (required), password (defaults to
// the configured default), background_image. With actor 0 the new member is
// recorded as their own creator.
func (s *Service) CreateUser(ctx context.Context, fields models.Fields, actor int64) (*models.User, error) {
	return s.users.Create(ctx, fields, actor)
}

// UpdateUser applies a partial update. An empty password is ignored.
func (s *Service) UpdateUser(ctx context.Context, id int64, fields models.Fields, actor int64) (*models.User, error) {
	return s.users.Update(ctx, id, fields, actor)
}

// DeleteUser removes a member. Their dishes, orders, items and audit entries stay.
func (s *Service) DeleteUser(ctx context.Context, id int64, actor int64) error {
	return s.users.Delete(ctx, id, actor)
}

// GetUser returns ErrNotFound for unknown IDs.
func (s *Service) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.store.GetUser(ctx, id)
}

// ListUsers returns all members in creation order.
func (s *Service) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.store.ListUsers(ctx)
}

// UpdateBackground replaces a member's background image. The previous file
// is removed before the new one is written.
func (s *Service) UpdateBackground(ctx context.Context, userID int64, img Image, actor int64) (*models.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ref, err := s.replaceImage(ctx, user.BackgroundImage, img)
	if err != nil {
		return nil, err
	}
	return s.users.Update(ctx, userID, models.Fields{"background_image": ref}, actor)
}

// ---- Dishes ----

// CreateDish adds a dish to the catalog. fields: name and created_by
// (required), description. img is optional and is saved, after validation,
// before the row.
func (s *Service) CreateDish(ctx context.Context, fields models.Fields, img *Image, actor int64) (*models.Dish, error) {
	if img != nil {
		if err := s.dishes.CheckCreate(ctx, fields); err != nil {
			return nil, err
		}
		fields = copyFields(fields)
		ref, err := s.saveImage(ctx, *img)
		if err != nil {
			return nil, err
		}
		fields["image_url"] = ref
	}
	return s.dishes.Create(ctx, fields, actor)
}

// UpdateDish applies a partial update. When img is set the fields are
// validated first, then the old image file is removed and image_url points
// at the new one.
func (s *Service) UpdateDish(ctx context.Context, id int64, fields models.Fields, img *Image, actor int64) (*models.Dish, error) {
	if img != nil {
		if err := s.dishes.CheckUpdate(ctx, id, fields); err != nil {
			return nil, err
		}
		dish, err := s.store.GetDish(ctx, id)
		if err != nil {
			return nil, err
		}
		ref, err := s.replaceImage(ctx, dish.ImageURL, *img)
		if err != nil {
			return nil, err
		}
		fields = copyFields(fields)
		fields["image_url"] = ref
	}
	return s.dishes.Update(ctx, id, fields, actor)
}

// DeleteDish deactivates a dish. The row and its image stay so history
// keeps resolving.
func (s *Service) DeleteDish(ctx context.Context, id int64, actor int64) error {
	return s.dishes.Delete(ctx, id, actor)
}

// GetDish returns active and deleted dishes alike.
func (s *Service) GetDish(ctx context.Context, id int64) (*models.Dish, error) {
	return s.store.GetDish(ctx, id)
}

// ActiveDishes returns the dishes still on the menu in insertion order.
func (s *Service) ActiveDishes(ctx context.Context) ([]*models.Dish, error) {
	return s.store.ActiveDishes(ctx)
}

// ---- Orders ----

// CreateOrder opens an order. fields: created_by (required), status (default "open").
func (s *Service) CreateOrder(ctx context.Context, fields models.Fields, actor int64) (*models.Order, error) {
	return s.orders.Create(ctx, fields, actor)
}

// UpdateOrder changes an order's status.
func (s *Service) UpdateOrder(ctx context.Context, id int64, fields models.Fields, actor int64) (*models.Order, error) {
	return s.orders.Update(ctx, id, fields, actor)
}

// DeleteOrder removes an order and all of its items.
func (s *Service) DeleteOrder(ctx context.Context, id int64, actor int64) error {
	return s.orders.Delete(ctx, id, actor)
}

// GetOrder returns ErrNotFound for unknown IDs.
func (s *Service) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	return s.store.GetOrder(ctx, id)
}

// CurrentOrder returns the newest open order, or nil if there is none.
func (s *Service) CurrentOrder(ctx context.Context) (*models.Order, error) {
	return none(s.store.CurrentOrder(ctx))
}

// EnsureCurrentOrder returns the current order, opening one on behalf of
// actor when none exists. The new order is audited like any other.
func (s *Service) EnsureCurrentOrder(ctx context.Context, actor int64) (*models.Order, error) {
	order, err := s.CurrentOrder(ctx)
	if err != nil || order != nil {
		return order, err
	}

	if _, err := s.CreateOrder(ctx, models.Fields{"created_by": actor}, actor); err != nil {
		return nil, fmt.Errorf("failed to open order: %w", err)
	}
	s.logger.Info("Opened new current order", "actor_id", actor)

	order, err = s.CurrentOrder(ctx)
	if err == nil && order == nil {
		err = fmt.Errorf("current order: %w", ErrNotFound)
	}
	return order, err
}

// OrderHistory returns every order, newest first.
func (s *Service) OrderHistory(ctx context.Context) ([]*models.Order, error) {
	return s.store.ListOrders(ctx)
}

// OrderLines returns an order's items with dish and member names, oldest first.
func (s *Service) OrderLines(ctx context.Context, orderID int64) ([]*models.OrderLine, error) {
	return s.store.ListOrderLines(ctx, orderID)
}

// ---- Order items ----

// AddOrderItem adds a line to an order. fields: order_id, dish_id, user_id
// (required), the customization fields, status (default pending), custom_data.
func (s *Service) AddOrderItem(ctx context.Context, fields models.Fields, actor int64) (*models.OrderItem, error) {
	return s.items.Create(ctx, fields, actor)
}

// AddToCurrentOrder adds a line for actor to the current order, opening one
// if needed.
func (s *Service) AddToCurrentOrder(ctx context.Context, fields models.Fields, actor int64) (*models.OrderItem, error) {
	order, err := s.EnsureCurrentOrder(ctx, actor)
	if err != nil {
		return nil, err
	}
	fields = copyFields(fields)
	fields["order_id"] = order.ID
	fields["user_id"] = actor
	return s.AddOrderItem(ctx, fields, actor)
}

// UpdateOrderItem applies a partial update to a line.
func (s *Service) UpdateOrderItem(ctx context.Context, id int64, fields models.Fields, actor int64) (*models.OrderItem, error) {
	return s.items.Update(ctx, id, fields, actor)
}

// SetItemStatus moves a line to pending, completed or delayed.
func (s *Service) SetItemStatus(ctx context.Context, id int64, status models.ItemStatus, actor int64) (*models.OrderItem, error) {
	return s.items.Update(ctx, id, models.Fields{"status": string(status)}, actor)
}

// DeleteOrderItem removes a line.
func (s *Service) DeleteOrderItem(ctx context.Context, id int64, actor int64) error {
	return s.items.Delete(ctx, id, actor)
}

// GetOrderItem returns ErrNotFound for unknown IDs.
func (s *Service) GetOrderItem(ctx context.Context, id int64) (*models.OrderItem, error) {
	return s.store.GetOrderItem(ctx, id)
}

// LastPreference returns the customization of the newest item userID placed
// for dishID, or nil if there is none.
func (s *Service) LastPreference(ctx context.Context, userID, dishID int64) (*models.Preference, error) {
	item, err := none(s.store.LastOrderItem(ctx, userID, dishID))
	if err != nil || item == nil {
		return nil, err
	}
	return item.Preference(), nil
}

// ---- Audit ----

// AuditTrail returns every audit entry, newest first.
func (s *Service) AuditTrail(ctx context.Context) ([]*models.AuditLog, error) {
	return s.store.ListAuditLogs(ctx)
}

// ---- Images ----

func (s *Service) saveImage(ctx context.Context, img Image) (string, error) {
	if s.files == nil {
		return "", errors.New("image uploads are not configured")
	}
	ref, err := s.files.Save(ctx, img.Filename, img.Body)
	if err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}
	return ref, nil
}

// replaceImage removes old (if any) and then saves img.
func (s *Service) replaceImage(ctx context.Context, old string, img Image) (string, error) {
	if s.files == nil {
		return "", errors.New("image uploads are not configured")
	}
	if old != "" {
		if err := s.files.Remove(old); err != nil {
			s.logger.Warn("Failed to remove old image", "ref", old, "error", err)
		}
	}
	return s.saveImage(ctx, img)
}
