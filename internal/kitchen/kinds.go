package kitchen

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/mmynk/homekitchen/internal/audit"
	"github.com/mmynk/homekitchen/internal/models"
	"github.com/mmynk/homekitchen/internal/storage"
)

const (
	tableUsers      = "users"
	tableDishes     = "dishes"
	tableOrders     = "orders"
	tableOrderItems = "order_items"

	maxUserNameLen = 50
	maxDishNameLen = 255
)

var customizationKeys = []string{"taste", "preferred_time", "location", "ingredients", "remarks"}

func (s *Service) userKind() audit.Kind[models.User] {
	apply := func(u *models.User, f models.Fields) error {
		if name, ok, err := stringField(f, "name"); err != nil {
			return err
		} else if ok {
			u.Name = strings.TrimSpace(name)
		}
		// An empty password never clears the stored hash.
		if password, ok, err := stringField(f, "password"); err != nil {
			return err
		} else if ok && password != "" {
			hash, err := s.hasher.Hash(password)
			if err != nil {
				return err
			}
			u.PasswordHash = hash
		}
		if bg, ok, err := stringField(f, "background_image"); err != nil {
			return err
		} else if ok {
			u.BackgroundImage = bg
		}
		return nil
	}

	return audit.Kind[models.User]{
		Table:     tableUsers,
		NameKey:   "name",
		SelfActor: true,
		ID:        func(u *models.User) int64 { return u.ID },
		Fields: func(u *models.User) models.Snapshot {
			return models.Snapshot{
				"id":               u.ID,
				"name":             u.Name,
				"password":         u.PasswordHash,
				"background_image": nullable(u.BackgroundImage),
				"created_at":       u.CreatedAt,
			}
		},
		Build: func(f models.Fields) (*models.User, error) {
			if err := checkKeys(f, "name", "password", "background_image"); err != nil {
				return nil, err
			}
			f = copyFields(f)
			if pw, _, err := stringField(f, "password"); err == nil && pw == "" {
				f["password"] = s.defaultPassword
			}
			u := &models.User{}
			if err := apply(u, f); err != nil {
				return nil, err
			}
			return u, nil
		},
		Apply: func(u *models.User, f models.Fields) error {
			if err := checkKeys(f, "name", "password", "background_image"); err != nil {
				return err
			}
			return apply(u, f)
		},
		Validate: func(ctx context.Context, tx storage.Tx, u *models.User, _ audit.Op) error {
			if u.Name == "" {
				return invalid("name", "is required")
			}
			if utf8.RuneCountInString(u.Name) > maxUserNameLen {
				return invalid("name", "must be at most %d characters", maxUserNameLen)
			}
			if u.PasswordHash == "" {
				return invalid("password", "is required")
			}
			existing, err := tx.GetUserByName(ctx, u.Name)
			if err == nil && existing.ID != u.ID {
				return invalid("name", "%q is already taken", u.Name)
			}
			if err != nil && !errors.Is(err, storage.ErrNotFound) {
				return err
			}
			return nil
		},
		Get:    storage.Tx.GetUser,
		Insert: storage.Tx.InsertUser,
		Save:   storage.Tx.UpdateUser,
		Remove: storage.Tx.DeleteUser,
	}
}

func (s *Service) dishKind() audit.Kind[models.Dish] {
	apply := func(d *models.Dish, f models.Fields) error {
		if name, ok, err := stringField(f, "name"); err != nil {
			return err
		} else if ok {
			d.Name = strings.TrimSpace(name)
		}
		if desc, ok, err := stringField(f, "description"); err != nil {
			return err
		} else if ok {
			d.Description = desc
		}
		if img, ok, err := stringField(f, "image_url"); err != nil {
			return err
		} else if ok {
			d.ImageURL = img
		}
		return nil
	}

	return audit.Kind[models.Dish]{
		Table:   tableDishes,
		NameKey: "name",
		ID:      func(d *models.Dish) int64 { return d.ID },
		Fields: func(d *models.Dish) models.Snapshot {
			return models.Snapshot{
				"id":          d.ID,
				"name":        d.Name,
				"description": nullable(d.Description),
				"image_url":   nullable(d.ImageURL),
				"created_by":  d.CreatedBy,
				"is_active":   d.IsActive,
				"created_at":  d.CreatedAt,
			}
		},
		Build: func(f models.Fields) (*models.Dish, error) {
			if err := checkKeys(f, "name", "description", "image_url", "created_by"); err != nil {
				return nil, err
			}
			createdBy, ok, err := idField(f, "created_by")
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, invalid("created_by", "is required")
			}
			d := &models.Dish{CreatedBy: createdBy, IsActive: true}
			if err := apply(d, f); err != nil {
				return nil, err
			}
			return d, nil
		},
		Apply: func(d *models.Dish, f models.Fields) error {
			if f.Has("is_active") {
				return invalid("is_active", "dishes cannot be reactivated; delete to deactivate")
			}
			if err := checkKeys(f, "name", "description", "image_url"); err != nil {
				return err
			}
			return apply(d, f)
		},
		Validate: func(_ context.Context, _ storage.Tx, d *models.Dish, _ audit.Op) error {
			if d.Name == "" {
				return invalid("name", "is required")
			}
			if utf8.RuneCountInString(d.Name) > maxDishNameLen {
				return invalid("name", "must be at most %d characters", maxDishNameLen)
			}
			return nil
		},
		Get:    storage.Tx.GetDish,
		Insert: storage.Tx.InsertDish,
		Save:   storage.Tx.UpdateDish,
		SoftDelete: func(d *models.Dish) (models.Snapshot, models.Snapshot) {
			if !d.IsActive {
				return nil, nil
			}
			before := models.Snapshot{"is_active": d.IsActive}
			d.IsActive = false
			return before, models.Snapshot{"is_active": false}
		},
	}
}

func (s *Service) orderKind() audit.Kind[models.Order] {
	return audit.Kind[models.Order]{
		Table: tableOrders,
		ID:    func(o *models.Order) int64 { return o.ID },
		Fields: func(o *models.Order) models.Snapshot {
			return models.Snapshot{
				"id":         o.ID,
				"status":     o.Status,
				"created_by": o.CreatedBy,
				"created_at": o.CreatedAt,
			}
		},
		Build: func(f models.Fields) (*models.Order, error) {
			if err := checkKeys(f, "status", "created_by"); err != nil {
				return nil, err
			}
			createdBy, ok, err := idField(f, "created_by")
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, invalid("created_by", "is required")
			}
			o := &models.Order{Status: models.OrderStatusOpen, CreatedBy: createdBy}
			if status, ok, err := stringField(f, "status"); err != nil {
				return nil, err
			} else if ok && status != "" {
				o.Status = status
			}
			return o, nil
		},
		Apply: func(o *models.Order, f models.Fields) error {
			if err := checkKeys(f, "status"); err != nil {
				return err
			}
			if status, ok, err := stringField(f, "status"); err != nil {
				return err
			} else if ok {
				o.Status = strings.TrimSpace(status)
			}
			return nil
		},
		Validate: func(_ context.Context, _ storage.Tx, o *models.Order, _ audit.Op) error {
			if o.Status == "" {
				return invalid("status", "is required")
			}
			return nil
		},
		Get:    storage.Tx.GetOrder,
		Insert: storage.Tx.InsertOrder,
		Save:   storage.Tx.UpdateOrder,
		Remove: storage.Tx.DeleteOrder,
		Children: func(ctx context.Context, tx storage.Tx, o *models.Order) ([]audit.Child, error) {
			items, err := tx.ListOrderItems(ctx, o.ID)
			if err != nil {
				return nil, err
			}
			children := make([]audit.Child, 0, len(items))
			for _, item := range items {
				snap, err := s.items.Snapshot(ctx, tx, item)
				if err != nil {
					return nil, err
				}
				name, _ := snap["dish_name"].(string)
				children = append(children, audit.Child{
					Table:  tableOrderItems,
					ID:     item.ID,
					Name:   name,
					Values: snap,
				})
			}
			return children, nil
		},
	}
}

func (s *Service) orderItemKind() audit.Kind[models.OrderItem] {
	apply := func(i *models.OrderItem, f models.Fields) error {
		targets := map[string]*string{
			"taste":          &i.Taste,
			"preferred_time": &i.PreferredTime,
			"location":       &i.Location,
			"ingredients":    &i.Ingredients,
			"remarks":        &i.Remarks,
		}
		for _, key := range customizationKeys {
			if v, ok, err := stringField(f, key); err != nil {
				return err
			} else if ok {
				*targets[key] = v
			}
		}
		if status, ok, err := stringField(f, "status"); err != nil {
			return err
		} else if ok {
			i.Status = models.ItemStatus(status)
		}
		if data, ok, err := dataField(f, "custom_data"); err != nil {
			return err
		} else if ok {
			i.CustomData = data
		}
		return nil
	}
	mutable := append([]string{"status", "custom_data"}, customizationKeys...)

	return audit.Kind[models.OrderItem]{
		Table:   tableOrderItems,
		NameKey: "dish_name",
		ID:      func(i *models.OrderItem) int64 { return i.ID },
		Fields: func(i *models.OrderItem) models.Snapshot {
			var custom any
			if i.CustomData != nil {
				custom = i.CustomData
			}
			return models.Snapshot{
				"id":             i.ID,
				"order_id":       i.OrderID,
				"dish_id":        i.DishID,
				"user_id":        i.UserID,
				"taste":          nullable(i.Taste),
				"preferred_time": nullable(i.PreferredTime),
				"location":       nullable(i.Location),
				"ingredients":    nullable(i.Ingredients),
				"remarks":        nullable(i.Remarks),
				"status":         string(i.Status),
				"custom_data":    custom,
				"created_at":     i.CreatedAt,
			}
		},
		Enrich: func(ctx context.Context, tx storage.Tx, i *models.OrderItem, snap models.Snapshot) error {
			snap["dish_name"] = s.engine.Catalog().UnknownDish()
			dish, err := tx.GetDish(ctx, i.DishID)
			if errors.Is(err, storage.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			snap["dish_name"] = dish.Name
			return nil
		},
		Build: func(f models.Fields) (*models.OrderItem, error) {
			if err := checkKeys(f, append([]string{"order_id", "dish_id", "user_id"}, mutable...)...); err != nil {
				return nil, err
			}
			i := &models.OrderItem{Status: models.ItemPending}
			refs := map[string]*int64{"order_id": &i.OrderID, "dish_id": &i.DishID, "user_id": &i.UserID}
			for _, key := range []string{"order_id", "dish_id", "user_id"} {
				id, ok, err := idField(f, key)
				if err != nil {
					return nil, err
				}
				if !ok {
					return nil, invalid(key, "is required")
				}
				*refs[key] = id
			}
			if err := apply(i, f); err != nil {
				return nil, err
			}
			if i.Status == "" {
				i.Status = models.ItemPending
			}
			return i, nil
		},
		Apply: func(i *models.OrderItem, f models.Fields) error {
			if err := checkKeys(f, mutable...); err != nil {
				return err
			}
			return apply(i, f)
		},
		Validate: func(ctx context.Context, tx storage.Tx, i *models.OrderItem, op audit.Op) error {
			if !i.Status.Valid() {
				return invalid("status", "must be one of pending, completed, delayed")
			}
			if op != audit.OpCreate {
				return nil
			}
			if _, err := tx.GetOrder(ctx, i.OrderID); errors.Is(err, storage.ErrNotFound) {
				return invalid("order_id", "order %d does not exist", i.OrderID)
			} else if err != nil {
				return err
			}
			dish, err := tx.GetDish(ctx, i.DishID)
			if errors.Is(err, storage.ErrNotFound) {
				return invalid("dish_id", "dish %d does not exist", i.DishID)
			}
			if err != nil {
				return err
			}
			if !dish.IsActive {
				return invalid("dish_id", "dish %q is no longer on the menu", dish.Name)
			}
			return nil
		},
		Get:    storage.Tx.GetOrderItem,
		Insert: storage.Tx.InsertOrderItem,
		Save:   storage.Tx.UpdateOrderItem,
		Remove: storage.Tx.DeleteOrderItem,
	}
}

func copyFields(f models.Fields) models.Fields {
	out := make(models.Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
