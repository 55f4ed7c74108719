package service

import (
	"time"

	"github.com/mmynk/homekitchen/internal/models"
)

// Empty is the request of procedures that take no arguments.
type Empty struct{}

type User struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	BackgroundImage string    `json:"background_image,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type LoginRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User      User   `json:"user"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

type Dish struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedBy   int64     `json:"created_by"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type ActiveDishesResponse struct {
	Dishes []Dish `json:"dishes"`
}

type Order struct {
	ID        int64     `json:"id"`
	Status    string    `json:"status"`
	CreatedBy int64     `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OrderLine struct {
	ID         int64          `json:"id"`
	DishID     int64          `json:"dish_id"`
	DishName   string         `json:"dish_name"`
	UserID     int64          `json:"user_id"`
	UserName   string         `json:"user_name"`
	Status     string         `json:"status"`
	Preference Preference     `json:"preference"`
	CustomData map[string]any `json:"custom_data,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

type Preference = models.Preference

// CurrentOrderResponse has a nil Order when no order is open.
type CurrentOrderResponse struct {
	Order *Order      `json:"order"`
	Lines []OrderLine `json:"lines"`
}

type OrderHistoryResponse struct {
	Orders []Order `json:"orders"`
}

type AuditEntry struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Action    string          `json:"action"`
	TableName string          `json:"table_name"`
	RecordID  int64           `json:"record_id"`
	OldValues models.Snapshot `json:"old_values"`
	NewValues models.Snapshot `json:"new_values"`
	Timestamp time.Time       `json:"timestamp"`
}

type AuditTrailResponse struct {
	Entries []AuditEntry `json:"entries"`
}

type LastPreferenceRequest struct {
	DishID int64 `json:"dish_id"`
}

// LastPreferenceResponse has a nil Preference when the caller never ordered the dish.
type LastPreferenceResponse struct {
	Preference *Preference `json:"preference"`
}

func userFromModel(u *models.User) User {
	return User{ID: u.ID, Name: u.Name, BackgroundImage: u.BackgroundImage, CreatedAt: u.CreatedAt}
}

func dishFromModel(d *models.Dish) Dish {
	return Dish{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		ImageURL:    d.ImageURL,
		CreatedBy:   d.CreatedBy,
		IsActive:    d.IsActive,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func orderFromModel(o *models.Order) Order {
	return Order{ID: o.ID, Status: o.Status, CreatedBy: o.CreatedBy, CreatedAt: o.CreatedAt, UpdatedAt: o.UpdatedAt}
}

func lineFromModel(l *models.OrderLine) OrderLine {
	line := OrderLine{
		ID:         l.ID,
		DishID:     l.DishID,
		DishName:   l.DishName,
		UserID:     l.UserID,
		UserName:   l.UserName,
		Status:     string(l.Status),
		Preference: *l.Preference(),
		CreatedAt:  l.CreatedAt,
	}
	if l.CustomData != nil {
		line.CustomData = l.CustomData.AsMap()
	}
	return line
}

func auditFromModel(a *models.AuditLog) AuditEntry {
	return AuditEntry{
		ID:        a.ID,
		UserID:    a.UserID,
		Action:    a.Action,
		TableName: a.TableName,
		RecordID:  a.RecordID,
		OldValues: a.OldValues,
		NewValues: a.NewValues,
		Timestamp: a.Timestamp,
	}
}
