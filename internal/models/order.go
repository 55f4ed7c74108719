package models

import (
	"time"

	"google.golang.org/protobuf/types/known/structpb"
)

// OrderStatusOpen marks an order that still accepts items. The newest open
// order is the household's current order.
const OrderStatusOpen = "open"

// Order is a household cart. Only Status "open" has meaning to the
// application; any other value closes the order.
type Order struct {
	ID        int64
	Status    string
	CreatedBy int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ItemStatus is the preparation state of an order line.
type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemCompleted ItemStatus = "completed"
	ItemDelayed   ItemStatus = "delayed"
)

// Valid reports whether s is one of the known statuses.
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemPending, ItemCompleted, ItemDelayed:
		return true
	}
	return false
}

// OrderItem is one member's line on an order, with free-text customization.
type OrderItem struct {
	ID      int64
	OrderID int64
	DishID  int64

	// UserID is the member who placed this line.
	UserID int64

	Taste         string
	PreferredTime string
	Location      string
	Ingredients   string
	Remarks       string

	Status ItemStatus

	// CustomData holds customization not modeled as named columns. Values
	// are limited to what structpb can represent. Nil means none.
	CustomData *structpb.Struct

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Preference returns the customization fields of the item.
func (i *OrderItem) Preference() *Preference {
	return &Preference{
		Taste:         i.Taste,
		PreferredTime: i.PreferredTime,
		Location:      i.Location,
		Ingredients:   i.Ingredients,
		Remarks:       i.Remarks,
	}
}

// OrderLine is an order item joined with the names it references, for display.
// DishName and UserName are empty when the reference no longer resolves.
type OrderLine struct {
	OrderItem
	DishName string
	UserName string
}
