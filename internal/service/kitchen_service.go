package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/homekitchen/internal/auth"
	"github.com/mmynk/homekitchen/internal/kitchen"
	"github.com/mmynk/homekitchen/internal/middleware"
)

// KitchenService exposes the kitchen's read queries over Connect. All
// procedures require a session token.
type KitchenService struct {
	kitchen *kitchen.Service
	logger  *slog.Logger
}

// NewKitchenService creates a KitchenService backed by svc.
func NewKitchenService(svc *kitchen.Service, logger *slog.Logger) *KitchenService {
	return &KitchenService{kitchen: svc, logger: logger}
}

// ActiveDishes lists the dishes still on the menu.
func (s *KitchenService) ActiveDishes(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[ActiveDishesResponse], error) {
	dishes, err := s.kitchen.ActiveDishes(ctx)
	if err != nil {
		s.logger.Error("Failed to list dishes", "error", err)
		return nil, toConnectError(err)
	}

	resp := &ActiveDishesResponse{Dishes: make([]Dish, 0, len(dishes))}
	for _, d := range dishes {
		resp.Dishes = append(resp.Dishes, dishFromModel(d))
	}
	return connect.NewResponse(resp), nil
}

// CurrentOrder returns the open order and its lines, or no order.
func (s *KitchenService) CurrentOrder(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[CurrentOrderResponse], error) {
	order, err := s.kitchen.CurrentOrder(ctx)
	if err != nil {
		s.logger.Error("Failed to resolve current order", "error", err)
		return nil, toConnectError(err)
	}

	resp := &CurrentOrderResponse{Lines: []OrderLine{}}
	if order == nil {
		return connect.NewResponse(resp), nil
	}

	lines, err := s.kitchen.OrderLines(ctx, order.ID)
	if err != nil {
		s.logger.Error("Failed to list order lines", "order_id", order.ID, "error", err)
		return nil, toConnectError(err)
	}
	o := orderFromModel(order)
	resp.Order = &o
	for _, l := range lines {
		resp.Lines = append(resp.Lines, lineFromModel(l))
	}
	return connect.NewResponse(resp), nil
}

// OrderHistory lists every order, newest first.
func (s *KitchenService) OrderHistory(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[OrderHistoryResponse], error) {
	orders, err := s.kitchen.OrderHistory(ctx)
	if err != nil {
		s.logger.Error("Failed to list orders", "error", err)
		return nil, toConnectError(err)
	}

	resp := &OrderHistoryResponse{Orders: make([]Order, 0, len(orders))}
	for _, o := range orders {
		resp.Orders = append(resp.Orders, orderFromModel(o))
	}
	return connect.NewResponse(resp), nil
}

// AuditTrail lists every audit entry, newest first.
func (s *KitchenService) AuditTrail(ctx context.Context, _ *connect.Request[Empty]) (*connect.Response[AuditTrailResponse], error) {
	logs, err := s.kitchen.AuditTrail(ctx)
	if err != nil {
		s.logger.Error("Failed to list audit trail", "error", err)
		return nil, toConnectError(err)
	}

	resp := &AuditTrailResponse{Entries: make([]AuditEntry, 0, len(logs))}
	for _, l := range logs {
		resp.Entries = append(resp.Entries, auditFromModel(l))
	}
	return connect.NewResponse(resp), nil
}

// LastPreference returns the caller's newest customization of a dish.
func (s *KitchenService) LastPreference(ctx context.Context, req *connect.Request[LastPreferenceRequest]) (*connect.Response[LastPreferenceResponse], error) {
	userID := middleware.GetUserID(ctx)
	if userID == 0 {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	if req.Msg.DishID <= 0 {
		return nil, toConnectError(&kitchen.ValidationError{Field: "dish_id", Reason: "is required"})
	}

	pref, err := s.kitchen.LastPreference(ctx, userID, req.Msg.DishID)
	if err != nil {
		s.logger.Error("Failed to recall preference", "user_id", userID, "dish_id", req.Msg.DishID, "error", err)
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&LastPreferenceResponse{Preference: pref}), nil
}
