package service

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const (
	// AuthServiceName is the fully-qualified name of the AuthService service.
	AuthServiceName = "kitchen.v1.AuthService"
	// KitchenServiceName is the fully-qualified name of the KitchenService service.
	KitchenServiceName = "kitchen.v1.KitchenService"
)

const (
	AuthServiceLoginProcedure             = "/" + AuthServiceName + "/Login"
	KitchenServiceActiveDishesProcedure   = "/" + KitchenServiceName + "/ActiveDishes"
	KitchenServiceCurrentOrderProcedure   = "/" + KitchenServiceName + "/CurrentOrder"
	KitchenServiceOrderHistoryProcedure   = "/" + KitchenServiceName + "/OrderHistory"
	KitchenServiceAuditTrailProcedure     = "/" + KitchenServiceName + "/AuditTrail"
	KitchenServiceLastPreferenceProcedure = "/" + KitchenServiceName + "/LastPreference"
)

// IsProcedurePath reports whether path belongs to one of the Connect services.
func IsProcedurePath(path string) bool {
	return strings.HasPrefix(path, "/"+AuthServiceName+"/") || strings.HasPrefix(path, "/"+KitchenServiceName+"/")
}

func withJSON(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
}

func route(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h, ok := handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// NewAuthServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewAuthServiceHandler(svc *AuthService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withJSON(opts)
	return "/" + AuthServiceName + "/", route(map[string]http.Handler{
		AuthServiceLoginProcedure: connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, opts...),
	})
}

// NewKitchenServiceHandler builds an HTTP handler from the service implementation.
// It returns the path on which to mount the handler and the handler itself.
func NewKitchenServiceHandler(svc *KitchenService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = withJSON(opts)
	return "/" + KitchenServiceName + "/", route(map[string]http.Handler{
		KitchenServiceActiveDishesProcedure:   connect.NewUnaryHandler(KitchenServiceActiveDishesProcedure, svc.ActiveDishes, opts...),
		KitchenServiceCurrentOrderProcedure:   connect.NewUnaryHandler(KitchenServiceCurrentOrderProcedure, svc.CurrentOrder, opts...),
		KitchenServiceOrderHistoryProcedure:   connect.NewUnaryHandler(KitchenServiceOrderHistoryProcedure, svc.OrderHistory, opts...),
		KitchenServiceAuditTrailProcedure:     connect.NewUnaryHandler(KitchenServiceAuditTrailProcedure, svc.AuditTrail, opts...),
		KitchenServiceLastPreferenceProcedure: connect.NewUnaryHandler(KitchenServiceLastPreferenceProcedure, svc.LastPreference, opts...),
	})
}

// AuthServiceClient is a client for the AuthService service.
type AuthServiceClient struct {
	login *connect.Client[LoginRequest, LoginResponse]
}

// NewAuthServiceClient constructs a client for the AuthService service.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &AuthServiceClient{
		login: connect.NewClient[LoginRequest, LoginResponse](httpClient, baseURL+AuthServiceLoginProcedure, opts...),
	}
}

// Login calls kitchen.v1.AuthService.Login.
func (c *AuthServiceClient) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}

// KitchenServiceClient is a client for the KitchenService service.
type KitchenServiceClient struct {
	activeDishes   *connect.Client[Empty, ActiveDishesResponse]
	currentOrder   *connect.Client[Empty, CurrentOrderResponse]
	orderHistory   *connect.Client[Empty, OrderHistoryResponse]
	auditTrail     *connect.Client[Empty, AuditTrailResponse]
	lastPreference *connect.Client[LastPreferenceRequest, LastPreferenceResponse]
}

// NewKitchenServiceClient constructs a client for the KitchenService service.
func NewKitchenServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *KitchenServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &KitchenServiceClient{
		activeDishes:   connect.NewClient[Empty, ActiveDishesResponse](httpClient, baseURL+KitchenServiceActiveDishesProcedure, opts...),
		currentOrder:   connect.NewClient[Empty, CurrentOrderResponse](httpClient, baseURL+KitchenServiceCurrentOrderProcedure, opts...),
		orderHistory:   connect.NewClient[Empty, OrderHistoryResponse](httpClient, baseURL+KitchenServiceOrderHistoryProcedure, opts...),
		auditTrail:     connect.NewClient[Empty, AuditTrailResponse](httpClient, baseURL+KitchenServiceAuditTrailProcedure, opts...),
		lastPreference: connect.NewClient[LastPreferenceRequest, LastPreferenceResponse](httpClient, baseURL+KitchenServiceLastPreferenceProcedure, opts...),
	}
}

// ActiveDishes calls kitchen.v1.KitchenService.ActiveDishes.
func (c *KitchenServiceClient) ActiveDishes(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[ActiveDishesResponse], error) {
	return c.activeDishes.CallUnary(ctx, req)
}

// CurrentOrder calls kitchen.v1.KitchenService.CurrentOrder.
func (c *KitchenServiceClient) CurrentOrder(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[CurrentOrderResponse], error) {
	return c.currentOrder.CallUnary(ctx, req)
}

// OrderHistory calls kitchen.v1.KitchenService.OrderHistory.
func (c *KitchenServiceClient) OrderHistory(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[OrderHistoryResponse], error) {
	return c.orderHistory.CallUnary(ctx, req)
}

// AuditTrail calls kitchen.v1.KitchenService.AuditTrail.
func (c *KitchenServiceClient) AuditTrail(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[AuditTrailResponse], error) {
	return c.auditTrail.CallUnary(ctx, req)
}

// LastPreference calls kitchen.v1.KitchenService.LastPreference.
func (c *KitchenServiceClient) LastPreference(ctx context.Context, req *connect.Request[LastPreferenceRequest]) (*connect.Response[LastPreferenceResponse], error) {
	return c.lastPreference.CallUnary(ctx, req)
}
