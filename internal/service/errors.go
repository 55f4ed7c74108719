package service

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/homekitchen/internal/kitchen"
)

// toConnectError maps kitchen errors to Connect codes.
func toConnectError(err error) *connect.Error {
	switch {
	case kitchen.IsValidation(err):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, kitchen.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, kitchen.ErrAuthentication):
		return connect.NewError(connect.CodeUnauthenticated, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
