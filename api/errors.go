package api

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/go-commerce/core"
	"github.com/sksmith/go-commerce/core/cart"
	"github.com/sksmith/go-commerce/core/inventory"
	"github.com/sksmith/go-commerce/core/order"
	"github.com/sksmith/go-commerce/core/user"
)

// ErrResponse renderer type for handling all sorts of errors.
type ErrResponse struct {
	Err            error `json:"-"` // low-level runtime error
	HTTPStatusCode int   `json:"-"` // http response status code

	StatusText string                `json:"status"`          // user-level status message
	AppCode    int64                 `json:"code,omitempty"`  // application-specific error code
	ErrorText  string                `json:"error,omitempty"` // application-level error message, for debugging
	Shortfalls []inventory.Shortfall `json:"shortfalls,omitempty"`
}

func (e *ErrResponse) Render(_ http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func ErrInvalidRequest(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusBadRequest,
		StatusText:     "Invalid request.",
		ErrorText:      err.Error(),
	}
}

func ErrConflict(err error) render.Renderer {
	return &ErrResponse{
		Err:            err,
		HTTPStatusCode: http.StatusConflict,
		StatusText:     "Conflict.",
		ErrorText:      err.Error(),
	}
}

var ErrNotFound = &ErrResponse{HTTPStatusCode: http.StatusNotFound, StatusText: "Resource not found."}
var ErrForbidden = &ErrResponse{HTTPStatusCode: http.StatusForbidden, StatusText: "Forbidden."}
var ErrInternalServer = &ErrResponse{
	Err:            nil,
	HTTPStatusCode: http.StatusInternalServerError,
	StatusText:     "Internal server error.",
	ErrorText:      "An internal server error has occurred.",
}

// ErrFromDomain maps an error returned by a core service to its response.
func ErrFromDomain(err error) render.Renderer {
	if se, ok := inventory.AsStockError(err); ok {
		return stockErrResponse(se)
	}

	switch {
	case errors.Is(err, core.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, order.ErrAlreadyCancelled),
		errors.Is(err, order.ErrNotCancellable),
		errors.Is(err, order.ErrInvalidTransition):
		return ErrConflict(err)
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrUsernameRequired),
		errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrNoItems),
		errors.Is(err, order.ErrUsernameRequired),
		errors.Is(err, user.ErrInvalidUsername),
		errors.Is(err, user.ErrInvalidEmail),
		errors.Is(err, user.ErrInvalidPassword):
		return ErrInvalidRequest(errors.Cause(err))
	}

	log.Error().Err(err).Send()
	return ErrInternalServer
}

func stockErrResponse(se *inventory.StockError) render.Renderer {
	resp := &ErrResponse{Err: se, ErrorText: se.Error(), Shortfalls: se.Shortfalls}

	switch se.Kind {
	case inventory.ErrInvalidQuantity:
		resp.HTTPStatusCode = http.StatusBadRequest
		resp.StatusText = "Invalid request."
	case inventory.ErrProductNotFound:
		resp.HTTPStatusCode = http.StatusNotFound
		resp.StatusText = "Resource not found."
	case inventory.ErrInsufficientStock:
		resp.HTTPStatusCode = http.StatusConflict
		resp.StatusText = "Conflict."
	default:
		log.Error().Err(se).Uints64("productIds", se.ProductIDs()).Msg("stock accounting error")
		return ErrInternalServer
	}
	return resp
}
