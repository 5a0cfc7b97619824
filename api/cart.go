package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/go-commerce/core"
	"github.com/sksmith/go-commerce/core/cart"
	"github.com/sksmith/go-commerce/core/order"
)

type CartService interface {
	Create(ctx context.Context, username string) (cart.Cart, error)
	Get(ctx context.Context, cartID uint64) (cart.Cart, error)
	GetByUser(ctx context.Context, username string) (cart.Cart, error)
	AddItem(ctx context.Context, cartID, productID uint64, qty int64) (cart.Item, error)
	UpdateItemQuantity(ctx context.Context, cartID, productID uint64, qty int64) (cart.Item, error)
	RemoveItem(ctx context.Context, cartID, productID uint64) error
	Clear(ctx context.Context, cartID uint64) error
}

type Checkouter interface {
	Checkout(ctx context.Context, cartID uint64, req order.CheckoutRequest) (order.Order, error)
}

type CartApi struct {
	service  CartService
	checkout Checkouter
}

func NewCartApi(service CartService, checkout Checkouter) *CartApi {
	return &CartApi{service: service, checkout: checkout}
}

const CtxKeyCart CtxKey = "cart"

func (a *CartApi) ConfigureRouter(r chi.Router) {
	r.Post("/", a.Create)
	r.Get("/", a.GetMine)

	r.Route("/{cartID}", func(r chi.Router) {
		r.Use(a.CartCtx)
		r.Get("/", a.Get)
		r.Post("/items", a.AddItem)
		r.Delete("/items", a.Clear)
		r.Put("/items/{productID}", a.UpdateItem)
		r.Delete("/items/{productID}", a.RemoveItem)
		r.Post("/checkout", a.Checkout)
	})
}

func (a *CartApi) Create(w http.ResponseWriter, r *http.Request) {
	usr, _ := CurrentUser(r)

	c, err := a.service.Create(r.Context(), usr.Username)
	if err != nil {
		Render(w, r, ErrFromDomain(err))
		return
	}

	render.Status(r, http.StatusCreated)
	Render(w, r, NewCartResponse(c))
}

func (a *CartApi) GetMine(w http.ResponseWriter, r *http.Request) {
	usr, _ := CurrentUser(r)

	c, err := a.service.GetByUser(r.Context(), usr.Username)
	if err != nil {
		Render(w, r, ErrFromDomain(err))
		return
	}

	Render(w, r, NewCartResponse(c))
}

// CartCtx loads the cart named in the url. Only its owner or an admin gets through.
func (a *CartApi) CartCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := urlParamID(r, "cartID")
		if err != nil {
			Render(w, r, ErrInvalidRequest(err))
			return
		}

		c, err := a.service.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				Render(w, r, ErrNotFound)
			} else {
				log.Error().Err(err).Uint64("cartId", id).Msg("error acquiring cart")
				Render(w, r, ErrInternalServer)
			}
			return
		}

		if usr, _ := CurrentUser(r); !usr.CanAccess(c.Username) {
			Render(w, r, ErrForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), CtxKeyCart, c)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *CartApi) Get(w http.ResponseWriter, r *http.Request) {
	c := r.Context().Value(CtxKeyCart).(cart.Cart)
	Render(w, r, NewCartResponse(c))
}

func (a *CartApi) AddItem(w http.ResponseWriter, r *http.Request) {
	c := r.Context().Value(CtxKeyCart).(cart.Cart)

	data := &AddItemRequest{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	item, err := a.service.AddItem(r.Context(), c.ID, data.ProductID, data.Quantity)
	if err != nil {
		Render(w, r, ErrFromDomain(err))
		return
	}

	render.Status(r, http.StatusCreated)
	Render(w, r, &CartItemResponse{Item: item})
}

func (a *CartApi) UpdateItem(w http.ResponseWriter, r *http.Request) {
	c := r.Context().Value(CtxKeyCart).(cart.Cart)

	productID, err := urlParamID(r, "productID")
	if err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	data := &UpdateItemRequest{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	item, err := a.service.UpdateItemQuantity(r.Context(), c.ID, productID, *data.Quantity)
	if err != nil {
		Render(w, r, ErrFromDomain(err))
		return
	}

	if *data.Quantity == 0 {
		render.NoContent(w, r)
		return
	}
	Render(w, r, &CartItemResponse{Item: item})
}

func (a *CartApi) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c := r.Context().Value(CtxKeyCart).(cart.Cart)

	productID, err := urlParamID(r, "productID")
	if err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	if err := a.service.RemoveItem(r.Context(), c.ID, productID); err != nil {
		Render(w, r, ErrFromDomain(err))
		return
	}

	render.NoContent(w, r)
}

func (a *CartApi) Clear(w http.ResponseWriter, r *http.Request) {
	c := r.Context().Value(CtxKeyCart).(cart.Cart)

	if err := a.service.Clear(r.Context(), c.ID); err != nil {
		Render(w, r, ErrFromDomain(err))
		return
	}

	render.NoContent(w, r)
}

func (a *CartApi) Checkout(w http.ResponseWriter, r *http.Request) {
	c := r.Context().Value(CtxKeyCart).(cart.Cart)

	data := &CheckoutRequest{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	o, err := a.checkout.Checkout(r.Context(), c.ID, *data.CheckoutRequest)
	if err != nil {
		Render(w, r, ErrFromDomain(err))
		return
	}

	render.Status(r, http.StatusCreated)
	Render(w, r, NewOrderResponse(o))
}
