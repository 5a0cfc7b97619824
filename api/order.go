package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/go-commerce/core"
	"github.com/sksmith/go-commerce/core/order"
)

type OrderService interface {
	Checkouter
	Create(ctx context.Context, req order.OrderRequest) (order.Order, error)
	Confirm(ctx context.Context, id uint64) (order.Order, error)
	Cancel(ctx context.Context, id uint64) (order.Order, error)
	UpdateStatus(ctx context.Context, id uint64, status order.Status) (order.Order, error)
	Get(ctx context.Context, id uint64) (order.Order, error)
	List(ctx context.Context, options order.ListOptions, limit, offset int) ([]order.Order, error)
}

type OrderApi struct {
	service OrderService
}

func NewOrderApi(service OrderService) *OrderApi {
	return &OrderApi{service: service}
}

const CtxKeyOrder CtxKey = "order"

func (a *OrderApi) ConfigureRouter(r chi.Router) {
	r.With(Paginate).Get("/", a.List)
	r.Post("/", a.Create)

	r.Route("/{orderID}", func(r chi.Router) {
		r.Use(a.OrderCtx)
		r.Get("/", a.Get)
		r.Put("/confirm", a.Confirm)
		r.Put("/cancel", a.Cancel)
		r.With(AdminOnly).Put("/status", a.UpdateStatus)
	})
}

// List returns every order to an admin and only their own orders to anyone else.
func (a *OrderApi) List(w http.ResponseWriter, r *http.Request) {
	usr, _ := CurrentUser(r)
	limit, offset := page(r)

	status, err := order.ParseStatus(r.URL.Query().Get("status"))
	if err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	options := order.ListOptions{Status: status}
	if !usr.IsAdmin {
		options.Username = usr.Username
	} else {
		options.Username = r.URL.Query().Get("username")
	}

	orders, err := a.service.List(r.Context(), options, limit, offset)
	if err != nil {
		log.Err(err).Send()
		Render(w, r, ErrInternalServer)
		return
	}

	RenderList(w, r, NewOrderListResponse(orders))
}

func (a *OrderApi) Create(w http.ResponseWriter, r *http.Request) {
	usr, _ := CurrentUser(r)

	data := &CreateOrderRequest{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	if data.Username == "" || !usr.IsAdmin {
		data.Username = usr.Username
	}

	o, err := a.service.Create(r.Context(), *data.OrderRequest)
	if err != nil {
		Render(w, r, ErrFromDomain(err))
		return
	}

	render.Status(r, http.StatusCreated)
	Render(w, r, NewOrderResponse(o))
}

func (a *OrderApi) OrderCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := urlParamID(r, "orderID")
		if err != nil {
			Render(w, r, ErrInvalidRequest(err))
			return
		}

		o, err := a.service.Get(r.Context(), id)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				Render(w, r, ErrNotFound)
			} else {
				log.Error().Err(err).Uint64("orderId", id).Msg("error acquiring order")
				Render(w, r, ErrInternalServer)
			}
			return
		}

		if usr, _ := CurrentUser(r); !usr.CanAccess(o.Username) {
			Render(w, r, ErrForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), CtxKeyOrder, o)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *OrderApi) Get(w http.ResponseWriter, r *http.Request) {
	o := r.Context().Value(CtxKeyOrder).(order.Order)
	Render(w, r, NewOrderResponse(o))
}

func (a *OrderApi) Confirm(w http.ResponseWriter, r *http.Request) {
	o := r.Context().Value(CtxKeyOrder).(order.Order)

	confirmed, err := a.service.Confirm(r.Context(), o.ID)
	if err != nil {
		Render(w, r, ErrFromDomain(err))
		return
	}

	Render(w, r, NewOrderResponse(confirmed))
}

func (a *OrderApi) Cancel(w http.ResponseWriter, r *http.Request) {
	o := r.Context().Value(CtxKeyOrder).(order.Order)

	cancelled, err := a.service.Cancel(r.Context(), o.ID)
	if err != nil {
		Render(w, r, ErrFromDomain(err))
		return
	}

	Render(w, r, NewOrderResponse(cancelled))
}

func (a *OrderApi) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	o := r.Context().Value(CtxKeyOrder).(order.Order)

	data := &UpdateStatusRequest{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	updated, err := a.service.UpdateStatus(r.Context(), o.ID, data.status)
	if err != nil {
		Render(w, r, ErrFromDomain(err))
		return
	}

	Render(w, r, NewOrderResponse(updated))
}
