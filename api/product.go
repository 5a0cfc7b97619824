package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/sksmith/go-commerce/core"
	"github.com/sksmith/go-commerce/core/inventory"
)

type InventoryService interface {
	CreateProduct(ctx context.Context, product inventory.Product, settings inventory.StockSettings) (inventory.Product, error)
	Restock(ctx context.Context, productID uint64, rr inventory.RestockRequest) error

	GetProduct(ctx context.Context, id uint64) (inventory.Product, error)
	GetAllProducts(ctx context.Context, filter inventory.ProductFilter, limit, offset int) ([]inventory.Product, error)
	GetInventory(ctx context.Context, productID uint64) (inventory.InventoryRecord, error)
	GetAllInventory(ctx context.Context, limit, offset int) ([]inventory.InventoryRecord, error)
	GetMovements(ctx context.Context, productID uint64, limit, offset int) ([]inventory.Movement, error)
}

type ProductApi struct {
	service InventoryService
}

func NewProductApi(service InventoryService) *ProductApi {
	return &ProductApi{service: service}
}

const CtxKeyProduct CtxKey = "product"

func (a *ProductApi) ConfigureRouter(r chi.Router) {
	r.With(Paginate).Get("/", a.List)
	r.With(AdminOnly).Put("/", a.Create)
	r.With(Paginate).Get("/inventory", a.ListInventory)

	r.Route("/{productID}", func(r chi.Router) {
		r.Use(a.ProductCtx)
		r.Get("/", a.Get)
		r.Get("/inventory", a.GetInventory)
		r.With(AdminOnly).Put("/restock", a.Restock)
		r.With(Paginate).Get("/movements", a.GetMovements)
	})
}

func (a *ProductApi) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := page(r)

	filter, err := productFilter(r)
	if err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	products, err := a.service.GetAllProducts(r.Context(), filter, limit, offset)
	if err != nil {
		log.Err(err).Send()
		Render(w, r, ErrInternalServer)
		return
	}

	RenderList(w, r, NewProductListResponse(products))
}

func (a *ProductApi) Create(w http.ResponseWriter, r *http.Request) {
	data := &CreateProductRequest{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	product, err := a.service.CreateProduct(r.Context(), *data.Product, data.Settings)
	if err != nil {
		Render(w, r, ErrFromDomain(err))
		return
	}

	render.Status(r, http.StatusCreated)
	Render(w, r, NewProductResponse(product))
}

func (a *ProductApi) ListInventory(w http.ResponseWriter, r *http.Request) {
	limit, offset := page(r)

	records, err := a.service.GetAllInventory(r.Context(), limit, offset)
	if err != nil {
		log.Err(err).Send()
		Render(w, r, ErrInternalServer)
		return
	}

	RenderList(w, r, NewInventoryListResponse(records))
}

func (a *ProductApi) ProductCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := urlParamID(r, "productID")
		if err != nil {
			Render(w, r, ErrInvalidRequest(err))
			return
		}

		product, err := a.service.GetProduct(r.Context(), id)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				Render(w, r, ErrNotFound)
			} else {
				log.Error().Err(err).Uint64("productId", id).Msg("error acquiring product")
				Render(w, r, ErrInternalServer)
			}
			return
		}

		ctx := context.WithValue(r.Context(), CtxKeyProduct, product)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *ProductApi) Get(w http.ResponseWriter, r *http.Request) {
	product := r.Context().Value(CtxKeyProduct).(inventory.Product)
	Render(w, r, NewProductResponse(product))
}

func (a *ProductApi) GetInventory(w http.ResponseWriter, r *http.Request) {
	product := r.Context().Value(CtxKeyProduct).(inventory.Product)

	record, err := a.service.GetInventory(r.Context(), product.ID)
	if err != nil {
		Render(w, r, ErrFromDomain(err))
		return
	}

	Render(w, r, NewInventoryResponse(record))
}

func (a *ProductApi) Restock(w http.ResponseWriter, r *http.Request) {
	product := r.Context().Value(CtxKeyProduct).(inventory.Product)

	data := &RestockRequest{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	if err := a.service.Restock(r.Context(), product.ID, *data.RestockRequest); err != nil {
		Render(w, r, ErrFromDomain(err))
		return
	}

	record, err := a.service.GetInventory(r.Context(), product.ID)
	if err != nil {
		Render(w, r, ErrFromDomain(err))
		return
	}

	render.Status(r, http.StatusCreated)
	Render(w, r, NewInventoryResponse(record))
}

func (a *ProductApi) GetMovements(w http.ResponseWriter, r *http.Request) {
	product := r.Context().Value(CtxKeyProduct).(inventory.Product)
	limit, offset := page(r)

	movements, err := a.service.GetMovements(r.Context(), product.ID, limit, offset)
	if err != nil {
		Render(w, r, ErrFromDomain(err))
		return
	}

	RenderList(w, r, NewMovementListResponse(movements))
}

func urlParamID(r *http.Request, key string) (uint64, error) {
	raw := chi.URLParam(r, key)
	if raw == "" {
		return 0, errors.Errorf("%s is required", key)
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, errors.Errorf("%s must be a positive integer", key)
	}
	return id, nil
}

// productFilter reads the catalog query parameters: q, category, minPrice,
// maxPrice, inStock, sort and order.
func productFilter(r *http.Request) (inventory.ProductFilter, error) {
	q := r.URL.Query()
	filter := inventory.ProductFilter{
		Search:   q.Get("q"),
		Category: q.Get("category"),
		Sort:     inventory.ProductSort(q.Get("sort")),
	}
	if filter.Sort == "id" {
		filter.Sort = inventory.SortByID
	}

	var err error
	if filter.MinPrice, err = priceParam(q.Get("minPrice")); err != nil {
		return inventory.ProductFilter{}, errors.WithMessage(err, "invalid minPrice")
	}
	if filter.MaxPrice, err = priceParam(q.Get("maxPrice")); err != nil {
		return inventory.ProductFilter{}, errors.WithMessage(err, "invalid maxPrice")
	}
	if v := q.Get("inStock"); v != "" {
		if filter.InStockOnly, err = strconv.ParseBool(v); err != nil {
			return inventory.ProductFilter{}, errors.WithMessage(err, "invalid inStock")
		}
	}
	switch q.Get("order") {
	case "", "asc":
	case "desc":
		filter.Descending = true
	default:
		return inventory.ProductFilter{}, errors.Errorf("unknown order %q", q.Get("order"))
	}

	return filter, filter.Validate()
}

func priceParam(v string) (decimal.NullDecimal, error) {
	if v == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
