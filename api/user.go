package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/rs/zerolog/log"
	"github.com/sksmith/go-commerce/core/user"
)

type UserService interface {
	Create(ctx context.Context, user user.CreateUserRequest) (user.User, error)
	Get(ctx context.Context, username string) (user.User, error)
	List(ctx context.Context, limit, offset int) ([]user.User, error)
	Delete(ctx context.Context, username string) error
	Login(ctx context.Context, username, password string) (user.User, error)
}

type UserApi struct {
	service UserService
}

func NewUserApi(service UserService) *UserApi {
	return &UserApi{service: service}
}

func (a *UserApi) ConfigureRouter(r chi.Router) {
	r.With(AdminOnly, Paginate).Get("/", a.List)
	r.With(AdminOnly).Post("/", a.Create)
	r.Get("/{username}", a.Get)
	r.With(AdminOnly).Delete("/{username}", a.Delete)
}

func (a *UserApi) Create(w http.ResponseWriter, r *http.Request) {
	data := &CreateUserRequestDto{}
	if err := render.Bind(r, data); err != nil {
		Render(w, r, ErrInvalidRequest(err))
		return
	}

	u, err := a.service.Create(r.Context(), *data.CreateUserRequest)
	if err != nil {
		Render(w, r, ErrFromDomain(err))
		return
	}

	render.Status(r, http.StatusCreated)
	Render(w, r, &UserResponse{User: u})
}

func (a *UserApi) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := page(r)

	users, err := a.service.List(r.Context(), limit, offset)
	if err != nil {
		log.Err(err).Send()
		Render(w, r, ErrInternalServer)
		return
	}

	RenderList(w, r, NewUserListResponse(users))
}

func (a *UserApi) Get(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	if usr, _ := CurrentUser(r); !usr.CanAccess(username) {
		Render(w, r, ErrForbidden)
		return
	}

	u, err := a.service.Get(r.Context(), username)
	if err != nil {
		Render(w, r, ErrFromDomain(err))
		return
	}

	Render(w, r, &UserResponse{User: u})
}

func (a *UserApi) Delete(w http.ResponseWriter, r *http.Request) {
	if err := a.service.Delete(r.Context(), chi.URLParam(r, "username")); err != nil {
		Render(w, r, ErrFromDomain(err))
		return
	}

	render.NoContent(w, r)
}
