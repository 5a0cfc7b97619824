package api

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/sksmith/go-commerce/config"
)

type EnvApi struct {
	cfg *config.Config
}

func NewEnvApi(cfg *config.Config) *EnvApi {
	return &EnvApi{cfg: cfg}
}

func (a *EnvApi) ConfigureRouter(r chi.Router) {
	r.Get("/", a.Get)
}

func (a *EnvApi) Get(w http.ResponseWriter, r *http.Request) {
	Render(w, r, NewEnvResponse(a.cfg))
}

type EnvResponse struct {
	*config.Config
}

// NewEnvResponse wraps a copy of cfg with every sensitive value masked.
func NewEnvResponse(cfg *config.Config) *EnvResponse {
	return &EnvResponse{Config: cfg.Scrubbed()}
}

func (er *EnvResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}
