package httpx

import (
	"context"
	"net/http"

	"github.com/ariefcatur/go-storefront/internal/users"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type UserService interface {
	Register(ctx context.Context, in users.Registration) (int64, error)
	Login(ctx context.Context, username, password string) (users.Account, error)
	AdminLogin(ctx context.Context, username, password string) (users.Account, error)
	List(ctx context.Context) ([]users.Profile, error)
	Get(ctx context.Context, username string) (users.Profile, error)
	Patch(ctx context.Context, username string, p users.UserPatch) error
}

type UsersHandler struct {
	Svc UserService
	Log zerolog.Logger
}

type LoginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResp struct {
	Message string        `json:"message"`
	User    users.Account `json:"user"`
}

func (h *UsersHandler) Register(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/register", h.register)
	r.Post("/login", h.login(false))
	r.Post("/admin/login", h.login(true))
	r.Get("/username/{username}", h.get)
	r.Patch("/{username}", h.patch)
}

func (h *UsersHandler) register(w http.ResponseWriter, r *http.Request) {
	var in users.Registration
	if err := decode(r, &in); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	id, err := h.Svc.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "User registered successfully", "userId": id})
}

func (h *UsersHandler) login(admin bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginReq
		if err := decode(r, &req); err != nil {
			writeError(w, r, h.Log, err)
			return
		}
		login := h.Svc.Login
		if admin {
			login = h.Svc.AdminLogin
		}
		acc, err := login(r.Context(), req.Username, req.Password)
		if err != nil {
			writeError(w, r, h.Log, err)
			return
		}
		writeJSON(w, http.StatusOK, LoginResp{Message: "Login successful", User: acc})
	}
}

func (h *UsersHandler) list(w http.ResponseWriter, r *http.Request) {
	us, err := h.Svc.List(r.Context())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": us})
}

func (h *UsersHandler) get(w http.ResponseWriter, r *http.Request) {
	u, err := h.Svc.Get(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

func (h *UsersHandler) patch(w http.ResponseWriter, r *http.Request) {
	var p users.UserPatch
	if err := decode(r, &p); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if err := h.Svc.Patch(r.Context(), chi.URLParam(r, "username"), p); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, message{Message: "User updated successfully"})
}
