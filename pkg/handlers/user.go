package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"scanteate/pkg/auth"
	"scanteate/pkg/user"
)

type RegisterForm struct {
	Name       string    `json:"name" validate:"required,max=255"`
	Email      string    `json:"email" validate:"required,email,max=255"`
	Password   string    `json:"password" validate:"required,max=255"`
	PsicoEmail *string   `json:"psicoEmail" validate:"omitempty,email,max=255"`
	AutoReport *bool     `json:"autoReport"`
	Type       user.Role `json:"type" validate:"omitempty,oneof=User Admin"`
}

type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateForm struct {
	Name       *string    `json:"name" validate:"omitempty,min=1,max=255"`
	Email      *string    `json:"email" validate:"omitempty,email,max=255"`
	Password   *string    `json:"password" validate:"omitempty,min=1,max=255"`
	PsicoEmail *string    `json:"psicoEmail" validate:"omitempty,email,max=255"`
	AutoReport *bool      `json:"autoReport"`
	Type       *user.Role `json:"type" validate:"omitempty,oneof=User Admin"`
}

type UserHandler struct {
	Auth   auth.ServiceInterface
	Users  user.ServiceInterface
	Logger *zap.Logger
	// Token extracts the presented token for routes without auth middleware.
	Token func(r *http.Request) string
}

func NewUserHandler(authService auth.ServiceInterface, users user.ServiceInterface, token func(*http.Request) string, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		Auth:   authService,
		Users:  users,
		Logger: logger,
		Token:  token,
	}
}

type grantResponse struct {
	User  *user.User `json:"user"`
	Token string     `json:"token"`
}

func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterForm
	if ok := DecodeJSONBody(w, r, &req); !ok {
		return
	}

	grant, err := h.Auth.Register(r.Context(), auth.Registration{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		PsicoEmail: req.PsicoEmail,
		AutoReport: req.AutoReport,
		Role:       req.Type,
	})
	switch {
	case errors.Is(err, user.ErrEmailTaken):
		writeMessage(w, http.StatusConflict, "Email ya registrado")
		return
	case errors.Is(err, user.ErrBadRole):
		writeError(w, http.StatusBadRequest, typeError, err.Error())
		return
	case err != nil:
		internalError(w, h.Logger, "register", err)
		return
	}

	if ok := writeJSON(w, h.Logger, http.StatusCreated, grantResponse{User: grant.User, Token: grant.Token}); ok {
		h.Logger.Info("register", zap.Int64("user", grant.User.ID))
	}
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginForm
	if ok := DecodeJSONBody(w, r, &req); !ok {
		return
	}

	grant, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidEmail):
		writeMessage(w, http.StatusBadRequest, "Email incorrecto")
		return
	case errors.Is(err, auth.ErrInvalidPassword):
		writeMessage(w, http.StatusUnauthorized, "Password incorrecta")
		return
	case err != nil:
		internalError(w, h.Logger, "login", err)
		return
	}

	if ok := writeJSON(w, h.Logger, http.StatusOK, grantResponse{User: grant.User, Token: grant.Token}); ok {
		h.Logger.Info("login", zap.Int64("user", grant.User.ID))
	}
}

// Logout drops the presented session. Missing or unknown tokens still succeed.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := h.Token(r); token != "" {
		if err := h.Auth.Logout(r.Context(), token); err != nil {
			internalError(w, h.Logger, "logout", err)
			return
		}
	}
	writeJSON(w, h.Logger, http.StatusOK, map[string]string{typeMessage: msgSuccess})
}

// SignOut invalidates every session of the user in the path.
func (h *UserHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Auth.SignOutEverywhere(r.Context(), id); err != nil {
		internalError(w, h.Logger, "sign out user", err)
		return
	}
	writeJSON(w, h.Logger, http.StatusOK, map[string]string{typeMessage: msgSuccess})
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.List(r.Context())
	if err != nil {
		internalError(w, h.Logger, "list users", err)
		return
	}
	writeJSON(w, h.Logger, http.StatusOK, users)
}

func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	c, ok := getClaims(w, r)
	if !ok {
		return
	}
	if c.User == nil {
		writeMessage(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}
	writeJSON(w, h.Logger, http.StatusOK, c.User)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, ok := getClaims(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if !c.CanAccess(id) {
		writeMessage(w, http.StatusForbidden, msgForbidden)
		return
	}

	u, err := h.Users.Get(r.Context(), id)
	if errors.Is(err, user.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, msgNotFound)
		return
	}
	if err != nil {
		internalError(w, h.Logger, "get user", err)
		return
	}
	writeJSON(w, h.Logger, http.StatusOK, u)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	c, ok := getClaims(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if !c.CanAccess(id) {
		writeMessage(w, http.StatusForbidden, msgForbidden)
		return
	}

	var req UpdateForm
	if ok := DecodeJSONBody(w, r, &req); !ok {
		return
	}
	if req.Type != nil && !c.IsAdmin() {
		writeMessage(w, http.StatusForbidden, msgForbidden)
		return
	}

	err := h.Users.Update(r.Context(), id, user.Update{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		PsicoEmail: req.PsicoEmail,
		AutoReport: req.AutoReport,
		Role:       req.Type,
	})
	switch {
	case errors.Is(err, user.ErrNotFound):
		writeMessage(w, http.StatusNotFound, msgNotFound)
		return
	case errors.Is(err, user.ErrEmailTaken):
		writeMessage(w, http.StatusConflict, "Email ya registrado")
		return
	case errors.Is(err, user.ErrBadRole):
		writeError(w, http.StatusBadRequest, typeError, err.Error())
		return
	case err != nil:
		internalError(w, h.Logger, "update user", err)
		return
	}

	writeJSON(w, h.Logger, http.StatusOK, map[string]string{typeMessage: msgSuccess})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	c, ok := getClaims(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if !c.CanAccess(id) {
		writeMessage(w, http.StatusForbidden, msgForbidden)
		return
	}

	err := h.Users.Delete(r.Context(), id)
	if errors.Is(err, user.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, msgNotFound)
		return
	}
	if err != nil {
		internalError(w, h.Logger, "delete user", err)
		return
	}
	h.Logger.Info("user deleted", zap.Int64("user", id), zap.Int64("by", c.Principal.ID))
	writeJSON(w, h.Logger, http.StatusOK, map[string]string{typeMessage: "User deleted"})
}
