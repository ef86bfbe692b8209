package handlers

import (
	"net/http"

	"github.com/gorilla/sessions"

	"github.com/ghuser/salesledger/pkg/auth"
	"github.com/ghuser/salesledger/pkg/errhttp"
	"github.com/ghuser/salesledger/pkg/httpx"
	"github.com/ghuser/salesledger/pkg/logger"
	pkgvalidator "github.com/ghuser/salesledger/pkg/validator"
)

// LoginRequest is the request body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=255" example:"admin"`
	Password string `json:"password" validate:"required,max=72"  example:"secret"`
} // @name LoginRequest

// LoginResponse is returned after a successful login. The session cookie is
// set on the response.
type LoginResponse struct {
	Username string `json:"username" example:"admin"`
} // @name LoginResponse

// LoginHandler handles POST /auth/login requests.
type LoginHandler struct {
	creds auth.CredentialStore
	store sessions.Store
	log   logger.Logger
}

// NewLoginHandler returns a LoginHandler.
func NewLoginHandler(creds auth.CredentialStore, store sessions.Store, log logger.Logger) *LoginHandler {
	return &LoginHandler{creds: creds, store: store, log: log}
}

// Execute checks the credentials and starts a session.
//
//	@Summary	Log in
//	@Tags		auth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		LoginRequest	true	"Credentials"
//	@Success	200		{object}	LoginResponse
//	@Failure	401		{object}	ErrorResponse
//	@Failure	422		{object}	ValidationErrorResponse
//	@Router		/auth/login [post]
func (h *LoginHandler) Execute(w http.ResponseWriter, r *http.Request) {
	req, ok := pkgvalidator.ValidateRequest[LoginRequest](w, r)
	if !ok {
		return
	}

	if err := h.creds.Verify(r.Context(), req.Username, req.Password); err != nil {
		h.log.WarnContext(r.Context(), "login rejected", "username", req.Username)
		errhttp.WriteError(w, r, err)
		return
	}
	if err := auth.StartSession(w, r, h.store, req.Username); err != nil {
		errhttp.WriteError(w, r, err)
		return
	}

	h.log.InfoContext(r.Context(), "login", "username", req.Username)
	httpx.JSON(w, http.StatusOK, LoginResponse{Username: req.Username})
}

// LogoutHandler handles POST /auth/logout requests.
type LogoutHandler struct {
	store sessions.Store
}

// NewLogoutHandler returns a LogoutHandler.
func NewLogoutHandler(store sessions.Store) *LogoutHandler {
	return &LogoutHandler{store: store}
}

// Execute ends the session and expires the cookie.
//
//	@Summary	Log out
//	@Tags		auth
//	@Success	204
//	@Router		/auth/logout [post]
func (h *LogoutHandler) Execute(w http.ResponseWriter, r *http.Request) {
	if err := auth.EndSession(w, r, h.store); err != nil {
		errhttp.WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
