// Auth HTTP handlers. Successful sign-up and sign-in establish the cookie
// session; sign-out clears it.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-devflow-backend/internal/auth"
	"github.com/tbourn/go-devflow-backend/internal/services"
)

// SignOutResponse is the payload of POST /auth/signout.
type SignOutResponse struct {
	SignedOut bool `json:"signedOut" example:"true"`
}

// signIn writes the cookie for s and answers with it.
func (h *Handlers) signIn(c *gin.Context, status int, s *auth.Session) {
	if h.sessions != nil {
		if err := h.sessions.Establish(c.Request.Context(), c.Writer, *s); err != nil {
			fail(c, err)
			return
		}
	}
	ok(c, status, s)
}

// SignUp godoc
// @ID          signUp
// @Summary     Sign up with credentials
// @Description Creates the user and a credentials account in one transaction and signs in.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      services.SignUpParams  true  "Registration"
// @Success     201   {object}  envelope.Response[auth.Session]
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     500   {object}  handlers.ErrorResponse  "User already exists"
// @Router      /auth/signup [post]
func (h *Handlers) SignUp(c *gin.Context) {
	var p services.SignUpParams
	if !bindJSON(c, &p) {
		return
	}
	s, err := h.auth.SignUp(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	h.signIn(c, http.StatusCreated, s)
}

// SignIn godoc
// @ID          signIn
// @Summary     Sign in with credentials
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      services.SignInParams  true  "Credentials"
// @Success     200   {object}  envelope.Response[auth.Session]
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     401   {object}  handlers.ErrorResponse  "Password does not match"
// @Failure     404   {object}  handlers.ErrorResponse  "User not found"
// @Router      /auth/signin [post]
func (h *Handlers) SignIn(c *gin.Context) {
	var p services.SignInParams
	if !bindJSON(c, &p) {
		return
	}
	s, err := h.auth.SignIn(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	h.signIn(c, http.StatusOK, s)
}

// SignInWithOAuth godoc
// @ID          signInWithOAuth
// @Summary     Sign in (or up) with an OAuth identity
// @Description The front end completes the provider flow and posts the identity.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      services.OAuthParams  true  "Provider identity"
// @Success     200   {object}  envelope.Response[auth.Session]
// @Failure     400   {object}  handlers.ErrorResponse
// @Router      /auth/signin-with-oauth [post]
func (h *Handlers) SignInWithOAuth(c *gin.Context) {
	var p services.OAuthParams
	if !bindJSON(c, &p) {
		return
	}
	s, err := h.auth.OAuth(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	h.signIn(c, http.StatusOK, s)
}

// SignOut godoc
// @ID          signOut
// @Summary     Sign out
// @Tags        Auth
// @Produce     json
// @Success     200  {object}  envelope.Response[handlers.SignOutResponse]
// @Router      /auth/signout [post]
func (h *Handlers) SignOut(c *gin.Context) {
	if h.sessions != nil {
		if err := h.sessions.Destroy(c.Request.Context(), c.Writer); err != nil {
			fail(c, err)
			return
		}
	}
	ok(c, http.StatusOK, SignOutResponse{SignedOut: true})
}

// CurrentSession godoc
// @ID          currentSession
// @Summary     Current session
// @Tags        Auth
// @Produce     json
// @Success     200  {object}  envelope.Response[auth.Session]
// @Failure     401  {object}  handlers.ErrorResponse  "Unauthorized"
// @Router      /auth/session [get]
func (h *Handlers) CurrentSession(c *gin.Context) {
	s, err := h.auth.Current(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, s)
}
