// Transport-level failure messages. Everything else (validation, not found,
// forbidden, …) comes from the services as typed errors and is passed
// through unchanged.

package handlers

import (
	"net/http"

	"github.com/tbourn/go-devflow-backend/internal/apperr"
)

const (
	MsgInvalidJSON      = "Invalid JSON body"
	MsgMethodNotAllowed = "Method not allowed"
)

// ErrRouteNotFound and ErrMethodNotAllowed back the router fallbacks.
var (
	ErrRouteNotFound    = apperr.NotFound("Route")
	ErrMethodNotAllowed = apperr.New(http.StatusMethodNotAllowed, MsgMethodNotAllowed)
)
