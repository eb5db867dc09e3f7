package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-devflow-backend/internal/apperr"
	"github.com/tbourn/go-devflow-backend/internal/envelope"
)

// Abort normalizes v into a failure envelope, counts it by kind and stops the
// chain. Handlers and middleware both report failures through it so every
// error body has the same shape.
func Abort(c *gin.Context, v any) {
	kind := apperr.KindGeneric
	if e := apperr.From(v); e != nil {
		kind = e.Kind
	}
	apiErrors.WithLabelValues(kind.String()).Inc()

	status, body := envelope.HandleError[struct{}](LoggerFrom(c), v, envelope.ModeAPI)
	c.AbortWithStatusJSON(status, body)
}
