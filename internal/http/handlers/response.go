// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response utilities shared by every endpoint. All
// responses use the envelope:
//
//	HTTP/1.1 200 OK
//	{ "success": true, "data": { "id": "…", "title": "…" } }
//
//	HTTP/1.1 404 Not Found
//	{ "success": false, "error": { "message": "Question not found", "code": "not_found" } }
//
// Handlers never build error bodies themselves: fail() hands any error to the
// normalizer (via middleware.Abort), which picks the status, shapes the body
// and logs it with the request-scoped logger.
package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-devflow-backend/internal/apperr"
	"github.com/tbourn/go-devflow-backend/internal/envelope"
	"github.com/tbourn/go-devflow-backend/internal/http/middleware"
	"github.com/tbourn/go-devflow-backend/internal/utils"
)

// ErrorResponse documents the failure envelope for the API docs.
type ErrorResponse struct {
	Success bool               `json:"success" example:"false"`
	Error   envelope.ErrorBody `json:"error"`
}

// fail aborts the request with the normalized form of err.
func fail(c *gin.Context, err error) { middleware.Abort(c, err) }

// Fail is the exported variant of fail, used by the router for its
// fallbacks.
func Fail(c *gin.Context, err error) { fail(c, err) }

// ok writes data in a success envelope.
func ok[T any](c *gin.Context, status int, data T) {
	c.JSON(status, envelope.OK(data))
}

// bindJSON decodes the request body into dst. A malformed body (or one over
// the size limit) fails the request with 400 MsgInvalidJSON; an empty body
// leaves dst untouched so validation can report the missing fields.
func bindJSON(c *gin.Context, dst any) bool {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return true
	}
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	fail(c, apperr.New(http.StatusBadRequest, MsgInvalidJSON))
	return false
}

// pathID returns the :id path parameter. A blank id fails the request with
// NotFound for resource.
func pathID(c *gin.Context, resource string) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		fail(c, apperr.NotFound(resource))
		return "", false
	}
	return id, true
}

// pageQuery reads page and pageSize from the query string. page_size is
// accepted as an alias. Out of range values are left for validation to
// reject; missing ones stay zero and pick up the service defaults.
func pageQuery(c *gin.Context) (page, pageSize int) {
	page = utils.AtoiDefault(c.Query("page"), 0)
	size := c.Query("pageSize")
	if size == "" {
		size = c.Query("page_size")
	}
	return page, utils.AtoiDefault(size, 0)
}

// notModified sets the ETag and reports whether the client copy is current,
// in which case a 304 has been written.
func notModified(c *gin.Context, etag string) bool {
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}
