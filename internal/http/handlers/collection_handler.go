package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-devflow-backend/internal/services"
)

// ToggleSave godoc
// @ID          toggleSave
// @Summary     Save or unsave a question
// @Tags        Collections
// @Accept      json
// @Produce     json
// @Param       body  body      services.CollectionParams  true  "Question"
// @Success     200   {object}  envelope.Response[services.SavedStatus]
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     401   {object}  handlers.ErrorResponse
// @Failure     404   {object}  handlers.ErrorResponse  "Question not found"
// @Router      /collections/toggle [post]
func (h *Handlers) ToggleSave(c *gin.Context) {
	var p services.CollectionParams
	if !bindJSON(c, &p) {
		return
	}
	st, err := h.collections.Toggle(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}

// SavedStatus godoc
// @ID          savedStatus
// @Summary     Whether the caller saved a question
// @Tags        Collections
// @Produce     json
// @Param       questionId  query     string  true  "Question ID"
// @Success     200         {object}  envelope.Response[services.SavedStatus]
// @Failure     400         {object}  handlers.ErrorResponse
// @Failure     401         {object}  handlers.ErrorResponse
// @Router      /collections/status [get]
func (h *Handlers) SavedStatus(c *gin.Context) {
	st, err := h.collections.Status(c.Request.Context(), services.CollectionParams{QuestionID: c.Query("questionId")})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}

// ListCollections godoc
// @ID          listCollections
// @Summary     The caller's saved questions, newest first
// @Tags        Collections
// @Produce     json
// @Param       page      query     int     false  "Page number"     minimum(1) default(1)
// @Param       pageSize  query     int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200       {object}  envelope.Response[utils.Page[domain.Collection]]
// @Failure     401       {object}  handlers.ErrorResponse
// @Router      /collections [get]
func (h *Handlers) ListCollections(c *gin.Context) {
	page, err := h.collections.List(c.Request.Context(), listQuery(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, page)
}
