package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-devflow-backend/internal/services"
)

// ListTags godoc
// @ID          listTags
// @Summary     List tags
// @Tags        Tags
// @Produce     json
// @Param       page      query     int     false  "Page number"     minimum(1) default(1)
// @Param       pageSize  query     int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Param       query     query     string  false  "Name filter"
// @Param       sort      query     string  false  "Order"  Enums(popular, recent, oldest, name)
// @Success     200       {object}  envelope.Response[utils.Page[domain.Tag]]
// @Failure     400       {object}  handlers.ErrorResponse
// @Router      /tags [get]
func (h *Handlers) ListTags(c *gin.Context) {
	tags, err := h.tags.List(c.Request.Context(), listQuery(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, tags)
}

// GetTag godoc
// @ID          getTag
// @Summary     Get a tag
// @Tags        Tags
// @Produce     json
// @Param       id   path      string  true  "Tag ID"
// @Success     200  {object}  envelope.Response[domain.Tag]
// @Failure     404  {object}  handlers.ErrorResponse  "Tag not found"
// @Router      /tags/{id} [get]
func (h *Handlers) GetTag(c *gin.Context) {
	id, found := pathID(c, "Tag")
	if !found {
		return
	}
	t, err := h.tags.Get(c.Request.Context(), services.IDParams{ID: id})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, t)
}

// TagQuestions godoc
// @ID          tagQuestions
// @Summary     Questions carrying a tag
// @Tags        Tags
// @Produce     json
// @Param       id        path      string  true   "Tag ID"
// @Param       page      query     int     false  "Page number"     minimum(1) default(1)
// @Param       pageSize  query     int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Param       query     query     string  false  "Filter on title and content"
// @Param       sort      query     string  false  "Order"  Enums(newest, oldest, popular, unanswered)
// @Success     200       {object}  envelope.Response[services.TagQuestions]
// @Failure     404       {object}  handlers.ErrorResponse  "Tag not found"
// @Router      /tags/{id}/questions [get]
func (h *Handlers) TagQuestions(c *gin.Context) {
	id, found := pathID(c, "Tag")
	if !found {
		return
	}
	lp := listQuery(c)
	res, err := h.tags.Questions(c.Request.Context(), services.ListTagQuestionsParams{
		TagID:    id,
		Page:     lp.Page,
		PageSize: lp.PageSize,
		Query:    lp.Query,
		Sort:     lp.Sort,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}
