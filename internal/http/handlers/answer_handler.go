// Answer HTTP handlers.
//
//   - GET    /questions/{id}/answers  (list, paginated, ETag support)
//   - POST   /questions/{id}/answers  (answer)
//   - DELETE /answers/{id}            (delete, author only)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-devflow-backend/internal/services"
)

// ListAnswers godoc
// @ID          listAnswers
// @Summary     List the answers to a question
// @Description Oldest first. Supports conditional requests via ETag / If-None-Match.
// @Tags        Answers
// @Produce     json
// @Param       id             path    string  true   "Question ID"
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       pageSize       query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Param       If-None-Match  header  string  false  "ETag from a previous response"
// @Success     200  {object}  envelope.Response[utils.Page[domain.Answer]]
// @Success     304  "Not Modified"
// @Failure     404  {object}  handlers.ErrorResponse  "Question not found"
// @Router      /questions/{id}/answers [get]
func (h *Handlers) ListAnswers(c *gin.Context) {
	ctx := c.Request.Context()
	qid, found := pathID(c, "Question")
	if !found {
		return
	}
	page, size := pageQuery(c)

	if count, last, err := h.answers.Stats(ctx, qid); err == nil && count > 0 {
		etag := listETag("answers:"+qid, services.ListParams{Page: page, PageSize: size}, count, last)
		if notModified(c, etag) {
			return
		}
	}

	answers, err := h.answers.List(ctx, services.ListAnswersParams{QuestionID: qid, Page: page, PageSize: size})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, answers)
}

// CreateAnswer godoc
// @ID          createAnswer
// @Summary     Answer a question
// @Tags        Answers
// @Accept      json
// @Produce     json
// @Param       id    path      string                       true  "Question ID"
// @Param       body  body      services.CreateAnswerParams  true  "Answer"
// @Success     201   {object}  envelope.Response[domain.Answer]
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     401   {object}  handlers.ErrorResponse
// @Failure     404   {object}  handlers.ErrorResponse  "Question not found"
// @Router      /questions/{id}/answers [post]
func (h *Handlers) CreateAnswer(c *gin.Context) {
	qid, found := pathID(c, "Question")
	if !found {
		return
	}
	var p services.CreateAnswerParams
	if !bindJSON(c, &p) {
		return
	}
	p.QuestionID = qid
	a, err := h.answers.Create(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, a)
}

// DeleteAnswer godoc
// @ID          deleteAnswer
// @Summary     Delete an answer
// @Tags        Answers
// @Produce     json
// @Param       id   path      string  true  "Answer ID"
// @Success     200  {object}  envelope.Response[domain.Answer]
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     403  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Answer not found"
// @Router      /answers/{id} [delete]
func (h *Handlers) DeleteAnswer(c *gin.Context) {
	id, found := pathID(c, "Answer")
	if !found {
		return
	}
	a, err := h.answers.Delete(c.Request.Context(), services.IDParams{ID: id})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, a)
}
