// Question HTTP handlers.
//
//   - GET    /questions              (list, paginated, ETag support)
//   - POST   /questions              (ask, Idempotency-Key aware)
//   - GET    /questions/search       (full-text search)
//   - GET    /questions/{id}         (get)
//   - PUT    /questions/{id}         (edit, author only)
//   - DELETE /questions/{id}         (delete, author only)
//   - POST   /questions/{id}/views   (record a view)
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a question was already
// created with that key by the same user, the handler returns that question
// and sets `Idempotency-Replayed: true`.
package handlers

import (
	"fmt"
	"hash/fnv"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-devflow-backend/internal/auth"
	"github.com/tbourn/go-devflow-backend/internal/http/middleware"
	"github.com/tbourn/go-devflow-backend/internal/services"
	"github.com/tbourn/go-devflow-backend/internal/utils"
)

// listQuery reads the listing parameters shared by questions, tags and
// collections.
func listQuery(c *gin.Context) services.ListParams {
	page, size := pageQuery(c)
	return services.ListParams{
		Page:     page,
		PageSize: size,
		Query:    c.Query("query"),
		Sort:     c.Query("sort"),
	}
}

// listETag identifies one page of a listing at a given state of the data.
func listETag(kind string, p services.ListParams, count int64, last *time.Time) string {
	h := fnv.New32a()
	fmt.Fprintf(h, "%d|%d|%s|%s", p.Page, p.PageSize, p.Query, p.Sort)
	var ts int64
	if last != nil {
		ts = last.UnixNano()
	}
	return fmt.Sprintf(`W/"%s:%08x:%d:%d"`, kind, h.Sum32(), count, ts)
}

// ListQuestions godoc
// @ID          listQuestions
// @Summary     List questions
// @Description Returns a page of questions. Supports conditional requests via ETag / If-None-Match.
// @Tags        Questions
// @Produce     json
// @Param       page           query   int     false  "Page number"     minimum(1) default(1)
// @Param       pageSize       query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Param       query          query   string  false  "Filter on title and content"
// @Param       sort           query   string  false  "Order"  Enums(newest, oldest, popular, unanswered)
// @Param       If-None-Match  header  string  false  "ETag from a previous response"
// @Success     200  {object}  envelope.Response[utils.Page[domain.Question]]
// @Success     304  "Not Modified"
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /questions [get]
func (h *Handlers) ListQuestions(c *gin.Context) {
	ctx := c.Request.Context()
	p := listQuery(c)

	// Best effort: on failure the listing below reports the error.
	if count, last, err := h.questions.Stats(ctx, p); err == nil {
		if notModified(c, listETag("questions", p, count, last)) {
			return
		}
	}

	page, err := h.questions.List(ctx, p)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, page)
}

// AskQuestion godoc
// @ID          askQuestion
// @Summary     Ask a question
// @Description Tags are created on first use. Supports idempotency via the Idempotency-Key header.
// @Tags        Questions
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key  header    string                       false  "Idempotency key for safe retries"
// @Param       body             body      services.AskQuestionParams  true   "Question"
// @Success     201              {object}  envelope.Response[domain.Question]
// @Failure     400              {object}  handlers.ErrorResponse
// @Failure     401              {object}  handlers.ErrorResponse
// @Router      /questions [post]
func (h *Handlers) AskQuestion(c *gin.Context) {
	ctx := c.Request.Context()
	key, hasKey := middleware.GetIdempotencyKey(c)
	scope := middleware.IdempotencyScope(c)
	uid := c.GetString(auth.ContextUserKey)

	if hasKey && uid != "" {
		id, err := h.idem.lookup(ctx, uid, scope, key, time.Now().UTC())
		if err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
		}
		if id != "" {
			if q, err := h.questions.Get(ctx, services.IDParams{ID: id}); err == nil {
				c.Header(middleware.HeaderIdempotencyReplayed, "true")
				ok(c, http.StatusCreated, q)
				return
			}
		}
	}

	var p services.AskQuestionParams
	if !bindJSON(c, &p) {
		return
	}
	q, err := h.questions.Ask(ctx, p)
	if err != nil {
		fail(c, err)
		return
	}

	if hasKey {
		if err := h.idem.Remember(ctx, q.AuthorID, scope, key, q.ID, http.StatusCreated); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Str("question_id", q.ID).Msg("idempotency record not stored")
		}
	}
	ok(c, http.StatusCreated, q)
}

// SearchQuestions godoc
// @ID          searchQuestions
// @Summary     Search questions
// @Description Ranks recent questions by word overlap with q.
// @Tags        Questions
// @Produce     json
// @Param       q    query     string  true   "Search text"
// @Param       k    query     int     false  "Maximum hits"  minimum(1) maximum(50) default(10)
// @Success     200  {object}  envelope.Response[[]services.SearchHit]
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /questions/search [get]
func (h *Handlers) SearchQuestions(c *gin.Context) {
	hits, err := h.questions.Search(c.Request.Context(), services.SearchParams{
		Query: c.Query("q"),
		K:     utils.AtoiDefault(c.Query("k"), 0),
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, hits)
}

// GetQuestion godoc
// @ID          getQuestion
// @Summary     Get a question
// @Tags        Questions
// @Produce     json
// @Param       id   path      string  true  "Question ID"
// @Success     200  {object}  envelope.Response[domain.Question]
// @Failure     404  {object}  handlers.ErrorResponse  "Question not found"
// @Router      /questions/{id} [get]
func (h *Handlers) GetQuestion(c *gin.Context) {
	id, found := pathID(c, "Question")
	if !found {
		return
	}
	q, err := h.questions.Get(c.Request.Context(), services.IDParams{ID: id})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, q)
}

// EditQuestion godoc
// @ID          editQuestion
// @Summary     Edit a question
// @Description Replaces title, content and tags. Only the author may edit.
// @Tags        Questions
// @Accept      json
// @Produce     json
// @Param       id    path      string                       true  "Question ID"
// @Param       body  body      services.EditQuestionParams  true  "Question"
// @Success     200   {object}  envelope.Response[domain.Question]
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     401   {object}  handlers.ErrorResponse
// @Failure     403   {object}  handlers.ErrorResponse
// @Failure     404   {object}  handlers.ErrorResponse  "Question not found"
// @Router      /questions/{id} [put]
func (h *Handlers) EditQuestion(c *gin.Context) {
	id, found := pathID(c, "Question")
	if !found {
		return
	}
	var p services.EditQuestionParams
	if !bindJSON(c, &p) {
		return
	}
	p.ID = id
	q, err := h.questions.Edit(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, q)
}

// DeleteQuestion godoc
// @ID          deleteQuestion
// @Summary     Delete a question
// @Description Removes its answers, votes, saves and tag links. Only the author may delete.
// @Tags        Questions
// @Produce     json
// @Param       id   path      string  true  "Question ID"
// @Success     200  {object}  envelope.Response[domain.Question]
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     403  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Question not found"
// @Router      /questions/{id} [delete]
func (h *Handlers) DeleteQuestion(c *gin.Context) {
	id, found := pathID(c, "Question")
	if !found {
		return
	}
	q, err := h.questions.Delete(c.Request.Context(), services.IDParams{ID: id})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, q)
}

// IncrementViews godoc
// @ID          incrementViews
// @Summary     Record a view
// @Tags        Questions
// @Produce     json
// @Param       id   path      string  true  "Question ID"
// @Success     200  {object}  envelope.Response[services.ViewCount]
// @Failure     404  {object}  handlers.ErrorResponse  "Question not found"
// @Router      /questions/{id}/views [post]
func (h *Handlers) IncrementViews(c *gin.Context) {
	id, found := pathID(c, "Question")
	if !found {
		return
	}
	v, err := h.questions.IncrementViews(c.Request.Context(), services.IDParams{ID: id})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, v)
}
