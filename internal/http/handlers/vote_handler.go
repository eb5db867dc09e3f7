package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-devflow-backend/internal/services"
)

// Vote godoc
// @ID          vote
// @Summary     Vote on a question or answer
// @Description Repeating the same vote withdraws it; the opposite vote switches it.
// @Tags        Votes
// @Accept      json
// @Produce     json
// @Param       body  body      services.VoteParams  true  "Vote"
// @Success     200   {object}  envelope.Response[services.VoteSummary]
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     401   {object}  handlers.ErrorResponse
// @Failure     404   {object}  handlers.ErrorResponse
// @Router      /votes [post]
func (h *Handlers) Vote(c *gin.Context) {
	var p services.VoteParams
	if !bindJSON(c, &p) {
		return
	}
	sum, err := h.votes.Vote(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, sum)
}

// VoteStatus godoc
// @ID          voteStatus
// @Summary     How the caller voted on a target
// @Tags        Votes
// @Produce     json
// @Param       targetId    query     string  true  "Question or answer ID"
// @Param       targetType  query     string  true  "Target kind"  Enums(question, answer)
// @Success     200         {object}  envelope.Response[services.VoteStatus]
// @Failure     400         {object}  handlers.ErrorResponse
// @Failure     401         {object}  handlers.ErrorResponse
// @Router      /votes/status [get]
func (h *Handlers) VoteStatus(c *gin.Context) {
	st, err := h.votes.Status(c.Request.Context(), services.VoteStatusParams{
		TargetID:   c.Query("targetId"),
		TargetType: c.Query("targetType"),
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}
