// Account HTTP handlers. Passwords are accepted on create and update but
// never serialised back.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-devflow-backend/internal/services"
)

// ListAccounts godoc
// @ID          listAccounts
// @Summary     List accounts
// @Tags        Accounts
// @Produce     json
// @Success     200  {object}  envelope.Response[[]domain.Account]
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /accounts [get]
func (h *Handlers) ListAccounts(c *gin.Context) {
	accounts, err := h.accounts.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, accounts)
}

// CreateAccount godoc
// @ID          createAccount
// @Summary     Create an account
// @Description Fails with 403 when the provider account already exists.
// @Tags        Accounts
// @Accept      json
// @Produce     json
// @Param       body  body      services.CreateAccountParams  true  "Account"
// @Success     201   {object}  envelope.Response[domain.Account]
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     403   {object}  handlers.ErrorResponse  "An account with the same provider already exists"
// @Failure     404   {object}  handlers.ErrorResponse  "User not found"
// @Router      /accounts [post]
func (h *Handlers) CreateAccount(c *gin.Context) {
	var p services.CreateAccountParams
	if !bindJSON(c, &p) {
		return
	}
	a, err := h.accounts.Create(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, a)
}

// GetAccount godoc
// @ID          getAccount
// @Summary     Get an account
// @Tags        Accounts
// @Produce     json
// @Param       id   path      string  true  "Account ID"
// @Success     200  {object}  envelope.Response[domain.Account]
// @Failure     404  {object}  handlers.ErrorResponse  "Account not found"
// @Router      /accounts/{id} [get]
func (h *Handlers) GetAccount(c *gin.Context) {
	id, found := pathID(c, "Account")
	if !found {
		return
	}
	a, err := h.accounts.Get(c.Request.Context(), services.IDParams{ID: id})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, a)
}

// UpdateAccount godoc
// @ID          updateAccount
// @Summary     Update an account
// @Tags        Accounts
// @Accept      json
// @Produce     json
// @Param       id    path      string                        true  "Account ID"
// @Param       body  body      services.UpdateAccountParams  true  "Fields to change"
// @Success     200   {object}  envelope.Response[domain.Account]
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     404   {object}  handlers.ErrorResponse  "Account not found"
// @Router      /accounts/{id} [put]
func (h *Handlers) UpdateAccount(c *gin.Context) {
	id, found := pathID(c, "Account")
	if !found {
		return
	}
	var p services.UpdateAccountParams
	if !bindJSON(c, &p) {
		return
	}
	p.ID = id
	a, err := h.accounts.Update(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, a)
}

// DeleteAccount godoc
// @ID          deleteAccount
// @Summary     Delete an account
// @Tags        Accounts
// @Produce     json
// @Param       id   path      string  true  "Account ID"
// @Success     200  {object}  envelope.Response[domain.Account]
// @Failure     404  {object}  handlers.ErrorResponse  "Account not found"
// @Router      /accounts/{id} [delete]
func (h *Handlers) DeleteAccount(c *gin.Context) {
	id, found := pathID(c, "Account")
	if !found {
		return
	}
	a, err := h.accounts.Delete(c.Request.Context(), services.IDParams{ID: id})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, a)
}

// GetAccountByProvider godoc
// @ID          getAccountByProvider
// @Summary     Find an account by provider account id
// @Tags        Accounts
// @Accept      json
// @Produce     json
// @Param       body  body      services.ProviderParams  true  "Provider account id"
// @Success     200   {object}  envelope.Response[domain.Account]
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     404   {object}  handlers.ErrorResponse  "Account not found"
// @Router      /accounts/provider [post]
func (h *Handlers) GetAccountByProvider(c *gin.Context) {
	var p services.ProviderParams
	if !bindJSON(c, &p) {
		return
	}
	a, err := h.accounts.GetByProvider(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, a)
}
