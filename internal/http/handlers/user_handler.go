// User HTTP handlers.
//
//   - GET    /users          (list)
//   - POST   /users          (create)
//   - GET    /users/{id}     (get)
//   - PUT    /users/{id}     (partial update)
//   - DELETE /users/{id}     (delete, cascades accounts)
//   - POST   /users/email    (lookup by email)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-devflow-backend/internal/services"
)

// ListUsers godoc
// @ID          listUsers
// @Summary     List users
// @Tags        Users
// @Produce     json
// @Success     200  {object}  envelope.Response[[]domain.User]
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /users [get]
func (h *Handlers) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, users)
}

// CreateUser godoc
// @ID          createUser
// @Summary     Create a user
// @Description Fails with 500 "User already exists" when the email is taken.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Param       body  body      services.CreateUserParams  true  "User"
// @Success     201   {object}  envelope.Response[domain.User]
// @Failure     400   {object}  handlers.ErrorResponse  "Validation failed or invalid JSON"
// @Failure     500   {object}  handlers.ErrorResponse
// @Router      /users [post]
func (h *Handlers) CreateUser(c *gin.Context) {
	var p services.CreateUserParams
	if !bindJSON(c, &p) {
		return
	}
	u, err := h.users.Create(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusCreated, u)
}

// GetUser godoc
// @ID          getUser
// @Summary     Get a user
// @Tags        Users
// @Produce     json
// @Param       id   path      string  true  "User ID"
// @Success     200  {object}  envelope.Response[domain.User]
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /users/{id} [get]
func (h *Handlers) GetUser(c *gin.Context) {
	id, found := pathID(c, "User")
	if !found {
		return
	}
	u, err := h.users.Get(c.Request.Context(), services.IDParams{ID: id})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// UpdateUser godoc
// @ID          updateUser
// @Summary     Update a user
// @Description Only the fields present in the body are changed.
// @Tags        Users
// @Accept      json
// @Produce     json
// @Param       id    path      string                     true  "User ID"
// @Param       body  body      services.UpdateUserParams  true  "Fields to change"
// @Success     200   {object}  envelope.Response[domain.User]
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     404   {object}  handlers.ErrorResponse  "User not found"
// @Router      /users/{id} [put]
func (h *Handlers) UpdateUser(c *gin.Context) {
	id, found := pathID(c, "User")
	if !found {
		return
	}
	var p services.UpdateUserParams
	if !bindJSON(c, &p) {
		return
	}
	p.ID = id
	u, err := h.users.Update(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// DeleteUser godoc
// @ID          deleteUser
// @Summary     Delete a user and their accounts
// @Tags        Users
// @Produce     json
// @Param       id   path      string  true  "User ID"
// @Success     200  {object}  envelope.Response[domain.User]
// @Failure     404  {object}  handlers.ErrorResponse  "User not found"
// @Router      /users/{id} [delete]
func (h *Handlers) DeleteUser(c *gin.Context) {
	id, found := pathID(c, "User")
	if !found {
		return
	}
	u, err := h.users.Delete(c.Request.Context(), services.IDParams{ID: id})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}

// GetUserByEmail godoc
// @ID          getUserByEmail
// @Summary     Find a user by email
// @Tags        Users
// @Accept      json
// @Produce     json
// @Param       body  body      services.EmailParams  true  "Email"
// @Success     200   {object}  envelope.Response[domain.User]
// @Failure     400   {object}  handlers.ErrorResponse
// @Failure     404   {object}  handlers.ErrorResponse  "User not found"
// @Router      /users/email [post]
func (h *Handlers) GetUserByEmail(c *gin.Context) {
	var p services.EmailParams
	if !bindJSON(c, &p) {
		return
	}
	u, err := h.users.GetByEmail(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, http.StatusOK, u)
}
