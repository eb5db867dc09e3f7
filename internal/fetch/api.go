package fetch

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tbourn/go-devflow-backend/internal/auth"
	"github.com/tbourn/go-devflow-backend/internal/domain"
	"github.com/tbourn/go-devflow-backend/internal/envelope"
	"github.com/tbourn/go-devflow-backend/internal/services"
)

// Route of the OAuth sign-in endpoint, relative to the API base.
const RouteSignInWithOAuth = "/auth/signin-with-oauth"

// API groups the typed calls of the JSON API.
type API struct {
	Auth     AuthAPI
	Users    UsersAPI
	Accounts AccountsAPI
}

// NewAPI returns the typed API on top of c.
func NewAPI(c *Client) *API {
	return &API{Auth: AuthAPI{c}, Users: UsersAPI{c}, Accounts: AccountsAPI{c}}
}

// AuthAPI calls the auth endpoints.
type AuthAPI struct{ c *Client }

// OAuthSignIn signs in with an identity vouched for by provider.
func (a AuthAPI) OAuthSignIn(ctx context.Context, p services.OAuthParams) envelope.Response[auth.Session] {
	return Request[auth.Session](ctx, a.c, RouteSignInWithOAuth, Options{Method: http.MethodPost, Body: p})
}

// UsersAPI calls the user endpoints.
type UsersAPI struct{ c *Client }

func (u UsersAPI) GetAll(ctx context.Context) envelope.Response[[]domain.User] {
	return Request[[]domain.User](ctx, u.c, "/users", Options{})
}

func (u UsersAPI) GetByID(ctx context.Context, id string) envelope.Response[domain.User] {
	return Request[domain.User](ctx, u.c, "/users/"+url.PathEscape(id), Options{})
}

func (u UsersAPI) GetByEmail(ctx context.Context, email string) envelope.Response[domain.User] {
	return Request[domain.User](ctx, u.c, "/users/email", Options{
		Method: http.MethodPost,
		Body:   services.EmailParams{Email: email},
	})
}

func (u UsersAPI) Create(ctx context.Context, p services.CreateUserParams) envelope.Response[domain.User] {
	return Request[domain.User](ctx, u.c, "/users", Options{Method: http.MethodPost, Body: p})
}

func (u UsersAPI) Update(ctx context.Context, id string, p services.UpdateUserParams) envelope.Response[domain.User] {
	return Request[domain.User](ctx, u.c, "/users/"+url.PathEscape(id), Options{Method: http.MethodPut, Body: p})
}

func (u UsersAPI) Delete(ctx context.Context, id string) envelope.Response[domain.User] {
	return Request[domain.User](ctx, u.c, "/users/"+url.PathEscape(id), Options{Method: http.MethodDelete})
}

// AccountsAPI calls the account endpoints.
type AccountsAPI struct{ c *Client }

func (a AccountsAPI) GetAll(ctx context.Context) envelope.Response[[]domain.Account] {
	return Request[[]domain.Account](ctx, a.c, "/accounts", Options{})
}

func (a AccountsAPI) GetByID(ctx context.Context, id string) envelope.Response[domain.Account] {
	return Request[domain.Account](ctx, a.c, "/accounts/"+url.PathEscape(id), Options{})
}

func (a AccountsAPI) GetByProvider(ctx context.Context, providerAccountID string) envelope.Response[domain.Account] {
	return Request[domain.Account](ctx, a.c, "/accounts/provider", Options{
		Method: http.MethodPost,
		Body:   services.ProviderParams{ProviderAccountID: providerAccountID},
	})
}

func (a AccountsAPI) Create(ctx context.Context, p services.CreateAccountParams) envelope.Response[domain.Account] {
	return Request[domain.Account](ctx, a.c, "/accounts", Options{Method: http.MethodPost, Body: p})
}

func (a AccountsAPI) Update(ctx context.Context, id string, p services.UpdateAccountParams) envelope.Response[domain.Account] {
	return Request[domain.Account](ctx, a.c, "/accounts/"+url.PathEscape(id), Options{Method: http.MethodPut, Body: p})
}

func (a AccountsAPI) Delete(ctx context.Context, id string) envelope.Response[domain.Account] {
	return Request[domain.Account](ctx, a.c, "/accounts/"+url.PathEscape(id), Options{Method: http.MethodDelete})
}
