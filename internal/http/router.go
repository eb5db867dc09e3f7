// Package httpapi wires the HTTP transport (Gin) to the application services,
// middleware and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, sessions,
// metrics, CORS, security headers, idempotency and rate limiting.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/tbourn/go-devflow-backend/internal/auth"
	"github.com/tbourn/go-devflow-backend/internal/config"
	"github.com/tbourn/go-devflow-backend/internal/docs"
	"github.com/tbourn/go-devflow-backend/internal/events"
	"github.com/tbourn/go-devflow-backend/internal/http/handlers"
	"github.com/tbourn/go-devflow-backend/internal/http/middleware"
	"github.com/tbourn/go-devflow-backend/internal/repo"
	"github.com/tbourn/go-devflow-backend/internal/services"
)

// Deps are the process-wide collaborators shared by every request.
type Deps struct {
	Conn     *repo.Connector
	Sessions *auth.Manager
	// Bus receives interaction events. Nil disables them.
	Bus events.Bus
}

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

// NewServices builds the services over one gate.
func NewServices(d Deps, cfg config.Config) handlers.Services {
	var p auth.Provider
	if d.Sessions != nil {
		p = d.Sessions
	}
	g := services.NewGate(p, d.Conn)
	return handlers.Services{
		Users:       services.NewUserService(g),
		Accounts:    services.NewAccountService(g, cfg.BcryptCost),
		Auth:        services.NewAuthService(g, d.Bus, cfg.BcryptCost),
		Questions:   services.NewQuestionService(g, d.Bus, cfg.SearchCandidates),
		Answers:     services.NewAnswerService(g, d.Bus),
		Tags:        services.NewTagService(g),
		Votes:       services.NewVoteService(g, d.Bus),
		Collections: services.NewCollectionService(g, d.Bus),
	}
}

// RegisterRoutes attaches all middleware and HTTP endpoints to r.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Gzip: wraps everything below, recovered panics included
//  5. Recovery: panics become 500 envelopes
//  6. Session: loads the cookie session, exposes the user id
//  7. Body size limiter, then metrics
//  8. Idempotency validator (before rate limiter to allow bypass on replay)
//  9. Rate limiter (per user/IP, bypass on replay)
//  10. CORS and security headers
func RegisterRoutes(r *gin.Engine, d Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics", "/swagger"})))
	r.Use(middleware.Recovery())
	if d.Sessions != nil {
		r.Use(d.Sessions.Middleware())
	}
	r.Use(limitBody(maxBodyBytes))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	idem := &handlers.IdempotencyStore{Conn: d.Conn, TTL: cfg.IdempotencyTTL}
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{MaxLen: 200}, idem.Exists))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) { handlers.Fail(c, handlers.ErrRouteNotFound) })
	r.NoMethod(func(c *gin.Context) { handlers.Fail(c, handlers.ErrMethodNotAllowed) })

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	var sessions handlers.Sessions
	if d.Sessions != nil {
		sessions = d.Sessions
	}
	h := handlers.New(NewServices(d, cfg), sessions, idem)

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.GET("/users", h.ListUsers)
		api.POST("/users", h.CreateUser)
		api.POST("/users/email", h.GetUserByEmail)
		api.GET("/users/:id", h.GetUser)
		api.PUT("/users/:id", h.UpdateUser)
		api.DELETE("/users/:id", h.DeleteUser)

		api.GET("/accounts", h.ListAccounts)
		api.POST("/accounts", h.CreateAccount)
		api.POST("/accounts/provider", h.GetAccountByProvider)
		api.GET("/accounts/:id", h.GetAccount)
		api.PUT("/accounts/:id", h.UpdateAccount)
		api.DELETE("/accounts/:id", h.DeleteAccount)

		api.POST("/auth/signup", h.SignUp)
		api.POST("/auth/signin", h.SignIn)
		api.POST("/auth/signin-with-oauth", h.SignInWithOAuth)
		api.POST("/auth/signout", h.SignOut)
		api.GET("/auth/session", h.CurrentSession)

		api.GET("/questions", h.ListQuestions)
		api.POST("/questions", h.AskQuestion)
		api.GET("/questions/search", h.SearchQuestions)
		api.GET("/questions/:id", h.GetQuestion)
		api.PUT("/questions/:id", h.EditQuestion)
		api.DELETE("/questions/:id", h.DeleteQuestion)
		api.POST("/questions/:id/views", h.IncrementViews)
		api.GET("/questions/:id/answers", h.ListAnswers)
		api.POST("/questions/:id/answers", h.CreateAnswer)

		api.DELETE("/answers/:id", h.DeleteAnswer)

		api.GET("/tags", h.ListTags)
		api.GET("/tags/:id", h.GetTag)
		api.GET("/tags/:id/questions", h.TagQuestions)

		api.POST("/votes", h.Vote)
		api.GET("/votes/status", h.VoteStatus)

		api.GET("/collections", h.ListCollections)
		api.GET("/collections/status", h.SavedStatus)
		api.POST("/collections/toggle", h.ToggleSave)
	}
}

// corsMiddleware allows every origin without credentials when origins is
// empty, and otherwise only the listed origins, with credentials so the
// session cookie is sent.
func corsMiddleware(origins []string) gin.HandlerFunc {
	cc := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
		ExposeHeaders: []string{"X-Request-ID", "Content-Length", "ETag", "Retry-After", middleware.HeaderIdempotencyReplayed},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
		cc.AllowCredentials = true
	}
	return cors.New(cc)
}

// limitBody caps the request body at maxBytes. Reads past the cap fail,
// which the JSON decoder reports as an invalid body.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
