package main

import (
	"log/slog"
	"net/http"
	"time"

	"blogengine/docs"
	"blogengine/internal/config"
	"blogengine/internal/metrics"
	"blogengine/internal/middleware"
	"blogengine/internal/modules/auth"
	"blogengine/internal/modules/comment"
	"blogengine/internal/modules/post"
	"blogengine/internal/modules/vote"
	jwtsvc "blogengine/internal/pkg/jwt"
	"blogengine/internal/pkg/password"
	"blogengine/internal/pkg/response"
	"blogengine/internal/pkg/validator"
	"blogengine/internal/repository"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// newRouter wires every module onto a gin engine. The returned auth service
// owns background mail delivery and is drained on shutdown.
func newRouter(cfg *config.Config, db *gorm.DB, logger *slog.Logger, m *metrics.Metrics, mailer auth.Mailer) (*gin.Engine, *auth.Service, error) {
	validator.RegisterGinRules()

	hasher, err := password.New(cfg.BcryptCost)
	if err != nil {
		return nil, nil, err
	}
	j := jwtsvc.New(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)

	userRepo := repository.NewUserRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	voteRepo := repository.NewVoteRepository(db)

	authService := auth.NewService(userRepo, tokenRepo, j, hasher, mailer, m, logger, auth.Config{
		APIURL:             cfg.APIURL,
		RotationRevokesOld: cfg.RefreshRotationRevokesOld,
		MailTimeout:        cfg.Mail.Timeout,
	})
	authHandler := auth.NewHandler(authService, auth.CookieConfig{
		Secure:   cfg.CookieSecure,
		SameSite: cfg.CookieSameSite,
		Path:     cfg.CookiePath,
		MaxAge:   cfg.JWTRefreshTTL,
	})
	postHandler := post.NewHandler(post.NewService(postRepo, logger))
	commentHandler := comment.NewHandler(comment.NewService(commentRepo, postRepo))
	voteHandler := vote.NewHandler(vote.NewService(voteRepo, commentRepo))

	origins := cfg.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = middleware.DefaultOrigins
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(logger), middleware.CORS(origins), m.Middleware())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Blog engine API",
			"docs":    "/api-docs/index.html",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))

	docs.SwaggerInfo.BasePath = "/api"
	r.GET("/api-docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api")
	{
		// public
		authHandler.RegisterPublicRoutes(api)
		postHandler.RegisterPublicRoutes(api)
		commentHandler.RegisterPublicRoutes(api)
		voteHandler.RegisterPublicRoutes(api)

		// protected
		protected := api.Group("")
		protected.Use(middleware.JWTAuth(j))
		{
			authHandler.RegisterProtectedRoutes(protected)
			postHandler.RegisterProtectedRoutes(protected)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Page not found.")
	})

	return r, authService, nil
}
