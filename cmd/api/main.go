package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"identity/internal/config"
	"identity/internal/database"
	"identity/internal/domain"
	"identity/internal/middleware"
	"identity/internal/modules/auth"
	"identity/internal/modules/mail"
	"identity/internal/modules/social"
	"identity/internal/modules/users"
	jwtsvc "identity/internal/pkg/jwt"
	"identity/internal/pkg/password"
	"identity/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	verifiers, err := socialRegistry(ctx, cfg)
	if err != nil {
		log.Fatalf("social: %v", err)
	}

	mailer, flush := mailSender(cfg)
	defer flush()

	if config.IsProdLike(cfg.AppEnv) {
		gin.SetMode(gin.ReleaseMode)
	}
	r := newRouter(cfg, db, verifiers, mailer, redisScripter(ctx, cfg))

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("identity api listening addr=%s env=%s", cfg.HTTPAddr, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// newRouter wires repositories, services and handlers onto a gin engine.
func newRouter(cfg *config.Config, db *gorm.DB, verifiers auth.SocialVerifier, mailer mail.Sender, rdb redis.Scripter) *gin.Engine {
	userRepo := repository.NewUserRepository(db)
	refreshRepo := repository.NewRefreshTokenRepository(db)
	confirmRepo := repository.NewMailConfirmationTokenRepository(db)
	forgotRepo := repository.NewForgotPasswordTokenRepository(db)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL)

	authService := auth.NewService(
		userRepo,
		j,
		password.NewHasher(cfg.BcryptCost),
		auth.NewRefreshStore(refreshRepo, cfg.RefreshTokenPepper, cfg.RefreshTTL),
		auth.NewSecretTokens(confirmRepo, cfg.MailConfirmationTTL),
		auth.NewSecretTokens(forgotRepo, cfg.ForgotPasswordTTL),
		verifiers,
		mailer,
		auth.Options{
			MailConfirmationRequired: cfg.MailConfirmationRequired,
			RotateRefreshTokens:      cfg.RefreshRotate,
		},
	)
	authHandler := auth.NewHandler(authService)

	usersService := users.NewService(userRepo, refreshRepo)
	usersHandler := users.NewHandler(usersService)

	limiter := middleware.RateLimit(cfg.RateLimit, rdb)
	requireAuth := middleware.JWTAuth(j)

	r := gin.New()
	r.Use(middleware.ErrorLogger())
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	{
		authHandler.RegisterRoutes(v1, requireAuth, limiter)
		usersHandler.RegisterRoutes(v1, requireAuth)
	}
	return r
}

// socialRegistry enables Google only when a client id is configured, since
// ID tokens cannot be checked without an audience.
func socialRegistry(ctx context.Context, cfg *config.Config) (*social.Registry, error) {
	registry := social.NewRegistry()

	if cfg.GoogleClientID != "" {
		jwks, err := social.FetchGoogleKeys(ctx, cfg.GoogleJWKSURL)
		if err != nil {
			return nil, err
		}
		registry.Register(domain.LoginMethodGoogle, social.NewGoogleVerifier(cfg.GoogleClientID, jwks.Keyfunc))
	} else {
		log.Println("social: GOOGLE_CLIENT_ID not set, google login disabled")
	}

	registry.Register(domain.LoginMethodFacebook, social.NewFacebookVerifier(cfg.FacebookGraphURL, &http.Client{Timeout: 10 * time.Second}))
	return registry, nil
}

// mailSender queues mail through RabbitMQ when configured and otherwise logs
// it. The returned func waits for in-flight publishes.
func mailSender(cfg *config.Config) (mail.Sender, func()) {
	if cfg.RabbitMQURL == "" {
		log.Println("mail: RABBITMQ_URL not set, mails are logged only")
		return mail.NewLogSender(), func() {}
	}
	sender := mail.NewQueueSender(mail.NewAMQPPublisher(cfg.RabbitMQURL, cfg.MailQueue), 5*time.Second)
	return sender, sender.Wait
}

// redisScripter returns nil when rate limiting cannot use Redis; the limiter
// then lets every request through.
func redisScripter(ctx context.Context, cfg *config.Config) redis.Scripter {
	if !cfg.RateLimit.Enabled || cfg.RedisAddr == "" {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		log.Printf("ratelimit: redis unavailable addr=%s error=%v", cfg.RedisAddr, err)
	}
	return rdb
}
