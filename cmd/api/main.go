package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/jackc/pgx/v5/stdlib"

	"heritage-platform/internal/config"
	"heritage-platform/internal/gateway"
	"heritage-platform/internal/handlers"
	"heritage-platform/internal/middleware"
	"heritage-platform/internal/models"
	"heritage-platform/internal/store"
	"heritage-platform/internal/token"
	ws "heritage-platform/internal/websocket"
	"heritage-platform/migrations"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	db, err := sqlx.Connect("pgx", cfg.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to database")
	}
	defer db.Close()

	if err := migrations.Migrate(db.DB); err != nil {
		log.Fatal().Err(err).Msg("cannot run migrations")
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.UploadDir).Msg("cannot create upload directory")
	}

	// The revocation registry is process-local unless a shared Redis is
	// configured; only the Redis mode survives restarts and spans
	// multiple instances.
	var registry token.Registry = token.NewMemoryRegistry()
	if cfg.RedisURL != "" {
		redisRegistry, err := token.NewRedisRegistry(cfg.RedisURL, cfg.JWTExpire)
		if err != nil {
			log.Fatal().Err(err).Msg("cannot connect to redis")
		}
		defer redisRegistry.Close()
		registry = redisRegistry
		log.Info().Msg("using shared Redis revocation registry")
	}

	tokens := token.NewService(cfg.JWTSecret, cfg.JWTExpire, registry)
	st := store.New(db)
	sim := gateway.NewSimulator()

	hub := ws.NewHub()
	go hub.Run()

	authHandler := handlers.NewAuthHandler(st, tokens)
	blogHandler := handlers.NewBlogHandler(st)
	uploadHandler := handlers.NewUploadHandler(cfg.UploadDir)
	paymentHandler := handlers.NewPaymentHandler(st, sim, hub)
	wsHandler := handlers.NewWebSocketHandler(hub)

	r := gin.Default()
	r.Use(cors.Default())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.Static("/uploads", cfg.UploadDir)

	requireAuth := middleware.RequireAuth(tokens, st)
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	superuserOnly := middleware.RequireRole(models.RoleSuperuser)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/check-token", requireAuth, authHandler.CheckToken)
			auth.GET("/users", requireAuth, superuserOnly, authHandler.ListUsers)
			auth.PATCH("/users/:userId/role", requireAuth, superuserOnly, authHandler.UpdateRole)
			auth.PUT("/profile", requireAuth, authHandler.UpdateProfile)
		}

		blog := api.Group("/blog")
		{
			blog.GET("", blogHandler.List)
			blog.GET("/:id", blogHandler.Get)
			blog.POST("/upload", requireAuth, adminOnly, uploadHandler.Upload)
			blog.POST("", requireAuth, adminOnly, blogHandler.Create)
			blog.PUT("/:id", requireAuth, adminOnly, blogHandler.Update)
			blog.DELETE("/:id", requireAuth, adminOnly, blogHandler.Delete)
		}

		payments := api.Group("/payments")
		{
			payments.POST("", paymentHandler.Submit)
			payments.GET("", requireAuth, adminOnly, paymentHandler.List)
			payments.GET("/:id", requireAuth, adminOnly, paymentHandler.Get)
			payments.POST("/:id/cancel", requireAuth, paymentHandler.Cancel)
		}

		api.GET("/ws/donations", requireAuth, adminOnly, wsHandler.ServeWs)
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}
