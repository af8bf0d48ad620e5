package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mzaikin/courier/internal/config"
	"github.com/mzaikin/courier/internal/database"
	postgresrepo "github.com/mzaikin/courier/internal/repository/postgres"
	"github.com/mzaikin/courier/internal/service"
	"github.com/mzaikin/courier/internal/transport/http/handlers"
	"github.com/mzaikin/courier/internal/transport/http/middleware"
	"github.com/mzaikin/courier/internal/transport/ws"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatal(err)
	}

	// Database
	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatal(err)
	}
	log.Println("Connected to database")

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)
	friendRepo := postgresrepo.NewFriendRepo(pool)
	messageRepo := postgresrepo.NewMessageRepo(pool)

	// Connection registry + services
	registry := ws.NewRegistry()

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL, cfg.RememberTokenTTL)
	userService := service.NewUserService(userRepo, friendRepo)
	friendService := service.NewFriendService(friendRepo, userRepo)
	messageService := service.NewMessageService(messageRepo, friendRepo)
	presenceService := service.NewPresenceService(userRepo, friendRepo, registry)

	// Real-time wiring
	notifier := ws.NewHubNotifier(registry)
	friendService.SetNotifier(notifier)
	messageService.SetNotifier(notifier)
	presenceService.SetNotifier(notifier)

	hub := ws.NewHub(registry, presenceService, messageService)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	friendHandler := handlers.NewFriendHandler(friendService)
	messageHandler := handlers.NewMessageHandler(messageService)

	auth := middleware.Auth(authService)

	// Routes
	mux := http.NewServeMux()

	// Public
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Push channel (token in query param)
	mux.Handle("GET /ws", ws.ServeWS(hub, authService, userRepo))

	// Protected - Users
	mux.Handle("GET /api/users/me", auth(http.HandlerFunc(userHandler.Me)))
	mux.Handle("GET /api/users/search", auth(http.HandlerFunc(userHandler.Search)))
	mux.Handle("PATCH /api/users/theme", auth(http.HandlerFunc(userHandler.SetTheme)))
	mux.Handle("POST /api/users/{id}/pin", auth(http.HandlerFunc(userHandler.TogglePin)))

	// Protected - Friends
	mux.Handle("GET /api/friends", auth(http.HandlerFunc(friendHandler.List)))
	mux.Handle("POST /api/friends/request", auth(http.HandlerFunc(friendHandler.SendRequest)))
	mux.Handle("GET /api/friends/requests", auth(http.HandlerFunc(friendHandler.ListRequests)))
	mux.Handle("POST /api/friends/respond", auth(http.HandlerFunc(friendHandler.Respond)))
	mux.Handle("DELETE /api/friends/{id}", auth(http.HandlerFunc(friendHandler.Remove)))

	// Protected - Messages
	mux.Handle("GET /api/messages/{friendId}", auth(http.HandlerFunc(messageHandler.History)))
	mux.Handle("DELETE /api/messages/{friendId}", auth(http.HandlerFunc(messageHandler.Clear)))

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	srv := &http.Server{
		Addr:    addr,
		Handler: middleware.CORS(mux),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Starting server on %s", addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
}
