// cmd/server/main.go
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/BriKprojects/card-game-crazy8s/internal/auth"
	"github.com/BriKprojects/card-game-crazy8s/internal/cache"
	"github.com/BriKprojects/card-game-crazy8s/internal/database"
	"github.com/BriKprojects/card-game-crazy8s/internal/handlers"
	"github.com/BriKprojects/card-game-crazy8s/internal/middleware"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	auth.Init()
	database.ConnectDB()

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := database.InitSchema(ctx); err != nil {
		log.Fatalf("failed to initialize schema: %v", err)
	}
	cancel()

	if err := cache.ConnectRedis(); err != nil {
		logger.Warnf("Redis unavailable, move feed disabled: %v", err)
	}

	srv := handlers.NewGameServer(logger)

	// Rehydrate previously stored games so a restart does not lose them.
	loadCtx, loadCancel := context.WithTimeout(context.Background(), 30*time.Second)
	srv.LoadPersistedGames(loadCtx)
	loadCancel()

	mux := http.NewServeMux()
	mux.Handle("/games/", middleware.LogMiddleware(logger)(srv))
	mux.HandleFunc("/health", handlers.HealthHandler)

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
