package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmelo/feirinha/internal/database"
	"github.com/dmelo/feirinha/internal/export"
	"github.com/dmelo/feirinha/internal/logging"
	"github.com/dmelo/feirinha/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("FEIRINHA_LOG_LEVEL"))

	port := os.Getenv("FEIRINHA_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("FEIRINHA_DB_PATH")
	if dbPath == "" {
		dbPath = "feirinha.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		logger.Error("open database", "path", dbPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	inviteSecret := []byte(os.Getenv("FEIRINHA_INVITE_SECRET"))
	if len(inviteSecret) == 0 {
		// Random per-process secret: invitation links stop verifying after a
		// restart, but invitations themselves still work by ID.
		inviteSecret = make([]byte, 32)
		if _, err := rand.Read(inviteSecret); err != nil {
			logger.Error("generate invite secret", "error", err)
			os.Exit(1)
		}
		logger.Warn("FEIRINHA_INVITE_SECRET not set, using a random per-process secret")
	}

	cfg := server.Config{
		InviteSecret: inviteSecret,
		S3: export.S3Config{
			Endpoint:  os.Getenv("FEIRINHA_S3_ENDPOINT"),
			Bucket:    os.Getenv("FEIRINHA_S3_BUCKET"),
			Region:    os.Getenv("FEIRINHA_S3_REGION"),
			AccessKey: os.Getenv("FEIRINHA_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("FEIRINHA_S3_SECRET_KEY"),
		},
	}

	srv := server.New(db, cfg, logger)

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Periodic cleanup of expired sessions and invitations.
	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-cleanupCtx.Done():
				return
			case <-ticker.C:
				if n, err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Warn("session cleanup", "error", err)
				} else if n > 0 {
					logger.Info("expired sessions removed", "count", n)
				}
				if n, err := srv.SharingService().PruneExpired(); err != nil {
					logger.Warn("invitation cleanup", "error", err)
				} else if n > 0 {
					logger.Info("expired invitations removed", "count", n)
				}
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	go func() {
		fmt.Printf("Feirinha running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	cancelCleanup()
	srv.Syncer().Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
