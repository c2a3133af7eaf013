package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lguibr/bollywood"
	"github.com/lguibr/pongduel/game"
	"github.com/lguibr/pongduel/server"
	"github.com/lguibr/pongduel/utils"
)

func main() {
	cfg := utils.DefaultConfig()

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}
	authURL := os.Getenv("AUTH_URL")
	if authURL == "" {
		authURL = "http://localhost:4000"
	}
	wsURL := os.Getenv("PUBLIC_WS_URL")
	if wsURL == "" {
		wsURL = fmt.Sprintf("ws://localhost:%s/ws", port)
	}

	engine := bollywood.NewEngine()

	var recorder game.ResultRecorder
	if recorderURL := os.Getenv("RECORDER_URL"); recorderURL != "" {
		recorder = server.NewHTTPResultRecorder(recorderURL)
	} else {
		fmt.Println("RECORDER_URL not set, match results will not be recorded")
	}

	srv := server.NewServer(cfg, engine, server.NewHTTPIdentityVerifier(authURL), wsURL)

	managerPID := engine.Spawn(bollywood.NewProps(
		game.NewMatchManagerProducer(engine, cfg, recorder, srv.BroadcastLobby),
	))
	if managerPID == nil {
		fmt.Println("FATAL: failed to spawn match manager")
		os.Exit(1)
	}
	srv.SetManagerPID(managerPID)

	httpServer := &http.Server{
		Addr:    ":" + port,
		Handler: srv.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fmt.Printf("Match service listening on :%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		fmt.Println("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("HTTP server shutdown error: %v\n", err)
		}
		engine.Shutdown(10 * time.Second)
		return nil
	})

	if err := g.Wait(); err != nil {
		fmt.Printf("FATAL: %v\n", err)
		os.Exit(1)
	}
}
