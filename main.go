package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nimbusdesk/inbox-bridge/internal/api"
	"github.com/nimbusdesk/inbox-bridge/internal/biz/usecase"
	"github.com/nimbusdesk/inbox-bridge/internal/conf"
	"github.com/nimbusdesk/inbox-bridge/internal/data"
	"github.com/nimbusdesk/inbox-bridge/internal/infra/feishu"
	"github.com/nimbusdesk/inbox-bridge/internal/server"
)

const defaultAPIPort = 9876

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := conf.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	// Initialize repository layer
	repos, err := data.Open(cfg.Store.DBPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer repos.Close()

	fmt.Printf("[Bridge] Store DB: %s\n", cfg.Store.DBPath)

	// Initialize Feishu client
	feishuClient := feishu.NewClient(cfg.Feishu.AppID, cfg.Feishu.AppSecret)

	// Initialize usecase layer
	reconciler := usecase.NewReconciler(repos.Conversations, repos.Messages)

	// Initialize server
	srv := server.NewFeishuServer(feishuClient, reconciler)

	// Local HTTP API, acting as the configured staff member. Optional:
	// without a staff identity only the event ingest runs.
	var apiServer *api.Server
	if err := cfg.ValidateStaff(); err == nil {
		provider := data.NewProviderRepo(feishuClient)
		dispatcher := usecase.NewDispatcher(repos.Conversations, repos.Messages, provider)
		ability := usecase.NewAbility(
			*cfg.Staff.ToStaff(),
			repos.Conversations,
			repos.Messages,
			repos.Participants,
			dispatcher,
		)
		apiServer = api.NewServer(ability, defaultAPIPort)
		go func() {
			if err := apiServer.Start(); err != nil {
				fmt.Printf("[Bridge] API server error: %v\n", err)
			}
		}()
		fmt.Printf("[Bridge] HTTP API started on 127.0.0.1:%d as staff %s\n", defaultAPIPort, cfg.Staff.ID)
	} else {
		fmt.Printf("[Bridge] HTTP API disabled: %v\n", err)
	}

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		srv.Stop()
		if apiServer != nil {
			apiServer.Stop()
		}
		repos.Close()
		os.Exit(0)
	}()

	fmt.Println("Starting Inbox Bridge...")
	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
