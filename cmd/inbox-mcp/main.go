package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/nimbusdesk/inbox-bridge/internal/biz/repo"
	"github.com/nimbusdesk/inbox-bridge/internal/biz/usecase"
	"github.com/nimbusdesk/inbox-bridge/internal/conf"
	"github.com/nimbusdesk/inbox-bridge/internal/data"
	"github.com/nimbusdesk/inbox-bridge/internal/infra/feishu"
	"github.com/nimbusdesk/inbox-bridge/mcpserver"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := conf.Load()
	if err := cfg.ValidateStaff(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	repos, err := data.Open(cfg.Store.DBPath)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer repos.Close()

	// Outbound delivery is optional here: without Feishu credentials
	// sends still land in the local store, they just never leave it.
	var provider repo.ProviderRepo
	if cfg.Feishu.AppID != "" && cfg.Feishu.AppSecret != "" {
		provider = data.NewProviderRepo(feishu.NewClient(cfg.Feishu.AppID, cfg.Feishu.AppSecret))
	} else {
		fmt.Fprintln(os.Stderr, "[MCP] Feishu credentials not set, outbound delivery disabled")
	}

	dispatcher := usecase.NewDispatcher(repos.Conversations, repos.Messages, provider)
	ability := usecase.NewAbility(
		*cfg.Staff.ToStaff(),
		repos.Conversations,
		repos.Messages,
		repos.Participants,
		dispatcher,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	srv := mcpserver.NewServer(ability)
	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("MCP server error: %v", err)
	}
}
