package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/nimbusdesk/inbox-bridge/internal/biz/repo"
	"github.com/nimbusdesk/inbox-bridge/internal/biz/usecase"
	"github.com/nimbusdesk/inbox-bridge/internal/conf"
	"github.com/nimbusdesk/inbox-bridge/internal/data"
	"github.com/nimbusdesk/inbox-bridge/internal/infra/feishu"
)

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 3 {
		fmt.Println("Usage: send-message <conversation_id> <message>")
		os.Exit(1)
	}

	conversationID, err := strconv.ParseInt(os.Args[1], 10, 64)
	if err != nil {
		fmt.Printf("Error: invalid conversation id %q\n", os.Args[1])
		os.Exit(1)
	}
	text := os.Args[2]

	cfg := conf.Load()
	if err := cfg.ValidateStaff(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	repos, err := data.Open(cfg.Store.DBPath)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer repos.Close()

	var provider repo.ProviderRepo
	if cfg.Feishu.AppID != "" && cfg.Feishu.AppSecret != "" {
		provider = data.NewProviderRepo(feishu.NewClient(cfg.Feishu.AppID, cfg.Feishu.AppSecret))
	}

	dispatcher := usecase.NewDispatcher(repos.Conversations, repos.Messages, provider)
	ability := usecase.NewAbility(
		*cfg.Staff.ToStaff(),
		repos.Conversations,
		repos.Messages,
		repos.Participants,
		dispatcher,
	)

	msg, err := ability.SendTextMessage(context.Background(), conversationID, text)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Message %d sent to conversation %d\n", msg.ID, msg.ConversationID)
}
