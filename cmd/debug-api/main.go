package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Lists the Feishu chats the bot belongs to, so their chat_ids can be
// used as external conversation ids when checking the bridge.
func main() {
	_ = godotenv.Load()

	appID := os.Getenv("FEISHU_APP_ID")
	appSecret := os.Getenv("FEISHU_APP_SECRET")
	if appID == "" || appSecret == "" {
		fmt.Println("Error: FEISHU_APP_ID and FEISHU_APP_SECRET must be set")
		os.Exit(1)
	}

	token, err := getTenantToken(appID, appSecret)
	if err != nil {
		fmt.Printf("Failed to get token: %v\n", err)
		return
	}

	listChats(token)
}

func getTenantToken(appID, appSecret string) (string, error) {
	body := fmt.Sprintf(`{"app_id":"%s","app_secret":"%s"}`, appID, appSecret)
	resp, err := http.Post(
		"https://open.feishu.cn/open-apis/auth/v3/tenant_access_token/internal",
		"application/json",
		strings.NewReader(body),
	)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result struct {
		Code              int    `json:"code"`
		Msg               string `json:"msg"`
		TenantAccessToken string `json:"tenant_access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if result.Code != 0 {
		return "", fmt.Errorf("auth failed: %s", result.Msg)
	}
	return result.TenantAccessToken, nil
}

func listChats(token string) {
	req, _ := http.NewRequest("GET", "https://open.feishu.cn/open-apis/im/v1/chats?page_size=50", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Printf("Request failed: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
		Data struct {
			Items []struct {
				ChatID   string `json:"chat_id"`
				Name     string `json:"name"`
				ChatMode string `json:"chat_mode"`
			} `json:"items"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		fmt.Printf("Failed to parse response: %v\n", err)
		return
	}
	if result.Code != 0 {
		fmt.Printf("Error: %s\n", result.Msg)
		return
	}

	fmt.Printf("Bot is in %d chats:\n", len(result.Data.Items))
	for i, chat := range result.Data.Items {
		name := chat.Name
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Printf("  %d. %s [%s] %s\n", i+1, chat.ChatID, chat.ChatMode, name)
	}
}
