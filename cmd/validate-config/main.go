package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/vitalwatch/vitalwatch/internal/config"
)

func main() {
	fmt.Println("🔍 Validating configuration...")

	if err := godotenv.Load(); err != nil {
		fmt.Printf("⚠️  .env file not found: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Configuration invalid:\n%v\n", err)
		os.Exit(1)
	}

	fmt.Println("✅ Configuration valid!")
	fmt.Printf("📋 Details:\n")
	fmt.Printf("  - HTTP Addr: %s\n", cfg.HTTPAddr)
	fmt.Printf("  - DB Host: %s\n", cfg.DB.Host)
	fmt.Printf("  - DB Port: %s\n", cfg.DB.Port)
	fmt.Printf("  - DB User: %s\n", cfg.DB.User)
	fmt.Printf("  - DB Name: %s\n", cfg.DB.DBName)
	fmt.Printf("  - Redis: %s:%s\n", cfg.Redis.Host, cfg.Redis.Port)
	fmt.Printf("  - MQTT Broker: %s\n", cfg.MQTT.Broker)
	fmt.Printf("  - MQTT Topic: %s\n", cfg.MQTT.Topic)
	fmt.Printf("  - Gemini API Key: %s\n", maskToken(cfg.AI.GeminiAPIKey))
	fmt.Printf("  - OpenAI API Key: %s\n", maskToken(cfg.AI.OpenAIAPIKey))
	fmt.Printf("  - From Email: %s\n", cfg.Email.FromEmail)
	fmt.Printf("  - Email Providers: %s\n", strings.Join(cfg.Email.ProviderOrder, ", "))
	fmt.Printf("  - Resend API Key: %s\n", maskToken(cfg.Email.ResendAPIKey))
	fmt.Printf("  - SendGrid API Key: %s\n", maskToken(cfg.Email.SendGridAPIKey))
	fmt.Printf("  - Mailgun API Key: %s\n", maskToken(cfg.Email.MailgunAPIKey))
	fmt.Printf("  - Alert Cooldown: %v\n", cfg.Alerts.Cooldown)
	fmt.Printf("  - Window Size: %d\n", cfg.Alerts.WindowSize)
	fmt.Printf("  - Log Level: %v\n", cfg.Logger.Level)
	fmt.Printf("  - Log Output: %s\n", cfg.Logger.OutputPath)
	fmt.Printf("  - Log Format: %s\n", cfg.Logger.Format)
}

func maskToken(token string) string {
	if token == "" {
		return "<not set>"
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
