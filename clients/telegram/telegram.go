package telegram

import (
	"botdash/clients/notifier"
	"botdash/config"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const telegramAPIURL = "https://api.telegram.org"

// TelegramClient sends alerts to Telegram.
// Implements notifier.Notifier interface.
type TelegramClient struct {
	logger     *zap.Logger
	botToken   string
	chatID     string
	isProd     bool
	apiBaseURL string
	client     *http.Client
}

func NewTelegramClient(logger *zap.Logger, cfg *config.Config) *TelegramClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	chatID := cfg.Telegram.BetaChatID
	if cfg.IsProd {
		chatID = cfg.Telegram.ProdChatID
	}

	token := cfg.Telegram.BotToken
	if token == "" {
		logger.Warn("TELEGRAM_BOT_KEY not set, Telegram alerts disabled")
		return &TelegramClient{
			logger:     logger,
			chatID:     chatID,
			isProd:     cfg.IsProd,
			apiBaseURL: telegramAPIURL,
		}
	}

	logger.Info("telegram bot initialized",
		zap.Bool("isProd", cfg.IsProd),
		zap.String("chatID", chatID),
	)

	return &TelegramClient{
		logger:     logger,
		botToken:   token,
		chatID:     chatID,
		isProd:     cfg.IsProd,
		apiBaseURL: telegramAPIURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether alerts will actually be sent.
func (tc *TelegramClient) Enabled() bool {
	return tc.botToken != "" && tc.chatID != ""
}

// SendStatusAlert sends a bot status notification.
// Implements notifier.Notifier interface.
func (tc *TelegramClient) SendStatusAlert(alert notifier.StatusAlert) {
	if !tc.Enabled() {
		tc.logger.Warn("telegram not configured, skipping alert")
		return
	}

	message := buildAlertMessage(alert)

	if err := tc.sendMessage(message); err != nil {
		tc.logger.Error("failed to send telegram message", zap.Error(err))
		return
	}

	tc.logger.Info("sent telegram status alert",
		zap.String("reason", string(alert.Reason)),
		zap.String("status", alert.Status),
	)
}

func buildAlertMessage(alert notifier.StatusAlert) string {
	var sb strings.Builder

	title := "🔴 Trading Bot Stopped"
	if alert.Running() {
		title = "🟢 Trading Bot Running"
	}
	sb.WriteString(fmt.Sprintf("*%s*\n\n", escapeMarkdown(title)))

	sb.WriteString(fmt.Sprintf("*Status:* %s → %s\n\n",
		escapeMarkdown(displayStatus(alert.PreviousStatus)),
		escapeMarkdown(displayStatus(alert.Status)),
	))

	sb.WriteString(fmt.Sprintf("*Total Trades:* %s\n", escapeMarkdown(alert.TotalTrades)))
	sb.WriteString(fmt.Sprintf("*Total P&L:* %s\n", escapeMarkdown(alert.TotalPnL)))
	sb.WriteString(fmt.Sprintf("*Avg P&L:* %s\n", escapeMarkdown(alert.AvgPnL)))

	ts := alert.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	sb.WriteString(fmt.Sprintf("\n_botdash • %s_", ts.Format("1/2/2006, 3:04:05PM (MST)")))

	return sb.String()
}

func (tc *TelegramClient) sendMessage(text string) error {
	url := fmt.Sprintf("%s/bot%s/%s", tc.apiBaseURL, tc.botToken, "sendMessage")

	payload := map[string]interface{}{
		"chat_id":    tc.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := tc.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}

	return nil
}

// Close cleans up resources. Implements notifier.Notifier interface.
func (tc *TelegramClient) Close() error {
	return nil
}

func displayStatus(s string) string {
	if s == "" {
		return "UNKNOWN"
	}
	return s
}

// escapeMarkdown escapes special characters for Telegram Markdown.
func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"[", "\\[",
		"]", "\\]",
		"`", "\\`",
	)
	return replacer.Replace(s)
}
