package discord

import (
	"botdash/clients/notifier"
	"botdash/config"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

const (
	colorRunning = 0x2ECC71
	colorStopped = 0xE74C3C
)

// DiscordClient sends alerts to Discord.
// Implements notifier.Notifier interface.
type DiscordClient struct {
	logger    *zap.Logger
	session   *discordgo.Session
	channelID string
	isProd    bool
}

func NewDiscordClient(logger *zap.Logger, cfg *config.Config) *DiscordClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	channelID := cfg.Discord.BetaChannelID
	if cfg.IsProd {
		channelID = cfg.Discord.ProdChannelID
	}

	token := cfg.Discord.BotToken
	if token == "" {
		logger.Warn("DISCORD_BOT_TOKEN not set, Discord alerts disabled")
		return &DiscordClient{
			logger:    logger,
			channelID: channelID,
			isProd:    cfg.IsProd,
		}
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		logger.Error("failed to create discord session", zap.Error(err))
		return &DiscordClient{
			logger:    logger,
			channelID: channelID,
			isProd:    cfg.IsProd,
		}
	}

	logger.Info("discord bot initialized",
		zap.Bool("isProd", cfg.IsProd),
		zap.String("channelID", channelID),
	)

	return &DiscordClient{
		logger:    logger,
		session:   session,
		channelID: channelID,
		isProd:    cfg.IsProd,
	}
}

// Enabled reports whether alerts will actually be sent.
func (dc *DiscordClient) Enabled() bool {
	return dc.session != nil && dc.channelID != ""
}

// SendStatusAlert sends an embedded bot status alert.
// Implements notifier.Notifier interface.
func (dc *DiscordClient) SendStatusAlert(alert notifier.StatusAlert) {
	if dc.session == nil {
		dc.logger.Warn("discord session not initialized, skipping alert")
		return
	}

	embed := buildStatusEmbed(alert)

	_, err := dc.session.ChannelMessageSendEmbed(dc.channelID, embed)
	if err != nil {
		dc.logger.Error("failed to send discord embed", zap.Error(err))
		return
	}

	dc.logger.Info("sent discord status alert",
		zap.String("reason", string(alert.Reason)),
		zap.String("status", alert.Status),
	)
}

func buildStatusEmbed(alert notifier.StatusAlert) *discordgo.MessageEmbed {
	color := colorStopped
	if alert.Running() {
		color = colorRunning
	}

	ts := alert.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	fields := []*discordgo.MessageEmbedField{
		{
			Name:   "Status",
			Value:  fmt.Sprintf("%s → %s", displayStatus(alert.PreviousStatus), displayStatus(alert.Status)),
			Inline: false,
		},
		{
			Name:   "Total Trades",
			Value:  orDash(alert.TotalTrades),
			Inline: true,
		},
		{
			Name:   "Total P&L",
			Value:  orDash(alert.TotalPnL),
			Inline: true,
		},
		{
			Name:   "Avg P&L",
			Value:  orDash(alert.AvgPnL),
			Inline: true,
		},
	}

	footerText := fmt.Sprintf("botdash * %s", ts.Format("1/2/2006, 3:04:05PM (MST)"))
	if alert.SessionID != "" {
		footerText += " * session " + alert.SessionID
	}

	return &discordgo.MessageEmbed{
		Title:  alertTitle(alert.Reason),
		Color:  color,
		Fields: fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: footerText,
		},
		Timestamp: ts.Format(time.RFC3339),
	}
}

func alertTitle(reason notifier.AlertReason) string {
	switch reason {
	case notifier.AlertReasonBotStarted:
		return "🟢 Trading Bot Running"
	case notifier.AlertReasonBotStopped:
		return "🔴 Trading Bot Stopped"
	default:
		return "🚨 Bot Status Alert"
	}
}

func displayStatus(s string) string {
	if s == "" {
		return "UNKNOWN"
	}
	return s
}

// orDash keeps embed field values non-empty, which Discord requires.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// Close closes the Discord session.
func (dc *DiscordClient) Close() error {
	if dc.session != nil {
		return dc.session.Close()
	}
	return nil
}
