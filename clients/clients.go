package clients

import (
	"botdash/clients/botevents"
	"botdash/clients/discord"
	"botdash/clients/notifier"
	"botdash/clients/statsapi"
	"botdash/clients/telegram"
	"botdash/config"

	"go.uber.org/zap"
)

type Clients struct {
	Logger *zap.Logger

	Discord   *discord.DiscordClient
	Telegram  *telegram.TelegramClient
	Notifier  notifier.Notifier // Combined notifier for all channels
	Stats     *statsapi.StatsApiClient
	BotEvents *botevents.BotEventsClient
}

func NewClients(logger *zap.Logger, cfg *config.Config) *Clients {
	c := &Clients{
		Logger:    logger,
		Stats:     statsapi.NewStatsApiClient(logger, cfg),
		BotEvents: botevents.NewBotEventsClient(logger, cfg),
	}

	// Alert channels are only built when alerts are on
	if cfg.Alerts.Enabled {
		c.Discord = discord.NewDiscordClient(logger, cfg)
		c.Telegram = telegram.NewTelegramClient(logger, cfg)

		var active []notifier.Notifier
		if c.Discord.Enabled() {
			active = append(active, c.Discord)
		}
		if c.Telegram.Enabled() {
			active = append(active, c.Telegram)
		}
		c.Notifier = notifier.NewMultiNotifier(active...)
	} else {
		c.Notifier = notifier.NewMultiNotifier()
	}

	return c
}

// Close releases notifier resources.
func (c *Clients) Close() error {
	if c.Notifier == nil {
		return nil
	}
	return c.Notifier.Close()
}
