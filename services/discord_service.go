package services

import (
	"fmt"
	"log"
	"strings"

	"github.com/bwmarrin/discordgo"

	"atlas/models"
)

// DiscordService mirrors fired webhook alerts into an operator channel.
// Without a token and channel it degrades to a disabled no-op, so callers
// never branch on configuration.
type DiscordService struct {
	session   *discordgo.Session
	channelID string
	enabled   bool
}

func NewDiscordService(token, channelID string) (*DiscordService, error) {
	if token == "" || channelID == "" {
		log.Println("Discord bot token or channel ID not provided, Discord notifications disabled")
		return &DiscordService{enabled: false}, nil
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("failed to open Discord connection: %w", err)
	}
	log.Printf("Discord bot connected, notifying channel %s", channelID)

	return &DiscordService{
		session:   session,
		channelID: channelID,
		enabled:   true,
	}, nil
}

func (d *DiscordService) Close() {
	if d != nil && d.enabled && d.session != nil {
		log.Println("Closing Discord bot connection...")
		d.session.Close()
	}
}

// NotifyAlerts posts a summary of the cycle's fired triggers. Best effort.
func (d *DiscordService) NotifyAlerts(matches []triggerMatch, current models.SnapshotHistoryEntry) {
	if d == nil || !d.enabled || len(matches) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString("**pNode alerts fired**\n")
	for _, m := range matches {
		fmt.Fprintf(&sb, "- `%s` %s: %s\n", m.config.ID, m.trigger.Type, m.reason)
	}
	fmt.Fprintf(&sb, "Fleet: %d nodes, %d healthy / %d warning / %d critical",
		current.TotalNodes, current.Healthy, current.Warning, current.Critical)

	if _, err := d.session.ChannelMessageSend(d.channelID, sb.String()); err != nil {
		log.Printf("Failed to send Discord alert notification: %v", err)
	}
}
