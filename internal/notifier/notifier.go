// Package notifier announces finalized activity decisions to a chat channel.
package notifier

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/pkordes/trip-planner/backend/internal/domain"
)

// Decision is the outcome of finalizing one activity.
type Decision struct {
	TripName      string
	ActivityTitle string
	Status        domain.Status
	Tally         domain.Tally
}

// Notifier is told about every successful finalize.
type Notifier interface {
	NotifyDecision(ctx context.Context, d Decision) error
}

// Nop discards every notification. It is used when no chat channel is configured.
type Nop struct{}

func (Nop) NotifyDecision(context.Context, Decision) error { return nil }

// messageSender is the subset of *discordgo.Session the notifier needs.
type messageSender interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// DiscordNotifier posts decisions to a single Discord channel.
type DiscordNotifier struct {
	session   messageSender
	channelID string
}

// NewDiscordNotifier returns a notifier that posts through session into channelID.
func NewDiscordNotifier(session messageSender, channelID string) *DiscordNotifier {
	return &DiscordNotifier{session: session, channelID: channelID}
}

// New builds the notifier for the given credentials. Either value empty yields Nop.
func New(token, channelID string) (Notifier, error) {
	if token == "" || channelID == "" {
		return Nop{}, nil
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("notifier.New: %w", err)
	}
	return NewDiscordNotifier(s, channelID), nil
}

func (n *DiscordNotifier) NotifyDecision(ctx context.Context, d Decision) error {
	if n.session == nil {
		return fmt.Errorf("notifier.DiscordNotifier.NotifyDecision: discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("notifier.DiscordNotifier.NotifyDecision: discord channel ID is empty")
	}

	_, err := n.session.ChannelMessageSend(n.channelID, FormatDecision(d), discordgo.WithContext(ctx))
	if err != nil {
		slog.WarnContext(ctx, "discord message failed", "error", err, "channel_id", n.channelID)
		return fmt.Errorf("notifier.DiscordNotifier.NotifyDecision: %w", err)
	}
	return nil
}

// FormatDecision renders d as a chat message.
func FormatDecision(d Decision) string {
	verdict := "stays pending"
	if d.Status == domain.StatusConfirmed {
		verdict = "is confirmed"
	}
	return fmt.Sprintf("**%s**: \"%s\" %s (%d yes / %d no)",
		d.TripName, d.ActivityTitle, verdict, d.Tally.Yes, d.Tally.No)
}
