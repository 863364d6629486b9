package bot

import (
	"context"
	"fmt"
	"time"

	"reflector/events"
	"reflector/models"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// webhookExecutor is the part of discordgo.Session the announcer needs
type webhookExecutor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Announcer posts game announcements to a Discord webhook
type Announcer struct {
	session   webhookExecutor
	webhookID string
	token     string
	username  string
	now       func() time.Time
}

// NewAnnouncer creates an announcer for the given webhook. Webhooks need no bot token.
func NewAnnouncer(webhookID, token string) (*Announcer, error) {
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	return newAnnouncer(session, webhookID, token), nil
}

func newAnnouncer(session webhookExecutor, webhookID, token string) *Announcer {
	return &Announcer{
		session:   session,
		webhookID: webhookID,
		token:     token,
		username:  "Reflect",
		now:       time.Now,
	}
}

// HandleEvent is an events.Handler announcing new, full and completed games
func (a *Announcer) HandleEvent(ctx context.Context, event events.Event) {
	embed := a.embedFor(event)
	if embed == nil {
		return
	}

	if err := a.post(ctx, embed); err != nil {
		log.WithError(err).WithField("eventType", event.Type()).Error("Failed to post Discord announcement")
	}
}

// embedFor returns nil for events that are not announced
func (a *Announcer) embedFor(event events.Event) *discordgo.MessageEmbed {
	now := a.now()

	switch e := event.(type) {
	case events.GameCreatedEvent:
		return createGameCreatedEmbed(e, now)
	case events.PlayerJoinedEvent:
		if e.PlayerCount < models.MaxPlayers {
			return nil
		}
		return createGameFullEmbed(e, now)
	case events.GameStatusChangedEvent:
		if e.NewStatus != models.GameStatusCompleted {
			return nil
		}
		return createGameCompletedEmbed(e, now)
	default:
		return nil
	}
}

func (a *Announcer) post(ctx context.Context, embed *discordgo.MessageEmbed) error {
	_, err := a.session.WebhookExecute(a.webhookID, a.token, false, &discordgo.WebhookParams{
		Username: a.username,
		Embeds:   []*discordgo.MessageEmbed{embed},
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to execute webhook: %w", err)
	}

	log.WithField("title", embed.Title).Debug("Posted Discord announcement")
	return nil
}
