package bot

import (
	"fmt"
	"time"

	"reflector/events"
	"reflector/models"

	"github.com/bwmarrin/discordgo"
)

const (
	colorOpen      = 0x2ECC71 // Green
	colorFull      = 0xF1C40F // Yellow
	colorCompleted = 0x9B59B6 // Purple
)

// Discord embed limits
const (
	maxTitleLength = 256
	maxFieldLength = 1024
)

func createGameCreatedEmbed(e events.GameCreatedEvent, at time.Time) *discordgo.MessageEmbed {
	owner := e.OwnerName
	if owner == "" {
		owner = "anonymous"
	}

	return &discordgo.MessageEmbed{
		Title:       truncate(fmt.Sprintf("New game: %s", e.Name), maxTitleLength),
		Description: "Two seats open. Join as a player or stake on the outcome.",
		Color:       colorOpen,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Joining amount", Value: FormatAmount(e.JoiningAmount), Inline: true},
			{Name: "Created by", Value: truncate(owner, maxFieldLength), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Game ID: %d", e.GameID),
		},
		Timestamp: at.Format(time.RFC3339),
	}
}

func createGameFullEmbed(e events.PlayerJoinedEvent, at time.Time) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       truncate(fmt.Sprintf("%s is full", e.GameName), maxTitleLength),
		Description: fmt.Sprintf("**%s** took the last seat. Stakes stay open until the game starts.", e.PlayerName),
		Color:       colorFull,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Players", Value: fmt.Sprintf("%d/%d", e.PlayerCount, models.MaxPlayers), Inline: true},
			{Name: "Total pool", Value: FormatAmount(e.TotalPool), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Game ID: %d", e.GameID),
		},
		Timestamp: at.Format(time.RFC3339),
	}
}

func createGameCompletedEmbed(e events.GameStatusChangedEvent, at time.Time) *discordgo.MessageEmbed {
	outcome := "undecided"
	if e.FinalOutcome != nil {
		outcome = describeOutcome(*e.FinalOutcome)
	}

	return &discordgo.MessageEmbed{
		Title:       truncate(fmt.Sprintf("%s is over", e.GameName), maxTitleLength),
		Description: fmt.Sprintf("**%s**", outcome),
		Color:       colorCompleted,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Total pool", Value: FormatAmount(e.TotalPool), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Game ID: %d", e.GameID),
		},
		Timestamp: at.Format(time.RFC3339),
	}
}

func describeOutcome(o models.GameOutcome) string {
	switch o {
	case models.GameOutcomeShareShare:
		return "Both players shared"
	case models.GameOutcomeGrabGrab:
		return "Both players grabbed"
	case models.GameOutcomeGrabShare:
		return "Player one grabbed, player two shared"
	case models.GameOutcomeShareGrab:
		return "Player one shared, player two grabbed"
	default:
		return string(o)
	}
}
