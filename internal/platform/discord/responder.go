package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"guildpulse/internal/platform"
)

type interactionResponder struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction
}

func (r *interactionResponder) Reply(ctx context.Context, msg platform.Message) error {
	data := &discordgo.InteractionResponseData{Content: msg.Content, Embeds: embeds(msg.Embed)}
	if msg.Ephemeral {
		data.Flags = ephemeralFlag
	}
	return r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}, discordgo.WithContext(ctx))
}

func (r *interactionResponder) Defer(ctx context.Context, ephemeral bool) error {
	resp := &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredChannelMessageWithSource}
	if ephemeral {
		resp.Data = &discordgo.InteractionResponseData{Flags: ephemeralFlag}
	}
	return r.session.InteractionRespond(r.interaction, resp, discordgo.WithContext(ctx))
}

func (r *interactionResponder) Followup(ctx context.Context, msg platform.Message) error {
	params := &discordgo.WebhookParams{Content: msg.Content, Embeds: embeds(msg.Embed)}
	if msg.Ephemeral {
		params.Flags = ephemeralFlag
	}
	_, err := r.session.FollowupMessageCreate(r.interaction, true, params, discordgo.WithContext(ctx))
	return err
}
