package discord

import (
	"errors"
	"net/http"
	"sort"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"guildpulse/internal/bot"
	"guildpulse/internal/platform"
)

const ephemeralFlag = discordgo.MessageFlagsEphemeral

var adminPermission int64 = discordgo.PermissionAdministrator

var optionTypes = map[bot.OptionType]discordgo.ApplicationCommandOptionType{
	bot.OptionString:  discordgo.ApplicationCommandOptionString,
	bot.OptionInteger: discordgo.ApplicationCommandOptionInteger,
	bot.OptionUser:    discordgo.ApplicationCommandOptionUser,
	bot.OptionChannel: discordgo.ApplicationCommandOptionChannel,
}

// commandDefinitions converts the bot command catalogue into application
// commands. Admin commands are hidden from members without the permission.
func commandDefinitions(specs []bot.CommandSpec) []*discordgo.ApplicationCommand {
	out := make([]*discordgo.ApplicationCommand, 0, len(specs))
	for _, spec := range specs {
		cmd := &discordgo.ApplicationCommand{Name: spec.Name, Description: spec.Description}
		if spec.Admin {
			cmd.DefaultMemberPermissions = &adminPermission
		}
		for _, o := range spec.Options {
			opt := &discordgo.ApplicationCommandOption{
				Type:        optionTypes[o.Type],
				Name:        o.Name,
				Description: o.Description,
				Required:    o.Required,
			}
			if o.Type == bot.OptionInteger && o.MaxValue > 0 {
				minValue := float64(o.MinValue)
				opt.MinValue = &minValue
				opt.MaxValue = float64(o.MaxValue)
			}
			if o.Type == bot.OptionChannel {
				opt.ChannelTypes = []discordgo.ChannelType{discordgo.ChannelTypeGuildText}
			}
			cmd.Options = append(cmd.Options, opt)
		}
		out = append(out, cmd)
	}
	return out
}

func toEmbed(e *platform.Embed) *discordgo.MessageEmbed {
	if e == nil {
		return nil
	}
	out := &discordgo.MessageEmbed{Title: e.Title, Description: e.Description, Color: e.Color}
	if e.AuthorName != "" {
		out.Author = &discordgo.MessageEmbedAuthor{Name: e.AuthorName, IconURL: e.AuthorIconURL}
	}
	if e.ThumbnailURL != "" {
		out.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: e.ThumbnailURL}
	}
	if e.Footer != "" {
		out.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
	}
	for _, f := range e.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	return out
}

func embeds(e *platform.Embed) []*discordgo.MessageEmbed {
	if e == nil {
		return nil
	}
	return []*discordgo.MessageEmbed{toEmbed(e)}
}

// guildCounts counts members, non-offline presences and voice connections
// from the cached guild state.
func guildCounts(g *discordgo.Guild) platform.GuildCounts {
	counts := platform.GuildCounts{Members: g.MemberCount}
	for _, p := range g.Presences {
		if p.Status != "" && p.Status != discordgo.StatusOffline {
			counts.Online++
		}
	}
	for _, v := range g.VoiceStates {
		if v.ChannelID != "" {
			counts.Voice++
		}
	}
	return counts
}

// memberColor is the color of the highest positioned colored role.
func memberColor(g *discordgo.Guild, m *discordgo.Member) int {
	held := make(map[string]bool, len(m.Roles))
	for _, id := range m.Roles {
		held[id] = true
	}
	color, position := 0, -1
	for _, r := range g.Roles {
		if held[r.ID] && r.Color != 0 && r.Position > position {
			color, position = r.Color, r.Position
		}
	}
	return color
}

// displayName is the global display name, else the account name.
func displayName(u *discordgo.User) string {
	if u.GlobalName != "" {
		return u.GlobalName
	}
	return u.Username
}

func memberName(m *discordgo.Member) string {
	if m.Nick != "" {
		return m.Nick
	}
	if m.User == nil {
		return ""
	}
	return displayName(m.User)
}

func toUser(g *discordgo.Guild, m *discordgo.Member) platform.User {
	u := platform.User{ID: m.User.ID, DisplayName: memberName(m), AvatarURL: m.AvatarURL(""), Bot: m.User.Bot}
	if g != nil {
		u.Color = memberColor(g, m)
	}
	return u
}

// notificationChannel is the system channel, else the first text channel by position.
func notificationChannel(g *discordgo.Guild) (string, bool) {
	if g.SystemChannelID != "" {
		return g.SystemChannelID, true
	}
	var text []*discordgo.Channel
	for _, c := range g.Channels {
		if c.Type == discordgo.ChannelTypeGuildText {
			text = append(text, c)
		}
	}
	if len(text) == 0 {
		return "", false
	}
	sort.SliceStable(text, func(i, j int) bool { return text[i].Position < text[j].Position })
	return text[0].ID, true
}

func commandOptions(data discordgo.ApplicationCommandInteractionData) (map[string]string, string) {
	opts := make(map[string]string, len(data.Options))
	targetID := ""
	for _, o := range data.Options {
		switch o.Type {
		case discordgo.ApplicationCommandOptionString:
			opts[o.Name] = o.StringValue()
		case discordgo.ApplicationCommandOptionInteger:
			opts[o.Name] = strconv.FormatInt(o.IntValue(), 10)
		case discordgo.ApplicationCommandOptionChannel, discordgo.ApplicationCommandOptionUser:
			id, _ := o.Value.(string)
			opts[o.Name] = id
			if o.Type == discordgo.ApplicationCommandOptionUser {
				targetID = id
			}
		}
	}
	return opts, targetID
}

// resolvedUser builds the target of a user option from the interaction payload.
func resolvedUser(data discordgo.ApplicationCommandInteractionData, userID string) (platform.User, bool) {
	if data.Resolved == nil {
		return platform.User{}, false
	}
	u, ok := data.Resolved.Users[userID]
	if !ok {
		return platform.User{}, false
	}
	out := platform.User{ID: u.ID, DisplayName: displayName(u), AvatarURL: u.AvatarURL(""), Bot: u.Bot}
	if m, ok := data.Resolved.Members[userID]; ok {
		m.User = u
		out.DisplayName = memberName(m)
		out.AvatarURL = m.AvatarURL("")
	}
	return out, true
}

func hasPermission(perms, want int64) bool {
	return perms&discordgo.PermissionAdministrator != 0 || perms&want != 0
}

// translateErr maps unknown entities to platform.ErrNotFound.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, discordgo.ErrStateNotFound) {
		return errors.Join(platform.ErrNotFound, err)
	}
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound {
		return errors.Join(platform.ErrNotFound, err)
	}
	return err
}
