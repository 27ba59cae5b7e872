/*
Copyright (c) 2025 The Dungeond Authors

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/yourdungeon/dungeond/internal/platform"
)

// Embed colors per notice kind.
const (
	colorInfo    = 0x3498db
	colorSuccess = 0x2ecc71
	colorError   = 0xe74c3c
)

// Notifier renders notices as Discord embeds.
type Notifier struct {
	session *discordgo.Session
	retry   RetryConfig
}

func NewNotifier(session *discordgo.Session) *Notifier {
	return &Notifier{session: session, retry: defaultRetryConfig()}
}

var _ platform.Notifier = (*Notifier)(nil)

// Post sends the notice to channelID, or to the guild's most likely
// announcement channel when channelID is empty.
func (n *Notifier) Post(ctx context.Context, guildID, channelID string, notice platform.Notice) error {
	if channelID == "" {
		channels, err := n.guildChannels(ctx, guildID)
		if err != nil {
			return err
		}
		channelID = pickNoticeChannel(channels)
		if channelID == "" {
			return fmt.Errorf("guild %s has no text channel to post to", guildID)
		}
	}

	embed := &discordgo.MessageEmbed{
		Title:       notice.Title,
		Description: notice.Body,
		Color:       embedColor(notice.Kind),
	}
	return executeWithRetry(ctx, n.retry, func() error {
		_, err := n.session.ChannelMessageSendEmbed(channelID, embed)
		return err
	})
}

func (n *Notifier) guildChannels(ctx context.Context, guildID string) ([]*discordgo.Channel, error) {
	if guild, err := n.session.State.Guild(guildID); err == nil && len(guild.Channels) > 0 {
		return guild.Channels, nil
	}
	var channels []*discordgo.Channel
	err := executeWithRetry(ctx, n.retry, func() error {
		var err error
		channels, err = n.session.GuildChannels(guildID)
		return err
	})
	return channels, err
}

// pickNoticeChannel chooses the text channel to announce in: the first
// one whose name suggests general chatter or bot traffic, else the
// first text channel at all. Returns "" for a guild with none.
func pickNoticeChannel(channels []*discordgo.Channel) string {
	for _, hint := range []string{"general", "bot", "command"} {
		for _, ch := range channels {
			if ch.Type != discordgo.ChannelTypeGuildText {
				continue
			}
			if strings.Contains(strings.ToLower(ch.Name), hint) {
				return ch.ID
			}
		}
	}
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildText {
			return ch.ID
		}
	}
	return ""
}

func embedColor(kind platform.NoticeKind) int {
	switch kind {
	case platform.NoticeSuccess:
		return colorSuccess
	case platform.NoticeError:
		return colorError
	default:
		return colorInfo
	}
}
