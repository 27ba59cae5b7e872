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

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/yourdungeon/dungeond/internal/platform"
)

// EventSink is the controller-side surface the bridge feeds.
type EventSink interface {
	HandleVoiceEvent(ev platform.VoiceEvent)
	HandleCommand(msg platform.CommandMessage)
	Reconcile(ctx context.Context, guildID string) error
}

// Intents returns the gateway intents the bridge needs: guild and
// channel structure, voice state changes, and message content for the
// command prefix.
func Intents() discordgo.Intent {
	return discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent
}

// Bridge registers gateway handlers on a session and translates raw
// Discord events into platform events for the sink.
type Bridge struct {
	session *discordgo.Session
	sink    EventSink
	log     *zap.Logger
}

// NewBridge attaches handlers to the session. Call before Open so the
// ready event is not missed.
func NewBridge(session *discordgo.Session, sink EventSink, log *zap.Logger) *Bridge {
	b := &Bridge{session: session, sink: sink, log: log}
	session.AddHandler(b.onReady)
	session.AddHandler(b.onVoiceStateUpdate)
	session.AddHandler(b.onMessageCreate)
	return b
}

func (b *Bridge) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info("gateway ready",
		zap.String("user", r.User.Username),
		zap.Int("guilds", len(r.Guilds)),
	)
	if err := s.UpdateWatchStatus(0, "the dungeon gates"); err != nil {
		b.log.Warn("failed to set presence", zap.Error(err))
	}

	// Guild channel lists arrive with guild-create events right after
	// ready, so reconcile off the handler goroutine.
	go func() {
		for _, g := range r.Guilds {
			if err := b.sink.Reconcile(context.Background(), g.ID); err != nil {
				b.log.Error("guild reconcile failed",
					zap.String("guild_id", g.ID), zap.Error(err))
			}
		}
	}()
}

func (b *Bridge) onVoiceStateUpdate(s *discordgo.Session, vsu *discordgo.VoiceStateUpdate) {
	if vsu.GuildID == "" {
		return
	}

	ev := platform.VoiceEvent{
		GuildID:       vsu.GuildID,
		MemberID:      vsu.UserID,
		CurrentRoomID: vsu.ChannelID,
	}
	if vsu.BeforeUpdate != nil {
		ev.PreviousRoomID = vsu.BeforeUpdate.ChannelID
	}
	if vsu.ChannelID != "" {
		if ch, err := s.State.Channel(vsu.ChannelID); err == nil {
			ev.CurrentRoomName = ch.Name
		}
	}
	b.sink.HandleVoiceEvent(ev)
}

func (b *Bridge) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	b.sink.HandleCommand(platform.CommandMessage{
		GuildID:    m.GuildID,
		ChannelID:  m.ChannelID,
		AuthorID:   m.Author.ID,
		AuthorName: m.Author.Username,
		Content:    m.Content,
	})
}
