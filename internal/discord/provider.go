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
	"errors"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/yourdungeon/dungeond/internal/platform"
)

// Provider implements platform.RoomProvider on a discordgo session.
type Provider struct {
	session *discordgo.Session
	retry   RetryConfig
	log     *zap.Logger
}

// NewProvider wraps an open (or about to be opened) session.
func NewProvider(session *discordgo.Session, log *zap.Logger) *Provider {
	return &Provider{
		session: session,
		retry:   defaultRetryConfig(),
		log:     log,
	}
}

var _ platform.RoomProvider = (*Provider)(nil)

func (p *Provider) CreateVoiceRoom(_ context.Context, guildID string, spec platform.RoomSpec) (string, error) {
	overwrites := make([]*discordgo.PermissionOverwrite, 0, len(spec.Overrides))
	for _, o := range spec.Overrides {
		ow := toOverwrite(guildID, o)
		overwrites = append(overwrites, &ow)
	}

	// Creation is a single shot, never retried: a timeout whose channel
	// was actually created would double-provision on retry. The caller
	// reports the failure and lets the member try again.
	ch, err := p.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 spec.Name,
		Type:                 discordgo.ChannelTypeGuildVoice,
		ParentID:             spec.CategoryID,
		PermissionOverwrites: overwrites,
	})
	if err != nil {
		return "", err
	}
	return ch.ID, nil
}

func (p *Provider) DeleteVoiceRoom(ctx context.Context, roomID string) error {
	err := executeWithRetry(ctx, p.retry, func() error {
		_, err := p.session.ChannelDelete(roomID)
		return err
	})
	// A channel someone else already removed is the outcome we wanted.
	if isUnknownChannel(err) {
		return nil
	}
	return err
}

func (p *Provider) RenameVoiceRoom(ctx context.Context, roomID, name string) error {
	return executeWithRetry(ctx, p.retry, func() error {
		_, err := p.session.ChannelEdit(roomID, &discordgo.ChannelEdit{Name: name})
		return err
	})
}

// channelLimitPatch always emits user_limit. ChannelEdit tags the
// field omitempty, which would turn "limit 0 = remove the cap" into an
// empty edit that leaves the old cap in place.
type channelLimitPatch struct {
	UserLimit int `json:"user_limit"`
}

func (p *Provider) SetUserLimit(ctx context.Context, roomID string, limit int) error {
	endpoint := discordgo.EndpointChannel(roomID)
	return executeWithRetry(ctx, p.retry, func() error {
		_, err := p.session.RequestWithBucketID(http.MethodPatch, endpoint, channelLimitPatch{UserLimit: limit}, endpoint)
		return err
	})
}

func (p *Provider) SetOverride(ctx context.Context, guildID, roomID string, o platform.Override) error {
	ow := toOverwrite(guildID, o)
	return executeWithRetry(ctx, p.retry, func() error {
		return p.session.ChannelPermissionSet(roomID, ow.ID, ow.Type, ow.Allow, ow.Deny)
	})
}

func (p *Provider) RemoveOverride(ctx context.Context, guildID, roomID, subjectID string) error {
	targetID := subjectID
	if subjectID == platform.EveryoneSubjectID {
		targetID = guildID
	}
	return executeWithRetry(ctx, p.retry, func() error {
		return p.session.ChannelPermissionDelete(roomID, targetID)
	})
}

func (p *Provider) MoveMember(ctx context.Context, guildID, memberID, roomID string) error {
	return executeWithRetry(ctx, p.retry, func() error {
		return p.session.GuildMemberMove(guildID, memberID, &roomID)
	})
}

func (p *Provider) DisconnectMember(ctx context.Context, guildID, memberID string) error {
	return executeWithRetry(ctx, p.retry, func() error {
		return p.session.GuildMemberMove(guildID, memberID, nil)
	})
}

func (p *Provider) ListRoomMembers(ctx context.Context, guildID, roomID string) ([]platform.Member, error) {
	memberIDs, err := p.roomMemberIDs(guildID, roomID)
	if err != nil {
		return nil, err
	}

	out := make([]platform.Member, 0, len(memberIDs))
	for _, id := range memberIDs {
		m, err := p.ResolveMember(ctx, guildID, id)
		if err != nil {
			p.log.Warn("could not resolve voice member",
				zap.String("member_id", id), zap.Error(err))
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (p *Provider) MemberVoiceRoom(_ context.Context, guildID, memberID string) (string, error) {
	guild, err := p.session.State.Guild(guildID)
	if err != nil {
		return "", err
	}
	p.session.State.RLock()
	defer p.session.State.RUnlock()
	for _, vs := range guild.VoiceStates {
		if vs.UserID == memberID && vs.ChannelID != "" {
			return vs.ChannelID, nil
		}
	}
	return "", platform.ErrNotFound
}

func (p *Provider) ResolveMember(ctx context.Context, guildID, memberID string) (platform.Member, error) {
	if m, err := p.session.State.Member(guildID, memberID); err == nil {
		return toMember(m), nil
	}

	var m *discordgo.Member
	err := executeWithRetry(ctx, p.retry, func() error {
		var err error
		m, err = p.session.GuildMember(guildID, memberID)
		return err
	})
	if err != nil {
		if isNotFoundStatus(err) {
			return platform.Member{}, platform.ErrNotFound
		}
		return platform.Member{}, err
	}
	return toMember(m), nil
}

func (p *Provider) FindOrCreateCategory(ctx context.Context, guildID, name string) (string, error) {
	channels, err := p.guildChannels(ctx, guildID)
	if err != nil {
		return "", err
	}
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildCategory && ch.Name == name {
			return ch.ID, nil
		}
	}

	var created *discordgo.Channel
	err = executeWithRetry(ctx, p.retry, func() error {
		var err error
		created, err = p.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
			Name: name,
			Type: discordgo.ChannelTypeGuildCategory,
		})
		return err
	})
	if err != nil {
		return "", err
	}
	return created.ID, nil
}

func (p *Provider) ListCategoryVoiceRooms(ctx context.Context, guildID, categoryID string) ([]platform.RoomInfo, error) {
	channels, err := p.guildChannels(ctx, guildID)
	if err != nil {
		return nil, err
	}
	var out []platform.RoomInfo
	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildVoice && ch.ParentID == categoryID {
			out = append(out, platform.RoomInfo{ID: ch.ID, Name: ch.Name})
		}
	}
	return out, nil
}

// guildChannels prefers the gateway state cache and falls back to REST
// when the guild is not cached yet.
func (p *Provider) guildChannels(ctx context.Context, guildID string) ([]*discordgo.Channel, error) {
	if guild, err := p.session.State.Guild(guildID); err == nil && len(guild.Channels) > 0 {
		return guild.Channels, nil
	}
	var channels []*discordgo.Channel
	err := executeWithRetry(ctx, p.retry, func() error {
		var err error
		channels, err = p.session.GuildChannels(guildID)
		return err
	})
	return channels, err
}

func (p *Provider) roomMemberIDs(guildID, roomID string) ([]string, error) {
	guild, err := p.session.State.Guild(guildID)
	if err != nil {
		return nil, err
	}
	p.session.State.RLock()
	defer p.session.State.RUnlock()
	var ids []string
	for _, vs := range guild.VoiceStates {
		if vs.ChannelID == roomID {
			ids = append(ids, vs.UserID)
		}
	}
	return ids, nil
}

// toOverwrite maps a platform override onto Discord's permission
// overwrite, translating the everyone pseudo subject to the guild's
// default role (whose ID equals the guild ID).
func toOverwrite(guildID string, o platform.Override) discordgo.PermissionOverwrite {
	targetID := o.SubjectID
	targetType := discordgo.PermissionOverwriteTypeMember
	if o.SubjectID == platform.EveryoneSubjectID {
		targetID = guildID
		targetType = discordgo.PermissionOverwriteTypeRole
	} else if o.Role {
		targetType = discordgo.PermissionOverwriteTypeRole
	}
	return discordgo.PermissionOverwrite{
		ID:    targetID,
		Type:  targetType,
		Allow: toPermissionBits(o.Allow),
		Deny:  toPermissionBits(o.Deny),
	}
}

func toPermissionBits(p platform.Permissions) int64 {
	var bits int64
	if p.ViewChannel {
		bits |= discordgo.PermissionViewChannel
	}
	if p.Connect {
		bits |= discordgo.PermissionVoiceConnect
	}
	if p.ManageChannel {
		bits |= discordgo.PermissionManageChannels
	}
	if p.MoveMembers {
		bits |= discordgo.PermissionVoiceMoveMembers
	}
	return bits
}

func toMember(m *discordgo.Member) platform.Member {
	display := m.Nick
	if display == "" && m.User != nil {
		display = m.User.GlobalName
	}
	if display == "" && m.User != nil {
		display = m.User.Username
	}
	member := platform.Member{DisplayName: display}
	if m.User != nil {
		member.ID = m.User.ID
		member.Username = m.User.Username
		member.Bot = m.User.Bot
	}
	return member
}

func isUnknownChannel(err error) bool {
	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) && restErr.Message != nil {
		return restErr.Message.Code == discordgo.ErrCodeUnknownChannel
	}
	return false
}

func isNotFoundStatus(err error) bool {
	var restErr *discordgo.RESTError
	return errors.As(err, &restErr) &&
		restErr.Response != nil &&
		restErr.Response.StatusCode == http.StatusNotFound
}
