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

package controller

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/yourdungeon/dungeond/internal/platform"
	"github.com/yourdungeon/dungeond/internal/registry"
)

const maxRoomNameLength = 100

// HandleCommand parses a text message and, when it carries a dungeon
// command, routes it onto the sender's room queue. Every outcome —
// success, authorization failure, validation failure, provider
// failure — is reported back to the originating text channel; nothing
// propagates out of this method.
func (c *Controller) HandleCommand(msg platform.CommandMessage) {
	name, args, ok := ParseCommand(c.opts.Prefix, msg.Content)
	if !ok {
		return
	}
	ctx := context.Background()

	// help is pure documentation and works anywhere.
	if name == "help" {
		c.dispatch("help/"+msg.AuthorID, func(log *zap.Logger) {
			c.sendHelp(ctx, msg)
		})
		return
	}

	roomID, err := c.provider.MemberVoiceRoom(ctx, msg.GuildID, msg.AuthorID)
	if err != nil {
		if !errors.Is(err, platform.ErrNotFound) {
			c.log.Warn("voice room lookup failed", zap.Error(err))
		}
		c.replyError(ctx, msg, "You must be in a dungeon voice channel to use dungeon commands.")
		return
	}

	c.dispatch(roomID, func(log *zap.Logger) {
		c.executeCommand(log, msg, name, args, roomID)
	})
}

func (c *Controller) executeCommand(log *zap.Logger, msg platform.CommandMessage, name string, args []string, roomID string) {
	ctx := context.Background()

	room, ok := c.rooms.Get(roomID)
	if !ok {
		c.replyError(ctx, msg, "That voice channel is not a dungeon. Commands only work inside dungeon voice channels.")
		return
	}

	log = log.With(
		zap.String("command", name),
		zap.String("room_id", room.ID),
		zap.String("author_id", msg.AuthorID),
	)
	isOwner := msg.AuthorID == room.OwnerID

	requireOwner := func(action string) bool {
		if isOwner {
			return true
		}
		log.Info("rejected non-owner command")
		c.replyError(ctx, msg, fmt.Sprintf("Only the dungeon owner can %s.", action))
		return false
	}

	switch name {
	case "owner", "info":
		c.reply(ctx, msg, platform.NoticeInfo, "👑 Dungeon Owner",
			fmt.Sprintf("**%s** owns this dungeon.", room.OwnerName))

	case "claim":
		c.cmdClaim(ctx, log, msg, room)

	case "lock":
		if requireOwner("lock the dungeon") {
			c.cmdLock(ctx, log, msg, room)
		}

	case "unlock":
		if requireOwner("unlock the dungeon") {
			c.cmdUnlock(ctx, log, msg, room)
		}

	case "invite":
		if requireOwner("invite users") {
			c.cmdInvite(ctx, log, msg, room, args)
		}

	case "kick":
		if requireOwner("kick users") {
			c.cmdKick(ctx, log, msg, room, args)
		}

	case "limit":
		if requireOwner("set user limits") {
			c.cmdLimit(ctx, log, msg, room, args)
		}

	case "rename":
		if requireOwner("rename the dungeon") {
			c.cmdRename(ctx, log, msg, room, args)
		}

	case "end":
		if requireOwner("end the dungeon") {
			c.cmdEnd(ctx, log, msg, room)
		}

	case "extend":
		c.cmdExtend(ctx, log, msg, room)

	default:
		c.replyError(ctx, msg, fmt.Sprintf(
			"Unknown command `%s`. Use `%shelp` for available commands.", name, c.opts.Prefix))
	}
}

// cmdClaim transfers ownership to the sender. It is allowed only while
// the sender is the last non-bot member present, which covers rooms
// adopted by the reconciliation sweep whose inferred owner has left.
func (c *Controller) cmdClaim(ctx context.Context, log *zap.Logger, msg platform.CommandMessage, room registry.Room) {
	n, err := c.nonBotOccupancy(ctx, room.GuildID, room.ID)
	if err != nil {
		c.replyProviderFailure(ctx, log, msg, err)
		return
	}
	if n > 1 {
		c.replyError(ctx, msg, "Cannot claim a dungeon that still has other users in it.")
		return
	}

	claimant, err := c.provider.ResolveMember(ctx, room.GuildID, msg.AuthorID)
	if err != nil {
		c.replyProviderFailure(ctx, log, msg, err)
		return
	}

	if room.OwnerID != claimant.ID {
		if err := c.provider.RemoveOverride(ctx, room.GuildID, room.ID, room.OwnerID); err != nil {
			c.replyProviderFailure(ctx, log, msg, err)
			return
		}
	}
	if err := c.provider.SetOverride(ctx, room.GuildID, room.ID, ownerOverride(claimant.ID)); err != nil {
		c.replyProviderFailure(ctx, log, msg, err)
		return
	}
	if err := c.provider.RenameVoiceRoom(ctx, room.ID, claimant.DisplayName+"'s Dungeon"); err != nil {
		log.Warn("renaming claimed dungeon failed", zap.Error(err))
	}

	c.rooms.Update(room.ID, func(r *registry.Room) {
		r.OwnerID = claimant.ID
		r.OwnerName = claimant.DisplayName
		r.Locked = false
		r.ClearInvites()
	})
	// Claiming implies occupancy.
	c.timers.Cancel(room.ID)

	log.Info("dungeon claimed",
		zap.String("old_owner_id", room.OwnerID),
		zap.String("new_owner_id", claimant.ID),
	)
	c.reply(ctx, msg, platform.NoticeSuccess, "👑 Dungeon Claimed!",
		fmt.Sprintf("**%s** has claimed this dungeon!", claimant.DisplayName))
}

func (c *Controller) cmdLock(ctx context.Context, log *zap.Logger, msg platform.CommandMessage, room registry.Room) {
	err := c.provider.SetOverride(ctx, room.GuildID, room.ID, platform.Override{
		SubjectID: platform.EveryoneSubjectID,
		Role:      true,
		Allow:     platform.Permissions{ViewChannel: true},
		Deny:      platform.Permissions{Connect: true},
	})
	if err != nil {
		c.replyProviderFailure(ctx, log, msg, err)
		return
	}
	c.rooms.Update(room.ID, func(r *registry.Room) { r.Locked = true })

	log.Info("dungeon locked")
	c.reply(ctx, msg, platform.NoticeSuccess, "🔒 Dungeon Locked",
		"This dungeon is now locked. Only invited users can join.")
}

func (c *Controller) cmdUnlock(ctx context.Context, log *zap.Logger, msg platform.CommandMessage, room registry.Room) {
	err := c.provider.SetOverride(ctx, room.GuildID, room.ID, platform.Override{
		SubjectID: platform.EveryoneSubjectID,
		Role:      true,
		Allow:     platform.Permissions{ViewChannel: true, Connect: true},
	})
	if err != nil {
		c.replyProviderFailure(ctx, log, msg, err)
		return
	}
	c.rooms.Update(room.ID, func(r *registry.Room) {
		r.Locked = false
		r.ClearInvites()
	})

	log.Info("dungeon unlocked")
	c.reply(ctx, msg, platform.NoticeSuccess, "🔓 Dungeon Unlocked",
		"This dungeon is now unlocked. Anyone can join.")
}

func (c *Controller) cmdInvite(ctx context.Context, log *zap.Logger, msg platform.CommandMessage, room registry.Room, args []string) {
	if len(args) == 0 {
		c.replyError(ctx, msg, fmt.Sprintf(
			"Please mention a user to invite. Example: `%sinvite @username`", c.opts.Prefix))
		return
	}
	targetID := ParseMention(args[0])
	if targetID == "" {
		c.replyError(ctx, msg, "Please mention a user to invite.")
		return
	}

	target, err := c.provider.ResolveMember(ctx, room.GuildID, targetID)
	if err != nil {
		if errors.Is(err, platform.ErrNotFound) {
			c.replyError(ctx, msg, "User not found.")
			return
		}
		c.replyProviderFailure(ctx, log, msg, err)
		return
	}

	err = c.provider.SetOverride(ctx, room.GuildID, room.ID, platform.Override{
		SubjectID: target.ID,
		Allow:     platform.Permissions{Connect: true},
	})
	if err != nil {
		c.replyProviderFailure(ctx, log, msg, err)
		return
	}
	// Duplicate invites are idempotent: the overwrite upsert and the
	// set insert both converge on the same state.
	c.rooms.Update(room.ID, func(r *registry.Room) { r.Invite(target.ID) })

	log.Info("invited user", zap.String("target_id", target.ID))
	c.reply(ctx, msg, platform.NoticeSuccess, "📨 User Invited",
		fmt.Sprintf("**%s** has been invited to the dungeon!", target.DisplayName))
}

func (c *Controller) cmdKick(ctx context.Context, log *zap.Logger, msg platform.CommandMessage, room registry.Room, args []string) {
	if len(args) == 0 {
		c.replyError(ctx, msg, fmt.Sprintf(
			"Please mention a user to kick. Example: `%skick @username`", c.opts.Prefix))
		return
	}
	targetID := ParseMention(args[0])

	members, err := c.provider.ListRoomMembers(ctx, room.GuildID, room.ID)
	if err != nil {
		c.replyProviderFailure(ctx, log, msg, err)
		return
	}
	var target *platform.Member
	for i := range members {
		if members[i].ID == targetID {
			target = &members[i]
			break
		}
	}
	if target == nil {
		c.replyError(ctx, msg, "User not found in this voice channel.")
		return
	}

	if err := c.provider.DisconnectMember(ctx, room.GuildID, target.ID); err != nil {
		c.replyProviderFailure(ctx, log, msg, err)
		return
	}

	log.Info("kicked user", zap.String("target_id", target.ID))
	c.reply(ctx, msg, platform.NoticeSuccess, "👢 User Kicked",
		fmt.Sprintf("**%s** has been kicked from the dungeon.", target.DisplayName))
}

func (c *Controller) cmdLimit(ctx context.Context, log *zap.Logger, msg platform.CommandMessage, room registry.Room, args []string) {
	invalid := func() {
		c.replyError(ctx, msg, "Please provide a number between 0 and 99. Use 0 for no limit.")
	}
	if len(args) == 0 {
		invalid()
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 0 || n > 99 {
		invalid()
		return
	}

	if err := c.provider.SetUserLimit(ctx, room.ID, n); err != nil {
		c.replyProviderFailure(ctx, log, msg, err)
		return
	}
	c.rooms.Update(room.ID, func(r *registry.Room) { r.UserLimit = n })

	display := strconv.Itoa(n)
	if n == 0 {
		display = "No limit"
	}
	log.Info("set user limit", zap.Int("limit", n))
	c.reply(ctx, msg, platform.NoticeSuccess, "👥 User Limit Updated",
		fmt.Sprintf("User limit set to: **%s**", display))
}

func (c *Controller) cmdRename(ctx context.Context, log *zap.Logger, msg platform.CommandMessage, room registry.Room, args []string) {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		c.replyError(ctx, msg, "Please provide a new name for the dungeon.")
		return
	}
	if utf8.RuneCountInString(name) > maxRoomNameLength {
		c.replyError(ctx, msg, fmt.Sprintf(
			"Dungeon name must be %d characters or less.", maxRoomNameLength))
		return
	}

	if err := c.provider.RenameVoiceRoom(ctx, room.ID, name); err != nil {
		c.replyProviderFailure(ctx, log, msg, err)
		return
	}

	log.Info("renamed dungeon", zap.String("new_name", name))
	c.reply(ctx, msg, platform.NoticeSuccess, "✏️ Dungeon Renamed",
		fmt.Sprintf("Dungeon renamed to: **%s**", name))
}

// cmdEnd confirms first, then deletes after a short grace so members
// see the notice before the channel disappears. The grace timer is
// deliberately not the inactivity timer: a member joining during the
// grace must not cancel a manual end.
func (c *Controller) cmdEnd(ctx context.Context, log *zap.Logger, msg platform.CommandMessage, room registry.Room) {
	c.reply(ctx, msg, platform.NoticeInfo, "🏁 Dungeon Ended",
		"This dungeon has been manually ended by the owner.")
	c.timers.Cancel(room.ID)

	log.Info("dungeon end scheduled", zap.Duration("grace", c.opts.EndGrace))
	time.AfterFunc(c.opts.EndGrace, func() {
		c.dispatch(room.ID, func(log *zap.Logger) {
			if current, ok := c.rooms.Get(room.ID); ok {
				c.deleteRoom(log, current)
			}
		})
	})
}

// cmdExtend re-arms a pending deletion with the full inactivity
// timeout. A pending timer with members present can only mean the
// remaining occupants are bots.
func (c *Controller) cmdExtend(ctx context.Context, log *zap.Logger, msg platform.CommandMessage, room registry.Room) {
	if !c.timers.IsArmed(room.ID) {
		c.reply(ctx, msg, platform.NoticeInfo, "⏱️ Nothing to Extend",
			"No deletion is pending for this dungeon.")
		return
	}
	c.timers.Arm(room.ID, c.opts.InactivityTimeout, func() {
		c.onDeletionTimer(room.GuildID, room.ID)
	})

	log.Info("extended deletion timer", zap.Duration("after", c.opts.InactivityTimeout))
	c.reply(ctx, msg, platform.NoticeSuccess, "⏱️ Deletion Postponed",
		fmt.Sprintf("The dungeon will now stay for another %s.", c.opts.InactivityTimeout))
}

func (c *Controller) sendHelp(ctx context.Context, msg platform.CommandMessage) {
	body := fmt.Sprintf("**Prefix:** `%s`\n\n", c.opts.Prefix) +
		"**General commands**\n" +
		"`help` - Show this help message\n" +
		"`owner` - Display the current dungeon owner\n" +
		"`claim` - Claim a dungeon you are alone in\n" +
		"`extend` - Postpone a pending deletion\n\n" +
		"**Owner only**\n" +
		"`lock` - Lock the dungeon from public access\n" +
		"`unlock` - Unlock the dungeon for anyone to join\n" +
		"`invite @user` - Allow a user to join a locked dungeon\n" +
		"`kick @user` - Disconnect a user from the dungeon\n" +
		"`limit <0-99>` - Set the max number of users (0 = no limit)\n" +
		"`rename <name>` - Rename the dungeon\n" +
		"`end` - Delete your dungeon now"
	c.reply(ctx, msg, platform.NoticeInfo, "🏰 Dungeon Commands", body)
}

func (c *Controller) reply(ctx context.Context, msg platform.CommandMessage, kind platform.NoticeKind, title, body string) {
	c.notify(ctx, msg.GuildID, msg.ChannelID, platform.Notice{Kind: kind, Title: title, Body: body})
}

func (c *Controller) replyError(ctx context.Context, msg platform.CommandMessage, body string) {
	c.reply(ctx, msg, platform.NoticeError, "❌ Error", body)
}

func (c *Controller) replyProviderFailure(ctx context.Context, log *zap.Logger, msg platform.CommandMessage, err error) {
	log.Error("provider operation failed", zap.Error(err))
	c.replyError(ctx, msg, "Something went wrong talking to Discord. Please try again.")
}
