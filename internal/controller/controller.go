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
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourdungeon/dungeond/internal/cleanup"
	"github.com/yourdungeon/dungeond/internal/platform"
	"github.com/yourdungeon/dungeond/internal/registry"
)

// Options configures a Controller.
type Options struct {
	// Prefix is the command prefix, including any trailing space.
	Prefix string
	// TriggerChannel is the display name of the voice channel whose
	// entry provisions a new dungeon.
	TriggerChannel string
	// Category is the display name of the category dungeons live under.
	Category string
	// InactivityTimeout is how long a dungeon may stay empty before
	// deletion. Defaults to 2 minutes.
	InactivityTimeout time.Duration
	// EndGrace is the delay between the end command's confirmation and
	// the actual deletion. Defaults to 3 seconds.
	EndGrace time.Duration
}

// Controller owns the room registry and the deletion scheduler and is
// the only component that mutates either.
type Controller struct {
	opts     Options
	rooms    *registry.Registry
	timers   *cleanup.Scheduler
	provider platform.RoomProvider
	notifier platform.Notifier
	log      *zap.Logger
	queue    *keyedQueue
	fatal    chan error
}

// New builds a controller with an empty registry. The provider and
// notifier are the platform collaborators; the controller never talks
// to Discord except through them.
func New(opts Options, provider platform.RoomProvider, notifier platform.Notifier, log *zap.Logger) *Controller {
	if opts.InactivityTimeout <= 0 {
		opts.InactivityTimeout = 2 * time.Minute
	}
	if opts.EndGrace <= 0 {
		opts.EndGrace = 3 * time.Second
	}
	return &Controller{
		opts:     opts,
		rooms:    registry.New(),
		timers:   cleanup.NewScheduler(),
		provider: provider,
		notifier: notifier,
		log:      log,
		queue:    newKeyedQueue(),
		fatal:    make(chan error, 1),
	}
}

// Fatal delivers the first unrecoverable handler failure. The process
// is expected to drain and exit when it fires.
func (c *Controller) Fatal() <-chan error {
	return c.fatal
}

// HandleVoiceEvent routes a presence change onto the per-room queues.
// A single event can touch up to three keys: the creation key for a
// trigger join, the room the member left, and the room they joined.
func (c *Controller) HandleVoiceEvent(ev platform.VoiceEvent) {
	if ev.CurrentRoomID != "" && ev.CurrentRoomName == c.opts.TriggerChannel {
		c.dispatch("create/"+ev.GuildID+"/"+ev.MemberID, func(log *zap.Logger) {
			c.createDungeon(log, ev)
		})
	}
	if ev.PreviousRoomID != "" && ev.PreviousRoomID != ev.CurrentRoomID {
		roomID := ev.PreviousRoomID
		guildID := ev.GuildID
		c.dispatch(roomID, func(log *zap.Logger) {
			c.handleRoomLeft(log, guildID, roomID)
		})
	}
	if ev.CurrentRoomID != "" {
		roomID := ev.CurrentRoomID
		c.dispatch(roomID, func(log *zap.Logger) {
			c.handleRoomJoined(log, roomID)
		})
	}
}

// dispatch enqueues fn on the key's FIFO lane with a correlation ID in
// its logger. Panics are recovered here: the failure is logged and
// surfaced on Fatal rather than taking down the gateway goroutine or
// silently corrupting room state.
func (c *Controller) dispatch(key string, fn func(log *zap.Logger)) {
	log := c.log.With(
		zap.String("event_id", uuid.NewString()),
		zap.String("key", key),
	)
	c.queue.Dispatch(key, func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic in event handler",
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()),
				)
				select {
				case c.fatal <- fmt.Errorf("panic in event handler: %v", r):
				default:
				}
			}
		}()
		fn(log)
	})
}

// createDungeon provisions a room for a member who entered the trigger
// channel. Creation failures are reported and never retried: a stale
// retry after the member gave up could double-provision.
func (c *Controller) createDungeon(log *zap.Logger, ev platform.VoiceEvent) {
	ctx := context.Background()

	member, err := c.provider.ResolveMember(ctx, ev.GuildID, ev.MemberID)
	if err != nil {
		log.Error("resolving trigger member failed", zap.Error(err))
		return
	}
	if member.Bot {
		return
	}

	categoryID, err := c.provider.FindOrCreateCategory(ctx, ev.GuildID, c.opts.Category)
	if err != nil {
		log.Warn("creating dungeon without a category", zap.Error(err))
		categoryID = ""
	}

	name := member.DisplayName + "'s Dungeon"
	spec := platform.RoomSpec{
		Name:       name,
		CategoryID: categoryID,
		Overrides: []platform.Override{
			{
				SubjectID: platform.EveryoneSubjectID,
				Role:      true,
				Allow:     platform.Permissions{ViewChannel: true, Connect: true},
			},
			ownerOverride(member.ID),
		},
	}

	roomID, err := c.provider.CreateVoiceRoom(ctx, ev.GuildID, spec)
	if err != nil {
		log.Error("dungeon creation failed", zap.Error(err))
		c.notify(ctx, ev.GuildID, "", platform.Notice{
			Kind:  platform.NoticeError,
			Title: "❌ Failed to Create Dungeon",
			Body: fmt.Sprintf(
				"Sorry %s, I couldn't create your dungeon. Please ask an administrator to check my permissions.",
				member.DisplayName),
		})
		return
	}

	c.rooms.Put(registry.Room{
		ID:        roomID,
		GuildID:   ev.GuildID,
		OwnerID:   member.ID,
		OwnerName: member.DisplayName,
		CreatedAt: time.Now(),
	})

	if err := c.provider.MoveMember(ctx, ev.GuildID, member.ID, roomID); err != nil {
		log.Warn("could not move member into new dungeon", zap.Error(err))
		// The room starts empty and no leave event will ever arrive for
		// it, so the inactivity timer must be armed here. A manual join
		// cancels it as usual.
		c.timers.Arm(roomID, c.opts.InactivityTimeout, func() {
			c.onDeletionTimer(ev.GuildID, roomID)
		})
	}

	c.notify(ctx, ev.GuildID, "", platform.Notice{
		Kind:  platform.NoticeSuccess,
		Title: "🏰 Dungeon Created",
		Body: fmt.Sprintf(
			"**%s** has created a dungeon: **%s**\n\nJoin the voice channel and use `%shelp` to see available commands. "+
				"The dungeon auto-deletes after %s of inactivity.",
			member.DisplayName, name, c.opts.Prefix, c.opts.InactivityTimeout),
	})

	log.Info("created dungeon",
		zap.String("room_id", roomID),
		zap.String("owner_id", member.ID),
	)
}

// handleRoomLeft arms the deletion timer when a tracked room has just
// lost its last non-bot member.
func (c *Controller) handleRoomLeft(log *zap.Logger, guildID, roomID string) {
	if _, ok := c.rooms.Get(roomID); !ok {
		return
	}
	n, err := c.nonBotOccupancy(context.Background(), guildID, roomID)
	if err != nil {
		log.Warn("occupancy check failed", zap.Error(err))
		return
	}
	if n > 0 {
		return
	}
	c.timers.Arm(roomID, c.opts.InactivityTimeout, func() {
		c.onDeletionTimer(guildID, roomID)
	})
	log.Info("armed deletion timer",
		zap.String("room_id", roomID),
		zap.Duration("after", c.opts.InactivityTimeout),
	)
}

// handleRoomJoined cancels any pending deletion for a tracked room
// someone just entered.
func (c *Controller) handleRoomJoined(log *zap.Logger, roomID string) {
	if _, ok := c.rooms.Get(roomID); !ok {
		return
	}
	if c.timers.Cancel(roomID) {
		log.Info("cancelled deletion timer", zap.String("room_id", roomID))
	}
}

// onDeletionTimer runs on the scheduler's goroutine and re-enters the
// per-room queue, so the deletion is ordered against any join that is
// already being processed for the room.
func (c *Controller) onDeletionTimer(guildID, roomID string) {
	c.dispatch(roomID, func(log *zap.Logger) {
		room, ok := c.rooms.Get(roomID)
		if !ok {
			return
		}
		// A join may have slipped in between the timer firing and this
		// callback running; an occupied room must never be reclaimed.
		n, err := c.nonBotOccupancy(context.Background(), guildID, roomID)
		if err == nil && n > 0 {
			log.Info("skipping deletion of reoccupied dungeon", zap.String("room_id", roomID))
			return
		}
		c.deleteRoom(log, room)
	})
}

// deleteRoom is the single deletion path used by the inactivity timer,
// the end command, and the sweeps. On provider failure the registry
// entry is kept so a later presence event can arm a fresh attempt.
func (c *Controller) deleteRoom(log *zap.Logger, room registry.Room) {
	if err := c.provider.DeleteVoiceRoom(context.Background(), room.ID); err != nil {
		log.Error("failed to delete dungeon", zap.String("room_id", room.ID), zap.Error(err))
		return
	}
	c.rooms.Remove(room.ID)
	c.timers.Cancel(room.ID)
	log.Info("deleted dungeon",
		zap.String("room_id", room.ID),
		zap.String("owner_id", room.OwnerID),
	)
}

func (c *Controller) nonBotOccupancy(ctx context.Context, guildID, roomID string) (int, error) {
	members, err := c.provider.ListRoomMembers(ctx, guildID, roomID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, m := range members {
		if !m.Bot {
			n++
		}
	}
	return n, nil
}

// ownerOverride is the elevated permission set a dungeon owner holds
// on their room.
func ownerOverride(memberID string) platform.Override {
	return platform.Override{
		SubjectID: memberID,
		Allow: platform.Permissions{
			ViewChannel:   true,
			Connect:       true,
			ManageChannel: true,
			MoveMembers:   true,
		},
	}
}

// notify posts a notice and logs delivery failures. Notices are never
// allowed to block or fail the state transition that produced them.
func (c *Controller) notify(ctx context.Context, guildID, channelID string, n platform.Notice) {
	if err := c.notifier.Post(ctx, guildID, channelID, n); err != nil {
		c.log.Warn("failed to post notice",
			zap.String("title", n.Title),
			zap.Error(err),
		)
	}
}
