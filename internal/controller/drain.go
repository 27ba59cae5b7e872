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

	"go.uber.org/zap"
)

// Drain is the shutdown path. It stops all pending deletion timers,
// then deletes every tracked room that has no non-bot members left, so
// a restart does not inherit a pile of empty channels. Occupied rooms
// are left alone for Reconcile to re-adopt. Failures are logged and
// never block shutdown; ctx bounds the whole sweep.
func (c *Controller) Drain(ctx context.Context) {
	c.timers.CancelAll()

	for _, room := range c.rooms.Rooms() {
		if ctx.Err() != nil {
			c.log.Warn("drain aborted", zap.Error(ctx.Err()))
			return
		}
		log := c.log.With(zap.String("room_id", room.ID))

		n, err := c.nonBotOccupancy(ctx, room.GuildID, room.ID)
		if err != nil {
			log.Warn("occupancy check failed during drain", zap.Error(err))
			continue
		}
		if n > 0 {
			log.Info("leaving occupied dungeon for reconcile", zap.Int("members", n))
			continue
		}

		if err := c.provider.DeleteVoiceRoom(ctx, room.ID); err != nil {
			log.Error("failed to delete dungeon during drain", zap.Error(err))
			continue
		}
		c.rooms.Remove(room.ID)
		log.Info("deleted empty dungeon during drain")
	}
}
