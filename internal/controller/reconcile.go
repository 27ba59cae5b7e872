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
	"time"

	"go.uber.org/zap"

	"github.com/yourdungeon/dungeond/internal/registry"
)

// Reconcile rebuilds guild state from what actually exists under the
// managed category. It runs once per guild on startup, after a restart
// wiped the in-memory registry: occupied rooms are adopted with their
// first non-bot member as the inferred owner, and empty leftovers are
// deleted immediately rather than waiting out a timeout they may have
// already exceeded.
func (c *Controller) Reconcile(ctx context.Context, guildID string) error {
	log := c.log.With(zap.String("guild_id", guildID))

	categoryID, err := c.provider.FindOrCreateCategory(ctx, guildID, c.opts.Category)
	if err != nil {
		return err
	}
	infos, err := c.provider.ListCategoryVoiceRooms(ctx, guildID, categoryID)
	if err != nil {
		return err
	}

	adopted, swept := 0, 0
	for _, info := range infos {
		// The trigger channel may itself live under the category.
		if info.Name == c.opts.TriggerChannel {
			continue
		}
		if _, ok := c.rooms.Get(info.ID); ok {
			continue
		}

		members, err := c.provider.ListRoomMembers(ctx, guildID, info.ID)
		if err != nil {
			log.Warn("skipping unreadable room during reconcile",
				zap.String("room_id", info.ID), zap.Error(err))
			continue
		}

		var owner *registry.Room
		for _, m := range members {
			if m.Bot {
				continue
			}
			owner = &registry.Room{
				ID:        info.ID,
				GuildID:   guildID,
				OwnerID:   m.ID,
				OwnerName: m.DisplayName,
				CreatedAt: time.Now(),
			}
			break
		}

		if owner == nil {
			roomID := info.ID
			c.dispatch(roomID, func(log *zap.Logger) {
				// Re-check: a member may have joined between the listing
				// and this job running.
				n, err := c.nonBotOccupancy(context.Background(), guildID, roomID)
				if err != nil || n > 0 {
					return
				}
				if err := c.provider.DeleteVoiceRoom(context.Background(), roomID); err != nil {
					log.Error("failed to sweep orphaned room",
						zap.String("room_id", roomID), zap.Error(err))
				}
			})
			swept++
			continue
		}

		c.rooms.Put(*owner)
		adopted++
		log.Info("adopted existing dungeon",
			zap.String("room_id", owner.ID),
			zap.String("owner_id", owner.OwnerID),
		)
	}

	log.Info("reconcile complete",
		zap.Int("adopted", adopted),
		zap.Int("swept", swept),
	)
	return nil
}
