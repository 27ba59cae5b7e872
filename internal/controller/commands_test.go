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

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/yourdungeon/dungeond/internal/platform"
	"github.com/yourdungeon/dungeond/internal/registry"
)

var _ = Describe("Dungeon commands", func() {
	var (
		h    *harness
		room registry.Room
	)

	BeforeEach(func() {
		h = newHarness()
		room = h.joinTrigger(alice)
	})

	Describe("preconditions", func() {
		It("rejects commands from members not in voice", func() {
			h.provider.addMember(bob)
			h.command(bob, ".d lock")
			Eventually(h.notifier.lastBody, waitFor, tick).Should(
				ContainSubstring("must be in a dungeon voice channel"))
		})

		It("rejects commands from a non-dungeon voice channel", func() {
			h.provider.addMember(bob)
			h.provider.setVoice(bob.ID, "some-other-channel")
			h.command(bob, ".d lock")
			Eventually(h.notifier.lastBody, waitFor, tick).Should(
				ContainSubstring("not a dungeon"))
		})

		It("answers help even outside voice", func() {
			h.provider.addMember(bob)
			h.command(bob, ".d help")
			Eventually(h.notifier.titles, waitFor, tick).Should(ContainElement("🏰 Dungeon Commands"))
		})

		It("ignores messages without the prefix", func() {
			before := h.notifier.count()
			h.command(alice, "hello world")
			h.command(alice, ".dlock")
			Consistently(h.notifier.count, 100*time.Millisecond, tick).Should(Equal(before))
		})

		It("reports unknown commands", func() {
			h.command(alice, ".d frobnicate")
			Eventually(h.notifier.lastBody, waitFor, tick).Should(
				ContainSubstring("Unknown command `frobnicate`"))
		})
	})

	Describe("owner gating", func() {
		BeforeEach(func() {
			h.join(bob, room.ID)
		})

		It("rejects owner-only commands from non-owners", func() {
			for _, cmd := range []string{".d lock", ".d unlock", ".d invite @x", ".d kick @x", ".d limit 5", ".d rename x", ".d end"} {
				h.command(bob, cmd)
				Eventually(h.notifier.lastBody, waitFor, tick).Should(
					ContainSubstring("Only the dungeon owner"))
			}
			_, exists := h.provider.room(room.ID)
			Expect(exists).To(BeTrue())
		})

		It("answers owner lookups from anyone present", func() {
			h.command(bob, ".d owner")
			Eventually(h.notifier.lastBody, waitFor, tick).Should(ContainSubstring("**Alice** owns this dungeon."))
		})
	})

	Describe("lock and unlock", func() {
		It("locks the room against everyone", func() {
			h.command(alice, ".d lock")
			Eventually(h.notifier.titles, waitFor, tick).Should(ContainElement("🔒 Dungeon Locked"))

			fr, _ := h.provider.room(room.ID)
			everyone := fr.overrides[platform.EveryoneSubjectID]
			Expect(everyone.Deny.Connect).To(BeTrue())
			Expect(everyone.Allow.ViewChannel).To(BeTrue())

			locked, _ := h.ctrl.rooms.Get(room.ID)
			Expect(locked.Locked).To(BeTrue())
		})

		It("unlocks and forgets invites", func() {
			h.command(alice, ".d lock")
			h.provider.addMember(bob)
			h.command(alice, ".d invite <@bob>")
			Eventually(h.notifier.titles, waitFor, tick).Should(ContainElement("📨 User Invited"))

			h.command(alice, ".d unlock")
			Eventually(h.notifier.titles, waitFor, tick).Should(ContainElement("🔓 Dungeon Unlocked"))

			fr, _ := h.provider.room(room.ID)
			Expect(fr.overrides[platform.EveryoneSubjectID].Deny.Connect).To(BeFalse())

			unlocked, _ := h.ctrl.rooms.Get(room.ID)
			Expect(unlocked.Locked).To(BeFalse())
			Expect(unlocked.Invited).To(BeEmpty())
		})
	})

	Describe("invite", func() {
		It("grants the target a connect override", func() {
			h.provider.addMember(bob)
			h.command(alice, ".d invite <@!bob>")
			Eventually(h.notifier.titles, waitFor, tick).Should(ContainElement("📨 User Invited"))

			fr, _ := h.provider.room(room.ID)
			Expect(fr.overrides[bob.ID].Allow.Connect).To(BeTrue())

			tracked, _ := h.ctrl.rooms.Get(room.ID)
			Expect(tracked.Invited).To(HaveKey(bob.ID))
		})

		It("requires a mention", func() {
			h.command(alice, ".d invite")
			Eventually(h.notifier.lastBody, waitFor, tick).Should(ContainSubstring("mention a user to invite"))
		})

		It("rejects unknown users", func() {
			h.command(alice, ".d invite <@nobody>")
			Eventually(h.notifier.lastBody, waitFor, tick).Should(ContainSubstring("User not found"))
		})
	})

	Describe("kick", func() {
		It("disconnects a member of the room", func() {
			h.join(bob, room.ID)
			h.command(alice, ".d kick <@bob>")
			Eventually(h.notifier.titles, waitFor, tick).Should(ContainElement("👢 User Kicked"))

			_, err := h.provider.MemberVoiceRoom(context.Background(), testGuild, bob.ID)
			Expect(err).To(MatchError(platform.ErrNotFound))
		})

		It("rejects targets outside the room", func() {
			h.provider.addMember(bob)
			h.command(alice, ".d kick <@bob>")
			Eventually(h.notifier.lastBody, waitFor, tick).Should(
				ContainSubstring("User not found in this voice channel."))
		})
	})

	Describe("limit", func() {
		It("sets a cap between 0 and 99", func() {
			h.command(alice, ".d limit 5")
			Eventually(h.notifier.lastBody, waitFor, tick).Should(ContainSubstring("**5**"))

			fr, _ := h.provider.room(room.ID)
			Expect(fr.userLimit).To(Equal(5))
		})

		It("treats 0 as no limit", func() {
			h.command(alice, ".d limit 0")
			Eventually(h.notifier.lastBody, waitFor, tick).Should(ContainSubstring("No limit"))
		})

		It("rejects out-of-range and non-numeric values without touching the room", func() {
			for _, cmd := range []string{".d limit", ".d limit -1", ".d limit 100", ".d limit lots"} {
				h.command(alice, cmd)
				Eventually(h.notifier.lastBody, waitFor, tick).Should(
					ContainSubstring("between 0 and 99"))
			}
			fr, _ := h.provider.room(room.ID)
			Expect(fr.userLimit).To(BeZero())
		})
	})

	Describe("rename", func() {
		It("renames the room", func() {
			h.command(alice, ".d rename The Deep Dark")
			Eventually(h.notifier.titles, waitFor, tick).Should(ContainElement("✏️ Dungeon Renamed"))

			fr, _ := h.provider.room(room.ID)
			Expect(fr.name).To(Equal("The Deep Dark"))
		})

		It("rejects empty and overlong names", func() {
			h.command(alice, ".d rename")
			Eventually(h.notifier.lastBody, waitFor, tick).Should(ContainSubstring("provide a new name"))

			long := ".d rename "
			for i := 0; i < 101; i++ {
				long += "x"
			}
			h.command(alice, long)
			Eventually(h.notifier.lastBody, waitFor, tick).Should(ContainSubstring("100 characters or less"))

			fr, _ := h.provider.room(room.ID)
			Expect(fr.name).To(Equal("Alice's Dungeon"))
		})
	})

	Describe("end", func() {
		It("deletes the room after the grace even while occupied", func() {
			h.command(alice, ".d end")
			Eventually(h.notifier.titles, waitFor, tick).Should(ContainElement("🏁 Dungeon Ended"))

			Eventually(h.provider.roomCount, waitFor, tick).Should(BeZero())
			Expect(h.ctrl.rooms.Len()).To(BeZero())
		})

		It("cannot be cancelled by a join during the grace", func() {
			h.command(alice, ".d end")
			h.join(bob, room.ID)

			Eventually(h.provider.roomCount, waitFor, tick).Should(BeZero())
		})
	})

	Describe("extend", func() {
		It("reports when no deletion is pending", func() {
			h.command(alice, ".d extend")
			Eventually(h.notifier.titles, waitFor, tick).Should(ContainElement("⏱️ Nothing to Extend"))
		})

		It("re-arms a pending deletion with the full timeout", func() {
			h.ctrl.timers.Arm(room.ID, time.Hour, func() {})
			h.command(alice, ".d extend")
			Eventually(h.notifier.titles, waitFor, tick).Should(ContainElement("⏱️ Deletion Postponed"))
			Expect(h.ctrl.timers.IsArmed(room.ID)).To(BeTrue())
		})
	})

	Describe("claim", func() {
		It("transfers ownership to the last human standing", func() {
			h.join(bob, room.ID)
			h.leave(alice.ID, room.ID)

			h.command(bob, ".d claim")
			Eventually(h.notifier.titles, waitFor, tick).Should(ContainElement("👑 Dungeon Claimed!"))

			claimed, _ := h.ctrl.rooms.Get(room.ID)
			Expect(claimed.OwnerID).To(Equal(bob.ID))
			Expect(claimed.OwnerName).To(Equal("Bob"))

			fr, _ := h.provider.room(room.ID)
			Expect(fr.name).To(Equal("Bob's Dungeon"))
			Expect(fr.overrides).NotTo(HaveKey(alice.ID))
			Expect(fr.overrides[bob.ID].Allow.ManageChannel).To(BeTrue())

			By("cancelling any pending deletion")
			Expect(h.ctrl.timers.IsArmed(room.ID)).To(BeFalse())
		})

		It("is refused while other humans are present", func() {
			h.join(bob, room.ID)

			h.command(bob, ".d claim")
			Eventually(h.notifier.lastBody, waitFor, tick).Should(
				ContainSubstring("still has other users"))

			unchanged, _ := h.ctrl.rooms.Get(room.ID)
			Expect(unchanged.OwnerID).To(Equal(alice.ID))
		})

		It("ignores bots when counting claim rivals", func() {
			h.join(beep, room.ID)
			h.join(bob, room.ID)
			h.leave(alice.ID, room.ID)

			h.command(bob, ".d claim")
			Eventually(h.notifier.titles, waitFor, tick).Should(ContainElement("👑 Dungeon Claimed!"))
		})
	})
})
