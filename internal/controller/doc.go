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

// Package controller implements the dungeon lifecycle state machine.
//
// The controller reacts to two inputs: voice presence events (a member
// moved between voice channels) and text commands. Per room the states
// are:
//
//	absent → occupied → pending-deletion → absent
//
// with occupied ⇄ pending-deletion cycling freely as members leave and
// rejoin, and a manual exit via the end command. Entering the trigger
// channel provisions a new room; the room being empty of non-bot
// members arms its deletion timer; any join cancels it; the timer
// firing (or the end command's grace delay elapsing) runs the single
// deletion path.
//
// Ordering: all work is routed through a keyed FIFO queue so that two
// events for the same room are processed strictly in arrival order,
// while distinct rooms proceed independently. Timer callbacks re-enter
// through the same queue, so a fire can never interleave with a join
// being processed for the same room.
//
// Authorization is a single-owner capability: the sender's ID is
// compared against the registry's OwnerID before every owner-only
// mutation. There are no roles and no delegation. All command errors
// are converted to user notices at the dispatch boundary; nothing
// escapes to crash the process. A panic in a handler is recovered,
// logged, and surfaced on Fatal so the process can drain and exit
// instead of limping along with inconsistent state.
//
// Reconcile rebuilds the registry from the rooms observed under the
// managed category after a restart; Drain is the best-effort shutdown
// path that cancels all timers and deletes empty rooms.
package controller
