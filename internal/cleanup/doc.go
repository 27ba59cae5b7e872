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

// Package cleanup schedules the delayed deletion of empty dungeons.
//
// The Scheduler keeps at most one pending deletion timer per room ID.
// Arming an ID that already has a timer first cancels the old one, so
// join/leave churn can never stack multiple deletions for the same
// room, and "extend" is just a re-arm with the full duration.
//
// Key properties:
//   - Arm cancels before scheduling: at most one timer per ID.
//   - Cancel of an unknown ID is a harmless no-op.
//   - Fire-once: a timer that was cancelled or superseded after its
//     underlying time.Timer fired never invokes its callback.
//   - CancelAll clears every timer for shutdown.
//
// Callbacks run on the timer's own goroutine. Callers that need
// ordering with other room work must route the callback through their
// own serialization, as the lifecycle controller does.
package cleanup
