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

// Package platform defines the contracts between the dungeon lifecycle
// core and the chat-and-voice platform it runs against.
//
// The core never talks to Discord directly. It sees the platform through
// two collaborator interfaces:
//
//   - RoomProvider: fallible operations on voice rooms (create, delete,
//     rename, user limits, permission overrides, member moves) plus the
//     membership and guild queries the controller needs.
//   - Notifier: posting user-facing notices to a text channel. Channel
//     selection is a presentation concern owned by the implementation;
//     the core only supplies the content.
//
// Presence changes arrive as VoiceEvent values and text commands as
// CommandMessage values; both are produced by the platform adapter and
// pushed into the controller.
//
// Keeping the contract here, in domain terms rather than SDK types,
// lets the controller be driven entirely by in-memory fakes in tests.
package platform
