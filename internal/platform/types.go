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

package platform

import (
	"context"
	"errors"
)

// ErrNotFound is returned by provider lookups when the requested
// entity (member, room, voice state) does not exist on the platform.
var ErrNotFound = errors.New("platform: not found")

// EveryoneSubjectID is the pseudo subject ID for the guild's default
// role. Implementations translate it to the platform's own identifier
// for "everyone".
const EveryoneSubjectID = "@everyone"

// Permissions is the subset of voice-channel permission bits the
// controller cares about.
type Permissions struct {
	ViewChannel   bool
	Connect       bool
	ManageChannel bool
	MoveMembers   bool
}

// Override is a permission overwrite on a voice room for one subject,
// either a member or a role. Setting an Override replaces any previous
// overwrite for the same subject.
type Override struct {
	// SubjectID identifies the member or role. EveryoneSubjectID
	// targets the guild's default role.
	SubjectID string
	// Role is true when SubjectID names a role rather than a member.
	Role  bool
	Allow Permissions
	Deny  Permissions
}

// Member describes a guild member as seen by the platform.
type Member struct {
	ID          string
	Username    string
	DisplayName string
	Bot         bool
}

// RoomSpec describes a voice room to be created.
type RoomSpec struct {
	Name string
	// CategoryID is the parent category, or empty for no parent.
	CategoryID string
	Overrides  []Override
}

// RoomInfo identifies an existing voice room during reconciliation.
type RoomInfo struct {
	ID   string
	Name string
}

// RoomProvider is the platform side of room lifecycle management.
// Every operation is fallible; implementations decide which failures
// are retried internally.
type RoomProvider interface {
	// CreateVoiceRoom provisions a new voice room and returns its ID.
	CreateVoiceRoom(ctx context.Context, guildID string, spec RoomSpec) (string, error)
	// DeleteVoiceRoom removes a voice room. A room that is already
	// gone is treated as success, not an error.
	DeleteVoiceRoom(ctx context.Context, roomID string) error
	// RenameVoiceRoom changes a room's display name.
	RenameVoiceRoom(ctx context.Context, roomID, name string) error
	// SetUserLimit sets the room's member cap; 0 removes the cap.
	SetUserLimit(ctx context.Context, roomID string, limit int) error
	// SetOverride upserts a permission overwrite on the room.
	SetOverride(ctx context.Context, guildID, roomID string, o Override) error
	// RemoveOverride deletes the overwrite for the given subject, if any.
	RemoveOverride(ctx context.Context, guildID, roomID, subjectID string) error
	// MoveMember moves a member into the given voice room.
	MoveMember(ctx context.Context, guildID, memberID, roomID string) error
	// DisconnectMember drops a member from voice entirely.
	DisconnectMember(ctx context.Context, guildID, memberID string) error
	// ListRoomMembers returns the members currently connected to the
	// room, bots included.
	ListRoomMembers(ctx context.Context, guildID, roomID string) ([]Member, error)
	// MemberVoiceRoom returns the ID of the voice room the member is
	// currently in, or ErrNotFound when they are not in voice.
	MemberVoiceRoom(ctx context.Context, guildID, memberID string) (string, error)
	// ResolveMember looks up a guild member by ID.
	ResolveMember(ctx context.Context, guildID, memberID string) (Member, error)
	// FindOrCreateCategory returns the ID of the named channel
	// category, creating it when absent.
	FindOrCreateCategory(ctx context.Context, guildID, name string) (string, error)
	// ListCategoryVoiceRooms lists the voice rooms under a category.
	ListCategoryVoiceRooms(ctx context.Context, guildID, categoryID string) ([]RoomInfo, error)
}

// NoticeKind selects the presentation (color, tone) of a notice.
type NoticeKind string

const (
	// NoticeInfo is a neutral informational notice.
	NoticeInfo NoticeKind = "info"
	// NoticeSuccess confirms a completed action.
	NoticeSuccess NoticeKind = "success"
	// NoticeError reports a rejected or failed action.
	NoticeError NoticeKind = "error"
)

// Notice is user-facing content for a text channel. Rendering is the
// Notifier's concern.
type Notice struct {
	Kind  NoticeKind
	Title string
	Body  string
}

// Notifier posts notices to text channels. An empty channelID asks the
// implementation to pick a suitable channel for the guild. Failures
// must never block the caller's control flow; the controller logs and
// moves on.
type Notifier interface {
	Post(ctx context.Context, guildID, channelID string, n Notice) error
}

// VoiceEvent reports a change in a member's voice location. Empty room
// IDs mean "not in voice". CurrentRoomName carries the display name of
// the joined room so the controller can recognize the trigger channel.
type VoiceEvent struct {
	GuildID         string
	MemberID        string
	PreviousRoomID  string
	CurrentRoomID   string
	CurrentRoomName string
}

// CommandMessage is a text message that may carry a dungeon command.
type CommandMessage struct {
	GuildID    string
	ChannelID  string
	AuthorID   string
	AuthorName string
	Content    string
}
