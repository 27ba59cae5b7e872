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
	"sync"

	"github.com/yourdungeon/dungeond/internal/platform"
)

// fakeRoom is the provider-side view of a voice channel.
type fakeRoom struct {
	id         string
	name       string
	categoryID string
	userLimit  int
	overrides  map[string]platform.Override
}

// fakeProvider is an in-memory platform.RoomProvider. Per-method error
// injection lets tests exercise failure paths without a real gateway.
type fakeProvider struct {
	mu         sync.Mutex
	rooms      map[string]*fakeRoom
	members    map[string]platform.Member
	voice      map[string]string // memberID -> roomID
	categories map[string]string // name -> categoryID
	nextID     int

	deleteCalls map[string]int

	failCreate      error
	failMove        error
	failDelete      error
	failList        error
	failSetOverride error
	failDisconnect  error
	failSetLimit    error
	failRename      error
	failCategory    error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		rooms:       make(map[string]*fakeRoom),
		members:     make(map[string]platform.Member),
		voice:       make(map[string]string),
		categories:  make(map[string]string),
		deleteCalls: make(map[string]int),
	}
}

func (p *fakeProvider) addMember(m platform.Member) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.members[m.ID] = m
}

// setVoice places a member in a room on the provider side. Tests pair
// this with a VoiceEvent to the controller, mirroring how the gateway
// reports a move it has already applied.
func (p *fakeProvider) setVoice(memberID, roomID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if roomID == "" {
		delete(p.voice, memberID)
		return
	}
	p.voice[memberID] = roomID
}

func (p *fakeProvider) roomCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.rooms)
}

func (p *fakeProvider) room(id string) (fakeRoom, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.rooms[id]
	if !ok {
		return fakeRoom{}, false
	}
	cp := *r
	cp.overrides = make(map[string]platform.Override, len(r.overrides))
	for k, v := range r.overrides {
		cp.overrides[k] = v
	}
	return cp, true
}

func (p *fakeProvider) deleteCallCount(id string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.deleteCalls[id]
}

func (p *fakeProvider) CreateVoiceRoom(_ context.Context, _ string, spec platform.RoomSpec) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failCreate != nil {
		return "", p.failCreate
	}
	p.nextID++
	id := fmt.Sprintf("room-%d", p.nextID)
	overrides := make(map[string]platform.Override, len(spec.Overrides))
	for _, o := range spec.Overrides {
		overrides[o.SubjectID] = o
	}
	p.rooms[id] = &fakeRoom{
		id:         id,
		name:       spec.Name,
		categoryID: spec.CategoryID,
		overrides:  overrides,
	}
	return id, nil
}

func (p *fakeProvider) DeleteVoiceRoom(_ context.Context, roomID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleteCalls[roomID]++
	if p.failDelete != nil {
		return p.failDelete
	}
	delete(p.rooms, roomID)
	for memberID, rid := range p.voice {
		if rid == roomID {
			delete(p.voice, memberID)
		}
	}
	return nil
}

func (p *fakeProvider) RenameVoiceRoom(_ context.Context, roomID, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failRename != nil {
		return p.failRename
	}
	r, ok := p.rooms[roomID]
	if !ok {
		return platform.ErrNotFound
	}
	r.name = name
	return nil
}

func (p *fakeProvider) SetUserLimit(_ context.Context, roomID string, limit int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failSetLimit != nil {
		return p.failSetLimit
	}
	r, ok := p.rooms[roomID]
	if !ok {
		return platform.ErrNotFound
	}
	r.userLimit = limit
	return nil
}

func (p *fakeProvider) SetOverride(_ context.Context, _, roomID string, o platform.Override) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failSetOverride != nil {
		return p.failSetOverride
	}
	r, ok := p.rooms[roomID]
	if !ok {
		return platform.ErrNotFound
	}
	r.overrides[o.SubjectID] = o
	return nil
}

func (p *fakeProvider) RemoveOverride(_ context.Context, _, roomID, subjectID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.rooms[roomID]
	if !ok {
		return platform.ErrNotFound
	}
	delete(r.overrides, subjectID)
	return nil
}

func (p *fakeProvider) MoveMember(_ context.Context, _, memberID, roomID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failMove != nil {
		return p.failMove
	}
	p.voice[memberID] = roomID
	return nil
}

func (p *fakeProvider) DisconnectMember(_ context.Context, _, memberID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failDisconnect != nil {
		return p.failDisconnect
	}
	delete(p.voice, memberID)
	return nil
}

func (p *fakeProvider) ListRoomMembers(_ context.Context, _, roomID string) ([]platform.Member, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failList != nil {
		return nil, p.failList
	}
	var out []platform.Member
	for memberID, rid := range p.voice {
		if rid != roomID {
			continue
		}
		if m, ok := p.members[memberID]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (p *fakeProvider) MemberVoiceRoom(_ context.Context, _, memberID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	roomID, ok := p.voice[memberID]
	if !ok {
		return "", platform.ErrNotFound
	}
	return roomID, nil
}

func (p *fakeProvider) ResolveMember(_ context.Context, _, memberID string) (platform.Member, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	m, ok := p.members[memberID]
	if !ok {
		return platform.Member{}, platform.ErrNotFound
	}
	return m, nil
}

func (p *fakeProvider) FindOrCreateCategory(_ context.Context, _, name string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failCategory != nil {
		return "", p.failCategory
	}
	if id, ok := p.categories[name]; ok {
		return id, nil
	}
	p.nextID++
	id := fmt.Sprintf("cat-%d", p.nextID)
	p.categories[name] = id
	return id, nil
}

func (p *fakeProvider) ListCategoryVoiceRooms(_ context.Context, _, categoryID string) ([]platform.RoomInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []platform.RoomInfo
	for _, r := range p.rooms {
		if r.categoryID == categoryID {
			out = append(out, platform.RoomInfo{ID: r.id, Name: r.name})
		}
	}
	return out, nil
}

// addRawRoom seeds a channel that exists on the platform but is not in
// the controller's registry, for reconcile tests.
func (p *fakeProvider) addRawRoom(name, categoryID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	id := fmt.Sprintf("room-%d", p.nextID)
	p.rooms[id] = &fakeRoom{
		id:         id,
		name:       name,
		categoryID: categoryID,
		overrides:  make(map[string]platform.Override),
	}
	return id
}

type recordedNotice struct {
	guildID   string
	channelID string
	notice    platform.Notice
}

// fakeNotifier records every posted notice.
type fakeNotifier struct {
	mu      sync.Mutex
	notices []recordedNotice
}

func (n *fakeNotifier) Post(_ context.Context, guildID, channelID string, notice platform.Notice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, recordedNotice{guildID: guildID, channelID: channelID, notice: notice})
	return nil
}

func (n *fakeNotifier) titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.notices))
	for i, rec := range n.notices {
		out[i] = rec.notice.Title
	}
	return out
}

func (n *fakeNotifier) lastBody() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notices) == 0 {
		return ""
	}
	return n.notices[len(n.notices)-1].notice.Body
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.notices)
}
