package chat

import (
	"sync"

	"github.com/kaltos/aochat/internal/protocol"
)

// Group status flag bits carried in GROUP_ANNOUNCE.
const (
	GroupFlagMuted   uint32 = 0x01010000
	GroupFlagNoWrite uint32 = 0x00000002
	GroupFlagNoAsian uint32 = 0x00000020
	GroupFlagLogged  uint32 = 0x02020000
)

// Group is one chat channel the logged-in character is subscribed to.
type Group struct {
	ID    protocol.GroupID
	Name  string
	Flags uint32
}

func (g *Group) Muted() bool   { return g.Flags&GroupFlagMuted != 0 }
func (g *Group) NoWrite() bool { return g.Flags&GroupFlagNoWrite != 0 }
func (g *Group) NoAsian() bool { return g.Flags&GroupFlagNoAsian != 0 }
func (g *Group) Logged() bool  { return g.Flags&GroupFlagLogged != 0 }

// IsOrg reports whether the channel is an organization (guild) channel.
func (g *Group) IsOrg() bool {
	return g.ID.Category() == protocol.GroupCategoryOrg
}

// GroupTable tracks announced channels by id and by name. The server
// announces every subscribed channel after login and whenever membership
// changes.
type GroupTable struct {
	mu     sync.RWMutex
	byID   map[protocol.GroupID]*Group
	byName map[string]*Group
}

func NewGroupTable() *GroupTable {
	return &GroupTable{
		byID:   make(map[protocol.GroupID]*Group),
		byName: make(map[string]*Group),
	}
}

// Announce inserts or updates a channel from a GROUP_ANNOUNCE packet.
func (t *GroupTable) Announce(a protocol.GroupAnnouncement) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if old, ok := t.byID[a.ID]; ok {
		delete(t.byName, old.Name)
	}
	g := &Group{ID: a.ID, Name: a.Name, Flags: a.Flags}
	t.byID[a.ID] = g
	t.byName[a.Name] = g
}

// Remove drops a channel the character has left.
func (t *GroupTable) Remove(id protocol.GroupID) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if g, ok := t.byID[id]; ok {
		delete(t.byName, g.Name)
		delete(t.byID, id)
	}
}

func (t *GroupTable) ByID(id protocol.GroupID) (*Group, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	g, ok := t.byID[id]
	return g, ok
}

func (t *GroupTable) ByName(name string) (*Group, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	g, ok := t.byName[name]
	return g, ok
}

// All returns a snapshot of the known channels.
func (t *GroupTable) All() []*Group {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Group, 0, len(t.byID))
	for _, g := range t.byID {
		out = append(out, g)
	}
	return out
}
