// Packet types and wire structures for the chat protocol.
package protocol

import (
	"encoding/binary"
	"fmt"
)

// Direction indicates which way a packet travels. The same type code can
// carry a different body layout in each direction.
type Direction int

const (
	In Direction = iota
	Out
)

func (d Direction) String() string {
	if d == In {
		return "in"
	}
	return "out"
}

type PacketType uint16

const (
	LoginSeedType      PacketType = 0
	LoginRequestType   PacketType = 2
	LoginSelectType    PacketType = 3
	LoginOKType        PacketType = 5
	LoginErrorType     PacketType = 6
	LoginCharlistType  PacketType = 7
	ClientUnknownType  PacketType = 10
	ClientNameType     PacketType = 20
	ClientLookupType   PacketType = 21
	MsgPrivateType     PacketType = 30
	MsgVicinityType    PacketType = 34
	MsgVicinityAType   PacketType = 35
	MsgSystemType      PacketType = 36
	ChatNoticeType     PacketType = 37
	BuddyAddType       PacketType = 40
	BuddyRemoveType    PacketType = 41
	OnlineSetType      PacketType = 42
	PrivgrpInviteType  PacketType = 50
	PrivgrpKickType    PacketType = 51
	PrivgrpJoinType    PacketType = 52
	PrivgrpPartType    PacketType = 53
	PrivgrpKickAllType PacketType = 54
	PrivgrpClijoinType PacketType = 55
	PrivgrpClipartType PacketType = 56
	PrivgrpMessageType PacketType = 57
	GroupAnnounceType  PacketType = 60
	GroupPartType      PacketType = 61
	GroupDataSetType   PacketType = 64
	GroupMessageType   PacketType = 65
	ClientmodeGetType  PacketType = 70
	ClientmodeSetType  PacketType = 71
	PingType           PacketType = 100
	CCType             PacketType = 120
	AdmMuxInfoType     PacketType = 1100
)

// CharNone is the character id the server returns for names that do not exist.
const CharNone uint32 = 0xFFFFFFFF

// GroupID is the 5-byte opaque channel identifier. The first byte (with the
// high bit masked off) encodes the channel category; the remaining four bytes
// are category-specific.
type GroupID [5]byte

// Category of organization (guild) channels. For these the trailing four
// bytes hold the big-endian organization id.
const GroupCategoryOrg = 3

func (g GroupID) Category() byte {
	return g[0] &^ 0x80
}

// OrgID returns the organization id carried in an org-channel GroupID.
// Meaningless for other categories.
func (g GroupID) OrgID() uint32 {
	return binary.BigEndian.Uint32(g[1:5])
}

func (g GroupID) String() string {
	return fmt.Sprintf("%02x%02x%02x%02x%02x", g[0], g[1], g[2], g[3], g[4])
}

// Packet is one decoded (or to-be-encoded) protocol message. Args holds the
// positional argument values in format-table order; the concrete types are
// uint32, string, GroupID, []uint32 and []string, as dictated by the
// format string registered for (Direction, Type).
type Packet struct {
	Direction Direction
	Type      PacketType
	Args      []interface{}
}

// New builds an outbound packet. The args must match the registered outbound
// format for t; Encode reports a mismatch.
func New(t PacketType, args ...interface{}) *Packet {
	return &Packet{Direction: Out, Type: t, Args: args}
}

// Accessors for decoded argument values. Decode guarantees the arg slice
// matches the registered format, so an out-of-range index or wrong-type
// assertion here means the caller consulted the wrong format and panicking
// is preferable to propagating a zero value.

func (p *Packet) Uint(i int) uint32          { return p.Args[i].(uint32) }
func (p *Packet) String(i int) string        { return p.Args[i].(string) }
func (p *Packet) Group(i int) GroupID        { return p.Args[i].(GroupID) }
func (p *Packet) UintSlice(i int) []uint32   { return p.Args[i].([]uint32) }
func (p *Packet) StringSlice(i int) []string { return p.Args[i].([]string) }
