package protocol

// Typed views over the positional argument lists of the packets the session
// layer consumes directly. Constructors assume the packet was produced by
// Decode with the matching type; they exist so the session logic reads named
// fields instead of argument indexes.

// CharacterList is the body of an inbound LOGIN_CHARLIST packet. The four
// parallel slices are index-aligned per character.
type CharacterList struct {
	IDs    []uint32
	Names  []string
	Levels []uint32
	Online []uint32
}

func CharacterListFromPacket(p *Packet) CharacterList {
	return CharacterList{
		IDs:    p.UintSlice(0),
		Names:  p.StringSlice(1),
		Levels: p.UintSlice(2),
		Online: p.UintSlice(3),
	}
}

// NameLookup is the body of an inbound CLIENT_NAME or CLIENT_LOOKUP packet,
// correlating a character id with its name.
type NameLookup struct {
	ID   uint32
	Name string
}

func NameLookupFromPacket(p *Packet) NameLookup {
	return NameLookup{ID: p.Uint(0), Name: p.String(1)}
}

// GroupAnnouncement is the body of an inbound GROUP_ANNOUNCE packet.
type GroupAnnouncement struct {
	ID    GroupID
	Name  string
	Flags uint32
}

func GroupAnnouncementFromPacket(p *Packet) GroupAnnouncement {
	return GroupAnnouncement{ID: p.Group(0), Name: p.String(1), Flags: p.Uint(2)}
}

// BuddyStatus is the body of an inbound BUDDY_ADD packet reporting a buddy's
// online state.
type BuddyStatus struct {
	ID     uint32
	Online bool
}

func BuddyStatusFromPacket(p *Packet) BuddyStatus {
	return BuddyStatus{ID: p.Uint(0), Online: p.Uint(1) != 0}
}

// PrivateMessage is the body of an inbound MSG_PRIVATE packet.
type PrivateMessage struct {
	CharID uint32
	Text   string
	Blob   string
}

func PrivateMessageFromPacket(p *Packet) PrivateMessage {
	return PrivateMessage{CharID: p.Uint(0), Text: p.String(1), Blob: p.String(2)}
}

// ChannelMessage is the body of an inbound GROUP_MESSAGE packet.
type ChannelMessage struct {
	Channel GroupID
	CharID  uint32
	Text    string
	Blob    string
}

func ChannelMessageFromPacket(p *Packet) ChannelMessage {
	return ChannelMessage{Channel: p.Group(0), CharID: p.Uint(1), Text: p.String(2), Blob: p.String(3)}
}
