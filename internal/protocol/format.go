package protocol

// Argument format strings, one per (direction, type). Consumed left to right
// from the packet body:
//
//	I  unsigned 32-bit integer, 4 bytes big-endian
//	S  string, 2-byte big-endian length followed by that many bytes
//	G  5-byte opaque group id
//	i  integer array, 2-byte count then count x 4-byte big-endian integers
//	s  string array, 2-byte count then count x (2-byte length + bytes)
//
// A type missing from its direction's table is not part of the protocol in
// that direction and decoding/encoding it fails with ErrUnknownType.
var inboundFormats = map[PacketType]string{
	LoginSeedType:      "S",
	LoginOKType:        "",
	LoginErrorType:     "S",
	LoginCharlistType:  "isii",
	ClientUnknownType:  "I",
	ClientNameType:     "IS",
	ClientLookupType:   "IS",
	MsgPrivateType:     "ISS",
	MsgVicinityType:    "ISS",
	MsgVicinityAType:   "SSS",
	MsgSystemType:      "S",
	ChatNoticeType:     "IIIS",
	BuddyAddType:       "IIS",
	BuddyRemoveType:    "I",
	PrivgrpInviteType:  "I",
	PrivgrpKickType:    "I",
	PrivgrpJoinType:    "I",
	PrivgrpPartType:    "I",
	PrivgrpKickAllType: "",
	PrivgrpClijoinType: "II",
	PrivgrpClipartType: "II",
	PrivgrpMessageType: "IISS",
	GroupAnnounceType:  "GSIS",
	GroupPartType:      "G",
	GroupMessageType:   "GISS",
	PingType:           "S",
	AdmMuxInfoType:     "iii",
}

var outboundFormats = map[PacketType]string{
	LoginRequestType:   "ISS",
	LoginSelectType:    "I",
	ClientLookupType:   "S",
	MsgPrivateType:     "ISS",
	BuddyAddType:       "IS",
	BuddyRemoveType:    "I",
	OnlineSetType:      "I",
	PrivgrpInviteType:  "I",
	PrivgrpKickType:    "I",
	PrivgrpJoinType:    "I",
	PrivgrpPartType:    "I",
	PrivgrpKickAllType: "",
	PrivgrpMessageType: "ISS",
	GroupDataSetType:   "GIS",
	GroupMessageType:   "GSS",
	ClientmodeGetType:  "II",
	ClientmodeSetType:  "IIII",
	PingType:           "S",
	CCType:             "s",
}

func formatFor(dir Direction, t PacketType) (string, bool) {
	if dir == In {
		f, ok := inboundFormats[t]
		return f, ok
	}
	f, ok := outboundFormats[t]
	return f, ok
}

// Formats returns a copy of the format table for one direction. Used by
// tests and by the sniffer to enumerate decodable types.
func Formats(dir Direction) map[PacketType]string {
	src := inboundFormats
	if dir == Out {
		src = outboundFormats
	}
	out := make(map[PacketType]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
