package main

import "github.com/kaltos/aochat/internal/protocol"

// Janky (and simple) method of including the names of the packets as the
// client defines them. Of course whenever new packet types are defined they
// must also be added here in order for the sniffer to get the name correctly.

var inboundPacketNames = map[protocol.PacketType]string{
	protocol.LoginSeedType:      "LoginSeedType",
	protocol.LoginErrorType:     "LoginErrorType",
	protocol.LoginOKType:        "LoginOKType",
	protocol.LoginCharlistType:  "LoginCharlistType",
	protocol.ClientUnknownType:  "ClientUnknownType",
	protocol.ClientNameType:     "ClientNameType",
	protocol.ClientLookupType:   "ClientLookupType",
	protocol.MsgPrivateType:     "MsgPrivateType",
	protocol.MsgVicinityType:    "MsgVicinityType",
	protocol.MsgVicinityAType:   "MsgVicinityAType",
	protocol.MsgSystemType:      "MsgSystemType",
	protocol.ChatNoticeType:     "ChatNoticeType",
	protocol.BuddyAddType:       "BuddyAddType",
	protocol.BuddyRemoveType:    "BuddyRemoveType",
	protocol.PrivgrpInviteType:  "PrivgrpInviteType",
	protocol.PrivgrpKickType:    "PrivgrpKickType",
	protocol.PrivgrpKickAllType: "PrivgrpKickAllType",
	protocol.PrivgrpClijoinType: "PrivgrpClijoinType",
	protocol.PrivgrpClipartType: "PrivgrpClipartType",
	protocol.PrivgrpMessageType: "PrivgrpMessageType",
	protocol.GroupAnnounceType:  "GroupAnnounceType",
	protocol.GroupPartType:      "GroupPartType",
	protocol.GroupMessageType:   "GroupMessageType",
	protocol.PingType:           "PingType",
	protocol.AdmMuxInfoType:     "AdmMuxInfoType",
}

var outboundPacketNames = map[protocol.PacketType]string{
	protocol.LoginRequestType:   "LoginRequestType",
	protocol.LoginSelectType:    "LoginSelectType",
	protocol.ClientLookupType:   "ClientLookupType",
	protocol.MsgPrivateType:     "MsgPrivateType",
	protocol.BuddyAddType:       "BuddyAddType",
	protocol.BuddyRemoveType:    "BuddyRemoveType",
	protocol.OnlineSetType:      "OnlineSetType",
	protocol.PrivgrpInviteType:  "PrivgrpInviteType",
	protocol.PrivgrpKickType:    "PrivgrpKickType",
	protocol.PrivgrpJoinType:    "PrivgrpJoinType",
	protocol.PrivgrpPartType:    "PrivgrpPartType",
	protocol.PrivgrpKickAllType: "PrivgrpKickAllType",
	protocol.PrivgrpMessageType: "PrivgrpMessageType",
	protocol.GroupDataSetType:   "GroupDataSetType",
	protocol.GroupMessageType:   "GroupMessageType",
	protocol.ClientmodeGetType:  "ClientmodeGetType",
	protocol.ClientmodeSetType:  "ClientmodeSetType",
	protocol.PingType:           "PingType",
	protocol.CCType:             "CCType",
}

func getPacketName(direction protocol.Direction, packetType protocol.PacketType) string {
	if direction == protocol.Out {
		if name, ok := outboundPacketNames[packetType]; ok {
			return name
		}
	} else {
		if name, ok := inboundPacketNames[packetType]; ok {
			return name
		}
	}
	return "?"
}
