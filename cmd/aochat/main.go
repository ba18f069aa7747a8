// The aochat command is the main entrypoint for the chat client. It logs in
// with the configured account, selects a character, and runs the session tick
// loop until interrupted, logging decoded traffic as it arrives.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kaltos/aochat/internal/chat"
	"github.com/kaltos/aochat/internal/core"
	"github.com/kaltos/aochat/internal/extmsg"
	"github.com/kaltos/aochat/internal/protocol"
	"github.com/kaltos/aochat/internal/textdb"
)

var configFlag = flag.String("config", "./", "Path to the directory containing the config file")

func main() {
	flag.Parse()

	config := core.LoadConfig(*configFlag)
	fmt.Println("using configuration file:", *configFlag)

	log, err := core.NewLogger(config)
	if err != nil {
		fmt.Println("error initializing logger:", err)
		os.Exit(1)
	}

	var lookup extmsg.MessageLookup
	if config.TextDatabase.Path != "" {
		db, err := textdb.Open(config.TextDatabase.Path, config.Debugging.DatabaseLoggingEnabled)
		if err != nil {
			log.Fatalf("error opening text database: %s", err)
		}
		defer db.Close()
		lookup = db
	}

	session := chat.NewSession(chat.Config{
		ConnectTimeout: config.ConnectTimeout(),
		ReadyGrace:     config.ReadyGrace(),
		KeepaliveAfter: config.KeepaliveAfter(),
		BucketCapacity: config.FloodControl.BucketCapacity,
		BucketRefill:   config.FloodControl.RefillPerTick,
		Unlimited:      config.FloodControl.Unlimited,
	}, lookup, log)
	session.Handler = newPacketHandler(session, log, config.Debugging.PacketLoggingEnabled)

	if err := session.Connect(config.Chat.Host, config.Chat.Port); err != nil {
		log.Fatalf("error connecting: %s", err)
	}
	if err := session.Authenticate(config.Account.Username, config.Account.Password); err != nil {
		log.Fatalf("error logging in: %s", err)
	}
	if err := session.SelectCharacter(config.Account.Character); err != nil {
		log.Fatalf("error selecting character: %s", err)
	}
	log.Infof("logged in as %s (id %d)", config.Account.Character, session.CharacterID())

	// Register a SIGTERM handler so that Ctrl-C shuts the session down cleanly.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(config.TickInterval())
	defer ticker.Stop()

	for {
		select {
		case <-c:
			log.Info("shutting down")
			_ = session.Close()
			return
		case <-ticker.C:
			if err := session.Tick(); err != nil {
				log.Fatalf("session failed: %s", err)
			}
		}
	}
}

// newPacketHandler returns the session handler that logs inbound traffic.
// Chat messages are always logged; everything else only with packet logging
// enabled.
func newPacketHandler(session *chat.Session, log *logrus.Logger, logAll bool) chat.Handler {
	return func(pkt *protocol.Packet) {
		switch pkt.Type {
		case protocol.MsgPrivateType:
			msg := protocol.PrivateMessageFromPacket(pkt)
			name, _ := session.Cache().NameFromID(msg.CharID)
			log.WithField("from", name).Info(session.DecodeMessageText(msg.Text))
		case protocol.GroupMessageType:
			msg := protocol.ChannelMessageFromPacket(pkt)
			channel := ""
			if g, ok := session.Groups().ByID(msg.Channel); ok {
				channel = g.Name
			}
			name, _ := session.Cache().NameFromID(msg.CharID)
			log.WithFields(logrus.Fields{
				"channel": channel,
				"from":    name,
			}).Info(session.DecodeMessageText(msg.Text))
		case protocol.MsgVicinityType:
			log.Info(session.DecodeMessageText(pkt.String(1)))
		case protocol.MsgVicinityAType, protocol.MsgSystemType:
			log.Info(session.DecodeMessageText(pkt.String(0)))
		default:
			if logAll {
				log.WithField("type", pkt.Type).Debugf("packet: %v", pkt.Args)
			}
		}
	}
}
