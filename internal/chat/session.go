// The chat package implements the client side of the game's chat protocol:
// the login state machine, session bookkeeping, flood control and packet
// dispatch. It owns the socket exclusively and is driven by an external
// tick loop; the only internal asynchrony is name lookup correlation.
package chat

import (
	"encoding/binary"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kaltos/aochat/internal/encryption"
	"github.com/kaltos/aochat/internal/extmsg"
	"github.com/kaltos/aochat/internal/protocol"
)

// State tracks the session's progression from dial to steady-state pumping.
type State int

const (
	StateDisconnected State = iota
	StateSocketConnected
	StateAwaitingSeed
	StateAuthenticating
	StateCharacterListReceived
	StateLoggedIn
	StateReady
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateSocketConnected:
		return "socket connected"
	case StateAwaitingSeed:
		return "awaiting seed"
	case StateAuthenticating:
		return "authenticating"
	case StateCharacterListReceived:
		return "character list received"
	case StateLoggedIn:
		return "logged in"
	case StateReady:
		return "ready"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Handler receives every decoded inbound packet the session does not fully
// consume itself. Handlers run on the tick goroutine.
type Handler func(*protocol.Packet)

// Config holds the session tunables. Zero values select the defaults.
type Config struct {
	// Socket deadline for the initial connect and login exchanges.
	ConnectTimeout time.Duration
	// Per-tick read poll deadline. Keep well under the tick cadence.
	PollTimeout time.Duration
	// Seconds of post-login silence before the session is considered Ready.
	ReadyGrace time.Duration
	// Silence threshold after which a keepalive ping is sent.
	KeepaliveAfter time.Duration
	// Payload echoed in keepalive pings.
	PingString string

	// Flood control bucket size and per-tick refill.
	BucketCapacity int
	BucketRefill   int
	// Disables flood control entirely.
	Unlimited bool

	// Name lookup de-duplication window.
	LookupWindow time.Duration
}

func (c *Config) applyDefaults() {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 20 * time.Millisecond
	}
	if c.ReadyGrace <= 0 {
		c.ReadyGrace = 2 * time.Second
	}
	if c.KeepaliveAfter <= 0 {
		c.KeepaliveAfter = 60 * time.Second
	}
	if c.PingString == "" {
		c.PingString = "aochat"
	}
	if c.BucketCapacity <= 0 {
		c.BucketCapacity = 5
	}
	if c.BucketRefill <= 0 {
		c.BucketRefill = 1
	}
}

// Character is one entry of the account's character list.
type Character struct {
	ID     uint32
	Name   string
	Level  uint32
	Online bool
}

// Session drives one connection to the chat server. All methods must be
// called from a single goroutine (the tick loop); only the OutboundQueue's
// Push surface is safe for concurrent producers.
type Session struct {
	// Handler receives decoded inbound packets. Set before the tick loop starts.
	Handler Handler

	cfg    Config
	conn   net.Conn
	host   string
	port   int
	state  State
	seed   string
	selfID uint32

	cache   *IdentifierCache
	groups  *GroupTable
	queue   *OutboundQueue
	decoder *extmsg.Decoder

	characters []Character

	// Bytes read off the socket that do not yet form a complete frame.
	// Frames can arrive split across poll deadlines; partial reads must
	// survive until the rest of the frame shows up.
	readBuf []byte
	scratch [4096]byte

	lastInbound time.Time
	lastPing    time.Time

	log logrus.FieldLogger
}

// NewSession builds an unconnected session. lookup may be nil, in which case
// extended message blocks are passed through undecoded.
func NewSession(cfg Config, lookup extmsg.MessageLookup, log logrus.FieldLogger) *Session {
	cfg.applyDefaults()

	s := &Session{
		cfg:    cfg,
		state:  StateDisconnected,
		groups: NewGroupTable(),
		log:    log,
	}
	s.cache = NewIdentifierCache(cfg.LookupWindow, s.sendLookupRequest)
	s.queue = NewOutboundQueue(cfg.BucketCapacity, cfg.BucketRefill)
	s.queue.SetUnlimited(cfg.Unlimited)
	if lookup != nil {
		s.decoder = extmsg.NewDecoder(lookup, log)
	}
	return s
}

func (s *Session) State() State            { return s.state }
func (s *Session) Cache() *IdentifierCache { return s.cache }
func (s *Session) Groups() *GroupTable     { return s.groups }
func (s *Session) Queue() *OutboundQueue   { return s.queue }
func (s *Session) Characters() []Character { return s.characters }
func (s *Session) CharacterID() uint32     { return s.selfID }

// Connect dials the chat server and consumes the seed packet. The server
// must speak first, and the first packet must be the login seed; anything
// else is a fatal handshake failure.
func (s *Session) Connect(host string, port int) error {
	if s.state != StateDisconnected {
		return fmt.Errorf("connect called in state %s", s.state)
	}

	conn, err := net.DialTimeout("tcp", fmt.Sprintf("%s:%d", host, port), s.cfg.ConnectTimeout)
	if err != nil {
		return &TransportError{Host: host, Port: port, State: s.state, Err: err}
	}
	return s.Attach(conn, host, port)
}

// Attach adopts an established connection and performs the seed exchange.
// Split from Connect so tests can drive a session over an in-memory pipe.
func (s *Session) Attach(conn net.Conn, host string, port int) error {
	s.conn = conn
	s.host = host
	s.port = port
	s.readBuf = nil
	s.state = StateSocketConnected

	s.state = StateAwaitingSeed
	pkt, err := s.readLoginPacket()
	if err != nil {
		return err
	}
	if pkt.Type != protocol.LoginSeedType {
		return s.failHandshake(fmt.Sprintf("expected seed packet, got type %d", pkt.Type))
	}
	s.seed = pkt.String(0)

	s.log.WithField("server", fmt.Sprintf("%s:%d", host, port)).Info("connected, seed received")
	return nil
}

// Authenticate derives the login credential from the server seed and the
// account credentials and exchanges it for the character list.
func (s *Session) Authenticate(username, password string) error {
	if s.state != StateAwaitingSeed {
		return fmt.Errorf("authenticate called in state %s", s.state)
	}
	s.state = StateAuthenticating

	credential, err := encryption.LoginCredential(username, s.seed, password)
	if err != nil {
		return fmt.Errorf("deriving login credential: %w", err)
	}

	if err := s.writePacket(protocol.New(protocol.LoginRequestType, uint32(0), username, credential)); err != nil {
		return err
	}

	pkt, err := s.readLoginPacket()
	if err != nil {
		return err
	}
	switch pkt.Type {
	case protocol.LoginCharlistType:
		s.setCharacterList(protocol.CharacterListFromPacket(pkt))
		s.state = StateCharacterListReceived
		return nil
	case protocol.LoginErrorType:
		return s.failHandshake(pkt.String(0))
	default:
		return s.failHandshake(fmt.Sprintf("unexpected packet type %d during login", pkt.Type))
	}
}

// SelectCharacter logs in as the named character from the character list.
func (s *Session) SelectCharacter(name string) error {
	if s.state != StateCharacterListReceived {
		return fmt.Errorf("select character called in state %s", s.state)
	}

	norm := NormalizeName(name)
	var char *Character
	for i := range s.characters {
		if s.characters[i].Name == norm {
			char = &s.characters[i]
			break
		}
	}
	if char == nil {
		return s.failHandshake(fmt.Sprintf("no character named %q on this account", norm))
	}

	if err := s.writePacket(protocol.New(protocol.LoginSelectType, char.ID)); err != nil {
		return err
	}

	pkt, err := s.readLoginPacket()
	if err != nil {
		return err
	}
	switch pkt.Type {
	case protocol.LoginOKType:
		s.selfID = char.ID
		s.state = StateLoggedIn
		s.lastInbound = time.Now()
		s.log.WithFields(logrus.Fields{"character": char.Name, "id": char.ID}).Info("logged in")
		return nil
	case protocol.LoginErrorType:
		return s.failHandshake(pkt.String(0))
	default:
		return s.failHandshake(fmt.Sprintf("unexpected packet type %d selecting character", pkt.Type))
	}
}

// Tick performs one unit of session work: poll the socket once and dispatch
// any completed inbound frames, advance the Ready detection, refill and drain
// the outbound queue, and send a keepalive if the line has been quiet. The
// caller invokes it on a sub-second cadence. Any returned TransportError is
// fatal.
func (s *Session) Tick() error {
	if s.state != StateLoggedIn && s.state != StateReady {
		return fmt.Errorf("tick called in state %s", s.state)
	}

	if err := s.pollInbound(); err != nil {
		return err
	}

	if s.state == StateLoggedIn && time.Since(s.lastInbound) >= s.cfg.ReadyGrace {
		s.state = StateReady
		s.log.Info("startup traffic drained, session ready")
	}

	s.queue.Refill()
	for pkt := s.queue.DrainOne(); pkt != nil; pkt = s.queue.DrainOne() {
		if err := s.writePacket(pkt); err != nil {
			return err
		}
	}

	now := time.Now()
	if now.Sub(s.lastInbound) > s.cfg.KeepaliveAfter && now.Sub(s.lastPing) > s.cfg.KeepaliveAfter {
		s.lastPing = now
		if err := s.writePacket(protocol.New(protocol.PingType, s.cfg.PingString)); err != nil {
			return err
		}
	}
	return nil
}

// Send enqueues an outbound packet behind the flood control bucket. Safe to
// call from any goroutine.
func (s *Session) Send(p Priority, pkt *protocol.Packet) {
	s.queue.Push(p, pkt)
}

// SendPrivate enqueues a private message to a character id.
func (s *Session) SendPrivate(charID uint32, text string) {
	s.Send(PriorityMedium, protocol.New(protocol.MsgPrivateType, charID, text, "\x00"))
}

// SendChannel enqueues a message to a named channel from the group table.
func (s *Session) SendChannel(channel, text string) error {
	g, ok := s.groups.ByName(channel)
	if !ok {
		return fmt.Errorf("unknown channel %q", channel)
	}
	if g.NoWrite() {
		return fmt.Errorf("channel %q does not accept messages", channel)
	}
	s.Send(PriorityMedium, protocol.New(protocol.GroupMessageType, g.ID, text, "\x00"))
	return nil
}

// ResolveName resolves a character name through the identifier cache,
// issuing a lookup request if needed.
func (s *Session) ResolveName(name string, fn LookupFunc) error {
	return s.cache.ResolveName(name, fn)
}

// DecodeMessageText renders a message field, decoding extended blocks when a
// string table is attached. Plain text passes through unchanged.
func (s *Session) DecodeMessageText(field string) string {
	if s.decoder == nil || !extmsg.IsExtended(field) {
		return field
	}
	_, rendered := s.decoder.DecodeField(field)
	return rendered
}

// Close tears down the connection. Pending lookups are abandoned.
func (s *Session) Close() error {
	s.state = StateDisconnected
	s.readBuf = nil
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	return err
}

// pollInbound reads whatever arrives within the poll deadline and dispatches
// every complete buffered frame. A deadline firing mid-frame is not an error:
// the partial bytes stay in readBuf and the frame completes on a later tick,
// so a frame whose declared body outlives one poll is delivered once the rest
// arrives or the socket closes.
func (s *Session) pollInbound() error {
	_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.PollTimeout))
	n, err := s.conn.Read(s.scratch[:])
	if n > 0 {
		s.readBuf = append(s.readBuf, s.scratch[:n]...)
	}
	if err != nil {
		if netErr, ok := err.(net.Error); !ok || !netErr.Timeout() {
			return s.failTransport(err)
		}
	}

	for {
		t, body, ok := s.takeFrame()
		if !ok {
			return nil
		}
		s.lastInbound = time.Now()

		pkt, err := protocol.Decode(protocol.In, t, body)
		if err != nil {
			// Decode failures are local to one packet. Log and move on.
			s.log.WithError(err).Warn("dropping undecodable packet")
			continue
		}

		s.intercept(pkt)
		if s.Handler != nil {
			s.Handler(pkt)
		}
	}
}

// frameHeaderSize is the u16 type + u16 body length wire header.
const frameHeaderSize = 4

// takeFrame pops one complete frame off the read buffer if one is available.
func (s *Session) takeFrame() (protocol.PacketType, []byte, bool) {
	if len(s.readBuf) < frameHeaderSize {
		return 0, nil, false
	}
	bodyLen := int(binary.BigEndian.Uint16(s.readBuf[2:4]))
	if len(s.readBuf) < frameHeaderSize+bodyLen {
		return 0, nil, false
	}

	t := protocol.PacketType(binary.BigEndian.Uint16(s.readBuf[0:2]))
	body := make([]byte, bodyLen)
	copy(body, s.readBuf[frameHeaderSize:frameHeaderSize+bodyLen])
	s.readBuf = s.readBuf[frameHeaderSize+bodyLen:]
	return t, body, true
}

// intercept applies the session-level side effects of specific packet types
// before they are dispatched to the handler.
func (s *Session) intercept(pkt *protocol.Packet) {
	switch pkt.Type {
	case protocol.ClientNameType, protocol.ClientLookupType:
		reply := protocol.NameLookupFromPacket(pkt)
		s.cache.HandleReply(reply.ID, reply.Name)
	case protocol.GroupAnnounceType:
		s.groups.Announce(protocol.GroupAnnouncementFromPacket(pkt))
	case protocol.GroupPartType:
		s.groups.Remove(pkt.Group(0))
	case protocol.BuddyAddType:
		status := protocol.BuddyStatusFromPacket(pkt)
		s.cache.SetOnline(status.ID, status.Online)
	case protocol.BuddyRemoveType:
		s.cache.ClearOnline(pkt.Uint(0))
	}
}

// setCharacterList records the login character list. The four arrays decode
// independently, so a malformed list can carry fewer names than ids; entries
// are filled with what is present rather than trusting the arrays to line up.
func (s *Session) setCharacterList(list protocol.CharacterList) {
	s.characters = s.characters[:0]
	for i := range list.IDs {
		char := Character{ID: list.IDs[i]}
		if i < len(list.Names) {
			char.Name = NormalizeName(list.Names[i])
		}
		if i < len(list.Levels) {
			char.Level = list.Levels[i]
		}
		if i < len(list.Online) {
			char.Online = list.Online[i] != 0
		}
		s.characters = append(s.characters, char)
		if char.Name != "" {
			s.cache.HandleReply(char.ID, char.Name)
		}
	}
}

// sendLookupRequest issues a CLIENT_LOOKUP for the identifier cache. Lookups
// bypass the flood bucket: they are answered asynchronously and the reply is
// needed to make progress.
func (s *Session) sendLookupRequest(name string) error {
	if s.conn == nil {
		return fmt.Errorf("lookup for %q requested while disconnected", name)
	}
	return s.writePacket(protocol.New(protocol.ClientLookupType, name))
}

// readLoginPacket reads one frame during the login sequence, where the
// session blocks on the server's answer instead of polling.
func (s *Session) readLoginPacket() (*protocol.Packet, error) {
	_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.ConnectTimeout))
	t, body, err := protocol.ReadFrame(s.conn)
	if err != nil {
		return nil, s.failTransport(err)
	}

	pkt, err := protocol.Decode(protocol.In, t, body)
	if err != nil {
		return nil, s.failHandshake(err.Error())
	}
	return pkt, nil
}

func (s *Session) writePacket(pkt *protocol.Packet) error {
	body, err := protocol.Encode(pkt)
	if err != nil {
		// An encode failure is a programming error in the caller, not a
		// session fatality.
		return err
	}
	if err := protocol.WriteFrame(s.conn, pkt.Type, body); err != nil {
		return s.failTransport(err)
	}
	return nil
}

func (s *Session) failTransport(err error) error {
	terr := &TransportError{Host: s.host, Port: s.port, State: s.state, Err: err}
	_ = s.Close()
	return terr
}

func (s *Session) failHandshake(reason string) error {
	herr := &HandshakeError{Host: s.host, Port: s.port, State: s.state, Reason: reason}
	_ = s.Close()
	return herr
}
