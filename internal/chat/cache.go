package chat

import (
	"strconv"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kaltos/aochat/internal/protocol"
)

// DefaultLookupWindow is how long a pending name lookup suppresses duplicate
// requests for the same name.
const DefaultLookupWindow = 10 * time.Second

// LookupFunc receives the result of an asynchronous name resolution. ok is
// false when the server reports that the name does not exist.
type LookupFunc func(id uint32, ok bool)

var nameCaser = cases.Title(language.Und)

// NormalizeName canonicalizes a character name: first letter upper case,
// remainder lower. Every cache read, cache write and outbound lookup uses
// the normalized form so case-variant requests coalesce.
func NormalizeName(name string) string {
	return nameCaser.String(strings.ToLower(strings.TrimSpace(name)))
}

type pendingLookup struct {
	issuedAt time.Time
	waiters  []LookupFunc
}

// IdentifierCache maintains the bidirectional character name/id mapping the
// protocol itself never repeats, plus the in-flight lookup bookkeeping that
// correlates lookup replies (which carry no request id) back to waiters.
type IdentifierCache struct {
	nameToID *gocache.Cache // normalized name -> uint32 (CharNone = known missing)
	idToName *gocache.Cache // decimal id -> normalized name
	online   *gocache.Cache // decimal id -> bool; absent means unknown
	pending  *gocache.Cache // normalized name -> *pendingLookup, expires after the window

	window time.Duration

	mu   sync.Mutex // guards pending entry mutation
	send func(name string) error
}

// NewIdentifierCache builds a cache whose outbound lookups are issued through
// send. window bounds lookup request de-duplication; zero selects the default.
func NewIdentifierCache(window time.Duration, send func(name string) error) *IdentifierCache {
	if window <= 0 {
		window = DefaultLookupWindow
	}
	return &IdentifierCache{
		nameToID: gocache.New(gocache.NoExpiration, 0),
		idToName: gocache.New(gocache.NoExpiration, 0),
		online:   gocache.New(gocache.NoExpiration, 0),
		pending:  gocache.New(window, time.Minute),
		window:   window,
		send:     send,
	}
}

// ResolveName resolves a character name to its id, invoking fn when the
// answer is known. Cached names resolve synchronously before ResolveName
// returns. Otherwise fn is recorded and fires when the server's reply
// arrives; if an unanswered request for the same name is younger than the
// de-duplication window, no new request is sent and fn simply joins the
// waiting list. Continuations for requests that never get a reply are
// abandoned, not errored; callers needing a bound impose their own timeout.
func (c *IdentifierCache) ResolveName(name string, fn LookupFunc) error {
	norm := NormalizeName(name)

	if v, ok := c.nameToID.Get(norm); ok {
		id := v.(uint32)
		fn(id, id != protocol.CharNone)
		return nil
	}

	c.mu.Lock()
	if v, ok := c.pending.Get(norm); ok {
		entry := v.(*pendingLookup)
		entry.waiters = append(entry.waiters, fn)
		c.mu.Unlock()
		return nil
	}
	c.pending.SetDefault(norm, &pendingLookup{
		issuedAt: time.Now(),
		waiters:  []LookupFunc{fn},
	})
	c.mu.Unlock()

	return c.send(norm)
}

// HandleReply records a name lookup answer from the server and fires any
// continuations waiting on it. Replies are matched by normalized name since
// the protocol provides no request correlation id.
func (c *IdentifierCache) HandleReply(id uint32, name string) {
	norm := NormalizeName(name)

	if id == protocol.CharNone {
		// Names can come into existence later; a missing-name answer only
		// suppresses re-lookups for the window.
		c.nameToID.Set(norm, id, c.window)
	} else {
		c.nameToID.Set(norm, id, gocache.NoExpiration)
		c.idToName.Set(idKey(id), norm, gocache.NoExpiration)
	}

	c.mu.Lock()
	var waiters []LookupFunc
	if v, ok := c.pending.Get(norm); ok {
		waiters = v.(*pendingLookup).waiters
		c.pending.Delete(norm)
	}
	c.mu.Unlock()

	for _, fn := range waiters {
		fn(id, id != protocol.CharNone)
	}
}

// NameFromID resolves an id to its name, served purely from cache: ids only
// become known through prior protocol traffic.
func (c *IdentifierCache) NameFromID(id uint32) (string, bool) {
	v, ok := c.idToName.Get(idKey(id))
	if !ok {
		return "", false
	}
	return v.(string), true
}

// IDFromName reports a cached name resolution without issuing a request.
func (c *IdentifierCache) IDFromName(name string) (uint32, bool) {
	v, ok := c.nameToID.Get(NormalizeName(name))
	if !ok {
		return 0, false
	}
	id := v.(uint32)
	return id, id != protocol.CharNone
}

// SetOnline records a buddy's online state reported by the server.
func (c *IdentifierCache) SetOnline(id uint32, online bool) {
	c.online.Set(idKey(id), online, gocache.NoExpiration)
}

// ClearOnline forgets a buddy's online state, returning it to unknown.
func (c *IdentifierCache) ClearOnline(id uint32) {
	c.online.Delete(idKey(id))
}

// Online returns a buddy's online state; ok is false when it was never
// reported (the unknown leg of the tri-state).
func (c *IdentifierCache) Online(id uint32) (online, ok bool) {
	v, ok := c.online.Get(idKey(id))
	if !ok {
		return false, false
	}
	return v.(bool), true
}

func idKey(id uint32) string {
	return strconv.FormatUint(uint64(id), 10)
}
