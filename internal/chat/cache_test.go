package chat

import (
	"testing"
	"time"

	"github.com/kaltos/aochat/internal/protocol"
)

// sendRecorder counts outbound lookup requests in place of a live session.
type sendRecorder struct {
	names []string
}

func (r *sendRecorder) send(name string) error {
	r.names = append(r.names, name)
	return nil
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"helpbot", "Helpbot"},
		{"HELPBOT", "Helpbot"},
		{"hElPbOt", "Helpbot"},
		{" Helpbot ", "Helpbot"},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveNameDeduplicates(t *testing.T) {
	rec := &sendRecorder{}
	cache := NewIdentifierCache(100*time.Millisecond, rec.send)

	var results []uint32
	fn := func(id uint32, ok bool) {
		if !ok {
			t.Errorf("expected lookup to succeed")
		}
		results = append(results, id)
	}

	// Case variants of the same name inside the window coalesce into one
	// outbound request.
	if err := cache.ResolveName("foo", fn); err != nil {
		t.Fatalf("ResolveName() returned error: %s", err)
	}
	if err := cache.ResolveName("FOO", fn); err != nil {
		t.Fatalf("ResolveName() returned error: %s", err)
	}
	if len(rec.names) != 1 {
		t.Fatalf("expected exactly one outbound lookup, got %d", len(rec.names))
	}
	if rec.names[0] != "Foo" {
		t.Errorf("expected the request to carry the normalized name, got %q", rec.names[0])
	}

	// The single reply fires every waiting continuation.
	cache.HandleReply(1421, "Foo")
	if len(results) != 2 {
		t.Fatalf("expected both continuations to fire, got %d", len(results))
	}
	for _, id := range results {
		if id != 1421 {
			t.Errorf("continuation received id %d, want 1421", id)
		}
	}

	// Subsequent resolves answer from cache without a new request.
	if err := cache.ResolveName("foo", fn); err != nil {
		t.Fatalf("ResolveName() returned error: %s", err)
	}
	if len(rec.names) != 1 {
		t.Errorf("expected cached resolve not to send, got %d requests", len(rec.names))
	}
}

func TestResolveNameReissuesAfterWindow(t *testing.T) {
	rec := &sendRecorder{}
	cache := NewIdentifierCache(50*time.Millisecond, rec.send)

	fn := func(uint32, bool) {}

	if err := cache.ResolveName("Foo", fn); err != nil {
		t.Fatalf("ResolveName() returned error: %s", err)
	}
	if err := cache.ResolveName("Foo", fn); err != nil {
		t.Fatalf("ResolveName() returned error: %s", err)
	}
	if len(rec.names) != 1 {
		t.Fatalf("expected one request inside the window, got %d", len(rec.names))
	}

	// With no reply and the window elapsed, a fresh resolve re-sends.
	time.Sleep(80 * time.Millisecond)
	if err := cache.ResolveName("Foo", fn); err != nil {
		t.Fatalf("ResolveName() returned error: %s", err)
	}
	if len(rec.names) != 2 {
		t.Errorf("expected a second request after the window, got %d", len(rec.names))
	}
}

func TestHandleReplyNotFound(t *testing.T) {
	rec := &sendRecorder{}
	cache := NewIdentifierCache(time.Second, rec.send)

	fired := false
	err := cache.ResolveName("Ghost", func(id uint32, ok bool) {
		fired = true
		if ok {
			t.Errorf("expected not-found to surface as ok=false")
		}
	})
	if err != nil {
		t.Fatalf("ResolveName() returned error: %s", err)
	}

	cache.HandleReply(protocol.CharNone, "Ghost")
	if !fired {
		t.Fatalf("expected continuation to fire")
	}

	// The negative result is cached; no new request goes out.
	err = cache.ResolveName("ghost", func(id uint32, ok bool) {
		if ok {
			t.Errorf("expected cached not-found, got id %d", id)
		}
	})
	if err != nil {
		t.Fatalf("ResolveName() returned error: %s", err)
	}
	if len(rec.names) != 1 {
		t.Errorf("expected cached not-found not to re-send, got %d requests", len(rec.names))
	}
}

func TestNameFromID(t *testing.T) {
	cache := NewIdentifierCache(time.Second, (&sendRecorder{}).send)

	if _, ok := cache.NameFromID(1421); ok {
		t.Errorf("expected unknown id not to resolve")
	}

	cache.HandleReply(1421, "foo")
	name, ok := cache.NameFromID(1421)
	if !ok || name != "Foo" {
		t.Errorf("NameFromID(1421) = %q, %v; want Foo, true", name, ok)
	}

	// Not-found replies must not pollute the id direction.
	cache.HandleReply(protocol.CharNone, "Ghost")
	if _, ok := cache.NameFromID(protocol.CharNone); ok {
		t.Errorf("expected the reserved id not to resolve to a name")
	}
}

func TestOnlineTriState(t *testing.T) {
	cache := NewIdentifierCache(time.Second, (&sendRecorder{}).send)

	if _, known := cache.Online(7); known {
		t.Errorf("expected unreported buddy to be unknown")
	}

	cache.SetOnline(7, true)
	if online, known := cache.Online(7); !known || !online {
		t.Errorf("Online(7) = %v, %v; want true, true", online, known)
	}

	cache.SetOnline(7, false)
	if online, known := cache.Online(7); !known || online {
		t.Errorf("Online(7) = %v, %v; want false, true", online, known)
	}

	cache.ClearOnline(7)
	if _, known := cache.Online(7); known {
		t.Errorf("expected cleared buddy to return to unknown")
	}
}
