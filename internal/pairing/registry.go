package pairing

import (
	"log"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/puzpuzpuz/xsync/v3"

	"realtime-hub/internal/token"
)

const tokenLength = 16

// Token is a single-use capability binding a mobile client to the web
// client that created it, scoped to one room.
type Token struct {
	Value     string
	RoomID    string
	WebUserID string
	ExpiresAt time.Time
}

// ClaimResult classifies the outcome of a claim attempt
type ClaimResult int

const (
	ClaimOK ClaimResult = iota
	ClaimNotFound
	ClaimWrongRoom
)

// Registry issues and redeems pair tokens. Expired entries are reaped
// on a fixed cadence; callers never block on expiry.
type Registry struct {
	tokens *xsync.MapOf[string, Token]
	clock  clock.Clock
	ttl    time.Duration
	done   chan struct{}
}

// NewRegistry creates a registry and starts its reaper. The reap ticker
// is created before NewRegistry returns, so ticks count from here.
func NewRegistry(clk clock.Clock, ttl, reapInterval time.Duration) *Registry {
	r := &Registry{
		tokens: xsync.NewMapOf[string, Token](),
		clock:  clk,
		ttl:    ttl,
		done:   make(chan struct{}),
	}
	go r.reap(clk.Ticker(reapInterval))
	return r
}

// Create mints a fresh token for the given web user and room. Repeated
// creates coexist; an older token stays valid until its own expiry.
func (r *Registry) Create(roomID, webUserID string) Token {
	t := Token{
		Value:     token.New(tokenLength),
		RoomID:    roomID,
		WebUserID: webUserID,
		ExpiresAt: r.clock.Now().Add(r.ttl),
	}
	r.tokens.Store(t.Value, t)
	return t
}

// Claim redeems a token on behalf of a mobile client in roomID. A
// successful claim consumes the token; a wrong-room claim leaves it
// intact for the right room to redeem.
func (r *Registry) Claim(value, roomID string) (Token, ClaimResult) {
	t, ok := r.tokens.Load(value)
	if !ok || r.clock.Now().After(t.ExpiresAt) {
		return Token{}, ClaimNotFound
	}
	if t.RoomID != roomID {
		return Token{}, ClaimWrongRoom
	}
	// LoadAndDelete decides the race when two mobiles claim at once;
	// only one of them observes the token.
	t, ok = r.tokens.LoadAndDelete(value)
	if !ok {
		return Token{}, ClaimNotFound
	}
	return t, ClaimOK
}

// Size returns the number of live (possibly expired, not yet reaped)
// tokens.
func (r *Registry) Size() int {
	return r.tokens.Size()
}

// Stop terminates the reaper.
func (r *Registry) Stop() {
	close(r.done)
}

func (r *Registry) reap(ticker *clock.Ticker) {
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			return
		case <-ticker.C:
			now := r.clock.Now()
			removed := 0
			r.tokens.Range(func(value string, t Token) bool {
				if now.After(t.ExpiresAt) {
					r.tokens.Delete(value)
					removed++
				}
				return true
			})
			if removed > 0 {
				log.Printf("[Pairing] Reaped %d expired token(s)", removed)
			}
		}
	}
}
