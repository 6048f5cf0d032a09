package hlc

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

const nonceAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// Timestamp is a single Hybrid Logical Clock value.
type Timestamp struct {
	Physical int64  // milliseconds since the Unix epoch
	Logical  uint32 // non-negative logical counter
	Nonce    string // 6-character base36 tie-break
}

// Compare returns -1, 0, or 1 if t orders before, equal to, or after o.
func (t Timestamp) Compare(o Timestamp) int {
	switch {
	case t.Physical < o.Physical:
		return -1
	case t.Physical > o.Physical:
		return 1
	}
	switch {
	case t.Logical < o.Logical:
		return -1
	case t.Logical > o.Logical:
		return 1
	}
	return strings.Compare(t.Nonce, o.Nonce)
}

// Before reports whether t orders strictly before o.
func (t Timestamp) Before(o Timestamp) bool { return t.Compare(o) < 0 }

// After reports whether t orders strictly after o.
func (t Timestamp) After(o Timestamp) bool { return t.Compare(o) > 0 }

// IsZero reports whether t is the zero value.
func (t Timestamp) IsZero() bool {
	return t.Physical == 0 && t.Logical == 0 && t.Nonce == ""
}

// String renders the canonical "<physical>-<logical>-<nonce>" form.
func (t Timestamp) String() string {
	return fmt.Sprintf("%d-%06d-%s", t.Physical, t.Logical, t.Nonce)
}

// Parse parses the canonical string form produced by String.
func Parse(s string) (Timestamp, error) {
	parts := strings.SplitN(s, "-", 3)
	if len(parts) != 3 {
		return Timestamp{}, fmt.Errorf("hlc: malformed timestamp %q", s)
	}
	physical, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Timestamp{}, fmt.Errorf("hlc: malformed physical component in %q: %w", s, err)
	}
	logical, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return Timestamp{}, fmt.Errorf("hlc: malformed logical component in %q: %w", s, err)
	}
	if len(parts[2]) == 0 {
		return Timestamp{}, fmt.Errorf("hlc: empty nonce in %q", s)
	}
	return Timestamp{Physical: physical, Logical: uint32(logical), Nonce: parts[2]}, nil
}

// Clock produces strictly monotonic Timestamps for one process (or one
// collection, if a caller wants per-collection clocks).
type Clock struct {
	mu        sync.Mutex
	current   Timestamp
	now       func() time.Time
	nonce     func() (string, error)
	onTick    func(Timestamp)
	onObserve func(remote Timestamp, advanced bool)
}

// Option configures a Clock at construction time.
type Option func(*Clock)

// WithNowFunc overrides the wall-clock source, for deterministic tests.
func WithNowFunc(now func() time.Time) Option {
	return func(c *Clock) { c.now = now }
}

// WithNonceFunc overrides the nonce generator, for deterministic tests.
func WithNonceFunc(nonce func() (string, error)) Option {
	return func(c *Clock) { c.nonce = nonce }
}

// WithOnTick registers a callback invoked after every Tick, for passive
// observers (e.g. pkg/metrics) that want to count ticks without the clock
// importing anything beyond the standard library.
func WithOnTick(fn func(Timestamp)) Option {
	return func(c *Clock) { c.onTick = fn }
}

// WithOnObserve registers a callback invoked after every Observe, told
// whether the remote timestamp advanced the clock.
func WithOnObserve(fn func(remote Timestamp, advanced bool)) Option {
	return func(c *Clock) { c.onObserve = fn }
}

// New constructs a Clock with its current timestamp at the zero value;
// the first Tick establishes physical time from the now source.
func New(opts ...Option) *Clock {
	c := &Clock{
		now:   time.Now,
		nonce: randomNonce,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Tick advances the clock and returns the new timestamp. Per spec: if wall
// time has moved past the current physical component, the physical
// component advances and the logical counter resets to zero; otherwise
// (including wall time going backward) the physical component is held and
// the logical counter increments.
func (c *Clock) Tick() Timestamp {
	c.mu.Lock()
	defer c.mu.Unlock()

	nowMillis := c.now().UnixMilli()

	next := c.current
	if nowMillis > c.current.Physical {
		next.Physical = nowMillis
		next.Logical = 0
	} else {
		next.Logical = c.current.Logical + 1
	}

	nonce, err := c.nonce()
	if err != nil {
		// crypto/rand failures are not recoverable in-process; a
		// zero-value nonce would silently break tie-breaking, so
		// surface it loudly instead of swallowing it.
		panic(fmt.Errorf("hlc: generating nonce: %w", err))
	}
	next.Nonce = nonce

	c.current = next
	if c.onTick != nil {
		c.onTick(next)
	}
	return next
}

// Observe folds a remote timestamp into the clock: if remote orders after
// the current timestamp, current is advanced to remote (nonce included).
// Observe never causes Tick to produce a timestamp less than remote.
func (c *Clock) Observe(remote Timestamp) {
	c.mu.Lock()
	defer c.mu.Unlock()

	advanced := remote.After(c.current)
	if advanced {
		c.current = remote
	}
	if c.onObserve != nil {
		c.onObserve(remote, advanced)
	}
}

// Current returns the clock's current timestamp without advancing it.
func (c *Clock) Current() Timestamp {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func randomNonce() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, 6)
	for i, b := range buf {
		out[i] = nonceAlphabet[int(b)%len(nonceAlphabet)]
	}
	return string(out), nil
}
