package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator hands out monotonic ULIDs. The zero value is not usable; use
// NewGenerator.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

// NewGenerator seeds a PRNG from crypto/rand. IDs minted within the same
// millisecond stay lexicographically increasing.
func NewGenerator() *Generator {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return newGenerator(rand.New(rand.NewSource(seed)), time.Now)
}

func newGenerator(r io.Reader, now func() time.Time) *Generator {
	return &Generator{entropy: ulid.Monotonic(r, 0), now: now}
}

// New returns a ULID string.
func (g *Generator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(g.now().UTC()), g.entropy)
	if err != nil {
		// only if the clock runs backwards past the monotonic window
		panic(err)
	}
	return id.String()
}

// WithPrefix returns prefix-ULID, lower-cased prefix.
func (g *Generator) WithPrefix(prefix string) string {
	if prefix == "" {
		return g.New()
	}
	return strings.ToLower(prefix) + "-" + g.New()
}

var std = NewGenerator()

// New returns a ULID from the package generator.
func New() string { return std.New() }

// CandidateID identifies a sized trade candidate.
func CandidateID() string { return std.WithPrefix("cand") }

// ClientOrderID identifies an order request sent to a venue.
func ClientOrderID() string { return std.WithPrefix("ord") }

// Time extracts the timestamp from a bare or prefixed ULID.
func Time(s string) (time.Time, error) {
	if i := strings.LastIndexByte(s, '-'); i >= 0 {
		s = s[i+1:]
	}
	u, err := ulid.ParseStrict(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()).UTC(), nil
}
