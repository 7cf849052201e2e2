// Package pow implements the proof-of-work admission gate guarding public
// mutation endpoints. Challenges are stateless: validity is recomputable
// from the challenge fields plus the server HMAC secret, so nothing is
// persisted between issuance and verification.
package pow

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
	"time"
)

// Challenge is handed to a client in a 428 response. The client must find a
// counter such that sha256(nonce.counter.scope) has at least Difficulty
// leading zero bits, then echo the solved challenge in the X-PoW header.
type Challenge struct {
	Nonce      string `json:"nonce"`
	Ts         int64  `json:"ts"`
	TTL        int64  `json:"ttl"`
	Difficulty int    `json:"difficulty"`
	Signature  string `json:"signature"`
	Scope      string `json:"scope"`
}

// Solution is a parsed X-PoW header: nonce:ts:ttl:difficulty:counter:signature.
type Solution struct {
	Nonce      string
	Ts         int64
	TTL        int64
	Difficulty int
	Counter    string
	Signature  string
}

// Challenger issues and verifies challenges.
type Challenger struct {
	secret        []byte
	difficulty    int
	maxDifficulty int
	ttl           time.Duration
	now           func() time.Time
}

func NewChallenger(secret string, difficulty, maxDifficulty int, ttl time.Duration) *Challenger {
	return &Challenger{
		secret:        []byte(secret),
		difficulty:    difficulty,
		maxDifficulty: maxDifficulty,
		ttl:           ttl,
		now:           time.Now,
	}
}

// Issue creates a fresh signed challenge for the given scope.
func (c *Challenger) Issue(scope string) Challenge {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)

	ch := Challenge{
		Nonce:      hex.EncodeToString(buf),
		Ts:         c.now().Unix(),
		TTL:        int64(c.ttl.Seconds()),
		Difficulty: c.difficulty,
		Scope:      scope,
	}
	ch.Signature = c.sign(ch.Nonce, ch.Ts, ch.TTL, ch.Difficulty, scope)
	return ch
}

// Verify checks a solved challenge for the given scope. It is stateless and
// constant-time with respect to the signature comparison.
func (c *Challenger) Verify(sol Solution, scope string) error {
	expected := c.sign(sol.Nonce, sol.Ts, sol.TTL, sol.Difficulty, scope)
	if !hmac.Equal([]byte(expected), []byte(sol.Signature)) {
		return fmt.Errorf("pow: signature mismatch")
	}

	if sol.Difficulty > c.maxDifficulty {
		return fmt.Errorf("pow: difficulty %d exceeds cap %d", sol.Difficulty, c.maxDifficulty)
	}

	age := c.now().Unix() - sol.Ts
	if age < 0 || age > sol.TTL {
		return fmt.Errorf("pow: challenge expired")
	}

	sum := sha256.Sum256([]byte(sol.Nonce + "." + sol.Counter + "." + scope))
	if LeadingZeroBits(sum[:]) < sol.Difficulty {
		return fmt.Errorf("pow: insufficient work")
	}

	return nil
}

func (c *Challenger) sign(nonce string, ts, ttl int64, difficulty int, scope string) string {
	mac := hmac.New(sha256.New, c.secret)
	fmt.Fprintf(mac, "%s.%d.%d.%d.%s", nonce, ts, ttl, difficulty, scope)
	return hex.EncodeToString(mac.Sum(nil))
}

// ParseHeader parses the X-PoW header value
// nonce:ts:ttl:difficulty:counter:signature.
func ParseHeader(header string) (Solution, error) {
	parts := strings.Split(header, ":")
	if len(parts) != 6 {
		return Solution{}, fmt.Errorf("pow: malformed header")
	}

	ts, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return Solution{}, fmt.Errorf("pow: malformed ts: %w", err)
	}
	ttl, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return Solution{}, fmt.Errorf("pow: malformed ttl: %w", err)
	}
	difficulty, err := strconv.Atoi(parts[3])
	if err != nil {
		return Solution{}, fmt.Errorf("pow: malformed difficulty: %w", err)
	}

	return Solution{
		Nonce:      parts[0],
		Ts:         ts,
		TTL:        ttl,
		Difficulty: difficulty,
		Counter:    parts[4],
		Signature:  parts[5],
	}, nil
}

// LeadingZeroBits counts the leading zero bits of sum.
func LeadingZeroBits(sum []byte) int {
	n := 0
	for _, b := range sum {
		if b == 0 {
			n += 8
			continue
		}
		n += bits.LeadingZeros8(b)
		break
	}
	return n
}

// Solve brute-forces a counter for ch. It exists for clients and tests; the
// server never calls it.
func Solve(ch Challenge) string {
	for i := 0; ; i++ {
		counter := strconv.Itoa(i)
		sum := sha256.Sum256([]byte(ch.Nonce + "." + counter + "." + ch.Scope))
		if LeadingZeroBits(sum[:]) >= ch.Difficulty {
			return counter
		}
	}
}
