// Package ids provides the message ID primitive.
package ids

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewMessageID returns a ULID string (26 chars). ULIDs sort
// lexicographically by creation time, and the monotonic entropy source keeps
// ids strictly increasing within a process even at identical millisecond
// timestamps, which gives messages a total order.
func NewMessageID(now time.Time) (string, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	entropyMu.Lock()
	defer entropyMu.Unlock()

	id, err := ulid.New(ulid.Timestamp(now), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
