package broadcast

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// newConnectionID returns a ULID so connection ids sort by connect time.
func newConnectionID(now time.Time) (string, error) {
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
