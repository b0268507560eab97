// Package repositories implements the durable collections (users,
// discussions, messages) on top of BadgerDB. Values are CBOR-encoded
// documents; composite keys provide the secondary indexes: unique username,
// unique canonical participant set, and per-discussion chronological order.
package repositories

import (
	"strings"

	"github.com/fxamacker/cbor/v2"
)

const (
	userKeyPrefix     = "user:id:"
	usernameKeyPrefix = "user:name:"
	discKeyPrefix     = "disc:id:"
	discIndexPrefix   = "disc:key:"
	msgKeyPrefix      = "msg:id:"
	msgIndexPrefix    = "msgidx:"
)

// encMode stamps times as RFC3339 with nanoseconds; the default integer
// encoding truncates to seconds, which would lose the ordering precision
// the message index relies on.
var encMode = func() cbor.EncMode {
	em, err := cbor.EncOptions{Time: cbor.TimeRFC3339Nano}.EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

func encodeDoc(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

func decodeDoc(data []byte, v any) error {
	return cbor.Unmarshal(data, v)
}

// participantKey joins an already-canonicalized participant list into the
// unique index key for its discussion. User ids are UUIDs, so the separator
// cannot occur inside an id.
func participantKey(participants []string) string {
	return discIndexPrefix + strings.Join(participants, "|")
}
