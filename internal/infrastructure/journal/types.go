package journal

import (
	"fmt"
	"strings"
	"time"
)

var (
	awardsBucket = []byte("awards")
	timeBucket   = []byte("awards_by_time")
)

const sep = "\x00"

// awardKey indexes an award by (user, event key) for idempotency checks.
func awardKey(userID, key string) []byte {
	return []byte(userID + sep + key)
}

// timeKey orders a user's awards chronologically.
func timeKey(userID string, at time.Time, key string) []byte {
	return []byte(fmt.Sprintf("%s%s%020d%s%s", userID, sep, at.UnixNano(), sep, key))
}

func userPrefix(userID string) []byte {
	return []byte(userID + sep)
}

// splitTimeKey returns the user id and award key stored in a time index key.
func splitTimeKey(k []byte) (string, string, bool) {
	parts := strings.SplitN(string(k), sep, 3)
	if len(parts) != 3 {
		return "", "", false
	}
	return parts[0], parts[2], true
}
