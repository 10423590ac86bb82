package payout

import (
	"strconv"
	"time"
)

// NewReference builds a display reference from the last eight digits of the
// millisecond timestamp.
func NewReference(t time.Time) string {
	ms := strconv.FormatInt(t.UnixMilli(), 10)
	if len(ms) > 8 {
		ms = ms[len(ms)-8:]
	}
	return "TXN" + ms
}
