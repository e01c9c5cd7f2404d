package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	// TimeLayout is the fixed format of timestamps handed to callers.
	TimeLayout = "2006-01-02 15:04:05"

	userFragmentLen = 4
	randomSuffixLen = 6
)

// NewSessionID encodes the creation time and the first runes of the owner's
// id, plus a short random suffix taken from a ULID's entropy section, e.g.
// sess_1712345678.123456_alic_7kq2xz.
func NewSessionID(now time.Time, userID string) string {
	frag := []rune(userID)
	if len(frag) > userFragmentLen {
		frag = frag[:userFragmentLen]
	}
	id := ulid.Make().String()
	suffix := strings.ToLower(id[len(id)-randomSuffixLen:])
	return fmt.Sprintf("sess_%d.%06d_%s_%s", now.Unix(), now.Nanosecond()/1000, string(frag), suffix)
}

// defaultHistoryName names sessions first seen through SaveChatHistory.
func defaultHistoryName(now time.Time) string {
	return "Session " + now.Format("2006-01-02")
}

// defaultChatName names sessions opened by AppendMessage and CreateSession.
func defaultChatName(now time.Time) string {
	return "Chat " + now.Format("01/02 15:04")
}

func formatTime(t time.Time) string {
	return t.Format(TimeLayout)
}
