package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"chatbot-widget/internal/constant"

	"github.com/google/uuid"
)

// randomSuffix returns nine lowercase alphanumerics.
func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
}

func newSessionId(now time.Time) string {
	return fmt.Sprintf("%s%d_%s", constant.SessionIDPrefix, now.UnixMilli(), randomSuffix())
}

func newMessageId(now time.Time) string {
	return fmt.Sprintf("%s%d-%s", constant.MessageIDPrefix, now.UnixMilli(), randomSuffix())
}

// sessionCreatedAt recovers the creation time encoded in a session id.
func sessionCreatedAt(id string) (time.Time, bool) {
	rest, ok := strings.CutPrefix(id, constant.SessionIDPrefix)
	if !ok {
		return time.Time{}, false
	}
	msPart, _, _ := strings.Cut(rest, "_")
	ms, err := strconv.ParseInt(msPart, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}
