package cache

import (
	"crypto/sha1" // #nosec G505: key derivation, not security
	"encoding/hex"
	"net/url"
	"strconv"
	"strings"
)

// Operations cached by the analytics service.
const (
	OpSummary  = "summary"
	OpTrend    = "trend"
	OpInsights = "insights"
)

// Key identifies one cached computation of one user.
//
// Args are positional and already normalised by the caller; a change in
// their number or order produces a different key.
type Key struct {
	Operation string
	UserID    string
	Args      []string
}

// NewKey builds a key from typed parts.
func NewKey(operation, userID string, args ...string) Key {
	return Key{Operation: operation, UserID: userID, Args: args}
}

// String renders the canonical form user|operation|sha1(args).
//
// The user id is escaped so that one user's prefix can never match
// another's, and each arg is length-prefixed so that ("ab","c") and
// ("a","bc") hash differently.
func (k Key) String() string {
	var b strings.Builder
	for _, arg := range k.Args {
		b.WriteString(strconv.Itoa(len(arg)))
		b.WriteByte(':')
		b.WriteString(arg)
	}
	h := sha1.Sum([]byte(b.String())) // nolint:gosec
	return UserPrefix(k.UserID) + url.QueryEscape(k.Operation) + "|" + hex.EncodeToString(h[:])
}

// UserPrefix is the prefix shared by every key of userID.
func UserPrefix(userID string) string {
	return url.QueryEscape(userID) + "|"
}
