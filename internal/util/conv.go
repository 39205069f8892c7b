package util

import (
	"strconv"

	"github.com/google/uuid"
)

// MustParseUint 将字符串转换为无符号整数，解析失败时返回 0
func MustParseUint(s string) uint {
	id, _ := strconv.ParseUint(s, 10, 32)
	return uint(id)
}

// ParseID parses a positive numeric path id.
func ParseID(s string) (uint, bool) {
	id := MustParseUint(s)
	return id, id > 0
}

// QueryInt parses an integer query value, returning def when absent or bad.
func QueryInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// NewRequestID returns a random request identifier.
func NewRequestID() string {
	return uuid.NewString()
}
