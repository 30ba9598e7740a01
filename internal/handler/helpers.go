package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

func intQuery(c *gin.Context, key string, def int) int {
	if val := c.Query(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return def
}

func strQueryPtr(c *gin.Context, key string) *string {
	if val := strings.TrimSpace(c.Query(key)); val != "" {
		return &val
	}
	return nil
}

func boolQueryPtr(c *gin.Context, key string) *bool {
	if val := c.Query(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return &b
		}
	}
	return nil
}

func boolPtr(v bool) *bool { return &v }

func uint64QueryParam(c *gin.Context, key string) uint64 {
	val := strings.TrimSpace(c.Param(key))
	if val == "" {
		return 0
	}
	var out uint64
	for i := 0; i < len(val); i++ {
		ch := val[i]
		if ch < '0' || ch > '9' {
			return 0
		}
		out = out*10 + uint64(ch-'0')
	}
	return out
}

func uint64Query(c *gin.Context, key string) uint64 {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return 0
	}
	out, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0
	}
	return out
}

// dateQuery parses YYYY-MM-DD and falls back to RFC3339. The returned time
// is UTC; ok is false when the parameter is absent or malformed.
func dateQuery(c *gin.Context, key string) (time.Time, bool) {
	val := strings.TrimSpace(c.Query(key))
	if val == "" {
		return time.Time{}, false
	}
	if ts, err := time.Parse("2006-01-02", val); err == nil {
		return ts.UTC(), true
	}
	if ts, err := time.Parse(time.RFC3339, val); err == nil {
		return ts.UTC(), true
	}
	return time.Time{}, false
}

func timeQueryPtr(c *gin.Context, key string) *time.Time {
	if ts, ok := dateQuery(c, key); ok {
		return &ts
	}
	return nil
}

func paginationMeta(limit, offset int, total int64) map[string]any {
	if limit <= 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}
	hasNext := int64(offset+limit) < total
	return map[string]any{
		"limit":    limit,
		"offset":   offset,
		"total":    total,
		"has_next": hasNext,
	}
}
