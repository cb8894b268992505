package ginserver

import (
	"strconv"
	"strings"
	"time"

	gin "github.com/gin-gonic/gin"

	"apexrentals/internal/domain/shared/daterange"
)

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parseInt(raw string) int {
	value, _ := strconv.Atoi(strings.TrimSpace(raw))
	if value < 0 {
		return 0
	}
	return value
}

func parseIntWithDefault(raw string, fallback int) int {
	value := parseInt(raw)
	if value == 0 {
		return fallback
	}
	return value
}

// parseOptionalFloat returns nil for an absent or malformed value.
func parseOptionalFloat(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &value
}

func parseBool(raw string) bool {
	value, _ := strconv.ParseBool(strings.TrimSpace(raw))
	return value
}

// parseDates reads a start/end pair. A malformed value wraps
// daterange.ErrInvalidDate so it maps to InvalidRange.
func parseDates(start, end string) (time.Time, time.Time, error) {
	from, err := daterange.Parse(start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := daterange.Parse(end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

func pathID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		badRequest(c, "id is required")
		return "", false
	}
	return id, true
}
