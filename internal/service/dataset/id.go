package dataset

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// idGenerator issues "<camera>_<unix-ms>" ids. When a camera's millisecond
// repeats, or the clock steps back, "_<n>" is appended so ids stay unique
// within the process.
type idGenerator struct {
	mu   sync.Mutex
	last map[string]int64
	seq  map[string]int
}

func newIDGenerator() *idGenerator {
	return &idGenerator{
		last: make(map[string]int64),
		seq:  make(map[string]int),
	}
}

func (g *idGenerator) next(cameraID string, at time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := at.UnixMilli()
	last, seen := g.last[cameraID]
	if !seen || ms > last {
		g.last[cameraID] = ms
		g.seq[cameraID] = 0
		return fmt.Sprintf("%s_%d", cameraID, ms)
	}

	g.seq[cameraID]++
	return fmt.Sprintf("%s_%d_%d", cameraID, last, g.seq[cameraID])
}

// ParseID splits a sample id back into camera id and capture time.
func ParseID(id string) (cameraID string, at time.Time, err error) {
	parts := strings.Split(id, "_")
	if len(parts) < 2 {
		return "", time.Time{}, fmt.Errorf("invalid sample id %q", id)
	}

	// <camera>_<ms>_<n>: a tie-breaker follows a millisecond timestamp
	if len(parts) >= 3 && isDigits(parts[len(parts)-1]) && isDigits(parts[len(parts)-2]) && len(parts[len(parts)-2]) >= 10 {
		parts = parts[:len(parts)-1]
	}

	ms, err := strconv.ParseInt(parts[len(parts)-1], 10, 64)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("invalid sample id %q: %w", id, err)
	}
	cameraID = strings.Join(parts[:len(parts)-1], "_")
	if cameraID == "" {
		return "", time.Time{}, fmt.Errorf("invalid sample id %q: empty camera", id)
	}
	return cameraID, time.UnixMilli(ms), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
