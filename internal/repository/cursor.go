package repository

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Compound cursor "unixmicro_id" over (created_at, id). Two tweets can share
// a timestamp, so the id tiebreaker keeps pagination stable.

func formatCursor(t time.Time, id int64) string {
	return fmt.Sprintf("%d_%d", t.UnixMicro(), id)
}

func parseCursor(cursor string) (time.Time, int64, error) {
	parts := strings.SplitN(cursor, "_", 2)
	if len(parts) != 2 {
		return time.Time{}, 0, fmt.Errorf("invalid cursor format, expected timestamp_id")
	}

	micros, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid timestamp in cursor: %w", err)
	}

	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid id in cursor: %w", err)
	}

	return time.UnixMicro(micros), id, nil
}
