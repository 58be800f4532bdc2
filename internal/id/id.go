package id

import (
	"fmt"
	"strings"
	"time"
)

const dateFormat = "2006-01-02"

// FormatExceptionID returns the stable identity of an exception record, like
// "helpgrid:stripe:2025-03-01:unexplained". Two candidate exceptions with the
// same identity describe the same variance bucket.
func FormatExceptionID(entityID, processor string, day time.Time, reason string) string {
	return fmt.Sprintf("%s:%s:%s:%s", entityID, processor, day.Format(dateFormat), reason)
}

// ParseExceptionID splits an exception identity into its components.
func ParseExceptionID(id string) (entityID, processor string, day time.Time, reason string, err error) {
	parts := strings.SplitN(id, ":", 4)
	if len(parts) != 4 {
		return "", "", time.Time{}, "", fmt.Errorf("invalid exception ID format: %q", id)
	}

	day, err = time.Parse(dateFormat, parts[2])
	if err != nil {
		return "", "", time.Time{}, "", fmt.Errorf("invalid date in exception ID %q: %w", id, err)
	}

	return parts[0], parts[1], day, parts[3], nil
}
