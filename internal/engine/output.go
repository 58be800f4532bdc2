package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const dateFormat = "2006-01-02"

// OutputFilename is the canonical report path for one (entity, day).
func OutputFilename(outputDir, entityID string, day time.Time) string {
	name := fmt.Sprintf("merchant_recon_%s_%s.xlsx", entityID, day.Format(dateFormat))
	return filepath.Join(outputDir, name)
}

// AlreadyRan reports whether a report for (entity, day) already exists. The
// engine itself keeps no "already done" state; schedulers call this before
// invoking a run to stay idempotent.
func AlreadyRan(outputDir, entityID string, day time.Time) bool {
	_, err := os.Stat(OutputFilename(outputDir, entityID, day))
	return err == nil
}

// RunDates scans the output directory for an entity's existing report days,
// sorted ascending.
func RunDates(outputDir, entityID string) ([]time.Time, error) {
	entries, err := os.ReadDir(outputDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading output dir: %w", err)
	}

	prefix := fmt.Sprintf("merchant_recon_%s_", entityID)
	var days []time.Time
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".xlsx") {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".xlsx")
		d, err := time.Parse(dateFormat, stamp)
		if err != nil {
			continue
		}
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, nil
}
