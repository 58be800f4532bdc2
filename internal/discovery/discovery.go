// Package discovery locates the extract files relevant to a target business
// day. Processor folders use either a nested YYYY-MM/DD partition layout or a
// flat layout with dates embedded in filenames; both are handled here so the
// engine never needs to know which convention a processor follows.
package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/recondesk-dev/recondesk/internal/tabular"
)

// datePatterns are tried in order; the first pattern yielding a valid
// calendar date wins.
var datePatterns = []*regexp.Regexp{
	// 12_26_2025, 12-26-2025, 12.26.2025
	regexp.MustCompile(`(?P<m>\d{1,2})[._-](?P<d>\d{1,2})[._-](?P<y>\d{4})`),
	// 20251226
	regexp.MustCompile(`(?P<y>\d{4})(?P<m>\d{2})(?P<d>\d{2})`),
	// 2025-12-26, 2025_12_26, 2025.12.26
	regexp.MustCompile(`(?P<y>\d{4})[._-](?P<m>\d{1,2})[._-](?P<d>\d{1,2})`),
}

// DateFromFilename extracts the first valid date embedded in a filename, or
// false when none of the patterns match.
func DateFromFilename(name string) (time.Time, bool) {
	base := filepath.Base(name)
	for _, pat := range datePatterns {
		m := pat.FindStringSubmatch(base)
		if m == nil {
			continue
		}
		if d, ok := dateFromMatch(pat, m); ok {
			return d, true
		}
	}
	return time.Time{}, false
}

// DatesInFilename extracts every valid date embedded in a filename, sorted
// and deduplicated. Range-named exports carry two.
func DatesInFilename(name string) []time.Time {
	base := filepath.Base(name)
	seen := map[time.Time]bool{}
	var out []time.Time
	for _, pat := range datePatterns {
		for _, m := range pat.FindAllStringSubmatch(base, -1) {
			d, ok := dateFromMatch(pat, m)
			if !ok || seen[d] {
				continue
			}
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

func dateFromMatch(pat *regexp.Regexp, m []string) (time.Time, bool) {
	var y, mo, d int
	for i, name := range pat.SubexpNames() {
		if i == 0 || i >= len(m) {
			continue
		}
		n, err := strconv.Atoi(m[i])
		if err != nil {
			return time.Time{}, false
		}
		switch name {
		case "y":
			y = n
		case "m":
			mo = n
		case "d":
			d = n
		}
	}
	if mo < 1 || mo > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	// Reject rollovers like Feb 30.
	if t.Day() != d || int(t.Month()) != mo {
		return time.Time{}, false
	}
	return t, true
}

// ListFiles returns all tabular files under root, recursively, sorted by
// path. A missing root is not an error, it is simply empty.
func ListFiles(root string) ([]string, error) {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil, nil
	}
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && tabular.IsTabular(d.Name()) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	sort.Strings(out)
	return out, nil
}

// FilesForDay returns the candidate files for a target day under root,
// trying in order:
//  1. the nested YYYY-MM/DD (then YYYY-MM/D) partition layout;
//  2. flat files whose embedded filename date matches the day exactly, or
//     whose embedded date range covers it;
//  3. the most recent flat file dated on-or-before the day, for processors
//     that publish extracts on a lag. Future-dated files are never used.
//
// Files sharing a date sort lexicographically by name.
func FilesForDay(root string, day time.Time) ([]string, error) {
	if picked, err := nestedDayFiles(root, day); err != nil || len(picked) > 0 {
		return picked, err
	}

	all, err := ListFiles(root)
	if err != nil {
		return nil, err
	}

	var picked []string
	for _, f := range all {
		if CoversDay(f, day) {
			picked = append(picked, f)
		}
	}
	if len(picked) > 0 {
		sort.Strings(picked)
		return picked, nil
	}

	// Lag fallback: latest dated file on or before the target day.
	var best string
	var bestDate time.Time
	for _, f := range all {
		d, ok := DateFromFilename(filepath.Base(f))
		if !ok || d.After(day) {
			continue
		}
		if best == "" || d.After(bestDate) || (d.Equal(bestDate) && f < best) {
			best, bestDate = f, d
		}
	}
	if best != "" {
		return []string{best}, nil
	}
	return nil, nil
}

// CoversDay reports whether a file's embedded filename date(s) cover the
// target day: a single date must match exactly; with two or more dates the
// day must fall inside the inclusive range or equal an endpoint.
func CoversDay(path string, day time.Time) bool {
	found := DatesInFilename(filepath.Base(path))
	if len(found) == 0 {
		return false
	}
	for _, d := range found {
		if d.Equal(day) {
			return true
		}
	}
	if len(found) >= 2 {
		return !day.Before(found[0]) && !day.After(found[len(found)-1])
	}
	return false
}

// nestedDayFiles looks for root/YYYY-MM/DD/ and root/YYYY-MM/D/.
func nestedDayFiles(root string, day time.Time) ([]string, error) {
	month := filepath.Join(root, day.Format("2006-01"))
	for _, sub := range []string{day.Format("02"), strconv.Itoa(day.Day())} {
		dir := filepath.Join(month, sub)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		files, err := ListFiles(dir)
		if err != nil {
			return nil, err
		}
		if len(files) > 0 {
			return files, nil
		}
	}
	return nil, nil
}

// BusinessDaysLookback returns the last n business days ending at end,
// inclusive when end itself is a weekday, in chronological order.
func BusinessDaysLookback(end time.Time, n int) []time.Time {
	days := make([]time.Time, 0, n)
	cur := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	for len(days) < n {
		if wd := cur.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days = append(days, cur)
		}
		cur = cur.AddDate(0, 0, -1)
	}
	for i, j := 0, len(days)-1; i < j; i, j = i+1, j-1 {
		days[i], days[j] = days[j], days[i]
	}
	return days
}
