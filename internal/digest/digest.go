// Package digest implements batched-delivery cadence logic and digest
// message formatting.
package digest

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethanocurtis/MultiNotify/internal/model"
)

// ChunkSize is the maximum number of entries per digest message.
const ChunkSize = 20

// Localize converts t to the recipient's timezone, falling back to the
// global default and then UTC when a zone name is empty or invalid.
func Localize(t time.Time, tz, fallbackTZ string) time.Time {
	for _, name := range []string{tz, fallbackTZ} {
		if name == "" {
			continue
		}
		if loc, err := time.LoadLocation(name); err == nil {
			return t.In(loc)
		}
	}
	return t.UTC()
}

// Due reports whether a recipient's digest should be sent now.
// nowLocal must already be in the recipient's local timezone. A daily
// digest is due once the time of day reaches the configured digest
// time, at most once per local date; a weekly digest additionally
// requires the configured weekday, at most once per ISO week.
func Due(nowLocal time.Time, p *model.RecipientProfile, meta *model.DigestMeta) bool {
	digestMinute, err := parseHHMM(p.DigestTime)
	if err != nil {
		return false
	}
	if nowLocal.Hour()*60+nowLocal.Minute() < digestMinute {
		return false
	}

	switch p.DigestMode {
	case model.DigestDaily:
		return nowLocal.Format("2006-01-02") != meta.LastDailyDate
	case model.DigestWeekly:
		if nowLocal.Weekday() != p.DigestDay {
			return false
		}
		return isoWeek(nowLocal) != meta.LastWeeklyISO
	}
	return false
}

// MarkSent advances the cadence watermarks after a digest was sent (or
// was due with an empty queue).
func MarkSent(nowLocal time.Time, p *model.RecipientProfile, meta *model.DigestMeta) {
	switch p.DigestMode {
	case model.DigestDaily:
		meta.LastDailyDate = nowLocal.Format("2006-01-02")
	case model.DigestWeekly:
		meta.LastWeeklyISO = isoWeek(nowLocal)
	}
}

func isoWeek(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

func parseHHMM(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatChunks renders queued entries into digest messages of at most
// ChunkSize entries each.
func FormatChunks(entries []model.DigestEntry) []string {
	if len(entries) == 0 {
		return nil
	}

	var chunks []string
	for start := 0; start < len(entries); start += ChunkSize {
		end := start + ChunkSize
		if end > len(entries) {
			end = len(entries)
		}

		var b strings.Builder
		if start == 0 {
			fmt.Fprintf(&b, "Your digest (%d items):\n", len(entries))
		} else {
			fmt.Fprintf(&b, "Your digest (continued):\n")
		}
		for _, e := range entries[start:end] {
			origin := e.Origin
			if e.Kind == model.KindReddit {
				origin = "r/" + origin
			}
			fmt.Fprintf(&b, "\n- %s (%s)\n  %s", e.Title, origin, e.URL)
		}
		chunks = append(chunks, b.String())
	}
	return chunks
}
