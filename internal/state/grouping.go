package state

import (
	"sort"
	"time"

	"github.com/bashchat/bashchatd/internal/wire"
)

// DaySection is one calendar day of messages for display, newest first.
type DaySection struct {
	Title    string         `json:"title"`
	Messages []wire.Message `json:"messages"`
}

// createdLayouts are the timestamp formats the backend has been observed
// to emit.
var createdLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
}

func parseCreated(s string) (time.Time, bool) {
	for _, layout := range createdLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// GroupByDay buckets messages by calendar day for display: days newest
// first, messages within a day by created timestamp descending. Messages
// whose created timestamp does not parse are excluded rather than
// breaking the grouping.
func GroupByDay(msgs []wire.Message, now time.Time) []DaySection {
	type entry struct {
		msg wire.Message
		at  time.Time
	}
	buckets := make(map[string][]entry)
	days := make(map[string]time.Time)

	for _, m := range msgs {
		if m.Created == "" {
			continue
		}
		at, ok := parseCreated(m.Created)
		if !ok {
			continue
		}
		day := at.Format("2006-01-02")
		buckets[day] = append(buckets[day], entry{msg: m, at: at})
		if _, seen := days[day]; !seen {
			days[day] = time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
		}
	}

	keys := make([]string, 0, len(days))
	for day := range days {
		keys = append(keys, day)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	sections := make([]DaySection, 0, len(keys))
	for _, day := range keys {
		entries := buckets[day]
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].at.After(entries[j].at)
		})
		ordered := make([]wire.Message, len(entries))
		for i, e := range entries {
			ordered[i] = e.msg
		}
		sections = append(sections, DaySection{
			Title:    dayLabel(days[day], now),
			Messages: ordered,
		})
	}
	return sections
}

func dayLabel(day, now time.Time) string {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch {
	case sameDay(day, today):
		return "Today"
	case sameDay(day, today.AddDate(0, 0, -1)):
		return "Yesterday"
	default:
		return day.Format("Monday, 02 Jan")
	}
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
