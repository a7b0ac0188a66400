package watcher

import (
	"fmt"
	"time"

	"cardwatch-backend/lib/timezone"
)

const scheduleDateLayout = "02.01.2006"

// ScheduleRule maps an inclusive date range to a scan interval, so the
// watcher can poll faster around known release windows.
type ScheduleRule struct {
	Start           string `json:"start"`
	End             string `json:"end"`
	IntervalSeconds int    `json:"interval_seconds"`
}

type scheduleRule struct {
	start    time.Time
	end      time.Time
	interval time.Duration
}

type Schedule struct {
	rules    []scheduleRule
	fallback time.Duration
}

// NewSchedule parses the configured rules; dates are dd.mm.yyyy in
// german local time and both ends of the range are inclusive.
func NewSchedule(rules []ScheduleRule, fallback time.Duration) (Schedule, error) {
	parsed := make([]scheduleRule, len(rules))
	for i, rule := range rules {
		start, err := time.ParseInLocation(scheduleDateLayout, rule.Start, timezone.Location)
		if err != nil {
			return Schedule{}, fmt.Errorf("parse schedule rule start %q: %w", rule.Start, err)
		}
		end, err := time.ParseInLocation(scheduleDateLayout, rule.End, timezone.Location)
		if err != nil {
			return Schedule{}, fmt.Errorf("parse schedule rule end %q: %w", rule.End, err)
		}
		if end.Before(start) {
			return Schedule{}, fmt.Errorf("schedule rule ends (%s) before it starts (%s)", rule.End, rule.Start)
		}
		if rule.IntervalSeconds <= 0 {
			return Schedule{}, fmt.Errorf("schedule rule %s - %s has no interval", rule.Start, rule.End)
		}
		parsed[i] = scheduleRule{
			start:    start,
			end:      end.Add(24 * time.Hour),
			interval: time.Duration(rule.IntervalSeconds) * time.Second,
		}
	}
	return Schedule{rules: parsed, fallback: fallback}, nil
}

// IntervalAt yields the scan interval in effect at the given time; the
// first matching rule wins, the fallback applies outside every range.
func (s Schedule) IntervalAt(now time.Time) time.Duration {
	for _, rule := range s.rules {
		if !now.Before(rule.start) && now.Before(rule.end) {
			return rule.interval
		}
	}
	return s.fallback
}
