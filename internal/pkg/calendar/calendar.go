// Package calendar expands date ranges into working days.
package calendar

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

var workWeek = []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR}

// BusinessDays lists every Monday to Friday between from and to, both inclusive.
func BusinessDays(from, to time.Time) ([]time.Time, error) {
	if to.Before(from) {
		return nil, nil
	}

	rule, err := rrule.NewRRule(rrule.ROption{
		Freq:      rrule.DAILY,
		Dtstart:   from,
		Until:     to,
		Byweekday: workWeek,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build business day rule: %w", err)
	}

	return rule.All(), nil
}

// CountBusinessDays counts Monday to Friday days between from and to inclusive.
func CountBusinessDays(from, to time.Time) (int, error) {
	days, err := BusinessDays(from, to)
	if err != nil {
		return 0, err
	}
	return len(days), nil
}
