package utils

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const dayLayout = "2006-01-02"

var half = decimal.NewFromFloat(0.5)

// RoundHalfUp rounds to the given number of decimal places, ties towards
// positive infinity (50.0025 -> 50.00, 0.125 -> 0.13, -0.125 -> -0.12).
func RoundHalfUp(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Shift(places).Add(half).Floor().Shift(-places)
}

// StartOfDay returns midnight of t's calendar day in loc
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// ParseDay parses a YYYY-MM-DD day as midnight in loc
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(dayLayout, s, loc)
}

// FormatDay formats t as YYYY-MM-DD
func FormatDay(t time.Time) string {
	return t.Format(dayLayout)
}

// PreviousDay returns the half-open range [yesterday 00:00, today 00:00) relative to now in loc
func PreviousDay(now time.Time, loc *time.Location) (time.Time, time.Time) {
	today := StartOfDay(now, loc)
	return today.AddDate(0, 0, -1), today
}

// FormatSwissDate formats t as D.M.YYYY without zero padding
func FormatSwissDate(t time.Time) string {
	return fmt.Sprintf("%d.%d.%d", t.Day(), int(t.Month()), t.Year())
}

func formatFileDate(t time.Time) string {
	return fmt.Sprintf("%d-%d-%d", t.Day(), int(t.Month()), t.Year())
}

// AttachmentName builds the xlsx file name for the half-open range [start, end).
// Single days give export-D-M-YYYY.xlsx, longer ranges name the inclusive last day.
func AttachmentName(start, end time.Time) string {
	last := end.AddDate(0, 0, -1)
	if !last.After(start) {
		return fmt.Sprintf("export-%s.xlsx", formatFileDate(start))
	}
	return fmt.Sprintf("export-%s-bis-%s.xlsx", formatFileDate(start), formatFileDate(last))
}
