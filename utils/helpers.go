package utils

import (
	"fmt"
	"time"

	"smartflow/api/models"
)

const dateLayout = "2006-01-02"

// ParseDate resolves a YYYY-MM-DD string to a midnight-UTC date.
func ParseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", models.ErrTypeMismatch, value)
	}
	return t.UTC(), nil
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// Midnight truncates an instant to the start of its UTC day.
func Midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
