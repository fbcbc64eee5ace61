// Package pricing derives the cost of a stay from a room's period price and
// a check-in/check-out date range.
package pricing

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"roomrenting/internal/models"
)

var (
	ErrMissingDate      = errors.New("check-in and check-out dates are required")
	ErrInvalidDate      = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidDateRange = errors.New("check-out date must be after check-in date")
)

const day = 24 * time.Hour

// DateRange is a requested stay.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// Result is the derived price of a stay.
type Result struct {
	Days        int64
	PricePerDay models.Money
	Total       models.Money
}

// ParseDate parses a calendar date in UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrMissingDate
	}
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// ParseRange parses and validates a check-in/check-out pair.
func ParseRange(checkIn, checkOut string) (DateRange, error) {
	in, err := ParseDate(checkIn)
	if err != nil {
		return DateRange{}, err
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return DateRange{}, err
	}
	r := DateRange{CheckIn: in, CheckOut: out}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// Validate rejects missing dates and ranges where check-out is not strictly
// after check-in.
func (r DateRange) Validate() error {
	if r.CheckIn.IsZero() || r.CheckOut.IsZero() {
		return ErrMissingDate
	}
	if !r.CheckOut.After(r.CheckIn) {
		return fmt.Errorf("%w: %s to %s", ErrInvalidDateRange,
			models.FormatDate(r.CheckIn), models.FormatDate(r.CheckOut))
	}
	return nil
}

// Days returns the number of started days between check-in and check-out.
// Whole days are counted between calendar dates so that a DST shift inside
// the stay does not add a day; a later wall-clock time on check-out than on
// check-in starts one more day.
func (r DateRange) Days() int64 {
	if !r.CheckOut.After(r.CheckIn) {
		return 0
	}
	days := int64(calendarDate(r.CheckOut).Sub(calendarDate(r.CheckIn)) / day)
	if clockOffset(r.CheckOut) > clockOffset(r.CheckIn) {
		days++
	}
	return days
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func clockOffset(t time.Time) time.Duration {
	h, m, s := t.Clock()
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second + time.Duration(t.Nanosecond())
}

// Compute prices a stay: total = pricePerPeriod / DaysPerPeriod * ceil(days).
// The multiplication happens before the division so that totals such as
// 900 for 10 days are exact.
func Compute(room models.Room, checkIn, checkOut time.Time) (Result, error) {
	r := DateRange{CheckIn: checkIn, CheckOut: checkOut}
	if err := r.Validate(); err != nil {
		return Result{}, err
	}

	days := r.Days()
	perDay, err := room.PricePerMonth.MulDiv(1, models.DaysPerPeriod)
	if err != nil {
		return Result{}, err
	}
	total, err := room.PricePerMonth.MulDiv(days, models.DaysPerPeriod)
	if err != nil {
		return Result{}, fmt.Errorf("total for %d days: %w", days, err)
	}
	return Result{
		Days:        days,
		PricePerDay: perDay,
		Total:       total,
	}, nil
}
