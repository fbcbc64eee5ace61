package pricing

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"roomrenting/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestCompute(t *testing.T) {
	room := models.Room{RoomID: 1, PricePerMonth: models.FromMajor(900)}

	tests := []struct {
		name     string
		checkIn  string
		checkOut string
		price    models.Money
		days     int64
		total    models.Money
	}{
		{"ten days", "2024-01-01", "2024-01-11", models.FromMajor(900), 10, models.FromMajor(300)},
		{"one day", "2024-01-01", "2024-01-02", models.FromMajor(900), 1, models.FromMajor(30)},
		{"full period", "2024-03-01", "2024-03-31", models.FromMajor(900), 30, models.FromMajor(900)},
		{"leap february", "2024-02-01", "2024-03-01", models.FromMajor(600), 29, models.FromMajor(580)},
		{"non exact rounds to cents", "2024-01-01", "2024-01-02", models.FromMajor(1000), 1, models.Money(3333)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			room.PricePerMonth = tt.price
			res, err := Compute(room, date(t, tt.checkIn), date(t, tt.checkOut))
			require.NoError(t, err)
			assert.Equal(t, tt.days, res.Days)
			assert.Equal(t, tt.total, res.Total)
		})
	}
}

func TestComputePartialDayRoundsUp(t *testing.T) {
	room := models.Room{PricePerMonth: models.FromMajor(900)}
	in := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	out := time.Date(2024, 1, 3, 13, 0, 0, 0, time.UTC)

	res, err := Compute(room, in, out)
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Days)
	assert.Equal(t, models.FromMajor(90), res.Total)
	assert.Equal(t, models.FromMajor(30), res.PricePerDay)
}

func TestComputeAcrossDaylightSavingShift(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	room := models.Room{PricePerMonth: models.FromMajor(900)}

	tests := []struct {
		name  string
		in    time.Time
		out   time.Time
		days  int64
		total models.Money
	}{
		{"fall back", time.Date(2024, 10, 28, 0, 0, 0, 0, ny), time.Date(2024, 11, 4, 0, 0, 0, 0, ny), 7, models.FromMajor(210)},
		{"spring forward", time.Date(2024, 3, 8, 0, 0, 0, 0, ny), time.Date(2024, 3, 12, 0, 0, 0, 0, ny), 4, models.FromMajor(120)},
		{"same day", time.Date(2024, 11, 3, 9, 0, 0, 0, ny), time.Date(2024, 11, 3, 17, 0, 0, 0, ny), 1, models.FromMajor(30)},
		{"earlier checkout clock", time.Date(2024, 11, 2, 15, 0, 0, 0, ny), time.Date(2024, 11, 4, 10, 0, 0, 0, ny), 2, models.FromMajor(60)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Compute(room, tt.in, tt.out)
			require.NoError(t, err)
			assert.Equal(t, tt.days, res.Days)
			assert.Equal(t, tt.total, res.Total)
		})
	}
}

func TestComputeIsPure(t *testing.T) {
	room := models.Room{PricePerMonth: models.FromMajor(750)}
	in, out := date(t, "2024-05-10"), date(t, "2024-05-24")

	first, err := Compute(room, in, out)
	require.NoError(t, err)
	second, err := Compute(room, in, out)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestComputeRejectsBadRanges(t *testing.T) {
	room := models.Room{PricePerMonth: models.FromMajor(900)}

	_, err := Compute(room, date(t, "2024-02-05"), date(t, "2024-02-01"))
	assert.True(t, errors.Is(err, ErrInvalidDateRange))

	_, err = Compute(room, date(t, "2024-02-05"), date(t, "2024-02-05"))
	assert.True(t, errors.Is(err, ErrInvalidDateRange))

	_, err = Compute(room, time.Time{}, date(t, "2024-02-05"))
	assert.True(t, errors.Is(err, ErrMissingDate))
}

func TestParseRange(t *testing.T) {
	r, err := ParseRange("2024-01-01", " 2024-01-11 ")
	require.NoError(t, err)
	assert.Equal(t, int64(10), r.Days())

	_, err = ParseRange("", "2024-01-11")
	assert.True(t, errors.Is(err, ErrMissingDate))

	_, err = ParseRange("01/01/2024", "2024-01-11")
	assert.True(t, errors.Is(err, ErrInvalidDate))

	_, err = ParseRange("2024-01-11", "2024-01-01")
	assert.True(t, errors.Is(err, ErrInvalidDateRange))
}
