package booking

import (
	"fmt"
	"time"

	"github.com/brightstay/booking-backend/pkg/errors"
)

// StayNights expands a half-open stay window [checkIn, checkOut) into the
// per-night dates that hold inventory. Check-out day is never included: a
// Nov 1 to Nov 5 stay occupies Nov 1-4, four nights. Inputs are normalized
// to UTC calendar days before any comparison so wall-clock noise and zone
// offsets cannot shift the window.
func StayNights(checkIn, checkOut time.Time, maxNights int) ([]time.Time, error) {
	start := toDate(checkIn)
	end := toDate(checkOut)

	if !end.After(start) {
		return nil, errors.New(errors.CodeValidation,
			fmt.Sprintf("check-out %s must be after check-in %s", end.Format("2006-01-02"), start.Format("2006-01-02")))
	}

	nights := int(end.Sub(start).Hours() / 24)
	if maxNights > 0 && nights > maxNights {
		return nil, errors.New(errors.CodeValidation,
			fmt.Sprintf("stay of %d nights exceeds the %d night maximum", nights, maxNights))
	}

	dates := make([]time.Time, 0, nights)
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates, nil
}

func toDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
