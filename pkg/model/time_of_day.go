package model

import (
	"fmt"
	"regexp"
	"strconv"
)

const MinutesPerDay = 24 * 60

var timeOfDayRegex = regexp.MustCompile(`^(([01][0-9]|2[0-3]):[0-5][0-9]|24:00)$`)

// TimeOfDay is a wall clock time in 24-hour "HH:MM" form. "24:00" is accepted
// as a closing time meaning end of day.
type TimeOfDay string

func (t TimeOfDay) Valid() bool {
	return timeOfDayRegex.MatchString(string(t))
}

// Minutes returns the number of minutes since midnight.
func (t TimeOfDay) Minutes() (int, error) {
	if !t.Valid() {
		return 0, fmt.Errorf("invalid time of day %q, expected HH:MM", string(t))
	}
	hours, _ := strconv.Atoi(string(t[:2]))
	minutes, _ := strconv.Atoi(string(t[3:]))
	return hours*60 + minutes, nil
}

// TimeOfDayFromMinutes formats minutes since midnight as HH:MM.
func TimeOfDayFromMinutes(minutes int) TimeOfDay {
	return TimeOfDay(fmt.Sprintf("%02d:%02d", minutes/60, minutes%60))
}
