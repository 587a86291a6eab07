// Package format turns provider payloads into display values.
package format

import (
	"math"
	"slices"
	"time"
)

const absoluteZeroC = 273.15

const (
	DayTimeClass   = "day-time"
	NightTimeClass = "night-time"
)

// Day time is [dayStartHour, dayEndHour) in the wall clock of the given time.
const (
	dayStartHour = 6
	dayEndHour   = 18
)

// roundHalfUp rounds to the nearest integer with halves going toward +Inf,
// so -0.5 rounds to 0 rather than -1 as math.Round would.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// KelvinToCelsius converts and rounds to a whole degree. KelvinToCelsius(300) == 27.
func KelvinToCelsius(kelvin float64) int {
	return roundHalfUp(kelvin - absoluteZeroC)
}

// KelvinToFahrenheit converts and rounds to a whole degree.
func KelvinToFahrenheit(kelvin float64) int {
	return roundHalfUp((kelvin-absoluteZeroC)*9/5 + 32)
}

// FormatTime renders a Unix timestamp in seconds as a two-digit 12-hour clock
// time in loc, for example "09:05 PM". A nil loc means time.Local.
func FormatTime(unixSeconds int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(unixSeconds, 0).In(loc).Format("03:04 PM")
}

// FormatLocalTime is FormatTime in a fixed zone offsetSeconds east of UTC,
// the form in which the weather provider reports a location's timezone.
func FormatLocalTime(unixSeconds int64, offsetSeconds int) string {
	return FormatTime(unixSeconds, time.FixedZone("", offsetSeconds))
}

// ThemeClass returns the body class for the hour of t in its own location.
func ThemeClass(t time.Time) string {
	if h := t.Hour(); h >= dayStartHour && h < dayEndHour {
		return DayTimeClass
	}
	return NightTimeClass
}

// ApplyThemeClass drops any existing theme class from classes and appends the
// one for t. The input slice is not modified.
func ApplyThemeClass(classes []string, t time.Time) []string {
	out := make([]string, 0, len(classes)+1)
	for _, c := range classes {
		if c == DayTimeClass || c == NightTimeClass {
			continue
		}
		if slices.Contains(out, c) {
			continue
		}
		out = append(out, c)
	}
	return append(out, ThemeClass(t))
}
