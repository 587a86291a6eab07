package format

import (
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/Koda-Pig/vue-the-weather/internal/models"
)

// Summary is the display-ready view of a current weather document.
type Summary struct {
	Location    string  `json:"location"`
	Country     string  `json:"country,omitempty"`
	Conditions  string  `json:"conditions"`
	Description string  `json:"description"`
	Icon        string  `json:"icon,omitempty"`
	TempC       int     `json:"tempC"`
	FeelsLikeC  int     `json:"feelsLikeC"`
	MinC        int     `json:"minC"`
	MaxC        int     `json:"maxC"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"windSpeed"`
	RainLastHr  float64 `json:"rainLastHour,omitempty"`
	Sunrise     string  `json:"sunrise"`
	Sunset      string  `json:"sunset"`
	ObservedAt  string  `json:"observedAt"`
	Theme       string  `json:"theme"`
}

// Summarize formats w for display. Times and the theme are computed in the
// location's own timezone; the theme uses now when the document has no dt.
func Summarize(w models.WeatherData, now time.Time) Summary {
	zone := time.FixedZone("", w.Timezone)
	observed := now
	if w.Dt > 0 {
		observed = time.Unix(w.Dt, 0)
	}

	s := Summary{
		Location:   w.Name,
		Country:    w.Sys.Country,
		TempC:      KelvinToCelsius(w.Main.Temp),
		FeelsLikeC: KelvinToCelsius(w.Main.FeelsLike),
		MinC:       KelvinToCelsius(w.Main.TempMin),
		MaxC:       KelvinToCelsius(w.Main.TempMax),
		Humidity:   w.Main.Humidity,
		WindSpeed:  w.Wind.Speed,
		ObservedAt: FormatTime(observed.Unix(), zone),
		Theme:      ThemeClass(observed.In(zone)),
	}
	if len(w.Weather) > 0 {
		s.Conditions = w.Weather[0].Main
		s.Description = capitalize(w.Weather[0].Description)
		s.Icon = w.Weather[0].Icon
	}
	if w.Rain != nil {
		s.RainLastHr = w.Rain.OneHour
	}
	if w.Sys.Sunrise > 0 {
		s.Sunrise = FormatTime(w.Sys.Sunrise, zone)
	}
	if w.Sys.Sunset > 0 {
		s.Sunset = FormatTime(w.Sys.Sunset, zone)
	}
	return s
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
