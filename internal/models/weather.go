package models

// Coords is a latitude/longitude pair in decimal degrees.
type Coords struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BaseState is the lifecycle of a single fetch as seen by a client view.
type BaseState string

const (
	StateLoading BaseState = "loading"
	StateSuccess BaseState = "success"
	StateError   BaseState = "error"
)

// FormState extends BaseState with the pre-submit state of the search form.
type FormState string

const (
	FormUnsubmitted FormState = "unsubmitted"
	FormLoading     FormState = FormState(StateLoading)
	FormSuccess     FormState = FormState(StateSuccess)
	FormError       FormState = FormState(StateError)
)

// WeatherData is the OpenWeather current weather document.
type WeatherData struct {
	Coord      Coords             `json:"coord"`
	Weather    []WeatherCondition `json:"weather"`
	Base       string             `json:"base"`
	Main       MainReadings       `json:"main"`
	Visibility int                `json:"visibility"`
	Wind       Wind               `json:"wind"`
	Rain       *Rain              `json:"rain,omitempty"`
	Clouds     Clouds             `json:"clouds"`
	Dt         int64              `json:"dt"`
	Sys        Sys                `json:"sys"`
	Timezone   int                `json:"timezone"` // seconds east of UTC
	ID         int64              `json:"id"`
	Name       string             `json:"name"`
	Cod        int                `json:"cod"`
}

type WeatherCondition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// MainReadings holds temperatures in Kelvin (the provider default) and pressure in hPa.
type MainReadings struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Pressure  int     `json:"pressure"`
	Humidity  int     `json:"humidity"`
	SeaLevel  int     `json:"sea_level"`
	GrndLevel int     `json:"grnd_level"`
}

type Wind struct {
	Speed float64 `json:"speed"`
	Deg   int     `json:"deg"`
	Gust  float64 `json:"gust"`
}

type Rain struct {
	OneHour float64 `json:"1h"`
}

type Clouds struct {
	All int `json:"all"`
}

type Sys struct {
	Type    int    `json:"type"`
	ID      int64  `json:"id"`
	Country string `json:"country"`
	Sunrise int64  `json:"sunrise"`
	Sunset  int64  `json:"sunset"`
}
