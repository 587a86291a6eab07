package models

// LocationPrediction is a Geoapify autocomplete response (a GeoJSON FeatureCollection).
type LocationPrediction struct {
	Type     string          `json:"type"`
	Features []Feature       `json:"features"`
	Query    PredictionQuery `json:"query"`
}

type PredictionQuery struct {
	Text   string `json:"text"`
	Parsed struct {
		City         string `json:"city"`
		ExpectedType string `json:"expected_type"`
	} `json:"parsed"`
}

type Feature struct {
	Properties FeatureProperties `json:"properties"`
	Geometry   Geometry          `json:"geometry"`
	BBox       [4]float64        `json:"bbox"`
}

type FeatureProperties struct {
	Datasource    Datasource      `json:"datasource"`
	Country       string          `json:"country"`
	CountryCode   string          `json:"country_code"`
	State         string          `json:"state"`
	County        string          `json:"county"`
	City          string          `json:"city"`
	Postcode      string          `json:"postcode"`
	ISO3166_2     string          `json:"iso3166_2"`
	Lon           float64         `json:"lon"`
	Lat           float64         `json:"lat"`
	StateCode     string          `json:"state_code"`
	ResultType    string          `json:"result_type"`
	Formatted     string          `json:"formatted"`
	AddressLine1  string          `json:"address_line1"`
	AddressLine2  string          `json:"address_line2"`
	Category      string          `json:"category"`
	Timezone      FeatureTimezone `json:"timezone"`
	PlusCode      string          `json:"plus_code"`
	PlusCodeShort string          `json:"plus_code_short"`
	Rank          FeatureRank     `json:"rank"`
	PlaceID       string          `json:"place_id"`
}

type Datasource struct {
	SourceName  string `json:"sourcename"`
	Attribution string `json:"attribution"`
	License     string `json:"license"`
	URL         string `json:"url"`
}

type FeatureTimezone struct {
	Name             string `json:"name"`
	OffsetSTD        string `json:"offset_STD"`
	OffsetSTDSeconds int    `json:"offset_STD_seconds"`
	OffsetDST        string `json:"offset_DST"`
	OffsetDSTSeconds int    `json:"offset_DST_seconds"`
	AbbreviationSTD  string `json:"abbreviation_STD"`
	AbbreviationDST  string `json:"abbreviation_DST"`
}

type FeatureRank struct {
	Importance          float64 `json:"importance"`
	Confidence          float64 `json:"confidence"`
	ConfidenceCityLevel float64 `json:"confidence_city_level"`
	MatchType           string  `json:"match_type"`
}

// Geometry is a GeoJSON point; Coordinates are [lon, lat].
type Geometry struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
}

// LocationOption is a selectable autocomplete entry.
type LocationOption struct {
	Label  string `json:"label"`
	Coords Coords `json:"coords"`
}

// Coords returns the feature position from its properties.
func (f Feature) Coords() Coords {
	return Coords{Lat: f.Properties.Lat, Lon: f.Properties.Lon}
}

// Label returns the formatted address, falling back to the first address line and then the city.
func (f Feature) Label() string {
	switch {
	case f.Properties.Formatted != "":
		return f.Properties.Formatted
	case f.Properties.AddressLine1 != "":
		return f.Properties.AddressLine1
	default:
		return f.Properties.City
	}
}

// Options maps every feature to a LocationOption, preserving provider order.
// Features without any usable label are skipped.
func (p LocationPrediction) Options() []LocationOption {
	out := make([]LocationOption, 0, len(p.Features))
	for _, f := range p.Features {
		label := f.Label()
		if label == "" {
			continue
		}
		out = append(out, LocationOption{Label: label, Coords: f.Coords()})
	}
	return out
}
