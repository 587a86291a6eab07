package validation

import (
	"errors"
	"math"

	"github.com/Koda-Pig/vue-the-weather/internal/models"
)

// ErrCoordsNotFinite is returned when latitude or longitude is NaN or infinite.
var ErrCoordsNotFinite = errors.New("coordinates must be finite numbers")

// ErrLatitudeOutOfRange is returned when latitude is outside [-90, 90].
var ErrLatitudeOutOfRange = errors.New("latitude out of range")

// ErrLongitudeOutOfRange is returned when longitude is outside [-180, 180].
var ErrLongitudeOutOfRange = errors.New("longitude out of range")

// ValidateCoords checks that c is a point on earth. The returned errors are
// suitable for 400 INVALID_COORDS responses.
func ValidateCoords(c models.Coords) error {
	if !isFinite(c.Lat) || !isFinite(c.Lon) {
		return ErrCoordsNotFinite
	}
	if c.Lat < -90 || c.Lat > 90 {
		return ErrLatitudeOutOfRange
	}
	if c.Lon < -180 || c.Lon > 180 {
		return ErrLongitudeOutOfRange
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
