// Package weather resolves current conditions for a place name or a coordinate pair.
package weather

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrUnexpectedPayload is returned when the provider answers without usable data.
	ErrUnexpectedPayload = errors.New("weather: unexpected payload")
	// ErrInvalidKey is returned when the API key is malformed or rejected upstream.
	ErrInvalidKey = errors.New("weather: invalid api key")
)

// Report is a single current-conditions observation.
type Report struct {
	TempC       float64
	Description string
	Place       string
}

// String renders the report as "<temp> °C, <description> in <place>".
func (r Report) String() string {
	return fmt.Sprintf("%s °C, %s in %s", strconv.FormatFloat(r.TempC, 'f', -1, 64), r.Description, r.Place)
}

// Provider looks up current weather. Implementations issue exactly one upstream request per call.
type Provider interface {
	ByName(ctx context.Context, place string) (Report, error)
	ByCoordinates(ctx context.Context, lat, lon float64) (Report, error)
}
