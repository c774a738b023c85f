package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	owm "github.com/briandowns/openweathermap"

	"github.com/m3rciful/weatherbot/core/logger"
)

const defaultRequestTimeout = 10 * time.Second

// errLibInvalidKey is the client library's unexported key error, which it returns both for
// oversized keys and for 401 responses.
var errLibInvalidKey = owm.ValidAPIKey(strings.Repeat("0", 65))

// OpenWeatherMap queries the OpenWeatherMap current weather endpoint in metric units.
type OpenWeatherMap struct {
	key    string
	lang   string
	client *http.Client
}

// NewOpenWeatherMap validates the key and language against the client library and returns a provider.
// A nil client selects a default one with a request timeout.
func NewOpenWeatherMap(key, lang string, client *http.Client) (*OpenWeatherMap, error) {
	if client == nil {
		client = &http.Client{Timeout: defaultRequestTimeout}
	}
	p := &OpenWeatherMap{key: key, lang: strings.ToUpper(strings.TrimSpace(lang)), client: client}
	if _, err := p.current(context.Background()); err != nil {
		return nil, fmt.Errorf("weather: openweathermap setup: %w", mapError(err))
	}
	return p, nil
}

// ByName fetches current weather for a place name.
func (p *OpenWeatherMap) ByName(ctx context.Context, place string) (Report, error) {
	start := time.Now()
	w, err := p.current(ctx)
	if err != nil {
		return Report{}, err
	}
	err = w.CurrentByName(place)
	return p.finish(ctx, w, err, start, slog.String("city", place))
}

// ByCoordinates fetches current weather for a latitude/longitude pair.
func (p *OpenWeatherMap) ByCoordinates(ctx context.Context, lat, lon float64) (Report, error) {
	start := time.Now()
	w, err := p.current(ctx)
	if err != nil {
		return Report{}, err
	}
	err = w.CurrentByCoordinates(&owm.Coordinates{Latitude: lat, Longitude: lon})
	return p.finish(ctx, w, err, start, slog.Float64("lat", lat), slog.Float64("lon", lon))
}

// current builds a fresh request object whose HTTP calls are bound to ctx.
func (p *OpenWeatherMap) current(ctx context.Context) (*owm.CurrentWeatherData, error) {
	client := &http.Client{
		Timeout:   p.client.Timeout,
		Transport: contextTransport{ctx: ctx, base: p.client.Transport},
	}
	return owm.NewCurrent("C", p.lang, p.key, owm.WithHttpClient(client))
}

func (p *OpenWeatherMap) finish(ctx context.Context, w *owm.CurrentWeatherData, err error, start time.Time, attrs ...slog.Attr) (Report, error) {
	if err == nil {
		err = validate(w)
	}
	err = mapError(err)
	attrs = append(attrs, slog.Duration("duration", logger.Took(start)))
	if err != nil {
		attrs = append(attrs, slog.String("status", "fail"), slog.String("err", err.Error()))
		logger.LogEvent(ctx, logger.WX, slog.LevelDebug, "lookup", attrs...)
		return Report{}, fmt.Errorf("weather: openweathermap lookup: %w", err)
	}
	r := Report{TempC: w.Main.Temp, Description: w.Weather[0].Description, Place: w.Name}
	attrs = append(attrs,
		slog.String("status", "ok"),
		slog.String("place", r.Place),
		slog.Float64("temp_c", r.TempC),
	)
	logger.LogEvent(ctx, logger.WX, slog.LevelDebug, "lookup", attrs...)
	return r, nil
}

func mapError(err error) error {
	if err != nil && errLibInvalidKey != nil && errors.Is(err, errLibInvalidKey) {
		return ErrInvalidKey
	}
	return err
}

func validate(w *owm.CurrentWeatherData) error {
	if len(w.Weather) == 0 {
		return fmt.Errorf("%w: no weather entry (cod %d)", ErrUnexpectedPayload, w.Cod)
	}
	if strings.TrimSpace(w.Name) == "" {
		return fmt.Errorf("%w: no place name (cod %d)", ErrUnexpectedPayload, w.Cod)
	}
	return nil
}

// contextTransport attaches ctx to requests issued by a client library that has no context support.
type contextTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.ctx != nil {
		req = req.WithContext(t.ctx)
	}
	return base.RoundTrip(req)
}
