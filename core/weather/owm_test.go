package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
)

const testKey = "0123456789abcdef0123456789abcdef"

// redirectTransport sends every request to the test server, keeping path and query.
type redirectTransport struct {
	target *url.URL
}

func (t redirectTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	out.URL.Scheme = t.target.Scheme
	out.URL.Host = t.target.Host
	out.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(out)
}

func newTestProvider(t *testing.T, h http.HandlerFunc) (*OpenWeatherMap, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	target, _ := url.Parse(srv.URL)
	p, err := NewOpenWeatherMap(testKey, "en", &http.Client{Transport: redirectTransport{target: target}})
	if err != nil {
		t.Fatalf("NewOpenWeatherMap: %v", err)
	}
	return p, &calls
}

var reportPattern = regexp.MustCompile(`^-?[0-9.]+ °C, .+ in .+$`)

func TestByNameParsesReport(t *testing.T) {
	var gotQuery url.Values
	p, calls := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"cod":200,"name":"London","main":{"temp":12.5},"weather":[{"id":500,"main":"Rain","description":"light rain"}]}`))
	})

	r, err := p.ByName(context.Background(), "London")
	if err != nil {
		t.Fatalf("ByName: %v", err)
	}
	if got, want := r.String(), "12.5 °C, light rain in London"; got != want {
		t.Fatalf("report = %q, want %q", got, want)
	}
	if !reportPattern.MatchString(r.String()) {
		t.Fatalf("report %q does not match pattern", r.String())
	}
	if atomic.LoadInt32(calls) != 1 {
		t.Fatalf("expected exactly one request, got %d", *calls)
	}
	if gotQuery.Get("q") != "London" {
		t.Fatalf("q = %q", gotQuery.Get("q"))
	}
	if gotQuery.Get("units") != "metric" {
		t.Fatalf("units = %q", gotQuery.Get("units"))
	}
	if gotQuery.Get("appid") != testKey {
		t.Fatalf("appid not forwarded")
	}
}

func TestByCoordinatesSendsLatLon(t *testing.T) {
	var gotQuery url.Values
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"cod":200,"name":"Paris","main":{"temp":-3},"weather":[{"description":"clear sky"}]}`))
	})

	r, err := p.ByCoordinates(context.Background(), 48.85, 2.35)
	if err != nil {
		t.Fatalf("ByCoordinates: %v", err)
	}
	if got, want := r.String(), "-3 °C, clear sky in Paris"; got != want {
		t.Fatalf("report = %q, want %q", got, want)
	}
	if gotQuery.Get("lat") == "" || gotQuery.Get("lon") == "" {
		t.Fatalf("missing lat/lon in query: %v", gotQuery)
	}
}

func TestLookupRejectsEmptyPayload(t *testing.T) {
	cases := map[string]string{
		"no weather entry": `{"cod":200,"name":"London","main":{"temp":1},"weather":[]}`,
		"no place name":    `{"cod":200,"main":{"temp":1},"weather":[{"description":"mist"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			if _, err := p.ByName(context.Background(), "London"); !errors.Is(err, ErrUnexpectedPayload) {
				t.Fatalf("expected ErrUnexpectedPayload, got %v", err)
			}
		})
	}
}

func TestLookupMapsUnauthorizedToInvalidKey(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
	})

	_, err := p.ByName(context.Background(), "London")
	if !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestLookupFailsOnMalformedBody(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	})

	if _, err := p.ByName(context.Background(), "London"); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestLookupHonoursCancelledContext(t *testing.T) {
	p, _ := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"cod":200,"name":"London","main":{"temp":1},"weather":[{"description":"mist"}]}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.ByName(ctx, "London"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestNewOpenWeatherMapRejectsBadKey(t *testing.T) {
	if _, err := NewOpenWeatherMap(strings.Repeat("k", 65), "EN", nil); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	if _, err := NewOpenWeatherMap(testKey, "XX", nil); err == nil {
		t.Fatalf("expected language validation error")
	}
}

func TestReportStringFormatsTemperature(t *testing.T) {
	cases := []struct {
		temp float64
		want string
	}{
		{temp: 20, want: "20 °C, sunny in Rome"},
		{temp: 20.25, want: "20.25 °C, sunny in Rome"},
		{temp: -0.5, want: "-0.5 °C, sunny in Rome"},
	}
	for _, tc := range cases {
		got := Report{TempC: tc.temp, Description: "sunny", Place: "Rome"}.String()
		if got != tc.want {
			t.Errorf("String(%v) = %q, want %q", tc.temp, got, tc.want)
		}
	}
}
