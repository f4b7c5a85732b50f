package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/smallbiznis/fieldwatch/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newProvider(baseURL string) Provider {
	return NewOpenWeather(config.Config{
		Weather: config.WeatherConfig{
			APIKey:      "test-key",
			BaseURL:     baseURL,
			DefaultCity: "London",
		},
	}, zap.NewNop())
}

func TestFetchParsesReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/2.5/weather", r.URL.Path)
		assert.Equal(t, "Dublin", r.URL.Query().Get("q"))
		assert.Equal(t, "test-key", r.URL.Query().Get("appid"))
		assert.Equal(t, "metric", r.URL.Query().Get("units"))
		_, _ = w.Write([]byte(`{"name":"Dublin","main":{"temp":12.5,"humidity":81},"weather":[{"description":"light rain"}],"wind":{"speed":4.1}}`))
	}))
	defer srv.Close()

	report, err := newProvider(srv.URL).Fetch(context.Background(), "Dublin")
	require.NoError(t, err)
	assert.Equal(t, Report{City: "Dublin", Temperature: 12.5, Description: "light rain", Humidity: 81, WindSpeed: 4.1}, *report)
	assert.Equal(t, 81.0, report.Metrics()["humidity"])
}

func TestFetchUsesDefaultCity(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "London", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"name":"London","main":{"temp":9,"humidity":70},"weather":[],"wind":{"speed":2}}`))
	}))
	defer srv.Close()

	report, err := newProvider(srv.URL).Fetch(context.Background(), " ")
	require.NoError(t, err)
	assert.Equal(t, "London", report.City)
	assert.Empty(t, report.Description)
}

func TestFetchMapsProviderErrors(t *testing.T) {
	status := http.StatusUnauthorized
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	}))
	defer srv.Close()

	provider := newProvider(srv.URL)

	_, err := provider.Fetch(context.Background(), "Dublin")
	require.ErrorIs(t, err, ErrUnauthorized)

	status = http.StatusNotFound
	_, err = provider.Fetch(context.Background(), "Atlantis")
	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusNotFound, upstream.Status)
	assert.Contains(t, upstream.Error(), "city not found")
}

func TestFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	baseURL := srv.URL
	srv.Close()

	_, err := newProvider(baseURL).Fetch(context.Background(), "Dublin")
	require.ErrorIs(t, err, ErrUnavailable)
}
