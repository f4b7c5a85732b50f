package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smallbiznis/fieldwatch/internal/config"
	obstracing "github.com/smallbiznis/fieldwatch/internal/observability/tracing"
	"go.uber.org/zap"
)

var (
	ErrUnauthorized = errors.New("weather_unauthorized")
	ErrUnavailable  = errors.New("weather_unavailable")
	ErrInvalidCity  = errors.New("invalid_city")
)

// UpstreamError carries a non-200 provider response other than 401.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("Weather API error: %s", e.Body)
}

// Report is the normalised current-weather view returned to clients.
type Report struct {
	City        string  `json:"city"`
	Temperature float64 `json:"temperature"`
	Description string  `json:"description"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
}

// Metrics converts the report into trigger evaluation input.
func (r Report) Metrics() map[string]float64 {
	return map[string]float64{
		"temperature": r.Temperature,
		"humidity":    float64(r.Humidity),
		"wind_speed":  r.WindSpeed,
	}
}

type Provider interface {
	Fetch(ctx context.Context, city string) (*Report, error)
	DefaultCity() string
}

type openWeatherResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

type OpenWeather struct {
	apiKey      string
	baseURL     string
	defaultCity string
	client      *http.Client
	log         *zap.Logger
}

func NewOpenWeather(cfg config.Config, log *zap.Logger) Provider {
	timeout := cfg.Weather.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	city := strings.TrimSpace(cfg.Weather.DefaultCity)
	if city == "" {
		city = "London"
	}
	return &OpenWeather{
		apiKey:      cfg.Weather.APIKey,
		baseURL:     strings.TrimRight(cfg.Weather.BaseURL, "/"),
		defaultCity: city,
		client:      &http.Client{Timeout: timeout},
		log:         log.Named("weather.provider"),
	}
}

func (p *OpenWeather) DefaultCity() string {
	return p.defaultCity
}

func (p *OpenWeather) Fetch(ctx context.Context, city string) (*Report, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		city = p.defaultCity
	}
	if len(city) > 100 {
		return nil, ErrInvalidCity
	}

	values := url.Values{}
	values.Set("q", city)
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/data/2.5/weather?"+values.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	obstracing.InjectHeaders(ctx, req.Header)

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.Warn("weather provider unreachable", zap.String("city", city), zap.Error(obstracing.SafeError(err)))
		return nil, ErrUnavailable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, ErrUnavailable
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		return nil, &UpstreamError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var payload openWeatherResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode weather response: %w", err)
	}

	report := &Report{
		City:        payload.Name,
		Temperature: payload.Main.Temp,
		Humidity:    payload.Main.Humidity,
		WindSpeed:   payload.Wind.Speed,
	}
	if len(payload.Weather) > 0 {
		report.Description = payload.Weather[0].Description
	}
	return report, nil
}
