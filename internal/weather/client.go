package weather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"guildpulse/internal/structures"
)

var (
	ErrPlaceNotFound    = errors.New("place not found")
	ErrUnexpectedStatus = errors.New("unexpected status")
)

type Provider interface {
	SearchPlaces(ctx context.Context, query string) ([]Place, error)
	Forecast(ctx context.Context, place Place) (*Forecast, error)
	Rain(ctx context.Context, lat, lon float64) (*RainForecast, error)
}

// Client talks to the Meteo-France mobile web service.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(conf *structures.Config) *Client {
	return NewClientWithHTTP(conf.Weather.BaseURL, conf.Weather.Token, &http.Client{Timeout: conf.Weather.Timeout})
}

func NewClientWithHTTP(baseURL, token string, httpClient *http.Client) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

func (c *Client) SearchPlaces(ctx context.Context, query string) ([]Place, error) {
	var places []Place
	if err := c.get(ctx, "/places", url.Values{"q": {query}}, &places); err != nil {
		return nil, err
	}
	return places, nil
}

func (c *Client) Forecast(ctx context.Context, place Place) (*Forecast, error) {
	var f Forecast
	if err := c.get(ctx, "/forecast", coords(place.Lat, place.Lon), &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) Rain(ctx context.Context, lat, lon float64) (*RainForecast, error) {
	var r RainForecast
	if err := c.get(ctx, "/rain", coords(lat, lon), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func coords(lat, lon float64) url.Values {
	return url.Values{
		"lat":  {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":  {strconv.FormatFloat(lon, 'f', -1, 64)},
		"lang": {"fr"},
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	params.Set("token", c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %w %d", path, ErrUnexpectedStatus, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// Resolve searches city, then loads the forecast of the first match and its
// rain outlook. A rain failure only leaves NextRain empty.
func Resolve(ctx context.Context, p Provider, city string) (*Report, error) {
	places, err := p.SearchPlaces(ctx, city)
	if err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, fmt.Errorf("%q: %w", city, ErrPlaceNotFound)
	}
	place := places[0]

	forecast, err := p.Forecast(ctx, place)
	if err != nil {
		return nil, err
	}

	report := &Report{Place: place, Forecast: forecast}
	if rain, err := p.Rain(ctx, place.Lat, place.Lon); err == nil {
		if next, ok := rain.NextRain(); ok {
			report.NextRain = &next
		}
	}
	return report, nil
}
