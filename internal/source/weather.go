package source

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
)

const DefaultWeatherURL = "https://api.openweathermap.org"

// Weather is the current conditions at a location, in metric units.
type Weather struct {
	Temperature float64
	Description string
	WindSpeed   float64
	Humidity    float64
	Pressure    float64
}

type WeatherSource interface {
	Fetch(ctx context.Context, location string) (Weather, error)
}

// OpenWeatherMap fetches current conditions from the OpenWeatherMap API.
type OpenWeatherMap struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

func NewOpenWeatherMap(apiKey string, client *http.Client) *OpenWeatherMap {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &OpenWeatherMap{APIKey: apiKey, BaseURL: DefaultWeatherURL, HTTP: client}
}

type owmResponse struct {
	Main *struct {
		Temp     *float64 `json:"temp"`
		Humidity float64  `json:"humidity"`
		Pressure float64  `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

func (o *OpenWeatherMap) Fetch(ctx context.Context, location string) (Weather, error) {
	const op = "openweathermap"

	if strings.TrimSpace(location) == "" {
		return Weather{}, &Error{Kind: KindMissingData, Op: op, Err: errors.New("no location")}
	}
	if o.APIKey == "" {
		return Weather{}, &Error{Kind: KindMissingData, Op: op, Err: errors.New("no api key")}
	}

	q := url.Values{}
	q.Set("q", location)
	q.Set("appid", o.APIKey)
	q.Set("units", "metric")
	u := strings.TrimRight(o.BaseURL, "/") + "/data/2.5/weather?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Weather{}, &Error{Kind: KindNetwork, Op: op, Err: err}
	}

	resp, err := o.HTTP.Do(req)
	if err != nil {
		return Weather{}, &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return Weather{}, &Error{Kind: KindNotFound, Op: op, Err: fmt.Errorf("location %q", location)}
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Weather{}, &Error{Kind: KindNetwork, Op: op, Err: fmt.Errorf("status %s: %s", resp.Status, body)}
	}

	var data owmResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Weather{}, &Error{Kind: KindDecode, Op: op, Err: err}
	}
	if data.Main == nil || data.Main.Temp == nil || len(data.Weather) == 0 {
		return Weather{}, &Error{Kind: KindMissingData, Op: op, Err: errors.New("response lacks main/weather")}
	}

	return Weather{
		Temperature: *data.Main.Temp,
		Description: data.Weather[0].Description,
		WindSpeed:   data.Wind.Speed,
		Humidity:    data.Main.Humidity,
		Pressure:    data.Main.Pressure,
	}, nil
}
