package action

import (
	"context"
	"fmt"
	"math"
	"strings"

	"azura/internal/source"
)

const IntentWeather = "weather_query"

// windyAbove is the wind speed in m/s above which the response warns about wind.
const windyAbove = 5.0

var weatherTemplates = []string{
	"%[1]s will have a temperature of %[2]d degrees with some %[3]s",
	"Expect %[3]s in %[1]s, with a temperature of %[2]d degrees",
	"It's %[2]d degrees in %[1]s right now, with %[3]s",
}

type weatherReport struct {
	Temperature int
	Description string
	Windy       bool
}

// WeatherQueryAction answers weather_query.
type WeatherQueryAction struct {
	deps Deps
}

func newWeatherQueryAction(deps Deps) *WeatherQueryAction {
	return &WeatherQueryAction{deps: deps}
}

func (a *WeatherQueryAction) PerformAction(ctx context.Context, entities, labels []string) string {
	resp, err := a.respond(ctx, entities, labels)
	if err != nil {
		return fallback(IntentWeather, err)
	}
	return resp
}

func (a *WeatherQueryAction) respond(ctx context.Context, entities, labels []string) (string, error) {
	loc, err := a.location(entities, labels)
	if err != nil {
		return "", err
	}
	raw, err := a.fetch(ctx, loc)
	if err != nil {
		return "", err
	}
	report, err := a.parse(raw)
	if err != nil {
		return "", err
	}
	return a.render(report, loc), nil
}

func (a *WeatherQueryAction) location(entities, labels []string) (string, error) {
	if loc, ok := locationOf(entities, labels); ok {
		return loc, nil
	}
	if a.deps.DefaultLocation != "" {
		return a.deps.DefaultLocation, nil
	}
	return "", missing("location", "no location in request and no default location")
}

func (a *WeatherQueryAction) fetch(ctx context.Context, loc string) (source.Weather, error) {
	if a.deps.Weather == nil {
		return source.Weather{}, missing("fetch", "no weather source")
	}
	w, err := a.deps.Weather.Fetch(ctx, loc)
	if err != nil {
		return source.Weather{}, stepErr("fetch", err)
	}
	return w, nil
}

func (a *WeatherQueryAction) parse(w source.Weather) (weatherReport, error) {
	desc := strings.TrimSpace(strings.ToLower(w.Description))
	if desc == "" {
		return weatherReport{}, missing("parse", "no weather description")
	}
	if math.IsNaN(w.Temperature) || math.IsInf(w.Temperature, 0) {
		return weatherReport{}, missing("parse", "no temperature")
	}
	return weatherReport{
		Temperature: int(math.Round(w.Temperature)),
		Description: desc,
		Windy:       w.WindSpeed > windyAbove,
	}, nil
}

func (a *WeatherQueryAction) render(r weatherReport, loc string) string {
	tmpl := weatherTemplates[a.deps.Pick(len(weatherTemplates))]
	out := fmt.Sprintf(tmpl, loc, r.Temperature, r.Description)
	if r.Windy {
		out += ", and it will be windy"
	}
	return out
}
