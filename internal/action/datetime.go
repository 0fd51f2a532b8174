package action

import (
	"context"
	"fmt"

	"azura/internal/source"
)

const IntentDatetime = "datetime_query"

var (
	localTimeTemplates = []string{
		"Time is %[1]d:%02[2]d",
		"It's %[1]d:%02[2]d",
		"The current time is %[1]d:%02[2]d",
	}
	zonedTimeTemplates = []string{
		"The current time in %[3]s is %[1]d:%02[2]d",
		"It's %[1]d:%02[2]d in %[3]s",
	}
)

// DatetimeQueryAction answers datetime_query. Without a named place it
// reads the local clock.
type DatetimeQueryAction struct {
	deps Deps
}

func newDatetimeQueryAction(deps Deps) *DatetimeQueryAction {
	return &DatetimeQueryAction{deps: deps}
}

func (a *DatetimeQueryAction) PerformAction(ctx context.Context, entities, labels []string) string {
	resp, err := a.respond(ctx, entities, labels)
	if err != nil {
		return fallback(IntentDatetime, err)
	}
	return resp
}

func (a *DatetimeQueryAction) respond(ctx context.Context, entities, labels []string) (string, error) {
	loc := a.location(entities, labels)
	raw, err := a.fetch(ctx, loc)
	if err != nil {
		return "", err
	}
	t, err := a.parse(raw)
	if err != nil {
		return "", err
	}
	return a.render(t, loc), nil
}

// location returns the named place, or "" for the system clock.
func (a *DatetimeQueryAction) location(entities, labels []string) string {
	loc, _ := locationOf(entities, labels)
	return loc
}

func (a *DatetimeQueryAction) fetch(ctx context.Context, loc string) (source.ClockTime, error) {
	if a.deps.Clock == nil {
		return source.ClockTime{}, missing("fetch", "no clock")
	}
	t, err := a.deps.Clock.Fetch(ctx, loc)
	if err != nil {
		return source.ClockTime{}, stepErr("fetch", err)
	}
	return t, nil
}

func (a *DatetimeQueryAction) parse(t source.ClockTime) (source.ClockTime, error) {
	if t.Hour < 0 || t.Hour > 23 || t.Minute < 0 || t.Minute > 59 {
		return source.ClockTime{}, missing("parse", fmt.Sprintf("invalid clock reading %d:%d", t.Hour, t.Minute))
	}
	return t, nil
}

func (a *DatetimeQueryAction) render(t source.ClockTime, loc string) string {
	if t.Zone != "" && loc != "" {
		tmpl := zonedTimeTemplates[a.deps.Pick(len(zonedTimeTemplates))]
		return fmt.Sprintf(tmpl, t.Hour, t.Minute, loc)
	}
	tmpl := localTimeTemplates[a.deps.Pick(len(localTimeTemplates))]
	return fmt.Sprintf(tmpl, t.Hour, t.Minute)
}
