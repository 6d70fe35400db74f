// Package daylight derives the current phase of daylight for a fixed
// position. Each tick recomputes sunrise and sunset for the tick's day
// and buckets the time against civil twilight (30 minutes either side
// of sunrise and sunset) and the golden hour before sunset.
package daylight

import (
	"fmt"
	"strings"
	"time"

	"github.com/nathan-osman/go-sunrise"

	"unistore/store"
	"unistore/view"
)

// SliceName is the key this component's reducer owns in the root state.
const SliceName = "daylight"

// Action types understood by the reducer.
const (
	ActionConfigure = "daylight/CONFIGURE"
	ActionTick      = "daylight/TICK"
)

// Phase represents the current daylight phase
type Phase string

const (
	PhaseDawn    Phase = "dawn"
	PhaseMorning Phase = "morning"
	PhaseDay     Phase = "day"
	PhaseGolden  Phase = "golden"
	PhaseDusk    Phase = "dusk"
	PhaseNight   Phase = "night"
)

// Coordinates is the configure action payload
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Model is the daylight slice state
type Model struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Phase     Phase     `json:"phase"`
	Sunrise   time.Time `json:"sunrise"`
	Sunset    time.Time `json:"sunset"`
	At        time.Time `json:"at"`
}

// NewReducer returns the daylight slice reducer positioned at the given
// coordinates. Ticks carry the observation time; days without a sunrise
// classify as night.
func NewReducer(latitude, longitude float64) store.Reducer {
	return func(state any, action store.Action) any {
		model, ok := state.(Model)
		if !ok {
			model = Model{
				Latitude:  latitude,
				Longitude: longitude,
				Phase:     PhaseNight,
			}
		}

		switch action.Type {
		case ActionConfigure:
			lat, lon, ok := payloadCoordinates(action.Payload)
			if !ok {
				return model
			}
			model.Latitude = lat
			model.Longitude = lon
			if !model.At.IsZero() {
				model = observe(model, model.At)
			}
		case ActionTick:
			if at, ok := payloadTime(action.Payload); ok {
				model = observe(model, at)
			}
		}
		return model
	}
}

// observe recomputes sun times for t's day and classifies the phase
func observe(model Model, t time.Time) Model {
	rise, set := sunrise.SunriseSunset(
		model.Latitude, model.Longitude,
		t.Year(), t.Month(), t.Day(),
	)
	model.Sunrise = rise
	model.Sunset = set
	model.At = t
	model.Phase = classify(t, rise, set)
	return model
}

func classify(t, rise, set time.Time) Phase {
	// go-sunrise reports UTC instants; a missing sunrise leaves both
	// times zero and every case below falls through to night.
	t = t.UTC()
	switch {
	case t.Before(rise.Add(-30 * time.Minute)):
		return PhaseNight
	case t.Before(rise):
		return PhaseDawn
	case t.Before(rise.Add(30 * time.Minute)):
		return PhaseMorning
	case t.Before(set.Add(-60 * time.Minute)):
		return PhaseDay
	case t.Before(set):
		return PhaseGolden
	case t.Before(set.Add(30 * time.Minute)):
		return PhaseDusk
	default:
		return PhaseNight
	}
}

func payloadCoordinates(p any) (float64, float64, bool) {
	switch c := p.(type) {
	case Coordinates:
		return c.Latitude, c.Longitude, true
	case map[string]any:
		lat, latOK := c["latitude"].(float64)
		lon, lonOK := c["longitude"].(float64)
		if latOK && lonOK {
			return lat, lon, true
		}
	}
	return 0, 0, false
}

// payloadTime accepts time values directly or as RFC 3339 strings. A
// zero time is not an observation.
func payloadTime(p any) (time.Time, bool) {
	switch v := p.(type) {
	case time.Time:
		return v, !v.IsZero()
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func clockLabel(t time.Time) string {
	if t.IsZero() {
		return "--:--"
	}
	return t.UTC().Format("15:04")
}

func mapState(state any) view.Props {
	root, _ := state.(map[string]any)
	model, _ := root[SliceName].(Model)
	return view.Props{
		"phase":   string(model.Phase),
		"sunrise": clockLabel(model.Sunrise),
		"sunset":  clockLabel(model.Sunset),
	}
}

func render(props view.Props) string {
	phase, _ := props["phase"].(string)
	rise, _ := props["sunrise"].(string)
	set, _ := props["sunset"].(string)

	var b strings.Builder
	fmt.Fprintf(&b, "<div class=\"daylight phase-%s\">\n", phase)
	fmt.Fprintf(&b, "  <span class=\"phase\">%s</span>\n", phase)
	fmt.Fprintf(&b, "  <span class=\"sun\">%s - %s UTC</span>\n", rise, set)
	b.WriteString("</div>\n")
	return b.String()
}
