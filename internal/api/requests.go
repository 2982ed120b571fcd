package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"github.com/clambin/climate-controller/internal/climate"
	"io"
	"time"
)

// Request payloads are strongly typed and validated at the boundary: unknown or malformed fields
// reject the request, rather than being silently ignored.

type SetOverrideRequest struct {
	Target *float64 `json:"target_temperature"`
	// Duration, if set, makes the override expire on its own.
	Duration *Duration `json:"duration,omitempty"`
}

func (r SetOverrideRequest) validate() error {
	if r.Target == nil {
		return errors.New("target_temperature is required")
	}
	if r.Duration != nil && time.Duration(*r.Duration) <= 0 {
		return errors.New("duration must be positive")
	}
	return nil
}

type AdjustOverrideRequest struct {
	Delta *float64 `json:"delta"`
}

func (r AdjustOverrideRequest) validate() error {
	if r.Delta == nil {
		return errors.New("delta is required")
	}
	return nil
}

type SetScheduleRequest struct {
	Schedule []BandRequest `json:"schedule"`
}

type BandRequest struct {
	Day    string            `json:"day"`
	Start  climate.TimeOfDay `json:"start"`
	End    climate.TimeOfDay `json:"end"`
	Target float64           `json:"target_temperature"`
}

func (r SetScheduleRequest) validate() error {
	for _, band := range r.Schedule {
		if _, err := climate.ParseWeekday(band.Day); err != nil {
			return err
		}
	}
	return nil
}

func (r SetScheduleRequest) bands() []climate.Band {
	bands := make([]climate.Band, 0, len(r.Schedule))
	for _, band := range r.Schedule {
		day, _ := climate.ParseWeekday(band.Day)
		bands = append(bands, climate.Band{Day: day, Start: band.Start, End: band.End, Target: band.Target})
	}
	return bands
}

type validator interface {
	validate() error
}

func decode[T validator](r io.Reader) (T, error) {
	var request T
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		return request, fmt.Errorf("invalid request body: %w", err)
	}
	return request, request.validate()
}

// Duration unmarshals from a Go duration string, e.g. "2h30m".
type Duration time.Duration

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
