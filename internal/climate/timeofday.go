package climate

import (
	"fmt"
	"gopkg.in/yaml.v3"
	"time"
)

// TimeOfDay is a wall-clock time within a day. Schedule bands use it to mark their start and end.
type TimeOfDay struct {
	Hour    int
	Minutes int
	Seconds int
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	timestamp, err := time.Parse("15:04:05", s)
	if err != nil {
		timestamp, err = time.Parse("15:04", s)
	}
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day: %w", err)
	}
	return TimeOfDay{
		Hour:    timestamp.Hour(),
		Minutes: timestamp.Minute(),
		Seconds: timestamp.Second(),
	}, nil
}

func TimeOfDayFromTime(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minutes: t.Minute(), Seconds: t.Second()}
}

func (t TimeOfDay) secondOfDay() int {
	return t.Hour*3600 + t.Minutes*60 + t.Seconds
}

func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.secondOfDay() < other.secondOfDay()
}

func (t TimeOfDay) String() string {
	return time.Date(0, 1, 1, t.Hour, t.Minutes, t.Seconds, 0, time.UTC).Format("15:04:05")
}

func (t *TimeOfDay) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseTimeOfDay(value.Value)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t TimeOfDay) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

func (t *TimeOfDay) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}
