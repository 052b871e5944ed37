package resource

import "time"

// ScheduleRule is a fixed watering schedule configured on a device.
type ScheduleRule struct {
	ID           string
	Name         string
	Enabled      bool
	StartDate    time.Time
	TotalRun     time.Duration
	ExternalName string
	Fields       Fields
}

func newScheduleRule(f Fields) (ScheduleRule, error) {
	return ScheduleRule{
		ID:           f.String("id"),
		Name:         f.String("name"),
		Enabled:      f.Bool("enabled"),
		StartDate:    f.Time("startDate"),
		TotalRun:     f.Seconds("totalDuration"),
		ExternalName: f.String("externalName"),
		Fields:       f,
	}, nil
}

// FlexScheduleRule is a weather-driven schedule that waters when soil
// moisture requires it.
type FlexScheduleRule struct {
	ID      string
	Name    string
	Enabled bool
	Fields  Fields
}

func newFlexScheduleRule(f Fields) (FlexScheduleRule, error) {
	return FlexScheduleRule{
		ID:      f.String("id"),
		Name:    f.String("name"),
		Enabled: f.Bool("enabled"),
		Fields:  f,
	}, nil
}
