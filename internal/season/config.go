// Package season simulates a club season against a running pegsync service:
// a roster attends shoot days, each day is allocated and saved, and the
// fairness score is tracked as history accumulates.
package season

import (
	"errors"
	"fmt"
	"time"
)

// Config holds configuration for a simulated season.
type Config struct {
	BaseURL    string        // base URL of the service
	Members    int           // roster size
	Days       int           // shoot days to simulate
	Slots      int           // pegs per day
	Attendance float64       // probability a member attends a given day, (0,1]
	Mode       string        // allocation mode: fair or random
	Seed       uint64        // roster and attendance seed; 0 picks one
	Start      time.Time     // date of the first shoot day
	Interval   time.Duration // gap between shoot days
	Timeout    time.Duration // HTTP request timeout
	SettleWait time.Duration // how long to wait for a save to become visible
	Output     string        // optional JSON report path
}

// Default configuration values.
const (
	DefaultMembers    = 20
	DefaultDays       = 12
	DefaultSlots      = 24
	DefaultAttendance = 0.8
	DefaultInterval   = 7 * 24 * time.Hour
	DefaultTimeout    = 10 * time.Second
	DefaultSettleWait = 5 * time.Second
)

var ErrInvalidConfig = errors.New("invalid season config")

// Validate checks the values the runner cannot work without.
func (c *Config) Validate() error {
	switch {
	case c.BaseURL == "":
		return fmt.Errorf("%w: base url required", ErrInvalidConfig)
	case c.Members < 1:
		return fmt.Errorf("%w: members must be positive", ErrInvalidConfig)
	case c.Days < 1:
		return fmt.Errorf("%w: days must be positive", ErrInvalidConfig)
	case c.Slots < 1:
		return fmt.Errorf("%w: slots must be positive", ErrInvalidConfig)
	case c.Attendance <= 0 || c.Attendance > 1:
		return fmt.Errorf("%w: attendance must be in (0,1]", ErrInvalidConfig)
	case c.Mode != "fair" && c.Mode != "random":
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, c.Mode)
	}
	return nil
}

// DayReport is the outcome of one simulated shoot day.
type DayReport struct {
	Day           int       `json:"day"`
	EventID       string    `json:"event_id"`
	Date          time.Time `json:"date"`
	Attendees     int       `json:"attendees"`
	Placed        int       `json:"placed"`
	SaveStatus    string    `json:"save_status"`
	FairnessScore int       `json:"fairness_score"`
	Rating        string    `json:"rating"`
}

// Report summarizes a season.
type Report struct {
	Mode       string        `json:"mode"`
	Members    int           `json:"members"`
	Slots      int           `json:"slots"`
	Days       []DayReport   `json:"days"`
	FinalScore int           `json:"final_score"`
	Duration   time.Duration `json:"duration_ns"`
}
