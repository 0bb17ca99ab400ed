// README: Ride requests, drivers and assignments consumed and produced by the search.
package scheduling

import (
	"time"

	"ridesched/internal/types"
)

// RideRequest is a single trip to be bound to a driver. Times are kept as the
// strings received from callers; they are normalized once before the search.
type RideRequest struct {
	ID            types.ID `json:"id" yaml:"id"`
	StartLocation string   `json:"start_location" yaml:"start_location"`
	EndLocation   string   `json:"end_location" yaml:"end_location"`
	StartTime     string   `json:"start_time" yaml:"start_time"`
	EndTime       string   `json:"end_time" yaml:"end_time"`
	IsScheduled   bool     `json:"is_scheduled" yaml:"is_scheduled"`
	RiderID       types.ID `json:"rider_id" yaml:"rider_id"`
	DateRequested string   `json:"date_requested,omitempty" yaml:"date_requested,omitempty"`
}

// Break is a recurring pause in a driver's shift on one weekday.
type Break struct {
	Weekday time.Weekday `json:"weekday" yaml:"weekday"`
	Start   string       `json:"start" yaml:"start"`
	End     string       `json:"end" yaml:"end"`
}

type Driver struct {
	ID         types.ID `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	ShiftStart string   `json:"shift_start" yaml:"shift_start"`
	ShiftEnd   string   `json:"shift_end" yaml:"shift_end"`
	Breaks     []Break  `json:"breaks,omitempty" yaml:"breaks,omitempty"`
	VehicleID  types.ID `json:"vehicle_id,omitempty" yaml:"vehicle_id,omitempty"`
	Phone      string   `json:"phone,omitempty" yaml:"phone,omitempty"`
	Email      string   `json:"email,omitempty" yaml:"email,omitempty"`
}

// Assignment is a copy of a RideRequest bound to a driver.
type Assignment struct {
	RideRequest `yaml:",inline"`
	DriverID types.ID `json:"driver_id" yaml:"driver_id"`
}

type Status string

const (
	StatusSearching Status = "searching"
	StatusSolved    Status = "solved"
	StatusExhausted Status = "infeasible"
)

// Stats describes the work done by one search.
type Stats struct {
	NodesPopped   int           `json:"nodes_popped" yaml:"nodes_popped"`
	NodesPushed   int           `json:"nodes_pushed" yaml:"nodes_pushed"`
	MaxStackDepth int           `json:"max_stack_depth" yaml:"max_stack_depth"`
	Elapsed       time.Duration `json:"elapsed_ns" yaml:"elapsed"`
}

// Result is the outcome of a search. Assignments is only set when Status is
// StatusSolved and is ordered like the input requests.
type Result struct {
	RunID       types.ID     `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Status      Status       `json:"status" yaml:"status"`
	Assignments []Assignment `json:"assignments" yaml:"assignments"`
	Stats       Stats        `json:"stats" yaml:"stats"`
	Cached      bool         `json:"cached,omitempty" yaml:"cached,omitempty"`
}

func (r Result) Solved() bool { return r.Status == StatusSolved }

// ByDriver groups the assignments of a solved result by driver id.
func (r Result) ByDriver() map[types.ID][]Assignment {
	out := make(map[types.ID][]Assignment)
	for _, a := range r.Assignments {
		out[a.DriverID] = append(out[a.DriverID], a)
	}
	return out
}
