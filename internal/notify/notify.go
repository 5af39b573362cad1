// Package notify posts sprint and defect events to chat platforms.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/sprintyard/internal/models"
)

// Severity color hints shared by the adapters.
const (
	ColorSuccess = "#36a64f"
	ColorWarning = "#daa038"
	ColorDanger  = "#cc4125"
	ColorInfo    = "#3aa3e3"
)

// Field is a key-value pair rendered inside an event card.
type Field struct {
	Name  string
	Value string
	Short bool
}

// Event is one notification, formatted platform-neutrally. Adapters turn it
// into attachments or embeds.
type Event struct {
	Title  string
	Body   string
	Color  string
	Fields []Field
}

// Adapter posts events to one chat platform.
type Adapter interface {
	Post(ctx context.Context, evt Event) error
	Close() error
}

// Dispatcher fans events out to every configured adapter. With no adapters
// it is a no-op, so callers never need to guard dispatch sites.
type Dispatcher struct {
	adapters []Adapter
}

// NewDispatcher builds a dispatcher over the given adapters.
func NewDispatcher(adapters ...Adapter) *Dispatcher {
	return &Dispatcher{adapters: adapters}
}

// Dispatch posts the event to all adapters, collecting per-adapter errors.
func (d *Dispatcher) Dispatch(ctx context.Context, evt Event) error {
	var errs []error
	for _, a := range d.adapters {
		if err := a.Post(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close shuts down all adapters.
func (d *Dispatcher) Close() error {
	var errs []error
	for _, a := range d.adapters {
		if err := a.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SprintStarted builds the event for a sprint moving to active.
func SprintStarted(sp *models.Sprint) Event {
	return Event{
		Title: fmt.Sprintf("Sprint started: %s", sp.Name),
		Body:  fmt.Sprintf("Running %s through %s", day(sp.StartDate), day(sp.EndDate)),
		Color: ColorInfo,
		Fields: []Field{
			{Name: "Team", Value: sp.Team, Short: true},
			{Name: "Ends", Value: day(sp.EndDate), Short: true},
		},
	}
}

// SprintCompleted builds the event for a sprint moving to completed.
func SprintCompleted(sp *models.Sprint) Event {
	return Event{
		Title: fmt.Sprintf("Sprint completed: %s", sp.Name),
		Color: ColorSuccess,
		Fields: []Field{
			{Name: "Team", Value: sp.Team, Short: true},
		},
	}
}

// SprintOverdue builds the alert for an active sprint past its end date.
func SprintOverdue(sp *models.Sprint) Event {
	return Event{
		Title: fmt.Sprintf("Sprint overdue: %s", sp.Name),
		Body:  fmt.Sprintf("Ended %s but is still active", day(sp.EndDate)),
		Color: ColorWarning,
		Fields: []Field{
			{Name: "Team", Value: sp.Team, Short: true},
			{Name: "Ended", Value: day(sp.EndDate), Short: true},
		},
	}
}

// DefectAssigned builds the event for a defect landing on someone's plate.
func DefectAssigned(d *models.Defect, assignee string) Event {
	return Event{
		Title: fmt.Sprintf("Defect assigned: %s", d.Title),
		Body:  d.Description,
		Color: ColorDanger,
		Fields: []Field{
			{Name: "Code", Value: d.DefectCode, Short: true},
			{Name: "Severity", Value: d.Severity, Short: true},
			{Name: "Assignee", Value: assignee, Short: true},
		},
	}
}

func day(t time.Time) string {
	return t.Format("2006-01-02")
}
