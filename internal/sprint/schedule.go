package sprint

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/zulandar/sprintyard/internal/notify"
	"gorm.io/gorm"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextCronDuration parses a 5-field cron expression and returns the duration
// until the next fire time. Returns 0 on parse error.
func nextCronDuration(expr string) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	next := sched.Next(time.Now())
	d := time.Until(next)
	if d < 0 {
		return 0
	}
	return d
}

// RunSweeper runs the overdue-sprint sweep on the given cron schedule until
// ctx is cancelled. Each fire surfaces active sprints past their end date and
// dispatches an alert per sprint through the notifier (which may be nil).
func RunSweeper(ctx context.Context, db *gorm.DB, schedule string, notifier *notify.Dispatcher, out io.Writer) error {
	if _, err := cronParser.Parse(schedule); err != nil {
		return fmt.Errorf("sprint: parse sweep schedule %q: %w", schedule, err)
	}

	timer := time.NewTimer(nextCronDuration(schedule))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
			sweepOnce(ctx, db, notifier, out)
			if d := nextCronDuration(schedule); d > 0 {
				timer.Reset(d)
			}
		}
	}
}

func sweepOnce(ctx context.Context, db *gorm.DB, notifier *notify.Dispatcher, out io.Writer) {
	overdue, err := MarkOverdueSprints(db, time.Now())
	if err != nil {
		if out != nil {
			fmt.Fprintf(out, "sprint sweep: %v\n", err)
		}
		return
	}
	for i := range overdue {
		sp := &overdue[i]
		if out != nil {
			fmt.Fprintf(out, "sprint sweep: %q overdue since %s\n", sp.Name, sp.EndDate.Format("2006-01-02"))
		}
		if notifier == nil {
			continue
		}
		if err := notifier.Dispatch(ctx, notify.SprintOverdue(sp)); err != nil && out != nil {
			fmt.Fprintf(out, "sprint sweep: notify: %v\n", err)
		}
	}
}
