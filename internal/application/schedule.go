package application

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// scheduleParser accepts standard five-field cron expressions and descriptors
// such as "@hourly".
var scheduleParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// NewSchedule returns the cycle schedule. A non-empty cron expression takes
// precedence over the fixed interval.
func NewSchedule(interval time.Duration, cronExpr string) (cron.Schedule, error) {
	if cronExpr != "" {
		sched, err := scheduleParser.Parse(cronExpr)
		if err != nil {
			return nil, fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
		}
		return sched, nil
	}

	if interval < time.Second {
		return nil, fmt.Errorf("sync interval %s is below one second", interval)
	}
	return cron.Every(interval), nil
}

// ScheduleInfo is an exported view of the loop's schedule, used for
// observability and testing.
type ScheduleInfo struct {
	NextRunAt time.Time
	LastRunAt time.Time
}
