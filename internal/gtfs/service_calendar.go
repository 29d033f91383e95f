package gtfs

import (
	"context"
	"time"

	"github.com/Niyant4280/bus-niyojak/gtfsdb"
)

const gtfsDateLayout = "20060102"

// IsServiceActiveOnDate reports whether calendar runs on date: it must be active,
// flagged for the weekday, and date must fall in [StartDate, EndDate].
func IsServiceActiveOnDate(calendar gtfsdb.Calendar, date time.Time) bool {
	if calendar.IsActive != 1 {
		return false
	}

	// Both bounds are fixed-width YYYYMMDD, so string order is date order.
	serviceDate := date.Format(gtfsDateLayout)
	if serviceDate < calendar.StartDate || serviceDate > calendar.EndDate {
		return false
	}

	return weekdayFlag(calendar, date.Weekday()) == 1
}

func weekdayFlag(calendar gtfsdb.Calendar, weekday time.Weekday) int64 {
	switch weekday {
	case time.Sunday:
		return calendar.Sunday
	case time.Monday:
		return calendar.Monday
	case time.Tuesday:
		return calendar.Tuesday
	case time.Wednesday:
		return calendar.Wednesday
	case time.Thursday:
		return calendar.Thursday
	case time.Friday:
		return calendar.Friday
	case time.Saturday:
		return calendar.Saturday
	default:
		return 0
	}
}

// ActiveServices returns the IDs of the calendars running on date.
func ActiveServices(calendars []gtfsdb.Calendar, date time.Time) map[string]struct{} {
	active := make(map[string]struct{})
	for _, calendar := range calendars {
		if IsServiceActiveOnDate(calendar, date) {
			active[calendar.ID] = struct{}{}
		}
	}
	return active
}

// ActiveServiceIDs loads the active calendars and filters them for date.
func (manager *Manager) ActiveServiceIDs(ctx context.Context, date time.Time) (map[string]struct{}, error) {
	calendars, err := manager.repo.ListActiveCalendars(ctx)
	if err != nil {
		return nil, upstreamError(ctx, "list_active_calendars", err)
	}
	return ActiveServices(calendars, date), nil
}

// OperatingDays names the weekdays on which any of calendars runs, Monday first.
func OperatingDays(calendars []gtfsdb.Calendar) []string {
	week := []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
		time.Friday, time.Saturday, time.Sunday,
	}

	days := []string{}
	for _, day := range week {
		for _, calendar := range calendars {
			if calendar.IsActive == 1 && weekdayFlag(calendar, day) == 1 {
				days = append(days, day.String())
				break
			}
		}
	}
	return days
}
