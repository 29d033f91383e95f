package models

import "github.com/Niyant4280/bus-niyojak/gtfsdb"

type Calendar struct {
	ServiceID string `json:"serviceId"`
	Monday    bool   `json:"monday"`
	Tuesday   bool   `json:"tuesday"`
	Wednesday bool   `json:"wednesday"`
	Thursday  bool   `json:"thursday"`
	Friday    bool   `json:"friday"`
	Saturday  bool   `json:"saturday"`
	Sunday    bool   `json:"sunday"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

func NewCalendar(c gtfsdb.Calendar) Calendar {
	return Calendar{
		ServiceID: c.ID,
		Monday:    c.Monday == 1,
		Tuesday:   c.Tuesday == 1,
		Wednesday: c.Wednesday == 1,
		Thursday:  c.Thursday == 1,
		Friday:    c.Friday == 1,
		Saturday:  c.Saturday == 1,
		Sunday:    c.Sunday == 1,
		StartDate: c.StartDate,
		EndDate:   c.EndDate,
	}
}

type Stats struct {
	Routes    int64 `json:"routes"`
	Stops     int64 `json:"stops"`
	Trips     int64 `json:"trips"`
	StopTimes int64 `json:"stopTimes"`
	Shapes    int64 `json:"shapes"`
	Calendars int64 `json:"calendars"`
}

func NewStats(s gtfsdb.Stats) Stats {
	return Stats(s)
}
