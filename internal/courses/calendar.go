package courses

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/rdesitter/gym-tracker/internal/domain"
	"github.com/rdesitter/gym-tracker/internal/utils"
)

const calendarProductID = "-//gym-tracker//courses//FR"

// Calendar renders courses as an iCalendar feed. Course dates and times are read in loc; courses
// whose date or time range does not parse are left out.
func Calendar(list []domain.Course, loc *time.Location, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)

	for _, c := range list {
		start, end, ok := CourseInterval(c, loc)
		if !ok {
			continue
		}

		event := cal.AddEvent(c.ID + "@gym-tracker")
		event.SetDtStampTime(stamp)
		event.SetStartAt(start)
		event.SetEndAt(end)
		event.SetSummary(c.Name)
		if c.Location != "" {
			event.SetLocation(c.Location)
		}
		event.SetDescription(fmt.Sprintf("Instructeur: %s\nPlaces disponibles: %d", c.Instructor, c.SpotsAvailable))
	}

	return cal.Serialize()
}

// CourseInterval returns the wall-clock start and end of a course in loc.
func CourseInterval(c domain.Course, loc *time.Location) (time.Time, time.Time, bool) {
	if _, ok := Weekday(c.Date); !ok {
		return time.Time{}, time.Time{}, false
	}
	day, err := time.Parse(time.DateOnly, c.Date[:len(time.DateOnly)])
	if err != nil {
		return time.Time{}, time.Time{}, false
	}

	s, err := utils.ToMinutes(c.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	e, err := utils.ToMinutes(c.EndTime)
	if err != nil || e <= s {
		return time.Time{}, time.Time{}, false
	}

	y, m, d := day.Date()
	start := time.Date(y, m, d, s/60, s%60, 0, 0, loc)
	end := time.Date(y, m, d, e/60, e%60, 0, 0, loc)
	return start, end, true
}
