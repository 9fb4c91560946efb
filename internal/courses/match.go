package courses

import (
	"time"

	"github.com/rdesitter/gym-tracker/internal/domain"
	"github.com/rdesitter/gym-tracker/internal/utils"
)

// Weekday parses a course date (YYYY-MM-DD, optionally followed by a time part) as a civil date.
func Weekday(date string) (time.Weekday, bool) {
	if len(date) < len(time.DateOnly) {
		return 0, false
	}
	d, err := time.Parse(time.DateOnly, date[:len(time.DateOnly)])
	if err != nil {
		return 0, false
	}
	if len(date) > len(time.DateOnly) && date[len(time.DateOnly)] != 'T' && date[len(time.DateOnly)] != ' ' {
		return 0, false
	}
	return d.Weekday(), true
}

// IsCourseDuringAvailability reports whether the course falls entirely inside one of the slots
// declared for its weekday. Anything unparseable fails closed.
func IsCourseDuringAvailability(course domain.Course, cfg *domain.UserConfig) bool {
	day, ok := Weekday(course.Date)
	if !ok {
		return false
	}

	slots := cfg.SlotsFor(day)
	if len(slots) == 0 {
		return false
	}

	courseStart, err := utils.ToMinutes(course.StartTime)
	if err != nil {
		return false
	}
	courseEnd, err := utils.ToMinutes(course.EndTime)
	if err != nil || courseEnd <= courseStart {
		return false
	}

	for _, slot := range slots {
		slotStart, err := utils.ToMinutes(slot.Start)
		if err != nil {
			continue
		}
		slotEnd, err := utils.ToMinutes(slot.End)
		if err != nil || slotEnd <= slotStart {
			continue
		}
		if utils.IntervalWithin(courseStart, courseEnd, slotStart, slotEnd) {
			return true
		}
	}
	return false
}

func FilterMatchingCourses(courses []domain.Course, cfg *domain.UserConfig) []domain.Course {
	matching := make([]domain.Course, 0)
	for _, c := range courses {
		if IsCourseDuringAvailability(c, cfg) {
			matching = append(matching, c)
		}
	}
	return matching
}
