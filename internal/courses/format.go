package courses

import (
	"fmt"
	"strings"

	"github.com/rdesitter/gym-tracker/internal/domain"
)

// DaysFR names weekdays the way the gym's site does, indexed like DayAvailability.Day.
var DaysFR = [7]string{"Dimanche", "Lundi", "Mardi", "Mercredi", "Jeudi", "Vendredi", "Samedi"}

// FormatCourseForEmail renders one course as a plain-text block.
func FormatCourseForEmail(course domain.Course) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 %s\n", course.Name)
	fmt.Fprintf(&b, "   Date: %s\n", FormatDate(course.Date))
	fmt.Fprintf(&b, "   Heure: %s - %s\n", course.StartTime, course.EndTime)
	fmt.Fprintf(&b, "   Instructeur: %s\n", course.Instructor)
	if course.Location != "" {
		fmt.Fprintf(&b, "   Lieu: %s\n", course.Location)
	}
	fmt.Fprintf(&b, "   Places disponibles: %d\n", course.SpotsAvailable)
	return b.String()
}

// FormatCourseList joins the blocks of several courses with a blank line between them.
func FormatCourseList(courses []domain.Course) string {
	blocks := make([]string, 0, len(courses))
	for _, c := range courses {
		blocks = append(blocks, FormatCourseForEmail(c))
	}
	return strings.Join(blocks, "\n")
}

// FormatDate prefixes a parseable date with its French weekday name, e.g. "Lundi 2024-01-08".
func FormatDate(date string) string {
	day, ok := Weekday(date)
	if !ok {
		return date
	}
	return DaysFR[day] + " " + date
}

// Subject is the subject line of a new-courses notification.
func Subject(count int, gymName string) string {
	return fmt.Sprintf("🏋️ %d nouveau(x) cours disponible(s) - %s", count, gymName)
}
