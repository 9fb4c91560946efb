package courses

import (
	"strings"
	"testing"
	"time"

	"github.com/rdesitter/gym-tracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCourseIntervalUsesLocalWallClock(t *testing.T) {
	loc, err := time.LoadLocation("America/Toronto")
	require.NoError(t, err)

	start, end, ok := CourseInterval(domain.Course{Date: monday, StartTime: "10:00", EndTime: "11:30"}, loc)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 8, 15, 0, 0, 0, time.UTC), start.UTC())
	assert.Equal(t, 90*time.Minute, end.Sub(start))

	_, _, ok = CourseInterval(domain.Course{Date: monday, StartTime: "11:00", EndTime: "10:00"}, loc)
	assert.False(t, ok)
	_, _, ok = CourseInterval(domain.Course{Date: "soon", StartTime: "10:00", EndTime: "11:00"}, loc)
	assert.False(t, ok)
}

func TestCalendar(t *testing.T) {
	list := []domain.Course{
		{ID: "course-1", Name: "Yoga", Instructor: "Marie", Date: monday, StartTime: "10:00", EndTime: "11:00", SpotsAvailable: 4, Location: "Studio B"},
		{ID: "course-2", Name: "Boxe", Date: monday, StartTime: "bientôt", EndTime: "11:00"},
	}

	out := Calendar(list, time.UTC, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))

	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR"))
	assert.Contains(t, out, "UID:course-1@gym-tracker")
	assert.Contains(t, out, "SUMMARY:Yoga")
	assert.Contains(t, out, "DTSTART:20240108T100000Z")
	assert.Contains(t, out, "DTEND:20240108T110000Z")
	assert.Contains(t, out, "LOCATION:Studio B")
	assert.Equal(t, 1, strings.Count(out, "BEGIN:VEVENT"), "unparseable courses are skipped")
}
