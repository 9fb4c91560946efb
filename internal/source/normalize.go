package source

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mozillazg/go-unidecode"
	"github.com/rdesitter/gym-tracker/internal/domain"
)

// IDStrategy decides how an ID is synthesized for records the provider sends without one.
type IDStrategy string

const (
	// IDFromContent hashes provider, date, start time, folded name and location, so the ID
	// survives reordering of the listing.
	IDFromContent IDStrategy = "content"
	// IDFromPosition uses the fetch-order index. Any shift of earlier records changes the ID.
	IDFromPosition IDStrategy = "position"
)

func ParseIDStrategy(s string) (IDStrategy, error) {
	switch IDStrategy(strings.ToLower(strings.TrimSpace(s))) {
	case IDFromContent, "":
		return IDFromContent, nil
	case IDFromPosition:
		return IDFromPosition, nil
	default:
		return "", fmt.Errorf("unknown id strategy %q", s)
	}
}

// Field variants observed in provider payloads; the first non-empty key wins.
var (
	nameKeys       = []string{"className", "name"}
	instructorKeys = []string{"professionalName", "instructor", "professional"}
	startKeys      = []string{"startTime", "startDate"}
	endKeys        = []string{"endTime", "endDate"}
	spotsKeys      = []string{"spotsAvailable", "availableSpots", "spots"}
	locationKeys   = []string{"location", "locationName"}
)

func (c *Client) normalize(item map[string]any, index int) domain.Course {
	course := domain.Course{
		ID:             stringField(item, "id"),
		Name:           stringField(item, nameKeys...),
		Instructor:     stringField(item, instructorKeys...),
		Date:           stringField(item, "date"),
		StartTime:      NormalizeTime(stringField(item, startKeys...), c.location),
		EndTime:        NormalizeTime(stringField(item, endKeys...), c.location),
		SpotsAvailable: intField(item, spotsKeys...),
		Location:       stringField(item, locationKeys...),
	}

	if course.Name == "" {
		course.Name = "Cours"
	}
	if course.Instructor == "" {
		course.Instructor = "N/A"
	}
	if course.Date == "" {
		course.Date = datePart(stringField(item, "startDate"), c.location)
	}
	if course.ID == "" {
		course.ID = c.synthesizeID(course, index)
	}

	return course
}

func (c *Client) synthesizeID(course domain.Course, index int) string {
	if c.idStrategy == IDFromPosition {
		return fmt.Sprintf("course-%d", index)
	}
	return ContentID(c.companyID, course)
}

// ContentID derives an identifier from the fields that pin down a physical class instance.
func ContentID(provider string, course domain.Course) string {
	parts := []string{provider, course.Date, course.StartTime, foldName(course.Name), foldName(course.Location)}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return "course-" + hex.EncodeToString(sum[:6])
}

func foldName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(unidecode.Unidecode(s))), " ")
}

var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})(?::\d{2})?$`)

var localDateTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// NormalizeTime turns a bare clock time or a datetime into "HH:MM" in loc. Values it cannot
// make sense of are returned unchanged.
func NormalizeTime(raw string, loc *time.Location) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if m := clockPattern.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		if hour < 24 && minute < 60 {
			return fmt.Sprintf("%02d:%02d", hour, minute)
		}
		return raw
	}

	if t, ok := parseDateTime(s, loc); ok {
		return t.Format("15:04")
	}
	return raw
}

func parseDateTime(s string, loc *time.Location) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), true
	}
	for _, layout := range localDateTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func datePart(s string, loc *time.Location) string {
	if s == "" {
		return ""
	}
	if t, ok := parseDateTime(s, loc); ok {
		return t.Format(time.DateOnly)
	}
	date, _, _ := strings.Cut(s, "T")
	return date
}

func stringField(item map[string]any, keys ...string) string {
	for _, key := range keys {
		switch v := item[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case json.Number:
			return v.String()
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// intField returns the first present numeric value, so an explicit 0 is kept.
func intField(item map[string]any, keys ...string) int {
	for _, key := range keys {
		switch v := item[key].(type) {
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return int(n)
			}
			if f, err := v.Float64(); err == nil {
				return int(math.Trunc(f))
			}
		case float64:
			return int(math.Trunc(v))
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n
			}
		}
	}
	return 0
}
