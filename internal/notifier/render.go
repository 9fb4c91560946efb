package notifier

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/rdesitter/gym-tracker/internal/courses"
	"github.com/rdesitter/gym-tracker/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var newCoursesTmpl = template.Must(
	template.New("new_courses.html").
		Funcs(template.FuncMap{"formatDate": courses.FormatDate}).
		ParseFS(templateFS, "templates/new_courses.html"),
)

// Rendered is a mail ready to be handed to a transport.
type Rendered struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Renderer struct {
	gymName    string
	bookingURL string
	signature  string
}

func NewRenderer(gymName, bookingURL, signature string) *Renderer {
	return &Renderer{gymName: gymName, bookingURL: bookingURL, signature: signature}
}

// Render turns a queued message into subject and bodies. Data must hold the payload type matching
// msg.Type, either by value or by pointer.
func (r *Renderer) Render(msg domain.MailMessage) (*Rendered, error) {
	switch msg.Type {
	case domain.MailTypeNewCourses:
		data, ok := newCoursesData(msg.Data)
		if !ok {
			return nil, fmt.Errorf("mail type %s: unexpected payload %T", msg.Type, msg.Data)
		}
		return r.renderNewCourses(msg.To, data)
	case domain.MailTypeCustom:
		data, ok := customData(msg.Data)
		if !ok {
			return nil, fmt.Errorf("mail type %s: unexpected payload %T", msg.Type, msg.Data)
		}
		return &Rendered{
			To:      msg.To,
			Subject: data.Subject,
			Text:    data.Message,
			HTML:    TextToHTML(data.Message),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported mail type %q", msg.Type)
	}
}

func (r *Renderer) renderNewCourses(to string, data domain.NewCoursesMailData) (*Rendered, error) {
	var text strings.Builder
	text.WriteString("Bonjour,\n\n")
	text.WriteString("De nouveaux cours correspondent à vos disponibilités :\n\n")
	text.WriteString(courses.FormatCourseList(data.Courses))
	fmt.Fprintf(&text, "\nRéservez vite sur : %s\n\n---\n%s", r.bookingURL, r.signature)

	var html bytes.Buffer
	err := newCoursesTmpl.Execute(&html, struct {
		Courses    []domain.Course
		BookingURL string
	}{data.Courses, r.bookingURL})
	if err != nil {
		return nil, fmt.Errorf("render new courses: %w", err)
	}

	return &Rendered{
		To:      to,
		Subject: courses.Subject(len(data.Courses), r.gymName),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

// TextToHTML escapes a plain-text message and keeps its line breaks.
func TextToHTML(s string) string {
	return strings.ReplaceAll(template.HTMLEscapeString(s), "\n", "<br>")
}

func newCoursesData(v any) (domain.NewCoursesMailData, bool) {
	switch d := v.(type) {
	case domain.NewCoursesMailData:
		return d, true
	case *domain.NewCoursesMailData:
		if d != nil {
			return *d, true
		}
	}
	return domain.NewCoursesMailData{}, false
}

func customData(v any) (domain.CustomMailData, bool) {
	switch d := v.(type) {
	case domain.CustomMailData:
		return d, true
	case *domain.CustomMailData:
		if d != nil {
			return *d, true
		}
	}
	return domain.CustomMailData{}, false
}
