package domain

import (
	"encoding/json"
	"fmt"
)

const (
	MailTypeNewCourses = "new_courses"
	MailTypeCustom     = "custom"
)

// MailMessage is what travels from the tracker to a sender, directly or through the queue.
type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type NewCoursesMailData struct {
	Courses []Course `json:"courses"`
}

type CustomMailData struct {
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// UnmarshalJSON decodes Data into the concrete payload matching Type.
func (m *MailMessage) UnmarshalJSON(b []byte) error {
	var raw struct {
		Type string          `json:"type"`
		To   string          `json:"to"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	m.Type = raw.Type
	m.To = raw.To

	switch raw.Type {
	case MailTypeNewCourses:
		data := NewCoursesMailData{}
		if err := json.Unmarshal(raw.Data, &data); err != nil {
			return err
		}
		m.Data = data
	case MailTypeCustom:
		data := CustomMailData{}
		if err := json.Unmarshal(raw.Data, &data); err != nil {
			return err
		}
		m.Data = data
	default:
		return fmt.Errorf("unsupported mail type %q", raw.Type)
	}

	return nil
}
