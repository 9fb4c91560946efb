package domain

import "time"

type TimeSlot struct {
	Start string `json:"start" validate:"required,clock"`
	End   string `json:"end" validate:"required,clock"`
}

// DayAvailability holds the slots of one weekday, 0 = Sunday ... 6 = Saturday.
type DayAvailability struct {
	Day   int        `json:"day" validate:"min=0,max=6"`
	Slots []TimeSlot `json:"slots" validate:"dive"`
}

type UserConfig struct {
	Email             string            `json:"email" validate:"required,email"`
	Availability      []DayAvailability `json:"availability" validate:"unique=Day,dive"`
	NotifyOnNewCourse bool              `json:"notifyOnNewCourse"`
	LastChecked       *time.Time        `json:"lastChecked,omitempty"`
}

// SlotsFor returns the slots declared for the given weekday, or nil.
func (u *UserConfig) SlotsFor(day time.Weekday) []TimeSlot {
	for _, a := range u.Availability {
		if a.Day == int(day) {
			return a.Slots
		}
	}
	return nil
}

// Notifiable reports whether the subscriber should receive new-course notifications.
func (u *UserConfig) Notifiable() bool {
	return u.NotifyOnNewCourse && u.Email != ""
}
