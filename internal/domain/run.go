package domain

import "time"

// Snapshot is the fingerprint of the most recent listing: the course IDs seen, in fetch order.
type Snapshot struct {
	CourseIDs []string `json:"courseIds"`
}

type NotificationResult struct {
	Email        string `json:"email"`
	CoursesCount int    `json:"coursesCount"`
	Error        string `json:"error,omitempty"`
}

// Sent reports whether the notification was delivered (or handed to the queue).
func (n NotificationResult) Sent() bool {
	return n.Error == ""
}

type RunSummary struct {
	RunID               string               `json:"runId"`
	Source              string               `json:"source,omitempty"`
	TotalCourses        int                  `json:"totalCourses"`
	NewCourses          int                  `json:"newCourses"`
	NotificationsSent   int                  `json:"notificationsSent"`
	NotificationsFailed int                  `json:"notificationsFailed"`
	Notifications       []NotificationResult `json:"notifications"`
	Degraded            []string             `json:"degraded,omitempty"`
	Timestamp           time.Time            `json:"timestamp"`
}
