package domain

// Course is one scheduled class instance as published by the booking provider.
// ID is the only key used for change detection and must be stable across polls.
type Course struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Instructor     string `json:"instructor"`
	Date           string `json:"date"`
	StartTime      string `json:"startTime"`
	EndTime        string `json:"endTime"`
	SpotsAvailable int    `json:"spotsAvailable"`
	Location       string `json:"location,omitempty"`
}

// CourseIDs returns the IDs of courses in fetch order.
func CourseIDs(courses []Course) []string {
	ids := make([]string, 0, len(courses))
	for _, c := range courses {
		ids = append(ids, c.ID)
	}
	return ids
}
