package courses

import "github.com/rdesitter/gym-tracker/internal/domain"

// GetNewCourses returns the courses whose ID is absent from previousIDs, in the order of current.
func GetNewCourses(current []domain.Course, previousIDs []string) []domain.Course {
	seen := make(map[string]struct{}, len(previousIDs))
	for _, id := range previousIDs {
		seen[id] = struct{}{}
	}

	newCourses := make([]domain.Course, 0)
	for _, c := range current {
		if _, ok := seen[c.ID]; !ok {
			newCourses = append(newCourses, c)
		}
	}
	return newCourses
}

// Diff compares a fetch against the previous snapshot and returns the new courses together with
// the snapshot that should be persisted for the next cycle.
func Diff(current []domain.Course, previous domain.Snapshot) ([]domain.Course, domain.Snapshot) {
	return GetNewCourses(current, previous.CourseIDs), domain.Snapshot{CourseIDs: domain.CourseIDs(current)}
}
