// Package progress persists a user's per-course progress with a local cache
// and a remote authoritative store, merging on load and writing through on
// update.
package progress

import "time"

// DefaultPerformanceGoal is the goal assigned when a user has no stored
// progress anywhere.
const DefaultPerformanceGoal = 85

// TopicEntry is a user's manually tracked completion state for one topic.
type TopicEntry struct {
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// UserCourseProgress is a user's progress document for one course. Remote is
// authoritative when reachable; the local cache is the resilience fallback
// and write-ahead copy.
type UserCourseProgress struct {
	UserID          string                `json:"user_id"`
	CourseID        string                `json:"course_id"`
	SubjectsData    map[string]TopicEntry `json:"subjects_data"`
	PerformanceGoal int                   `json:"performance_goal"`
	ExamDate        *time.Time            `json:"exam_date,omitempty"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// Defaults returns the progress synthesized for a user with no stored state.
func Defaults(userID, courseID string) *UserCourseProgress {
	return &UserCourseProgress{
		UserID:          userID,
		CourseID:        courseID,
		SubjectsData:    map[string]TopicEntry{},
		PerformanceGoal: DefaultPerformanceGoal,
		UpdatedAt:       time.Now(),
	}
}

// Update is a partial progress change. Nil fields are left untouched;
// Topics entries are merged per topic id.
type Update struct {
	Topics          map[string]TopicEntry
	PerformanceGoal *int
	ExamDate        *time.Time
	ClearExamDate   bool
}

// apply merges the update into p and stamps UpdatedAt.
func (p *UserCourseProgress) apply(u Update) {
	if p.SubjectsData == nil {
		p.SubjectsData = map[string]TopicEntry{}
	}
	for topicID, entry := range u.Topics {
		p.SubjectsData[topicID] = entry
	}
	if u.PerformanceGoal != nil {
		p.PerformanceGoal = *u.PerformanceGoal
	}
	if u.ClearExamDate {
		p.ExamDate = nil
	} else if u.ExamDate != nil {
		p.ExamDate = u.ExamDate
	}
	p.UpdatedAt = time.Now()
}

// clone returns a deep copy so callers never share the service's in-memory
// value.
func (p *UserCourseProgress) clone() *UserCourseProgress {
	out := *p
	out.SubjectsData = make(map[string]TopicEntry, len(p.SubjectsData))
	for k, v := range p.SubjectsData {
		out.SubjectsData[k] = v
	}
	return &out
}
