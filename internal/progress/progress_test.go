package progress

import (
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	p := Defaults("u1", "c1")

	if p.PerformanceGoal != DefaultPerformanceGoal {
		t.Errorf("PerformanceGoal = %d, want %d", p.PerformanceGoal, DefaultPerformanceGoal)
	}
	if p.ExamDate != nil {
		t.Error("ExamDate should default to nil")
	}
	if len(p.SubjectsData) != 0 {
		t.Errorf("SubjectsData = %v, want empty", p.SubjectsData)
	}
}

func TestApply_MergesTopics(t *testing.T) {
	p := Defaults("u1", "c1")
	p.SubjectsData["t1"] = TopicEntry{Completed: true}

	p.apply(Update{Topics: map[string]TopicEntry{
		"t2": {Completed: true},
	}})

	if len(p.SubjectsData) != 2 {
		t.Fatalf("SubjectsData has %d entries, want 2 (merge, not replace)", len(p.SubjectsData))
	}
	if !p.SubjectsData["t1"].Completed {
		t.Error("existing topic entry lost during merge")
	}
}

func TestApply_NilFieldsUntouched(t *testing.T) {
	p := Defaults("u1", "c1")
	examDate := time.Date(2025, 11, 9, 0, 0, 0, 0, time.UTC)
	p.ExamDate = &examDate
	p.PerformanceGoal = 90

	p.apply(Update{})

	if p.PerformanceGoal != 90 {
		t.Errorf("PerformanceGoal = %d, want 90 untouched", p.PerformanceGoal)
	}
	if p.ExamDate == nil || !p.ExamDate.Equal(examDate) {
		t.Error("ExamDate should be untouched by empty update")
	}
}

func TestApply_SetAndClearExamDate(t *testing.T) {
	p := Defaults("u1", "c1")
	examDate := time.Date(2025, 11, 9, 0, 0, 0, 0, time.UTC)

	p.apply(Update{ExamDate: &examDate})
	if p.ExamDate == nil {
		t.Fatal("ExamDate not set")
	}

	p.apply(Update{ClearExamDate: true})
	if p.ExamDate != nil {
		t.Error("ExamDate not cleared")
	}
}

func TestApply_StampsUpdatedAt(t *testing.T) {
	p := Defaults("u1", "c1")
	before := p.UpdatedAt

	time.Sleep(time.Millisecond)
	p.apply(Update{})

	if !p.UpdatedAt.After(before) {
		t.Error("UpdatedAt not advanced by apply")
	}
}

func TestClone_Independent(t *testing.T) {
	p := Defaults("u1", "c1")
	p.SubjectsData["t1"] = TopicEntry{Completed: true}

	c := p.clone()
	c.SubjectsData["t2"] = TopicEntry{Completed: true}

	if len(p.SubjectsData) != 1 {
		t.Error("mutating the clone leaked into the original")
	}
}
