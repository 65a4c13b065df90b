package stats_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prepdesk/progress-engine/internal/attempt"
	"github.com/prepdesk/progress-engine/internal/curriculum"
	"github.com/prepdesk/progress-engine/internal/stats"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestAggregate_ConcreteScenario(t *testing.T) {
	// "Budget Law": one group constraining subject and topic; 5 deduplicated
	// attempts, 2 matching (1 correct, 1 wrong).
	node := &curriculum.Node{
		ID:    "budget",
		Title: "Budget Law",
		FilterGroups: []curriculum.FilterGroup{
			{
				Subjects: []string{"Public Budget Concepts"},
				Topics:   []string{"Traditional Budgeting"},
			},
		},
	}

	attempts := []attempt.Record{
		{QuestionID: "q1", Subjects: []string{"Public Budget Concepts"}, Topics: []string{"Traditional Budgeting"}, IsCorrect: true},
		{QuestionID: "q2", Subjects: []string{"Public Budget Concepts"}, Topics: []string{"Traditional Budgeting"}, IsCorrect: false},
		{QuestionID: "q3", Subjects: []string{"Constitutional Law"}, Topics: []string{"Fundamental Rights"}, IsCorrect: true},
		{QuestionID: "q4", Subjects: []string{"Public Budget Concepts"}, Topics: []string{"Zero-Base Budgeting"}, IsCorrect: true},
		{QuestionID: "q5", Topics: []string{"Traditional Budgeting"}, IsCorrect: false},
	}

	got := stats.Aggregate(node, attempts)
	want := stats.NodeStatistics{NodeID: "budget", TotalAttempts: 2, Correct: 1, Wrong: 1, AccuracyPct: 50}
	if got != want {
		t.Errorf("Aggregate() = %+v, want %+v", got, want)
	}
}

func TestAggregate_WildcardCountsEverything(t *testing.T) {
	node := &curriculum.Node{ID: "all"}
	attempts := []attempt.Record{
		{QuestionID: "q1", IsCorrect: true},
		{QuestionID: "q2", IsCorrect: false},
		{QuestionID: "q3", IsCorrect: true},
	}

	got := stats.Aggregate(node, attempts)
	if got.TotalAttempts != len(attempts) {
		t.Errorf("TotalAttempts = %d, want %d", got.TotalAttempts, len(attempts))
	}
}

func TestAggregate_Conservation(t *testing.T) {
	node := &curriculum.Node{ID: "n", FilterGroups: []curriculum.FilterGroup{{Topics: []string{"A"}}}}
	attempts := []attempt.Record{
		{QuestionID: "q1", Topics: []string{"A"}, IsCorrect: true},
		{QuestionID: "q2", Topics: []string{"A"}, IsCorrect: false},
		{QuestionID: "q3", Topics: []string{"B"}, IsCorrect: true},
	}

	got := stats.Aggregate(node, attempts)
	if got.Correct+got.Wrong != got.TotalAttempts {
		t.Errorf("correct(%d) + wrong(%d) != total(%d)", got.Correct, got.Wrong, got.TotalAttempts)
	}
}

func TestAggregate_EmptyIsZero(t *testing.T) {
	node := &curriculum.Node{ID: "n"}

	got := stats.Aggregate(node, nil)
	if got.TotalAttempts != 0 || got.AccuracyPct != 0 {
		t.Errorf("Aggregate(empty) = %+v, want zeros", got)
	}
}

func TestAggregate_Rounding(t *testing.T) {
	node := &curriculum.Node{ID: "n"}
	attempts := []attempt.Record{
		{QuestionID: "q1", IsCorrect: true},
		{QuestionID: "q2", IsCorrect: true},
		{QuestionID: "q3", IsCorrect: false},
	}

	got := stats.Aggregate(node, attempts)
	if got.AccuracyPct != 67 {
		t.Errorf("AccuracyPct = %d, want 67 (round(66.67))", got.AccuracyPct)
	}
}

func TestAggregate_NilNodeWarnsOncePerAggregation(t *testing.T) {
	var buf bytes.Buffer
	old := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(old)

	attempts := []attempt.Record{
		{QuestionID: "q1", IsCorrect: true},
		{QuestionID: "q2", IsCorrect: false},
		{QuestionID: "q3", IsCorrect: true},
	}

	got := stats.Aggregate(nil, attempts)
	if got.TotalAttempts != 3 {
		t.Errorf("TotalAttempts = %d, want 3 (nil node degrades to wildcard)", got.TotalAttempts)
	}
	if n := strings.Count(buf.String(), "treating as wildcard"); n != 1 {
		t.Errorf("wildcard warning logged %d times for %d attempts, want once", n, len(attempts))
	}
}

func TestAggregateTree_DisciplineNotSumOfChildren(t *testing.T) {
	// The discipline's broad group matches an attempt no topic matches.
	tree := curriculum.NewTree([]curriculum.Node{
		{ID: "law", FilterGroups: []curriculum.FilterGroup{{Subjects: []string{"Law"}}}},
		{ID: "budget", ParentID: "law", FilterGroups: []curriculum.FilterGroup{
			{Subjects: []string{"Law"}, Topics: []string{"Budget"}},
		}},
	})

	attempts := []attempt.Record{
		{QuestionID: "q1", Subjects: []string{"Law"}, Topics: []string{"Budget"}, IsCorrect: true},
		{QuestionID: "q2", Subjects: []string{"Law"}, Topics: []string{"Contracts"}, IsCorrect: false},
	}

	got := stats.AggregateTree(tree, attempts)
	if got["law"].TotalAttempts != 2 {
		t.Errorf("discipline total = %d, want 2", got["law"].TotalAttempts)
	}
	if got["budget"].TotalAttempts != 1 {
		t.Errorf("topic total = %d, want 1", got["budget"].TotalAttempts)
	}
}

func TestAggregateTree_CoversEveryNode(t *testing.T) {
	tree := curriculum.NewTree([]curriculum.Node{
		{ID: "a"},
		{ID: "b", ParentID: "a"},
		{ID: "c", ParentID: "b"},
	})

	got := stats.AggregateTree(tree, nil)
	if len(got) != 3 {
		t.Fatalf("AggregateTree() covered %d nodes, want 3", len(got))
	}
	for id, st := range got {
		if st.NodeID != id {
			t.Errorf("stats for %q carries node id %q", id, st.NodeID)
		}
	}
}
