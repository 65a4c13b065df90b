package attempt_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/prepdesk/progress-engine/internal/attempt"
)

var baseTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func rec(student, question string, correct bool, at time.Time, table attempt.Table) attempt.Record {
	return attempt.Record{
		StudentID:  student,
		QuestionID: question,
		IsCorrect:  correct,
		OccurredAt: at,
		Source:     table,
	}
}

func TestDedupe_MostRecentWins(t *testing.T) {
	records := []attempt.Record{
		rec("s1", "q1", false, baseTime, attempt.TableLegacy),
		rec("s1", "q1", true, baseTime.Add(time.Hour), attempt.TableLegacy),
	}

	got := attempt.Dedupe(records)
	if len(got) != 1 {
		t.Fatalf("Dedupe() returned %d records, want 1", len(got))
	}
	if !got[0].IsCorrect {
		t.Error("Dedupe() kept the older attempt, want the most recent")
	}
}

func TestDedupe_EqualTimestampPrefersCurrent(t *testing.T) {
	records := []attempt.Record{
		rec("s1", "q1", false, baseTime, attempt.TableLegacy),
		rec("s1", "q1", true, baseTime, attempt.TableCurrent),
	}

	got := attempt.Dedupe(records)
	if len(got) != 1 {
		t.Fatalf("Dedupe() returned %d records, want 1", len(got))
	}
	if got[0].Source != attempt.TableCurrent {
		t.Errorf("Dedupe() kept source %v, want current on timestamp tie", got[0].Source)
	}
}

func TestDedupe_CurrentNotDemotedOnTie(t *testing.T) {
	// Reverse arrival order of the tie: current first, legacy second.
	records := []attempt.Record{
		rec("s1", "q1", true, baseTime, attempt.TableCurrent),
		rec("s1", "q1", false, baseTime, attempt.TableLegacy),
	}

	got := attempt.Dedupe(records)
	if got[0].Source != attempt.TableCurrent {
		t.Errorf("Dedupe() replaced current with legacy on timestamp tie")
	}
}

func TestDedupe_DistinctKeysUntouched(t *testing.T) {
	records := []attempt.Record{
		rec("s1", "q1", true, baseTime, attempt.TableLegacy),
		rec("s1", "q2", false, baseTime, attempt.TableLegacy),
		rec("s2", "q1", false, baseTime, attempt.TableLegacy),
	}

	got := attempt.Dedupe(records)
	if len(got) != 3 {
		t.Errorf("Dedupe() returned %d records, want 3", len(got))
	}
}

func TestDedupe_Idempotent(t *testing.T) {
	records := []attempt.Record{
		rec("s1", "q1", false, baseTime, attempt.TableLegacy),
		rec("s1", "q2", true, baseTime.Add(time.Minute), attempt.TableLegacy),
		rec("s1", "q1", true, baseTime.Add(2*time.Minute), attempt.TableCurrent),
		rec("s1", "q3", false, baseTime, attempt.TableCurrent),
	}

	once := attempt.Dedupe(records)
	twice := attempt.Dedupe(once)

	if len(once) != len(twice) {
		t.Fatalf("Dedupe(Dedupe(a)) has %d records, Dedupe(a) has %d", len(twice), len(once))
	}
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Dedupe(Dedupe(a)) = %+v, want %+v", twice, once)
	}
}

func TestDedupe_Empty(t *testing.T) {
	if got := attempt.Dedupe(nil); len(got) != 0 {
		t.Errorf("Dedupe(nil) = %d records, want 0", len(got))
	}
}
