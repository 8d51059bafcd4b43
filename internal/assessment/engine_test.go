package assessment

import (
	"context"
	"errors"
	"testing"
)

type stubSubmitter struct {
	result *Result
	err    error
	calls  int
}

func (s *stubSubmitter) SubmitAttempt(_ context.Context, _ Submission) (*Result, error) {
	s.calls++
	return s.result, s.err
}

type stubJournal struct {
	recorded []JournalEntry
	pending  map[string]Submission
}

func newStubJournal() *stubJournal {
	return &stubJournal{pending: make(map[string]Submission)}
}

func (j *stubJournal) RecordAttempt(_ context.Context, e JournalEntry) error {
	j.recorded = append(j.recorded, e)
	return nil
}

func (j *stubJournal) EnqueuePending(_ context.Context, sub Submission) error {
	j.pending[sub.AttemptID] = sub
	return nil
}

func (j *stubJournal) RemovePending(_ context.Context, attemptID string) error {
	delete(j.pending, attemptID)
	return nil
}

func TestEngineSubmit_Graded(t *testing.T) {
	passed := true
	sub := &stubSubmitter{result: &Result{Correct: 8, Total: 10, ScorePercent: 80, Passed: &passed}}
	journal := newStubJournal()
	eng := NewEngine(sub, journal, nil)

	out := eng.Submit(context.Background(), Submission{AttemptID: "a1", LessonID: "l1", Total: 10})

	if out.Kind != OutcomeGraded {
		t.Fatalf("Kind = %v, want OutcomeGraded", out.Kind)
	}
	if out.Result.ScorePercent != 80 {
		t.Errorf("ScorePercent = %d, want 80", out.Result.ScorePercent)
	}
	if len(journal.recorded) != 1 || !journal.recorded[0].Synced {
		t.Errorf("graded attempt not journaled as synced: %+v", journal.recorded)
	}
}

func TestEngineSubmit_BlockedNotJournaled(t *testing.T) {
	sub := &stubSubmitter{err: &BlockedError{Code: 402, Message: "Payment required"}}
	journal := newStubJournal()
	eng := NewEngine(sub, journal, nil)

	out := eng.Submit(context.Background(), Submission{AttemptID: "a1", LessonID: "l1"})

	if out.Kind != OutcomeBlocked {
		t.Fatalf("Kind = %v, want OutcomeBlocked", out.Kind)
	}
	if out.Code != 402 || out.Message != "Payment required" {
		t.Errorf("Code/Message = %d/%q, want 402/Payment required", out.Code, out.Message)
	}
	if len(journal.recorded) != 0 {
		t.Error("blocked outcome must not persist a score")
	}
	if len(journal.pending) != 0 {
		t.Error("blocked outcome must not queue a retry")
	}
}

func TestEngineSubmit_SaveFailedQueuesPending(t *testing.T) {
	sub := &stubSubmitter{err: errors.New("all endpoints failed")}
	journal := newStubJournal()
	eng := NewEngine(sub, journal, nil)

	out := eng.Submit(context.Background(), Submission{
		AttemptID: "a1", LessonID: "l1", LocalPoints: 12, LocalPercent: 60, Total: 10,
	})

	if out.Kind != OutcomeSaveFailed {
		t.Fatalf("Kind = %v, want OutcomeSaveFailed", out.Kind)
	}
	if _, ok := journal.pending["a1"]; !ok {
		t.Error("failed save not queued for retry")
	}
	if len(journal.recorded) != 1 || journal.recorded[0].Synced {
		t.Errorf("failed save should journal an unsynced attempt: %+v", journal.recorded)
	}
	if journal.recorded[0].Points != 12 {
		t.Errorf("journaled points = %d, want provisional 12", journal.recorded[0].Points)
	}
}

func TestEngineSubmit_GradedClearsPending(t *testing.T) {
	journal := newStubJournal()
	journal.pending["a1"] = Submission{AttemptID: "a1"}
	sub := &stubSubmitter{result: &Result{Correct: 5, Total: 10, ScorePercent: 50}}
	eng := NewEngine(sub, journal, nil)

	eng.Submit(context.Background(), Submission{AttemptID: "a1", LessonID: "l1"})

	if len(journal.pending) != 0 {
		t.Error("successful save left the pending entry behind")
	}
}
