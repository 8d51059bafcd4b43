package assessment

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// BlockedError is a gating outcome from submission: the backend refused
// the attempt for a reason the student must act on (402 payment due,
// 403 precondition not met). It is expected control flow, not a fault.
type BlockedError struct {
	Code    int
	Message string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("attempt blocked (%d): %s", e.Code, e.Message)
}

// Submission is the payload posted for one attempt, with the provisional
// numbers kept alongside for the local journal.
type Submission struct {
	AttemptID string
	LessonID  string
	Answers   []SelectedAnswer

	LocalPoints  int
	LocalPercent int
	Total        int
}

// Submission builds the payload for this attempt from recorded answers.
func (s *Session) Submission() Submission {
	return Submission{
		AttemptID:    s.ID,
		LessonID:     s.LessonID,
		Answers:      s.SelectedAnswers(),
		LocalPoints:  s.LocalScore(),
		LocalPercent: s.LocalPercent(),
		Total:        len(s.Questions),
	}
}

// Submitter posts an attempt to the backend. The API client implements
// it; a blocked outcome surfaces as *BlockedError.
type Submitter interface {
	SubmitAttempt(ctx context.Context, sub Submission) (*Result, error)
}

// JournalEntry is the locally recorded trace of one attempt.
type JournalEntry struct {
	AttemptID string
	LessonID  string
	Points    int
	Percent   int
	Total     int
	Synced    bool
}

// Journal persists attempts and queues submissions that failed to save.
type Journal interface {
	RecordAttempt(ctx context.Context, entry JournalEntry) error
	EnqueuePending(ctx context.Context, sub Submission) error
	RemovePending(ctx context.Context, attemptID string) error
}

// OutcomeKind classifies what a submission attempt produced.
type OutcomeKind int

const (
	// OutcomeGraded means the backend accepted and scored the attempt.
	OutcomeGraded OutcomeKind = iota
	// OutcomeBlocked means a gating refusal (402/403): message the
	// student and route back, no score persisted.
	OutcomeBlocked
	// OutcomeSaveFailed means no endpoint took the submission; the
	// provisional score stands and the save can be retried.
	OutcomeSaveFailed
)

// Outcome is the interpreted end of one submission attempt.
type Outcome struct {
	Kind    OutcomeKind
	Result  *Result
	Code    int
	Message string
	Err     error
}

// Engine turns a submission into an outcome: post, interpret, journal.
// It performs I/O only; the caller applies the outcome to the session on
// the event loop.
type Engine struct {
	submitter Submitter
	journal   Journal
	log       *zap.Logger
}

func NewEngine(submitter Submitter, journal Journal, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{submitter: submitter, journal: journal, log: log}
}

// Submit posts one attempt and interprets the response.
func (e *Engine) Submit(ctx context.Context, sub Submission) Outcome {
	res, err := e.submitter.SubmitAttempt(ctx, sub)
	if err == nil {
		e.recordGraded(ctx, sub, res)
		return Outcome{Kind: OutcomeGraded, Result: res}
	}

	var blocked *BlockedError
	if errors.As(err, &blocked) {
		e.log.Info("attempt blocked",
			zap.String("lesson", sub.LessonID),
			zap.Int("code", blocked.Code))
		return Outcome{Kind: OutcomeBlocked, Code: blocked.Code, Message: blocked.Message, Err: err}
	}

	e.log.Warn("attempt save failed",
		zap.String("lesson", sub.LessonID),
		zap.Error(err))
	if e.journal != nil {
		if jerr := e.journal.EnqueuePending(ctx, sub); jerr != nil {
			e.log.Warn("enqueue pending submission", zap.Error(jerr))
		}
		_ = e.journal.RecordAttempt(ctx, JournalEntry{
			AttemptID: sub.AttemptID,
			LessonID:  sub.LessonID,
			Points:    sub.LocalPoints,
			Percent:   sub.LocalPercent,
			Total:     sub.Total,
			Synced:    false,
		})
	}
	return Outcome{Kind: OutcomeSaveFailed, Err: err}
}

func (e *Engine) recordGraded(ctx context.Context, sub Submission, res *Result) {
	if e.journal == nil {
		return
	}
	_ = e.journal.RemovePending(ctx, sub.AttemptID)
	if err := e.journal.RecordAttempt(ctx, JournalEntry{
		AttemptID: sub.AttemptID,
		LessonID:  sub.LessonID,
		Points:    res.Correct * PointsPerQuestion,
		Percent:   res.ScorePercent,
		Total:     res.Total,
		Synced:    true,
	}); err != nil {
		e.log.Warn("record attempt", zap.Error(err))
	}
}
