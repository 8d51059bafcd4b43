package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/azizbek/lektor/internal/assessment"
)

// ErrNotFound means the requested course or lesson does not exist on any
// candidate endpoint.
var ErrNotFound = errors.New("not found")

// Client exposes the typed operations the core needs. Every call goes
// through the resolver's candidate walk.
type Client struct {
	res *Resolver
}

func NewClient(res *Resolver) *Client {
	return &Client{res: res}
}

// Course fetches the course detail with its lessons and their progress.
func (c *Client) Course(ctx context.Context, courseID string) (*Course, error) {
	var raw rawCourse
	if err := c.res.GetJSON(ctx, "/courses/"+courseID, &raw); err != nil {
		return nil, mapFetchError("course", err)
	}
	course := raw.normalize()
	return &course, nil
}

// Lesson fetches one lesson's detail.
func (c *Client) Lesson(ctx context.Context, lessonID string) (*Lesson, error) {
	var raw rawLesson
	if err := c.res.GetJSON(ctx, "/lessons/"+lessonID, &raw); err != nil {
		return nil, mapFetchError("lesson", err)
	}
	lesson := raw.normalize()
	return &lesson, nil
}

// QuizPool fetches the full MCQ set for a lesson. The payload is
// schema-checked before normalization; questions missing text or options
// are dropped rather than failing the whole pool.
func (c *Client) QuizPool(ctx context.Context, lessonID string) ([]assessment.Question, error) {
	var raw json.RawMessage
	if err := c.res.GetJSON(ctx, "/lessons/"+lessonID+"/quiz", &raw); err != nil {
		return nil, mapFetchError("quiz", err)
	}

	// Some backend versions wrap the pool in {questions: [...]}.
	var wrapper struct {
		Questions json.RawMessage `json:"questions"`
	}
	if err := json.Unmarshal(raw, &wrapper); err == nil && len(wrapper.Questions) > 0 {
		raw = wrapper.Questions
	}

	if err := validateQuizPool(raw); err != nil {
		return nil, err
	}

	var rawQs []rawQuestion
	if err := json.Unmarshal(raw, &rawQs); err != nil {
		return nil, fmt.Errorf("decode quiz pool: %w", err)
	}

	var pool []assessment.Question
	for i, rq := range rawQs {
		if q, ok := rq.normalize(i); ok {
			pool = append(pool, q)
		}
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("quiz pool for lesson %s has no usable questions", lessonID)
	}
	return pool, nil
}

// submitBody is the wire shape of an attempt submission.
type submitBody struct {
	LessonID string         `json:"lessonId"`
	Answers  []submitAnswer `json:"answers"`
}

type submitAnswer struct {
	QuestionRef string `json:"questionRef"`
	Selected    string `json:"selected"`
}

// SubmitAttempt posts one attempt. Gating refusals (402/403) come back
// as *assessment.BlockedError; anything else after the candidate walk is
// a save failure the caller may retry.
func (c *Client) SubmitAttempt(ctx context.Context, sub assessment.Submission) (*assessment.Result, error) {
	body := submitBody{LessonID: sub.LessonID}
	for _, a := range sub.Answers {
		body.Answers = append(body.Answers, submitAnswer{
			QuestionRef: a.QuestionRef,
			Selected:    a.Selected,
		})
	}

	var raw rawResult
	err := c.res.PostJSON(ctx, "/lessons/"+sub.LessonID+"/quiz/attempts", body, &raw)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && (se.Code == http.StatusPaymentRequired || se.Code == http.StatusForbidden) {
			msg := se.Message
			if msg == "" {
				msg = http.StatusText(se.Code)
			}
			return nil, &assessment.BlockedError{Code: se.Code, Message: msg}
		}
		return nil, err
	}

	res := raw.normalize()
	return &res, nil
}

// mapFetchError turns resolver failures into the errors the screens
// branch on: 404 becomes ErrNotFound, and the gating statuses (402/403)
// become *assessment.BlockedError so payment-gated content routes back
// with the backend's message instead of a raw HTTP error.
func mapFetchError(what string, err error) error {
	var se *StatusError
	if errors.As(err, &se) {
		switch se.Code {
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w", what, ErrNotFound)
		case http.StatusPaymentRequired, http.StatusForbidden:
			msg := se.Message
			if msg == "" {
				msg = http.StatusText(se.Code)
			}
			return &assessment.BlockedError{Code: se.Code, Message: msg}
		}
	}
	return fmt.Errorf("fetch %s: %w", what, err)
}
