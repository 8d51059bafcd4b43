package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azizbek/lektor/internal/assessment"
	"github.com/azizbek/lektor/internal/progress"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	res := NewResolver(Candidates([]string{srv.URL}, []string{"/api"}), "", 5*time.Second, nil)
	return NewClient(res)
}

func TestQuizPool_Normalizes(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/lessons/l1/quiz", r.URL.Path)
		w.Write([]byte(`[
			{"id": 1, "question": "2+2?", "options": ["3", "4"], "correctAnswer": "4"},
			{"id": "q2", "text": "3+3?", "answers": ["5", "6"], "correct_answer": "6"}
		]`))
	}))

	pool, err := c.QuizPool(context.Background(), "l1")

	require.NoError(t, err)
	require.Len(t, pool, 2)
	assert.Equal(t, assessment.Question{Ref: "1", Text: "2+2?", Options: []string{"3", "4"}, Correct: "4"}, pool[0])
	assert.Equal(t, assessment.Question{Ref: "q2", Text: "3+3?", Options: []string{"5", "6"}, Correct: "6"}, pool[1])
}

func TestQuizPool_WrappedShape(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"questions": [{"question": "q", "options": ["a", "b"], "correctAnswer": "a"}]}`))
	}))

	pool, err := c.QuizPool(context.Background(), "l1")

	require.NoError(t, err)
	require.Len(t, pool, 1)
}

func TestQuizPool_SchemaRejectsGarbage(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"question": "no options here"}]`))
	}))

	_, err := c.QuizPool(context.Background(), "l1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "quiz payload rejected")
}

func TestQuizPool_PaymentRequired(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"message": "course access expired"}`))
	}))

	_, err := c.QuizPool(context.Background(), "l1")

	var blocked *assessment.BlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, http.StatusPaymentRequired, blocked.Code)
	assert.Equal(t, "course access expired", blocked.Message)
}

func TestSubmitAttempt_Graded(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.Write([]byte(`{"correct": 6, "total": 10, "scorePercent": 60, "passed": false, "attemptsUsed": 1, "maxAttempts": 3}`))
	}))

	res, err := c.SubmitAttempt(context.Background(), assessment.Submission{LessonID: "l1"})

	require.NoError(t, err)
	assert.Equal(t, 6, res.Correct)
	assert.Equal(t, 60, res.ScorePercent)
	require.NotNil(t, res.Passed)
	assert.False(t, *res.Passed)
}

func TestSubmitAttempt_PaymentRequired(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"message": "Payment required"}`))
	}))

	_, err := c.SubmitAttempt(context.Background(), assessment.Submission{LessonID: "l1"})

	var blocked *assessment.BlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, http.StatusPaymentRequired, blocked.Code)
	assert.Equal(t, "Payment required", blocked.Message)
}

func TestSubmitAttempt_Forbidden(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message": "Previous lesson incomplete"}`))
	}))

	_, err := c.SubmitAttempt(context.Background(), assessment.Submission{LessonID: "l1"})

	var blocked *assessment.BlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, http.StatusForbidden, blocked.Code)
}

func TestLesson_NotFound(t *testing.T) {
	c := testClient(t, http.NotFoundHandler())

	_, err := c.Lesson(context.Background(), "missing")

	require.ErrorIs(t, err, ErrNotFound)
}

func TestNormalizeLesson_AlternateKeys(t *testing.T) {
	raw := rawLesson{
		ID:        "7",
		Name:      "Interest rates",
		VideoFile: "intro.mp4",
		Notes: &struct {
			Files []rawFile `json:"files"`
		}{Files: []rawFile{{Title: "Summary", File: "/uploads/summary.docx"}}},
		CaseStudy: &rawFile{File: "case.pptx"},
		QuizCount: 12,
		Status:    "available",
	}

	lesson := raw.normalize()

	assert.Equal(t, "7", lesson.ID)
	assert.Equal(t, "Interest rates", lesson.Title)
	assert.Equal(t, "intro.mp4", lesson.Content.VideoURL)
	require.Len(t, lesson.Content.NotesFiles, 1)
	assert.Equal(t, "Summary", lesson.Content.NotesFiles[0].Name)
	require.True(t, lesson.HasCaseStudy())
	assert.True(t, lesson.HasQuiz)
	assert.Equal(t, progress.StatusAvailable, lesson.Progress.Status)
}

func TestNormalizeCourse_DataWrapper(t *testing.T) {
	raw := rawCourse{
		ID:    "c1",
		Title: "Banking basics",
		Data: &struct {
			Lessons []rawLesson `json:"lessons"`
		}{Lessons: []rawLesson{{ID: "1", Title: "One"}, {ID: "2", Title: "Two"}}},
	}

	course := raw.normalize()

	require.Len(t, course.Lessons, 2)
	assert.Equal(t, "One", course.Lessons[0].Title)
}

func TestNormalizeProgress_SnakeCase(t *testing.T) {
	p := rawProgress{Status: "payment_required", AttemptsUsedAlt: 2, LastScoreAlt: 40}

	view := p.view("l1")

	assert.Equal(t, progress.StatusPaymentRequired, view.Status)
	assert.Equal(t, 2, view.AttemptsUsed)
	assert.Equal(t, 40, view.LastScorePercent)
}
