package api

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/azizbek/lektor/internal/assessment"
	"github.com/azizbek/lektor/internal/catalog"
	"github.com/azizbek/lektor/internal/progress"
)

// The backend returns the same concepts under different key names
// depending on the endpoint and its version. Each raw type below admits
// every spelling seen in the wild and normalizes exactly once, here, so
// the rest of the client never deals with shape variance.

// flexID tolerates numeric and string identifiers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = []byte(strings.TrimSpace(string(data)))
	if len(data) == 0 || string(data) == "null" {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// rawFile admits the file-reference spellings: name/title for the
// label, path/file/url for the locator.
type rawFile struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Path  string `json:"path"`
	File  string `json:"file"`
	URL   string `json:"url"`
}

func (f rawFile) ref() catalog.FileRef {
	name := f.Name
	if name == "" {
		name = f.Title
	}
	path := f.Path
	if path == "" {
		path = f.File
	}
	if path == "" {
		path = f.URL
	}
	return catalog.FileRef{Name: name, Path: path}
}

// rawProgress admits both camelCase and snake_case progress fields.
type rawProgress struct {
	Status           string `json:"status"`
	AttemptsUsed     int    `json:"attemptsUsed"`
	AttemptsUsedAlt  int    `json:"attempts_used"`
	LastScorePercent int    `json:"lastScorePercent"`
	LastScoreAlt     int    `json:"last_score_percent"`
}

func (p rawProgress) view(lessonID string) progress.LessonProgress {
	attempts := p.AttemptsUsed
	if attempts == 0 {
		attempts = p.AttemptsUsedAlt
	}
	score := p.LastScorePercent
	if score == 0 {
		score = p.LastScoreAlt
	}
	return progress.LessonProgress{
		LessonID:         lessonID,
		Status:           progress.ParseStatus(p.Status),
		AttemptsUsed:     attempts,
		LastScorePercent: score,
	}
}

// rawLesson admits every lesson shape the backend serves.
type rawLesson struct {
	ID    flexID `json:"id"`
	Title string `json:"title"`
	Name  string `json:"name"`

	Video     string `json:"video"`
	VideoFile string `json:"videoFile"`
	VideoURL  string `json:"videoUrl"`
	VideoName string `json:"videoName"`

	Materials  []rawFile `json:"materials"`
	NotesFiles []rawFile `json:"notesFiles"`
	Notes      *struct {
		Files []rawFile `json:"files"`
	} `json:"notes"`
	TaskFiles []rawFile `json:"taskFiles"`

	CaseStudyFile string   `json:"caseStudyFile"`
	CaseStudy     *rawFile `json:"caseStudy"`

	QuizCount int  `json:"quizCount"`
	HasQuiz   bool `json:"hasQuiz"`

	Status   string       `json:"status"`
	Progress *rawProgress `json:"progress"`
}

// Lesson is the normalized lesson detail the client works with.
type Lesson struct {
	ID       string
	Title    string
	Content  catalog.LessonContent
	HasQuiz  bool
	Progress progress.LessonProgress
}

// HasCaseStudy reports whether a case-study file is configured.
func (l Lesson) HasCaseStudy() bool {
	return l.Content.CaseStudy != nil && l.Content.CaseStudy.Path != ""
}

func (r rawLesson) normalize() Lesson {
	title := r.Title
	if title == "" {
		title = r.Name
	}

	video := r.Video
	if video == "" {
		video = r.VideoFile
	}
	if video == "" {
		video = r.VideoURL
	}

	content := catalog.LessonContent{
		VideoURL:  video,
		VideoName: r.VideoName,
	}
	for _, f := range r.Materials {
		content.Materials = append(content.Materials, f.ref())
	}
	notes := r.NotesFiles
	if len(notes) == 0 && r.Notes != nil {
		notes = r.Notes.Files
	}
	for _, f := range notes {
		content.NotesFiles = append(content.NotesFiles, f.ref())
	}
	for _, f := range r.TaskFiles {
		content.TaskFiles = append(content.TaskFiles, f.ref())
	}

	if r.CaseStudyFile != "" {
		content.CaseStudy = &catalog.FileRef{Path: r.CaseStudyFile}
	} else if r.CaseStudy != nil {
		ref := r.CaseStudy.ref()
		if ref.Path != "" {
			content.CaseStudy = &ref
		}
	}

	lesson := Lesson{
		ID:      string(r.ID),
		Title:   title,
		Content: content,
		HasQuiz: r.HasQuiz || r.QuizCount > 0,
	}
	if r.Progress != nil {
		lesson.Progress = r.Progress.view(lesson.ID)
	} else {
		lesson.Progress = rawProgress{Status: r.Status}.view(lesson.ID)
	}
	return lesson
}

// rawCourse admits the course-detail shapes.
type rawCourse struct {
	ID      flexID      `json:"id"`
	Title   string      `json:"title"`
	Name    string      `json:"name"`
	Lessons []rawLesson `json:"lessons"`
	Data    *struct {
		Lessons []rawLesson `json:"lessons"`
	} `json:"data"`
}

// Course is the normalized course detail.
type Course struct {
	ID      string
	Title   string
	Lessons []Lesson
}

func (r rawCourse) normalize() Course {
	title := r.Title
	if title == "" {
		title = r.Name
	}
	lessons := r.Lessons
	if len(lessons) == 0 && r.Data != nil {
		lessons = r.Data.Lessons
	}
	c := Course{ID: string(r.ID), Title: title}
	for _, l := range lessons {
		c.Lessons = append(c.Lessons, l.normalize())
	}
	return c
}

// rawQuestion admits the MCQ spellings.
type rawQuestion struct {
	ID       flexID   `json:"id"`
	Question string   `json:"question"`
	Text     string   `json:"text"`
	Options  []string `json:"options"`
	Answers  []string `json:"answers"`

	CorrectAnswer string `json:"correctAnswer"`
	CorrectAlt    string `json:"correct_answer"`
}

func (r rawQuestion) normalize(fallbackRef int) (assessment.Question, bool) {
	text := r.Question
	if text == "" {
		text = r.Text
	}
	options := r.Options
	if len(options) == 0 {
		options = r.Answers
	}
	correct := r.CorrectAnswer
	if correct == "" {
		correct = r.CorrectAlt
	}
	if text == "" || len(options) == 0 {
		return assessment.Question{}, false
	}

	ref := string(r.ID)
	if ref == "" {
		ref = strconv.Itoa(fallbackRef)
	}
	return assessment.Question{
		Ref:     ref,
		Text:    text,
		Options: options,
		Correct: correct,
	}, true
}

// rawResult admits the submission-response spellings.
type rawResult struct {
	Correct      int   `json:"correct"`
	Total        int   `json:"total"`
	ScorePercent int   `json:"scorePercent"`
	ScoreAlt     int   `json:"score_percent"`
	Passed       *bool `json:"passed"`
	AttemptsUsed int   `json:"attemptsUsed"`
	MaxAttempts  int   `json:"maxAttempts"`
}

func (r rawResult) normalize() assessment.Result {
	percent := r.ScorePercent
	if percent == 0 {
		percent = r.ScoreAlt
	}
	return assessment.Result{
		Correct:      r.Correct,
		Total:        r.Total,
		ScorePercent: percent,
		Passed:       r.Passed,
		AttemptsUsed: r.AttemptsUsed,
		MaxAttempts:  r.MaxAttempts,
	}
}
