package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the client needs to talk to a campus backend.
// It is assembled once at startup and passed down; nothing reads the
// environment after Load returns.
type Config struct {
	// Bases is the ordered list of API base URLs to try. The first
	// candidate that answers a request wins.
	Bases []string

	// Prefixes is the ordered list of API version prefixes paired with
	// each base ("/api", "/api/v1", ...).
	Prefixes []string

	// FilesBase is the root URL that relative content references
	// (uploads, lesson files) are resolved against.
	FilesBase string

	// Token is the student's access token, sent as a Bearer header.
	Token string

	// CourseID selects the course to open on startup.
	CourseID string

	// QuizDuration is the assessment countdown length.
	QuizDuration time.Duration

	// RequestTimeout bounds a single HTTP attempt.
	RequestTimeout time.Duration

	// CoachProvider selects the optional explanation provider
	// ("anthropic", "openai", "gemini", ""). Empty disables the coach.
	CoachProvider string
}

// Defaults that match the backend's conventions.
const (
	DefaultQuizDuration   = 10 * time.Minute
	DefaultRequestTimeout = 15 * time.Second
)

// Load builds a Config from the environment. A .env file in the working
// directory is read first when present; real environment variables win.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Bases:          splitList(os.Getenv("LEKTOR_API_URLS")),
		Prefixes:       splitList(os.Getenv("LEKTOR_API_PREFIXES")),
		FilesBase:      strings.TrimRight(os.Getenv("LEKTOR_FILES_URL"), "/"),
		Token:          os.Getenv("LEKTOR_TOKEN"),
		CourseID:       os.Getenv("LEKTOR_COURSE_ID"),
		QuizDuration:   DefaultQuizDuration,
		RequestTimeout: DefaultRequestTimeout,
		CoachProvider:  os.Getenv("LEKTOR_COACH_PROVIDER"),
	}

	if len(cfg.Bases) == 0 {
		return cfg, fmt.Errorf("LEKTOR_API_URLS is not set")
	}
	if len(cfg.Prefixes) == 0 {
		cfg.Prefixes = []string{"/api", "/api/v1"}
	}
	if cfg.FilesBase == "" {
		cfg.FilesBase = strings.TrimRight(cfg.Bases[0], "/")
	}

	if v := os.Getenv("LEKTOR_QUIZ_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return cfg, fmt.Errorf("LEKTOR_QUIZ_SECONDS: invalid value %q", v)
		}
		cfg.QuizDuration = time.Duration(secs) * time.Second
	}
	return cfg, nil
}

// splitList parses a comma-separated list, trimming blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, strings.TrimRight(part, "/"))
		}
	}
	return out
}

// StateDir resolves the per-user state directory:
// $XDG_STATE_HOME/lektor, falling back to ~/.local/state/lektor.
func StateDir() (string, error) {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	dir := filepath.Join(stateHome, "lektor")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create state dir: %w", err)
	}
	return dir, nil
}
