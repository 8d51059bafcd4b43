package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/azizbek/lektor/internal/api"
	"github.com/azizbek/lektor/internal/app"
	"github.com/azizbek/lektor/internal/assessment"
	"github.com/azizbek/lektor/internal/coach"
	"github.com/azizbek/lektor/internal/config"
	"github.com/azizbek/lektor/internal/identity"
	"github.com/azizbek/lektor/internal/llm"
	"github.com/azizbek/lektor/internal/logging"
	"github.com/azizbek/lektor/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "lektor",
	Short: "Terminal client for campus courses",
	Long:  "Lektor — terminal client for following lessons, viewing materials, and taking quizzes in a campus course.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides the default state path)")
	rootCmd.PersistentFlags().String("course", "", "Course ID to open (overrides LEKTOR_COURSE_ID)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(doctorCmd)
}

// runApp loads configuration, opens the store, wires the API client and
// assessment engine, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c, _ := cmd.Flags().GetString("course"); c != "" {
		cfg.CourseID = c
	}
	if cfg.CourseID == "" {
		return fmt.Errorf("no course selected: set LEKTOR_COURSE_ID or pass --course")
	}

	debug, _ := cmd.Flags().GetBool("debug")
	log, err := logging.New(debug)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer log.Sync()

	student, err := identity.FromToken(cfg.Token, time.Now())
	if err != nil {
		return fmt.Errorf("access token: %w", err)
	}
	if !student.Valid(time.Now()) {
		return fmt.Errorf("access token has expired; sign in again and update LEKTOR_TOKEN")
	}

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	resolver := api.NewResolver(api.Candidates(cfg.Bases, cfg.Prefixes), cfg.Token, cfg.RequestTimeout, log)
	client := api.NewClient(resolver)
	engine := assessment.NewEngine(client, st, log)

	// The coach is optional — the app runs fine without it.
	var tutor *coach.Coach
	provider, err := llm.NewProvider(cmd.Context(), llm.ConfigFromEnv())
	if err != nil {
		fmt.Fprintln(os.Stderr, "Coach provider not configured:", err)
		fmt.Fprintln(os.Stderr, "Answer explanations will be unavailable.")
	} else if provider != nil {
		tutor = coach.New(provider, coach.DefaultConfig())
	}

	return app.Run(app.Options{
		Client:  client,
		Store:   st,
		Engine:  engine,
		Coach:   tutor,
		Student: student,
		Config:  cfg,
		Log:     log,
	})
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then LEKTOR_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if p := os.Getenv("LEKTOR_DB"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
