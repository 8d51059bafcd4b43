package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/azizbek/lektor/internal/api"
	"github.com/azizbek/lektor/internal/config"
	"github.com/azizbek/lektor/internal/identity"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration, token, and backend reachability",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// Token first: a bad token makes every probe lie.
		if cfg.Token == "" {
			fmt.Println("✗ token: LEKTOR_TOKEN is not set")
		} else if student, err := identity.FromToken(cfg.Token, time.Now()); err != nil {
			fmt.Println("✗ token:", err)
		} else if !student.Valid(time.Now()) {
			fmt.Printf("✗ token: expired %s\n", student.ExpiresAt.Format(time.RFC3339))
		} else {
			fmt.Printf("✓ token: %s (expires %s)\n", student.Name, student.ExpiresAt.Format(time.RFC3339))
		}

		if dir, err := config.StateDir(); err == nil {
			fmt.Println("  state:", dir)
		}

		// Probe each endpoint candidate in retry order. Any HTTP answer
		// counts as reachable; only a transport failure does not.
		httpClient := &http.Client{Timeout: cfg.RequestTimeout}
		candidates := api.Candidates(cfg.Bases, cfg.Prefixes)
		fmt.Printf("\nProbing %d endpoint candidates:\n", len(candidates))
		reachable := 0
		for _, cand := range candidates {
			url := cand.URL("/courses/" + cfg.CourseID)
			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodGet, url, nil)
			if err != nil {
				fmt.Printf("✗ %s: %v\n", url, err)
				continue
			}
			if cfg.Token != "" {
				req.Header.Set("Authorization", "Bearer "+cfg.Token)
			}
			resp, err := httpClient.Do(req)
			if err != nil {
				fmt.Printf("✗ %s: %v\n", url, err)
				continue
			}
			resp.Body.Close()
			reachable++
			mark := "✓"
			if resp.StatusCode >= 400 {
				mark = "!"
			}
			fmt.Printf("%s %s: %s\n", mark, url, resp.Status)
		}

		if reachable == 0 {
			return fmt.Errorf("no endpoint candidate answered")
		}
		return nil
	},
}
