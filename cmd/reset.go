package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/azizbek/lektor/internal/store"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear local attempt history and queued submissions",
	Long: `Delete the locally journaled quiz attempts and any submissions still
waiting to sync. Scores already saved on the backend are untouched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			return fmt.Errorf("this deletes local attempt history; re-run with --yes to confirm")
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

		if err := st.Reset(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("Local data cleared.")
		return nil
	},
}

func init() {
	resetCmd.Flags().Bool("yes", false, "Skip the confirmation")
}
