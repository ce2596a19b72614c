package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/SignalEngine/internal/database"
)

var similarLimit int

var similarCmd = &cobra.Command{
	Use:   "similar ID",
	Short: "List stored assessments closest in meaning to one assessment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		matches, err := db.SimilarAssessments(cmd.Context(), args[0], similarLimit)
		if errors.Is(err, database.ErrNoEmbedding) {
			fmt.Println("That assessment was stored without an embedding.")
			return nil
		}
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			fmt.Println("No other assessments with embeddings.")
			return nil
		}

		for _, m := range matches {
			fmt.Printf("%.3f  [%.2f]  %s\n", m.Distance, m.SignalScore, m.Title)
			fmt.Printf("       %s\n", m.SourceURL)
		}
		return nil
	},
}

func init() {
	similarCmd.Flags().IntVarP(&similarLimit, "limit", "n", 10, "Maximum entries")
}
