package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/SignalEngine/internal/database"
)

var (
	historySignal bool
	historyNoise  bool
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past assessments, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		if historySignal && historyNoise {
			return fmt.Errorf("--signal and --noise are mutually exclusive")
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		f := database.Filter{Limit: historyLimit}
		if historySignal || historyNoise {
			f.IsSignal = &historySignal
		}

		items, err := db.ListAssessments(cmd.Context(), f)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			fmt.Println("No assessments yet. Run 'signalengine assess URL --topic ...' first.")
			return nil
		}

		for _, a := range items {
			decision := "BLOCK"
			if a.IsSignal {
				decision = "SHOW"
			}
			fmt.Printf("%s  [%-5s %.2f]  %-15s %s\n", a.AnalyzedAt.Local().Format("2006-01-02 15:04"), decision, a.SignalScore, a.CategoryCode, a.Title)
			fmt.Printf("    %s  (%s)\n", a.SourceURL, a.ID)
			if a.RejectionReason != nil {
				fmt.Printf("    %s\n", *a.RejectionReason)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().BoolVar(&historySignal, "signal", false, "Only content marked SHOW")
	historyCmd.Flags().BoolVar(&historyNoise, "noise", false, "Only content marked BLOCK")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum entries")
}
