package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/SignalEngine/internal/collect"
	"github.com/TobiSchelling/SignalEngine/internal/judge"
	"github.com/TobiSchelling/SignalEngine/internal/pipeline"
	"github.com/TobiSchelling/SignalEngine/internal/server"
)

var (
	assessTopic    string
	assessCategory string
	assessJSON     bool
	feedWorkers    int
)

var assessCmd = &cobra.Command{
	Use:   "assess URL",
	Short: "Assess a single URL against a topic and category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := parseRequest(args[0], assessTopic, assessCategory)
		if err != nil {
			return err
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		pipe, _ := buildPipeline(db, nil)
		outcome, err := pipe.Run(cmd.Context(), req)
		if err != nil {
			if pipeline.IsRejected(err) {
				return fmt.Errorf("rejected: %w", err)
			}
			return err
		}

		if assessJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(server.NewAnalysisReply(outcome))
		}
		printOutcome(outcome)
		return nil
	},
}

var assessFeedCmd = &cobra.Command{
	Use:   "assess-feed [FEED_URL]",
	Short: "Assess every entry of an RSS/Atom feed (or all configured feeds)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, err := pipeline.ParseCategory(assessCategory)
		if err != nil {
			return err
		}
		if assessTopic == "" {
			return fmt.Errorf("--topic is required")
		}

		var feeds []collect.FeedConfig
		if len(args) == 1 {
			feeds = []collect.FeedConfig{{URL: args[0]}}
		} else {
			for _, f := range cfg.Feeds {
				feeds = append(feeds, collect.FeedConfig{URL: f.URL, Name: f.Name})
			}
		}
		if len(feeds) == 0 {
			return fmt.Errorf("no feed given and none configured")
		}

		reader := collect.NewFeedReader(cfg.Extract.UserAgent, cfg.Extract.Timeout)
		entries := reader.ReadAll(cmd.Context(), feeds)
		if len(entries) == 0 {
			fmt.Println("No entries found.")
			return nil
		}

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		reqs := make([]pipeline.Request, len(entries))
		for i, e := range entries {
			reqs[i] = pipeline.Request{URL: e.URL, Topic: assessTopic, Category: category}
		}

		fmt.Printf("Assessing %d entries with %d workers...\n\n", len(reqs), feedWorkers)
		pipe, _ := buildPipeline(db, nil)
		results := pipe.RunBatch(cmd.Context(), reqs, feedWorkers)

		var shown, blocked, rejected int
		for _, r := range results {
			switch {
			case r.Err != nil:
				rejected++
				fmt.Printf("  [REJECTED]      %s (%v)\n", r.Request.URL, r.Err)
			case r.Outcome.Decision == judge.DecisionShow:
				shown++
				fmt.Printf("  [SHOW  %.2f]   %s\n", r.Outcome.QualityScore, r.Outcome.Title)
			default:
				blocked++
				fmt.Printf("  [BLOCK %.2f]   %s\n", r.Outcome.QualityScore, r.Outcome.Title)
			}
		}
		fmt.Printf("\nDone: %d shown, %d blocked, %d rejected\n", shown, blocked, rejected)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{assessCmd, assessFeedCmd} {
		c.Flags().StringVarP(&assessTopic, "topic", "t", "", "Topic you care about (e.g. \"Transformer Architectures\")")
		c.Flags().StringVarP(&assessCategory, "category", "k", "PROFESSIONAL", "PROFESSIONAL, HEALTHY_LEISURE, NEWS or NOISE")
	}
	assessCmd.Flags().BoolVar(&assessJSON, "json", false, "Print the outcome as JSON")
	assessFeedCmd.Flags().IntVarP(&feedWorkers, "workers", "w", pipeline.DefaultWorkers, "Concurrent assessments")
}

func printOutcome(o *pipeline.Outcome) {
	fmt.Printf("%s\n", o.Title)
	fmt.Printf("  URL: %s\n", o.URL)
	fmt.Printf("  Decision: %s (score %.2f)\n", o.Decision, o.QualityScore)
	if o.IsClickbait {
		fmt.Println("  Clickbait: yes")
	}
	fmt.Printf("  Read time: %s\n", formatSeconds(o.EstimatedReadTimeSeconds))
	fmt.Printf("  Reasoning: %s\n", o.Reasoning)
	if o.RecordID != "" {
		fmt.Printf("  Record: %s\n", o.RecordID)
	} else {
		fmt.Println("  Record: not saved")
	}
}
