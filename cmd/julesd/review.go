package main

import (
	"fmt"
	"os"

	"github.com/robertpelloni/jules-app/internal/model"
	"github.com/robertpelloni/jules-app/internal/review"

	"github.com/spf13/cobra"
)

var reviewCmd = &cobra.Command{
	Use:   "review <file>",
	Short: "Run a one-shot code review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reviewType, _ := cmd.Flags().GetString("type")

		code, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}

		engine := review.New(model.NewRegistry())
		result, err := engine.Run(cmd.Context(), review.Request{
			Code:     string(code),
			Provider: cfg.Review.Provider,
			Model:    cfg.Review.Model,
			APIKey:   cfg.Review.APIKey,
			Type:     review.Type(reviewType),
		})
		if err != nil {
			return err
		}

		if result.Structured != nil {
			printStructuredReview(result.Structured)
			return nil
		}
		fmt.Println(result.Prose)
		return nil
	},
}

func printStructuredReview(r *review.StructuredReview) {
	fmt.Printf("Score: %d/100\n\n%s\n", r.Score, r.Summary)
	if r.ParseError != "" {
		fmt.Println("\n(The model response could not be parsed; raw output follows.)")
		fmt.Println(r.ParseError)
		return
	}
	for _, issue := range r.Issues {
		line := ""
		if issue.Line > 0 {
			line = fmt.Sprintf(" (line %d)", issue.Line)
		}
		fmt.Printf("\n[%s] %s%s\n  %s\n", issue.Severity, issue.Category, line, issue.Description)
		if issue.Suggestion != "" {
			fmt.Printf("  Suggestion: %s\n", issue.Suggestion)
		}
	}
}

func init() {
	rootCmd.AddCommand(reviewCmd)
	reviewCmd.Flags().String("type", string(review.TypeSimple), "review type (simple, comprehensive, structured)")
}
