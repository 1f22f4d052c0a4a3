package main

import (
	"fmt"
	"os"

	"github.com/robertpelloni/jules-app/internal/debate"
	apperrors "github.com/robertpelloni/jules-app/internal/errors"
	"github.com/robertpelloni/jules-app/internal/keeper"
	"github.com/robertpelloni/jules-app/internal/model"

	"github.com/spf13/cobra"
)

var debateCmd = &cobra.Command{
	Use:   "debate <topic>",
	Short: "Run an ad hoc conference among the configured participants",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(cfg.Debate.Participants) == 0 {
			return apperrors.Configuration("no debate participants configured (debate.participants)")
		}

		rounds, _ := cmd.Flags().GetInt("rounds")

		participants := make([]debate.Participant, 0, len(cfg.Debate.Participants))
		for _, p := range cfg.Debate.Participants {
			participants = append(participants, debate.Participant{
				ID:           p.ID,
				Name:         p.Name,
				Role:         p.Role,
				Provider:     p.Provider,
				Model:        p.Model,
				APIKey:       p.APIKey,
				Instructions: p.Instructions,
			})
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		engine := debate.New(model.NewRegistry())
		req := debate.Request{
			Topic:        args[0],
			Rounds:       rounds,
			Participants: participants,
		}

		var out *debate.Output
		if rounds > 1 {
			out, err = engine.RunDebate(cmd.Context(), req)
		} else {
			out, err = engine.RunConference(cmd.Context(), req)
		}
		if err != nil {
			return err
		}

		archive := keeper.NewDebateArchive()
		if persisted, err := st.LoadDebates(); err == nil {
			archive.Seed(persisted)
		}
		archive.Add(out.Result)
		if err := st.SaveDebates(archive.Snapshot()); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to persist debate result: %v\n", err)
		}

		for i, round := range out.Rounds {
			fmt.Printf("--- Round %d ---\n", i+1)
			for _, turn := range round {
				if turn.Err != "" {
					fmt.Printf("%s (%s): failed: %s\n\n", turn.Name, turn.Role, turn.Err)
					continue
				}
				fmt.Printf("%s (%s):\n%s\n\n", turn.Name, turn.Role, turn.Content)
			}
		}

		fmt.Println("--- Summary ---")
		fmt.Println(out.Summary)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(debateCmd)
	debateCmd.Flags().Int("rounds", 1, "number of debate rounds")
}
