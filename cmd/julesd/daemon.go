package main

import (
	"context"
	"log/slog"

	"github.com/robertpelloni/jules-app/internal/keeper"
	"github.com/robertpelloni/jules-app/internal/model"

	"github.com/spf13/cobra"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the session keeper until interrupted",
	Long:  `Starts the keeper loop: periodically checks every Jules session, approves pending plans and nudges idle sessions until SIGINT/SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := buildJulesClient()
		if err != nil {
			return err
		}

		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		// The durable supervisor config wins once one exists; the yaml
		// config only seeds the first run.
		var supCfg keeper.SupervisorConfig
		if st.HasSupervisorConfig() {
			supCfg, err = st.LoadSupervisorConfig()
			if err != nil {
				return err
			}
		} else {
			supCfg = keeper.FromConfig(cfg.Keeper)
			if err := st.SaveSupervisorConfig(supCfg); err != nil {
				slog.Warn("Failed to seed supervisor config", "error", err)
			}
		}
		supCfg.Enabled = true

		journal := keeper.NewJournal(&journalSink{store: st, manager: buildNotifiers()})
		k := keeper.New(client, model.NewRegistry(), journal, supCfg)

		handler := NewSignalHandler(context.Background())
		handler.Start()
		defer handler.Stop()

		if err := k.Start(handler.Context()); err != nil {
			return err
		}

		<-handler.Context().Done()
		k.Stop()

		stats := k.Stats()
		slog.Info("Keeper shut down",
			"nudges", stats.TotalNudges,
			"approvals", stats.TotalApprovals,
			"resumes", stats.TotalResumes,
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(daemonCmd)
}
