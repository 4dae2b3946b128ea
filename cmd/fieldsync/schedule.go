package main

import (
	"github.com/spf13/cobra"

	"github.com/nexuscrm/fieldsync/internal/application/services"

	log "github.com/sirupsen/logrus"
)

var scheduleRunNow bool

// scheduleCmd runs reconciliation of every workspace on the configured cron schedule
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Reconcile every workspace on a schedule",
	Long:  `Run a reconciliation of every workspace on sync.schedule until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		scheduler := services.NewSchedulerService(a.runner, a.cfg.Sync.Schedule)
		if err := scheduler.Start(); err != nil {
			return err
		}
		defer scheduler.Stop()

		if scheduleRunNow {
			if failed, err := scheduler.RunOnce(cmd.Context()); err != nil {
				log.Errorf("❌ Initial reconciliation failed: %v", err)
			} else if failed > 0 {
				log.Warnf("⚠️  Initial reconciliation: %d workspace(s) failed", failed)
			}
		}

		<-cmd.Context().Done()
		log.Println("👋 Shutting down...")
		return nil
	},
}

func init() {
	scheduleCmd.Flags().BoolVar(&scheduleRunNow, "run-now", false, "run once immediately before waiting for the schedule")
}
