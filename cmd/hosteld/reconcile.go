package main

import (
	"errors"

	"github.com/spf13/cobra"

	"hostel-backend/internal/logger"
	"hostel-backend/internal/store"
)

func newReconcileCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute bed occupancy from student assignments",
		RunE: func(cmd *cobra.Command, args []string) error {
			gormDB, err := openDB()
			if err != nil {
				return err
			}
			s := store.NewGormStore(gormDB)
			log := logger.WithComponent("reconcile")

			report, err := s.CheckConsistency(cmd.Context())
			if err != nil {
				return err
			}
			if report.Clean() {
				log.Info("bed occupancy is consistent")
				return nil
			}
			log.Warn("occupancy drift found",
				"occupied_without_student", report.OccupiedWithoutStudent,
				"student_on_free_bed", report.StudentOnFreeBed,
				"dangling_bed_refs", report.DanglingBedRefs,
			)
			if dryRun {
				return errors.New("occupancy drift found")
			}

			result, err := s.ReconcileOccupancy(cmd.Context())
			if err != nil {
				return err
			}
			log.Info("occupancy reconciled",
				"beds_marked_occupied", len(result.BedsMarkedOccupied),
				"beds_marked_free", len(result.BedsMarkedFree),
				"students_cleared", len(result.StudentsCleared),
			)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report drift without repairing it; exits non-zero when drift exists")
	return cmd
}
