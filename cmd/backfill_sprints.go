package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/psds-microservice/tracker-service/internal/config"
	"github.com/psds-microservice/tracker-service/internal/database"
	"github.com/psds-microservice/tracker-service/internal/kafka"
	"github.com/psds-microservice/tracker-service/internal/service"
	"github.com/psds-microservice/tracker-service/internal/storage/postgres"
	"github.com/spf13/cobra"
)

var backfillSprintsCmd = &cobra.Command{
	Use:   "backfill-sprints",
	Short: "Assign all unsprinted tickets to each project's active (or latest) sprint",
	RunE:  runBackfillSprints,
}

func init() {
	rootCmd.AddCommand(backfillSprintsCmd)
}

func runBackfillSprints(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")
	_ = godotenv.Load("../../.env") // repo root when running from bin/
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	conn, err := database.Open(cfg.DSN())
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicEvents)
	defer producer.Close()

	svc := service.NewSprintService(
		postgres.NewSprintRepo(conn),
		postgres.NewTicketRepo(conn),
		postgres.NewProjectRepo(conn),
		producer,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	report, err := svc.Backfill(ctx)
	if err != nil {
		return fmt.Errorf("backfill: %w", err)
	}
	for projectID, n := range report.Assigned {
		log.Printf("backfill-sprints: project %s: assigned %d tickets", projectID, n)
	}
	for _, projectID := range report.NoSprintFound {
		log.Printf("backfill-sprints: project %q: no sprint found, tickets left unassigned", projectID)
	}
	if report.Standalone > 0 {
		log.Printf("backfill-sprints: %d standalone tickets left without sprint", report.Standalone)
	}
	log.Printf("backfill-sprints: done, %d tickets assigned", report.TotalAssigned)
	return nil
}
