package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"reportforge/internal/config"
	"reportforge/internal/database"
	"reportforge/internal/events"
)

// Maintenance CLI: run schema migrations and enqueue ad hoc report
// generation requests without going through the upstream scorer.
func main() {
	var (
		migrate     = flag.Bool("migrate", false, "run database migrations and exit")
		jobID       = flag.String("job", "", "job id for the generation request")
		resumeID    = flag.String("resume", "", "resume id for the generation request")
		reportType  = flag.String("type", events.ReportTypeMatchAnalysis, "report type (match-analysis|candidate-summary|full-report)")
		requestedBy = flag.String("requested-by", "admin-cli", "who requested the generation")
	)
	flag.Parse()

	cfg := config.MustLoad()

	if *migrate {
		db, err := database.InitDatabase(cfg.Database)
		if err != nil {
			log.Fatalf("init database: %v", err)
		}
		if err := database.Migrate(db); err != nil {
			log.Fatalf("migrate database: %v", err)
		}
		fmt.Println("migrations applied")
		return
	}

	job := strings.TrimSpace(*jobID)
	resume := strings.TrimSpace(*resumeID)
	if job == "" || resume == "" {
		log.Fatal("missing required flags: --job and --resume (or use --migrate)")
	}

	switch *reportType {
	case events.ReportTypeMatchAnalysis, events.ReportTypeCandidateSummary, events.ReportTypeFullReport:
	default:
		log.Fatalf("unknown report type %q", *reportType)
	}

	task, err := events.NewReportRequestedTask(events.ReportGenerationRequested{
		JobID:       job,
		ResumeID:    resume,
		ReportType:  *reportType,
		RequestedBy: *requestedBy,
		Timestamp:   time.Now().UTC(),
	})
	if err != nil {
		log.Fatalf("build task: %v", err)
	}

	client := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr()})
	defer func() { _ = client.Close() }()

	info, err := client.Enqueue(task)
	if err != nil {
		log.Fatalf("enqueue task: %v", err)
	}
	fmt.Printf("enqueued %s (id=%s queue=%s)\n", info.Type, info.ID, info.Queue)
}
