package events

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

// Task type constants keeping queue producers and consumers aligned.
const (
	TypeMatchScored     = "report:match_scored"
	TypeReportRequested = "report:generation_requested"
)

// NewMatchScoredTask wraps a MatchScored event as a queue task.
func NewMatchScoredTask(event MatchScored) (*asynq.Task, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeMatchScored, payload), nil
}

// NewReportRequestedTask wraps a ReportGenerationRequested event as a queue task.
func NewReportRequestedTask(event ReportGenerationRequested) (*asynq.Task, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeReportRequested, payload), nil
}
