package response

import (
	"time"

	"todo-notifier/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type SendOutcomeResponse struct {
	TaskID uuid.UUID `json:"task_id"`
	Status string    `json:"status"`
	Kind   string    `json:"kind,omitempty"`
	Reason string    `json:"reason,omitempty"`
}

type TaskFailureResponse struct {
	TaskID uuid.UUID `json:"task_id"`
	Reason string    `json:"reason"`
}

type SweepReportResponse struct {
	Slot        string                `json:"slot"`
	ResumedFrom string                `json:"resumed_from,omitempty"`
	StartedAt   time.Time             `json:"started_at"`
	FinishedAt  time.Time             `json:"finished_at"`
	Processed   int                   `json:"processed"`
	Sent        int                   `json:"sent"`
	Suppressed  int                   `json:"suppressed"`
	NotDue      int                   `json:"not_due"`
	Skipped     int                   `json:"skipped"`
	Failed      []TaskFailureResponse `json:"failed"`
}

func FromSendOutcome(o *commands.SendOutcome) *SendOutcomeResponse {
	res := &SendOutcomeResponse{}
	// Status and Kind are string kinds; copier converts them
	_ = copier.Copy(res, o)
	return res
}

func FromSweepReport(r *commands.SweepReport) *SweepReportResponse {
	res := &SweepReportResponse{}
	_ = copier.Copy(res, r)

	res.Failed = make([]TaskFailureResponse, len(r.Failed))
	for i, f := range r.Failed {
		res.Failed[i] = TaskFailureResponse{TaskID: f.TaskID, Reason: f.Reason}
	}
	return res
}
