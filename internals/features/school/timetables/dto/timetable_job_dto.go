// file: internals/features/school/timetables/dto/timetable_job_dto.go
package dto

import (
	"time"

	m "sekolahku_backend/internals/features/school/timetables/model"
)

/* =========================================================
   RESPONSES
   ========================================================= */

type ImportJobResponse struct {
	ID          string         `json:"id"`
	TimetableID *string        `json:"timetable_id,omitempty"`
	Status      string         `json:"status"`
	RangeStart  *string        `json:"range_start,omitempty"`
	RangeEnd    *string        `json:"range_end,omitempty"`
	Progress    map[string]any `json:"progress,omitempty"`
	Result      map[string]any `json:"result,omitempty"`
	Error       *string        `json:"error,omitempty"`
	Attempts    int            `json:"attempts"`
	StartedAt   *string        `json:"started_at,omitempty"`
	FinishedAt  *string        `json:"finished_at,omitempty"`
	CreatedAt   string         `json:"created_at"`
}

func NewImportJobResponse(job *m.TimetableImportJobModel) ImportJobResponse {
	resp := ImportJobResponse{
		ID:        job.TimetableImportJobID.String(),
		Status:    string(job.TimetableImportJobStatus),
		Progress:  job.TimetableImportJobProgress,
		Result:    job.TimetableImportJobResult,
		Error:     job.TimetableImportJobError,
		Attempts:  job.TimetableImportJobAttempts,
		CreatedAt: job.TimetableImportJobCreatedAt.Format(time.RFC3339),
	}
	if job.TimetableImportJobTimetableID != nil {
		s := job.TimetableImportJobTimetableID.String()
		resp.TimetableID = &s
	}
	if job.TimetableImportJobRangeStart != nil {
		s := job.TimetableImportJobRangeStart.Format(DateLayout)
		resp.RangeStart = &s
	}
	if job.TimetableImportJobRangeEnd != nil {
		s := job.TimetableImportJobRangeEnd.Format(DateLayout)
		resp.RangeEnd = &s
	}
	if job.TimetableImportJobStartedAt != nil {
		s := job.TimetableImportJobStartedAt.Format(time.RFC3339)
		resp.StartedAt = &s
	}
	if job.TimetableImportJobFinishedAt != nil {
		s := job.TimetableImportJobFinishedAt.Format(time.RFC3339)
		resp.FinishedAt = &s
	}
	return resp
}
