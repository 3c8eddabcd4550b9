// file: internals/features/school/timetables/model/timetable_import_job_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ImportJobStatusEnum string

const (
	ImportJobStatusValidating       ImportJobStatusEnum = "validating"
	ImportJobStatusReconciling      ImportJobStatusEnum = "reconciling"
	ImportJobStatusCommitted        ImportJobStatusEnum = "committed"
	ImportJobStatusProjecting       ImportJobStatusEnum = "projecting"
	ImportJobStatusComplete         ImportJobStatusEnum = "complete"
	ImportJobStatusFailed           ImportJobStatusEnum = "failed"
	ImportJobStatusProjectionFailed ImportJobStatusEnum = "projection_failed"
)

// TimetableImportJobModel: state machine satu run import.
// failed = rollback total (data jadwal tidak berubah);
// projection_failed = jadwal sudah commit, tinggal proyeksi yang diulang.
type TimetableImportJobModel struct {
	// PK
	TimetableImportJobID uuid.UUID `gorm:"column:timetable_import_job_id;type:uuid;default:gen_random_uuid();primaryKey" json:"timetable_import_job_id"`

	// Tenant & relasi
	TimetableImportJobSchoolID    uuid.UUID  `gorm:"column:timetable_import_job_school_id;type:uuid;not null;index" json:"timetable_import_job_school_id"`
	TimetableImportJobTimetableID *uuid.UUID `gorm:"column:timetable_import_job_timetable_id;type:uuid" json:"timetable_import_job_timetable_id,omitempty"`

	TimetableImportJobStatus ImportJobStatusEnum `gorm:"column:timetable_import_job_status;type:import_job_status_enum;not null;default:'validating'" json:"timetable_import_job_status"`

	// Rentang yang disentuh run ini (buat smart delete proyeksi)
	TimetableImportJobRangeStart *time.Time `gorm:"column:timetable_import_job_range_start;type:date" json:"timetable_import_job_range_start,omitempty"`
	TimetableImportJobRangeEnd   *time.Time `gorm:"column:timetable_import_job_range_end;type:date" json:"timetable_import_job_range_end,omitempty"`

	// Progress buat polling klien: {phase, current, total, percentage, message}
	TimetableImportJobProgress datatypes.JSONMap `gorm:"column:timetable_import_job_progress;type:jsonb" json:"timetable_import_job_progress,omitempty"`

	// Ringkasan akhir: stats reconcile & proyeksi, warnings
	TimetableImportJobResult datatypes.JSONMap `gorm:"column:timetable_import_job_result;type:jsonb" json:"timetable_import_job_result,omitempty"`

	TimetableImportJobError    *string `gorm:"column:timetable_import_job_error;type:text" json:"timetable_import_job_error,omitempty"`
	TimetableImportJobAttempts int     `gorm:"column:timetable_import_job_attempts;not null;default:0" json:"timetable_import_job_attempts"`

	TimetableImportJobStartedAt  *time.Time `gorm:"column:timetable_import_job_started_at;type:timestamptz" json:"timetable_import_job_started_at,omitempty"`
	TimetableImportJobFinishedAt *time.Time `gorm:"column:timetable_import_job_finished_at;type:timestamptz" json:"timetable_import_job_finished_at,omitempty"`

	// Audit
	TimetableImportJobCreatedAt time.Time      `gorm:"column:timetable_import_job_created_at;type:timestamptz;not null;autoCreateTime" json:"timetable_import_job_created_at"`
	TimetableImportJobUpdatedAt time.Time      `gorm:"column:timetable_import_job_updated_at;type:timestamptz;not null;autoUpdateTime" json:"timetable_import_job_updated_at"`
	TimetableImportJobDeletedAt gorm.DeletedAt `gorm:"column:timetable_import_job_deleted_at;index" json:"timetable_import_job_deleted_at,omitempty"`
}

func (TimetableImportJobModel) TableName() string { return "timetable_import_jobs" }
