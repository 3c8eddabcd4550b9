// file: internals/features/school/academics/model/subject_assignment_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AssignmentTermEnum string

const (
	AssignmentTermFullYear AssignmentTermEnum = "full_year"
	AssignmentTermFirst    AssignmentTermEnum = "term_1"
	AssignmentTermSecond   AssignmentTermEnum = "term_2"
)

// SubjectAssignmentModel: penugasan guru per (kelas, mapel aktual).
// Satu pasangan boleh punya beberapa guru (team teaching).
type SubjectAssignmentModel struct {
	// PK
	SubjectAssignmentID uuid.UUID `gorm:"column:subject_assignment_id;type:uuid;default:gen_random_uuid();primaryKey" json:"subject_assignment_id"`

	// Tenant
	SubjectAssignmentSchoolID uuid.UUID `gorm:"column:subject_assignment_school_id;type:uuid;not null;index" json:"subject_assignment_school_id"`

	// Relasi
	SubjectAssignmentClassID         uuid.UUID `gorm:"column:subject_assignment_class_id;type:uuid;not null;index:idx_subject_assignment_class_subject" json:"subject_assignment_class_id"`
	SubjectAssignmentActualSubjectID uuid.UUID `gorm:"column:subject_assignment_actual_subject_id;type:uuid;not null;index:idx_subject_assignment_class_subject" json:"subject_assignment_actual_subject_id"`
	SubjectAssignmentTeacherID       uuid.UUID `gorm:"column:subject_assignment_teacher_id;type:uuid;not null;index" json:"subject_assignment_teacher_id"`

	// full_year menang atas penugasan per-semester saat resolusi guru
	SubjectAssignmentTerm AssignmentTermEnum `gorm:"column:subject_assignment_term;type:assignment_term_enum;not null;default:'full_year'" json:"subject_assignment_term"`

	// Audit
	SubjectAssignmentCreatedAt time.Time      `gorm:"column:subject_assignment_created_at;type:timestamptz;not null;autoCreateTime" json:"subject_assignment_created_at"`
	SubjectAssignmentUpdatedAt time.Time      `gorm:"column:subject_assignment_updated_at;type:timestamptz;not null;autoUpdateTime" json:"subject_assignment_updated_at"`
	SubjectAssignmentDeletedAt gorm.DeletedAt `gorm:"column:subject_assignment_deleted_at;index" json:"subject_assignment_deleted_at,omitempty"`
}

func (SubjectAssignmentModel) TableName() string { return "subject_assignments" }
