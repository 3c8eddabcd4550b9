// file: internals/features/school/academics/model/subject_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubjectModel struct {
	// PK
	SubjectID uuid.UUID `gorm:"column:subject_id;type:uuid;default:gen_random_uuid();primaryKey" json:"subject_id"`

	// Tenant
	SubjectSchoolID uuid.UUID `gorm:"column:subject_school_id;type:uuid;not null;index;uniqueIndex:uq_subject_code" json:"subject_school_id"`

	// Identitas
	SubjectCode string `gorm:"column:subject_code;type:varchar(40);not null;uniqueIndex:uq_subject_code" json:"subject_code"`
	SubjectName string `gorm:"column:subject_name;type:varchar(160);not null" json:"subject_name"`

	// Beberapa mapel di jadwal hanyalah alias tampilan; penugasan guru
	// menempel di mapel aktualnya. NULL = mapel ini sudah aktual.
	SubjectActualSubjectID *uuid.UUID `gorm:"column:subject_actual_subject_id;type:uuid" json:"subject_actual_subject_id,omitempty"`

	// Audit
	SubjectCreatedAt time.Time      `gorm:"column:subject_created_at;type:timestamptz;not null;autoCreateTime" json:"subject_created_at"`
	SubjectUpdatedAt time.Time      `gorm:"column:subject_updated_at;type:timestamptz;not null;autoUpdateTime" json:"subject_updated_at"`
	SubjectDeletedAt gorm.DeletedAt `gorm:"column:subject_deleted_at;index" json:"subject_deleted_at,omitempty"`
}

func (SubjectModel) TableName() string { return "subjects" }

// ActualID mengembalikan id mapel aktual (dirinya sendiri kalau bukan alias).
func (m *SubjectModel) ActualID() uuid.UUID {
	if m.SubjectActualSubjectID != nil && *m.SubjectActualSubjectID != uuid.Nil {
		return *m.SubjectActualSubjectID
	}
	return m.SubjectID
}
