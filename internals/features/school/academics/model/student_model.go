// file: internals/features/school/academics/model/student_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StudentModel struct {
	// PK
	StudentID uuid.UUID `gorm:"column:student_id;type:uuid;default:gen_random_uuid();primaryKey" json:"student_id"`

	// Tenant
	StudentSchoolID uuid.UUID `gorm:"column:student_school_id;type:uuid;not null;index" json:"student_school_id"`

	// Relasi akun
	StudentUserID *uuid.UUID `gorm:"column:student_user_id;type:uuid" json:"student_user_id,omitempty"`

	// Identitas
	StudentNIS  string `gorm:"column:student_nis;type:varchar(40);not null" json:"student_nis"`
	StudentName string `gorm:"column:student_name;type:varchar(160);not null" json:"student_name"`

	StudentIsActive bool `gorm:"column:student_is_active;not null;default:true" json:"student_is_active"`

	// Audit
	StudentCreatedAt time.Time      `gorm:"column:student_created_at;type:timestamptz;not null;autoCreateTime" json:"student_created_at"`
	StudentUpdatedAt time.Time      `gorm:"column:student_updated_at;type:timestamptz;not null;autoUpdateTime" json:"student_updated_at"`
	StudentDeletedAt gorm.DeletedAt `gorm:"column:student_deleted_at;index" json:"student_deleted_at,omitempty"`
}

func (StudentModel) TableName() string { return "students" }
