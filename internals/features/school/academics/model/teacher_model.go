// file: internals/features/school/academics/model/teacher_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TeacherModel struct {
	// PK
	TeacherID uuid.UUID `gorm:"column:teacher_id;type:uuid;default:gen_random_uuid();primaryKey" json:"teacher_id"`

	// Tenant
	TeacherSchoolID uuid.UUID `gorm:"column:teacher_school_id;type:uuid;not null;index;uniqueIndex:uq_teacher_code" json:"teacher_school_id"`

	// Relasi akun (nullable: guru bisa dibuat sebelum punya akun)
	TeacherUserID *uuid.UUID `gorm:"column:teacher_user_id;type:uuid" json:"teacher_user_id,omitempty"`

	// Identitas
	TeacherCode string `gorm:"column:teacher_code;type:varchar(40);not null;uniqueIndex:uq_teacher_code" json:"teacher_code"`
	TeacherName string `gorm:"column:teacher_name;type:varchar(160);not null" json:"teacher_name"`

	TeacherIsActive bool `gorm:"column:teacher_is_active;not null;default:true" json:"teacher_is_active"`

	// Audit
	TeacherCreatedAt time.Time      `gorm:"column:teacher_created_at;type:timestamptz;not null;autoCreateTime" json:"teacher_created_at"`
	TeacherUpdatedAt time.Time      `gorm:"column:teacher_updated_at;type:timestamptz;not null;autoUpdateTime" json:"teacher_updated_at"`
	TeacherDeletedAt gorm.DeletedAt `gorm:"column:teacher_deleted_at;index" json:"teacher_deleted_at,omitempty"`
}

func (TeacherModel) TableName() string { return "teachers" }
