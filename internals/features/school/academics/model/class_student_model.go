// file: internals/features/school/academics/model/class_student_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClassStudentModel struct {
	// PK
	ClassStudentID uuid.UUID `gorm:"column:class_student_id;type:uuid;default:gen_random_uuid();primaryKey" json:"class_student_id"`

	// Tenant
	ClassStudentSchoolID uuid.UUID `gorm:"column:class_student_school_id;type:uuid;not null;index" json:"class_student_school_id"`

	// Relasi
	ClassStudentClassID   uuid.UUID `gorm:"column:class_student_class_id;type:uuid;not null;index;uniqueIndex:uq_class_student" json:"class_student_class_id"`
	ClassStudentStudentID uuid.UUID `gorm:"column:class_student_student_id;type:uuid;not null;uniqueIndex:uq_class_student" json:"class_student_student_id"`

	ClassStudentIsActive bool `gorm:"column:class_student_is_active;not null;default:true" json:"class_student_is_active"`

	// Audit
	ClassStudentCreatedAt time.Time      `gorm:"column:class_student_created_at;type:timestamptz;not null;autoCreateTime" json:"class_student_created_at"`
	ClassStudentUpdatedAt time.Time      `gorm:"column:class_student_updated_at;type:timestamptz;not null;autoUpdateTime" json:"class_student_updated_at"`
	ClassStudentDeletedAt gorm.DeletedAt `gorm:"column:class_student_deleted_at;index" json:"class_student_deleted_at,omitempty"`
}

func (ClassStudentModel) TableName() string { return "class_students" }
