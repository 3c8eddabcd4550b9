// file: internals/features/school/academics/model/class_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClassModel struct {
	// PK
	ClassID uuid.UUID `gorm:"column:class_id;type:uuid;default:gen_random_uuid();primaryKey" json:"class_id"`

	// Tenant
	ClassSchoolID uuid.UUID `gorm:"column:class_school_id;type:uuid;not null;index;uniqueIndex:uq_class_slug" json:"class_school_id"`

	// Identitas
	ClassName  string  `gorm:"column:class_name;type:varchar(120);not null" json:"class_name"`
	ClassSlug  string  `gorm:"column:class_slug;type:varchar(160);not null;uniqueIndex:uq_class_slug" json:"class_slug"`
	ClassGrade *string `gorm:"column:class_grade;type:varchar(20)" json:"class_grade,omitempty"`

	// Tahun ajaran aktif (snapshot ringan, cukup untuk filter)
	ClassAcademicYear string `gorm:"column:class_academic_year;type:varchar(20);not null" json:"class_academic_year"`

	// Audit
	ClassCreatedAt time.Time      `gorm:"column:class_created_at;type:timestamptz;not null;autoCreateTime" json:"class_created_at"`
	ClassUpdatedAt time.Time      `gorm:"column:class_updated_at;type:timestamptz;not null;autoUpdateTime" json:"class_updated_at"`
	ClassDeletedAt gorm.DeletedAt `gorm:"column:class_deleted_at;index" json:"class_deleted_at,omitempty"`
}

func (ClassModel) TableName() string { return "classes" }
