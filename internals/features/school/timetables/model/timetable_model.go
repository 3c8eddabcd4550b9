// file: internals/features/school/timetables/model/timetable_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TimetableModel: header jadwal per (sekolah, tahun ajaran, semester).
// Import ulang pada scope yang sama memakai header yang sama (upsert).
type TimetableModel struct {
	// PK
	TimetableID uuid.UUID `gorm:"column:timetable_id;type:uuid;default:gen_random_uuid();primaryKey" json:"timetable_id"`

	// Tenant & scope
	TimetableSchoolID     uuid.UUID `gorm:"column:timetable_school_id;type:uuid;not null;uniqueIndex:uq_timetable_scope" json:"timetable_school_id"`
	TimetableAcademicYear string    `gorm:"column:timetable_academic_year;type:varchar(20);not null;uniqueIndex:uq_timetable_scope" json:"timetable_academic_year"`
	TimetableSemester     int       `gorm:"column:timetable_semester;not null;uniqueIndex:uq_timetable_scope" json:"timetable_semester"`

	TimetableName string `gorm:"column:timetable_name;type:varchar(160);not null" json:"timetable_name"`

	// Audit
	TimetableCreatedAt time.Time      `gorm:"column:timetable_created_at;type:timestamptz;not null;autoCreateTime" json:"timetable_created_at"`
	TimetableUpdatedAt time.Time      `gorm:"column:timetable_updated_at;type:timestamptz;not null;autoUpdateTime" json:"timetable_updated_at"`
	TimetableDeletedAt gorm.DeletedAt `gorm:"column:timetable_deleted_at;index" json:"timetable_deleted_at,omitempty"`
}

func (TimetableModel) TableName() string { return "timetables" }
