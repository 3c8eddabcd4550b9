// file: internals/features/school/timetables/model/timetable_instance_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TimetableInstanceModel: jadwal satu kelas di bawah satu header.
// Rentang start/end menandai masa berlaku keseluruhan instance;
// rentang per baris pola disimpan di calendar row.
type TimetableInstanceModel struct {
	// PK
	TimetableInstanceID uuid.UUID `gorm:"column:timetable_instance_id;type:uuid;default:gen_random_uuid();primaryKey" json:"timetable_instance_id"`

	// Tenant & relasi
	TimetableInstanceSchoolID    uuid.UUID `gorm:"column:timetable_instance_school_id;type:uuid;not null;index" json:"timetable_instance_school_id"`
	TimetableInstanceTimetableID uuid.UUID `gorm:"column:timetable_instance_timetable_id;type:uuid;not null;uniqueIndex:uq_timetable_instance_class" json:"timetable_instance_timetable_id"`
	TimetableInstanceClassID     uuid.UUID `gorm:"column:timetable_instance_class_id;type:uuid;not null;uniqueIndex:uq_timetable_instance_class" json:"timetable_instance_class_id"`

	// Masa berlaku (inklusif, granularitas tanggal)
	TimetableInstanceStartDate time.Time `gorm:"column:timetable_instance_start_date;type:date;not null" json:"timetable_instance_start_date"`
	TimetableInstanceEndDate   time.Time `gorm:"column:timetable_instance_end_date;type:date;not null" json:"timetable_instance_end_date"`

	// Audit
	TimetableInstanceCreatedAt time.Time      `gorm:"column:timetable_instance_created_at;type:timestamptz;not null;autoCreateTime" json:"timetable_instance_created_at"`
	TimetableInstanceUpdatedAt time.Time      `gorm:"column:timetable_instance_updated_at;type:timestamptz;not null;autoUpdateTime" json:"timetable_instance_updated_at"`
	TimetableInstanceDeletedAt gorm.DeletedAt `gorm:"column:timetable_instance_deleted_at;index" json:"timetable_instance_deleted_at,omitempty"`
}

func (TimetableInstanceModel) TableName() string { return "timetable_instances" }
