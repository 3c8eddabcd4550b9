// file: internals/features/school/academics/model/period_slot_model.go
package model

import (
	"time"

	"sekolahku_backend/internals/helpers/dbtime"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PeriodSlotModel: slot jam pelajaran harian (jam ke-1, ke-2, dst).
type PeriodSlotModel struct {
	// PK
	PeriodSlotID uuid.UUID `gorm:"column:period_slot_id;type:uuid;default:gen_random_uuid();primaryKey" json:"period_slot_id"`

	// Tenant
	PeriodSlotSchoolID uuid.UUID `gorm:"column:period_slot_school_id;type:uuid;not null;index;uniqueIndex:uq_period_slot_number" json:"period_slot_school_id"`

	// Urutan & jam
	PeriodSlotNumber    int        `gorm:"column:period_slot_number;not null;uniqueIndex:uq_period_slot_number" json:"period_slot_number"`
	PeriodSlotStartTime dbtime.Tod `gorm:"column:period_slot_start_time;type:time;not null" json:"period_slot_start_time"`
	PeriodSlotEndTime   dbtime.Tod `gorm:"column:period_slot_end_time;type:time;not null" json:"period_slot_end_time"`

	PeriodSlotLabel *string `gorm:"column:period_slot_label;type:varchar(40)" json:"period_slot_label,omitempty"`

	// Audit
	PeriodSlotCreatedAt time.Time      `gorm:"column:period_slot_created_at;type:timestamptz;not null;autoCreateTime" json:"period_slot_created_at"`
	PeriodSlotUpdatedAt time.Time      `gorm:"column:period_slot_updated_at;type:timestamptz;not null;autoUpdateTime" json:"period_slot_updated_at"`
	PeriodSlotDeletedAt gorm.DeletedAt `gorm:"column:period_slot_deleted_at;index" json:"period_slot_deleted_at,omitempty"`
}

func (PeriodSlotModel) TableName() string { return "period_slots" }
