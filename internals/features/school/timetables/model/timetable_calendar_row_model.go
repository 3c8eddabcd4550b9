// file: internals/features/school/timetables/model/timetable_calendar_row_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type CalendarRowKindEnum string

const (
	CalendarRowKindPattern  CalendarRowKindEnum = "pattern"
	CalendarRowKindOverride CalendarRowKindEnum = "override"
)

type OverrideActionEnum string

const (
	OverrideActionReplace OverrideActionEnum = "replace"
	OverrideActionRemove  OverrideActionEnum = "remove"
)

// TimetableCalendarRowModel: satu baris kalender, pola mingguan ATAU
// override satu tanggal.
//   - pattern : valid_from/valid_to terisi, date NULL
//   - override: date terisi, valid_from/valid_to NULL; override
//     mengganti penuh slot pola untuk tanggalnya
type TimetableCalendarRowModel struct {
	// PK
	TimetableCalendarRowID uuid.UUID `gorm:"column:timetable_calendar_row_id;type:uuid;default:gen_random_uuid();primaryKey" json:"timetable_calendar_row_id"`

	// Tenant & relasi
	TimetableCalendarRowSchoolID   uuid.UUID `gorm:"column:timetable_calendar_row_school_id;type:uuid;not null;index" json:"timetable_calendar_row_school_id"`
	TimetableCalendarRowInstanceID uuid.UUID `gorm:"column:timetable_calendar_row_instance_id;type:uuid;not null;index:idx_calendar_row_instance" json:"timetable_calendar_row_instance_id"`

	TimetableCalendarRowKind CalendarRowKindEnum `gorm:"column:timetable_calendar_row_kind;type:calendar_row_kind_enum;not null" json:"timetable_calendar_row_kind"`

	// Slot (ISO: senin=1 .. minggu=7)
	TimetableCalendarRowDayOfWeek    int `gorm:"column:timetable_calendar_row_day_of_week;not null" json:"timetable_calendar_row_day_of_week"`
	TimetableCalendarRowPeriodNumber int `gorm:"column:timetable_calendar_row_period_number;not null" json:"timetable_calendar_row_period_number"`

	// Isi slot
	TimetableCalendarRowSubjectID  *uuid.UUID     `gorm:"column:timetable_calendar_row_subject_id;type:uuid" json:"timetable_calendar_row_subject_id,omitempty"`
	TimetableCalendarRowRoomID     *uuid.UUID     `gorm:"column:timetable_calendar_row_room_id;type:uuid" json:"timetable_calendar_row_room_id,omitempty"`
	TimetableCalendarRowTeacherIDs pq.StringArray `gorm:"column:timetable_calendar_row_teacher_ids;type:uuid[]" json:"timetable_calendar_row_teacher_ids,omitempty"`

	// Masa berlaku pola (inklusif); NULL untuk override
	TimetableCalendarRowValidFrom *time.Time `gorm:"column:timetable_calendar_row_valid_from;type:date" json:"timetable_calendar_row_valid_from,omitempty"`
	TimetableCalendarRowValidTo   *time.Time `gorm:"column:timetable_calendar_row_valid_to;type:date" json:"timetable_calendar_row_valid_to,omitempty"`

	// Tanggal override; NULL untuk pattern
	TimetableCalendarRowDate           *time.Time          `gorm:"column:timetable_calendar_row_date;type:date" json:"timetable_calendar_row_date,omitempty"`
	TimetableCalendarRowOverrideAction *OverrideActionEnum `gorm:"column:timetable_calendar_row_override_action;type:override_action_enum" json:"timetable_calendar_row_override_action,omitempty"`

	// Audit
	TimetableCalendarRowCreatedAt time.Time      `gorm:"column:timetable_calendar_row_created_at;type:timestamptz;not null;autoCreateTime" json:"timetable_calendar_row_created_at"`
	TimetableCalendarRowUpdatedAt time.Time      `gorm:"column:timetable_calendar_row_updated_at;type:timestamptz;not null;autoUpdateTime" json:"timetable_calendar_row_updated_at"`
	TimetableCalendarRowDeletedAt gorm.DeletedAt `gorm:"column:timetable_calendar_row_deleted_at;index" json:"timetable_calendar_row_deleted_at,omitempty"`
}

func (TimetableCalendarRowModel) TableName() string { return "timetable_calendar_rows" }

func (m *TimetableCalendarRowModel) IsPattern() bool {
	return m.TimetableCalendarRowKind == CalendarRowKindPattern
}

func (m *TimetableCalendarRowModel) IsOverride() bool {
	return m.TimetableCalendarRowKind == CalendarRowKindOverride
}
