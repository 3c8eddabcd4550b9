// file: internals/features/school/timetables/model/timetable_entry_model.go
package model

import (
	"time"

	"sekolahku_backend/internals/helpers/dbtime"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Tabel baca hasil proyeksi. Baris di sini denormalized (snapshot nama &
// jam) supaya endpoint pekan cukup satu query tanpa join; idempoten lewat
// unique key natural + ON CONFLICT DO NOTHING. Tidak pakai soft delete:
// baris proyeksi selalu di-rebuild, bukan di-edit.

type TeacherTimetableEntryModel struct {
	// PK
	TeacherTimetableEntryID uuid.UUID `gorm:"column:teacher_timetable_entry_id;type:uuid;default:gen_random_uuid();primaryKey" json:"teacher_timetable_entry_id"`

	// Tenant
	TeacherTimetableEntrySchoolID uuid.UUID `gorm:"column:teacher_timetable_entry_school_id;type:uuid;not null;index" json:"teacher_timetable_entry_school_id"`

	// Kunci natural
	TeacherTimetableEntryTeacherID    uuid.UUID `gorm:"column:teacher_timetable_entry_teacher_id;type:uuid;not null;uniqueIndex:uq_teacher_entry;index:idx_teacher_entry_teacher_date" json:"teacher_timetable_entry_teacher_id"`
	TeacherTimetableEntryDate         time.Time `gorm:"column:teacher_timetable_entry_date;type:date;not null;uniqueIndex:uq_teacher_entry;index:idx_teacher_entry_teacher_date" json:"teacher_timetable_entry_date"`
	TeacherTimetableEntryPeriodNumber int       `gorm:"column:teacher_timetable_entry_period_number;not null;uniqueIndex:uq_teacher_entry" json:"teacher_timetable_entry_period_number"`
	TeacherTimetableEntryClassID      uuid.UUID `gorm:"column:teacher_timetable_entry_class_id;type:uuid;not null;uniqueIndex:uq_teacher_entry" json:"teacher_timetable_entry_class_id"`
	TeacherTimetableEntrySubjectID    uuid.UUID `gorm:"column:teacher_timetable_entry_subject_id;type:uuid;not null;uniqueIndex:uq_teacher_entry" json:"teacher_timetable_entry_subject_id"`

	// Snapshot tampilan
	TeacherTimetableEntryDayOfWeek   int        `gorm:"column:teacher_timetable_entry_day_of_week;not null" json:"teacher_timetable_entry_day_of_week"`
	TeacherTimetableEntryStartTime   dbtime.Tod `gorm:"column:teacher_timetable_entry_start_time;type:time;not null" json:"teacher_timetable_entry_start_time"`
	TeacherTimetableEntryEndTime     dbtime.Tod `gorm:"column:teacher_timetable_entry_end_time;type:time;not null" json:"teacher_timetable_entry_end_time"`
	TeacherTimetableEntryClassName   string     `gorm:"column:teacher_timetable_entry_class_name;type:varchar(120);not null" json:"teacher_timetable_entry_class_name"`
	TeacherTimetableEntrySubjectName string     `gorm:"column:teacher_timetable_entry_subject_name;type:varchar(160);not null" json:"teacher_timetable_entry_subject_name"`
	TeacherTimetableEntryRoomName    *string    `gorm:"column:teacher_timetable_entry_room_name;type:varchar(160)" json:"teacher_timetable_entry_room_name,omitempty"`

	// Asal proyeksi (buat smart delete per instance)
	TeacherTimetableEntryInstanceID uuid.UUID `gorm:"column:teacher_timetable_entry_instance_id;type:uuid;not null;index" json:"teacher_timetable_entry_instance_id"`

	TeacherTimetableEntryCreatedAt time.Time `gorm:"column:teacher_timetable_entry_created_at;type:timestamptz;not null;autoCreateTime" json:"teacher_timetable_entry_created_at"`
}

func (TeacherTimetableEntryModel) TableName() string { return "teacher_timetable_entries" }

type StudentTimetableEntryModel struct {
	// PK
	StudentTimetableEntryID uuid.UUID `gorm:"column:student_timetable_entry_id;type:uuid;default:gen_random_uuid();primaryKey" json:"student_timetable_entry_id"`

	// Tenant
	StudentTimetableEntrySchoolID uuid.UUID `gorm:"column:student_timetable_entry_school_id;type:uuid;not null;index" json:"student_timetable_entry_school_id"`

	// Kunci natural
	StudentTimetableEntryStudentID    uuid.UUID `gorm:"column:student_timetable_entry_student_id;type:uuid;not null;uniqueIndex:uq_student_entry;index:idx_student_entry_student_date" json:"student_timetable_entry_student_id"`
	StudentTimetableEntryDate         time.Time `gorm:"column:student_timetable_entry_date;type:date;not null;uniqueIndex:uq_student_entry;index:idx_student_entry_student_date" json:"student_timetable_entry_date"`
	StudentTimetableEntryPeriodNumber int       `gorm:"column:student_timetable_entry_period_number;not null;uniqueIndex:uq_student_entry" json:"student_timetable_entry_period_number"`
	StudentTimetableEntrySubjectID    uuid.UUID `gorm:"column:student_timetable_entry_subject_id;type:uuid;not null;uniqueIndex:uq_student_entry" json:"student_timetable_entry_subject_id"`

	// Snapshot tampilan
	StudentTimetableEntryDayOfWeek    int            `gorm:"column:student_timetable_entry_day_of_week;not null" json:"student_timetable_entry_day_of_week"`
	StudentTimetableEntryStartTime    dbtime.Tod     `gorm:"column:student_timetable_entry_start_time;type:time;not null" json:"student_timetable_entry_start_time"`
	StudentTimetableEntryEndTime      dbtime.Tod     `gorm:"column:student_timetable_entry_end_time;type:time;not null" json:"student_timetable_entry_end_time"`
	StudentTimetableEntryClassID      uuid.UUID      `gorm:"column:student_timetable_entry_class_id;type:uuid;not null" json:"student_timetable_entry_class_id"`
	StudentTimetableEntryClassName    string         `gorm:"column:student_timetable_entry_class_name;type:varchar(120);not null" json:"student_timetable_entry_class_name"`
	StudentTimetableEntrySubjectName  string         `gorm:"column:student_timetable_entry_subject_name;type:varchar(160);not null" json:"student_timetable_entry_subject_name"`
	StudentTimetableEntryTeacherIDs   pq.StringArray `gorm:"column:student_timetable_entry_teacher_ids;type:uuid[]" json:"student_timetable_entry_teacher_ids,omitempty"`
	StudentTimetableEntryTeacherNames pq.StringArray `gorm:"column:student_timetable_entry_teacher_names;type:text[]" json:"student_timetable_entry_teacher_names,omitempty"`
	StudentTimetableEntryRoomName     *string        `gorm:"column:student_timetable_entry_room_name;type:varchar(160)" json:"student_timetable_entry_room_name,omitempty"`

	// Asal proyeksi
	StudentTimetableEntryInstanceID uuid.UUID `gorm:"column:student_timetable_entry_instance_id;type:uuid;not null;index" json:"student_timetable_entry_instance_id"`

	StudentTimetableEntryCreatedAt time.Time `gorm:"column:student_timetable_entry_created_at;type:timestamptz;not null;autoCreateTime" json:"student_timetable_entry_created_at"`
}

func (StudentTimetableEntryModel) TableName() string { return "student_timetable_entries" }
