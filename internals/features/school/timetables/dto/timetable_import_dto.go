// file: internals/features/school/timetables/dto/timetable_import_dto.go
package dto

import (
	"fmt"
	"strings"
	"time"
)

/* =========================================================
   Helpers
   ========================================================= */

const DateLayout = "2006-01-02"

// ParseDayOfWeek menormalkan nama hari (EN/ID, panjang/pendek) ke ISO 1..7.
func ParseDayOfWeek(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mon", "monday", "senin", "sen":
		return 1, nil
	case "tue", "tuesday", "selasa", "sel":
		return 2, nil
	case "wed", "wednesday", "rabu", "rab":
		return 3, nil
	case "thu", "thursday", "kamis", "kam":
		return 4, nil
	case "fri", "friday", "jumat", "jum'at", "jum":
		return 5, nil
	case "sat", "saturday", "sabtu", "sab":
		return 6, nil
	case "sun", "sunday", "minggu", "ahad", "min":
		return 7, nil
	}
	return 0, fmt.Errorf("hari tidak dikenal: %q", s)
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

/* =========================================================
   1) REQUESTS
   ========================================================= */

// Satu baris pola dari file import (sudah dalam bentuk JSON hasil parse FE)
type ImportRowRequest struct {
	ClassSlug    string  `json:"class_slug"    validate:"required,max=160"`
	DayOfWeek    string  `json:"day_of_week"   validate:"required,max=20"`
	PeriodNumber int     `json:"period_number" validate:"required,min=1,max=20"`
	SubjectCode  string  `json:"subject_code"  validate:"required,max=40"`
	RoomCode     *string `json:"room_code"     validate:"omitempty,max=40"`

	// Kosong = guru di-resolve dari subject_assignments
	TeacherCodes []string `json:"teacher_codes" validate:"omitempty,dive,max=40"`
}

type ImportTimetableRequest struct {
	AcademicYear string `json:"academic_year" validate:"required,max=20"`
	Semester     int    `json:"semester"      validate:"required,min=1,max=2"`
	Name         string `json:"name"          validate:"omitempty,max=160"`

	// Masa berlaku pola yang diimport (inklusif, "YYYY-MM-DD")
	ValidFrom string `json:"valid_from" validate:"required,datetime=2006-01-02"`
	ValidTo   string `json:"valid_to"   validate:"required,datetime=2006-01-02"`

	// true = izinkan valid_from mundur dari coverage yang sudah commit
	AllowBackdate bool `json:"allow_backdate"`

	Rows []ImportRowRequest `json:"rows" validate:"required,min=1,dive"`
}

// Resync manual: bangun ulang proyeksi tanpa menyentuh jadwal tersimpan.
type ResyncProjectionRequest struct {
	AcademicYear string `json:"academic_year" validate:"required,max=20"`
	Semester     int    `json:"semester"      validate:"required,min=1,max=2"`

	// Kosong = semua kelas di scope
	ClassSlugs []string `json:"class_slugs" validate:"omitempty,dive,max=160"`

	// Kosong = pakai rentang instance
	RangeStart *string `json:"range_start" validate:"omitempty,datetime=2006-01-02"`
	RangeEnd   *string `json:"range_end"   validate:"omitempty,datetime=2006-01-02"`
}

/* =========================================================
   2) RESPONSES
   ========================================================= */

type ImportAcceptedResponse struct {
	JobID string `json:"job_id"`
}
