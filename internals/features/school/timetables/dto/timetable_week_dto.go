// file: internals/features/school/timetables/dto/timetable_week_dto.go
package dto

/* =========================================================
   RESPONSES (read-only, hasil resolusi pekan / tabel proyeksi)
   ========================================================= */

type WeekEntryResponse struct {
	Date         string `json:"date"` // "YYYY-MM-DD"
	DayOfWeek    int    `json:"day_of_week"`
	PeriodNumber int    `json:"period_number"`
	StartTime    string `json:"start_time"` // "HH:MM"
	EndTime      string `json:"end_time"`

	ClassID   string `json:"class_id"`
	ClassName string `json:"class_name"`

	SubjectID   string `json:"subject_id"`
	SubjectName string `json:"subject_name"`

	TeacherIDs   []string `json:"teacher_ids"`
	TeacherNames []string `json:"teacher_names"`

	RoomName *string `json:"room_name,omitempty"`

	// true kalau slot ini hasil override satu tanggal, bukan pola
	IsOverride bool `json:"is_override"`
	// true kalau slot tayang tanpa guru ter-resolve
	IsIncomplete bool `json:"is_incomplete"`

	// "projection" (tabel baca) atau "resolved" (fallback dari calendar rows)
	Source string `json:"source"`
}

type WeekResponse struct {
	WeekStart string              `json:"week_start"`
	WeekEnd   string              `json:"week_end"`
	Entries   []WeekEntryResponse `json:"entries"`
}
