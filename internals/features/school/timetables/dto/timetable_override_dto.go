// file: internals/features/school/timetables/dto/timetable_override_dto.go
package dto

import (
	"encoding/json"
	"time"

	m "sekolahku_backend/internals/features/school/timetables/model"

	"github.com/google/uuid"
)

/* =========================================================
   Patch types (tri-state)
   - Patch[T]           : not-set | set(value)
   - PatchNullable[T]   : not-set | set(null) | set(value)
   ========================================================= */

type Patch[T any] struct {
	Set   bool
	Value T
}

func (p *Patch[T]) UnmarshalJSON(b []byte) error {
	// Any presence in JSON means Set=true (even if zero value)
	p.Set = true
	return json.Unmarshal(b, &p.Value)
}

func (p Patch[T]) IsSet() bool { return p.Set }

type PatchNullable[T any] struct {
	Set   bool // field key present?
	Valid bool // true => has Value, false => explicit null
	Value T
}

func (p *PatchNullable[T]) UnmarshalJSON(b []byte) error {
	p.Set = true
	if string(b) == "null" {
		p.Valid = false
		return nil
	}
	p.Valid = true
	return json.Unmarshal(b, &p.Value)
}

func (p PatchNullable[T]) IsSet() bool { return p.Set }

/* =========================================================
   1) REQUESTS
   ========================================================= */

// Create: override satu tanggal pada satu slot.
// action=replace wajib bawa subject; action=remove cukup slotnya.
type CreateOverrideRequest struct {
	InstanceID   string `json:"instance_id"   validate:"required,uuid"`
	Date         string `json:"date"          validate:"required,datetime=2006-01-02"`
	PeriodNumber int    `json:"period_number" validate:"required,min=1,max=20"`

	Action string `json:"action" validate:"required,oneof=replace remove"`

	SubjectID  *string  `json:"subject_id"  validate:"omitempty,uuid"`
	RoomID     *string  `json:"room_id"     validate:"omitempty,uuid"`
	TeacherIDs []string `json:"teacher_ids" validate:"omitempty,dive,uuid"`
}

// Update (PATCH): hanya field yang dikirim yang berubah.
type UpdateOverrideRequest struct {
	Action     Patch[string]           `json:"action"`
	SubjectID  PatchNullable[string]   `json:"subject_id"`
	RoomID     PatchNullable[string]   `json:"room_id"`
	TeacherIDs PatchNullable[[]string] `json:"teacher_ids"`
}

/* =========================================================
   2) RESPONSES
   ========================================================= */

type OverrideResponse struct {
	ID           string   `json:"id"`
	InstanceID   string   `json:"instance_id"`
	Date         string   `json:"date"`
	DayOfWeek    int      `json:"day_of_week"`
	PeriodNumber int      `json:"period_number"`
	Action       string   `json:"action"`
	SubjectID    *string  `json:"subject_id,omitempty"`
	RoomID       *string  `json:"room_id,omitempty"`
	TeacherIDs   []string `json:"teacher_ids,omitempty"`
	CreatedAt    string   `json:"created_at"`
}

func NewOverrideResponse(row *m.TimetableCalendarRowModel) OverrideResponse {
	resp := OverrideResponse{
		ID:           row.TimetableCalendarRowID.String(),
		InstanceID:   row.TimetableCalendarRowInstanceID.String(),
		DayOfWeek:    row.TimetableCalendarRowDayOfWeek,
		PeriodNumber: row.TimetableCalendarRowPeriodNumber,
		TeacherIDs:   row.TimetableCalendarRowTeacherIDs,
		CreatedAt:    row.TimetableCalendarRowCreatedAt.Format(time.RFC3339),
	}
	if row.TimetableCalendarRowDate != nil {
		resp.Date = row.TimetableCalendarRowDate.Format(DateLayout)
	}
	if row.TimetableCalendarRowOverrideAction != nil {
		resp.Action = string(*row.TimetableCalendarRowOverrideAction)
	}
	if row.TimetableCalendarRowSubjectID != nil {
		s := row.TimetableCalendarRowSubjectID.String()
		resp.SubjectID = &s
	}
	if row.TimetableCalendarRowRoomID != nil {
		s := row.TimetableCalendarRowRoomID.String()
		resp.RoomID = &s
	}
	return resp
}

// ParseUUIDs mem-parse daftar uuid string sekali jalan.
func ParseUUIDs(in []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(in))
	for _, s := range in {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
