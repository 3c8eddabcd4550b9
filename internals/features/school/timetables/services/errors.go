// file: internals/features/school/timetables/services/errors.go
package services

import (
	"fmt"
	"time"
)

/* =========================================================
   Error taxonomy
   - ValidationError      : payload import tidak sehat (per baris)
   - ReferentialError     : referensi (kelas/mapel/guru/ruang) tidak ada
   - RangeRegressionError : valid_from mundur dari coverage yang sudah commit
   - ReconciliationError  : gagal menata interval pola
   - ProjectionError      : gagal membangun tabel baca (jadwal tetap commit)
   ========================================================= */

type ValidationError struct {
	Row     int // 0 = level payload, >0 = index baris (1-based)
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("validasi baris %d: %s: %s", e.Row, e.Field, e.Message)
	}
	return fmt.Sprintf("validasi: %s: %s", e.Field, e.Message)
}

type ReferentialError struct {
	Entity string // "class" | "subject" | "teacher" | "room"
	Ref    string // kode/slug yang tidak ketemu
	Row    int
}

func (e *ReferentialError) Error() string {
	return fmt.Sprintf("referensi %s %q tidak ditemukan (baris %d)", e.Entity, e.Ref, e.Row)
}

type RangeRegressionError struct {
	Requested time.Time // valid_from yang diminta
	Committed time.Time // batas coverage yang sudah commit
}

func (e *RangeRegressionError) Error() string {
	return fmt.Sprintf("valid_from %s mundur dari coverage yang sudah commit (%s); pakai allow_backdate untuk memaksa",
		e.Requested.Format("2006-01-02"), e.Committed.Format("2006-01-02"))
}

type ReconciliationError struct {
	InstanceID string
	Err        error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("rekonsiliasi instance %s: %v", e.InstanceID, e.Err)
}

func (e *ReconciliationError) Unwrap() error { return e.Err }

type ProjectionError struct {
	InstanceID string
	Err        error
}

func (e *ProjectionError) Error() string {
	return fmt.Sprintf("proyeksi instance %s: %v", e.InstanceID, e.Err)
}

func (e *ProjectionError) Unwrap() error { return e.Err }
