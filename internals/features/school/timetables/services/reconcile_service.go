// file: internals/features/school/timetables/services/reconcile_service.go
package services

import (
	"time"

	m "sekolahku_backend/internals/features/school/timetables/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* =========================================================
   Rekonsiliasi interval pola
   Import baru membawa rentang [newFrom, newTo] (inklusif). Setiap
   interval pola tersimpan dipangkas supaya tidak beririsan dengan
   rentang baru; hasil akhirnya: interval per slot tetap saling lepas.

   4 kasus per interval lama [oF, oT]:
     1. newFrom<=oF && oT<=newTo  → hapus (tertelan penuh)
     2. oF<newFrom && newTo<oT    → belah: [oF, newFrom-1] + [newTo+1, oT]
     3. oF<newFrom && newFrom<=oT → potong ekor: valid_to = newFrom-1
     4. newFrom<=oF && oF<=newTo  → potong kepala: valid_from = newTo+1
   Interval degenerate (from > to) dibuang.
   ========================================================= */

type PatternInterval struct {
	RowID uuid.UUID
	From  time.Time
	To    time.Time
}

type Truncation struct {
	RowID   uuid.UUID
	NewFrom time.Time
	NewTo   time.Time
}

type ClonedInterval struct {
	SourceRowID uuid.UUID
	From        time.Time
	To          time.Time
}

type ReconcilePlan struct {
	Delete   []uuid.UUID
	Truncate []Truncation
	Clone    []ClonedInterval
}

func (p ReconcilePlan) IsEmpty() bool {
	return len(p.Delete) == 0 && len(p.Truncate) == 0 && len(p.Clone) == 0
}

func addDays(t time.Time, n int) time.Time { return t.AddDate(0, 0, n) }

// PlanReconcile murni: hitung aksi tanpa menyentuh DB.
func PlanReconcile(existing []PatternInterval, newFrom, newTo time.Time) ReconcilePlan {
	var plan ReconcilePlan
	for _, iv := range existing {
		// tidak beririsan → biarkan
		if iv.To.Before(newFrom) || iv.From.After(newTo) {
			continue
		}

		containsWhole := !newFrom.After(iv.From) && !iv.To.After(newTo) // kasus 1
		strictlyInside := iv.From.Before(newFrom) && newTo.Before(iv.To) // kasus 2

		switch {
		case containsWhole:
			plan.Delete = append(plan.Delete, iv.RowID)

		case strictlyInside:
			head := Truncation{RowID: iv.RowID, NewFrom: iv.From, NewTo: addDays(newFrom, -1)}
			tail := ClonedInterval{SourceRowID: iv.RowID, From: addDays(newTo, 1), To: iv.To}
			if head.NewTo.Before(head.NewFrom) {
				// degenerate: kepala hilang, sisakan ekor di row yang sama
				plan.Truncate = append(plan.Truncate, Truncation{RowID: iv.RowID, NewFrom: tail.From, NewTo: tail.To})
				continue
			}
			plan.Truncate = append(plan.Truncate, head)
			if !tail.To.Before(tail.From) {
				plan.Clone = append(plan.Clone, tail)
			}

		case iv.From.Before(newFrom): // kasus 3: overlap ekor
			nt := addDays(newFrom, -1)
			if nt.Before(iv.From) {
				plan.Delete = append(plan.Delete, iv.RowID)
				continue
			}
			plan.Truncate = append(plan.Truncate, Truncation{RowID: iv.RowID, NewFrom: iv.From, NewTo: nt})

		default: // kasus 4: overlap kepala
			nf := addDays(newTo, 1)
			if iv.To.Before(nf) {
				plan.Delete = append(plan.Delete, iv.RowID)
				continue
			}
			plan.Truncate = append(plan.Truncate, Truncation{RowID: iv.RowID, NewFrom: nf, NewTo: iv.To})
		}
	}
	return plan
}

type ReconcileStats struct {
	RowsDeleted   int `json:"rows_deleted"`
	RowsTruncated int `json:"rows_truncated"`
	RowsSplit     int `json:"rows_split"`
}

func (s *ReconcileStats) Add(o ReconcileStats) {
	s.RowsDeleted += o.RowsDeleted
	s.RowsTruncated += o.RowsTruncated
	s.RowsSplit += o.RowsSplit
}

// ReconcileInstancePatterns memangkas semua baris pola satu instance
// terhadap rentang import baru, di dalam transaksi pemanggil.
// Import baru mengganti penuh grid di rentangnya, jadi pemangkasan
// berlaku untuk seluruh slot instance, bukan hanya slot yang ada di file.
func ReconcileInstancePatterns(tx *gorm.DB, instanceID uuid.UUID, newFrom, newTo time.Time) (ReconcileStats, error) {
	var stats ReconcileStats

	var rows []m.TimetableCalendarRowModel
	if err := tx.
		Where("timetable_calendar_row_instance_id = ? AND timetable_calendar_row_kind = ?",
			instanceID, m.CalendarRowKindPattern).
		Find(&rows).Error; err != nil {
		return stats, err
	}
	if len(rows) == 0 {
		return stats, nil
	}

	byID := make(map[uuid.UUID]*m.TimetableCalendarRowModel, len(rows))
	intervals := make([]PatternInterval, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		if r.TimetableCalendarRowValidFrom == nil || r.TimetableCalendarRowValidTo == nil {
			continue
		}
		byID[r.TimetableCalendarRowID] = r
		intervals = append(intervals, PatternInterval{
			RowID: r.TimetableCalendarRowID,
			From:  *r.TimetableCalendarRowValidFrom,
			To:    *r.TimetableCalendarRowValidTo,
		})
	}

	plan := PlanReconcile(intervals, newFrom, newTo)
	if plan.IsEmpty() {
		return stats, nil
	}

	if len(plan.Delete) > 0 {
		res := tx.Where("timetable_calendar_row_id IN ?", plan.Delete).
			Delete(&m.TimetableCalendarRowModel{})
		if res.Error != nil {
			return stats, res.Error
		}
		stats.RowsDeleted = int(res.RowsAffected)
	}

	for _, t := range plan.Truncate {
		if err := tx.Model(&m.TimetableCalendarRowModel{}).
			Where("timetable_calendar_row_id = ?", t.RowID).
			Updates(map[string]any{
				"timetable_calendar_row_valid_from": t.NewFrom,
				"timetable_calendar_row_valid_to":   t.NewTo,
			}).Error; err != nil {
			return stats, err
		}
		stats.RowsTruncated++
	}

	for _, c := range plan.Clone {
		src, ok := byID[c.SourceRowID]
		if !ok {
			continue
		}
		clone := *src
		clone.TimetableCalendarRowID = uuid.New()
		from, to := c.From, c.To
		clone.TimetableCalendarRowValidFrom = &from
		clone.TimetableCalendarRowValidTo = &to
		clone.TimetableCalendarRowCreatedAt = time.Time{}
		clone.TimetableCalendarRowUpdatedAt = time.Time{}
		if err := tx.Create(&clone).Error; err != nil {
			return stats, err
		}
		stats.RowsSplit++
	}

	return stats, nil
}
