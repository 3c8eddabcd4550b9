//go:build integration

// file: internals/features/school/timetables/services/projection_integration_test.go
package services

import (
	"context"
	"os"
	"testing"
	"time"

	m "sekolahku_backend/internals/features/school/timetables/model"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Jalankan dengan: TIMETABLE_TEST_DSN=postgres://... go test -tags integration ./...

func integrationDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TIMETABLE_TEST_DSN")
	if dsn == "" {
		t.Skip("TIMETABLE_TEST_DSN is not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		t.Fatalf("create extension: %v", err)
	}
	if err := db.AutoMigrate(
		&m.TimetableCalendarRowModel{},
		&m.TeacherTimetableEntryModel{},
		&m.StudentTimetableEntryModel{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func wipeProjectionFixtures(t *testing.T, db *gorm.DB, instanceID uuid.UUID) {
	t.Helper()
	for _, stmt := range []string{
		`DELETE FROM teacher_timetable_entries WHERE teacher_timetable_entry_instance_id = ?`,
		`DELETE FROM student_timetable_entries WHERE student_timetable_entry_instance_id = ?`,
		`DELETE FROM timetable_calendar_rows WHERE timetable_calendar_row_instance_id = ?`,
	} {
		if err := db.Exec(stmt, instanceID).Error; err != nil {
			t.Fatalf("cleanup: %v", err)
		}
	}
}

type entryKey struct {
	Teacher uuid.UUID
	Date    string
	Period  int
}

func teacherEntrySet(t *testing.T, db *gorm.DB, instanceID uuid.UUID) map[entryKey]bool {
	t.Helper()
	var rows []m.TeacherTimetableEntryModel
	if err := db.Where("teacher_timetable_entry_instance_id = ?", instanceID).
		Find(&rows).Error; err != nil {
		t.Fatalf("load entries: %v", err)
	}
	out := map[entryKey]bool{}
	for i := range rows {
		out[entryKey{
			Teacher: rows[i].TeacherTimetableEntryTeacherID,
			Date:    rows[i].TeacherTimetableEntryDate.Format("2006-01-02"),
			Period:  rows[i].TeacherTimetableEntryPeriodNumber,
		}] = true
	}
	return out
}

func TestProjectInstance_Integration_IdempotentAndRangeBounded(t *testing.T) {
	db := integrationDB(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	instanceID := uuid.New()
	wipeProjectionFixtures(t, db, instanceID)
	defer wipeProjectionFixtures(t, db, instanceID)

	jan5 := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)  // senin
	jan11 := time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC)
	feb1 := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	inst := &m.TimetableInstanceModel{
		TimetableInstanceID:        instanceID,
		TimetableInstanceSchoolID:  projSchoolID,
		TimetableInstanceClassID:   projClassID,
		TimetableInstanceStartDate: jan5,
		TimetableInstanceEndDate:   feb1,
	}

	// satu pola senin jam ke-1 dengan guru eksplisit
	vf, vt := jan5, feb1
	subj := testSubjectA
	pattern := m.TimetableCalendarRowModel{
		TimetableCalendarRowSchoolID:     projSchoolID,
		TimetableCalendarRowInstanceID:   instanceID,
		TimetableCalendarRowKind:         m.CalendarRowKindPattern,
		TimetableCalendarRowDayOfWeek:    1,
		TimetableCalendarRowPeriodNumber: 1,
		TimetableCalendarRowSubjectID:    &subj,
		TimetableCalendarRowTeacherIDs:   pq.StringArray{projTeacher1.String()},
		TimetableCalendarRowValidFrom:    &vf,
		TimetableCalendarRowValidTo:      &vt,
	}
	if err := db.Create(&pattern).Error; err != nil {
		t.Fatalf("seed pattern: %v", err)
	}

	// entry basi DI DALAM rentang (slot yang tidak dihasilkan pola) dan
	// entry valid DI LUAR rentang proyeksi (coverage lama)
	stale := seedTeacherEntry(t, db, instanceID, projTeacher2, jan5.AddDate(0, 0, 2), 5)
	outside := seedTeacherEntry(t, db, instanceID, projTeacher1, jan5.AddDate(0, 0, 15), 1) // 20 jan

	svc := NewProjectionService(db)
	rng := ProjectionRange{Start: jan5, End: jan11}
	stats, err := svc.ProjectInstance(ctx, inst, projCaches(), 1, rng, ProjectionOptions{})
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if stats.TeacherRows != 1 {
		t.Fatalf("satu slot senin x satu guru harus 1 row, dapat %d", stats.TeacherRows)
	}

	got := teacherEntrySet(t, db, instanceID)
	if !got[entryKey{projTeacher1, "2026-01-05", 1}] {
		t.Fatalf("entry senin hilang: %v", got)
	}
	if got[entryKey{projTeacher2, stale, 5}] {
		t.Fatal("entry basi di dalam rentang harus terhapus")
	}
	if !got[entryKey{projTeacher1, outside, 1}] {
		t.Fatal("entry di luar rentang harus selamat dari delete")
	}

	// idempoten: diulang dengan input sama → set identik
	if _, err := svc.ProjectInstance(ctx, inst, projCaches(), 1, rng, ProjectionOptions{}); err != nil {
		t.Fatalf("replay: %v", err)
	}
	again := teacherEntrySet(t, db, instanceID)
	if len(again) != len(got) {
		t.Fatalf("replay mengubah jumlah entry: %d → %d", len(got), len(again))
	}
	for k := range got {
		if !again[k] {
			t.Fatalf("replay menghilangkan entry %+v", k)
		}
	}

	// mode shrink: yang di LUAR rentang dibuang, dalam rentang utuh
	if _, err := svc.ProjectInstance(ctx, inst, projCaches(), 1, rng, ProjectionOptions{Shrink: true}); err != nil {
		t.Fatalf("shrink: %v", err)
	}
	shrunk := teacherEntrySet(t, db, instanceID)
	if shrunk[entryKey{projTeacher1, outside, 1}] {
		t.Fatal("shrink harus menghapus entry di luar rentang")
	}
	if !shrunk[entryKey{projTeacher1, "2026-01-05", 1}] {
		t.Fatal("shrink tidak boleh menyentuh entry di dalam rentang")
	}
}

// seedTeacherEntry menanam satu entry langsung; balikannya tanggal
// dalam format kunci set.
func seedTeacherEntry(t *testing.T, db *gorm.DB, instanceID, teacherID uuid.UUID, date time.Time, period int) string {
	t.Helper()
	row := m.TeacherTimetableEntryModel{
		TeacherTimetableEntrySchoolID:     projSchoolID,
		TeacherTimetableEntryTeacherID:    teacherID,
		TeacherTimetableEntryDate:         date,
		TeacherTimetableEntryPeriodNumber: period,
		TeacherTimetableEntryClassID:      projClassID,
		TeacherTimetableEntrySubjectID:    testSubjectA,
		TeacherTimetableEntryDayOfWeek:    isoWeekday(date),
		TeacherTimetableEntryClassName:    "7A",
		TeacherTimetableEntrySubjectName:  "Matematika",
		TeacherTimetableEntryInstanceID:   instanceID,
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("seed entry: %v", err)
	}
	return date.Format("2006-01-02")
}
