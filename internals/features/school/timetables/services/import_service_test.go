// file: internals/features/school/timetables/services/import_service_test.go
package services

import (
	"errors"
	"testing"
	"time"

	m "sekolahku_backend/internals/features/school/timetables/model"
)

/* =========================================================
   resolveRowTeachers: baris tanpa guru eksplisit harus menyimpan
   guru hasil penugasan di calendar row
   ========================================================= */

func TestResolveRowTeachers_ExplicitWins(t *testing.T) {
	caches := projCaches()
	got := resolveRowTeachers(caches, projClassID, testSubjectA, []string{projTeacher3.String()}, 1)
	if len(got) != 1 || got[0] != projTeacher3.String() {
		t.Fatalf("guru eksplisit harus dipakai apa adanya, dapat %v", got)
	}
}

func TestResolveRowTeachers_AssignmentFallback(t *testing.T) {
	caches := projCaches()

	got := resolveRowTeachers(caches, projClassID, testSubjectA, nil, 1)
	if len(got) != 2 || got[0] != projTeacher1.String() || got[1] != projTeacher2.String() {
		t.Fatalf("semester 1 harus resolve [full_year, term_1], dapat %v", got)
	}

	// mapel alias ikut ter-resolve lewat mapel aktualnya
	got = resolveRowTeachers(caches, projClassID, projSubjAlias, nil, 2)
	if len(got) != 2 || got[0] != projTeacher1.String() || got[1] != projTeacher3.String() {
		t.Fatalf("alias semester 2 harus resolve [full_year, term_2], dapat %v", got)
	}
}

// Slot yang gurunya hanya dari penugasan harus tetap ketemu di resolusi
// pekan guru (jalur fallback saat tabel proyeksi kosong): calendar row
// menyimpan guru hasil resolusi, bukan daftar kosong.
func TestWeekFallbackFindsAssignmentTeacher(t *testing.T) {
	caches := projCaches()

	teacherIDs := resolveRowTeachers(caches, projClassID, testSubjectA, nil, 1)
	if len(teacherIDs) == 0 {
		t.Fatal("resolusi penugasan tidak boleh kosong untuk fixture ini")
	}
	row := patternRow("cccccccc-0000-0000-0000-000000000001", 1, 1,
		weekMon.AddDate(0, -1, 0), weekSun.AddDate(0, 1, 0), &testSubjectA, teacherIDs...)

	entries, _ := ResolveWeek([]m.TimetableCalendarRowModel{row}, weekMon, weekSun)
	if len(entries) != 1 {
		t.Fatalf("harus ada 1 slot senin, dapat %d", len(entries))
	}

	// filter yang sama dengan jalur pekan guru
	found := false
	for _, id := range entries[0].TeacherIDs {
		if id == projTeacher1.String() {
			found = true
		}
	}
	if !found {
		t.Fatalf("fallback pekan guru harus memuat guru %s, TeacherIDs=%v",
			projTeacher1, entries[0].TeacherIDs)
	}
	if entries[0].Incomplete {
		t.Fatal("slot dengan guru hasil penugasan tidak boleh incomplete")
	}
}

/* =========================================================
   Aturan no-backdate per instance
   ========================================================= */

func TestCheckInstanceRegression(t *testing.T) {
	mar1 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	jan10 := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	err := checkInstanceRegression(mar1, jan10, false)
	var rr *RangeRegressionError
	if !errors.As(err, &rr) {
		t.Fatalf("mundur dari start instance harus RangeRegressionError, dapat %v", err)
	}
	if !rr.Requested.Equal(jan10) || !rr.Committed.Equal(mar1) {
		t.Fatalf("error harus membawa tanggal yang bertabrakan: %+v", rr)
	}

	if err := checkInstanceRegression(mar1, jan10, true); err != nil {
		t.Fatalf("allow_backdate harus meloloskan: %v", err)
	}
	if err := checkInstanceRegression(mar1, mar1, false); err != nil {
		t.Fatalf("tanggal sama bukan regresi: %v", err)
	}
	if err := checkInstanceRegression(jan10, mar1, false); err != nil {
		t.Fatalf("maju dari start instance bukan regresi: %v", err)
	}
}
