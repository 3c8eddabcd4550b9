package services

import (
	"testing"
	"time"

	amodel "sekolahku_backend/internals/features/school/academics/model"
	m "sekolahku_backend/internals/features/school/timetables/model"

	"github.com/google/uuid"
)

var (
	projSchoolID  = uuid.MustParse("22222222-2222-2222-2222-222222222222")
	projClassID   = uuid.MustParse("33333333-3333-3333-3333-333333333333")
	projTeacher1  = uuid.MustParse("44444444-0000-0000-0000-000000000001")
	projTeacher2  = uuid.MustParse("44444444-0000-0000-0000-000000000002")
	projTeacher3  = uuid.MustParse("44444444-0000-0000-0000-000000000003")
	projStudent1  = uuid.MustParse("55555555-0000-0000-0000-000000000001")
	projStudent2  = uuid.MustParse("55555555-0000-0000-0000-000000000002")
	projSubjAlias = uuid.MustParse("66666666-0000-0000-0000-00000000000a")
)

func projCaches() *ProjectionCaches {
	return &ProjectionCaches{
		SubjectActual: map[uuid.UUID]uuid.UUID{
			testSubjectA:  testSubjectA,
			testSubjectB:  testSubjectB,
			projSubjAlias: testSubjectA, // alias → mapel aktual A
		},
		SubjectNames: map[uuid.UUID]string{
			testSubjectA: "Matematika",
			testSubjectB: "Bahasa Indonesia",
		},
		Assignments: map[assignKey][]assignedTeacher{
			{projClassID, testSubjectA}: {
				{TeacherID: projTeacher1, Term: amodel.AssignmentTermFullYear},
				{TeacherID: projTeacher2, Term: amodel.AssignmentTermFirst},
				{TeacherID: projTeacher3, Term: amodel.AssignmentTermSecond},
			},
		},
		TeacherNames: map[uuid.UUID]string{
			projTeacher1: "Pak Budi",
			projTeacher2: "Bu Sari",
			projTeacher3: "Pak Andi",
		},
		Roster:     map[uuid.UUID][]uuid.UUID{projClassID: {projStudent1, projStudent2}},
		ClassNames: map[uuid.UUID]string{projClassID: "7A"},
		RoomNames:  map[uuid.UUID]string{},
		SlotTimes:  map[int]slotTime{},
	}
}

func projInstance(start, end time.Time) *m.TimetableInstanceModel {
	return &m.TimetableInstanceModel{
		TimetableInstanceID:        testInstanceID,
		TimetableInstanceSchoolID:  projSchoolID,
		TimetableInstanceClassID:   projClassID,
		TimetableInstanceStartDate: start,
		TimetableInstanceEndDate:   end,
	}
}

func TestResolveTeachers_ExplicitWins(t *testing.T) {
	c := projCaches()
	got := c.ResolveTeachers(projClassID, testSubjectA, []string{projTeacher3.String()}, 1)
	if len(got) != 1 || got[0] != projTeacher3 {
		t.Fatalf("guru eksplisit harus menang atas penugasan: %v", got)
	}
	// string bukan uuid diabaikan
	got = c.ResolveTeachers(projClassID, testSubjectA, []string{"bukan-uuid"}, 1)
	if len(got) != 0 {
		t.Fatalf("id guru tidak valid harus diabaikan: %v", got)
	}
}

func TestResolveTeachers_FullYearThenSemesterMaxTwo(t *testing.T) {
	c := projCaches()

	// semester 1: full_year dulu, lalu term_1; term_2 tidak ikut
	got := c.ResolveTeachers(projClassID, testSubjectA, nil, 1)
	if len(got) != 2 || got[0] != projTeacher1 || got[1] != projTeacher2 {
		t.Fatalf("semester 1 mau [t1 t2], dapat %v", got)
	}

	// semester 2: full_year lalu term_2
	got = c.ResolveTeachers(projClassID, testSubjectA, nil, 2)
	if len(got) != 2 || got[0] != projTeacher1 || got[1] != projTeacher3 {
		t.Fatalf("semester 2 mau [t1 t3], dapat %v", got)
	}

	// tidak ada penugasan sama sekali
	got = c.ResolveTeachers(projClassID, testSubjectB, nil, 1)
	if len(got) != 0 {
		t.Fatalf("tanpa penugasan harus kosong, dapat %v", got)
	}
}

func TestBuildInstanceEntries_FanOut(t *testing.T) {
	year := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	inst := projInstance(year, end)
	rows := []m.TimetableCalendarRowModel{
		// senin jam 1, tanpa guru eksplisit → resolve penugasan (2 guru)
		patternRow("00000000-0000-0000-0000-000000000001", 1, 1, year, end, &testSubjectA),
	}

	te, se, stats := BuildInstanceEntries(inst, rows, projCaches(), 1, ProjectionRange{Start: weekMon, End: weekSun})

	if stats.TeacherRows != 2 || len(te) != 2 {
		t.Fatalf("2 guru ter-resolve harus jadi 2 baris guru, stats=%+v", stats)
	}
	if stats.StudentRows != 2 || len(se) != 2 {
		t.Fatalf("2 siswa di roster harus jadi 2 baris siswa, stats=%+v", stats)
	}
	if te[0].TeacherTimetableEntryClassName != "7A" || te[0].TeacherTimetableEntrySubjectName != "Matematika" {
		t.Errorf("snapshot nama salah: %+v", te[0])
	}
	if !te[0].TeacherTimetableEntryDate.Equal(weekMon) || te[0].TeacherTimetableEntryDayOfWeek != 1 {
		t.Errorf("tanggal slot salah: %+v", te[0])
	}
	if len(se[0].StudentTimetableEntryTeacherIDs) != 2 {
		t.Errorf("baris siswa harus bawa kedua guru: %+v", se[0].StudentTimetableEntryTeacherIDs)
	}
}

func TestBuildInstanceEntries_AliasSubjectMapsToActual(t *testing.T) {
	year := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	inst := projInstance(year, end)
	rows := []m.TimetableCalendarRowModel{
		patternRow("00000000-0000-0000-0000-000000000001", 1, 1, year, end, &projSubjAlias),
	}

	te, _, _ := BuildInstanceEntries(inst, rows, projCaches(), 1, ProjectionRange{Start: weekMon, End: weekSun})
	if len(te) == 0 {
		t.Fatal("alias harus ter-resolve lewat mapel aktual")
	}
	if te[0].TeacherTimetableEntrySubjectID != testSubjectA {
		t.Errorf("entry harus menyimpan mapel aktual, dapat %v", te[0].TeacherTimetableEntrySubjectID)
	}
	if te[0].TeacherTimetableEntrySubjectName != "Matematika" {
		t.Errorf("nama mapel harus dari mapel aktual: %q", te[0].TeacherTimetableEntrySubjectName)
	}
}

func TestBuildInstanceEntries_SkipCounters(t *testing.T) {
	year := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	inst := projInstance(year, end)
	rows := []m.TimetableCalendarRowModel{
		// tanpa mapel
		patternRow("00000000-0000-0000-0000-000000000001", 1, 1, year, end, nil),
		// mapel tanpa penugasan & tanpa guru eksplisit
		patternRow("00000000-0000-0000-0000-000000000002", 1, 2, year, end, &testSubjectB),
	}

	te, se, stats := BuildInstanceEntries(inst, rows, projCaches(), 1, ProjectionRange{Start: weekMon, End: weekSun})
	if len(te) != 0 || len(se) != 0 {
		t.Fatalf("kedua slot harus di-skip: te=%d se=%d", len(te), len(se))
	}
	if stats.SkippedNoSubject != 1 || stats.SkippedNoTeacher != 1 {
		t.Errorf("counter skip salah: %+v", stats)
	}
}

func TestBuildInstanceEntries_ClampedToInstanceDates(t *testing.T) {
	// instance cuma berlaku rabu..jumat di pekan uji
	wed := weekMon.AddDate(0, 0, 2)
	fri := weekMon.AddDate(0, 0, 4)
	inst := projInstance(wed, fri)
	rows := []m.TimetableCalendarRowModel{
		// pola senin & kamis, validitas lebar
		patternRow("00000000-0000-0000-0000-000000000001", 1, 1, weekMon.AddDate(0, -6, 0), weekMon.AddDate(0, 6, 0), &testSubjectA),
		patternRow("00000000-0000-0000-0000-000000000002", 4, 1, weekMon.AddDate(0, -6, 0), weekMon.AddDate(0, 6, 0), &testSubjectA),
	}

	te, _, _ := BuildInstanceEntries(inst, rows, projCaches(), 1, ProjectionRange{Start: weekMon, End: weekSun})
	for _, e := range te {
		if e.TeacherTimetableEntryDate.Before(wed) || e.TeacherTimetableEntryDate.After(fri) {
			t.Fatalf("entry keluar masa berlaku instance: %v", e.TeacherTimetableEntryDate)
		}
	}
	// hanya kamis yang jatuh di rabu..jumat; tiap slot jadi 1 baris per guru
	if len(te) != 2 {
		t.Errorf("mau 2 baris guru (kamis x 2 guru), dapat %d", len(te))
	}

	// rentang sepenuhnya di luar masa berlaku → kosong
	te, se, stats := BuildInstanceEntries(inst, rows, projCaches(), 1,
		ProjectionRange{Start: weekMon.AddDate(1, 0, 0), End: weekSun.AddDate(1, 0, 0)})
	if len(te) != 0 || len(se) != 0 || stats.TeacherRows != 0 {
		t.Errorf("rentang di luar instance harus kosong: %+v", stats)
	}
}
