package services

import (
	"testing"
	"time"

	m "sekolahku_backend/internals/features/school/timetables/model"

	"github.com/google/uuid"
)

// pekan uji: senin 2026-01-05 .. minggu 2026-01-11
var (
	testInstanceID = uuid.MustParse("11111111-1111-1111-1111-111111111111")
	testSubjectA   = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000001")
	testSubjectB   = uuid.MustParse("aaaaaaaa-0000-0000-0000-000000000002")
	weekMon        = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	weekSun        = time.Date(2026, 1, 11, 0, 0, 0, 0, time.UTC)
)

func patternRow(id string, dow, period int, from, to time.Time, subject *uuid.UUID, teachers ...string) m.TimetableCalendarRowModel {
	f, t := from, to
	return m.TimetableCalendarRowModel{
		TimetableCalendarRowID:           uuid.MustParse(id),
		TimetableCalendarRowInstanceID:   testInstanceID,
		TimetableCalendarRowKind:         m.CalendarRowKindPattern,
		TimetableCalendarRowDayOfWeek:    dow,
		TimetableCalendarRowPeriodNumber: period,
		TimetableCalendarRowSubjectID:    subject,
		TimetableCalendarRowTeacherIDs:   teachers,
		TimetableCalendarRowValidFrom:    &f,
		TimetableCalendarRowValidTo:      &t,
	}
}

func overrideRow(id string, date time.Time, period int, action m.OverrideActionEnum, subject *uuid.UUID, teachers ...string) m.TimetableCalendarRowModel {
	d := date
	a := action
	return m.TimetableCalendarRowModel{
		TimetableCalendarRowID:             uuid.MustParse(id),
		TimetableCalendarRowInstanceID:     testInstanceID,
		TimetableCalendarRowKind:           m.CalendarRowKindOverride,
		TimetableCalendarRowDayOfWeek:      isoWeekday(date),
		TimetableCalendarRowPeriodNumber:   period,
		TimetableCalendarRowSubjectID:      subject,
		TimetableCalendarRowTeacherIDs:     teachers,
		TimetableCalendarRowDate:           &d,
		TimetableCalendarRowOverrideAction: &a,
	}
}

func TestWeekBounds(t *testing.T) {
	cases := []struct {
		anchor time.Time
		start  time.Time
	}{
		{weekMon, weekMon},                                         // senin
		{time.Date(2026, 1, 8, 13, 45, 0, 0, time.UTC), weekMon},   // kamis, jam dibuang
		{weekSun, weekMon},                                         // minggu
		{time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC), weekSun.AddDate(0, 0, 1)}, // senin berikutnya
	}
	for _, c := range cases {
		ws, we := WeekBounds(c.anchor)
		if !ws.Equal(c.start) {
			t.Errorf("WeekBounds(%v) start = %v, mau %v", c.anchor, ws, c.start)
		}
		if !we.Equal(c.start.AddDate(0, 0, 6)) {
			t.Errorf("WeekBounds(%v) end = %v, mau %v", c.anchor, we, c.start.AddDate(0, 0, 6))
		}
		if isoWeekday(ws) != 1 || isoWeekday(we) != 7 {
			t.Errorf("WeekBounds(%v) bukan senin..minggu", c.anchor)
		}
	}
}

func TestResolveWeek_PatternExpansion(t *testing.T) {
	year := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

	rows := []m.TimetableCalendarRowModel{
		patternRow("00000000-0000-0000-0000-000000000001", 1, 1, year, yearEnd, &testSubjectA, "t1"),
		patternRow("00000000-0000-0000-0000-000000000002", 1, 2, year, yearEnd, &testSubjectB, "t1"),
		patternRow("00000000-0000-0000-0000-000000000003", 3, 1, year, yearEnd, &testSubjectA, "t2"),
	}

	entries, warns := ResolveWeek(rows, weekMon, weekSun)
	if len(warns) != 0 {
		t.Fatalf("tidak boleh ada warning: %v", warns)
	}
	if len(entries) != 3 {
		t.Fatalf("mau 3 slot, dapat %d: %+v", len(entries), entries)
	}
	// terurut (tanggal, jam ke-)
	if entries[0].PeriodNumber != 1 || entries[1].PeriodNumber != 2 {
		t.Errorf("urutan slot senin salah: %+v", entries[:2])
	}
	if !entries[0].Date.Equal(weekMon) || entries[2].DayOfWeek != 3 {
		t.Errorf("ekspansi tanggal salah: %+v", entries)
	}
	if entries[0].Incomplete {
		t.Errorf("slot dengan guru tidak boleh incomplete")
	}
}

func TestResolveWeek_PatternOutsideValidityDropped(t *testing.T) {
	old := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	oldEnd := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	rows := []m.TimetableCalendarRowModel{
		patternRow("00000000-0000-0000-0000-000000000001", 1, 1, old, oldEnd, &testSubjectA, "t1"),
	}
	entries, _ := ResolveWeek(rows, weekMon, weekSun)
	if len(entries) != 0 {
		t.Fatalf("pola kadaluarsa tidak boleh tayang: %+v", entries)
	}
}

func TestResolveWeek_OverrideReplaceAndRemove(t *testing.T) {
	year := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	tue := weekMon.AddDate(0, 0, 1)

	rows := []m.TimetableCalendarRowModel{
		patternRow("00000000-0000-0000-0000-000000000001", 1, 1, year, yearEnd, &testSubjectA, "t1"),
		patternRow("00000000-0000-0000-0000-000000000002", 2, 1, year, yearEnd, &testSubjectA, "t1"),
		// senin jam 1: diganti mapel B guru t9
		overrideRow("00000000-0000-0000-0000-000000000011", weekMon, 1, m.OverrideActionReplace, &testSubjectB, "t9"),
		// selasa jam 1: ditiadakan
		overrideRow("00000000-0000-0000-0000-000000000012", tue, 1, m.OverrideActionRemove, nil),
	}

	entries, _ := ResolveWeek(rows, weekMon, weekSun)
	if len(entries) != 1 {
		t.Fatalf("mau 1 slot (selasa hilang), dapat %d: %+v", len(entries), entries)
	}
	e := entries[0]
	if !e.IsOverride || e.SubjectID == nil || *e.SubjectID != testSubjectB {
		t.Errorf("override replace tidak menang: %+v", e)
	}
	if len(e.TeacherIDs) != 1 || e.TeacherIDs[0] != "t9" {
		t.Errorf("guru harus dari override, bukan pola: %+v", e.TeacherIDs)
	}
}

func TestResolveWeek_OrphanOverrideStillShown(t *testing.T) {
	// override di slot yang tidak punya pola sama sekali
	rows := []m.TimetableCalendarRowModel{
		overrideRow("00000000-0000-0000-0000-000000000011", weekMon, 3, m.OverrideActionReplace, &testSubjectA, "t1"),
	}
	entries, _ := ResolveWeek(rows, weekMon, weekSun)
	if len(entries) != 1 || !entries[0].IsOverride || entries[0].PeriodNumber != 3 {
		t.Fatalf("override yatim harus tetap tayang: %+v", entries)
	}
}

func TestResolveWeek_DuplicatePatternPriority(t *testing.T) {
	older := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

	// valid_from terbesar menang
	rows := []m.TimetableCalendarRowModel{
		patternRow("00000000-0000-0000-0000-000000000001", 1, 1, older, end, &testSubjectA, "t1"),
		patternRow("00000000-0000-0000-0000-000000000002", 1, 1, newer, end, &testSubjectB, "t2"),
	}
	entries, warns := ResolveWeek(rows, weekMon, weekSun)
	if len(entries) != 1 {
		t.Fatalf("duplikat harus terdedup jadi 1: %+v", entries)
	}
	if *entries[0].SubjectID != testSubjectB {
		t.Errorf("valid_from terbesar harus menang, dapat subject %v", entries[0].SubjectID)
	}
	if len(warns) != 1 {
		t.Errorf("duplikat harus menghasilkan 1 warning, dapat %v", warns)
	}

	// seri valid_from → yang punya guru menang
	rows = []m.TimetableCalendarRowModel{
		patternRow("00000000-0000-0000-0000-000000000001", 1, 1, newer, end, &testSubjectA),
		patternRow("00000000-0000-0000-0000-000000000002", 1, 1, newer, end, &testSubjectB, "t2"),
	}
	entries, _ = ResolveWeek(rows, weekMon, weekSun)
	if *entries[0].SubjectID != testSubjectB {
		t.Errorf("kandidat ber-guru harus menang saat valid_from seri")
	}

	// seri semua → id terkecil (stabil walau urutan input dibalik)
	rows = []m.TimetableCalendarRowModel{
		patternRow("00000000-0000-0000-0000-000000000009", 1, 1, newer, end, &testSubjectA, "t1"),
		patternRow("00000000-0000-0000-0000-000000000002", 1, 1, newer, end, &testSubjectB, "t2"),
	}
	e1, _ := ResolveWeek(rows, weekMon, weekSun)
	rows[0], rows[1] = rows[1], rows[0]
	e2, _ := ResolveWeek(rows, weekMon, weekSun)
	if *e1[0].SubjectID != testSubjectB || *e2[0].SubjectID != testSubjectB {
		t.Errorf("id terkecil harus menang dan stabil: %v vs %v", e1[0].SubjectID, e2[0].SubjectID)
	}
}

func TestResolveWeek_IncompleteWithoutTeacher(t *testing.T) {
	year := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	rows := []m.TimetableCalendarRowModel{
		patternRow("00000000-0000-0000-0000-000000000001", 1, 1, year, end, &testSubjectA),
	}
	entries, _ := ResolveWeek(rows, weekMon, weekSun)
	if len(entries) != 1 || !entries[0].Incomplete {
		t.Fatalf("slot tanpa guru harus ditandai incomplete: %+v", entries)
	}
}
