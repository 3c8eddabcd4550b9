// file: internals/features/school/timetables/services/week_service.go
package services

import (
	"fmt"
	"log"
	"sort"
	"time"

	amodel "sekolahku_backend/internals/features/school/academics/model"
	"sekolahku_backend/internals/features/school/timetables/dto"
	m "sekolahku_backend/internals/features/school/timetables/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* =========================================================
   Resolusi pekan
   Pola + override → daftar slot tanggal untuk satu pekan.
   Override mengganti penuh slot pola di tanggalnya (remove = slot
   hilang). Kalau dua pola menutup tanggal yang sama di slot yang sama
   (data lama yang belum sempat direkonsiliasi), pemenang dipilih
   deterministik: valid_from terbesar → punya guru → id terkecil.
   ========================================================= */

type ResolvedEntry struct {
	Date         time.Time
	DayOfWeek    int
	PeriodNumber int
	InstanceID   uuid.UUID

	SubjectID  *uuid.UUID
	RoomID     *uuid.UUID
	TeacherIDs []string

	IsOverride bool
	Incomplete bool // tayang tanpa guru ter-resolve
}

func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// WeekBounds: senin..minggu yang memuat anchor (granularitas tanggal).
func WeekBounds(anchor time.Time) (time.Time, time.Time) {
	d := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, time.UTC)
	ws := addDays(d, -(isoWeekday(d) - 1))
	return ws, addDays(ws, 6)
}

func dateKey(t time.Time) string { return t.Format(dto.DateLayout) }

// ResolveWeek murni: rows milik SATU instance, hasil terurut
// (tanggal, jam ke-). Warning dikembalikan, bukan di-log, supaya
// pemanggil yang memutuskan.
func ResolveWeek(rows []m.TimetableCalendarRowModel, weekStart, weekEnd time.Time) ([]ResolvedEntry, []string) {
	var warnings []string

	type slotKey struct {
		date   string
		period int
	}

	overrides := make(map[slotKey]*m.TimetableCalendarRowModel)
	var patterns []*m.TimetableCalendarRowModel
	for i := range rows {
		r := &rows[i]
		switch {
		case r.IsOverride() && r.TimetableCalendarRowDate != nil:
			overrides[slotKey{dateKey(*r.TimetableCalendarRowDate), r.TimetableCalendarRowPeriodNumber}] = r
		case r.IsPattern():
			patterns = append(patterns, r)
		}
	}

	entries := make([]ResolvedEntry, 0, 64)
	seenOverride := make(map[slotKey]bool)

	for d := weekStart; !d.After(weekEnd); d = addDays(d, 1) {
		dow := isoWeekday(d)

		// kandidat pola per jam ke- untuk tanggal ini
		byPeriod := make(map[int][]*m.TimetableCalendarRowModel)
		for _, p := range patterns {
			if p.TimetableCalendarRowDayOfWeek != dow {
				continue
			}
			if p.TimetableCalendarRowValidFrom == nil || p.TimetableCalendarRowValidTo == nil {
				continue
			}
			if d.Before(*p.TimetableCalendarRowValidFrom) || d.After(*p.TimetableCalendarRowValidTo) {
				continue
			}
			byPeriod[p.TimetableCalendarRowPeriodNumber] = append(byPeriod[p.TimetableCalendarRowPeriodNumber], p)
		}

		for period, cands := range byPeriod {
			key := slotKey{dateKey(d), period}

			if ov, ok := overrides[key]; ok {
				seenOverride[key] = true
				if e := overrideEntry(ov, d, dow); e != nil {
					entries = append(entries, *e)
				}
				continue
			}

			win := pickPattern(cands)
			if len(cands) > 1 {
				warnings = append(warnings,
					fmt.Sprintf("pola ganda di %s jam ke-%d (%d kandidat), dipakai row %s",
						dateKey(d), period, len(cands), win.TimetableCalendarRowID))
			}

			entries = append(entries, ResolvedEntry{
				Date:         d,
				DayOfWeek:    dow,
				PeriodNumber: period,
				InstanceID:   win.TimetableCalendarRowInstanceID,
				SubjectID:    win.TimetableCalendarRowSubjectID,
				RoomID:       win.TimetableCalendarRowRoomID,
				TeacherIDs:   win.TimetableCalendarRowTeacherIDs,
				Incomplete:   len(win.TimetableCalendarRowTeacherIDs) == 0,
			})
		}
	}

	// override tanpa pola di bawahnya tetap tayang
	for key, ov := range overrides {
		if seenOverride[key] {
			continue
		}
		d := *ov.TimetableCalendarRowDate
		if d.Before(weekStart) || d.After(weekEnd) {
			continue
		}
		if e := overrideEntry(ov, d, isoWeekday(d)); e != nil {
			entries = append(entries, *e)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		return entries[i].PeriodNumber < entries[j].PeriodNumber
	})
	return entries, warnings
}

func overrideEntry(ov *m.TimetableCalendarRowModel, d time.Time, dow int) *ResolvedEntry {
	if ov.TimetableCalendarRowOverrideAction != nil &&
		*ov.TimetableCalendarRowOverrideAction == m.OverrideActionRemove {
		return nil
	}
	return &ResolvedEntry{
		Date:         d,
		DayOfWeek:    dow,
		PeriodNumber: ov.TimetableCalendarRowPeriodNumber,
		InstanceID:   ov.TimetableCalendarRowInstanceID,
		SubjectID:    ov.TimetableCalendarRowSubjectID,
		RoomID:       ov.TimetableCalendarRowRoomID,
		TeacherIDs:   ov.TimetableCalendarRowTeacherIDs,
		IsOverride:   true,
		Incomplete:   len(ov.TimetableCalendarRowTeacherIDs) == 0,
	}
}

// pickPattern: valid_from terbesar menang; seri → yang punya guru;
// masih seri → id terkecil (stabil).
func pickPattern(cands []*m.TimetableCalendarRowModel) *m.TimetableCalendarRowModel {
	win := cands[0]
	for _, c := range cands[1:] {
		if patternLess(win, c) {
			win = c
		}
	}
	return win
}

func patternLess(a, b *m.TimetableCalendarRowModel) bool {
	af, bf := a.TimetableCalendarRowValidFrom, b.TimetableCalendarRowValidFrom
	if !af.Equal(*bf) {
		return af.Before(*bf)
	}
	at, bt := len(a.TimetableCalendarRowTeacherIDs) > 0, len(b.TimetableCalendarRowTeacherIDs) > 0
	if at != bt {
		return !at && bt
	}
	return a.TimetableCalendarRowID.String() > b.TimetableCalendarRowID.String()
}

/* =========================================================
   WeekService: endpoint pekan guru / siswa / kelas.
   Jalur cepat: baca tabel proyeksi. Fallback: resolve on-the-fly dari
   calendar rows (proyeksi belum jalan / projection_failed).
   ========================================================= */

type WeekService struct {
	DB *gorm.DB
}

func NewWeekService(db *gorm.DB) *WeekService { return &WeekService{DB: db} }

func (s *WeekService) TeacherWeek(schoolID, teacherID uuid.UUID, anchor time.Time) (*dto.WeekResponse, error) {
	ws, we := WeekBounds(anchor)

	var rows []m.TeacherTimetableEntryModel
	if err := s.DB.
		Where("teacher_timetable_entry_school_id = ? AND teacher_timetable_entry_teacher_id = ?", schoolID, teacherID).
		Where("teacher_timetable_entry_date BETWEEN ? AND ?", ws, we).
		Order("teacher_timetable_entry_date, teacher_timetable_entry_period_number").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	resp := &dto.WeekResponse{
		WeekStart: dateKey(ws),
		WeekEnd:   dateKey(we),
		Entries:   make([]dto.WeekEntryResponse, 0, len(rows)),
	}

	if len(rows) > 0 {
		for i := range rows {
			resp.Entries = append(resp.Entries, teacherEntryToDTO(&rows[i]))
		}
		return resp, nil
	}

	// fallback: resolve langsung dari calendar rows semua instance yang
	// menyebut guru ini di pekan tsb
	entries, err := s.resolveInstancesForWeek(schoolID, ws, we, func(e ResolvedEntry) bool {
		for _, id := range e.TeacherIDs {
			if id == teacherID.String() {
				return true
			}
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	resp.Entries = entries
	return resp, nil
}

func (s *WeekService) StudentWeek(schoolID, studentID uuid.UUID, anchor time.Time) (*dto.WeekResponse, error) {
	ws, we := WeekBounds(anchor)

	var rows []m.StudentTimetableEntryModel
	if err := s.DB.
		Where("student_timetable_entry_school_id = ? AND student_timetable_entry_student_id = ?", schoolID, studentID).
		Where("student_timetable_entry_date BETWEEN ? AND ?", ws, we).
		Order("student_timetable_entry_date, student_timetable_entry_period_number").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	resp := &dto.WeekResponse{
		WeekStart: dateKey(ws),
		WeekEnd:   dateKey(we),
		Entries:   make([]dto.WeekEntryResponse, 0, len(rows)),
	}

	if len(rows) > 0 {
		for i := range rows {
			resp.Entries = append(resp.Entries, studentEntryToDTO(&rows[i]))
		}
		return resp, nil
	}

	// fallback: lewat kelas aktif siswa
	var memberships []amodel.ClassStudentModel
	if err := s.DB.
		Where("class_student_school_id = ? AND class_student_student_id = ? AND class_student_is_active = TRUE",
			schoolID, studentID).
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	if len(memberships) == 0 {
		return resp, nil
	}

	classIDs := make([]uuid.UUID, 0, len(memberships))
	for i := range memberships {
		classIDs = append(classIDs, memberships[i].ClassStudentClassID)
	}
	entries, err := s.resolveClassWeek(schoolID, classIDs, ws, we)
	if err != nil {
		return nil, err
	}
	resp.Entries = entries
	return resp, nil
}

func (s *WeekService) ClassWeek(schoolID, classID uuid.UUID, anchor time.Time) (*dto.WeekResponse, error) {
	ws, we := WeekBounds(anchor)
	entries, err := s.resolveClassWeek(schoolID, []uuid.UUID{classID}, ws, we)
	if err != nil {
		return nil, err
	}
	return &dto.WeekResponse{
		WeekStart: dateKey(ws),
		WeekEnd:   dateKey(we),
		Entries:   entries,
	}, nil
}

/* =========================================================
   Internal: fallback resolusi on-the-fly + hydrate nama
   ========================================================= */

func (s *WeekService) resolveClassWeek(schoolID uuid.UUID, classIDs []uuid.UUID, ws, we time.Time) ([]dto.WeekEntryResponse, error) {
	var instances []m.TimetableInstanceModel
	if err := s.DB.
		Where("timetable_instance_school_id = ? AND timetable_instance_class_id IN ?", schoolID, classIDs).
		Where("timetable_instance_start_date <= ? AND timetable_instance_end_date >= ?", we, ws).
		Find(&instances).Error; err != nil {
		return nil, err
	}
	return s.resolveAndHydrate(schoolID, instances, ws, we, nil)
}

func (s *WeekService) resolveInstancesForWeek(schoolID uuid.UUID, ws, we time.Time, keep func(ResolvedEntry) bool) ([]dto.WeekEntryResponse, error) {
	var instances []m.TimetableInstanceModel
	if err := s.DB.
		Where("timetable_instance_school_id = ?", schoolID).
		Where("timetable_instance_start_date <= ? AND timetable_instance_end_date >= ?", we, ws).
		Find(&instances).Error; err != nil {
		return nil, err
	}
	return s.resolveAndHydrate(schoolID, instances, ws, we, keep)
}

func (s *WeekService) resolveAndHydrate(schoolID uuid.UUID, instances []m.TimetableInstanceModel, ws, we time.Time, keep func(ResolvedEntry) bool) ([]dto.WeekEntryResponse, error) {
	out := make([]dto.WeekEntryResponse, 0, 64)
	if len(instances) == 0 {
		return out, nil
	}

	instanceIDs := make([]uuid.UUID, 0, len(instances))
	classByInstance := make(map[uuid.UUID]uuid.UUID, len(instances))
	for i := range instances {
		instanceIDs = append(instanceIDs, instances[i].TimetableInstanceID)
		classByInstance[instances[i].TimetableInstanceID] = instances[i].TimetableInstanceClassID
	}

	var rows []m.TimetableCalendarRowModel
	if err := s.DB.
		Where("timetable_calendar_row_instance_id IN ?", instanceIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	rowsByInstance := make(map[uuid.UUID][]m.TimetableCalendarRowModel)
	for i := range rows {
		id := rows[i].TimetableCalendarRowInstanceID
		rowsByInstance[id] = append(rowsByInstance[id], rows[i])
	}

	var resolved []ResolvedEntry
	for _, id := range instanceIDs {
		es, warns := ResolveWeek(rowsByInstance[id], ws, we)
		for _, w := range warns {
			log.Printf("⚠️ [WEEK] %s", w)
		}
		for _, e := range es {
			if keep != nil && !keep(e) {
				continue
			}
			resolved = append(resolved, e)
		}
	}
	if len(resolved) == 0 {
		return out, nil
	}

	caches, err := loadDisplayCaches(s.DB, schoolID, resolved, classByInstance)
	if err != nil {
		return nil, err
	}

	for _, e := range resolved {
		out = append(out, resolvedToDTO(e, classByInstance[e.InstanceID], caches))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].PeriodNumber < out[j].PeriodNumber
	})
	return out, nil
}

/* =========================================================
   Internal: cache nama untuk hydrate DTO
   ========================================================= */

type displayCaches struct {
	classNames   map[uuid.UUID]string
	subjectNames map[uuid.UUID]string
	teacherNames map[string]string // key: uuid string
	roomNames    map[uuid.UUID]string
	slotTimes    map[int][2]string // period number → {start, end} "HH:MM"
}

func loadDisplayCaches(db *gorm.DB, schoolID uuid.UUID, entries []ResolvedEntry, classByInstance map[uuid.UUID]uuid.UUID) (*displayCaches, error) {
	c := &displayCaches{
		classNames:   map[uuid.UUID]string{},
		subjectNames: map[uuid.UUID]string{},
		teacherNames: map[string]string{},
		roomNames:    map[uuid.UUID]string{},
		slotTimes:    map[int][2]string{},
	}

	classSet := map[uuid.UUID]bool{}
	subjectSet := map[uuid.UUID]bool{}
	teacherSet := map[string]bool{}
	roomSet := map[uuid.UUID]bool{}
	for _, e := range entries {
		classSet[classByInstance[e.InstanceID]] = true
		if e.SubjectID != nil {
			subjectSet[*e.SubjectID] = true
		}
		if e.RoomID != nil {
			roomSet[*e.RoomID] = true
		}
		for _, t := range e.TeacherIDs {
			teacherSet[t] = true
		}
	}

	if len(classSet) > 0 {
		var cls []amodel.ClassModel
		if err := db.Where("class_id IN ?", keys(classSet)).Find(&cls).Error; err != nil {
			return nil, err
		}
		for i := range cls {
			c.classNames[cls[i].ClassID] = cls[i].ClassName
		}
	}
	if len(subjectSet) > 0 {
		var subs []amodel.SubjectModel
		if err := db.Where("subject_id IN ?", keys(subjectSet)).Find(&subs).Error; err != nil {
			return nil, err
		}
		for i := range subs {
			c.subjectNames[subs[i].SubjectID] = subs[i].SubjectName
		}
	}
	if len(teacherSet) > 0 {
		ids := make([]string, 0, len(teacherSet))
		for k := range teacherSet {
			ids = append(ids, k)
		}
		var ts []amodel.TeacherModel
		if err := db.Where("teacher_id IN ?", ids).Find(&ts).Error; err != nil {
			return nil, err
		}
		for i := range ts {
			c.teacherNames[ts[i].TeacherID.String()] = ts[i].TeacherName
		}
	}
	if len(roomSet) > 0 {
		var rms []amodel.RoomModel
		if err := db.Where("room_id IN ?", keys(roomSet)).Find(&rms).Error; err != nil {
			return nil, err
		}
		for i := range rms {
			c.roomNames[rms[i].RoomID] = rms[i].RoomName
		}
	}

	var slots []amodel.PeriodSlotModel
	if err := db.Where("period_slot_school_id = ?", schoolID).Find(&slots).Error; err != nil {
		return nil, err
	}
	for i := range slots {
		c.slotTimes[slots[i].PeriodSlotNumber] = [2]string{
			slots[i].PeriodSlotStartTime.Format("15:04"),
			slots[i].PeriodSlotEndTime.Format("15:04"),
		}
	}
	return c, nil
}

func keys(set map[uuid.UUID]bool) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func resolvedToDTO(e ResolvedEntry, classID uuid.UUID, c *displayCaches) dto.WeekEntryResponse {
	resp := dto.WeekEntryResponse{
		Date:         dateKey(e.Date),
		DayOfWeek:    e.DayOfWeek,
		PeriodNumber: e.PeriodNumber,
		ClassID:      classID.String(),
		ClassName:    c.classNames[classID],
		TeacherIDs:   e.TeacherIDs,
		TeacherNames: make([]string, 0, len(e.TeacherIDs)),
		IsOverride:   e.IsOverride,
		IsIncomplete: e.Incomplete,
		Source:       "resolved",
	}
	if times, ok := c.slotTimes[e.PeriodNumber]; ok {
		resp.StartTime, resp.EndTime = times[0], times[1]
	}
	if e.SubjectID != nil {
		resp.SubjectID = e.SubjectID.String()
		resp.SubjectName = c.subjectNames[*e.SubjectID]
	}
	if e.RoomID != nil {
		if name, ok := c.roomNames[*e.RoomID]; ok {
			resp.RoomName = &name
		}
	}
	for _, t := range e.TeacherIDs {
		resp.TeacherNames = append(resp.TeacherNames, c.teacherNames[t])
	}
	if resp.TeacherIDs == nil {
		resp.TeacherIDs = []string{}
	}
	return resp
}

func teacherEntryToDTO(r *m.TeacherTimetableEntryModel) dto.WeekEntryResponse {
	return dto.WeekEntryResponse{
		Date:         r.TeacherTimetableEntryDate.Format(dto.DateLayout),
		DayOfWeek:    r.TeacherTimetableEntryDayOfWeek,
		PeriodNumber: r.TeacherTimetableEntryPeriodNumber,
		StartTime:    r.TeacherTimetableEntryStartTime.Format("15:04"),
		EndTime:      r.TeacherTimetableEntryEndTime.Format("15:04"),
		ClassID:      r.TeacherTimetableEntryClassID.String(),
		ClassName:    r.TeacherTimetableEntryClassName,
		SubjectID:    r.TeacherTimetableEntrySubjectID.String(),
		SubjectName:  r.TeacherTimetableEntrySubjectName,
		TeacherIDs:   []string{r.TeacherTimetableEntryTeacherID.String()},
		TeacherNames: []string{},
		RoomName:     r.TeacherTimetableEntryRoomName,
		Source:       "projection",
	}
}

func studentEntryToDTO(r *m.StudentTimetableEntryModel) dto.WeekEntryResponse {
	teacherIDs := r.StudentTimetableEntryTeacherIDs
	if teacherIDs == nil {
		teacherIDs = []string{}
	}
	teacherNames := r.StudentTimetableEntryTeacherNames
	if teacherNames == nil {
		teacherNames = []string{}
	}
	return dto.WeekEntryResponse{
		Date:         r.StudentTimetableEntryDate.Format(dto.DateLayout),
		DayOfWeek:    r.StudentTimetableEntryDayOfWeek,
		PeriodNumber: r.StudentTimetableEntryPeriodNumber,
		StartTime:    r.StudentTimetableEntryStartTime.Format("15:04"),
		EndTime:      r.StudentTimetableEntryEndTime.Format("15:04"),
		ClassID:      r.StudentTimetableEntryClassID.String(),
		ClassName:    r.StudentTimetableEntryClassName,
		SubjectID:    r.StudentTimetableEntrySubjectID.String(),
		SubjectName:  r.StudentTimetableEntrySubjectName,
		TeacherIDs:   teacherIDs,
		TeacherNames: teacherNames,
		RoomName:     r.StudentTimetableEntryRoomName,
		IsIncomplete: len(teacherIDs) == 0,
		Source:       "projection",
	}
}
