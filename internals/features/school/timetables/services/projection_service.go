// file: internals/features/school/timetables/services/projection_service.go
package services

import (
	"context"
	"log"
	"time"

	amodel "sekolahku_backend/internals/features/school/academics/model"
	"sekolahku_backend/internals/helpers/dbtime"

	m "sekolahku_backend/internals/features/school/timetables/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

/* =========================================================
   Bulk projection engine
   Materialisasi calendar rows → tabel baca per guru & per siswa.
   Semua lookup di-preload sekali (bulk query), tidak ada query
   per-baris di loop. Insert batch 500 + ON CONFLICT DO NOTHING
   di kunci natural → proyeksi idempoten, aman diulang.
   ========================================================= */

const DefaultProjectionBatchSize = 500

// maksimum guru yang dipakai per slot hasil resolusi penugasan
const maxResolvedTeachers = 2

type ProjectionOptions struct {
	BatchSize int
	// Shrink: hapus entry di LUAR rentang (rentang instance mengecil).
	// Default (false): hapus entry DI DALAM rentang sebelum insert ulang.
	Shrink bool
}

func (o *ProjectionOptions) normalize() {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultProjectionBatchSize
	}
}

type ProjectionRange struct {
	Start time.Time
	End   time.Time
}

type assignKey struct {
	ClassID         uuid.UUID
	ActualSubjectID uuid.UUID
}

type assignedTeacher struct {
	TeacherID uuid.UUID
	Term      amodel.AssignmentTermEnum
}

type slotTime struct {
	Start dbtime.Tod
	End   dbtime.Tod
}

// ProjectionCaches: snapshot read-only per run. Dibangun sekali di awal,
// tidak pernah ditulis selama proyeksi berjalan.
type ProjectionCaches struct {
	SubjectActual map[uuid.UUID]uuid.UUID // subject → mapel aktual (identitas kalau bukan alias)
	SubjectNames  map[uuid.UUID]string
	Assignments   map[assignKey][]assignedTeacher
	TeacherNames  map[uuid.UUID]string
	Roster        map[uuid.UUID][]uuid.UUID // class → siswa aktif
	ClassNames    map[uuid.UUID]string
	RoomNames     map[uuid.UUID]string
	SlotTimes     map[int]slotTime
}

// LoadProjectionCaches: satu bulk query per concern.
func LoadProjectionCaches(db *gorm.DB, schoolID uuid.UUID) (*ProjectionCaches, error) {
	c := &ProjectionCaches{
		SubjectActual: map[uuid.UUID]uuid.UUID{},
		SubjectNames:  map[uuid.UUID]string{},
		Assignments:   map[assignKey][]assignedTeacher{},
		TeacherNames:  map[uuid.UUID]string{},
		Roster:        map[uuid.UUID][]uuid.UUID{},
		ClassNames:    map[uuid.UUID]string{},
		RoomNames:     map[uuid.UUID]string{},
		SlotTimes:     map[int]slotTime{},
	}

	var subjects []amodel.SubjectModel
	if err := db.Where("subject_school_id = ?", schoolID).Find(&subjects).Error; err != nil {
		return nil, err
	}
	for i := range subjects {
		s := &subjects[i]
		c.SubjectActual[s.SubjectID] = s.ActualID()
		c.SubjectNames[s.SubjectID] = s.SubjectName
	}

	var assignments []amodel.SubjectAssignmentModel
	if err := db.Where("subject_assignment_school_id = ?", schoolID).Find(&assignments).Error; err != nil {
		return nil, err
	}
	for i := range assignments {
		a := &assignments[i]
		k := assignKey{a.SubjectAssignmentClassID, a.SubjectAssignmentActualSubjectID}
		c.Assignments[k] = append(c.Assignments[k], assignedTeacher{
			TeacherID: a.SubjectAssignmentTeacherID,
			Term:      a.SubjectAssignmentTerm,
		})
	}

	var teachers []amodel.TeacherModel
	if err := db.Where("teacher_school_id = ?", schoolID).Find(&teachers).Error; err != nil {
		return nil, err
	}
	for i := range teachers {
		c.TeacherNames[teachers[i].TeacherID] = teachers[i].TeacherName
	}

	var roster []amodel.ClassStudentModel
	if err := db.Where("class_student_school_id = ? AND class_student_is_active = TRUE", schoolID).
		Find(&roster).Error; err != nil {
		return nil, err
	}
	for i := range roster {
		r := &roster[i]
		c.Roster[r.ClassStudentClassID] = append(c.Roster[r.ClassStudentClassID], r.ClassStudentStudentID)
	}

	var classes []amodel.ClassModel
	if err := db.Where("class_school_id = ?", schoolID).Find(&classes).Error; err != nil {
		return nil, err
	}
	for i := range classes {
		c.ClassNames[classes[i].ClassID] = classes[i].ClassName
	}

	var rooms []amodel.RoomModel
	if err := db.Where("room_school_id = ?", schoolID).Find(&rooms).Error; err != nil {
		return nil, err
	}
	for i := range rooms {
		c.RoomNames[rooms[i].RoomID] = rooms[i].RoomName
	}

	var slots []amodel.PeriodSlotModel
	if err := db.Where("period_slot_school_id = ?", schoolID).Find(&slots).Error; err != nil {
		return nil, err
	}
	for i := range slots {
		c.SlotTimes[slots[i].PeriodSlotNumber] = slotTime{
			Start: slots[i].PeriodSlotStartTime,
			End:   slots[i].PeriodSlotEndTime,
		}
	}
	return c, nil
}

// LoadAssignmentCaches: subset ringan untuk resolusi guru saat import
// (mapel alias + penugasan saja, tanpa roster/nama).
func LoadAssignmentCaches(db *gorm.DB, schoolID uuid.UUID) (*ProjectionCaches, error) {
	c := &ProjectionCaches{
		SubjectActual: map[uuid.UUID]uuid.UUID{},
		Assignments:   map[assignKey][]assignedTeacher{},
	}

	var subjects []amodel.SubjectModel
	if err := db.Where("subject_school_id = ?", schoolID).Find(&subjects).Error; err != nil {
		return nil, err
	}
	for i := range subjects {
		c.SubjectActual[subjects[i].SubjectID] = subjects[i].ActualID()
	}

	var assignments []amodel.SubjectAssignmentModel
	if err := db.Where("subject_assignment_school_id = ?", schoolID).Find(&assignments).Error; err != nil {
		return nil, err
	}
	for i := range assignments {
		a := &assignments[i]
		k := assignKey{a.SubjectAssignmentClassID, a.SubjectAssignmentActualSubjectID}
		c.Assignments[k] = append(c.Assignments[k], assignedTeacher{
			TeacherID: a.SubjectAssignmentTeacherID,
			Term:      a.SubjectAssignmentTerm,
		})
	}
	return c, nil
}

// ResolveTeachers: guru eksplisit di row menang; kalau kosong, ambil dari
// penugasan (full_year dulu, lalu semester berjalan), maksimum 2.
func (c *ProjectionCaches) ResolveTeachers(classID, actualSubjectID uuid.UUID, explicit []string, semester int) []uuid.UUID {
	if len(explicit) > 0 {
		out := make([]uuid.UUID, 0, len(explicit))
		for _, s := range explicit {
			if id, err := uuid.Parse(s); err == nil {
				out = append(out, id)
			}
		}
		return out
	}

	semTerm := amodel.AssignmentTermFirst
	if semester == 2 {
		semTerm = amodel.AssignmentTermSecond
	}

	cands := c.Assignments[assignKey{classID, actualSubjectID}]
	out := make([]uuid.UUID, 0, maxResolvedTeachers)
	seen := map[uuid.UUID]bool{}
	for _, wantTerm := range []amodel.AssignmentTermEnum{amodel.AssignmentTermFullYear, semTerm} {
		for _, a := range cands {
			if a.Term != wantTerm || seen[a.TeacherID] {
				continue
			}
			seen[a.TeacherID] = true
			out = append(out, a.TeacherID)
			if len(out) == maxResolvedTeachers {
				return out
			}
		}
	}
	return out
}

type BuildStats struct {
	TeacherRows      int `json:"teacher_rows"`
	StudentRows      int `json:"student_rows"`
	SkippedNoTeacher int `json:"skipped_no_teacher"`
	SkippedNoSubject int `json:"skipped_no_subject"`
}

func (s *BuildStats) Add(o BuildStats) {
	s.TeacherRows += o.TeacherRows
	s.StudentRows += o.StudentRows
	s.SkippedNoTeacher += o.SkippedNoTeacher
	s.SkippedNoSubject += o.SkippedNoSubject
}

// BuildInstanceEntries murni: resolve rentang lalu bentuk baris proyeksi.
// Slot tanpa guru ter-resolve tidak masuk tabel baca (tetap kelihatan
// lewat fallback resolusi dengan flag incomplete); slot tanpa mapel
// di-skip.
func BuildInstanceEntries(
	inst *m.TimetableInstanceModel,
	rows []m.TimetableCalendarRowModel,
	caches *ProjectionCaches,
	semester int,
	rng ProjectionRange,
) ([]m.TeacherTimetableEntryModel, []m.StudentTimetableEntryModel, BuildStats) {
	var stats BuildStats

	// clamp ke masa berlaku instance
	start, end := rng.Start, rng.End
	if start.Before(inst.TimetableInstanceStartDate) {
		start = inst.TimetableInstanceStartDate
	}
	if end.After(inst.TimetableInstanceEndDate) {
		end = inst.TimetableInstanceEndDate
	}
	if end.Before(start) {
		return nil, nil, stats
	}

	resolved, warns := ResolveWeek(rows, start, end)
	for _, w := range warns {
		log.Printf("⚠️ [PROJECTION] instance=%s %s", inst.TimetableInstanceID, w)
	}

	classID := inst.TimetableInstanceClassID
	className := caches.ClassNames[classID]
	students := caches.Roster[classID]

	var teacherEntries []m.TeacherTimetableEntryModel
	var studentEntries []m.StudentTimetableEntryModel

	for _, e := range resolved {
		if e.SubjectID == nil {
			stats.SkippedNoSubject++
			continue
		}
		actualID := *e.SubjectID
		if mapped, ok := caches.SubjectActual[actualID]; ok {
			actualID = mapped
		}
		subjectName := caches.SubjectNames[actualID]
		if subjectName == "" {
			subjectName = caches.SubjectNames[*e.SubjectID]
		}

		teacherIDs := caches.ResolveTeachers(classID, actualID, e.TeacherIDs, semester)
		if len(teacherIDs) == 0 {
			stats.SkippedNoTeacher++
			continue
		}

		times := caches.SlotTimes[e.PeriodNumber]

		var roomName *string
		if e.RoomID != nil {
			if name, ok := caches.RoomNames[*e.RoomID]; ok {
				roomName = &name
			}
		}

		teacherIDStrs := make([]string, 0, len(teacherIDs))
		teacherNames := make([]string, 0, len(teacherIDs))
		for _, tid := range teacherIDs {
			teacherIDStrs = append(teacherIDStrs, tid.String())
			teacherNames = append(teacherNames, caches.TeacherNames[tid])

			teacherEntries = append(teacherEntries, m.TeacherTimetableEntryModel{
				TeacherTimetableEntrySchoolID:     inst.TimetableInstanceSchoolID,
				TeacherTimetableEntryTeacherID:    tid,
				TeacherTimetableEntryDate:         e.Date,
				TeacherTimetableEntryPeriodNumber: e.PeriodNumber,
				TeacherTimetableEntryClassID:      classID,
				TeacherTimetableEntrySubjectID:    actualID,
				TeacherTimetableEntryDayOfWeek:    e.DayOfWeek,
				TeacherTimetableEntryStartTime:    times.Start,
				TeacherTimetableEntryEndTime:      times.End,
				TeacherTimetableEntryClassName:    className,
				TeacherTimetableEntrySubjectName:  subjectName,
				TeacherTimetableEntryRoomName:     roomName,
				TeacherTimetableEntryInstanceID:   inst.TimetableInstanceID,
			})
			stats.TeacherRows++
		}

		for _, sid := range students {
			studentEntries = append(studentEntries, m.StudentTimetableEntryModel{
				StudentTimetableEntrySchoolID:     inst.TimetableInstanceSchoolID,
				StudentTimetableEntryStudentID:    sid,
				StudentTimetableEntryDate:         e.Date,
				StudentTimetableEntryPeriodNumber: e.PeriodNumber,
				StudentTimetableEntrySubjectID:    actualID,
				StudentTimetableEntryDayOfWeek:    e.DayOfWeek,
				StudentTimetableEntryStartTime:    times.Start,
				StudentTimetableEntryEndTime:      times.End,
				StudentTimetableEntryClassID:      classID,
				StudentTimetableEntryClassName:    className,
				StudentTimetableEntrySubjectName:  subjectName,
				StudentTimetableEntryTeacherIDs:   teacherIDStrs,
				StudentTimetableEntryTeacherNames: teacherNames,
				StudentTimetableEntryRoomName:     roomName,
				StudentTimetableEntryInstanceID:   inst.TimetableInstanceID,
			})
			stats.StudentRows++
		}
	}

	return teacherEntries, studentEntries, stats
}

/* =========================================================
   ProjectionService: applier (delete rentang + insert batch)
   ========================================================= */

type ProjectionService struct {
	DB *gorm.DB
}

func NewProjectionService(db *gorm.DB) *ProjectionService { return &ProjectionService{DB: db} }

// DeleteEntriesInRange: smart delete. Mode normal hanya menghapus entry
// instance di dalam rentang (coverage lama di luar rentang selamat);
// mode shrink menghapus yang di LUAR rentang.
func deleteEntriesInRange(tx *gorm.DB, instanceID uuid.UUID, rng ProjectionRange, shrink bool) error {
	tq := tx.Where("teacher_timetable_entry_instance_id = ?", instanceID)
	sq := tx.Where("student_timetable_entry_instance_id = ?", instanceID)
	if shrink {
		tq = tq.Where("teacher_timetable_entry_date < ? OR teacher_timetable_entry_date > ?", rng.Start, rng.End)
		sq = sq.Where("student_timetable_entry_date < ? OR student_timetable_entry_date > ?", rng.Start, rng.End)
	} else {
		tq = tq.Where("teacher_timetable_entry_date BETWEEN ? AND ?", rng.Start, rng.End)
		sq = sq.Where("student_timetable_entry_date BETWEEN ? AND ?", rng.Start, rng.End)
	}
	if err := tq.Delete(&m.TeacherTimetableEntryModel{}).Error; err != nil {
		return err
	}
	return sq.Delete(&m.StudentTimetableEntryModel{}).Error
}

// ProjectInstance: bangun ulang proyeksi satu instance untuk satu rentang.
// Idempoten: diulang dengan input sama → hasil sama.
func (s *ProjectionService) ProjectInstance(
	ctx context.Context,
	inst *m.TimetableInstanceModel,
	caches *ProjectionCaches,
	semester int,
	rng ProjectionRange,
	opts ProjectionOptions,
) (BuildStats, error) {
	opts.normalize()
	var stats BuildStats

	var rows []m.TimetableCalendarRowModel
	if err := s.DB.WithContext(ctx).
		Where("timetable_calendar_row_instance_id = ?", inst.TimetableInstanceID).
		Find(&rows).Error; err != nil {
		return stats, &ProjectionError{InstanceID: inst.TimetableInstanceID.String(), Err: err}
	}

	teacherEntries, studentEntries, built := BuildInstanceEntries(inst, rows, caches, semester, rng)
	stats = built

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := deleteEntriesInRange(tx, inst.TimetableInstanceID, rng, opts.Shrink); err != nil {
			return err
		}
		if len(teacherEntries) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				CreateInBatches(teacherEntries, opts.BatchSize).Error; err != nil {
				return err
			}
		}
		if len(studentEntries) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
				CreateInBatches(studentEntries, opts.BatchSize).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return stats, &ProjectionError{InstanceID: inst.TimetableInstanceID.String(), Err: err}
	}

	log.Printf("✅ [PROJECTION] instance=%s range=%s..%s teacher_rows=%d student_rows=%d",
		inst.TimetableInstanceID,
		rng.Start.Format("2006-01-02"), rng.End.Format("2006-01-02"),
		stats.TeacherRows, stats.StudentRows)
	return stats, nil
}
