// file: internals/features/school/timetables/services/import_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	amodel "sekolahku_backend/internals/features/school/academics/model"
	"sekolahku_backend/internals/features/school/timetables/dto"
	m "sekolahku_backend/internals/features/school/timetables/model"
	"sekolahku_backend/internals/helpers/eventbus"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

/* =========================================================
   Import orchestrator
   Satu run = satu job row (state machine):
     validating → reconciling → committed → projecting → complete
     validating/reconciling gagal → failed (rollback total)
     projecting gagal            → projection_failed (jadwal selamat)
   Jadwal (header, instance, calendar rows) berubah dalam SATU
   transaksi; proyeksi menyusul lewat worker.
   ========================================================= */

const (
	EventTimetableImported   = "timetable.imported"
	EventInstanceInvalidated = "timetable.instance.invalidated"
)

type ImportService struct {
	DB     *gorm.DB
	Locks  *instanceLocks
	Worker *ProjectionWorker
	Bus    *eventbus.Bus
}

func NewImportService(db *gorm.DB, bus *eventbus.Bus) *ImportService {
	locks := newInstanceLocks()
	return &ImportService{
		DB:     db,
		Locks:  locks,
		Worker: NewProjectionWorker(db, locks),
		Bus:    bus,
	}
}

// parsedRow: baris import yang sudah lolos validasi struktural dan
// referensial (semua referensi sudah jadi uuid).
type parsedRow struct {
	ClassID      uuid.UUID
	DayOfWeek    int
	PeriodNumber int
	SubjectID    uuid.UUID
	RoomID       *uuid.UUID
	TeacherIDs   []string
}

// Run menjalankan satu import penuh. Job row dikembalikan dalam status
// committed (proyeksi menyusul) atau failed; error domain juga
// dikembalikan supaya controller bisa memetakan status HTTP.
func (s *ImportService) Run(ctx context.Context, schoolID uuid.UUID, req *dto.ImportTimetableRequest) (*m.TimetableImportJobModel, error) {
	validFrom, err := dto.ParseDate(req.ValidFrom)
	if err != nil {
		return nil, &ValidationError{Field: "valid_from", Message: err.Error()}
	}
	validTo, err := dto.ParseDate(req.ValidTo)
	if err != nil {
		return nil, &ValidationError{Field: "valid_to", Message: err.Error()}
	}
	if validTo.Before(validFrom) {
		return nil, &ValidationError{Field: "valid_to", Message: "valid_to sebelum valid_from"}
	}

	job := &m.TimetableImportJobModel{
		TimetableImportJobSchoolID:   schoolID,
		TimetableImportJobStatus:     m.ImportJobStatusValidating,
		TimetableImportJobRangeStart: &validFrom,
		TimetableImportJobRangeEnd:   &validTo,
		TimetableImportJobProgress: datatypes.JSONMap{
			"phase": "validating", "percentage": 0, "message": "validasi payload",
		},
	}
	now := time.Now()
	job.TimetableImportJobStartedAt = &now
	if err := s.DB.Create(job).Error; err != nil {
		return nil, err
	}

	parsed, warnings, err := s.validate(schoolID, req)
	if err != nil {
		s.markFailed(job, err)
		return job, err
	}

	// snapshot penugasan: baris tanpa guru eksplisit di-resolve di sini
	// supaya calendar row menyimpan guru hasil penugasan
	resolver, err := LoadAssignmentCaches(s.DB, schoolID)
	if err != nil {
		s.markFailed(job, err)
		return job, err
	}

	// kunci instance yang SUDAH ada; instance baru belum bisa balapan
	classIDs := make([]uuid.UUID, 0, len(parsed))
	seenClass := map[uuid.UUID]bool{}
	for _, rows := range parsed {
		for _, r := range rows {
			if !seenClass[r.ClassID] {
				seenClass[r.ClassID] = true
				classIDs = append(classIDs, r.ClassID)
			}
		}
	}
	existingIDs, err := s.existingInstanceIDs(schoolID, req.AcademicYear, req.Semester, classIDs)
	if err != nil {
		s.markFailed(job, err)
		return job, err
	}
	release := s.Locks.AcquireAll(existingIDs)
	defer release()

	s.updateJob(job, m.ImportJobStatusReconciling, map[string]any{
		"timetable_import_job_progress": datatypes.JSONMap{
			"phase": "reconciling", "percentage": 0, "message": "menata interval pola",
		},
	})

	var (
		timetableID   uuid.UUID
		instanceIDs   []uuid.UUID
		recStats      ReconcileStats
		rowsInserted  int
		classesLoaded int
	)

	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		header, err := s.upsertHeader(tx, schoolID, req)
		if err != nil {
			return err
		}
		timetableID = header.TimetableID

		total := len(parsed)
		done := 0
		for classID, rows := range parsed {
			inst, err := s.upsertInstance(tx, schoolID, timetableID, classID, validFrom, validTo, req.AllowBackdate)
			if err != nil {
				return err
			}
			instanceIDs = append(instanceIDs, inst.TimetableInstanceID)

			stats, err := ReconcileInstancePatterns(tx, inst.TimetableInstanceID, validFrom, validTo)
			if err != nil {
				return &ReconciliationError{InstanceID: inst.TimetableInstanceID.String(), Err: err}
			}
			recStats.Add(stats)

			n, err := s.insertPatternRows(tx, schoolID, inst.TimetableInstanceID, rows, validFrom, validTo, resolver, req.Semester)
			if err != nil {
				return err
			}
			rowsInserted += n

			done++
			classesLoaded = done
			// progress lewat koneksi utama supaya kelihatan poller
			// sebelum commit dan tidak ikut rollback
			s.progress(s.DB, job, "reconciling", done, total, "memproses kelas")
		}
		return nil
	})
	if txErr != nil {
		s.markFailed(job, txErr)
		return job, txErr
	}

	result := datatypes.JSONMap{
		"classes":        classesLoaded,
		"rows_inserted":  rowsInserted,
		"rows_deleted":   recStats.RowsDeleted,
		"rows_truncated": recStats.RowsTruncated,
		"rows_split":     recStats.RowsSplit,
	}
	if len(warnings) > 0 {
		ws := make([]any, 0, len(warnings))
		for _, w := range warnings {
			ws = append(ws, w)
		}
		result["warnings"] = ws
	}
	s.updateJob(job, m.ImportJobStatusCommitted, map[string]any{
		"timetable_import_job_timetable_id": &timetableID,
		"timetable_import_job_result":       result,
		"timetable_import_job_progress": datatypes.JSONMap{
			"phase": "committed", "percentage": 100, "message": "jadwal tersimpan, proyeksi menyusul",
		},
	})
	log.Printf("✅ [IMPORT] job=%s commit: classes=%d rows_inserted=%d deleted=%d truncated=%d split=%d",
		job.TimetableImportJobID, classesLoaded, rowsInserted,
		recStats.RowsDeleted, recStats.RowsTruncated, recStats.RowsSplit)

	s.Worker.Enqueue(ProjectionTask{
		JobID:       job.TimetableImportJobID,
		SchoolID:    schoolID,
		Semester:    req.Semester,
		InstanceIDs: instanceIDs,
		Range:       ProjectionRange{Start: validFrom, End: validTo},
	})
	s.Bus.Publish(eventbus.Event{Name: EventTimetableImported, Payload: map[string]any{
		"job_id":       job.TimetableImportJobID.String(),
		"timetable_id": timetableID.String(),
		"school_id":    schoolID.String(),
	}})

	return job, nil
}

/* =========================================================
   Resync manual: bangun ulang proyeksi tanpa menyentuh jadwal
   ========================================================= */

func (s *ImportService) Resync(ctx context.Context, schoolID uuid.UUID, req *dto.ResyncProjectionRequest) (*m.TimetableImportJobModel, error) {
	var header m.TimetableModel
	if err := s.DB.
		Where("timetable_school_id = ? AND timetable_academic_year = ? AND timetable_semester = ?",
			schoolID, req.AcademicYear, req.Semester).
		First(&header).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &ValidationError{Field: "academic_year", Message: "scope belum pernah diimport"}
		}
		return nil, err
	}

	q := s.DB.Where("timetable_instance_timetable_id = ?", header.TimetableID)
	if len(req.ClassSlugs) > 0 {
		var classes []amodel.ClassModel
		if err := s.DB.Where("class_school_id = ? AND class_slug IN ?", schoolID, req.ClassSlugs).
			Find(&classes).Error; err != nil {
			return nil, err
		}
		if len(classes) != len(req.ClassSlugs) {
			return nil, &ValidationError{Field: "class_slugs", Message: "ada slug kelas yang tidak dikenal"}
		}
		ids := make([]uuid.UUID, 0, len(classes))
		for i := range classes {
			ids = append(ids, classes[i].ClassID)
		}
		q = q.Where("timetable_instance_class_id IN ?", ids)
	}

	var instances []m.TimetableInstanceModel
	if err := q.Find(&instances).Error; err != nil {
		return nil, err
	}
	if len(instances) == 0 {
		return nil, &ValidationError{Field: "class_slugs", Message: "tidak ada instance di scope ini"}
	}

	rng := ProjectionRange{Start: instances[0].TimetableInstanceStartDate, End: instances[0].TimetableInstanceEndDate}
	instanceIDs := make([]uuid.UUID, 0, len(instances))
	for i := range instances {
		inst := &instances[i]
		instanceIDs = append(instanceIDs, inst.TimetableInstanceID)
		if inst.TimetableInstanceStartDate.Before(rng.Start) {
			rng.Start = inst.TimetableInstanceStartDate
		}
		if inst.TimetableInstanceEndDate.After(rng.End) {
			rng.End = inst.TimetableInstanceEndDate
		}
	}
	if req.RangeStart != nil {
		if d, err := dto.ParseDate(*req.RangeStart); err == nil {
			rng.Start = d
		}
	}
	if req.RangeEnd != nil {
		if d, err := dto.ParseDate(*req.RangeEnd); err == nil {
			rng.End = d
		}
	}

	tid := header.TimetableID
	job := &m.TimetableImportJobModel{
		TimetableImportJobSchoolID:    schoolID,
		TimetableImportJobTimetableID: &tid,
		TimetableImportJobStatus:      m.ImportJobStatusCommitted,
		TimetableImportJobRangeStart:  &rng.Start,
		TimetableImportJobRangeEnd:    &rng.End,
		TimetableImportJobProgress: datatypes.JSONMap{
			"phase": "committed", "message": "resync manual, proyeksi menyusul",
		},
	}
	now := time.Now()
	job.TimetableImportJobStartedAt = &now
	if err := s.DB.Create(job).Error; err != nil {
		return nil, err
	}

	s.Worker.Enqueue(ProjectionTask{
		JobID:       job.TimetableImportJobID,
		SchoolID:    schoolID,
		Semester:    req.Semester,
		InstanceIDs: instanceIDs,
		Range:       rng,
	})
	return job, nil
}

func (s *ImportService) GetJob(schoolID, jobID uuid.UUID) (*m.TimetableImportJobModel, error) {
	var job m.TimetableImportJobModel
	err := s.DB.
		Where("timetable_import_job_id = ? AND timetable_import_job_school_id = ?", jobID, schoolID).
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

/* =========================================================
   Internal
   ========================================================= */

// validate: struktural (hari, duplikat slot) + referensial (bulk lookup).
// Hasil: baris per kelas + warnings non-fatal.
func (s *ImportService) validate(schoolID uuid.UUID, req *dto.ImportTimetableRequest) (map[uuid.UUID][]parsedRow, []string, error) {
	classSlugs := map[string]bool{}
	subjectCodes := map[string]bool{}
	roomCodes := map[string]bool{}
	teacherCodes := map[string]bool{}

	type rawRow struct {
		idx int // 1-based
		dto.ImportRowRequest
		dayOfWeek int
	}
	raws := make([]rawRow, 0, len(req.Rows))

	type slotSeen struct {
		class  string
		day    int
		period int
	}
	seen := map[slotSeen]int{}

	for i, r := range req.Rows {
		idx := i + 1
		day, err := dto.ParseDayOfWeek(r.DayOfWeek)
		if err != nil {
			return nil, nil, &ValidationError{Row: idx, Field: "day_of_week", Message: err.Error()}
		}
		key := slotSeen{r.ClassSlug, day, r.PeriodNumber}
		if first, dup := seen[key]; dup {
			return nil, nil, &ValidationError{Row: idx, Field: "period_number",
				Message: fmt.Sprintf("slot duplikat dengan baris %d (%s hari %d jam ke-%d)", first, r.ClassSlug, day, r.PeriodNumber)}
		}
		seen[key] = idx

		classSlugs[r.ClassSlug] = true
		subjectCodes[r.SubjectCode] = true
		if r.RoomCode != nil && *r.RoomCode != "" {
			roomCodes[*r.RoomCode] = true
		}
		for _, tc := range r.TeacherCodes {
			teacherCodes[tc] = true
		}
		raws = append(raws, rawRow{idx: idx, ImportRowRequest: r, dayOfWeek: day})
	}

	// bulk lookup per entitas, sekali jalan
	classBySlug := map[string]uuid.UUID{}
	{
		var rows []amodel.ClassModel
		if err := s.DB.Where("class_school_id = ? AND class_slug IN ?", schoolID, setToSlice(classSlugs)).
			Find(&rows).Error; err != nil {
			return nil, nil, err
		}
		for i := range rows {
			classBySlug[rows[i].ClassSlug] = rows[i].ClassID
		}
	}
	subjectByCode := map[string]uuid.UUID{}
	{
		var rows []amodel.SubjectModel
		if err := s.DB.Where("subject_school_id = ? AND subject_code IN ?", schoolID, setToSlice(subjectCodes)).
			Find(&rows).Error; err != nil {
			return nil, nil, err
		}
		for i := range rows {
			subjectByCode[rows[i].SubjectCode] = rows[i].SubjectID
		}
	}
	roomByCode := map[string]uuid.UUID{}
	if len(roomCodes) > 0 {
		var rows []amodel.RoomModel
		if err := s.DB.Where("room_school_id = ? AND room_code IN ?", schoolID, setToSlice(roomCodes)).
			Find(&rows).Error; err != nil {
			return nil, nil, err
		}
		for i := range rows {
			roomByCode[rows[i].RoomCode] = rows[i].RoomID
		}
	}
	teacherByCode := map[string]uuid.UUID{}
	if len(teacherCodes) > 0 {
		var rows []amodel.TeacherModel
		if err := s.DB.Where("teacher_school_id = ? AND teacher_code IN ?", schoolID, setToSlice(teacherCodes)).
			Find(&rows).Error; err != nil {
			return nil, nil, err
		}
		for i := range rows {
			teacherByCode[rows[i].TeacherCode] = rows[i].TeacherID
		}
	}

	var warnings []string
	out := map[uuid.UUID][]parsedRow{}
	for _, r := range raws {
		classID, ok := classBySlug[r.ClassSlug]
		if !ok {
			return nil, nil, &ReferentialError{Entity: "class", Ref: r.ClassSlug, Row: r.idx}
		}
		subjectID, ok := subjectByCode[r.SubjectCode]
		if !ok {
			return nil, nil, &ReferentialError{Entity: "subject", Ref: r.SubjectCode, Row: r.idx}
		}
		p := parsedRow{
			ClassID:      classID,
			DayOfWeek:    r.dayOfWeek,
			PeriodNumber: r.PeriodNumber,
			SubjectID:    subjectID,
		}
		if r.RoomCode != nil && *r.RoomCode != "" {
			roomID, ok := roomByCode[*r.RoomCode]
			if !ok {
				// ruang salah bukan alasan menolak jadwal
				warnings = append(warnings, fmt.Sprintf("baris %d: ruang %q tidak dikenal, dilewati", r.idx, *r.RoomCode))
			} else {
				p.RoomID = &roomID
			}
		}
		for _, tc := range r.TeacherCodes {
			tid, ok := teacherByCode[tc]
			if !ok {
				return nil, nil, &ReferentialError{Entity: "teacher", Ref: tc, Row: r.idx}
			}
			p.TeacherIDs = append(p.TeacherIDs, tid.String())
		}
		out[classID] = append(out[classID], p)
	}
	return out, warnings, nil
}

func setToSlice(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

// checkInstanceRegression: aturan no-backdate per instance. valid_from
// baru tidak boleh mundur dari start_date instance yang sudah commit,
// kecuali klien eksplisit memaksa lewat allow_backdate. Kelas yang baru
// pertama kali diimport bebas memakai tanggal berapa pun.
func checkInstanceRegression(committedStart, requested time.Time, allowBackdate bool) error {
	if allowBackdate {
		return nil
	}
	if requested.Before(committedStart) {
		return &RangeRegressionError{Requested: requested, Committed: committedStart}
	}
	return nil
}

func (s *ImportService) existingInstanceIDs(schoolID uuid.UUID, year string, semester int, classIDs []uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.DB.Model(&m.TimetableInstanceModel{}).
		Select("timetable_instances.timetable_instance_id").
		Joins("JOIN timetables ON timetables.timetable_id = timetable_instances.timetable_instance_timetable_id").
		Where("timetables.timetable_school_id = ? AND timetables.timetable_academic_year = ? AND timetables.timetable_semester = ?",
			schoolID, year, semester).
		Where("timetable_instances.timetable_instance_class_id IN ?", classIDs).
		Scan(&ids).Error
	return ids, err
}

func (s *ImportService) upsertHeader(tx *gorm.DB, schoolID uuid.UUID, req *dto.ImportTimetableRequest) (*m.TimetableModel, error) {
	name := req.Name
	if name == "" {
		name = fmt.Sprintf("Jadwal %s Semester %d", req.AcademicYear, req.Semester)
	}
	var header m.TimetableModel
	err := tx.Where(m.TimetableModel{
		TimetableSchoolID:     schoolID,
		TimetableAcademicYear: req.AcademicYear,
		TimetableSemester:     req.Semester,
	}).Attrs(m.TimetableModel{TimetableName: name}).
		FirstOrCreate(&header).Error
	if err != nil {
		return nil, err
	}
	if req.Name != "" && header.TimetableName != req.Name {
		header.TimetableName = req.Name
		if err := tx.Model(&header).
			Update("timetable_name", req.Name).Error; err != nil {
			return nil, err
		}
	}
	return &header, nil
}

// upsertInstance: get-or-create per kelas, lalu lebarkan masa berlaku
// supaya memuat rentang import. End date lama yang lebih panjang
// dipertahankan (kontinuitas coverage saat re-import parsial).
func (s *ImportService) upsertInstance(tx *gorm.DB, schoolID, timetableID, classID uuid.UUID, from, to time.Time, allowBackdate bool) (*m.TimetableInstanceModel, error) {
	var inst m.TimetableInstanceModel
	err := tx.Where(m.TimetableInstanceModel{
		TimetableInstanceTimetableID: timetableID,
		TimetableInstanceClassID:     classID,
	}).Attrs(m.TimetableInstanceModel{
		TimetableInstanceSchoolID:  schoolID,
		TimetableInstanceStartDate: from,
		TimetableInstanceEndDate:   to,
	}).FirstOrCreate(&inst).Error
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if from.Before(inst.TimetableInstanceStartDate) {
		if err := checkInstanceRegression(inst.TimetableInstanceStartDate, from, allowBackdate); err != nil {
			return nil, err
		}
		updates["timetable_instance_start_date"] = from
		inst.TimetableInstanceStartDate = from
	}
	if to.After(inst.TimetableInstanceEndDate) {
		updates["timetable_instance_end_date"] = to
		inst.TimetableInstanceEndDate = to
	}
	if len(updates) > 0 {
		if err := tx.Model(&m.TimetableInstanceModel{}).
			Where("timetable_instance_id = ?", inst.TimetableInstanceID).
			Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return &inst, nil
}

// resolveRowTeachers: guru eksplisit dari payload menang; kalau kosong,
// pakai hasil penugasan supaya calendar row mandiri (fallback pekan dan
// proyeksi membaca guru yang sama).
func resolveRowTeachers(resolver *ProjectionCaches, classID, subjectID uuid.UUID, explicit []string, semester int) []string {
	if len(explicit) > 0 {
		return explicit
	}
	actual := subjectID
	if mapped, ok := resolver.SubjectActual[subjectID]; ok {
		actual = mapped
	}
	resolved := resolver.ResolveTeachers(classID, actual, nil, semester)
	out := make([]string, 0, len(resolved))
	for _, id := range resolved {
		out = append(out, id.String())
	}
	return out
}

func (s *ImportService) insertPatternRows(tx *gorm.DB, schoolID, instanceID uuid.UUID, rows []parsedRow, from, to time.Time, resolver *ProjectionCaches, semester int) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	models := make([]m.TimetableCalendarRowModel, 0, len(rows))
	for _, r := range rows {
		vf, vt := from, to
		subjectID := r.SubjectID
		teacherIDs := resolveRowTeachers(resolver, r.ClassID, r.SubjectID, r.TeacherIDs, semester)
		models = append(models, m.TimetableCalendarRowModel{
			TimetableCalendarRowSchoolID:     schoolID,
			TimetableCalendarRowInstanceID:   instanceID,
			TimetableCalendarRowKind:         m.CalendarRowKindPattern,
			TimetableCalendarRowDayOfWeek:    r.DayOfWeek,
			TimetableCalendarRowPeriodNumber: r.PeriodNumber,
			TimetableCalendarRowSubjectID:    &subjectID,
			TimetableCalendarRowRoomID:       r.RoomID,
			TimetableCalendarRowTeacherIDs:   pq.StringArray(teacherIDs),
			TimetableCalendarRowValidFrom:    &vf,
			TimetableCalendarRowValidTo:      &vt,
		})
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(models, DefaultProjectionBatchSize).Error; err != nil {
		return 0, err
	}
	return len(models), nil
}

func (s *ImportService) progress(db *gorm.DB, job *m.TimetableImportJobModel, phase string, current, total int, msg string) {
	pct := 0
	if total > 0 {
		pct = current * 100 / total
	}
	// progress boleh gagal tanpa membatalkan import
	if err := db.Model(&m.TimetableImportJobModel{}).
		Where("timetable_import_job_id = ?", job.TimetableImportJobID).
		Update("timetable_import_job_progress", datatypes.JSONMap{
			"phase": phase, "current": current, "total": total,
			"percentage": pct, "message": msg,
		}).Error; err != nil {
		log.Printf("⚠️ [IMPORT] gagal update progress job %s: %v", job.TimetableImportJobID, err)
	}
}

func (s *ImportService) updateJob(job *m.TimetableImportJobModel, status m.ImportJobStatusEnum, fields map[string]any) {
	updates := map[string]any{"timetable_import_job_status": status}
	for k, v := range fields {
		updates[k] = v
	}
	if err := s.DB.Model(&m.TimetableImportJobModel{}).
		Where("timetable_import_job_id = ?", job.TimetableImportJobID).
		Updates(updates).Error; err != nil {
		log.Printf("⚠️ [IMPORT] gagal update job %s: %v", job.TimetableImportJobID, err)
	}
	job.TimetableImportJobStatus = status
}

func (s *ImportService) markFailed(job *m.TimetableImportJobModel, cause error) {
	msg := cause.Error()
	now := time.Now()
	s.updateJob(job, m.ImportJobStatusFailed, map[string]any{
		"timetable_import_job_error":       &msg,
		"timetable_import_job_finished_at": &now,
	})
	log.Printf("❌ [IMPORT] job=%s gagal: %v", job.TimetableImportJobID, cause)
}
