// file: internals/features/school/timetables/services/projection_worker.go
package services

import (
	"context"
	"log"
	"time"

	m "sekolahku_backend/internals/features/school/timetables/model"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

/* =========================================================
   Worker proyeksi
   Task masuk setelah import commit. Task idempoten (rebuild rentang),
   jadi aman di-retry; gagal total → job projection_failed, data jadwal
   tetap utuh dan bisa di-resync manual.
   ========================================================= */

type ProjectionTask struct {
	JobID       uuid.UUID
	SchoolID    uuid.UUID
	Semester    int
	InstanceIDs []uuid.UUID
	Range       ProjectionRange
	Shrink      bool
}

const (
	defaultWorkerCount = 2
	defaultQueueSize   = 64
	defaultMaxAttempts = 5
	defaultBaseBackoff = 2 * time.Second
)

type ProjectionWorker struct {
	db    *gorm.DB
	svc   *ProjectionService
	locks *instanceLocks

	tasks  chan ProjectionTask
	cancel context.CancelFunc
	group  *errgroup.Group

	workers     int
	maxAttempts int
	baseBackoff time.Duration
}

func NewProjectionWorker(db *gorm.DB, locks *instanceLocks) *ProjectionWorker {
	return &ProjectionWorker{
		db:          db,
		svc:         NewProjectionService(db),
		locks:       locks,
		tasks:       make(chan ProjectionTask, defaultQueueSize),
		workers:     defaultWorkerCount,
		maxAttempts: defaultMaxAttempts,
		baseBackoff: defaultBaseBackoff,
	}
}

func (w *ProjectionWorker) Start(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	w.cancel = cancel
	g, gctx := errgroup.WithContext(ctx)
	w.group = g

	for i := 0; i < w.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case task, ok := <-w.tasks:
					if !ok {
						return nil
					}
					w.run(gctx, task)
				}
			}
		})
	}
	log.Printf("🚀 [PROJECTION-WORKER] %d worker jalan", w.workers)
}

// Shutdown: berhenti menerima task lalu tunggu worker selesai.
func (w *ProjectionWorker) Shutdown() {
	close(w.tasks)
	if w.group != nil {
		_ = w.group.Wait()
	}
	if w.cancel != nil {
		w.cancel()
	}
	log.Println("👋 [PROJECTION-WORKER] berhenti")
}

// Enqueue: non-blocking; antrean penuh → task ditolak, job langsung
// projection_failed supaya bisa di-resync manual.
func (w *ProjectionWorker) Enqueue(task ProjectionTask) {
	select {
	case w.tasks <- task:
		w.updateJob(task.JobID, m.ImportJobStatusProjecting, map[string]any{
			"timetable_import_job_progress": datatypes.JSONMap{
				"phase": "queued", "message": "menunggu giliran proyeksi",
			},
		})
	default:
		log.Printf("❌ [PROJECTION-WORKER] antrean penuh, job=%s ditandai projection_failed", task.JobID)
		msg := "antrean proyeksi penuh"
		w.updateJob(task.JobID, m.ImportJobStatusProjectionFailed, map[string]any{
			"timetable_import_job_error": &msg,
		})
	}
}

func (w *ProjectionWorker) run(ctx context.Context, task ProjectionTask) {
	var lastErr error
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return
		}
		w.bumpAttempts(task.JobID)

		lastErr = w.runOnce(ctx, task)
		if lastErr == nil {
			return
		}

		log.Printf("⚠️ [PROJECTION-WORKER] job=%s attempt=%d/%d gagal: %v",
			task.JobID, attempt, w.maxAttempts, lastErr)

		if attempt == w.maxAttempts {
			break
		}
		backoff := w.baseBackoff << (attempt - 1)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
	}

	msg := lastErr.Error()
	now := time.Now()
	w.updateJob(task.JobID, m.ImportJobStatusProjectionFailed, map[string]any{
		"timetable_import_job_error":       &msg,
		"timetable_import_job_finished_at": &now,
	})
}

func (w *ProjectionWorker) runOnce(ctx context.Context, task ProjectionTask) error {
	// serialisasi dengan import/resync lain yang menyentuh instance sama
	release := w.locks.AcquireAll(task.InstanceIDs)
	defer release()

	w.updateJob(task.JobID, m.ImportJobStatusProjecting, map[string]any{
		"timetable_import_job_progress": datatypes.JSONMap{
			"phase": "projecting", "current": 0, "total": len(task.InstanceIDs),
			"percentage": 0, "message": "memuat cache",
		},
	})

	caches, err := LoadProjectionCaches(w.db, task.SchoolID)
	if err != nil {
		return err
	}

	var instances []m.TimetableInstanceModel
	if err := w.db.WithContext(ctx).
		Where("timetable_instance_id IN ?", task.InstanceIDs).
		Find(&instances).Error; err != nil {
		return err
	}

	var total BuildStats
	for i := range instances {
		inst := &instances[i]
		stats, err := w.svc.ProjectInstance(ctx, inst, caches, task.Semester, task.Range, ProjectionOptions{Shrink: task.Shrink})
		if err != nil {
			return err
		}
		total.Add(stats)

		done := i + 1
		w.updateJob(task.JobID, m.ImportJobStatusProjecting, map[string]any{
			"timetable_import_job_progress": datatypes.JSONMap{
				"phase":      "projecting",
				"current":    done,
				"total":      len(instances),
				"percentage": done * 100 / len(instances),
				"message":    "proyeksi kelas",
			},
		})
	}

	// ringkasan rekonsiliasi dari fase commit jangan sampai tertimpa:
	// hasil proyeksi masuk sebagai sub-key di result yang sudah ada
	var job m.TimetableImportJobModel
	var prior datatypes.JSONMap
	if err := w.db.Where("timetable_import_job_id = ?", task.JobID).First(&job).Error; err == nil {
		prior = job.TimetableImportJobResult
	}

	now := time.Now()
	w.updateJob(task.JobID, m.ImportJobStatusComplete, map[string]any{
		"timetable_import_job_progress": datatypes.JSONMap{
			"phase": "done", "percentage": 100, "message": "selesai",
		},
		"timetable_import_job_result":      mergeProjectionResult(prior, total),
		"timetable_import_job_finished_at": &now,
	})
	log.Printf("✅ [PROJECTION-WORKER] job=%s selesai (guru=%d siswa=%d)",
		task.JobID, total.TeacherRows, total.StudentRows)
	return nil
}

// mergeProjectionResult: gabungkan statistik proyeksi ke result job
// tanpa membuang ringkasan rekonsiliasi yang ditulis saat commit.
func mergeProjectionResult(result datatypes.JSONMap, stats BuildStats) datatypes.JSONMap {
	if result == nil {
		result = datatypes.JSONMap{}
	}
	result["projection"] = map[string]any{
		"teacher_rows":       stats.TeacherRows,
		"student_rows":       stats.StudentRows,
		"skipped_no_teacher": stats.SkippedNoTeacher,
		"skipped_no_subject": stats.SkippedNoSubject,
	}
	return result
}

func (w *ProjectionWorker) updateJob(jobID uuid.UUID, status m.ImportJobStatusEnum, fields map[string]any) {
	updates := map[string]any{"timetable_import_job_status": status}
	for k, v := range fields {
		updates[k] = v
	}
	if err := w.db.Model(&m.TimetableImportJobModel{}).
		Where("timetable_import_job_id = ?", jobID).
		Updates(updates).Error; err != nil {
		log.Printf("⚠️ [PROJECTION-WORKER] gagal update job %s: %v", jobID, err)
	}
}

func (w *ProjectionWorker) bumpAttempts(jobID uuid.UUID) {
	if err := w.db.Model(&m.TimetableImportJobModel{}).
		Where("timetable_import_job_id = ?", jobID).
		UpdateColumn("timetable_import_job_attempts", gorm.Expr("timetable_import_job_attempts + 1")).
		Error; err != nil {
		log.Printf("⚠️ [PROJECTION-WORKER] gagal update attempts job %s: %v", jobID, err)
	}
}
