// file: internals/features/school/timetables/controller/timetable_import_controller.go
package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	helper "sekolahku_backend/internals/helpers"
	helperAuth "sekolahku_backend/internals/helpers/auth"

	d "sekolahku_backend/internals/features/school/timetables/dto"
	svc "sekolahku_backend/internals/features/school/timetables/services"
)

/* =========================
   Controller & Constructor
   ========================= */

type TimetableImportController struct {
	DB       *gorm.DB
	Validate *validator.Validate
	Service  *svc.ImportService
}

func NewTimetableImportController(db *gorm.DB, v *validator.Validate, s *svc.ImportService) *TimetableImportController {
	return &TimetableImportController{DB: db, Validate: v, Service: s}
}

/* =========================
   Helpers
   ========================= */

func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	idStr := strings.TrimSpace(c.Params(name))
	if idStr == "" {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, name+" wajib diisi")
	}
	return uuid.Parse(idStr)
}

// --- PG error mapping ---

type pgSQLErr interface {
	SQLState() string
	Error() string
}

// mapDomainError memetakan error domain import → status HTTP.
func mapDomainError(err error) (int, string) {
	var (
		vErr   *svc.ValidationError
		refErr *svc.ReferentialError
		rrErr  *svc.RangeRegressionError
	)
	switch {
	case errors.As(err, &vErr):
		return http.StatusUnprocessableEntity, vErr.Error()
	case errors.As(err, &refErr):
		return http.StatusBadRequest, refErr.Error()
	case errors.As(err, &rrErr):
		return http.StatusConflict, rrErr.Error()
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, "Data tidak ditemukan"
	}

	// 23503 = foreign_key_violation, 23505 = unique_violation
	var pgErr pgSQLErr
	if errors.As(err, &pgErr) {
		switch pgErr.SQLState() {
		case "23503":
			return http.StatusBadRequest, "Referensi tidak ditemukan (FK violation)."
		case "23505":
			return http.StatusConflict, "Data duplikat (unique violation)."
		}
	}
	return http.StatusInternalServerError, err.Error()
}

/* =========================
   Handlers
   ========================= */

// POST /admin/timetables/import
// Commit jadwal sinkron (satu transaksi); proyeksi jalan di worker.
// Respons: job row buat polling progress.
func (ctl *TimetableImportController) Import(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}

	var req d.ImportTimetableRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := ctl.Validate.Struct(req); err != nil {
		return helper.JsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	job, err := ctl.Service.Run(c.Context(), schoolID, &req)
	if err != nil {
		status, msg := mapDomainError(err)
		if job != nil {
			// job row tetap dikirim supaya klien bisa lihat jejak gagalnya
			return c.Status(status).JSON(fiber.Map{
				"success": false,
				"message": msg,
				"data":    d.NewImportJobResponse(job),
			})
		}
		return helper.JsonError(c, status, msg)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success": true,
		"message": "Jadwal tersimpan, proyeksi sedang berjalan",
		"data":    d.NewImportJobResponse(job),
	})
}

// POST /admin/timetables/resync
// Bangun ulang tabel proyeksi tanpa menyentuh jadwal tersimpan.
func (ctl *TimetableImportController) Resync(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}

	var req d.ResyncProjectionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := ctl.Validate.Struct(req); err != nil {
		return helper.JsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}

	job, err := ctl.Service.Resync(c.Context(), schoolID, &req)
	if err != nil {
		status, msg := mapDomainError(err)
		return helper.JsonError(c, status, msg)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"success": true,
		"message": "Resync proyeksi dijadwalkan",
		"data":    d.NewImportJobResponse(job),
	})
}

// GET /admin/timetables/import/jobs/:id
func (ctl *TimetableImportController) GetJob(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	jobID, err := parseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "id job tidak valid")
	}

	job, err := ctl.Service.GetJob(schoolID, jobID)
	if err != nil {
		status, msg := mapDomainError(err)
		return helper.JsonError(c, status, msg)
	}
	return helper.JsonOK(c, "OK", d.NewImportJobResponse(job))
}
