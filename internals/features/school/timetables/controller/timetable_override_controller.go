// file: internals/features/school/timetables/controller/timetable_override_controller.go
package controller

import (
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	helper "sekolahku_backend/internals/helpers"
	helperAuth "sekolahku_backend/internals/helpers/auth"
	"sekolahku_backend/internals/helpers/eventbus"

	d "sekolahku_backend/internals/features/school/timetables/dto"
	m "sekolahku_backend/internals/features/school/timetables/model"
	svc "sekolahku_backend/internals/features/school/timetables/services"
)

/* =========================
   Controller & Constructor
   ========================= */

type TimetableOverrideController struct {
	DB       *gorm.DB
	Validate *validator.Validate
	Service  *svc.ImportService // dipakai buat lock & projection bersama
}

func NewTimetableOverrideController(db *gorm.DB, v *validator.Validate, s *svc.ImportService) *TimetableOverrideController {
	return &TimetableOverrideController{DB: db, Validate: v, Service: s}
}

/* =========================
   Handlers
   ========================= */

// POST /admin/timetables/overrides
// Satu override per (instance, tanggal, jam ke-); create di slot yang
// sudah ada override = ganti isinya.
func (ctl *TimetableOverrideController) Create(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}

	var req d.CreateOverrideRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}
	if err := ctl.Validate.Struct(req); err != nil {
		return helper.JsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	}
	if req.Action == string(m.OverrideActionReplace) && req.SubjectID == nil {
		return helper.JsonError(c, fiber.StatusUnprocessableEntity, "action=replace wajib bawa subject_id")
	}

	instanceID, _ := uuid.Parse(req.InstanceID)
	date, _ := d.ParseDate(req.Date)

	var inst m.TimetableInstanceModel
	if err := ctl.DB.
		Where("timetable_instance_id = ? AND timetable_instance_school_id = ?", instanceID, schoolID).
		First(&inst).Error; err != nil {
		status, msg := mapDomainError(err)
		return helper.JsonError(c, status, msg)
	}
	if date.Before(inst.TimetableInstanceStartDate) || date.After(inst.TimetableInstanceEndDate) {
		return helper.JsonError(c, fiber.StatusUnprocessableEntity, "tanggal di luar masa berlaku instance")
	}

	action := m.OverrideActionEnum(req.Action)
	row := m.TimetableCalendarRowModel{
		TimetableCalendarRowSchoolID:       schoolID,
		TimetableCalendarRowInstanceID:     instanceID,
		TimetableCalendarRowKind:           m.CalendarRowKindOverride,
		TimetableCalendarRowDayOfWeek:      isoWeekdayOf(date),
		TimetableCalendarRowPeriodNumber:   req.PeriodNumber,
		TimetableCalendarRowDate:           &date,
		TimetableCalendarRowOverrideAction: &action,
	}
	if req.SubjectID != nil {
		if id, err := uuid.Parse(*req.SubjectID); err == nil {
			row.TimetableCalendarRowSubjectID = &id
		}
	}
	if req.RoomID != nil {
		if id, err := uuid.Parse(*req.RoomID); err == nil {
			row.TimetableCalendarRowRoomID = &id
		}
	}
	if len(req.TeacherIDs) > 0 {
		row.TimetableCalendarRowTeacherIDs = pq.StringArray(req.TeacherIDs)
	}

	err = ctl.DB.Transaction(func(tx *gorm.DB) error {
		// ganti override lama di slot yang sama (kalau ada)
		if err := tx.
			Where("timetable_calendar_row_instance_id = ? AND timetable_calendar_row_kind = ?", instanceID, m.CalendarRowKindOverride).
			Where("timetable_calendar_row_date = ? AND timetable_calendar_row_period_number = ?", date, req.PeriodNumber).
			Delete(&m.TimetableCalendarRowModel{}).Error; err != nil {
			return err
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		status, msg := mapDomainError(err)
		return helper.JsonError(c, status, msg)
	}

	ctl.reprojectDate(c, &inst, date)
	return helper.JsonCreated(c, "Override tersimpan", d.NewOverrideResponse(&row))
}

// PATCH /admin/timetables/overrides/:id
func (ctl *TimetableOverrideController) Update(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	rowID, err := parseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "id override tidak valid")
	}

	var req d.UpdateOverrideRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Payload tidak valid")
	}

	var row m.TimetableCalendarRowModel
	if err := ctl.DB.
		Where("timetable_calendar_row_id = ? AND timetable_calendar_row_school_id = ? AND timetable_calendar_row_kind = ?",
			rowID, schoolID, m.CalendarRowKindOverride).
		First(&row).Error; err != nil {
		status, msg := mapDomainError(err)
		return helper.JsonError(c, status, msg)
	}

	updates := map[string]any{}
	if req.Action.IsSet() {
		a := m.OverrideActionEnum(req.Action.Value)
		if a != m.OverrideActionReplace && a != m.OverrideActionRemove {
			return helper.JsonError(c, fiber.StatusUnprocessableEntity, "action harus replace/remove")
		}
		updates["timetable_calendar_row_override_action"] = a
	}
	if req.SubjectID.IsSet() {
		if !req.SubjectID.Valid {
			updates["timetable_calendar_row_subject_id"] = nil
		} else if id, err := uuid.Parse(req.SubjectID.Value); err == nil {
			updates["timetable_calendar_row_subject_id"] = id
		}
	}
	if req.RoomID.IsSet() {
		if !req.RoomID.Valid {
			updates["timetable_calendar_row_room_id"] = nil
		} else if id, err := uuid.Parse(req.RoomID.Value); err == nil {
			updates["timetable_calendar_row_room_id"] = id
		}
	}
	if req.TeacherIDs.IsSet() {
		if !req.TeacherIDs.Valid {
			updates["timetable_calendar_row_teacher_ids"] = nil
		} else {
			updates["timetable_calendar_row_teacher_ids"] = pq.StringArray(req.TeacherIDs.Value)
		}
	}
	if len(updates) == 0 {
		return helper.JsonOK(c, "Tidak ada perubahan", d.NewOverrideResponse(&row))
	}

	if err := ctl.DB.Model(&m.TimetableCalendarRowModel{}).
		Where("timetable_calendar_row_id = ?", rowID).
		Updates(updates).Error; err != nil {
		status, msg := mapDomainError(err)
		return helper.JsonError(c, status, msg)
	}
	if err := ctl.DB.Where("timetable_calendar_row_id = ?", rowID).First(&row).Error; err != nil {
		status, msg := mapDomainError(err)
		return helper.JsonError(c, status, msg)
	}

	var inst m.TimetableInstanceModel
	if err := ctl.DB.Where("timetable_instance_id = ?", row.TimetableCalendarRowInstanceID).
		First(&inst).Error; err == nil && row.TimetableCalendarRowDate != nil {
		ctl.reprojectDate(c, &inst, *row.TimetableCalendarRowDate)
	}
	return helper.JsonUpdated(c, "Override diperbarui", d.NewOverrideResponse(&row))
}

// DELETE /admin/timetables/overrides/:id
func (ctl *TimetableOverrideController) Delete(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}
	rowID, err := parseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "id override tidak valid")
	}

	var row m.TimetableCalendarRowModel
	if err := ctl.DB.
		Where("timetable_calendar_row_id = ? AND timetable_calendar_row_school_id = ? AND timetable_calendar_row_kind = ?",
			rowID, schoolID, m.CalendarRowKindOverride).
		First(&row).Error; err != nil {
		status, msg := mapDomainError(err)
		return helper.JsonError(c, status, msg)
	}

	if err := ctl.DB.Delete(&row).Error; err != nil {
		status, msg := mapDomainError(err)
		return helper.JsonError(c, status, msg)
	}

	var inst m.TimetableInstanceModel
	if err := ctl.DB.Where("timetable_instance_id = ?", row.TimetableCalendarRowInstanceID).
		First(&inst).Error; err == nil && row.TimetableCalendarRowDate != nil {
		ctl.reprojectDate(c, &inst, *row.TimetableCalendarRowDate)
	}
	return helper.JsonDeleted(c, "Override dihapus", d.NewOverrideResponse(&row))
}

// GET /admin/timetables/overrides?instance_id=&from=&to=
func (ctl *TimetableOverrideController) List(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromToken(c)
	if err != nil {
		return err
	}

	q := ctl.DB.
		Where("timetable_calendar_row_school_id = ? AND timetable_calendar_row_kind = ?", schoolID, m.CalendarRowKindOverride)
	if raw := c.Query("instance_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "instance_id tidak valid")
		}
		q = q.Where("timetable_calendar_row_instance_id = ?", id)
	}
	if raw := c.Query("from"); raw != "" {
		if from, err := d.ParseDate(raw); err == nil {
			q = q.Where("timetable_calendar_row_date >= ?", from)
		}
	}
	if raw := c.Query("to"); raw != "" {
		if to, err := d.ParseDate(raw); err == nil {
			q = q.Where("timetable_calendar_row_date <= ?", to)
		}
	}

	paging := helper.ResolvePaging(c, 20, 200)
	var total int64
	if err := q.Model(&m.TimetableCalendarRowModel{}).Count(&total).Error; err != nil {
		status, msg := mapDomainError(err)
		return helper.JsonError(c, status, msg)
	}

	var rows []m.TimetableCalendarRowModel
	if err := q.Order("timetable_calendar_row_date, timetable_calendar_row_period_number").
		Offset(paging.Offset).Limit(paging.Limit).
		Find(&rows).Error; err != nil {
		status, msg := mapDomainError(err)
		return helper.JsonError(c, status, msg)
	}

	out := make([]d.OverrideResponse, 0, len(rows))
	for i := range rows {
		out = append(out, d.NewOverrideResponse(&rows[i]))
	}
	return helper.JsonList(c, "OK", out, helper.BuildPaginationFromOffset(total, paging.Offset, paging.Limit))
}

/* =========================
   Internal
   ========================= */

func isoWeekdayOf(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// reprojectDate: rebuild proyeksi satu tanggal sinkron. Gagal di sini
// tidak menggagalkan request; tabel baca bisa dikejar lewat resync.
func (ctl *TimetableOverrideController) reprojectDate(c *fiber.Ctx, inst *m.TimetableInstanceModel, date time.Time) {
	var header m.TimetableModel
	if err := ctl.DB.Where("timetable_id = ?", inst.TimetableInstanceTimetableID).
		First(&header).Error; err != nil {
		log.Printf("⚠️ [OVERRIDE] header instance %s tidak ketemu: %v", inst.TimetableInstanceID, err)
		return
	}

	if ctl.Service.Bus != nil {
		ctl.Service.Bus.Publish(eventbus.Event{Name: svc.EventInstanceInvalidated, Payload: map[string]any{
			"school_id":   inst.TimetableInstanceSchoolID.String(),
			"instance_id": inst.TimetableInstanceID.String(),
			"date":        date.Format("2006-01-02"),
		}})
	}

	release := ctl.Service.Locks.AcquireAll([]uuid.UUID{inst.TimetableInstanceID})
	defer release()

	caches, err := svc.LoadProjectionCaches(ctl.DB, inst.TimetableInstanceSchoolID)
	if err != nil {
		log.Printf("⚠️ [OVERRIDE] gagal load cache proyeksi: %v", err)
		return
	}
	proj := svc.NewProjectionService(ctl.DB)
	if _, err := proj.ProjectInstance(c.Context(), inst, caches, header.TimetableSemester,
		svc.ProjectionRange{Start: date, End: date}, svc.ProjectionOptions{}); err != nil {
		log.Printf("⚠️ [OVERRIDE] reproject %s gagal: %v", date.Format("2006-01-02"), err)
	}
}
