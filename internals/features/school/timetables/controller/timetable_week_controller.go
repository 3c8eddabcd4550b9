// file: internals/features/school/timetables/controller/timetable_week_controller.go
package controller

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	helper "sekolahku_backend/internals/helpers"
	helperAuth "sekolahku_backend/internals/helpers/auth"
	"sekolahku_backend/internals/helpers/dbtime"

	d "sekolahku_backend/internals/features/school/timetables/dto"
	svc "sekolahku_backend/internals/features/school/timetables/services"
)

type TimetableWeekController struct {
	DB    *gorm.DB
	Weeks *svc.WeekService
}

func NewTimetableWeekController(db *gorm.DB) *TimetableWeekController {
	return &TimetableWeekController{DB: db, Weeks: svc.NewWeekService(db)}
}

// anchor pekan dari ?date=YYYY-MM-DD, default hari ini di timezone sekolah
func weekAnchor(c *fiber.Ctx) (time.Time, error) {
	raw := strings.TrimSpace(c.Query("date"))
	if raw == "" {
		return dbtime.NowInSchool(c), nil
	}
	return d.ParseDate(raw)
}

// GET /u/timetables/teachers/:id/week?date=
func (ctl *TimetableWeekController) TeacherWeek(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromTokenPreferTeacher(c)
	if err != nil {
		return err
	}
	teacherID, err := parseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "id guru tidak valid")
	}
	anchor, err := weekAnchor(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "format date harus YYYY-MM-DD")
	}

	resp, err := ctl.Weeks.TeacherWeek(schoolID, teacherID, anchor)
	if err != nil {
		status, msg := mapDomainError(err)
		return helper.JsonError(c, status, msg)
	}
	return helper.JsonOK(c, "OK", resp)
}

// GET /u/timetables/students/:id/week?date=
// :id boleh "me" → siswa di-resolve dari token/DB
func (ctl *TimetableWeekController) StudentWeek(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromTokenPreferTeacher(c)
	if err != nil {
		return err
	}
	var studentID uuid.UUID
	if strings.EqualFold(strings.TrimSpace(c.Params("id")), "me") {
		studentID, err = helperAuth.GetSchoolStudentIDSmart(c, ctl.DB, schoolID)
		if err != nil {
			return err
		}
	} else if studentID, err = parseUUIDParam(c, "id"); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "id siswa tidak valid")
	}
	anchor, err := weekAnchor(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "format date harus YYYY-MM-DD")
	}

	resp, err := ctl.Weeks.StudentWeek(schoolID, studentID, anchor)
	if err != nil {
		status, msg := mapDomainError(err)
		return helper.JsonError(c, status, msg)
	}
	return helper.JsonOK(c, "OK", resp)
}

// GET /u/timetables/classes/:id/week?date=
func (ctl *TimetableWeekController) ClassWeek(c *fiber.Ctx) error {
	schoolID, err := helperAuth.GetSchoolIDFromTokenPreferTeacher(c)
	if err != nil {
		return err
	}
	classID, err := parseUUIDParam(c, "id")
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "id kelas tidak valid")
	}
	anchor, err := weekAnchor(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "format date harus YYYY-MM-DD")
	}

	resp, err := ctl.Weeks.ClassWeek(schoolID, classID, anchor)
	if err != nil {
		status, msg := mapDomainError(err)
		return helper.JsonError(c, status, msg)
	}
	return helper.JsonOK(c, "OK", resp)
}
