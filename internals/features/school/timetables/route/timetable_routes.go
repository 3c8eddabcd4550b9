// file: internals/features/school/timetables/route/timetable_routes.go
package route

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	ctlr "sekolahku_backend/internals/features/school/timetables/controller"
	svc "sekolahku_backend/internals/features/school/timetables/services"
)

// TimetableAdminRoutes: import, resync, job polling, override CRUD.
// importSvc singleton dari main (worker proyeksi nempel di situ).
func TimetableAdminRoutes(r fiber.Router, db *gorm.DB, importSvc *svc.ImportService) {
	v := validator.New()
	imp := ctlr.NewTimetableImportController(db, v, importSvc)
	ovr := ctlr.NewTimetableOverrideController(db, v, importSvc)

	g := r.Group("/timetables")
	g.Post("/import", imp.Import)
	g.Post("/resync", imp.Resync)
	g.Get("/import/jobs/:id", imp.GetJob)

	g.Post("/overrides", ovr.Create)
	g.Get("/overrides", ovr.List)
	g.Patch("/overrides/:id", ovr.Update)
	g.Delete("/overrides/:id", ovr.Delete)
}

// TimetableUserRoutes: endpoint baca pekan (guru/siswa/kelas).
func TimetableUserRoutes(r fiber.Router, db *gorm.DB) {
	week := ctlr.NewTimetableWeekController(db)

	g := r.Group("/timetables")
	g.Get("/teachers/:id/week", week.TeacherWeek)
	g.Get("/students/:id/week", week.StudentWeek)
	g.Get("/classes/:id/week", week.ClassWeek)
}
