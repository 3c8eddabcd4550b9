// file: internals/routes/setup.go
package routes

import (
	"context"
	"log"
	"os"
	"time"

	helperAuth "sekolahku_backend/internals/helpers/auth"
	schoolkuMiddleware "sekolahku_backend/internals/middlewares/auth_school"
	featuresMiddleware "sekolahku_backend/internals/middlewares/features"

	timetableRoute "sekolahku_backend/internals/features/school/timetables/route"
	timetableSvc "sekolahku_backend/internals/features/school/timetables/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var startTime time.Time

func SetupRoutes(app *fiber.App, db *gorm.DB, importSvc *timetableSvc.ImportService) {
	startTime = time.Now()

	log.Println("[INFO] Setting up BaseRoutes...")
	BaseRoutes(app, db)

	jwtSecret := os.Getenv("JWT_SECRET")
	blacklist := func(rawToken string) (bool, error) {
		return helperAuth.IsBlacklisted(context.Background(), db, rawToken, jwtSecret)
	}

	// ===================== GROUPS =====================

	// PRIVATE (USER) → JWT wajib
	log.Println("[INFO] Setting up PRIVATE (user) group...")
	private := app.Group("/api/u",
		schoolkuMiddleware.AuthJWT(schoolkuMiddleware.AuthJWTOpts{
			Secret:              jwtSecret,
			BlacklistChecker:    blacklist,
			AllowCookieFallback: true,
		}),
	)

	// ADMIN (per school) → JWT + scope + role admin
	log.Println("[INFO] Setting up ADMIN group (Auth + Scope + RoleCheck)...")
	admin := app.Group("/api/a",
		schoolkuMiddleware.AuthJWT(schoolkuMiddleware.AuthJWTOpts{
			Secret:              jwtSecret,
			BlacklistChecker:    blacklist,
			AllowCookieFallback: true,
		}),
		featuresMiddleware.UseSchoolScope(),
		featuresMiddleware.RequirePathScopeMatch(),
		featuresMiddleware.IsSchoolAdmin(),
	)

	// ===================== MOUNT ROUTES =====================

	log.Println("[INFO] Mounting Timetable routes...")
	timetableRoute.TimetableUserRoutes(private, db)
	timetableRoute.TimetableAdminRoutes(admin, db, importSvc)
}
