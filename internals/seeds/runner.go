// file: internals/seeds/runner.go
package seeds

import (
	"fmt"
	"log"
	"os"

	amodel "sekolahku_backend/internals/features/school/academics/model"
	helper "sekolahku_backend/internals/helpers"
	"sekolahku_backend/internals/helpers/dbtime"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

/* =========================================================
   Seed data demo untuk satu sekolah: jam pelajaran, kelas,
   mapel, guru. Idempoten: ON CONFLICT DO NOTHING, aman
   dijalankan berulang.
   Aktifkan via env RUN_SEEDS=true (school id dari SEED_SCHOOL_ID).
   ========================================================= */

func Run(db *gorm.DB) {
	raw := os.Getenv("SEED_SCHOOL_ID")
	schoolID, err := uuid.Parse(raw)
	if err != nil {
		log.Printf("⚠️ [SEED] SEED_SCHOOL_ID tidak valid (%q), seed dilewati", raw)
		return
	}

	if err := seedPeriodSlots(db, schoolID); err != nil {
		log.Printf("❌ [SEED] period slots: %v", err)
		return
	}
	if err := seedClasses(db, schoolID); err != nil {
		log.Printf("❌ [SEED] classes: %v", err)
		return
	}
	if err := seedSubjects(db, schoolID); err != nil {
		log.Printf("❌ [SEED] subjects: %v", err)
		return
	}
	if err := seedTeachers(db, schoolID); err != nil {
		log.Printf("❌ [SEED] teachers: %v", err)
		return
	}
	log.Println("✅ [SEED] selesai")
}

func seedPeriodSlots(db *gorm.DB, schoolID uuid.UUID) error {
	// 8 jam pelajaran @40 menit, istirahat setelah jam ke-4 dan ke-7
	times := [][2]string{
		{"07:00", "07:40"}, {"07:40", "08:20"}, {"08:20", "09:00"}, {"09:00", "09:40"},
		{"10:00", "10:40"}, {"10:40", "11:20"}, {"11:20", "12:00"}, {"12:30", "13:10"},
	}
	rows := make([]amodel.PeriodSlotModel, 0, len(times))
	for i, tt := range times {
		start, err := dbtime.Parse(tt[0])
		if err != nil {
			return err
		}
		end, err := dbtime.Parse(tt[1])
		if err != nil {
			return err
		}
		label := fmt.Sprintf("Jam ke-%d", i+1)
		rows = append(rows, amodel.PeriodSlotModel{
			PeriodSlotSchoolID:  schoolID,
			PeriodSlotNumber:    i + 1,
			PeriodSlotStartTime: start,
			PeriodSlotEndTime:   end,
			PeriodSlotLabel:     &label,
		})
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func seedClasses(db *gorm.DB, schoolID uuid.UUID) error {
	type cls struct{ name, grade string }
	classes := []cls{
		{"Kelas 7A", "7"}, {"Kelas 7B", "7"},
		{"Kelas 8A", "8"}, {"Kelas 8B", "8"},
		{"Kelas 9A", "9"},
	}
	rows := make([]amodel.ClassModel, 0, len(classes))
	for _, c := range classes {
		grade := c.grade
		rows = append(rows, amodel.ClassModel{
			ClassSchoolID:     schoolID,
			ClassName:         c.name,
			ClassSlug:         helper.Slugify(c.name, 160),
			ClassGrade:        &grade,
			ClassAcademicYear: "2026/2027",
		})
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func seedSubjects(db *gorm.DB, schoolID uuid.UUID) error {
	subjects := [][2]string{
		{"MTK", "Matematika"},
		{"BIN", "Bahasa Indonesia"},
		{"BIG", "Bahasa Inggris"},
		{"IPA", "Ilmu Pengetahuan Alam"},
		{"IPS", "Ilmu Pengetahuan Sosial"},
		{"PAI", "Pendidikan Agama Islam"},
		{"PJOK", "Pendidikan Jasmani"},
	}
	rows := make([]amodel.SubjectModel, 0, len(subjects))
	for _, s := range subjects {
		rows = append(rows, amodel.SubjectModel{
			SubjectSchoolID: schoolID,
			SubjectCode:     s[0],
			SubjectName:     s[1],
		})
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

func seedTeachers(db *gorm.DB, schoolID uuid.UUID) error {
	teachers := [][2]string{
		{"G001", "Budi Santoso"},
		{"G002", "Sari Rahmawati"},
		{"G003", "Andi Wijaya"},
		{"G004", "Dewi Lestari"},
	}
	rows := make([]amodel.TeacherModel, 0, len(teachers))
	for _, t := range teachers {
		rows = append(rows, amodel.TeacherModel{
			TeacherSchoolID: schoolID,
			TeacherCode:     t[0],
			TeacherName:     t[1],
			TeacherIsActive: true,
		})
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}
