// file: internals/features/school/timetables/services/projection_worker_test.go
package services

import (
	"testing"

	"gorm.io/datatypes"
)

// Ringkasan rekonsiliasi yang ditulis saat commit harus selamat saat
// worker menambahkan statistik proyeksi ke result job.
func TestMergeProjectionResult_KeepsCommitSummary(t *testing.T) {
	prior := datatypes.JSONMap{
		"classes":        2,
		"rows_inserted":  10,
		"rows_deleted":   3,
		"rows_truncated": 1,
		"rows_split":     1,
		"warnings":       []any{"baris 4: ruang \"R9\" tidak dikenal, dilewati"},
	}

	merged := mergeProjectionResult(prior, BuildStats{
		TeacherRows:      12,
		StudentRows:      40,
		SkippedNoTeacher: 2,
		SkippedNoSubject: 1,
	})

	for _, key := range []string{"classes", "rows_inserted", "rows_deleted", "rows_truncated", "rows_split", "warnings"} {
		if _, ok := merged[key]; !ok {
			t.Fatalf("key commit %q hilang setelah merge: %v", key, merged)
		}
	}
	proj, ok := merged["projection"].(map[string]any)
	if !ok {
		t.Fatalf("statistik proyeksi harus masuk sub-key projection: %v", merged)
	}
	if proj["teacher_rows"] != 12 || proj["student_rows"] != 40 {
		t.Fatalf("statistik proyeksi salah: %v", proj)
	}
	if proj["skipped_no_teacher"] != 2 || proj["skipped_no_subject"] != 1 {
		t.Fatalf("counter skip salah: %v", proj)
	}
}

func TestMergeProjectionResult_NilPrior(t *testing.T) {
	merged := mergeProjectionResult(nil, BuildStats{TeacherRows: 1})
	proj, ok := merged["projection"].(map[string]any)
	if !ok || proj["teacher_rows"] != 1 {
		t.Fatalf("merge dari result kosong harus tetap jalan: %v", merged)
	}
}
