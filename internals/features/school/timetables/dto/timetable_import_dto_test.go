package dto

import "testing"

func TestParseDayOfWeek(t *testing.T) {
	cases := map[string]int{
		"Monday":   1,
		"senin":    1,
		"SEN":      1,
		" tue ":    2,
		"Selasa":   2,
		"rabu":     3,
		"Thursday": 4,
		"jum'at":   5,
		"Sabtu":    6,
		"ahad":     7,
		"minggu":   7,
	}
	for in, want := range cases {
		got, err := ParseDayOfWeek(in)
		if err != nil {
			t.Errorf("ParseDayOfWeek(%q) error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseDayOfWeek(%q) = %d, mau %d", in, got, want)
		}
	}

	for _, in := range []string{"", "funday", "8", "lundi"} {
		if _, err := ParseDayOfWeek(in); err == nil {
			t.Errorf("ParseDayOfWeek(%q) harus error", in)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2026-07-15 ")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Year() != 2026 || int(d.Month()) != 7 || d.Day() != 15 {
		t.Errorf("ParseDate salah: %v", d)
	}
	if _, err := ParseDate("15-07-2026"); err == nil {
		t.Error("format dd-mm-yyyy harus ditolak")
	}
}
