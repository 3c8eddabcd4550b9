package services

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
)

func day(n int) time.Time {
	return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func iv(from, to int) PatternInterval {
	return PatternInterval{RowID: uuid.New(), From: day(from), To: day(to)}
}

func TestPlanReconcile_FullContainment(t *testing.T) {
	old := iv(10, 20)
	plan := PlanReconcile([]PatternInterval{old}, day(5), day(25))

	if len(plan.Delete) != 1 || plan.Delete[0] != old.RowID {
		t.Fatalf("interval tertelan penuh harus dihapus, plan=%+v", plan)
	}
	if len(plan.Truncate) != 0 || len(plan.Clone) != 0 {
		t.Fatalf("tidak boleh ada aksi lain, plan=%+v", plan)
	}
}

func TestPlanReconcile_SplitWhenNewInsideOld(t *testing.T) {
	old := iv(0, 30)
	plan := PlanReconcile([]PatternInterval{old}, day(10), day(20))

	if len(plan.Truncate) != 1 {
		t.Fatalf("harus ada 1 truncate (kepala), plan=%+v", plan)
	}
	head := plan.Truncate[0]
	if !head.NewFrom.Equal(day(0)) || !head.NewTo.Equal(day(9)) {
		t.Errorf("kepala = [%v..%v], mau [day0..day9]", head.NewFrom, head.NewTo)
	}
	if len(plan.Clone) != 1 {
		t.Fatalf("harus ada 1 clone (ekor), plan=%+v", plan)
	}
	tail := plan.Clone[0]
	if !tail.From.Equal(day(21)) || !tail.To.Equal(day(30)) {
		t.Errorf("ekor = [%v..%v], mau [day21..day30]", tail.From, tail.To)
	}
	if tail.SourceRowID != old.RowID {
		t.Errorf("clone harus berasal dari row lama")
	}
}

func TestPlanReconcile_TailOverlap(t *testing.T) {
	old := iv(0, 15)
	plan := PlanReconcile([]PatternInterval{old}, day(10), day(25))

	if len(plan.Truncate) != 1 || len(plan.Delete) != 0 || len(plan.Clone) != 0 {
		t.Fatalf("overlap ekor harus jadi 1 truncate, plan=%+v", plan)
	}
	tr := plan.Truncate[0]
	if !tr.NewFrom.Equal(day(0)) || !tr.NewTo.Equal(day(9)) {
		t.Errorf("truncate = [%v..%v], mau [day0..day9]", tr.NewFrom, tr.NewTo)
	}
}

func TestPlanReconcile_HeadOverlap(t *testing.T) {
	old := iv(10, 30)
	plan := PlanReconcile([]PatternInterval{old}, day(5), day(15))

	if len(plan.Truncate) != 1 || len(plan.Delete) != 0 || len(plan.Clone) != 0 {
		t.Fatalf("overlap kepala harus jadi 1 truncate, plan=%+v", plan)
	}
	tr := plan.Truncate[0]
	if !tr.NewFrom.Equal(day(16)) || !tr.NewTo.Equal(day(30)) {
		t.Errorf("truncate = [%v..%v], mau [day16..day30]", tr.NewFrom, tr.NewTo)
	}
}

func TestPlanReconcile_NoOverlapUntouched(t *testing.T) {
	plan := PlanReconcile([]PatternInterval{iv(0, 5), iv(30, 40)}, day(10), day(20))
	if !plan.IsEmpty() {
		t.Fatalf("interval di luar rentang tidak boleh disentuh, plan=%+v", plan)
	}
}

func TestPlanReconcile_ExactBoundaries(t *testing.T) {
	// nempel persis di batas = tertelan penuh
	old := iv(10, 20)
	plan := PlanReconcile([]PatternInterval{old}, day(10), day(20))
	if len(plan.Delete) != 1 {
		t.Fatalf("rentang sama persis harus delete, plan=%+v", plan)
	}

	// bersebelahan (tidak beririsan) = tidak disentuh
	plan = PlanReconcile([]PatternInterval{iv(10, 20)}, day(21), day(30))
	if !plan.IsEmpty() {
		t.Fatalf("interval bersebelahan tidak boleh disentuh, plan=%+v", plan)
	}
}

// applyPlan: terapkan plan in-memory buat verifikasi properti.
func applyPlan(existing []PatternInterval, plan ReconcilePlan) []PatternInterval {
	deleted := map[uuid.UUID]bool{}
	for _, id := range plan.Delete {
		deleted[id] = true
	}
	trunc := map[uuid.UUID]Truncation{}
	for _, tr := range plan.Truncate {
		trunc[tr.RowID] = tr
	}

	var out []PatternInterval
	for _, e := range existing {
		if deleted[e.RowID] {
			continue
		}
		if tr, ok := trunc[e.RowID]; ok {
			out = append(out, PatternInterval{RowID: e.RowID, From: tr.NewFrom, To: tr.NewTo})
			continue
		}
		out = append(out, e)
	}
	for _, cl := range plan.Clone {
		out = append(out, PatternInterval{RowID: uuid.New(), From: cl.From, To: cl.To})
	}
	return out
}

func covered(ivs []PatternInterval, d time.Time) bool {
	for _, e := range ivs {
		if !d.Before(e.From) && !d.After(e.To) {
			return true
		}
	}
	return false
}

// Properti: setelah rekonsiliasi (1) tidak ada interval menyentuh rentang
// baru, (2) coverage di luar rentang baru persis sama dengan sebelumnya,
// (3) tidak ada interval degenerate.
func TestPlanReconcile_Property(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	const domain = 60

	for trial := 0; trial < 200; trial++ {
		// interval acak yang saling lepas (mulai dari potongan berurutan)
		var existing []PatternInterval
		cursor := 0
		for cursor < domain-2 {
			gap := rng.Intn(3)
			length := 1 + rng.Intn(8)
			from := cursor + gap
			to := from + length - 1
			if to >= domain {
				break
			}
			existing = append(existing, iv(from, to))
			cursor = to + 1
		}

		nf := rng.Intn(domain)
		nt := nf + rng.Intn(domain-nf)
		newFrom, newTo := day(nf), day(nt)

		plan := PlanReconcile(existing, newFrom, newTo)
		after := applyPlan(existing, plan)

		for _, e := range after {
			if e.To.Before(e.From) {
				t.Fatalf("trial %d: interval degenerate [%v..%v]", trial, e.From, e.To)
			}
			if !e.To.Before(newFrom) && !e.From.After(newTo) {
				t.Fatalf("trial %d: interval [%v..%v] masih menyentuh rentang baru [%v..%v]",
					trial, e.From, e.To, newFrom, newTo)
			}
		}
		for dd := 0; dd < domain; dd++ {
			d := day(dd)
			if !d.Before(newFrom) && !d.After(newTo) {
				continue // dalam rentang baru, coverage memang berubah
			}
			if covered(existing, d) != covered(after, d) {
				t.Fatalf("trial %d: coverage %v berubah di luar rentang baru", trial, d)
			}
		}
	}
}
