package export

import (
	"bytes"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestJob_ProgressNeverDecreases(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	job := registry.Create("listado_Verano_Español.xlsx")
	job.SetTotalUnits(100)

	job.AddUnits(40)
	if got := job.Status().Progress; got != 40 {
		t.Fatalf("progress = %d, want 40", got)
	}

	// Workers can finish out of order; a late small credit must not move
	// the percentage backwards.
	job.AddUnits(1)
	if got := job.Status().Progress; got != 41 {
		t.Fatalf("progress = %d, want 41", got)
	}

	job.AddUnits(200)
	if got := job.Status().Progress; got != 100 {
		t.Fatalf("overshoot must clamp at 100, got %d", got)
	}
}

func TestJob_ProgressWithoutTotalStaysAtZero(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	job := registry.Create("listado_Verano_Español.xlsx")

	job.AddUnits(10)
	if got := job.Status().Progress; got != 0 {
		t.Fatalf("progress before SetTotalUnits = %d, want 0", got)
	}
}

func TestJob_CompleteAndFailForceFullProgress(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	done := registry.Create("a.xlsx")
	done.SetTotalUnits(10)
	done.AddUnits(3)
	done.Complete(bytes.NewBufferString("artifact"))
	status := done.Status()
	if status.Phase != PhaseCompleted || status.Progress != 100 {
		t.Errorf("completed job status = %+v, want phase %s progress 100", status, PhaseCompleted)
	}
	if status.ETASeconds != nil {
		t.Error("completed job must not report an ETA")
	}

	failed := registry.Create("b.xlsx")
	failed.SetTotalUnits(10)
	failed.AddUnits(3)
	failed.Fail("no hay artículos para el grupo")
	status = failed.Status()
	if status.Phase != PhaseFailed || status.Progress != 100 {
		t.Errorf("failed job status = %+v, want phase %s progress 100", status, PhaseFailed)
	}
	if status.Error != "no hay artículos para el grupo" {
		t.Errorf("failed job error = %q", status.Error)
	}
}

func TestJob_ETAOnlyInsideWindow(t *testing.T) {
	registry := NewRegistry(zap.NewNop())
	job := registry.Create("a.xlsx")
	job.StartedAt = time.Now().Add(-10 * time.Second)
	job.SetTotalUnits(100)

	job.AddUnits(2)
	if job.Status().ETASeconds != nil {
		t.Error("no ETA at 2%: too little signal to extrapolate from")
	}

	job.AddUnits(48) // 50%
	eta := job.Status().ETASeconds
	if eta == nil {
		t.Fatal("expected an ETA at 50%")
	}
	// 10s elapsed at half done extrapolates to ~10s remaining.
	if *eta < 8 || *eta > 12 {
		t.Errorf("ETA = %ds, want ~10s", *eta)
	}

	job.AddUnits(49) // 99%
	if job.Status().ETASeconds != nil {
		t.Error("no ETA at 99%: the remainder rounds away")
	}
}

func TestJob_ResultOnlyAfterCompletion(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	job := registry.Create("a.xlsx")
	if job.Result() != nil {
		t.Error("running job must not expose a result")
	}

	job.Complete(bytes.NewBufferString("artifact"))
	result := job.Result()
	if result == nil || result.String() != "artifact" {
		t.Errorf("completed job result = %v", result)
	}

	failed := registry.Create("b.xlsx")
	failed.Fail("boom")
	if failed.Result() != nil {
		t.Error("failed job must not expose a result")
	}
}

func TestRegistry_GetUnknownJob(t *testing.T) {
	registry := NewRegistry(zap.NewNop())

	if _, ok := registry.Get("missing"); ok {
		t.Error("unknown id must not resolve")
	}

	job := registry.Create("a.xlsx")
	got, ok := registry.Get(job.ID)
	if !ok || got != job {
		t.Error("created job must resolve by id")
	}

	other := registry.Create("b.xlsx")
	if other.ID == job.ID {
		t.Error("job ids must be unique")
	}
}
