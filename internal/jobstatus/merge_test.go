package jobstatus

import "testing"

func TestMerge_NoPrevious(t *testing.T) {
	got := Merge(nil, Status{JobID: "j1", Status: "queued", Progress: 150})
	if got.Progress != 100 {
		t.Errorf("expected progress clamped to 100, got %d", got.Progress)
	}
	if got.JobID != "j1" || got.Status != "queued" {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestMerge_ProgressFloor(t *testing.T) {
	prev := &Status{JobID: "j1", Status: "processing", Progress: 40}
	got := Merge(prev, Status{JobID: "j1", Status: "PROGRESS", Progress: 30, Message: "Swapping faces"})

	if got.Progress != 40 {
		t.Errorf("expected progress to stay at 40, got %d", got.Progress)
	}
	if got.Message != "Swapping faces" {
		t.Errorf("expected incoming fields to win, got message %q", got.Message)
	}
}

func TestMerge_ProgressAdvances(t *testing.T) {
	prev := &Status{JobID: "j1", Status: "processing", Progress: 40}
	got := Merge(prev, Status{JobID: "j1", Status: "processing", Progress: 80})
	if got.Progress != 80 {
		t.Errorf("expected progress 80, got %d", got.Progress)
	}
}

func TestMerge_TerminalIsSticky(t *testing.T) {
	done := &Status{JobID: "j1", Status: "completed", Progress: 100, OutputURL: "/api/download/out.mp4"}

	incoming := []Status{
		{JobID: "j1", Status: "processing", Progress: 90},
		{JobID: "j1", Status: "failed", Error: "late failure"},
		{JobID: "j1", Status: "SUCCESS", Progress: 100, OutputURL: "/api/download/other.mp4"},
	}
	for _, in := range incoming {
		got := Merge(done, in)
		if got != *done {
			t.Errorf("terminal status replaced by %+v, got %+v", in, got)
		}
	}
}

func TestMerge_TerminalReplacesProgress(t *testing.T) {
	prev := &Status{JobID: "j1", Status: "processing", Progress: 80}
	got := Merge(prev, Status{JobID: "j1", Status: "FAILURE", Progress: 0, Error: "no face detected"})

	if got.State() != StateFailed {
		t.Fatalf("expected failed state, got %s", got.State())
	}
	if got.Progress != 0 {
		t.Errorf("terminal record is taken wholesale, expected progress 0, got %d", got.Progress)
	}
	if got.Error != "no face detected" {
		t.Errorf("unexpected error %q", got.Error)
	}
}

func TestMerge_DifferentJob(t *testing.T) {
	prev := &Status{JobID: "old", Status: "completed", Progress: 100}
	got := Merge(prev, Status{JobID: "new", Status: "queued", Progress: 0})
	if got.JobID != "new" || got.Status != "queued" {
		t.Errorf("expected record of another job to be taken as is, got %+v", got)
	}
}

func TestMerge_UnknownStatusIsNotTerminal(t *testing.T) {
	prev := &Status{JobID: "j1", Status: "weird", Progress: 20}
	got := Merge(prev, Status{JobID: "j1", Status: "processing", Progress: 10})
	if got.Status != "processing" || got.Progress != 20 {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestIdentityMerge_TaskAndJobHandles(t *testing.T) {
	id := NewIdentity("j1", "t1")

	// Placeholder carries the job id, poll records carry the task id.
	prev := &Status{JobID: "j1", Status: "processing", Progress: 30}
	got := id.Merge(prev, Status{JobID: "t1", Status: "processing", Progress: 20})
	if got.Progress != 30 {
		t.Errorf("expected floor to apply across handles, got %d", got.Progress)
	}

	done := &Status{JobID: "t1", Status: "completed", Progress: 100}
	got = id.Merge(done, Status{JobID: "j1", Status: "processing", Progress: 90})
	if got != *done {
		t.Errorf("expected terminal stickiness across handles, got %+v", got)
	}
}

func TestIdentityMerge_Scenario(t *testing.T) {
	id := NewIdentity("j1", "t1")
	records := []Status{
		{JobID: "j1", Status: "queued"},
		{JobID: "t1", Status: "processing", Progress: 20},
		{JobID: "j1", Status: "processing", Progress: 40},
		{JobID: "t1", Status: "processing", Progress: 30},
		{JobID: "j1", Status: "completed", Progress: 100, OutputURL: "/api/download/x.mp4"},
		{JobID: "t1", Status: "processing", Progress: 90},
	}

	var current *Status
	var shown []int
	for _, rec := range records {
		next := id.Merge(current, rec)
		current = &next
		shown = append(shown, next.Progress)
	}

	want := []int{0, 20, 40, 40, 100, 100}
	for i := range want {
		if shown[i] != want[i] {
			t.Fatalf("progress sequence = %v, want %v", shown, want)
		}
	}
	if current.OutputURL != "/api/download/x.mp4" || current.State() != StateCompleted {
		t.Errorf("unexpected final status: %+v", current)
	}
}
