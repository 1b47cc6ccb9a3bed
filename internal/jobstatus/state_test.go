package jobstatus

import "testing"

func TestParseState(t *testing.T) {
	tests := []struct {
		raw  string
		want State
	}{
		{"queued", StateQueued},
		{"pending", StateQueued},
		{"PENDING", StateQueued},
		{"received", StateQueued},
		{"processing", StateProcessing},
		{"PROGRESS", StateProcessing},
		{"progress", StateProcessing},
		{"started", StateProcessing},
		{"retry", StateProcessing},
		{"completed", StateCompleted},
		{"SUCCESS", StateCompleted},
		{"Completed", StateCompleted},
		{"failed", StateFailed},
		{"FAILURE", StateFailed},
		{"revoked", StateFailed},
		{"  failed\n", StateFailed},
		{"", StateUnknown},
		{"uploading", StateUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := ParseState(tt.raw); got != tt.want {
				t.Errorf("ParseState(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestState_IsTerminal(t *testing.T) {
	terminal := map[State]bool{
		StateQueued:     false,
		StateProcessing: false,
		StateCompleted:  true,
		StateFailed:     true,
		StateUnknown:    false,
	}
	for state, want := range terminal {
		if got := state.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", state, got, want)
		}
	}
}

func TestStatus_TextAndColor(t *testing.T) {
	tests := []struct {
		status    string
		wantText  string
		wantColor Color
	}{
		{"pending", "Queued", ColorGray},
		{"queued", "Queued", ColorGray},
		{"PROGRESS", "Processing", ColorBlue},
		{"processing", "Processing", ColorBlue},
		{"SUCCESS", "Completed", ColorGreen},
		{"completed", "Completed", ColorGreen},
		{"FAILURE", "Failed", ColorRed},
		{"failed", "Failed", ColorRed},
		{"warming-up", "warming-up", ColorGray},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			st := Status{Status: tt.status}
			if got := st.Text(); got != tt.wantText {
				t.Errorf("Text() = %q, want %q", got, tt.wantText)
			}
			if got := st.Color(); got != tt.wantColor {
				t.Errorf("Color() = %q, want %q", got, tt.wantColor)
			}
		})
	}
}

func TestStatus_HasResult(t *testing.T) {
	if (Status{Status: "completed"}).HasResult() {
		t.Error("completed status without output URL must not report a result")
	}
	if (Status{Status: "processing", OutputURL: "/api/download/x.mp4"}).HasResult() {
		t.Error("non-terminal status must not report a result")
	}
	if !(Status{Status: "SUCCESS", OutputURL: "/api/download/x.mp4"}).HasResult() {
		t.Error("expected completed status with output URL to report a result")
	}
}
