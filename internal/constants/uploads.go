package constants

// Event channel constants
const (
	// EventChannelBuffer is the buffer size for status listener channels
	EventChannelBuffer = 100
)

// File upload constants
const (
	// MaxUploadSize is the largest file the fake backend accepts in bytes (500MB)
	MaxUploadSize = 500 << 20
)

// Supported upload formats, lower-case with the leading dot.
var (
	VideoExtensions = []string{".mp4", ".avi", ".mov", ".webm"}
	ImageExtensions = []string{".jpg", ".jpeg", ".png"}
)
