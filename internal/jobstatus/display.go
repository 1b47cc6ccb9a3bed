package jobstatus

// Color is the semantic color a status is rendered with.
type Color string

// Color constants
const (
	ColorGreen Color = "green"
	ColorRed   Color = "red"
	ColorBlue  Color = "blue"
	ColorGray  Color = "gray"
)

// Text returns the human readable label of the status. Unknown statuses are
// shown as reported.
func (s Status) Text() string {
	switch s.State() {
	case StateQueued:
		return "Queued"
	case StateProcessing:
		return "Processing"
	case StateCompleted:
		return "Completed"
	case StateFailed:
		return "Failed"
	default:
		return s.Status
	}
}

// Color returns the color the status is rendered with.
func (s Status) Color() Color {
	switch s.State() {
	case StateCompleted:
		return ColorGreen
	case StateFailed:
		return ColorRed
	case StateProcessing:
		return ColorBlue
	default:
		return ColorGray
	}
}
