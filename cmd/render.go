package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/kozaktomas/faceswap/internal/jobstatus"
	"github.com/kozaktomas/faceswap/internal/tracker"
	"github.com/schollz/progressbar/v3"
)

// colorize renders text in the terminal color matching a status color.
func colorize(text string, c jobstatus.Color) string {
	switch c {
	case jobstatus.ColorGreen:
		return color.GreenString(text)
	case jobstatus.ColorRed:
		return color.RedString(text)
	case jobstatus.ColorBlue:
		return color.BlueString(text)
	default:
		return color.HiBlackString(text)
	}
}

// detail is the message shown next to a status. Failures show their error.
func detail(st jobstatus.Status) string {
	if st.State() == jobstatus.StateFailed && st.Error != "" {
		return st.Error
	}
	return st.Message
}

// formatLine renders one status as a single log line.
func formatLine(st jobstatus.Status) string {
	line := fmt.Sprintf("%s %3d%%", colorize(fmt.Sprintf("%-10s", st.Text()), st.Color()), st.Progress)
	if d := detail(st); d != "" {
		line += "  " + d
	}
	return line
}

// renderer prints controller updates either as a progress bar or as plain lines.
type renderer struct {
	out   io.Writer
	plain bool
	bar   *progressbar.ProgressBar
	last  string
}

func newRenderer(out io.Writer, plain bool) *renderer {
	r := &renderer{out: out, plain: plain}
	if !plain {
		r.bar = progressbar.NewOptions(100,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription(colorize("Queued", jobstatus.ColorGray)),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionFullWidth(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)
	}
	return r
}

// Render shows an update. Repeated identical lines are skipped in plain mode.
func (r *renderer) Render(u tracker.Update) {
	if r.plain {
		line := formatLine(u.Status)
		if line == r.last {
			return
		}
		r.last = line
		fmt.Fprintln(r.out, line)
		return
	}

	desc := colorize(u.Status.Text(), u.Status.Color())
	if d := detail(u.Status); d != "" {
		desc += " " + truncate(d, 40)
	}
	r.bar.Describe(desc)
	_ = r.bar.Set(u.Status.Progress)
}

// Finish completes the bar output.
func (r *renderer) Finish() {
	if r.bar != nil {
		_ = r.bar.Exit()
		fmt.Fprintln(r.out)
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
