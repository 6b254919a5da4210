package summarizer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/user/framescrub/pkg/video"
)

// maxListed caps the keyframe and GOP lists in a report.
const maxListed = 32

// MarkdownFormatter formats summaries as Markdown tables.
type MarkdownFormatter struct {
	translate func(string) string
	version   string
}

// MarkdownOption configures a MarkdownFormatter.
type MarkdownOption func(*MarkdownFormatter)

// WithTranslator sets the function used to translate labels.
func WithTranslator(t func(string) string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.translate = t
	}
}

// WithVersion sets the version printed in the footer.
func WithVersion(version string) MarkdownOption {
	return func(f *MarkdownFormatter) {
		f.version = version
	}
}

// NewMarkdownFormatter creates a Markdown formatter.
func NewMarkdownFormatter(opts ...MarkdownOption) *MarkdownFormatter {
	f := &MarkdownFormatter{
		translate: func(s string) string { return s },
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements Formatter.
func (f *MarkdownFormatter) Format(s *Summary) string {
	t := f.translate
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", t("Probe Report"))

	b.WriteString(tableHeader(t))
	row(&b, t("File"), s.File.Name)
	if s.File.Size > 0 {
		row(&b, t("File Size"), formatBytes(s.File.Size))
	}
	row(&b, t("Codec"), s.Stream.Codec)
	row(&b, t("Resolution"), fmt.Sprintf("%dx%d", s.Stream.Width, s.Stream.Height))
	row(&b, t("Aspect Ratio"), s.Stream.Aspect)
	row(&b, t("Frame Rate"), s.Stream.FrameRate)
	row(&b, t("Frame Duration"), fmt.Sprintf("%.2f ms", s.Stream.MsPerFrame))
	row(&b, t("Duration"), video.FormatElapsed(s.Stream.Duration))
	row(&b, t("Decoder Delay"), yesNo(t, s.Stream.HasDelay))

	fmt.Fprintf(&b, "\n## %s\n\n", t("Frame Index"))
	b.WriteString(tableHeader(t))
	row(&b, t("Frames"), strconv.Itoa(s.Index.FrameCount))
	row(&b, t("Keyframes"), strconv.Itoa(len(s.Index.Keyframes)))
	row(&b, t("Longest GOP"), strconv.Itoa(s.Index.LongestGOP()))
	row(&b, t("Probe Time"), video.FormatElapsed(s.Index.ProbeTime))
	if len(s.Index.Keyframes) > 0 {
		row(&b, t("Keyframe Positions"), joinInts(t, s.Index.Keyframes))
	}
	if len(s.Index.GOPs) > 0 {
		row(&b, t("GOP Lengths"), joinInts(t, s.Index.GOPs))
	}

	if len(s.Seeks) > 0 {
		fmt.Fprintf(&b, "\n## %s\n\n", t("Seeks"))
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", t("Frame"), t("Path"), t("Packets"), t("Time"))
		b.WriteString("|---:|---|---:|---:|\n")
		for _, sk := range s.Seeks {
			fmt.Fprintf(&b, "| %d | %s | %d | %s |\n", sk.Target, t(sk.Case), sk.Packets, formatMs(sk.Elapsed))
		}
	}

	b.WriteString("\n---\n\n")
	footer := fmt.Sprintf("%s %s", t("Generated at"), s.GeneratedAt.Format(time.RFC3339))
	if f.version != "" {
		footer += fmt.Sprintf(" (framescrub %s)", f.version)
	}
	b.WriteString(footer + "\n")

	return b.String()
}

func tableHeader(t func(string) string) string {
	return fmt.Sprintf("| %s | %s |\n|---|---|\n", t("Item"), t("Value"))
}

func row(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "| %s | %s |\n", label, value)
}

func yesNo(t func(string) string, v bool) string {
	if v {
		return t("Yes")
	}
	return t("No")
}

func joinInts(t func(string) string, values []int) string {
	n := len(values)
	if n > maxListed {
		n = maxListed
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = strconv.Itoa(values[i])
	}
	s := strings.Join(parts, ", ")
	if len(values) > n {
		s += fmt.Sprintf(" (%s %d)", t("and more:"), len(values)-n)
	}
	return s
}

// formatBytes converts bytes to a human-readable string.
func formatBytes(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
		gb = mb * 1024
	)
	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.2f GB", float64(bytes)/gb)
	case bytes >= mb:
		return fmt.Sprintf("%.2f MB", float64(bytes)/mb)
	case bytes >= kb:
		return fmt.Sprintf("%.2f KB", float64(bytes)/kb)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

func formatMs(d time.Duration) string {
	return fmt.Sprintf("%.2f ms", float64(d)/float64(time.Millisecond))
}
