package summarizer

import (
	"fmt"

	"github.com/user/framescrub/pkg/ports"
)

// Writer writes formatted summaries to files.
type Writer struct {
	formatter Formatter
	fs        ports.FileSystem
}

// NewWriter creates a Writer. formatter is used for paths whose extension
// does not select YAML or JSON.
func NewWriter(formatter Formatter, fs ports.FileSystem) *Writer {
	return &Writer{
		formatter: formatter,
		fs:        fs,
	}
}

// Write formats the summary for path and writes it there.
func (w *Writer) Write(path string, summary *Summary) error {
	content := ForPath(path, w.formatter).Format(summary)
	if content == "" {
		return fmt.Errorf("format %s: empty report", path)
	}
	if err := w.fs.WriteFile(path, []byte(content)); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
