package dialogue

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// JSONLWriter writes lines back in the form JSONLReader reads.
type JSONLWriter struct{}

func NewWriter() Writer {
	return &JSONLWriter{}
}

func (w *JSONLWriter) Write(path string, file *File) error {
	if file == nil {
		return fmt.Errorf("dialogue data is empty")
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	writer := bufio.NewWriter(out)
	enc := json.NewEncoder(writer)
	enc.SetEscapeHTML(false)
	for i, line := range file.Lines {
		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("encode line %d: %w", i+1, err)
		}
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	return out.Close()
}
