package dialogue

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"
)

const maxLineSize = 1 << 20

// JSONLReader reads one dialogue line per JSON object per line.
type JSONLReader struct {
	path string
}

func NewReader(path string) Reader {
	return &JSONLReader{path: path}
}

func (r *JSONLReader) Read() (*File, error) {
	if !strings.HasSuffix(strings.ToLower(r.path), ".jsonl") {
		return nil, fmt.Errorf("only JSONL dialogue files are supported: %s", r.path)
	}

	file, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dialogue file: %w", err)
	}
	defer file.Close()

	var lines []Line
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" {
			continue
		}
		var line Line
		if err := json.Unmarshal([]byte(raw), &line); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dialogue file: %w", err)
	}

	return &File{
		Lines:    lines,
		Language: detectLanguage(lines),
		Path:     r.path,
	}, nil
}

// detectLanguage returns the most common language of the line texts.
func detectLanguage(lines []Line) language.Tag {
	if len(lines) == 0 {
		return language.Und
	}

	langMap := make(map[string]int)
	for _, line := range lines {
		if strings.TrimSpace(line.Text) == "" {
			continue
		}
		langMap[whatlanggo.DetectLang(line.Text).Iso6391()]++
	}

	var topLang string
	var topCount int
	for lang, count := range langMap {
		if count > topCount || (count == topCount && lang < topLang) {
			topLang = lang
			topCount = count
		}
	}
	if topLang == "" {
		return language.Und
	}
	return language.All.Make(topLang)
}
