package collect

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/vk/icflow/internal/job"
)

// tailBytes bounds how much of a log's tail is carried in a result.
const tailBytes = 8 * 1024

// summaryLine matches the diagnostic lines the checkers and the simulator
// emit. Tool-specific decorations (leading stars, timestamps) are tolerated;
// anything beyond error/warning classification is ignored.
var summaryLine = regexp.MustCompile(`(?i)^[\s*#>-]*(error|warning)\b`)

// parseSummary counts error and warning lines in a tool log. A missing or
// unreadable log yields a zero summary; the log path itself is still
// reported in the result.
func parseSummary(logPath string) job.Summary {
	f, err := os.Open(logPath)
	if err != nil {
		return job.Summary{}
	}
	defer f.Close()

	var sum job.Summary
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		m := summaryLine.FindStringSubmatch(scanner.Text())
		if m == nil {
			continue
		}
		switch strings.ToLower(m[1]) {
		case "error":
			sum.Errors++
		case "warning":
			sum.Warnings++
		}
	}
	return sum
}

// readTail returns up to maxBytes from the end of the file, starting at a
// line boundary where possible.
func readTail(path string, maxBytes int64) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return ""
	}
	offset := info.Size() - maxBytes
	if offset < 0 {
		offset = 0
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return ""
	}
	raw, err := io.ReadAll(f)
	if err != nil {
		return ""
	}
	tail := string(raw)
	if offset > 0 {
		if nl := strings.IndexByte(tail, '\n'); nl >= 0 {
			tail = tail[nl+1:]
		}
	}
	return tail
}
