package logging

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// LogEntry is one parsed JSON log line.
type LogEntry struct {
	Timestamp    time.Time      `json:"time"`
	Level        string         `json:"level"`
	Message      string         `json:"msg"`
	Team         string         `json:"team,omitempty"`
	Agent        string         `json:"agent,omitempty"`
	AssignmentID string         `json:"assignment_id,omitempty"`
	Attrs        map[string]any `json:"attrs,omitempty"`
}

// LogFilter selects entries. Zero fields match everything; set fields are
// combined with AND.
type LogFilter struct {
	// Level keeps entries at or above this level.
	Level string
	// Since keeps entries at or after this time.
	Since time.Time
	Team  string
	Agent string
	// MessageContains keeps entries whose message contains this substring.
	MessageContains string
}

var levelOrder = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

var standardFields = map[string]bool{
	"time":          true,
	"level":         true,
	"msg":           true,
	"team":          true,
	"agent":         true,
	"assignment_id": true,
}

// ReadLogs parses {logDir}/debug.log, skipping lines that are not JSON.
// Entries are sorted by timestamp.
func ReadLogs(logDir string) ([]LogEntry, error) {
	file, err := os.Open(filepath.Join(logDir, LogFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no log file found in %s: %w", logDir, err)
		}
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var entries []LogEntry
	scanner := bufio.NewScanner(file)
	const maxLine = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxLine)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entry, err := parseLogEntry(line)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading log file: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries, nil
}

func parseLogEntry(line string) (LogEntry, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return LogEntry{}, fmt.Errorf("invalid JSON: %w", err)
	}

	entry := LogEntry{Attrs: make(map[string]any)}
	if ts, ok := raw["time"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			entry.Timestamp = t
		}
	}
	entry.Level, _ = raw["level"].(string)
	entry.Message, _ = raw["msg"].(string)
	entry.Team, _ = raw["team"].(string)
	entry.Agent, _ = raw["agent"].(string)
	entry.AssignmentID, _ = raw["assignment_id"].(string)

	for k, v := range raw {
		if !standardFields[k] {
			entry.Attrs[k] = v
		}
	}
	return entry, nil
}

// FilterLogs returns the entries matching filter.
func FilterLogs(entries []LogEntry, filter LogFilter) []LogEntry {
	var out []LogEntry
	for _, e := range entries {
		if filter.matches(e) {
			out = append(out, e)
		}
	}
	return out
}

func (f LogFilter) matches(e LogEntry) bool {
	if f.Level != "" {
		want, okWant := levelOrder[strings.ToUpper(f.Level)]
		got, okGot := levelOrder[e.Level]
		if okWant && okGot && got < want {
			return false
		}
	}
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if f.Team != "" && e.Team != f.Team {
		return false
	}
	if f.Agent != "" && e.Agent != f.Agent {
		return false
	}
	if f.MessageContains != "" && !strings.Contains(e.Message, f.MessageContains) {
		return false
	}
	return true
}

// WriteText renders entries one per line:
// "2006-01-02 15:04:05 LEVEL [team/agent] msg k=v ...". Attribute keys are
// sorted so output is stable.
func WriteText(w io.Writer, entries []LogEntry) error {
	for _, e := range entries {
		var sb strings.Builder
		sb.WriteString(e.Timestamp.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintf(&sb, " %-5s", e.Level)

		scope := e.Team
		if e.Agent != "" {
			if scope != "" {
				scope += "/"
			}
			scope += e.Agent
		}
		if scope != "" {
			fmt.Fprintf(&sb, " [%s]", scope)
		}
		sb.WriteString(" ")
		sb.WriteString(e.Message)

		keys := make([]string, 0, len(e.Attrs))
		for k := range e.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&sb, " %s=%v", k, e.Attrs[k])
		}
		sb.WriteString("\n")

		if _, err := io.WriteString(w, sb.String()); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON renders entries as an indented JSON array.
func WriteJSON(w io.Writer, entries []LogEntry) error {
	if entries == nil {
		entries = []LogEntry{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
