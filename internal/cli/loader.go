package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zcancio/aide/internal/reduce"
	"github.com/zcancio/aide/internal/value"
)

// LoadEvents reads an event file. ".yaml"/".yml" parses as a YAML list
// of events; anything else parses as JSON Lines, one event per line.
func LoadEvents(path string) ([]reduce.Event, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return loadYAMLEvents(path)
	default:
		return loadJSONLEvents(path)
	}
}

func loadJSONLEvents(path string) ([]reduce.Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open events: %w", err)
	}
	defer f.Close()

	var events []reduce.Event
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var ev reduce.Event
		if err := json.Unmarshal([]byte(text), &ev); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return events, nil
}

func loadYAMLEvents(path string) ([]reduce.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open events: %w", err)
	}

	var raw []map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	events := make([]reduce.Event, 0, len(raw))
	for i, entry := range raw {
		ev, err := eventFromAny(entry)
		if err != nil {
			return nil, fmt.Errorf("%s: event %d: %w", path, i+1, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

func eventFromAny(entry map[string]any) (reduce.Event, error) {
	var ev reduce.Event

	typ, ok := entry["type"].(string)
	if !ok || typ == "" {
		return ev, fmt.Errorf("missing type")
	}
	ev.Type = typ

	if raw, ok := entry["payload"]; ok && raw != nil {
		v, err := value.FromAny(raw)
		if err != nil {
			return ev, fmt.Errorf("payload: %w", err)
		}
		obj, ok := v.(value.Object)
		if !ok {
			return ev, fmt.Errorf("payload must be a mapping")
		}
		ev.Payload = obj
	}

	switch seq := entry["sequence"].(type) {
	case int:
		ev.Seq = int64(seq)
	case int64:
		ev.Seq = seq
	}
	if ts, ok := entry["timestamp"].(string); ok {
		ev.Timestamp = ts
	}
	return ev, nil
}
