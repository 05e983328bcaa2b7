package replay

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Record is one capture as read from disk.
type Record struct {
	Source string
	League string
	Body   json.RawMessage
}

// Load reads every capture in paths, in path order and file order. A file
// may hold one object, an array of objects or JSON lines. Directories are
// read non-recursively in name order.
func Load(paths []string) ([]Record, error) {
	if len(paths) == 0 {
		return nil, ErrNoInput
	}
	var out []Record
	for _, p := range paths {
		files, err := expand(p)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			recs, err := loadFile(f)
			if err != nil {
				return nil, err
			}
			out = append(out, recs...)
		}
	}
	return out, nil
}

func expand(p string) ([]string, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadInput, err)
	}
	if !info.IsDir() {
		return []string{p}, nil
	}
	entries, err := os.ReadDir(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadInput, err)
	}
	var files []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".json" && ext != ".jsonl") {
			continue
		}
		files = append(files, filepath.Join(p, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func loadFile(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadInput, err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var bodies []json.RawMessage
	switch {
	case trimmed[0] == '[':
		if err := json.Unmarshal(trimmed, &bodies); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrBadInput, path, err)
		}
	case json.Valid(trimmed):
		bodies = []json.RawMessage{json.RawMessage(trimmed)}
	default:
		sc := bufio.NewScanner(bytes.NewReader(trimmed))
		sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		line := 0
		for sc.Scan() {
			line++
			l := bytes.TrimSpace(sc.Bytes())
			if len(l) == 0 {
				continue
			}
			if !json.Valid(l) {
				return nil, fmt.Errorf("%w: %s:%d: invalid JSON", ErrBadInput, path, line)
			}
			bodies = append(bodies, append(json.RawMessage(nil), l...))
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrBadInput, path, err)
		}
	}

	out := make([]Record, 0, len(bodies))
	for _, b := range bodies {
		var head struct {
			League string `json:"league"`
		}
		_ = json.Unmarshal(b, &head)
		out = append(out, Record{Source: path, League: head.League, Body: b})
	}
	return out, nil
}
