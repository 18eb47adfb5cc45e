package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ieee0824/pitchflow/pitch"
	"github.com/ieee0824/pitchflow/timing"
)

// phraseFile is the object form of a words file.
type phraseFile struct {
	Words []pitch.Word `json:"words"`
}

// parseWords accepts either a JSON array of words or {"words": [...]}.
func parseWords(data []byte) ([]pitch.Word, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty input")
	}
	if data[0] == '[' {
		var words []pitch.Word
		if err := json.Unmarshal(data, &words); err != nil {
			return nil, fmt.Errorf("decode words: %w", err)
		}
		return words, nil
	}
	var pf phraseFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("decode words: %w", err)
	}
	return pf.Words, nil
}

// readInput reads path, or stdin when path is empty or "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func readWords(path string, stdin io.Reader) ([]pitch.Word, error) {
	data, err := readInput(path, stdin)
	if err != nil {
		return nil, fmt.Errorf("read words: %w", err)
	}
	return parseWords(data)
}

func readAnchors(path string) ([]timing.Anchor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read anchors: %w", err)
	}
	var anchors []timing.Anchor
	if err := json.Unmarshal(data, &anchors); err != nil {
		return nil, fmt.Errorf("decode anchors: %w", err)
	}
	return anchors, nil
}

func argPath(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
