package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Document is the export/import document shared by every backend.
type Document struct {
	Tasks        []Task              `json:"tasks"`
	Completions  []TaskCompletion    `json:"completions"`
	Achievements []AchievementRecord `json:"achievements"`
	SyncTime     *string             `json:"syncTime,omitempty"`
	Theme        *string             `json:"theme,omitempty"`
}

// Normalize replaces nil slices with empty ones so they encode as [].
func (d Document) Normalize() Document {
	if d.Tasks == nil {
		d.Tasks = []Task{}
	}
	if d.Completions == nil {
		d.Completions = []TaskCompletion{}
	}
	if d.Achievements == nil {
		d.Achievements = []AchievementRecord{}
	}
	return d
}

// Encode renders the document as indented JSON.
func (d Document) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(d.Normalize(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// ParseDocument decodes and validates an import document. All three arrays
// must be present; theme, when present, must be light or dark.
func ParseDocument(data []byte) (Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Document{}, ValidationError{Reason: "document is empty"}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Document{}, ValidationError{Reason: "document is not valid JSON", Err: err}
	}
	for _, key := range []string{"tasks", "completions", "achievements"} {
		v, ok := raw[key]
		if !ok || !bytes.HasPrefix(bytes.TrimSpace(v), []byte("[")) {
			return Document{}, ValidationError{Field: key, Reason: "must be an array"}
		}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, ValidationError{Reason: "document has malformed records", Err: err}
	}
	if doc.Theme != nil && *doc.Theme != ThemeLight && *doc.Theme != ThemeDark {
		return Document{}, ValidationError{Field: "theme", Reason: fmt.Sprintf("unknown theme %q", *doc.Theme)}
	}
	return doc.Normalize(), nil
}
