package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/san-kum/tmx/internal/export"
	"github.com/san-kum/tmx/internal/metamodel"
)

// Store keeps conversion artifacts on disk, one directory per
// conversion: metadata.json, payload.json and diagnostics.csv.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type ConversionMetadata struct {
	ID          string    `json:"id"`
	Model       string    `json:"model"`
	Source      string    `json:"source"`
	Target      string    `json:"target"`
	Timestamp   time.Time `json:"timestamp"`
	Templates   int       `json:"templates"`
	Parameters  int       `json:"parameters"`
	Initials    int       `json:"initials"`
	Diagnostics int       `json:"diagnostics"`
}

// Save writes one conversion's metadata, exported payload and
// diagnostics, returning the conversion ID.
func (s *Store) Save(model *metamodel.TemplateModel, source, target string,
	payload any, diags metamodel.Diagnostics) (string, error) {

	name := model.Annotations.Name
	if name == "" {
		name = "model"
	}
	conversionID := fmt.Sprintf("%s_%d", name, time.Now().Unix())
	dir := filepath.Join(s.baseDir, conversionID)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	meta := ConversionMetadata{
		ID:          conversionID,
		Model:       name,
		Source:      source,
		Target:      target,
		Timestamp:   time.Now(),
		Templates:   len(model.Templates),
		Parameters:  len(model.Parameters),
		Initials:    len(model.Initials),
		Diagnostics: len(diags),
	}
	if err := export.WriteJSON(filepath.Join(dir, "metadata.json"), meta); err != nil {
		return "", err
	}

	if err := export.WriteJSON(filepath.Join(dir, "payload.json"), payload); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(dir, "diagnostics.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if err := w.Write([]string{"stage", "item", "message"}); err != nil {
		return "", err
	}
	for _, d := range diags {
		if err := w.Write([]string{d.Stage, d.Item, d.Message}); err != nil {
			return "", err
		}
	}

	return conversionID, nil
}

func (s *Store) List() ([]ConversionMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []ConversionMetadata{}, nil
		}
		return nil, err
	}

	conversions := make([]ConversionMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}

		var meta ConversionMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		conversions = append(conversions, meta)
	}

	return conversions, nil
}

func (s *Store) Load(conversionID string) (*ConversionMetadata, error) {
	metaPath := filepath.Join(s.baseDir, conversionID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta ConversionMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadPayload reads a saved payload back as raw JSON.
func (s *Store) LoadPayload(conversionID string) (json.RawMessage, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, conversionID, "payload.json"))
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

func (s *Store) LoadDiagnostics(conversionID string) (metamodel.Diagnostics, error) {
	file, err := os.Open(filepath.Join(s.baseDir, conversionID, "diagnostics.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return metamodel.Diagnostics{}, nil
	}

	diags := make(metamodel.Diagnostics, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < 3 {
			continue
		}
		diags = append(diags, metamodel.Diagnostic{
			Stage:   record[0],
			Item:    record[1],
			Message: record[2],
		})
	}

	return diags, nil
}
