package record

import (
	"encoding/json"
	"os"
)

type ExportData struct {
	ID      string             `json:"id"`
	Preset  string             `json:"preset"`
	TPS     int                `json:"tps"`
	Frames  int                `json:"frames"`
	Header  []string           `json:"header"`
	Kinetic []float64          `json:"kinetic"`
	Values  [][]float64        `json:"values"`
	Metrics map[string]float64 `json:"metrics"`
}

// ExportJSON flattens a stored run into a single JSON document for
// offline analysis.
func (s *Store) ExportJSON(path, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	header, frames, err := s.LoadFrames(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		ID:      meta.ID,
		Preset:  meta.Preset,
		TPS:     meta.TPS,
		Frames:  len(frames),
		Header:  header,
		Kinetic: make([]float64, len(frames)),
		Values:  make([][]float64, len(frames)),
		Metrics: meta.Metrics,
	}
	for i, f := range frames {
		data.Kinetic[i] = f.Kinetic
		data.Values[i] = f.Values
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
