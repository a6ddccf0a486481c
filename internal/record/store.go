// Package record persists headless simulation runs to disk: one
// directory per run holding metadata.json and frames.csv. Recordings
// feed the plot command.
package record

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"spheretree/internal/sim"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Preset    string             `json:"preset"`
	Timestamp time.Time          `json:"timestamp"`
	TPS       int                `json:"tps"`
	Frames    int                `json:"frames"`
	Spheres   int                `json:"spheres"`
	Metrics   map[string]float64 `json:"metrics"`
}

// FrameRecord is one CSV row: the frame counter, total kinetic energy
// and the flattened x,y,z of every sphere in header order.
type FrameRecord struct {
	Frame   int
	Kinetic float64
	Values  []float64
}

// Save writes a run. Column layout follows the first snapshot; runs
// record a fixed cast, so later snapshots carry the same spheres.
func (s *Store) Save(preset string, tps int, snaps []sim.Snapshot) (string, error) {
	runID := fmt.Sprintf("run_%d", time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Preset:    preset,
		Timestamp: time.Now(),
		TPS:       tps,
		Frames:    len(snaps),
		Metrics:   computeMetrics(snaps),
	}
	if len(snaps) > 0 {
		meta.Spheres = len(snaps[0].Spheres)
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "frames.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	if len(snaps) == 0 {
		return runID, nil
	}

	header := []string{"frame", "kinetic"}
	for _, sp := range snaps[0].Spheres {
		header = append(header, sp.ID+"_x", sp.ID+"_y", sp.ID+"_z")
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for _, snap := range snaps {
		row := []string{
			strconv.Itoa(snap.Frame),
			strconv.FormatFloat(snap.Kinetic, 'f', 6, 64),
		}
		for _, sp := range snap.Spheres {
			row = append(row,
				strconv.FormatFloat(sp.Position.X(), 'f', 6, 64),
				strconv.FormatFloat(sp.Position.Y(), 'f', 6, 64),
				strconv.FormatFloat(sp.Position.Z(), 'f', 6, 64))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func computeMetrics(snaps []sim.Snapshot) map[string]float64 {
	metrics := map[string]float64{"frames": float64(len(snaps))}
	if len(snaps) == 0 {
		return metrics
	}
	maxKinetic := 0.0
	for _, snap := range snaps {
		if snap.Kinetic > maxKinetic {
			maxKinetic = snap.Kinetic
		}
	}
	metrics["max_kinetic"] = maxKinetic
	metrics["final_kinetic"] = snaps[len(snaps)-1].Kinetic
	return metrics
}

func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadFrames reads the per-frame rows back. The header is returned so
// callers can map value columns to sphere axes.
func (s *Store) LoadFrames(runID string) ([]string, []FrameRecord, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "frames.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return nil, []FrameRecord{}, nil
	}

	header := records[0]
	frames := make([]FrameRecord, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) != len(header) {
			return nil, nil, fmt.Errorf("row has %d columns, header has %d", len(rec), len(header))
		}
		frame, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, nil, err
		}
		kinetic, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, nil, err
		}
		values := make([]float64, 0, len(rec)-2)
		for _, v := range rec[2:] {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, nil, err
			}
			values = append(values, f)
		}
		frames = append(frames, FrameRecord{Frame: frame, Kinetic: kinetic, Values: values})
	}
	return header, frames, nil
}
