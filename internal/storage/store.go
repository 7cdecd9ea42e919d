package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/entrosim/internal/dynamo"
)

var (
	ErrRunNotFound  = errors.New("run not found")
	ErrAmbiguousRun = errors.New("ambiguous run id")
)

type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

var stateHeader = []string{"time", "x0", "x1", "entropy", "t9", "rho", "dt"}

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
	ID          string             `json:"id"`
	Timestamp   time.Time          `json:"timestamp"`
	Status      Status             `json:"status"`
	Error       string             `json:"error,omitempty"`
	Network     string             `json:"network"`
	Zone        string             `json:"zone"`
	Output      string             `json:"output"`
	Integrator  string             `json:"integrator"`
	Dtime       float64            `json:"dtime"`
	TEnd        float64            `json:"tend"`
	Params      map[string]float64 `json:"params"`
	Steps       int                `json:"steps"`
	Checkpoints int                `json:"checkpoints"`
	Elapsed     time.Duration      `json:"elapsed_ns"`
	Metrics     map[string]float64 `json:"metrics"`
}

// Run is the accepted-step trace of a stored run.
type Run struct {
	Times  []float64
	States []dynamo.State
	Thermo []dynamo.Thermo
}

// Save writes metadata.json and states.csv into a fresh run directory and
// returns the run id. ID and Timestamp are assigned when empty.
func (s *Store) Save(meta RunMetadata, result *dynamo.Result) (string, error) {
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	if result != nil {
		meta.Steps = result.StepsTaken
		meta.Checkpoints = result.Checkpoints
		meta.Metrics = finiteMetrics(result.Metrics)
	}

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}

	f, err := os.Create(filepath.Join(runDir, "states.csv"))
	if err != nil {
		return "", err
	}
	defer f.Close()

	var run Run
	if result != nil {
		run = Run{Times: result.Times, States: result.States, Thermo: result.Thermo}
	}
	if err := ExportCSV(f, &run); err != nil {
		return "", err
	}
	return meta.ID, f.Close()
}

// finiteMetrics drops values JSON cannot represent.
func finiteMetrics(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

// List returns the stored runs, oldest first. Directories without readable
// metadata are skipped.
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
		meta, err := s.readMeta(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

// Resolve expands a unique id prefix to a full run id.
func (s *Store) Resolve(prefix string) (string, error) {
	if prefix == "" {
		return "", fmt.Errorf("%w: empty id", ErrRunNotFound)
	}
	if _, err := os.Stat(filepath.Join(s.baseDir, prefix, "metadata.json")); err == nil {
		return prefix, nil
	}

	entries, err := os.ReadDir(s.baseDir)
	if err != nil && !os.IsNotExist(err) {
		return "", err
	}
	var matches []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), prefix) {
			matches = append(matches, entry.Name())
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%w: %s matches %d runs", ErrAmbiguousRun, prefix, len(matches))
	}
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	id, err := s.Resolve(runID)
	if err != nil {
		return nil, err
	}
	return s.readMeta(id)
}

func (s *Store) readMeta(id string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", id, err)
	}
	return &meta, nil
}

func (s *Store) LoadRun(runID string) (*Run, error) {
	id, err := s.Resolve(runID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, id, "states.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(stateHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", id, err)
	}

	run := &Run{}
	if len(records) < 2 {
		return run, nil
	}

	for i, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("run %s: row %d column %s: %w", id, i+1, stateHeader[j], err)
			}
			vals[j] = v
		}
		run.Times = append(run.Times, vals[0])
		run.States = append(run.States, dynamo.State{vals[1], vals[2], vals[3]})
		run.Thermo = append(run.Thermo, dynamo.Thermo{T9: vals[4], Rho: vals[5], Dt: vals[6]})
	}
	return run, nil
}

// Series returns one named column of the run, as listed in the CSV header.
func (r *Run) Series(name string) ([]float64, error) {
	var pick func(i int) float64
	switch name {
	case "time":
		pick = func(i int) float64 { return r.Times[i] }
	case "x0":
		pick = func(i int) float64 { return r.States[i][0] }
	case "x1":
		pick = func(i int) float64 { return r.States[i][1] }
	case "entropy":
		pick = func(i int) float64 { return r.States[i][2] }
	case "t9":
		pick = func(i int) float64 { return r.Thermo[i].T9 }
	case "rho":
		pick = func(i int) float64 { return r.Thermo[i].Rho }
	case "dt":
		pick = func(i int) float64 { return r.Thermo[i].Dt }
	default:
		return nil, fmt.Errorf("unknown series %q (available: %s)", name, strings.Join(stateHeader, ", "))
	}

	out := make([]float64, len(r.Times))
	for i := range out {
		out[i] = pick(i)
	}
	return out, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ExportCSV writes the run as CSV with a header row.
func ExportCSV(w io.Writer, run *Run) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(stateHeader); err != nil {
		return err
	}

	for i := range run.Times {
		x := run.States[i]
		th := dynamo.Thermo{}
		if i < len(run.Thermo) {
			th = run.Thermo[i]
		}
		row := []string{
			formatFloat(run.Times[i]),
			formatFloat(x[0]), formatFloat(x[1]), formatFloat(x[2]),
			formatFloat(th.T9), formatFloat(th.Rho), formatFloat(th.Dt),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

type ExportPoint struct {
	Time    float64 `json:"time"`
	X0      float64 `json:"x0"`
	X1      float64 `json:"x1"`
	Entropy float64 `json:"entropy"`
	T9      float64 `json:"t9"`
	Rho     float64 `json:"rho"`
	Dt      float64 `json:"dt"`
}

type ExportData struct {
	Run    RunMetadata   `json:"run"`
	Points []ExportPoint `json:"points"`
}

func ExportJSON(w io.Writer, meta *RunMetadata, run *Run) error {
	data := ExportData{Run: *meta, Points: make([]ExportPoint, len(run.Times))}
	for i := range run.Times {
		x := run.States[i]
		p := ExportPoint{Time: run.Times[i], X0: x[0], X1: x[1], Entropy: x[2]}
		if i < len(run.Thermo) {
			p.T9, p.Rho, p.Dt = run.Thermo[i].T9, run.Thermo[i].Rho, run.Thermo[i].Dt
		}
		data.Points[i] = p
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
