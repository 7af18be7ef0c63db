package models

import "time"

// WorkflowState is threaded through the analysis pipeline, one per run.
// Stages never write it directly; they return a StateDelta that is applied.
type WorkflowState struct {
	File      *UploadedFile `json:"-"`
	Portfolio *Portfolio    `json:"portfolio,omitempty"`
	Enriched  []Holding     `json:"stock_analysis_results,omitempty"`
	News      []NewsBundle  `json:"news,omitempty"`
	Errors    []string      `json:"analysis_errors"`
	Fatal     string        `json:"error,omitempty"` // set once, stops the run
	Report    *Report       `json:"final_report,omitempty"`
}

// NewWorkflowState creates the initial state for one uploaded file.
func NewWorkflowState(file *UploadedFile) *WorkflowState {
	return &WorkflowState{
		File:   file,
		Errors: []string{},
	}
}

// Failed reports whether a fatal error stopped the run.
func (s *WorkflowState) Failed() bool {
	return s.Fatal != ""
}

// Apply merges a stage delta into the state. Nil fields leave the state
// untouched, errors are appended and the fatal message is never cleared.
func (s *WorkflowState) Apply(d *StateDelta) {
	if d == nil {
		return
	}
	if d.Portfolio != nil {
		s.Portfolio = d.Portfolio
	}
	if d.Enriched != nil {
		s.Enriched = d.Enriched
	}
	if d.News != nil {
		s.News = d.News
	}
	if d.Report != nil {
		s.Report = d.Report
	}
	s.Errors = append(s.Errors, d.Errors...)
	if d.Fatal != "" && s.Fatal == "" {
		s.Fatal = d.Fatal
	}
}

// StateDelta is the typed partial update returned by a stage.
type StateDelta struct {
	Stage     string       `json:"stage"`
	Portfolio *Portfolio   `json:"portfolio,omitempty"`
	Enriched  []Holding    `json:"stock_analysis_results,omitempty"`
	News      []NewsBundle `json:"news,omitempty"`
	Report    *Report      `json:"final_report,omitempty"`
	Errors    []string     `json:"analysis_errors,omitempty"` // appended to the run's error list
	Fatal     string       `json:"error,omitempty"`
	Logs      []string     `json:"logs,omitempty"` // human readable progress lines
}

// Logf appends a progress line to the delta.
func (d *StateDelta) Logf(line string) {
	d.Logs = append(d.Logs, line)
}

// StageEvent is emitted after every completed stage, and once more with
// Error set when the engine itself fails.
type StageEvent struct {
	Stage string      `json:"stage"`
	Delta *StateDelta `json:"delta,omitempty"`
	Error string      `json:"error,omitempty"`
	At    time.Time   `json:"at"`
}
