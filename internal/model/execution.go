package model

import "time"

// StageRecord captures the timing, throughput and cost of one pipeline
// stage within a single request.
type StageRecord struct {
	Name          string        `json:"name"`
	StartedAt     time.Time     `json:"startedAt"`
	Duration      time.Duration `json:"durationMs"`
	CandidatesIn  int           `json:"candidatesIn"`
	CandidatesOut int           `json:"candidatesOut"`
	PromptTokens  int           `json:"promptTokens,omitempty"`
	CompletionTokens int        `json:"completionTokens,omitempty"`
	Cost          float64       `json:"cost,omitempty"`
	Error         string        `json:"error,omitempty"`
}

// PipelineExecutionRecord is the per-request roll-up of every stage,
// emitted alongside the final response.
type PipelineExecutionRecord struct {
	Stages      []StageRecord `json:"stages"`
	TotalTokens int           `json:"totalTokens"`
	TotalCost   float64       `json:"totalCost"`
	Degraded    bool          `json:"degraded"`
	Warnings    []string      `json:"warnings,omitempty"`
}

// Add appends a stage and rolls its token/cost counters into the total.
func (r *PipelineExecutionRecord) Add(s StageRecord) {
	r.Stages = append(r.Stages, s)
	r.TotalTokens += s.PromptTokens + s.CompletionTokens
	r.TotalCost += s.Cost
}

// Warn appends a non-fatal warning without failing the request.
func (r *PipelineExecutionRecord) Warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}
