package core

// PipelineState accumulates the validated output of each completed stage
// within one workflow execution. It is owned exclusively by that execution
// and mutated only by appending the output of the stage that just completed,
// so no locking is required.
type PipelineState struct {
	outputs map[Stage]map[string]any
	order   []Stage
}

// NewPipelineState returns an empty state.
func NewPipelineState() *PipelineState {
	return &PipelineState{outputs: map[Stage]map[string]any{}}
}

// Put records the validated output payload of a completed stage. A stage key
// is only ever written once per execution.
func (s *PipelineState) Put(stage Stage, payload map[string]any) {
	if _, exists := s.outputs[stage]; !exists {
		s.order = append(s.order, stage)
	}
	s.outputs[stage] = payload
}

// Get returns the output previously recorded for a stage.
func (s *PipelineState) Get(stage Stage) (map[string]any, bool) {
	p, ok := s.outputs[stage]
	return p, ok
}

// Completed returns the stages recorded so far, in completion order.
func (s *PipelineState) Completed() []Stage {
	out := make([]Stage, len(s.order))
	copy(out, s.order)
	return out
}

// Chunks extracts the "chunks" list from a stage output, typically the
// retrieval or ranking payload. A missing or mistyped field yields nil.
func (s *PipelineState) Chunks(stage Stage) []any {
	p, ok := s.outputs[stage]
	if !ok {
		return nil
	}
	chunks, _ := p["chunks"].([]any)
	return chunks
}
