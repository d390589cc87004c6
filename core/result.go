package core

// StageResult is the tagged outcome of one stage: either Ok with the stage's
// validated payload or Failed with a WorkflowError. Once a stage fails the
// owning workflow stops executing subsequent stages.
type StageResult struct {
	Stage   Stage
	Payload map[string]any
	Err     *WorkflowError
}

// OkResult builds a successful stage outcome.
func OkResult(stage Stage, payload map[string]any) StageResult {
	return StageResult{Stage: stage, Payload: payload}
}

// FailedResult builds a failed stage outcome.
func FailedResult(err *WorkflowError) StageResult {
	return StageResult{Stage: err.Stage, Err: err}
}

// Ok reports whether the stage completed successfully.
func (r StageResult) Ok() bool { return r.Err == nil }

// ErrorObject is the JSON-serializable error shape surfaced to callers. Code
// is a stable machine-readable ErrorKind value; Stage names the pipeline step
// that failed when the failure occurred inside a stage call.
type ErrorObject struct {
	Code    string `json:"code"`
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message"`
}

// WorkflowResult is the externally visible outcome of one workflow
// invocation. Exactly one of Data or Error is populated. It is constructed
// once, immutable, and JSON-serializable as-is.
type WorkflowResult struct {
	Success bool           `json:"success"`
	TraceID string         `json:"traceId"`
	Data    map[string]any `json:"data,omitempty"`
	Error   *ErrorObject   `json:"error,omitempty"`
}

// SuccessResult builds a successful workflow outcome carrying the final
// payload.
func SuccessResult(traceID string, data map[string]any) WorkflowResult {
	return WorkflowResult{Success: true, TraceID: traceID, Data: data}
}

// FailureResult builds a failed workflow outcome from the terminal stage (or
// validation) error.
func FailureResult(traceID string, err *WorkflowError) WorkflowResult {
	return WorkflowResult{
		Success: false,
		TraceID: traceID,
		Error: &ErrorObject{
			Code:    string(err.Kind),
			Stage:   string(err.Stage),
			Message: err.Message,
		},
	}
}

// BatchItemResult records the outcome of one document in a batch. Items that
// failed input validation carry an Error and no Result because no workflow
// ran for them.
type BatchItemResult struct {
	DocumentID string          `json:"documentId"`
	Success    bool            `json:"success"`
	Result     *WorkflowResult `json:"result,omitempty"`
	Error      *ErrorObject    `json:"error,omitempty"`
}

// BatchSummary aggregates a batch ingestion run. Invariants: Successful +
// Failed == Total, len(Results) equals the input length, and Results preserve
// input order regardless of completion order. Success is true only when
// every item succeeded.
type BatchSummary struct {
	Success    bool              `json:"success"`
	Total      int               `json:"total"`
	Successful int               `json:"successful"`
	Failed     int               `json:"failed"`
	Results    []BatchItemResult `json:"results"`
}
