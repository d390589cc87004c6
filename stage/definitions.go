package stage

import (
	"fmt"

	"github.com/hupe1980/ragmesh/core"
)

// previewLen bounds the document content excerpt sent to the ingestion agent.
const previewLen = 500

// DefaultTopN is the number of top-ranked chunks handed to the generation
// agent when the caller does not override it.
const DefaultTopN = 3

// DefaultContextSlice is the number of original retrieved chunks handed to
// the validation agent as reference context.
const DefaultContextSlice = 2

// ParseQuery builds the query-parser stage: raw query in, parsed
// intent/entities/question-type/required-context/constraints out.
func ParseQuery(query string) Definition {
	return Definition{
		Stage:  core.StageParse,
		Agent:  core.AgentQueryParser,
		Action: "parse",
		Build: func(_ *core.PipelineState) (map[string]any, error) {
			return map[string]any{"query": query}, nil
		},
		Required: []string{"intent"},
	}
}

// RetrieveChunks builds the retrieval stage: parsed query plus an optional
// document-id filter in, scored chunks out. A nil filter searches across all
// documents.
func RetrieveChunks(documentIDs []string) Definition {
	return Definition{
		Stage:  core.StageRetrieve,
		Agent:  core.AgentRetrieval,
		Action: "retrieve",
		Build: func(state *core.PipelineState) (map[string]any, error) {
			parsed, ok := state.Get(core.StageParse)
			if !ok {
				return nil, fmt.Errorf("parse output not available")
			}
			body := map[string]any{"parsedQuery": parsed}
			if len(documentIDs) > 0 {
				ids := make([]any, len(documentIDs))
				for i, id := range documentIDs {
					ids[i] = id
				}
				body["documentIds"] = ids
			}
			return body, nil
		},
		Required: []string{"chunks"},
	}
}

// RankChunks builds the ranking stage: retrieved chunks plus the original
// query in, the same chunks reordered with per-chunk justification out.
func RankChunks(query string) Definition {
	return Definition{
		Stage:  core.StageRank,
		Agent:  core.AgentRanking,
		Action: "rank",
		Build: func(state *core.PipelineState) (map[string]any, error) {
			chunks := state.Chunks(core.StageRetrieve)
			if chunks == nil {
				return nil, fmt.Errorf("retrieve output not available")
			}
			return map[string]any{"query": query, "chunks": chunks}, nil
		},
		Required: []string{"chunks"},
	}
}

// GenerateResponse builds the generation stage: the query and the top-N
// ranked chunks in, {response, citations, confidence} out.
func GenerateResponse(query string, topN int) Definition {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return Definition{
		Stage:  core.StageGenerate,
		Agent:  core.AgentGeneration,
		Action: "generate",
		Build: func(state *core.PipelineState) (map[string]any, error) {
			chunks := state.Chunks(core.StageRank)
			if chunks == nil {
				return nil, fmt.Errorf("rank output not available")
			}
			return map[string]any{"query": query, "chunks": topChunks(chunks, topN)}, nil
		},
		Required: []string{"response"},
	}
}

// ValidateResponse builds the validation stage: the generated response plus a
// reference slice of the originally retrieved chunks in,
// {passed, confidence, issues, suggestions} out.
func ValidateResponse(contextSlice int) Definition {
	if contextSlice <= 0 {
		contextSlice = DefaultContextSlice
	}
	return Definition{
		Stage:  core.StageValidate,
		Agent:  core.AgentValidation,
		Action: "validate",
		Build: func(state *core.PipelineState) (map[string]any, error) {
			generated, ok := state.Get(core.StageGenerate)
			if !ok {
				return nil, fmt.Errorf("generate output not available")
			}
			original := state.Chunks(core.StageRetrieve)
			if original == nil {
				return nil, fmt.Errorf("retrieve output not available")
			}
			return map[string]any{
				"response": generated,
				"context":  topChunks(original, contextSlice),
			}, nil
		},
		Required: []string{"passed"},
	}
}

// IngestDocument builds the ingestion stage: document id and a bounded
// content preview in, a processing plan out.
func IngestDocument(documentID, content string) Definition {
	preview := content
	if len(preview) > previewLen {
		preview = preview[:previewLen]
	}
	return Definition{
		Stage:  core.StageIngest,
		Agent:  core.AgentIngestion,
		Action: "ingest",
		Build: func(_ *core.PipelineState) (map[string]any, error) {
			return map[string]any{"documentId": documentID, "contentPreview": preview}, nil
		},
		Required: []string{"chunks", "chunkSize"},
	}
}

// topChunks returns the first n chunks, or all of them when fewer exist.
func topChunks(chunks []any, n int) []any {
	if len(chunks) <= n {
		return chunks
	}
	return chunks[:n]
}
