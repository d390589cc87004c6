package core

// Stage identifies one step of a workflow, bound to exactly one agent call.
type Stage string

// Stage identifiers in pipeline order. Query workflows execute the first five
// in strict sequence; ingestion workflows execute StageIngest alone.
const (
	StageParse    Stage = "parse"
	StageRetrieve Stage = "retrieve"
	StageRank     Stage = "rank"
	StageGenerate Stage = "generate"
	StageValidate Stage = "validate"
	StageIngest   Stage = "ingest"
)

// String returns the stage name.
func (s Stage) String() string { return string(s) }

// Agent names as they appear in the endpoint directory.
const (
	AgentQueryParser = "query-parser"
	AgentRetrieval   = "retrieval"
	AgentRanking     = "ranking"
	AgentGeneration  = "generation"
	AgentValidation  = "validation"
	AgentIngestion   = "ingestion"
)

// AgentNames lists every agent the orchestrator can address, in a stable order.
func AgentNames() []string {
	return []string{
		AgentQueryParser,
		AgentIngestion,
		AgentRetrieval,
		AgentRanking,
		AgentGeneration,
		AgentValidation,
	}
}
