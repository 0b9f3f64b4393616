package orchestrator

// ChunkKind is the closed set of event kinds the Orchestrator's output
// sequence may carry, mirroring a closed SSE event-kind vocabulary.
type ChunkKind string

const (
	ChunkSessionID       ChunkKind = "session-id-announcement"
	ChunkStatusLine      ChunkKind = "status-line"
	ChunkPlanText        ChunkKind = "plan-text"
	ChunkQueryLine       ChunkKind = "query-line"
	ChunkContextSummary  ChunkKind = "context-summary"
	ChunkReportFragment  ChunkKind = "report-fragment"
	ChunkTerminalMarker  ChunkKind = "terminal-marker"
	ChunkError           ChunkKind = "error"
)

// Chunk is one element of the Orchestrator's lazy, finite output sequence.
type Chunk struct {
	Kind ChunkKind
	Text string
	Err  error
}

func sessionIDChunk(id string) Chunk      { return Chunk{Kind: ChunkSessionID, Text: id} }
func statusChunk(text string) Chunk       { return Chunk{Kind: ChunkStatusLine, Text: text} }
func planChunk(text string) Chunk         { return Chunk{Kind: ChunkPlanText, Text: text} }
func queryChunk(text string) Chunk        { return Chunk{Kind: ChunkQueryLine, Text: text} }
func contextChunk(text string) Chunk      { return Chunk{Kind: ChunkContextSummary, Text: text} }
func reportChunk(text string) Chunk       { return Chunk{Kind: ChunkReportFragment, Text: text} }
func terminalChunk() Chunk                { return Chunk{Kind: ChunkTerminalMarker} }
func errorChunk(err error) Chunk          { return Chunk{Kind: ChunkError, Err: err} }
