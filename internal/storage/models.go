package storage

import "time"

// Filing is a whole-document directory entry for one company's 10-K.
// Filings carry no search vector; they exist as the company directory and as
// the full-text fallback when section retrieval comes up empty.
type Filing struct {
	ID        string   // UUID
	Ticker    string   // Uppercase symbol, e.g. "AAPL"
	Year      string   // Reporting year, e.g. "2024"
	FilePath  string   // Source markdown path on disk
	Content   string   // Full cleaned markdown
	Summary   string   // LLM-generated filing summary
	Outline   []string // Heading outline of the document
	IndexedAt time.Time
}

// SectionChunk is one section-scoped slice of a filing with its embedding.
// Chunks are the unit of retrieval.
type SectionChunk struct {
	ID          string // UUID
	Ticker      string
	Section     string // Label from the 10-K section taxonomy
	Text        string
	StartLine   int
	EndLine     int
	Year        string
	FilePath    string
	ChunkLength int // Byte length of Text
	TablesCount int // Markdown separator-row count, a rough table tally
	Embedding   []float32
}

// ScoredSection pairs a chunk with its similarity score from dense search.
type ScoredSection struct {
	Chunk *SectionChunk
	Score float64
}

// SectionsCollection holds one embedded point per section chunk.
const SectionsCollection = "filing_sections"

// FilingsCollection holds one vectorless directory point per company.
const FilingsCollection = "filings"

// VectorDimension is the embedding size for text-embedding-3-small.
const VectorDimension = 1536
