package commonModels

import "time"

// DocumentRecord is created once per successful ingestion and never mutated.
type DocumentRecord struct {
	Name           string    `json:"name"`
	SourcePath     string    `json:"path,omitempty"`
	IndexLocation  string    `json:"index_location"`
	EmbeddingModel string    `json:"embedding_model"`
	ChunkCount     int       `json:"chunk_count"`
	PageCount      int       `json:"page_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// Metadata drops the ephemeral source path.
func (r DocumentRecord) Metadata() DocumentRecord {
	r.SourcePath = ""
	return r
}

type RawPage struct {
	Number  int    `json:"number"`
	Content string `json:"content"`
}

type TextChunk struct {
	Order   int    `json:"chunk_order"`
	Content string `json:"content"`
	PageNum int    `json:"page_num"`
}

type RetrievedChunk struct {
	TextChunk
	Score  float64 `json:"score"`
	Source string  `json:"source"`
}

type Citation struct {
	Id             int     `json:"id"`
	Text           string  `json:"text"`
	Page           int     `json:"page"`
	Source         string  `json:"source"`
	RelevanceScore float64 `json:"relevance_score"`
}

type AnswerResult struct {
	Answer      string     `json:"answer"`
	Confidence  float64    `json:"confidence"`
	Citations   []Citation `json:"citations"`
	Sources     []string   `json:"sources"`
	SourceCount int        `json:"source_count"`
	Audio       string     `json:"audio,omitempty"`
}

type IngestResult struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	DocumentName  string `json:"document_name"`
	Chunks        int    `json:"chunks"`
	Pages         int    `json:"pages"`
	IndexLocation string `json:"index_location"`
}

type Summary struct {
	Status       string  `json:"status"`
	Message      string  `json:"message,omitempty"`
	Summary      string  `json:"summary,omitempty"`
	DocumentName string  `json:"document_name,omitempty"`
	ChunkCount   int     `json:"chunk_count"`
	PageCount    int     `json:"page_count"`
	GeneratedAt  float64 `json:"generated_at"`
}

type GraphNode struct {
	Id    string `json:"id"`
	Group int    `json:"group"`
	Label string `json:"label,omitempty"`
}

type GraphLink struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Relation string  `json:"relation,omitempty"`
	Value    float64 `json:"value,omitempty"`
}

type KnowledgeGraph struct {
	Nodes []GraphNode `json:"nodes"`
	Links []GraphLink `json:"links"`
}

type Podcast struct {
	Audio string `json:"audio"`
	Text  string `json:"text"`
}

type DocType string

var PDF DocType = "PDF"
var DOCX DocType = "DOCX"
var TXT DocType = "TXT"
var ERR DocType = "ERROR"

const (
	StatusSuccess = "success"
	StatusError   = "error"
)
