package internal

// Sheet is one worksheet as loaded from the workbook: Headers are already
// cleaned, and every row is aligned with Headers (missing cells are nil).
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// Record is one emitted rule. Keys are the category's declared fields plus
// id, annex, type and searchable_text.
type Record map[string]string

type Metadata struct {
	Cycle    string `json:"cycle"`
	Version  string `json:"version"`
	Filename string `json:"filename"`
	ParsedAt string `json:"parsed_at"`
}

type Stats struct {
	TotalEntries int            `json:"total_entries"`
	ParsedAt     string         `json:"parsed_at"`
	ByAnnex      map[string]int `json:"by_annex"`
}

// Document is the full output contract. Only these three keys are emitted.
type Document struct {
	Metadata Metadata            `json:"metadata"`
	Annexes  map[string][]Record `json:"annexes"`
	Stats    Stats               `json:"stats"`
}

// RevisionKind tells which AIRAC slot a published revision belongs to.
type RevisionKind string

const (
	RevisionCurrent RevisionKind = "current"
	RevisionFuture  RevisionKind = "future"
)

// Revision is a published document discovered on the RAD page.
type Revision struct {
	Kind          RevisionKind `json:"kind"`
	URL           string       `json:"url"`
	Cycle         string       `json:"cycle"`
	Version       string       `json:"version"`
	Filename      string       `json:"filename"`
	EffectiveDate *string      `json:"effective_date"`
}

// RevisionRow is a downloaded revision as kept in the ledger.
type RevisionRow struct {
	ID            int
	Kind          string
	Cycle         string
	Version       string
	URL           string
	Filename      string
	Path          string
	EffectiveDate *string
	SizeBytes     int64
	DownloadedAt  string
}

const (
	RunOK     = "ok"
	RunFailed = "failed"
)

// RunRow is one parse run as kept in the ledger.
type RunRow struct {
	RunID        string
	Status       string
	Error        string
	Filename     string
	Cycle        string
	Version      string
	OutputPath   string
	TotalEntries int
	ByAnnex      map[string]int
	Warnings     []string
	DurationMs   int64
	CreatedAt    string
}
