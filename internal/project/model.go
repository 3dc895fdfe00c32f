package project

import "time"

// Project mirrors the backend's project entity. The backend is the sole
// writer; this layer only holds a periodically refreshed projection.
type Project struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	CompanyName string     `json:"company_name"`
	Website     string     `json:"website,omitempty"`
	Sector      string     `json:"sector,omitempty"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	Metrics     *Metrics   `json:"metrics,omitempty"`
	Files       []File     `json:"files"`
	Artifacts   []Artifact `json:"artifacts"`
}

// File is an uploaded source document attached to a project.
type File struct {
	ID       int64  `json:"id"`
	Filename string `json:"filename"`
	FileType string `json:"file_type"` // pdf, excel
}

// Artifact is a generated output available once a project is completed.
type Artifact struct {
	ID        int64        `json:"id"`
	Type      ArtifactKind `json:"artifact_type"`
	CreatedAt time.Time    `json:"created_at"`
}

// Metrics is the financial summary shown on a completed project's card.
type Metrics struct {
	Revenue      float64 `json:"revenue"`
	EBITDAMargin float64 `json:"ebitda_margin"`
	Year         int     `json:"year"`
}

// ArtifactKind identifies a downloadable output type on the wire.
type ArtifactKind string

const (
	ArtifactTeaser    ArtifactKind = "ppt"
	ArtifactCitations ArtifactKind = "citation_doc"
)

// Valid reports whether the kind is one the backend can serve.
func (k ArtifactKind) Valid() bool {
	return k == ArtifactTeaser || k == ArtifactCitations
}
