package models

import (
	"time"
)

// NoteType is the user-facing category of a finished analysis
type NoteType string

const (
	NoteMatch   NoteType = "zhoda"
	NoteProblem NoteType = "problem"
)

// Category is the raw classifier output
type Category string

const (
	CategoryMatch    Category = "zhoda"
	CategoryMismatch Category = "problem_s_korespondenciou"
)

// StepStatus is the state of one workflow step
type StepStatus string

const (
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepError     StepStatus = "error"
)

// StepEvent is a transient progress notification emitted by the workflow
type StepEvent struct {
	Name       string     `json:"name"`
	Status     StepStatus `json:"status"`
	Output     string     `json:"output,omitempty"`
	AnalysisID string     `json:"analysisId,omitempty"`
}

// WorkflowResult is the outcome of one fact-type analysis
type WorkflowResult struct {
	Name       string        `json:"name"`
	Value      string        `json:"value"`
	Confidence float64       `json:"confidence"`
	Note       string        `json:"note"`
	NoteType   NoteType      `json:"noteType"`
	Details    ResultDetails `json:"details"`
}

// ResultDetails carries the raw remote outputs behind a WorkflowResult
type ResultDetails struct {
	Doc1         string   `json:"doc1"`
	Doc2         string   `json:"doc2"`
	Doc3         string   `json:"doc3"`
	Orchestrator string   `json:"orchestrator"`
	Category     Category `json:"category"`
	FinalOutput  string   `json:"finalOutput"`
}

// DocumentStatus tracks the upload lifecycle of a document
type DocumentStatus string

const (
	DocumentUploading  DocumentStatus = "uploading"
	DocumentProcessing DocumentStatus = "processing"
	DocumentReady      DocumentStatus = "ready"
	DocumentError      DocumentStatus = "error"
)

// Document is a file registered in a collection
type Document struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Size         int64          `json:"size"`
	UploadedAt   time.Time      `json:"uploadedAt"`
	RemoteFileID string         `json:"openaiFileId,omitempty"`
	Status       DocumentStatus `json:"status"`
	Enabled      bool           `json:"enabled"`
}

// Collection is a remotely indexed document corpus (a vector store)
type Collection struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	VectorStoreID string     `json:"vectorStoreId"`
	Documents     []Document `json:"documents"`
	IsDefault     bool       `json:"isDefault"`
	Enabled       bool       `json:"enabled"`
}

// ChatMessage is one turn of the user conversation
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant"`
	Content string `json:"content"`
}
