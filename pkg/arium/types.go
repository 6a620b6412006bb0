package arium

import (
	"time"
)

// Asset lifecycle labels reported while an upload is in flight.
const (
	AssetStatusUploading  = "uploading"
	AssetStatusProcessing = "processing"
)

// Asset is one versioned object within a collection. The platform owns its
// state; fields the client does not model are kept in Extra.
type Asset struct {
	ID          string                 `json:"id"                    mapstructure:"id"          yaml:"id"`
	Name        string                 `json:"name,omitempty"        mapstructure:"name"        yaml:"name,omitempty"`
	Status      string                 `json:"status,omitempty"      mapstructure:"status"      yaml:"status,omitempty"`
	Description string                 `json:"description,omitempty" mapstructure:"description" yaml:"description,omitempty"`
	Locked      bool                   `json:"locked,omitempty"      mapstructure:"locked"      yaml:"locked,omitempty"`
	Version     string                 `json:"version,omitempty"     mapstructure:"version"     yaml:"version,omitempty"`
	Extra       map[string]interface{} `json:"-"                     mapstructure:",remain"     yaml:"-"`
}

// Pending reports whether the asset is still uploading or processing.
func (a *Asset) Pending() bool {
	return a.Status == AssetStatusUploading || a.Status == AssetStatusProcessing
}

// ListResponse is the envelope returned by the assets listing endpoint.
type ListResponse struct {
	Count   int           `json:"count"   mapstructure:"count"   yaml:"count"`
	Total   int           `json:"total"   mapstructure:"total"   yaml:"total"`
	Content []interface{} `json:"content" mapstructure:"content" yaml:"content"`
}

// JobKind names the asset workflows that run as server-side jobs.
type JobKind string

// Job kinds, which double as the path segment of their status endpoint.
const (
	JobKindCopy   JobKind = "copy"
	JobKindImport JobKind = "import"
)

// Job is a copy or import workflow record.
type Job struct {
	ID     string                 `json:"id"               mapstructure:"id"      yaml:"id"`
	State  string                 `json:"state,omitempty"  mapstructure:"state"   yaml:"state,omitempty"`
	Status string                 `json:"status,omitempty" mapstructure:"status"  yaml:"status,omitempty"`
	IDs    []string               `json:"ids,omitempty"    mapstructure:"ids"     yaml:"ids,omitempty"`
	Extra  map[string]interface{} `json:"-"                mapstructure:",remain" yaml:"-"`
}

// WorkflowKind identifies an asynchronous workflow for event publishing.
type WorkflowKind string

// Workflow kinds.
const (
	WorkflowUpload WorkflowKind = "upload"
	WorkflowImport WorkflowKind = "import"
	WorkflowCopy   WorkflowKind = "copy"
	WorkflowCalc   WorkflowKind = "calculation"
)

// WorkflowEvent is published when a polled workflow reaches its terminal
// state.
type WorkflowEvent struct {
	Kind        WorkflowKind `json:"kind"`
	Collection  string       `json:"collection,omitempty"`
	ID          string       `json:"id"`
	State       string       `json:"state"`
	CompletedAt time.Time    `json:"completed_at"`
}

// ListOptions controls asset listing.
type ListOptions struct {
	// Latest restricts the listing to the latest version of every asset.
	// Nil means true.
	Latest *bool
}

// CreateOptions controls asset creation.
type CreateOptions struct {
	// Params are extra query parameters sent with the create request.
	Params map[string]string
	// Presigned asks the platform for a presigned upload reference instead
	// of sending the payload inline.
	Presigned bool
	// NoWait returns right after the upload instead of polling until the
	// platform finishes processing it.
	NoWait bool
}

// ExportOptions controls asset export.
type ExportOptions struct {
	// Name of the written file. Defaults to "export_<collection>".
	Name string
	// OutputFolder the file is written to. Defaults to the working directory.
	OutputFolder string
}

// ReportOptions controls report download.
type ReportOptions struct {
	// CSV parses the report into rows.
	CSV bool
	// Unzip extracts the first archive entry before parsing. Only applied to
	// files ending in ".zip".
	Unzip bool
	// Raw returns the bytes without parsing.
	Raw bool
}

// FetchOptions controls fetching content from an absolute URL.
type FetchOptions struct {
	CSV       bool
	Raw       bool
	Delimiter rune
}
