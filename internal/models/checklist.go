package models

import (
	"strings"
	"time"
)

// Defaults applied when a checklist is created without explicit values.
// They mirror the column defaults in the schema.
const (
	DefaultIcon     = "📋"
	DefaultCategory = "Other"
	DefaultVersion  = "1.0"
	DefaultFormats  = "pdf,markdown,excel"
)

// SortOrder selects list ordering; callers must choose one explicitly.
type SortOrder string

const (
	SortNewest  SortOrder = "newest"
	SortPopular SortOrder = "popular"
)

// Checklist is the aggregate root row. Items and features are carried by
// ChecklistDetail for single-entity reads and omitted from list views.
type Checklist struct {
	ID           int64     `db:"id" json:"id"`
	Title        string    `db:"title" json:"title"`
	Description  string    `db:"description" json:"description"`
	Icon         string    `db:"icon" json:"icon"`
	Category     string    `db:"category" json:"category"`
	Version      string    `db:"version" json:"version"`
	Formats      string    `db:"formats" json:"-"`
	Downloads    int       `db:"downloads" json:"downloads"`
	Contributors int       `db:"contributors" json:"contributors"`
	IsFeatured   bool      `db:"is_featured" json:"isFeatured"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`

	// Discriminated content columns; exactly one form is active, decided
	// by ContentKind. FileData never serialises to JSON.
	ContentKind PayloadKind `db:"content_kind" json:"contentKind"`
	ContentText *string     `db:"content_text" json:"contentText,omitempty"`
	FileKind    *FileKind   `db:"file_kind" json:"fileKind,omitempty"`
	FileName    *string     `db:"file_name" json:"fileName,omitempty"`
	FileData    []byte      `db:"file_data" json:"-"`
}

// Payload assembles the discriminated content columns into a ContentPayload.
func (c *Checklist) Payload() ContentPayload {
	kind := c.ContentKind
	if kind == "" {
		kind = PayloadEmpty
	}
	return ContentPayload{
		Kind:     kind,
		Text:     c.ContentText,
		FileKind: c.FileKind,
		FileName: c.FileName,
		FileData: c.FileData,
	}
}

// SetPayload spreads a ContentPayload across the content columns.
func (c *Checklist) SetPayload(p ContentPayload) {
	if p.Kind == "" {
		p.Kind = PayloadEmpty
	}
	c.ContentKind = p.Kind
	c.ContentText = p.Text
	c.FileKind = p.FileKind
	c.FileName = p.FileName
	c.FileData = p.FileData
}

// FormatSet expands the stored comma-separated capability list.
func (c *Checklist) FormatSet() map[string]bool {
	set := make(map[string]bool)
	raw := c.Formats
	if raw == "" {
		raw = DefaultFormats
	}
	for _, f := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(f); trimmed != "" {
			set[trimmed] = true
		}
	}
	return set
}

// ChecklistItem belongs to exactly one checklist. ItemOrder values are
// dense (0..n-1) within a checklist and determine presentation order.
type ChecklistItem struct {
	ID          int64  `db:"id" json:"id"`
	ChecklistID int64  `db:"checklist_id" json:"checklistId"`
	Phase       string `db:"phase" json:"phase"`
	ItemText    string `db:"item_text" json:"itemText"`
	IsRequired  bool   `db:"is_required" json:"isRequired"`
	ItemOrder   int    `db:"item_order" json:"itemOrder"`
}

// ChecklistDetail is the full aggregate: core row plus ordered items and
// the feature list.
type ChecklistDetail struct {
	Checklist
	Items    []ChecklistItem `json:"items"`
	Features []string        `json:"features"`
}

// Stats aggregates site-wide counters.
type Stats struct {
	TotalChecklists   int `db:"total_checklists" json:"totalChecklists"`
	TotalDownloads    int `db:"total_downloads" json:"totalDownloads"`
	TotalContributors int `db:"total_contributors" json:"totalContributors"`
}
