package models

import "time"

// Format enumerates requested download formats.
type Format string

const (
	FormatPDF      Format = "pdf"
	FormatMarkdown Format = "markdown"
	FormatExcel    Format = "excel"
	FormatZIP      Format = "zip"
)

// ParseFormat validates a raw format query value.
func ParseFormat(raw string) (Format, bool) {
	switch Format(raw) {
	case FormatPDF, FormatMarkdown, FormatExcel, FormatZIP:
		return Format(raw), true
	default:
		return "", false
	}
}

// DownloadEvent is an append-only log record written once per successful
// download resolution. Events are never mutated.
type DownloadEvent struct {
	ID           int64     `db:"id" json:"id"`
	ChecklistID  int64     `db:"checklist_id" json:"checklistId"`
	Format       Format    `db:"format" json:"format"`
	IPAddress    string    `db:"ip_address" json:"ipAddress"`
	UserAgent    string    `db:"user_agent" json:"userAgent"`
	DownloadedAt time.Time `db:"downloaded_at" json:"downloadedAt"`
}

// DownloadSummary is an analytics row: download volume per checklist.
type DownloadSummary struct {
	ChecklistID      int64  `db:"checklist_id" json:"checklistId"`
	Title            string `db:"title" json:"title"`
	Downloads        int    `db:"download_count" json:"downloads"`
	UniqueRequesters int    `db:"unique_requesters" json:"uniqueRequesters"`
}
