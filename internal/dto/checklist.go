package dto

// ItemInput carries one checklist item on create/replace. Order is taken
// from array position, not from the client.
type ItemInput struct {
	Phase    string `json:"phase" form:"phase"`
	Text     string `json:"text" form:"text" binding:"required"`
	Required bool   `json:"required" form:"required"`
}

// CreateChecklistRequest is the admin create payload. On multipart
// submissions Features arrives newline-separated in the FeaturesRaw field
// and an optional file rides alongside.
type CreateChecklistRequest struct {
	Title       string      `json:"title" form:"title" binding:"required"`
	Description string      `json:"description" form:"description" binding:"required"`
	Icon        string      `json:"icon" form:"icon"`
	Category    string      `json:"category" form:"category"`
	Content     string      `json:"content" form:"content"`
	FeaturesRaw string      `json:"-" form:"features"`
	Features    []string    `json:"features" form:"-"`
	Items       []ItemInput `json:"items" form:"-"`
}

// UpdateChecklistRequest applies a partial update. Nil fields are left
// untouched; items/features, when present, replace the full set.
type UpdateChecklistRequest struct {
	Title       *string      `json:"title"`
	Description *string      `json:"description"`
	Icon        *string      `json:"icon"`
	Category    *string      `json:"category"`
	Version     *string      `json:"version"`
	Content     *string      `json:"content"`
	IsFeatured  *bool        `json:"isFeatured"`
	Items       *[]ItemInput `json:"items"`
	Features    *[]string    `json:"features"`
}

// ChecklistSummary is the list-view projection returned to clients.
type ChecklistSummary struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Icon         string          `json:"icon"`
	Category     string          `json:"category"`
	Version      string          `json:"version"`
	Downloads    int             `json:"downloads"`
	Contributors int             `json:"contributors"`
	IsFeatured   bool            `json:"isFeatured"`
	LastUpdated  string          `json:"lastUpdated"`
	Formats      map[string]bool `json:"formats"`
}
