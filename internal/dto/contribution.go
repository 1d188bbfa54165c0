package dto

// SubmitContributionRequest is the public submission payload.
type SubmitContributionRequest struct {
	ChecklistID int64  `json:"checklistId" binding:"required"`
	Name        string `json:"name"`
	Email       string `json:"email" binding:"omitempty,email"`
	Kind        string `json:"kind" binding:"required,oneof=item feature"`
	Content     string `json:"content" binding:"required"`
}

// ReviewContributionRequest records a one-time moderation decision.
type ReviewContributionRequest struct {
	Decision string `json:"decision" binding:"required,oneof=approved rejected"`
	Notes    string `json:"notes"`
}
