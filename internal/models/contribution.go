package models

import "time"

// ContributionKind selects what an approved contribution merges into.
type ContributionKind string

const (
	ContributionItem    ContributionKind = "item"
	ContributionFeature ContributionKind = "feature"
)

// ContributionStatus captures the one-shot moderation lifecycle.
type ContributionStatus string

const (
	ContributionPending  ContributionStatus = "pending"
	ContributionApproved ContributionStatus = "approved"
	ContributionRejected ContributionStatus = "rejected"
)

// ContributionPhase is the fixed phase label assigned to merged items.
const ContributionPhase = "Community Contributions"

// Contribution is a community-submitted candidate item or feature awaiting
// moderation. ChecklistTitle is populated by joined list queries only.
type Contribution struct {
	ID               int64              `db:"id" json:"id"`
	ChecklistID      int64              `db:"checklist_id" json:"checklistId"`
	ContributorName  string             `db:"contributor_name" json:"contributorName"`
	ContributorEmail string             `db:"contributor_email" json:"contributorEmail"`
	Kind             ContributionKind   `db:"contribution_type" json:"kind"`
	Content          string             `db:"content" json:"content"`
	Status           ContributionStatus `db:"status" json:"status"`
	CreatedAt        time.Time          `db:"created_at" json:"createdAt"`
	ReviewedAt       *time.Time         `db:"reviewed_at" json:"reviewedAt,omitempty"`
	ReviewerNotes    *string            `db:"reviewer_notes" json:"reviewerNotes,omitempty"`

	ChecklistTitle string `db:"checklist_title" json:"checklistTitle,omitempty"`
}

// ContributionStats aggregates moderation counters.
type ContributionStats struct {
	Total              int `db:"total_contributions" json:"totalContributions"`
	UniqueContributors int `db:"unique_contributors" json:"uniqueContributors"`
	Approved           int `db:"approved_contributions" json:"approvedContributions"`
	Pending            int `db:"pending_contributions" json:"pendingContributions"`
}
