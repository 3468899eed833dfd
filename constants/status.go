package constants

// PlanStatus is the lifecycle status of a nutrition plan row.
type PlanStatus string

// Stable values (store these exact strings in DB).
const (
	PlanStatusDraft  PlanStatus = "draft"  // parsed, awaiting user confirmation
	PlanStatusActive PlanStatus = "active" // confirmed by the user
)

// UploadStatusParsed marks a plan_uploads row whose document was parsed.
const UploadStatusParsed = "parsed"
