package dto

// RejectRequest carries the mandatory reason for rejecting an activity.
type RejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

// BulkApproveRequest lists the activities to approve in one call.
type BulkApproveRequest struct {
	ActivityIDs []uint `json:"activity_ids" validate:"required,min=1,dive,gt=0"`
}

// BulkRejectRequest lists the activities to reject with a shared reason.
type BulkRejectRequest struct {
	ActivityIDs []uint `json:"activity_ids" validate:"required,min=1,dive,gt=0"`
	Reason      string `json:"reason" validate:"required"`
}

// BulkReviewResponse reports how many activities actually transitioned.
type BulkReviewResponse struct {
	AffectedCount int `json:"affected_count"`
}

// ReviewQueueStats summarizes the review workload for the faculty dashboard.
type ReviewQueueStats struct {
	Pending  int64 `json:"pending"`
	Verified int64 `json:"verified"`
	Rejected int64 `json:"rejected"`
	Total    int64 `json:"total"`
}
