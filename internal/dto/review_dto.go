package dto

// ReviewRequest carries an administrator decision for one application.
// PENDING is deliberately not an accepted target: entering review is a
// one-way gate from creation.
type ReviewRequest struct {
	Status string  `json:"status" validate:"required,oneof=APPROVED REJECTED"`
	Note   *string `json:"note" validate:"omitempty,min=3"`
}

// BulkReviewRequest applies one decision across several applications.
type BulkReviewRequest struct {
	IDs    []uint `json:"ids" validate:"required,min=1,dive,gt=0"`
	Status string `json:"status" validate:"required,oneof=APPROVED REJECTED"`
}

// BulkReviewFailure reports one application that could not be updated.
type BulkReviewFailure struct {
	ID     uint   `json:"id"`
	Reason string `json:"reason"`
}

// BulkReviewResponse summarizes a partial-success bulk decision.
type BulkReviewResponse struct {
	Requested int                 `json:"requested"`
	Updated   int                 `json:"updated"`
	Failures  []BulkReviewFailure `json:"failures,omitempty"`
}
