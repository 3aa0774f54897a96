package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation         ErrCode = "VALIDATION_ERROR"
	ErrInvalidID          ErrCode = "INVALID_ID"
	ErrUnknownContentKind ErrCode = "UNKNOWN_CONTENT_KIND"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound          ErrCode = "NOT_FOUND"
	ErrWorkflowNotFound  ErrCode = "WORKFLOW_NOT_FOUND"
	ErrCategoryNotFound  ErrCode = "CATEGORY_NOT_FOUND"
	ErrContentNotFound   ErrCode = "CONTENT_NOT_FOUND"
	ErrUnknownAssessment ErrCode = "UNKNOWN_ASSESSMENT"
	ErrUnknownQuestion   ErrCode = "UNKNOWN_QUESTION"

	// ─── Workflow ──────────────────────────────────────────────────────
	ErrInvalidTransition ErrCode = "INVALID_TRANSITION"
	ErrSubmissionFailed  ErrCode = "SUBMISSION_FAILED"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrServiceUnavailable ErrCode = "SERVICE_UNAVAILABLE"
	ErrInternal           ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrUnknownContentKind:
		return "Unknown content type."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."
	case ErrWorkflowNotFound:
		return "Workflow not found or expired."
	case ErrCategoryNotFound:
		return "Category not found."
	case ErrContentNotFound:
		return "Content item not found."
	case ErrUnknownAssessment:
		return "The assessment is not part of this selection."
	case ErrUnknownQuestion:
		return "The question is not part of this selection."

	// ─── Workflow ──────────────────────────────────────────────────────
	case ErrInvalidTransition:
		return "This action is not available at the current step."
	case ErrSubmissionFailed:
		return "The assignment could not be saved. Your selection was kept; please try again."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrServiceUnavailable:
		return "A required service is unavailable."
	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
