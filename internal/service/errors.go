package service

import "errors"

// Failure classes. Every error returned by a service either wraps one of
// these or is unexpected.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
)

// domainError carries a client-safe message and the failure class it belongs to.
type domainError struct {
	kind    error
	message string
}

func (e *domainError) Error() string { return e.message }

func (e *domainError) Unwrap() error { return e.kind }

func newDomainError(kind error, message string) error {
	return &domainError{kind: kind, message: message}
}

var (
	ErrNotStudent              = newDomainError(ErrForbidden, "only students can perform this action")
	ErrNotClassLeader          = newDomainError(ErrForbidden, "only class leaders can submit class issues")
	ErrNotReviewer             = newDomainError(ErrForbidden, "your role cannot update complaint status")
	ErrOutsideScope            = newDomainError(ErrForbidden, "you do not have access to this complaint")
	ErrAccountInactive         = newDomainError(ErrForbidden, "account is not active")
	ErrChannelNotAllowed       = newDomainError(ErrForbidden, "access through this channel is not allowed for your account")
	ErrRoleNotAllowedOnChannel = newDomainError(ErrForbidden, "only students and teachers can sign in to the app")

	ErrIssueTypeNotFound    = newDomainError(ErrNotFound, "issue type not found")
	ErrComplaintNotFound    = newDomainError(ErrNotFound, "complaint not found")
	ErrClassroomNotFound    = newDomainError(ErrNotFound, "class not found")
	ErrSubjectClassNotFound = newDomainError(ErrNotFound, "subject not found")
	ErrReferenceNotFound    = newDomainError(ErrNotFound, "no appeal found for this reference number")
	ErrNotificationNotFound = newDomainError(ErrNotFound, "notification not found")
	ErrImageNotFound        = newDomainError(ErrNotFound, "image not found")

	ErrActiveComplaintExists = newDomainError(ErrConflict, "an unresolved complaint already exists for this category; support it instead")
	ErrAppealWindowClosed    = newDomainError(ErrConflict, "the appeal window is closed")
	ErrAppealLimitExceeded   = newDomainError(ErrConflict, "at most 3 subjects can be appealed at once")

	ErrInvalidCredentials = newDomainError(ErrUnauthorized, "invalid credentials")
	ErrSessionRevoked     = newDomainError(ErrUnauthorized, "session has been revoked")

	ErrTooManyImages        = newDomainError(ErrValidation, "too many images attached")
	ErrImageTooLarge        = newDomainError(ErrValidation, "image exceeds maximum allowed size")
	ErrImageTypeNotAllowed  = newDomainError(ErrValidation, "only jpg, jpeg, png and webp images are allowed")
	ErrStatusRequired       = newDomainError(ErrValidation, "status must not be empty")
	ErrStatusTooLong        = newDomainError(ErrValidation, "status must be at most 64 characters")
	ErrReferenceNoRequired  = newDomainError(ErrValidation, "reference_no is required")
	ErrDuplicateSubjectLine = newDomainError(ErrValidation, "each subject can only be appealed once per submission")
	ErrDescriptionRequired  = newDomainError(ErrValidation, "description must not be empty")
)

// accountInactiveError reports the account's actual status to the caller.
func accountInactiveError(status string) error {
	return newDomainError(ErrAccountInactive, "your account is "+status+"; please contact the administrator")
}
