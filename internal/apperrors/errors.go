// Package apperrors defines the error taxonomy returned by the progression
// services. Every error carries a kind, a machine-readable code and a
// message rendered from a stable template.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping.
type Kind string

const (
	KindNotFound   Kind = "not_found"
	KindBadRequest Kind = "bad_request"
	KindConflict   Kind = "conflict"
	KindForbidden  Kind = "forbidden"
)

// Code is a machine-readable error code.
type Code string

const (
	// Not found
	CodeUserNotFound             Code = "USER_NOT_FOUND"
	CodeQuestNotFound            Code = "QUEST_NOT_FOUND"
	CodeAchievementNotFound      Code = "ACHIEVEMENT_NOT_FOUND"
	CodeCityNotFound             Code = "CITY_NOT_FOUND"
	CodeOrganizationTypeNotFound Code = "ORGANIZATION_TYPE_NOT_FOUND"
	CodeCategoryNotFound         Code = "CATEGORY_NOT_FOUND"
	CodeParticipationNotFound    Code = "PARTICIPATION_NOT_FOUND"
	CodeCategoryLinkNotFound     Code = "CATEGORY_LINK_NOT_FOUND"

	// Bad request
	CodeQuestNotActive          Code = "QUEST_NOT_ACTIVE"
	CodeQuestStatusTransition   Code = "QUEST_INVALID_STATUS_TRANSITION"
	CodeQuestHasNoSteps         Code = "QUEST_HAS_NO_STEPS"
	CodeStepIndexOutOfRange     Code = "STEP_INDEX_OUT_OF_RANGE"
	CodeStepHasNoRequirement    Code = "STEP_HAS_NO_REQUIREMENT"
	CodeRequirementNegative     Code = "REQUIREMENT_NEGATIVE"
	CodeRequirementNoTarget     Code = "REQUIREMENT_TARGET_MISSING"
	CodeRequirementExceedsGoal  Code = "REQUIREMENT_EXCEEDS_TARGET"
	CodeGalleryTooLarge         Code = "GALLERY_TOO_LARGE"
	CodeInvalidStepTitle        Code = "STEP_TITLE_EMPTY"
	CodeInvalidExperience       Code = "EXPERIENCE_REWARD_NEGATIVE"
	CodeInvalidStatus           Code = "INVALID_STATUS"
	CodeInvalidRarity           Code = "INVALID_RARITY"
	CodePrivateRequiresQuest    Code = "PRIVATE_ACHIEVEMENT_REQUIRES_QUEST"
	CodePublicForbidsQuest      Code = "PUBLIC_ACHIEVEMENT_FORBIDS_QUEST"
	CodeCompletedQuestLeave     Code = "COMPLETED_QUEST_CANNOT_BE_LEFT"
	CodeTitleRequired           Code = "TITLE_REQUIRED"
	CodeBindingAchievementTaken Code = "ACHIEVEMENT_ALREADY_BOUND"
	CodeQuestHasAchievement     Code = "QUEST_ALREADY_HAS_ACHIEVEMENT"
	CodeDeviceTokenRequired     Code = "DEVICE_TOKEN_REQUIRED"

	// Conflict
	CodeAlreadyJoined        Code = "QUEST_ALREADY_JOINED"
	CodeAlreadyCompleted     Code = "QUEST_ALREADY_COMPLETED"
	CodeAlreadyGranted       Code = "ACHIEVEMENT_ALREADY_GRANTED"
	CodeDuplicateTitle       Code = "ACHIEVEMENT_TITLE_TAKEN"
	CodeCategoryLinkExists   Code = "CATEGORY_LINK_EXISTS"
	CodeConcurrentQuestWrite Code = "QUEST_MODIFIED_CONCURRENTLY"

	// Forbidden
	CodeInsufficientLevel  Code = "INSUFFICIENT_LEVEL"
	CodeQuestOwnerRequired Code = "QUEST_OWNER_REQUIRED"
)

// Error is a domain error with a stable code and rendered message.
type Error struct {
	Kind     Kind
	Code     Code
	Message  string
	Metadata map[string]string
}

func (e *Error) Error() string {
	return e.Message
}

// Is matches errors by code so callers can compare against a template
// instance, e.g. errors.Is(err, &Error{Code: CodeQuestNotFound}).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func newError(kind Kind, code Code, metadata map[string]string, format string, args ...any) *Error {
	return &Error{
		Kind:     kind,
		Code:     code,
		Message:  fmt.Sprintf(format, args...),
		Metadata: metadata,
	}
}

// KindOf returns the kind of err, or an empty kind if err is not a domain error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// CodeOf returns the code of err, or an empty code if err is not a domain error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsKind reports whether err is a domain error of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
