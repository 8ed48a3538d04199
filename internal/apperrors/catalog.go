package apperrors

import "fmt"

func notFound(code Code, entity string, id fmt.Stringer) *Error {
	return newError(KindNotFound, code, map[string]string{"id": id.String()},
		"%s with id %s not found", entity, id)
}

func UserNotFound(id fmt.Stringer) *Error {
	return notFound(CodeUserNotFound, "User", id)
}

func QuestNotFound(id fmt.Stringer) *Error {
	return notFound(CodeQuestNotFound, "Quest", id)
}

func AchievementNotFound(id fmt.Stringer) *Error {
	return notFound(CodeAchievementNotFound, "Achievement", id)
}

func CityNotFound(id fmt.Stringer) *Error {
	return notFound(CodeCityNotFound, "City", id)
}

func CategoryNotFound(id fmt.Stringer) *Error {
	return notFound(CodeCategoryNotFound, "Category", id)
}

func OrganizationTypeNotFound(id fmt.Stringer) *Error {
	return notFound(CodeOrganizationTypeNotFound, "Organization type", id)
}

func ParticipationNotFound(userID, questID fmt.Stringer) *Error {
	return newError(KindNotFound, CodeParticipationNotFound,
		map[string]string{"userId": userID.String(), "questId": questID.String()},
		"User %s has not started quest %s", userID, questID)
}

func CategoryLinkNotFound(questID, categoryID fmt.Stringer) *Error {
	return newError(KindNotFound, CodeCategoryLinkNotFound,
		map[string]string{"questId": questID.String(), "categoryId": categoryID.String()},
		"Relation between quest %s and category %s not found", questID, categoryID)
}

func QuestNotActive(id fmt.Stringer, status string) *Error {
	return newError(KindBadRequest, CodeQuestNotActive,
		map[string]string{"id": id.String(), "status": status},
		"Quest %s is %s, only active quests accept this operation", id, status)
}

func QuestStatusTransition(id fmt.Stringer, from, to string) *Error {
	return newError(KindBadRequest, CodeQuestStatusTransition,
		map[string]string{"id": id.String(), "from": from, "to": to},
		"Quest %s cannot move from %s to %s", id, from, to)
}

func QuestHasNoSteps(id fmt.Stringer) *Error {
	return newError(KindBadRequest, CodeQuestHasNoSteps, map[string]string{"id": id.String()},
		"Quest %s has no steps", id)
}

func StepIndexOutOfRange(id fmt.Stringer, index, count int) *Error {
	return newError(KindBadRequest, CodeStepIndexOutOfRange,
		map[string]string{"id": id.String(), "index": fmt.Sprint(index), "count": fmt.Sprint(count)},
		"Step index %d is out of range for quest %s with %d steps", index, id, count)
}

func StepHasNoRequirement(id fmt.Stringer, index int) *Error {
	return newError(KindBadRequest, CodeStepHasNoRequirement,
		map[string]string{"id": id.String(), "index": fmt.Sprint(index)},
		"Step %d of quest %s has no requirement with a target value", index, id)
}

func RequirementNegative(index, value int) *Error {
	return newError(KindBadRequest, CodeRequirementNegative,
		map[string]string{"index": fmt.Sprint(index), "value": fmt.Sprint(value)},
		"Requirement current value %d of step %d must not be negative", value, index)
}

func RequirementTargetMissing(index int) *Error {
	return newError(KindBadRequest, CodeRequirementNoTarget, map[string]string{"index": fmt.Sprint(index)},
		"Requirement of step %d must define a target value", index)
}

func RequirementExceedsTarget(index, value, target int) *Error {
	return newError(KindBadRequest, CodeRequirementExceedsGoal,
		map[string]string{"index": fmt.Sprint(index), "value": fmt.Sprint(value), "target": fmt.Sprint(target)},
		"Requirement current value %d of step %d exceeds target value %d", value, index, target)
}

func GalleryTooLarge(size, limit int) *Error {
	return newError(KindBadRequest, CodeGalleryTooLarge,
		map[string]string{"size": fmt.Sprint(size), "limit": fmt.Sprint(limit)},
		"Gallery holds %d images, at most %d are allowed", size, limit)
}

func StepTitleRequired(index int) *Error {
	return newError(KindBadRequest, CodeInvalidStepTitle, map[string]string{"index": fmt.Sprint(index)},
		"Step %d must have a title", index)
}

func DeviceTokenRequired() *Error {
	return newError(KindBadRequest, CodeDeviceTokenRequired, nil, "Token is required")
}

func TitleRequired(entity string) *Error {
	return newError(KindBadRequest, CodeTitleRequired, map[string]string{"entity": entity},
		"%s title is required", entity)
}

func ExperienceNegative(value int) *Error {
	return newError(KindBadRequest, CodeInvalidExperience, map[string]string{"value": fmt.Sprint(value)},
		"Experience reward %d must not be negative", value)
}

func InvalidStatus(status string) *Error {
	return newError(KindBadRequest, CodeInvalidStatus, map[string]string{"status": status},
		"Unknown status %q", status)
}

func InvalidRarity(rarity string) *Error {
	return newError(KindBadRequest, CodeInvalidRarity, map[string]string{"rarity": rarity},
		"Unknown rarity %q", rarity)
}

func PrivateRequiresQuest() *Error {
	return newError(KindBadRequest, CodePrivateRequiresQuest, nil,
		"Private achievements must reference a quest")
}

func PublicForbidsQuest(rarity string) *Error {
	return newError(KindBadRequest, CodePublicForbidsQuest, map[string]string{"rarity": rarity},
		"Achievements with rarity %s cannot reference a quest", rarity)
}

func AchievementAlreadyBound(id, questID fmt.Stringer) *Error {
	return newError(KindBadRequest, CodeBindingAchievementTaken,
		map[string]string{"id": id.String(), "questId": questID.String()},
		"Achievement %s is already bound to quest %s", id, questID)
}

func QuestHasAchievement(questID, achievementID fmt.Stringer) *Error {
	return newError(KindBadRequest, CodeQuestHasAchievement,
		map[string]string{"questId": questID.String(), "achievementId": achievementID.String()},
		"Quest %s is already bound to achievement %s", questID, achievementID)
}

func CompletedQuestCannotBeLeft(questID fmt.Stringer) *Error {
	return newError(KindBadRequest, CodeCompletedQuestLeave, map[string]string{"questId": questID.String()},
		"Quest %s is already completed and cannot be left", questID)
}

func AlreadyJoined(userID, questID fmt.Stringer) *Error {
	return newError(KindConflict, CodeAlreadyJoined,
		map[string]string{"userId": userID.String(), "questId": questID.String()},
		"User %s has already joined quest %s", userID, questID)
}

func AlreadyCompleted(userID, questID fmt.Stringer) *Error {
	return newError(KindConflict, CodeAlreadyCompleted,
		map[string]string{"userId": userID.String(), "questId": questID.String()},
		"User %s has already completed quest %s", userID, questID)
}

func AlreadyGranted(userID, achievementID fmt.Stringer) *Error {
	return newError(KindConflict, CodeAlreadyGranted,
		map[string]string{"userId": userID.String(), "achievementId": achievementID.String()},
		"User %s already has achievement %s", userID, achievementID)
}

func DuplicateTitle(title string) *Error {
	return newError(KindConflict, CodeDuplicateTitle, map[string]string{"title": title},
		"Achievement with title %q already exists", title)
}

func CategoryLinkExists(questID, categoryID fmt.Stringer) *Error {
	return newError(KindConflict, CodeCategoryLinkExists,
		map[string]string{"questId": questID.String(), "categoryId": categoryID.String()},
		"Quest %s is already tagged with category %s", questID, categoryID)
}

func ConcurrentQuestWrite(id fmt.Stringer) *Error {
	return newError(KindConflict, CodeConcurrentQuestWrite, map[string]string{"id": id.String()},
		"Quest %s was modified concurrently, retry the request", id)
}

func InsufficientLevel(userID fmt.Stringer, level, required int) *Error {
	return newError(KindForbidden, CodeInsufficientLevel,
		map[string]string{"userId": userID.String(), "level": fmt.Sprint(level), "required": fmt.Sprint(required)},
		"User %s has level %d, level %d is required to create quests", userID, level, required)
}

func NotQuestOwner(questID, userID fmt.Stringer) *Error {
	return newError(KindForbidden, CodeQuestOwnerRequired,
		map[string]string{"questId": questID.String(), "userId": userID.String()},
		"User %s does not own quest %s", userID, questID)
}
