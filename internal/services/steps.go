package services

import (
	"strings"

	"github.com/arnold/charity-quests-api/internal/apperrors"
	"github.com/arnold/charity-quests-api/internal/models"
)

// normalizeSteps validates steps and fills default statuses. It returns a
// fresh copy so the caller's slice is never aliased into storage.
func normalizeSteps(steps []models.Step) ([]models.Step, error) {
	out := models.CloneSteps(steps)
	for i := range out {
		if strings.TrimSpace(out[i].Title) == "" {
			return nil, apperrors.StepTitleRequired(i)
		}
		if out[i].Status == "" {
			out[i].Status = models.StepStatusNotStarted
		}
		if err := checkRequirement(i, out[i].Requirement); err != nil {
			return nil, err
		}
	}
	if out == nil {
		out = []models.Step{}
	}
	return out, nil
}

func checkRequirement(index int, req *models.Requirement) error {
	if req == nil {
		return nil
	}
	if req.TargetValue == nil {
		return apperrors.RequirementTargetMissing(index)
	}
	if *req.TargetValue < 0 {
		return apperrors.RequirementNegative(index, *req.TargetValue)
	}
	return checkCurrentValue(index, req.CurrentValue, *req.TargetValue)
}

// checkCurrentValue enforces 0 <= value <= target.
func checkCurrentValue(index, value, target int) error {
	if value < 0 {
		return apperrors.RequirementNegative(index, value)
	}
	if value > target {
		return apperrors.RequirementExceedsTarget(index, value, target)
	}
	return nil
}

// requirementsChanged compares two step sequences index by index and reports
// whether any requirement was added, removed or had its values changed.
func requirementsChanged(before, after []models.Step) bool {
	n := len(before)
	if len(after) > n {
		n = len(after)
	}
	for i := 0; i < n; i++ {
		var a, b *models.Requirement
		if i < len(before) {
			a = before[i].Requirement
		}
		if i < len(after) {
			b = after[i].Requirement
		}
		if !a.Equal(b) {
			return true
		}
	}
	return false
}
