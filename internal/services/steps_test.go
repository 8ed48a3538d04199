package services

import (
	"testing"

	"github.com/arnold/charity-quests-api/internal/apperrors"
	"github.com/arnold/charity-quests-api/internal/models"
)

func TestNormalizeSteps(t *testing.T) {
	in := []models.Step{stepWithTarget("Collect", 2, 5), {Title: "Deliver", Status: models.StepStatusCompleted}}
	out, err := normalizeSteps(in)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if out[0].Status != models.StepStatusNotStarted || out[1].Status != models.StepStatusCompleted {
		t.Fatalf("unexpected statuses %q, %q", out[0].Status, out[1].Status)
	}
	out[0].Requirement.CurrentValue = 4
	if in[0].Requirement.CurrentValue != 2 {
		t.Fatal("expected normalized steps not to alias the input")
	}

	empty, err := normalizeSteps(nil)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v, %v", empty, err)
	}
}

func TestNormalizeStepsRejects(t *testing.T) {
	tests := []struct {
		name  string
		steps []models.Step
		code  apperrors.Code
	}{
		{"blank title", []models.Step{{Title: ""}}, apperrors.CodeInvalidStepTitle},
		{"negative target", []models.Step{stepWithTarget("s", 0, -1)}, apperrors.CodeRequirementNegative},
		{"negative current", []models.Step{stepWithTarget("s", -1, 3)}, apperrors.CodeRequirementNegative},
		{"current above target", []models.Step{stepWithTarget("s", 4, 3)}, apperrors.CodeRequirementExceedsGoal},
		{"no target", []models.Step{{Title: "s", Requirement: &models.Requirement{}}}, apperrors.CodeRequirementNoTarget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := normalizeSteps(tt.steps)
			expectCode(t, err, tt.code)
		})
	}
}

func TestRequirementsChanged(t *testing.T) {
	base := []models.Step{stepWithTarget("s", 1, 5)}
	tests := []struct {
		name  string
		after []models.Step
		want  bool
	}{
		{"identical", []models.Step{stepWithTarget("renamed", 1, 5)}, false},
		{"current changed", []models.Step{stepWithTarget("s", 2, 5)}, true},
		{"target changed", []models.Step{stepWithTarget("s", 1, 6)}, true},
		{"requirement removed", []models.Step{{Title: "s"}}, true},
		{"step appended without requirement", []models.Step{stepWithTarget("s", 1, 5), {Title: "t"}}, false},
		{"step appended with requirement", []models.Step{stepWithTarget("s", 1, 5), stepWithTarget("t", 0, 1)}, true},
		{"all removed", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := requirementsChanged(base, tt.after); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}
