package models

const (
	StepStatusNotStarted = "not_started"
	StepStatusInProgress = "in_progress"
	StepStatusCompleted  = "completed"
)

// Requirement bounds the numeric progress of a step.
type Requirement struct {
	CurrentValue int  `json:"currentValue"`
	TargetValue  *int `json:"targetValue"`
}

type Step struct {
	Title       string       `json:"title"`
	Description *string      `json:"description,omitempty"`
	Status      string       `json:"status"`
	Progress    int          `json:"progress"`
	Requirement *Requirement `json:"requirement,omitempty"`
}

// Equal reports whether two requirements hold the same values. Two nil
// requirements are equal.
func (r *Requirement) Equal(other *Requirement) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.CurrentValue != other.CurrentValue {
		return false
	}
	switch {
	case r.TargetValue == nil && other.TargetValue == nil:
		return true
	case r.TargetValue == nil || other.TargetValue == nil:
		return false
	}
	return *r.TargetValue == *other.TargetValue
}

// Clone returns a deep copy so callers can apply copy-on-write updates.
func (s Step) Clone() Step {
	out := s
	if s.Description != nil {
		d := *s.Description
		out.Description = &d
	}
	if s.Requirement != nil {
		req := *s.Requirement
		if s.Requirement.TargetValue != nil {
			tv := *s.Requirement.TargetValue
			req.TargetValue = &tv
		}
		out.Requirement = &req
	}
	return out
}

// CloneSteps deep-copies a steps sequence.
func CloneSteps(steps []Step) []Step {
	if steps == nil {
		return nil
	}
	out := make([]Step, len(steps))
	for i := range steps {
		out[i] = steps[i].Clone()
	}
	return out
}
