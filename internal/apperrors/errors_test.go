package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
)

func TestQuestNotFoundMessage(t *testing.T) {
	id := uuid.MustParse("6b0c1c53-5f0e-4c8b-9d55-1b8a2f8f7c11")
	err := QuestNotFound(id)
	want := "Quest with id 6b0c1c53-5f0e-4c8b-9d55-1b8a2f8f7c11 not found"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
	if err.Metadata["id"] != id.String() {
		t.Fatalf("expected metadata id %s, got %s", id, err.Metadata["id"])
	}
}

func TestKindOfWrapped(t *testing.T) {
	wrapped := fmt.Errorf("complete: %w", AlreadyCompleted(uuid.New(), uuid.New()))
	if KindOf(wrapped) != KindConflict {
		t.Fatalf("expected conflict kind, got %q", KindOf(wrapped))
	}
	if CodeOf(wrapped) != CodeAlreadyCompleted {
		t.Fatalf("expected code %s, got %s", CodeAlreadyCompleted, CodeOf(wrapped))
	}
	if KindOf(errors.New("boom")) != "" {
		t.Fatal("expected empty kind for plain error")
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := GalleryTooLarge(11, 10)
	if !errors.Is(err, &Error{Code: CodeGalleryTooLarge}) {
		t.Fatal("expected errors.Is to match by code")
	}
	if errors.Is(err, &Error{Code: CodeQuestNotFound}) {
		t.Fatal("expected different codes not to match")
	}
}

func TestKinds(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name string
		err  *Error
		kind Kind
	}{
		{name: "not found", err: CategoryLinkNotFound(id, id), kind: KindNotFound},
		{name: "bad request", err: RequirementExceedsTarget(0, 11, 10), kind: KindBadRequest},
		{name: "conflict", err: AlreadyJoined(id, id), kind: KindConflict},
		{name: "forbidden", err: InsufficientLevel(id, 2, 5), kind: KindForbidden},
		{name: "not owner", err: NotQuestOwner(id, id), kind: KindForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !IsKind(tt.err, tt.kind) {
				t.Fatalf("expected kind %s, got %s", tt.kind, tt.err.Kind)
			}
		})
	}
}
