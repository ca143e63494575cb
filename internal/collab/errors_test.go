package collab

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err  error
		kind Kind
		text string
	}{
		{NotFound("comment %s not found", "c1"), KindNotFound, "not_found"},
		{InvalidState("bad state"), KindInvalidState, "invalid_state"},
		{InvalidArgument("bad arg"), KindInvalidArgument, "invalid_argument"},
		{Forbidden("nope"), KindForbidden, "forbidden"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			if !IsKind(wrapped, tt.kind) {
				t.Fatalf("expected wrapped error to carry %s", tt.kind)
			}
			if KindOf(wrapped).String() != tt.text {
				t.Fatalf("expected %s, got %s", tt.text, KindOf(wrapped))
			}
		})
	}

	if IsKind(errors.New("plain"), KindNotFound) {
		t.Fatal("plain error should carry no kind")
	}
	if IsKind(nil, KindNotFound) {
		t.Fatal("nil error should carry no kind")
	}
	if got := NotFound("comment %s not found", "c1").Error(); got != "comment c1 not found" {
		t.Fatalf("unexpected message %q", got)
	}
}
