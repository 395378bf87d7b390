package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"plain error", errors.New("boom"), Internal},
		{"not found", E(NotFound, "post not found"), NotFound},
		{"wrapped conflict", fmt.Errorf("vote: %w", E(Conflict, "already voted")), Conflict},
		{"wrap keeps kind", Wrap(Forbidden, errors.New("x"), "nope"), Forbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMessageHidesInternalDetail(t *testing.T) {
	if got := Message(errors.New("pq: connection refused")); got != "internal server error" {
		t.Errorf("Message() = %q", got)
	}
	if got := Message(E(Invalid, "title is required")); got != "title is required" {
		t.Errorf("Message() = %q", got)
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("cause")
	err := Wrap(Internal, cause, "pin failed")
	if !errors.Is(err, cause) {
		t.Error("expected wrapped cause to be reachable")
	}
}
