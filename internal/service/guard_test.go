package service

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestAuthorizeProfileMutation(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()

	cases := []struct {
		name   string
		caller Identity
		want   error
	}{
		{"owner", Identity{ID: owner}, nil},
		{"stranger", Identity{ID: other}, ErrForbidden},
		{"elevated stranger", Identity{ID: other, IsSuper: true}, nil},
		{"elevated owner", Identity{ID: owner, IsSuper: true}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := AuthorizeProfileMutation(tc.caller, owner)
			if !errors.Is(err, tc.want) || (tc.want == nil && err != nil) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}
