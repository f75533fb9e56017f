package service

import "github.com/google/uuid"

// AuthorizeProfileMutation allows elevated callers everywhere and everyone
// else on their own profile only.
func AuthorizeProfileMutation(caller Identity, ownerID uuid.UUID) error {
	if caller.IsSuper || caller.ID == ownerID {
		return nil
	}
	return ErrForbidden
}
