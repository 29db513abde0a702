package services

import (
	"github.com/assetcatalog/backend/internal/models"
)

// CanRead allows anonymous callers to see published assets only.
// Any authenticated caller may read an asset in any status.
func CanRead(caller *models.User, asset *models.Asset) error {
	if asset.Status == models.AssetStatusPublished {
		return nil
	}
	if caller == nil {
		return ErrUnauthenticated
	}
	return nil
}

// CanMutate guards edit and delete: admins, or the asset's owner.
func CanMutate(caller *models.User, asset *models.Asset) error {
	if caller == nil {
		return ErrUnauthenticated
	}
	if caller.IsAdmin() || asset.IsOwnedBy(caller.ID) {
		return nil
	}
	return ErrForbidden
}

// CanTransition guards status changes, which are reserved for admins.
func CanTransition(caller *models.User, _ *models.Asset) error {
	return RequireAdmin(caller)
}

func RequireAdmin(caller *models.User) error {
	if caller == nil {
		return ErrUnauthenticated
	}
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

func RequireUser(caller *models.User) error {
	if caller == nil {
		return ErrUnauthenticated
	}
	return nil
}
