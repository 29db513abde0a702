package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/assetcatalog/backend/internal/models"
)

func TestGuards(t *testing.T) {
	owner := &models.User{ID: uuid.New(), Role: models.RoleOwner}
	otherOwner := &models.User{ID: uuid.New(), Role: models.RoleOwner}
	employee := &models.User{ID: uuid.New(), Role: models.RoleEmployee}
	admin := &models.User{ID: uuid.New(), Role: models.RoleAdmin}

	draft := &models.Asset{ID: uuid.New(), OwnerID: owner.ID, Status: models.AssetStatusDraft}
	published := &models.Asset{ID: uuid.New(), OwnerID: owner.ID, Status: models.AssetStatusPublished}

	tests := []struct {
		name  string
		guard func(*models.User, *models.Asset) error
		user  *models.User
		asset *models.Asset
		want  error
	}{
		{"anonymous reads published", CanRead, nil, published, nil},
		{"anonymous cannot read draft", CanRead, nil, draft, ErrUnauthenticated},
		{"employee reads draft", CanRead, employee, draft, nil},

		{"anonymous cannot mutate", CanMutate, nil, draft, ErrUnauthenticated},
		{"owner mutates own asset", CanMutate, owner, draft, nil},
		{"other owner cannot mutate", CanMutate, otherOwner, draft, ErrForbidden},
		{"employee cannot mutate", CanMutate, employee, published, ErrForbidden},
		{"admin mutates any asset", CanMutate, admin, draft, nil},

		{"anonymous cannot transition", CanTransition, nil, draft, ErrUnauthenticated},
		{"owner cannot transition", CanTransition, owner, draft, ErrForbidden},
		{"admin transitions", CanTransition, admin, draft, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.guard(tt.user, tt.asset)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	assert.ErrorIs(t, RequireAdmin(nil), ErrUnauthenticated)
	assert.ErrorIs(t, RequireAdmin(&models.User{Role: models.RoleEmployee}), ErrForbidden)
	assert.NoError(t, RequireAdmin(&models.User{Role: models.RoleAdmin}))
}
