package scope

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"furgon/internal/directory/models"
	dErrors "furgon/pkg/domain-errors"
	"furgon/pkg/platform/sentinel"
)

func guardiansFor(institutions ...string) []models.Guardian {
	out := make([]models.Guardian, 0, len(institutions))
	for i, inst := range institutions {
		out = append(out, models.Guardian{
			Name:          string(rune('A' + i)),
			InstitutionID: inst,
		})
	}
	return out
}

func institutionsOf(recs []models.Guardian) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.InstitutionID)
	}
	return out
}

func TestVisible(t *testing.T) {
	recs := guardiansFor("a", "a", "b", "c")

	t.Run("super admin sees everything", func(t *testing.T) {
		got := Visible(Scope{IsSuperAdmin: true}, recs, "")
		assert.Len(t, got, 4)
	})
	t.Run("super admin narrows with a filter", func(t *testing.T) {
		got := Visible(Scope{IsSuperAdmin: true}, recs, "a")
		assert.Equal(t, []string{"a", "a"}, institutionsOf(got))
	})
	t.Run("restricted actor sees own institution only", func(t *testing.T) {
		got := Visible(Scope{InstitutionID: "b"}, recs, "")
		assert.Equal(t, []string{"b"}, institutionsOf(got))
	})
	t.Run("restricted actor filtering elsewhere sees nothing", func(t *testing.T) {
		assert.Nil(t, Visible(Scope{InstitutionID: "b"}, recs, "a"))
	})
	t.Run("restricted actor may state own filter explicitly", func(t *testing.T) {
		got := Visible(Scope{InstitutionID: "b"}, recs, "b")
		assert.Equal(t, []string{"b"}, institutionsOf(got))
	})
	t.Run("no institution means no visibility", func(t *testing.T) {
		assert.Nil(t, Visible(Scope{}, recs, ""))
	})
}

func TestCanMutate(t *testing.T) {
	assert.True(t, Scope{IsSuperAdmin: true}.CanMutate("anything"))
	assert.True(t, Scope{InstitutionID: "a"}.CanMutate("a"))
	assert.False(t, Scope{InstitutionID: "a"}.CanMutate("b"))
	assert.False(t, Scope{}.CanMutate(""))
}

type fakeAdminSource struct {
	rec models.Administrator
	err error
}

func (f fakeAdminSource) FindAdministratorByEmail(context.Context, string) (models.Administrator, error) {
	return f.rec, f.err
}

func TestResolve(t *testing.T) {
	t.Run("unknown actor", func(t *testing.T) {
		r := NewResolver(fakeAdminSource{err: sentinel.ErrNotFound})
		_, err := r.Resolve(context.Background(), "ghost@furgon.cl")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnknownActor))
	})

	t.Run("deleted actor is indistinguishable from unknown", func(t *testing.T) {
		r := NewResolver(fakeAdminSource{rec: models.Administrator{
			Email:  "gone@furgon.cl",
			Status: models.AdminStatusDeleted,
		}})
		_, err := r.Resolve(context.Background(), "gone@furgon.cl")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnknownActor))
	})

	t.Run("store outage surfaces as transient", func(t *testing.T) {
		r := NewResolver(fakeAdminSource{err: sentinel.ErrUnavailable})
		_, err := r.Resolve(context.Background(), "ana@furgon.cl")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTransient))
	})

	t.Run("inactive actor resolves but is not active", func(t *testing.T) {
		r := NewResolver(fakeAdminSource{rec: models.Administrator{
			Email:         "ana@furgon.cl",
			InstitutionID: "inst-1",
			Status:        models.AdminStatusInactive,
		}})
		sc, err := r.Resolve(context.Background(), "ana@furgon.cl")
		require.NoError(t, err)
		assert.False(t, sc.IsActive)
		assert.Equal(t, "inst-1", sc.InstitutionID)
	})

	t.Run("super administrator", func(t *testing.T) {
		r := NewResolver(fakeAdminSource{rec: models.Administrator{
			Email:        "root@furgon.cl",
			IsSuperAdmin: true,
			Status:       models.AdminStatusActive,
		}})
		sc, err := r.Resolve(context.Background(), "root@furgon.cl")
		require.NoError(t, err)
		assert.True(t, sc.IsSuperAdmin)
		assert.True(t, sc.IsActive)
		assert.Equal(t, "root@furgon.cl", sc.ActorEmail)
	})
}
