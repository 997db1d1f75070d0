package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"

	"furgon/internal/directory/models"
	"furgon/internal/directory/store/memory"
	"furgon/internal/scope"
	dErrors "furgon/pkg/domain-errors"
	"furgon/pkg/platform/sentinel"
)

type AdministratorSuite struct {
	suite.Suite

	ctx   context.Context
	svc   *Service
	super scope.Scope
	inst  models.Institution
}

func TestAdministratorSuite(t *testing.T) {
	suite.Run(t, new(AdministratorSuite))
}

func (s *AdministratorSuite) SetupTest() {
	s.ctx = context.Background()
	s.svc = New(memory.New())
	s.super = scope.Scope{ActorEmail: "root@furgon.cl", IsSuperAdmin: true, IsActive: true}

	inst, err := s.svc.CreateInstitution(s.ctx, s.super, models.Institution{Name: "Colegio Andino"})
	s.Require().NoError(err)
	s.inst = inst
}

func (s *AdministratorSuite) mustAdmin(key, email string) models.Administrator {
	a, err := s.svc.CreateAdministrator(s.ctx, s.super, models.Administrator{
		RUT:           modelsRUT(key),
		Name:          "Admin",
		Email:         email,
		InstitutionID: s.inst.ID,
	})
	s.Require().NoError(err)
	return a
}

func (s *AdministratorSuite) TestCreateDefaultsToActive() {
	a := s.mustAdmin(keyAna, "ana@furgon.cl")
	s.Equal(models.AdminStatusActive, a.Status)
	s.True(a.IsActive())
}

// A caller-supplied status on create is discarded: every administrator starts
// active and reaches any other state only through a transition.
func (s *AdministratorSuite) TestCreateIgnoresCallerStatus() {
	a, err := s.svc.CreateAdministrator(s.ctx, s.super, models.Administrator{
		RUT:           modelsRUT(keyAna),
		Name:          "Admin",
		Email:         "ana@furgon.cl",
		InstitutionID: s.inst.ID,
		Status:        models.AdminStatusDeleted,
	})
	s.Require().NoError(err)
	s.Equal(models.AdminStatusActive, a.Status)
	s.Nil(a.DeletedAt)

	got, err := s.svc.GetAdministrator(s.ctx, s.super, keyAna)
	s.Require().NoError(err)
	s.Equal(models.AdminStatusActive, got.Status)
	s.False(got.IsDeleted())
}

func (s *AdministratorSuite) TestEmailMustBeUnique() {
	s.mustAdmin(keyAna, "ana@furgon.cl")

	_, err := s.svc.CreateAdministrator(s.ctx, s.super, models.Administrator{
		RUT: modelsRUT(keyBruno), Name: "Bruno", Email: "ANA@furgon.cl", InstitutionID: s.inst.ID,
	})
	s.True(dErrors.HasCode(err, dErrors.CodeDuplicateKey))

	// The record itself can keep its own email through an update.
	_, err = s.svc.UpdateAdministrator(s.ctx, s.super, keyAna, map[string]any{"phone": "+56911111111"})
	s.NoError(err)
}

func (s *AdministratorSuite) TestSuperAdminHasNoInstitution() {
	a, err := s.svc.CreateAdministrator(s.ctx, s.super, models.Administrator{
		RUT:          modelsRUT(keyCarla),
		Name:         "Carla",
		Email:        "carla@furgon.cl",
		IsSuperAdmin: true,
		// Caller-supplied institution is discarded for super administrators.
		InstitutionID: s.inst.ID,
	})
	s.Require().NoError(err)
	s.Empty(a.InstitutionID)
}

func (s *AdministratorSuite) TestRegularAdminRequiresRealInstitution() {
	_, err := s.svc.CreateAdministrator(s.ctx, s.super, models.Administrator{
		RUT: modelsRUT(keyAna), Name: "Ana", Email: "ana@furgon.cl", InstitutionID: "nope",
	})
	s.True(dErrors.HasCode(err, dErrors.CodeDanglingReference))
}

func (s *AdministratorSuite) TestStatusCannotBePatched() {
	s.mustAdmin(keyAna, "ana@furgon.cl")
	for _, field := range []string{"status", "account_id", "deleted_at"} {
		_, err := s.svc.UpdateAdministrator(s.ctx, s.super, keyAna, map[string]any{field: "x"})
		s.Truef(dErrors.HasCode(err, dErrors.CodeInvalidInput), "field %s: got %v", field, err)
	}
}

func (s *AdministratorSuite) TestDeactivateReactivateCycle() {
	s.mustAdmin(keyAna, "ana@furgon.cl")

	a, err := s.svc.DeactivateAdministrator(s.ctx, s.super, keyAna)
	s.Require().NoError(err)
	s.Equal(models.AdminStatusInactive, a.Status)

	// Deactivating twice is not a transition.
	_, err = s.svc.DeactivateAdministrator(s.ctx, s.super, keyAna)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	a, err = s.svc.ReactivateAdministrator(s.ctx, s.super, keyAna)
	s.Require().NoError(err)
	s.True(a.IsActive())
}

func (s *AdministratorSuite) TestSoftDeleteIsTerminal() {
	s.mustAdmin(keyAna, "ana@furgon.cl")

	a, err := s.svc.SoftDeleteAdministrator(s.ctx, s.super, keyAna)
	s.Require().NoError(err)
	s.True(a.IsDeleted())
	s.Require().NotNil(a.DeletedAt)

	_, err = s.svc.ReactivateAdministrator(s.ctx, s.super, keyAna)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	_, err = s.svc.SoftDeleteAdministrator(s.ctx, s.super, keyAna)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *AdministratorSuite) TestListingExcludesDeletedAndInactive() {
	s.mustAdmin(keyAna, "ana@furgon.cl")
	s.mustAdmin(keyBruno, "bruno@furgon.cl")
	s.mustAdmin(keyDiego, "diego@furgon.cl")

	_, err := s.svc.DeactivateAdministrator(s.ctx, s.super, keyBruno)
	s.Require().NoError(err)
	_, err = s.svc.SoftDeleteAdministrator(s.ctx, s.super, keyDiego)
	s.Require().NoError(err)

	active, err := s.svc.ListAdministrators(s.ctx, s.super, "", false)
	s.Require().NoError(err)
	s.Require().Len(active, 1)
	s.Equal(keyAna, active[0].RUT.String())

	withInactive, err := s.svc.ListAdministrators(s.ctx, s.super, "", true)
	s.Require().NoError(err)
	s.Len(withInactive, 2)
}

func (s *AdministratorSuite) TestFindByEmailIncludesDeleted() {
	s.mustAdmin(keyAna, "ana@furgon.cl")
	_, err := s.svc.SoftDeleteAdministrator(s.ctx, s.super, keyAna)
	s.Require().NoError(err)

	a, err := s.svc.FindAdministratorByEmail(s.ctx, "ANA@Furgon.CL")
	s.Require().NoError(err)
	s.True(a.IsDeleted())

	_, err = s.svc.FindAdministratorByEmail(s.ctx, "nobody@furgon.cl")
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *AdministratorSuite) TestRestrictedActorCannotTouchForeignAdmin() {
	other, err := s.svc.CreateInstitution(s.ctx, s.super, models.Institution{Name: "Liceo Costero"})
	s.Require().NoError(err)
	s.mustAdmin(keyAna, "ana@furgon.cl")

	foreign := scope.Scope{ActorEmail: "staff@furgon.cl", InstitutionID: other.ID, IsActive: true}
	_, err = s.svc.DeactivateAdministrator(s.ctx, foreign, keyAna)
	s.True(dErrors.HasCode(err, dErrors.CodeScopeViolation))
}
