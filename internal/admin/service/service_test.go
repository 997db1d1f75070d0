package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"furgon/internal/directory/models"
	dirsvc "furgon/internal/directory/service"
	"furgon/internal/directory/store/memory"
	"furgon/internal/idp"
	"furgon/internal/scope"
	dErrors "furgon/pkg/domain-errors"
	"furgon/pkg/rut"
)

const (
	keyAna   = "12345678-5"
	keyBruno = "11111111-1"
)

func rutKey(raw string) rut.Key { return rut.Key(raw) }

type AdminLifecycleSuite struct {
	suite.Suite

	ctx      context.Context
	dir      *dirsvc.Service
	provider *idp.InMemoryProvider
	svc      *Service
	super    scope.Scope
	inst     models.Institution
}

func TestAdminLifecycleSuite(t *testing.T) {
	suite.Run(t, new(AdminLifecycleSuite))
}

func (s *AdminLifecycleSuite) SetupTest() {
	s.ctx = context.Background()
	s.dir = dirsvc.New(memory.New())
	s.provider = idp.NewInMemoryProvider()
	s.svc = New(s.dir, s.provider, scope.NewResolver(s.dir))
	s.super = scope.Scope{ActorEmail: "root@furgon.cl", IsSuperAdmin: true, IsActive: true}

	inst, err := s.dir.CreateInstitution(s.ctx, s.super, models.Institution{Name: "Colegio Andino"})
	s.Require().NoError(err)
	s.inst = inst
}

func (s *AdminLifecycleSuite) create(key, email, secret string) (models.Administrator, error) {
	return s.svc.CreateAccount(s.ctx, s.super, models.Administrator{
		RUT:           rutKey(key),
		Name:          "Admin",
		Email:         email,
		InstitutionID: s.inst.ID,
	}, secret)
}

func (s *AdminLifecycleSuite) TestCreateProvisionsAccountAndRecord() {
	a, err := s.create(keyAna, "ana@furgon.cl", "s3cret")
	s.Require().NoError(err)
	s.NotEmpty(a.AccountID)
	s.True(s.provider.HasAccount("ana@furgon.cl"))

	got, err := s.dir.GetAdministrator(s.ctx, s.super, keyAna)
	s.Require().NoError(err)
	s.Equal(a.AccountID, got.AccountID)
}

func (s *AdminLifecycleSuite) TestCreateReportsOrphanOnRecordFailure() {
	// Second create reuses the identity key, so the directory write fails
	// after the provider account was provisioned. The account is never
	// rolled back: the error names the orphan and the account stays put for
	// manual reconciliation.
	_, err := s.create(keyAna, "ana@furgon.cl", "s3cret")
	s.Require().NoError(err)

	_, err = s.create(keyAna, "otra@furgon.cl", "s3cret")
	s.True(dErrors.HasCode(err, dErrors.CodeOrphanedProviderAccount))
	s.True(dErrors.HasCode(err, dErrors.CodeDuplicateKey), "the underlying cause stays wrapped")
	s.Contains(err.Error(), "after provisioning account")
	s.True(s.provider.HasAccount("otra@furgon.cl"))
}

func (s *AdminLifecycleSuite) TestCreateDuplicateEmailAtProvider() {
	_, err := s.create(keyAna, "ana@furgon.cl", "s3cret")
	s.Require().NoError(err)

	_, err = s.create(keyBruno, "ana@furgon.cl", "s3cret")
	s.True(dErrors.HasCode(err, dErrors.CodeDuplicateKey))
}

func (s *AdminLifecycleSuite) TestSignIn() {
	_, err := s.create(keyAna, "ana@furgon.cl", "s3cret")
	s.Require().NoError(err)

	s.Run("valid credentials resolve a scope", func() {
		sc, err := s.svc.SignIn(s.ctx, "ana@furgon.cl", "s3cret")
		s.Require().NoError(err)
		s.Equal(s.inst.ID, sc.InstitutionID)
		s.True(sc.IsActive)
	})
	s.Run("wrong secret", func() {
		_, err := s.svc.SignIn(s.ctx, "ana@furgon.cl", "wrong")
		s.True(dErrors.HasCode(err, dErrors.CodeUnknownActor))
	})
	s.Run("unknown email", func() {
		_, err := s.svc.SignIn(s.ctx, "ghost@furgon.cl", "s3cret")
		s.True(dErrors.HasCode(err, dErrors.CodeUnknownActor))
	})
	s.Run("deactivated account", func() {
		_, err := s.svc.Deactivate(s.ctx, s.super, keyAna)
		s.Require().NoError(err)
		_, err = s.svc.SignIn(s.ctx, "ana@furgon.cl", "s3cret")
		s.True(dErrors.HasCode(err, dErrors.CodeAccountInactive))

		_, err = s.svc.Reactivate(s.ctx, s.super, keyAna)
		s.Require().NoError(err)
		_, err = s.svc.SignIn(s.ctx, "ana@furgon.cl", "s3cret")
		s.NoError(err)
	})
}

func (s *AdminLifecycleSuite) TestSoftDeleteRemovesProviderAccount() {
	_, err := s.create(keyAna, "ana@furgon.cl", "s3cret")
	s.Require().NoError(err)

	rec, err := s.svc.SoftDelete(s.ctx, s.super, keyAna)
	s.Require().NoError(err)
	s.True(rec.IsDeleted())
	s.False(s.provider.HasAccount("ana@furgon.cl"))

	// Deleted administrators sign in like unknown ones, even if a provider
	// account were somehow re-created.
	_, err = s.svc.SignIn(s.ctx, "ana@furgon.cl", "s3cret")
	s.True(dErrors.HasCode(err, dErrors.CodeUnknownActor))
}

func (s *AdminLifecycleSuite) TestChangeSecretRequiresCurrentSecret() {
	_, err := s.create(keyAna, "ana@furgon.cl", "s3cret")
	s.Require().NoError(err)

	err = s.svc.ChangeSecret(s.ctx, "ana@furgon.cl", "wrong", "n3w")
	s.True(dErrors.HasCode(err, dErrors.CodeUnknownActor))

	s.Require().NoError(s.svc.ChangeSecret(s.ctx, "ana@furgon.cl", "s3cret", "n3w"))

	_, err = s.svc.SignIn(s.ctx, "ana@furgon.cl", "s3cret")
	s.True(dErrors.HasCode(err, dErrors.CodeUnknownActor))
	_, err = s.svc.SignIn(s.ctx, "ana@furgon.cl", "n3w")
	s.NoError(err)
}
