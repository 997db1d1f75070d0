// Package models holds the directory entities: one tenant root (Institution)
// and the five record types that hang off it. Person entities are keyed by a
// validated identity key (pkg/rut); vehicles by license plate; institutions by
// a generated id.
package models

import (
	"time"

	dErrors "furgon/pkg/domain-errors"
	"furgon/pkg/rut"
)

// Record is what the generic directory operations need from every entity:
// its storage key, its owning institution, and its image reference (empty for
// entities that carry none).
type Record interface {
	Key() string
	InstitutionRef() string
	ImageRef() string
}

// Institution is the tenancy root. Every other record references exactly one
// institution; scope filtering and cascade checks hang off that reference.
type Institution struct {
	ID        string    `json:"id"`
	DisplayID int       `json:"display_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Manager   string    `json:"manager"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i Institution) Key() string { return i.ID }

// InstitutionRef returns the institution's own id so the shared scope filter
// treats it uniformly with the records it owns.
func (i Institution) InstitutionRef() string { return i.ID }
func (i Institution) ImageRef() string       { return "" }

// AdminStatus is the administrator account state machine.
//
// Transitions: active ↔ inactive; active|inactive → deleted. Deleted is
// terminal: soft-deleted administrators keep their record for the audit trail
// but can never authenticate or reappear in listings.
type AdminStatus string

const (
	AdminStatusActive   AdminStatus = "active"
	AdminStatusInactive AdminStatus = "inactive"
	AdminStatusDeleted  AdminStatus = "deleted"
)

// CanTransitionTo reports whether the transition is allowed.
func (s AdminStatus) CanTransitionTo(target AdminStatus) bool {
	if s == AdminStatusDeleted || s == target {
		return false
	}
	switch target {
	case AdminStatusActive, AdminStatusInactive, AdminStatusDeleted:
		return true
	}
	return false
}

// Administrator is a back-office account. Email is unique across the
// collection; AccountID links the record to its identity-provider account and
// is set once, never reassigned.
type Administrator struct {
	RUT           rut.Key     `json:"rut"`
	Name          string      `json:"name"`
	Surname       string      `json:"surname"`
	Email         string      `json:"email"`
	Phone         string      `json:"phone"`
	InstitutionID string      `json:"institution_id"`
	Role          string      `json:"role"`
	IsSuperAdmin  bool        `json:"is_super_admin"`
	Status        AdminStatus `json:"status"`
	AccountID     string      `json:"account_id"`
	DeletedAt     *time.Time  `json:"deleted_at,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func (a Administrator) Key() string            { return a.RUT.String() }
func (a Administrator) InstitutionRef() string { return a.InstitutionID }
func (a Administrator) ImageRef() string       { return "" }

func (a Administrator) IsActive() bool  { return a.Status == AdminStatusActive }
func (a Administrator) IsDeleted() bool { return a.Status == AdminStatusDeleted }

// CanDeactivate checks the active → inactive transition.
func (a *Administrator) CanDeactivate() error {
	if !a.Status.CanTransitionTo(AdminStatusInactive) {
		return dErrors.Newf(dErrors.CodeInvalidInput, "administrator %s cannot be deactivated from state %q", a.RUT, a.Status)
	}
	return nil
}

// ApplyDeactivation transitions to inactive. Call CanDeactivate first.
func (a *Administrator) ApplyDeactivation(now time.Time) {
	a.Status = AdminStatusInactive
	a.UpdatedAt = now
}

// CanReactivate checks the inactive → active transition.
func (a *Administrator) CanReactivate() error {
	if !a.Status.CanTransitionTo(AdminStatusActive) {
		return dErrors.Newf(dErrors.CodeInvalidInput, "administrator %s cannot be reactivated from state %q", a.RUT, a.Status)
	}
	return nil
}

// ApplyReactivation transitions to active. Call CanReactivate first.
func (a *Administrator) ApplyReactivation(now time.Time) {
	a.Status = AdminStatusActive
	a.UpdatedAt = now
}

// CanSoftDelete checks the transition into the terminal deleted state.
func (a *Administrator) CanSoftDelete() error {
	if !a.Status.CanTransitionTo(AdminStatusDeleted) {
		return dErrors.Newf(dErrors.CodeInvalidInput, "administrator %s is already deleted", a.RUT)
	}
	return nil
}

// ApplySoftDelete transitions to deleted and stamps the deletion time.
func (a *Administrator) ApplySoftDelete(now time.Time) {
	a.Status = AdminStatusDeleted
	a.DeletedAt = &now
	a.UpdatedAt = now
}

// Guardian is the responsible adult a student belongs to.
type Guardian struct {
	RUT           rut.Key   `json:"rut"`
	Name          string    `json:"name"`
	Surname       string    `json:"surname"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	InstitutionID string    `json:"institution_id"`
	Image         string    `json:"image,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (g Guardian) Key() string            { return g.RUT.String() }
func (g Guardian) InstitutionRef() string { return g.InstitutionID }
func (g Guardian) ImageRef() string       { return g.Image }

// Student rides the transport. When GuardianRef is set the institution is
// derived from the guardian, not caller-supplied.
type Student struct {
	RUT           rut.Key   `json:"rut"`
	Name          string    `json:"name"`
	Surname       string    `json:"surname"`
	Age           int       `json:"age"`
	Course        string    `json:"course"`
	Address       string    `json:"address"`
	Gender        string    `json:"gender"`
	InstitutionID string    `json:"institution_id"`
	GuardianRef   string    `json:"guardian_ref,omitempty"`
	Image         string    `json:"image,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (s Student) Key() string            { return s.RUT.String() }
func (s Student) InstitutionRef() string { return s.InstitutionID }
func (s Student) ImageRef() string       { return s.Image }

// Driver operates a vehicle for one institution.
type Driver struct {
	RUT           rut.Key   `json:"rut"`
	Name          string    `json:"name"`
	Surname       string    `json:"surname"`
	Age           int       `json:"age"`
	Address       string    `json:"address"`
	Email         string    `json:"email"`
	AdmissionDate time.Time `json:"admission_date"`
	InstitutionID string    `json:"institution_id"`
	VehicleRef    string    `json:"vehicle_ref,omitempty"`
	Image         string    `json:"image,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (d Driver) Key() string            { return d.RUT.String() }
func (d Driver) InstitutionRef() string { return d.InstitutionID }
func (d Driver) ImageRef() string       { return d.Image }

// Vehicle is keyed by its license plate.
type Vehicle struct {
	Plate         string    `json:"plate"`
	InstitutionID string    `json:"institution_id"`
	DriverRef     string    `json:"driver_ref,omitempty"`
	Model         string    `json:"model"`
	Image         string    `json:"image,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (v Vehicle) Key() string            { return v.Plate }
func (v Vehicle) InstitutionRef() string { return v.InstitutionID }
func (v Vehicle) ImageRef() string       { return v.Image }
