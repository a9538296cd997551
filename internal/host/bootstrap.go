package host

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Module is a named group of registrations contributed by a collaborator.
type Module struct {
	Name     string
	Register func(*Registry) error
}

// Bootstrap runs every module against reg in order and seals the registry.
// All module failures are collected so a misconfigured build reports every
// conflict at once; any failure leaves the registry unsealed and must abort
// startup.
func Bootstrap(reg *Registry, modules ...Module) error {
	var errs *multierror.Error
	for _, m := range modules {
		if m.Register == nil {
			continue
		}
		if err := m.Register(reg); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("module %s: %w", m.Name, err))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return err
	}
	reg.Seal()
	return nil
}

// Registrations collects registration errors for a module so it can register
// many capabilities and report all failures together.
type Registrations struct {
	reg  *Registry
	errs *multierror.Error
}

// NewRegistrations starts a registration batch against reg.
func NewRegistrations(reg *Registry) *Registrations {
	return &Registrations{reg: reg}
}

// Add registers one capability, recording any failure.
func (r *Registrations) Add(err error) {
	if err != nil {
		r.errs = multierror.Append(r.errs, err)
	}
}

// Registry returns the registry the batch writes to.
func (r *Registrations) Registry() *Registry { return r.reg }

// Err returns the combined failure, or nil.
func (r *Registrations) Err() error { return r.errs.ErrorOrNil() }
