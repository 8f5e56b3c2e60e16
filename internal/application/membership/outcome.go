package membership

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Side effect names reported in Outcome.FailedSideEffects.
const (
	SideEffectStatus  = "status"
	SideEffectPayLink = "pay_link"
	SideEffectRollup  = "rollup"
	SideEffectEvent   = "event"
)

// Outcome reports how a mutating operation went.  PrimaryOK is true whenever
// the operation returns without error; secondary writes that failed after the
// primary write landed are listed instead of aborting the call.
type Outcome struct {
	PrimaryOK         bool     `json:"primary_ok"`
	SideEffectOK      bool     `json:"side_effect_ok"`
	SideEffectError   string   `json:"side_effect_error,omitempty"`
	FailedSideEffects []string `json:"failed_side_effects,omitempty"`

	errs *multierror.Error
}

func newOutcome() *Outcome {
	return &Outcome{PrimaryOK: true, SideEffectOK: true}
}

// record notes a side-effect failure; nil errors are ignored.
func (o *Outcome) record(name string, err error) {
	if err == nil {
		return
	}
	o.SideEffectOK = false
	o.FailedSideEffects = append(o.FailedSideEffects, name)
	o.errs = multierror.Append(o.errs, fmt.Errorf("%s: %w", name, err))
	o.errs.ErrorFormat = joinErrors
	o.SideEffectError = o.errs.Error()
}

// Degraded reports whether any side effect failed.
func (o *Outcome) Degraded() bool {
	return o != nil && !o.SideEffectOK
}

// Err returns the aggregated side-effect error, or nil.
func (o *Outcome) Err() error {
	if o == nil {
		return nil
	}
	return o.errs.ErrorOrNil()
}

// Failed reports whether the named side effect failed.
func (o *Outcome) Failed(name string) bool {
	if o == nil {
		return false
	}
	for _, n := range o.FailedSideEffects {
		if n == name {
			return true
		}
	}
	return false
}

func joinErrors(errs []error) string {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

//Personal.AI order the ending
