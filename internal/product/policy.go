package product

import (
	"fmt"
	"slices"
	"strings"

	"github.com/rpattn/adminpanel/internal/auth"
	"github.com/rpattn/adminpanel/internal/domain"
)

var capabilities = []string{CapView, CapShow, CapEdit, CapDelete, CapBulkDelete, CapExport, CapAdd}

// StatusLock denies a capability on products whose status is one of locked.
// Subjects that are not products pass.
func StatusLock(locked ...string) auth.Policy {
	return func(_ auth.Principal, subject any) bool {
		var status string
		switch p := subject.(type) {
		case domain.Product:
			status = p.Status
		case *domain.Product:
			if p == nil {
				return true
			}
			status = p.Status
		default:
			return true
		}
		return !slices.Contains(locked, status)
	}
}

// DefineStatusLocks registers a StatusLock per capability on gate. Keys are
// matched case-insensitively since config loaders fold map keys.
func DefineStatusLocks(gate *auth.RoleGate, locks map[string][]string) error {
	for key, statuses := range locks {
		i := slices.IndexFunc(capabilities, func(c string) bool { return strings.EqualFold(c, key) })
		if i < 0 {
			return fmt.Errorf("status lock for unknown capability %q", key)
		}
		gate.Define(capabilities[i], StatusLock(statuses...))
	}
	return nil
}
