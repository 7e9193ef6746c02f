package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrForbidden is returned when the gate denies a capability that guards a whole surface.
var ErrForbidden = errors.New("forbidden")

// Gate answers whether the current principal holds a capability.
type Gate interface {
	Allows(ctx context.Context, capability string, subject ...any) bool
}

// Capability builds the "<action>-<entity>" capability name.
func Capability(action, entity string) string {
	return action + "-" + entity
}

// Policy refines a subject-specific check after the role check passed.
type Policy func(p Principal, subject any) bool

// RoleGate grants capabilities through role membership.
// A role may grant "*" (everything) or "<action>-*" (one action on every entity).
type RoleGate struct {
	roles map[string]map[string]struct{}

	mu       sync.RWMutex
	policies map[string]Policy
}

// NewRoleGate builds a gate from a role → capabilities mapping.
func NewRoleGate(roles map[string][]string) *RoleGate {
	g := &RoleGate{
		roles:    make(map[string]map[string]struct{}, len(roles)),
		policies: map[string]Policy{},
	}
	for role, caps := range roles {
		set := make(map[string]struct{}, len(caps))
		for _, c := range caps {
			if c = strings.TrimSpace(c); c != "" {
				set[c] = struct{}{}
			}
		}
		g.roles[strings.TrimSpace(role)] = set
	}
	return g
}

// Define registers a subject policy for capability.
func (g *RoleGate) Define(capability string, policy Policy) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.policies[capability] = policy
}

// Allows implements Gate.
func (g *RoleGate) Allows(ctx context.Context, capability string, subject ...any) bool {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return false
	}
	if !g.granted(p, capability) {
		return false
	}
	if len(subject) == 0 {
		return true
	}
	g.mu.RLock()
	policy := g.policies[capability]
	g.mu.RUnlock()
	if policy == nil {
		return true
	}
	return policy(p, subject[0])
}

func (g *RoleGate) granted(p Principal, capability string) bool {
	wildcard := ""
	if action, _, found := strings.Cut(capability, "-"); found {
		wildcard = action + "-*"
	}
	for _, role := range p.Roles {
		caps, ok := g.roles[role]
		if !ok {
			continue
		}
		if _, ok := caps["*"]; ok {
			return true
		}
		if _, ok := caps[capability]; ok {
			return true
		}
		if wildcard != "" {
			if _, ok := caps[wildcard]; ok {
				return true
			}
		}
	}
	return false
}

// Authorize is the error-returning form of Allows.
func Authorize(ctx context.Context, gate Gate, capability string, subject ...any) error {
	if gate.Allows(ctx, capability, subject...) {
		return nil
	}
	return ErrForbidden
}
