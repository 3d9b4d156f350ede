package authz

import (
	_ "embed"
	"strings"

	"einvoice-console/internal/core/domain"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
)

//go:embed policy/model.conf
var defaultModel string

//go:embed policy/policy.csv
var defaultPolicy string

const actionView = "view"

// Policy answers which roles may view a screen path
type Policy struct {
	enforcer *casbin.Enforcer
}

// NewPolicy loads the screen policy from files, or from the embedded
// defaults when both paths are empty.
func NewPolicy(modelPath, policyPath string) (*Policy, error) {
	if modelPath == "" && policyPath == "" {
		return NewPolicyFromText(defaultModel, defaultPolicy)
	}

	enforcer, err := casbin.NewEnforcer(modelPath)
	if err != nil {
		return nil, err
	}
	enforcer.SetAdapter(fileadapter.NewAdapter(policyPath))
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	return &Policy{enforcer: enforcer}, nil
}

// NewPolicyFromText builds a policy from in-memory model and policy text
func NewPolicyFromText(modelText, policyText string) (*Policy, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewEnforcer(m, stringadapter.NewAdapter(strings.TrimSpace(policyText)))
	if err != nil {
		return nil, err
	}
	return &Policy{enforcer: enforcer}, nil
}

// SubjectFromRole converts a role into a policy subject
func SubjectFromRole(role domain.Role) string {
	slug := strings.TrimSpace(role.Slug())
	if slug == "" {
		slug = "anonymous"
	}
	return "role:" + slug
}

// Allows reports whether role may view path
func (p *Policy) Allows(role domain.Role, path string) (bool, error) {
	return p.enforcer.Enforce(SubjectFromRole(role), path, actionView)
}

// RequiredRoles returns every role allowed to view path.
// An empty set means no role may view it.
func (p *Policy) RequiredRoles(path string) (RoleSet, error) {
	set := RoleSet{}
	for _, r := range domain.AllRoles {
		ok, err := p.Allows(r, path)
		if err != nil {
			return nil, err
		}
		if ok {
			set[r] = struct{}{}
		}
	}
	return set, nil
}
