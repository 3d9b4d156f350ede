// Package authz decides which console screens a session may reach.
package authz

import (
	"net/url"

	"einvoice-console/internal/core/domain"
	"einvoice-console/internal/core/session"

	"go.uber.org/zap"
)

// Screen paths
const (
	SignInPath          = "/sign-in"
	ReturnURLParam      = "returnUrl"
	AdminDashboard      = "/admin/dashboard"
	HODDashboard        = "/hod/dashboard"
	StaffDashboard      = "/staff/dashboard"
	SalesDashboard      = "/sales/dashboard"
	LookupScreen        = "/lookup"
	InvoicesScreen      = "/invoices"
	NotificationsScreen = "/notifications"
)

// Redirect reasons
const (
	ReasonUnauthenticated = "unauthenticated"
	ReasonForbidden       = "forbidden"
)

// RoleSet is a set of roles. A nil RoleSet means "any authenticated session".
type RoleSet map[domain.Role]struct{}

// NewRoleSet creates a set holding roles
func NewRoleSet(roles ...domain.Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

// Contains reports whether r is in the set
func (s RoleSet) Contains(r domain.Role) bool {
	_, ok := s[r]
	return ok
}

// Decision is the outcome of a navigation check: render or go elsewhere
type Decision struct {
	Allow    bool   `json:"allow"`
	Redirect string `json:"redirect,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// Source supplies the current session snapshot
type Source interface {
	Snapshot() *session.Session
}

// Screen describes a navigable console screen
type Screen struct {
	Path   string `json:"path"`
	Title  string `json:"title"`
	Public bool   `json:"public,omitempty"`
}

// Screens lists every screen of the console in menu order
var Screens = []Screen{
	{Path: AdminDashboard, Title: "Tổng quan quản trị"},
	{Path: HODDashboard, Title: "Tổng quan trưởng phòng"},
	{Path: StaffDashboard, Title: "Tổng quan kế toán"},
	{Path: SalesDashboard, Title: "Tổng quan kinh doanh"},
	{Path: InvoicesScreen, Title: "Hóa đơn điện tử"},
	{Path: NotificationsScreen, Title: "Thông báo sai sót"},
	{Path: LookupScreen, Title: "Tra cứu hóa đơn", Public: true},
}

// LandingScreen returns the default screen of a known role.
// ok is false for roles outside the closed set.
func LandingScreen(role domain.Role) (path string, ok bool) {
	switch role {
	case domain.RoleAdmin:
		return AdminDashboard, true
	case domain.RoleHOD:
		return HODDashboard, true
	case domain.RoleAccountant:
		return StaffDashboard, true
	case domain.RoleSales:
		return SalesDashboard, true
	case domain.RoleCustomer:
		// customers only ever look invoices up
		return LookupScreen, true
	}
	return AdminDashboard, false
}

// Gate decides navigation for a session
type Gate struct {
	policy *Policy
	lg     *zap.SugaredLogger
}

// NewGate creates a gate. policy may be nil when only Decide is used.
func NewGate(policy *Policy, lg *zap.SugaredLogger) *Gate {
	if lg == nil {
		lg = zap.NewNop().Sugar()
	}
	return &Gate{policy: policy, lg: lg}
}

// Landing returns the landing screen of role. Unknown roles fall back to the
// admin dashboard with a warning.
// TODO: confirm the unknown-role fallback with the product owner; it widens
// rather than narrows the landing target.
func (g *Gate) Landing(role domain.Role) string {
	path, ok := LandingScreen(role)
	if !ok {
		g.lg.Warnw("unrecognized role, using fallback landing screen", "role", role, "landing", path)
	}
	return path
}

// SignInRedirect builds the sign-in URL that returns to requestedPath
func SignInRedirect(requestedPath string) string {
	if requestedPath == "" {
		return SignInPath
	}
	return SignInPath + "?" + url.Values{ReturnURLParam: {requestedPath}}.Encode()
}

// Decide applies the gate to a session snapshot:
//  1. no session: sign in, returning to requestedPath afterwards
//  2. role outside required: the role's own landing screen
//  3. otherwise allow
func (g *Gate) Decide(required RoleSet, sess *session.Session, requestedPath string) Decision {
	if sess == nil || sess.Identity == "" {
		return Decision{Redirect: SignInRedirect(requestedPath), Reason: ReasonUnauthenticated}
	}
	if required != nil && !required.Contains(sess.Role) {
		return Decision{Redirect: g.Landing(sess.Role), Reason: ReasonForbidden}
	}
	return Decision{Allow: true}
}

// Check reads a fresh snapshot from src and decides
func (g *Gate) Check(required RoleSet, src Source, requestedPath string) Decision {
	return g.Decide(required, src.Snapshot(), requestedPath)
}

// RequiredRoles resolves the role set of path from the policy.
// Public screens and a gate without policy return nil (any session).
func (g *Gate) RequiredRoles(path string) RoleSet {
	if g.policy == nil {
		return nil
	}
	set, err := g.policy.RequiredRoles(path)
	if err != nil {
		// an unreadable policy denies everyone rather than no one
		g.lg.Errorw("screen policy evaluation failed", "path", path, "error", err)
		return RoleSet{}
	}
	return set
}

// DecidePath is Check with the role set taken from the screen policy.
// Public screens are always allowed.
func (g *Gate) DecidePath(src Source, path string) Decision {
	if IsPublic(path) {
		return Decision{Allow: true}
	}
	return g.Check(g.RequiredRoles(path), src, path)
}

// Visible reports whether a role would be allowed onto path
func (g *Gate) Visible(role domain.Role, path string) bool {
	if IsPublic(path) {
		return true
	}
	required := g.RequiredRoles(path)
	return required == nil || required.Contains(role)
}

// Navigation lists the screens visible to role
func (g *Gate) Navigation(role domain.Role) []Screen {
	var out []Screen
	for _, s := range Screens {
		if g.Visible(role, s.Path) {
			out = append(out, s)
		}
	}
	return out
}

// IsPublic reports whether path needs no session
func IsPublic(path string) bool {
	if path == SignInPath {
		return true
	}
	for _, s := range Screens {
		if s.Path == path {
			return s.Public
		}
	}
	return false
}
