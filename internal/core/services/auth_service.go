package services

import (
	"context"
	"strings"

	"einvoice-console/internal/core/authz"
	"einvoice-console/internal/core/domain"
	"einvoice-console/internal/core/session"

	"go.uber.org/zap"
)

// AuthService handles operator sign-in and sign-out
type AuthService struct {
	auth Authenticator
	gate *authz.Gate
	lg   *zap.SugaredLogger
}

// NewAuthService creates a new auth service
func NewAuthService(auth Authenticator, gate *authz.Gate, lg *zap.SugaredLogger) *AuthService {
	return &AuthService{auth: auth, gate: gate, lg: lg}
}

// LoginInput represents login input
type LoginInput struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	ReturnURL string `json:"returnUrl"`
}

// UserView is the operator as shown by the console
type UserView struct {
	Identity    string      `json:"identity"`
	DisplayName string      `json:"displayName"`
	Role        domain.Role `json:"role"`
	RoleLabel   string      `json:"roleLabel"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User     UserView `json:"user"`
	Redirect string   `json:"redirect"`
}

// NewUserView builds the display form of a session
func NewUserView(s *session.Session) UserView {
	return UserView{
		Identity:    s.Identity,
		DisplayName: s.DisplayName,
		Role:        s.Role,
		RoleLabel:   s.Role.Label(),
	}
}

// Login authenticates against the backend and logs model in as browser
// session sid
func (s *AuthService) Login(ctx context.Context, model *session.Model, sid string, input *LoginInput) (*AuthResponse, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, domain.ErrInvalidInput
	}

	principal, err := s.auth.Login(ctx, username, input.Password)
	if err != nil {
		return nil, err
	}

	role, ok := domain.ParseRole(principal.Role)
	if !ok {
		s.lg.Warnw("backend returned an unrecognized role", "identity", principal.Identity, "role", principal.Role)
	}

	sess := session.Session{
		ID:           sid,
		Identity:     principal.Identity,
		DisplayName:  principal.DisplayName,
		Role:         role,
		AccessToken:  principal.AccessToken,
		RefreshToken: principal.RefreshToken,
	}
	if err := model.Login(ctx, sess); err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:     NewUserView(&sess),
		Redirect: s.Destination(&sess, input.ReturnURL),
	}, nil
}

// Logout ends the session of model
func (s *AuthService) Logout(ctx context.Context, model *session.Model) error {
	return model.Logout(ctx)
}

// Destination is where a freshly signed-in session goes: returnURL when it
// is a local screen the session may see, otherwise its landing screen.
func (s *AuthService) Destination(sess *session.Session, returnURL string) string {
	if isLocalPath(returnURL) {
		path := returnURL
		if i := strings.IndexAny(path, "?#"); i >= 0 {
			path = path[:i]
		}
		if path == authz.SignInPath {
			return s.gate.Landing(sess.Role)
		}
		if authz.IsPublic(path) || s.gate.Decide(s.gate.RequiredRoles(path), sess, path).Allow {
			return returnURL
		}
	}
	return s.gate.Landing(sess.Role)
}

// isLocalPath rejects absolute and protocol-relative URLs
func isLocalPath(p string) bool {
	return strings.HasPrefix(p, "/") && !strings.HasPrefix(p, "//") && !strings.Contains(p, `\`)
}
