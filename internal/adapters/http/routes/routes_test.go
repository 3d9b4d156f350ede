package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"einvoice-console/internal/adapters/backend"
	"einvoice-console/internal/adapters/http/middleware"
	"einvoice-console/internal/config"
	"einvoice-console/internal/core/authz"
	"einvoice-console/internal/core/domain"
	"einvoice-console/internal/core/services"
	"einvoice-console/internal/core/session"
	"einvoice-console/internal/pkg/events"
	"einvoice-console/internal/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const signalSecret = "signal-secret"

type memRegistry struct {
	mu   sync.Mutex
	byID map[string]string
}

func (r *memRegistry) Register(_ context.Context, sid, identity string, _ domain.Role, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[sid] = identity
	return nil
}

func (r *memRegistry) Revoke(_ context.Context, sid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byID, sid)
	return nil
}

func (r *memRegistry) RevokeIdentity(_ context.Context, identity string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var sids []string
	for sid, id := range r.byID {
		if id == identity {
			sids = append(sids, sid)
			delete(r.byID, sid)
		}
	}
	return sids, nil
}

func (r *memRegistry) Active(_ context.Context, sid string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byID[sid]
	return ok, nil
}

type memVault struct {
	mu     sync.Mutex
	stores map[string]*session.MemoryStore
}

func (v *memVault) For(sid string) session.Store {
	v.mu.Lock()
	defer v.mu.Unlock()
	if s, ok := v.stores[sid]; ok {
		return s
	}
	s := session.NewMemoryStore()
	v.stores[sid] = s
	return s
}

func (v *memVault) Purge(_ context.Context, sids ...string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, sid := range sids {
		delete(v.stores, sid)
	}
	return nil
}

func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/auth/login":
			var body struct{ Username string }
			_ = json.NewDecoder(r.Body).Decode(&body)
			token := "acc-" + body.Username
			role := "SALES"
			switch body.Username {
			case "ketoan01":
				role = "ACCOUNTANT"
			case "kiemtoan":
				role = "AUDITOR"
			}
			_, _ = io.WriteString(w, `{"accessToken":"`+token+`","refreshToken":"ref","user":{"username":"`+body.Username+`","fullName":"Test","role":"`+role+`"}}`)
		case "/auth/logout":
			w.WriteHeader(http.StatusNoContent)
		case "/invoices":
			if r.Header.Get("Authorization") == "Bearer acc-revoked" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = io.WriteString(w, `{"code":"token_invalidated"}`)
				return
			}
			_, _ = io.WriteString(w, `{"items":[{"id":"inv-1","statusCode":1,"invoiceNumber":"40","number":0},{"id":"inv-2","statusCode":3,"invoiceNumber":"41","number":42}],"total":2}`)
		case "/invoice-notifications":
			_, _ = io.WriteString(w, `{"items":[{"id":"n-1","notificationTypeCode":0}],"total":1}`)
		case "/public/invoices/lookup":
			_, _ = io.WriteString(w, `{"id":"inv-2","statusCode":4,"invoiceNumber":"41","number":42}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	lg := zap.NewNop().Sugar()
	cfg := &config.Config{
		AppMode: "dev",
		Cookie:  config.CookieConfig{SameSite: "Lax"},
		Session: config.SessionConfig{MaxAge: time.Hour},
		Signal:  config.SignalConfig{Secret: signalSecret},
	}

	policy, err := authz.NewPolicy("", "")
	require.NoError(t, err)

	bus := events.NewBus()
	mgr := session.NewManager(
		&memRegistry{byID: map[string]string{}},
		&memVault{stores: map[string]*session.MemoryStore{}},
		time.Hour, lg,
	)
	t.Cleanup(mgr.Listen(bus))

	app := fiber.New(fiber.Config{ErrorHandler: middleware.CustomErrorHandler})
	middleware.Setup(app, cfg, lg)
	Setup(app, &Dependencies{
		Config:      cfg,
		Backend:     backend.NewClient(fakeBackend(t).URL, 2*time.Second),
		Manager:     mgr,
		Gate:        authz.NewGate(policy, lg),
		Bus:         bus,
		Diagnostics: services.NewMappingDiagnostics(lg),
		Logger:      lg,
	})
	return app
}

// browser keeps cookies between requests like a real one would
type browser struct {
	t   *testing.T
	app *fiber.App
	jar map[string]string
}

func newBrowser(t *testing.T, app *fiber.App) *browser {
	return &browser{t: t, app: app, jar: map[string]string{}}
}

func (b *browser) do(method, path, body string) *http.Response {
	b.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for name, value := range b.jar {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	resp, err := b.app.Test(req, -1)
	require.NoError(b.t, err)

	for _, ck := range resp.Cookies() {
		expired := !ck.Expires.IsZero() && ck.Expires.Before(time.Now())
		if ck.MaxAge < 0 || expired || ck.Value == "" {
			delete(b.jar, ck.Name)
			continue
		}
		b.jar[ck.Name] = ck.Value
	}
	return resp
}

func (b *browser) login(username string) map[string]any {
	b.t.Helper()
	resp := b.do(http.MethodPost, "/api/v1/auth/login", `{"username":"`+username+`","password":"pw"}`)
	require.Equal(b.t, http.StatusOK, resp.StatusCode)
	return decode(b.t, resp)
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestScreen_NoSessionRedirectsToSignIn(t *testing.T) {
	b := newBrowser(t, newTestApp(t))

	resp := b.do(http.MethodGet, "/invoices", "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/sign-in?returnUrl=%2Finvoices", resp.Header.Get("Location"))
}

func TestLogin_LandsOnRoleDashboard(t *testing.T) {
	b := newBrowser(t, newTestApp(t))

	out := b.login("banhang02")
	data := out["data"].(map[string]any)
	assert.Equal(t, authz.SalesDashboard, data["redirect"])

	// sales may not open notifications: back to its own dashboard
	resp := b.do(http.MethodGet, "/notifications", "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, authz.SalesDashboard, resp.Header.Get("Location"))

	resp = b.do(http.MethodGet, "/invoices", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-store, no-cache, must-revalidate", resp.Header.Get("Cache-Control"))
}

func TestSignIn_LoggedInGoesToLanding(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	b.login("ketoan01")

	resp := b.do(http.MethodGet, "/sign-in", "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, authz.StaffDashboard, resp.Header.Get("Location"))
}

func TestInvoicesAPI_MapsBackendCodes(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	b.login("ketoan01")

	resp := b.do(http.MethodGet, "/api/v1/invoices?page=1&limit=10", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode(t, resp)
	page := out["data"].(map[string]any)
	items := page["data"].([]any)
	require.Len(t, items, 2)

	first := items[0].(map[string]any)
	assert.Equal(t, "00000040", first["reference"])
	assert.Equal(t, "Chưa cấp số", first["invoiceNumber"])
	assert.Equal(t, "Nháp", first["statusLabel"])

	second := items[1].(map[string]any)
	assert.Equal(t, "0000042", second["invoiceNumber"])

	meta := page["meta"].(map[string]any)
	assert.Equal(t, float64(2), meta["total"])
}

func TestNotificationsAPI_ForbiddenForSales(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	b.login("banhang02")

	resp := b.do(http.MethodGet, "/api/v1/notifications", "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPI_NoSession(t *testing.T) {
	b := newBrowser(t, newTestApp(t))

	resp := b.do(http.MethodGet, "/api/v1/invoices", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = b.do(http.MethodGet, "/api/v1/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogout_EndsSession(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	b.login("ketoan01")

	resp := b.do(http.MethodGet, "/api/v1/auth/me", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = b.do(http.MethodPost, "/api/v1/auth/logout", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = b.do(http.MethodGet, "/api/v1/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestForceLogoutSignal_EndsEveryBrowserOfIdentity(t *testing.T) {
	app := newTestApp(t)
	laptop, phone, other := newBrowser(t, app), newBrowser(t, app), newBrowser(t, app)
	laptop.login("ketoan01")
	phone.login("ketoan01")
	other.login("banhang02")

	token, err := jwt.GenerateSignal("ketoan01", "", "password_changed", signalSecret, time.Minute)
	require.NoError(t, err)

	hook := newBrowser(t, app)
	resp := hook.do(http.MethodPost, "/api/v1/events/force-logout", `{"token":"`+token+`"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	assert.Equal(t, http.StatusUnauthorized, laptop.do(http.MethodGet, "/api/v1/auth/me", "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, phone.do(http.MethodGet, "/api/v1/auth/me", "").StatusCode)
	assert.Equal(t, http.StatusOK, other.do(http.MethodGet, "/api/v1/auth/me", "").StatusCode)
}

func TestForceLogoutSignal_RejectsBadToken(t *testing.T) {
	b := newBrowser(t, newTestApp(t))

	token, err := jwt.GenerateSignal("ketoan01", "", "", "wrong-secret", time.Minute)
	require.NoError(t, err)

	resp := b.do(http.MethodPost, "/api/v1/events/force-logout", `{"token":"`+token+`"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = b.do(http.MethodPost, "/api/v1/events/force-logout", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBackendTokenInvalidated_LogsOut(t *testing.T) {
	b := newBrowser(t, newTestApp(t))
	b.login("revoked")

	resp := b.do(http.MethodGet, "/api/v1/invoices", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	out := decode(t, resp)
	assert.Equal(t, "token_invalidated", out["error"])

	resp = b.do(http.MethodGet, "/api/v1/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLookup_PublicAndCacheable(t *testing.T) {
	b := newBrowser(t, newTestApp(t))

	resp := b.do(http.MethodGet, "/api/v1/lookup?reference=41", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "public, max-age=30", resp.Header.Get("Cache-Control"))
	assert.Empty(t, resp.Cookies())

	out := decode(t, resp)
	data := out["data"].(map[string]any)
	assert.Equal(t, "CQT chấp nhận", data["statusLabel"])

	resp = b.do(http.MethodGet, "/api/v1/lookup", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNav_VisibleScreens(t *testing.T) {
	b := newBrowser(t, newTestApp(t))

	out := decode(t, b.do(http.MethodGet, "/api/v1/nav", ""))
	screens := out["data"].(map[string]any)["screens"].([]any)
	require.Len(t, screens, 1)
	assert.Equal(t, authz.LookupScreen, screens[0].(map[string]any)["path"])

	b.login("banhang02")
	out = decode(t, b.do(http.MethodGet, "/api/v1/nav", ""))
	screens = out["data"].(map[string]any)["screens"].([]any)
	var paths []string
	for _, s := range screens {
		paths = append(paths, s.(map[string]any)["path"].(string))
	}
	assert.Equal(t, []string{authz.SalesDashboard, authz.InvoicesScreen, authz.LookupScreen}, paths)
}

func TestScreen_UnrecognizedRoleNeverLoops(t *testing.T) {
	b := newBrowser(t, newTestApp(t))

	out := b.login("kiemtoan")
	assert.Equal(t, authz.AdminDashboard, out["data"].(map[string]any)["redirect"])

	resp := b.do(http.MethodGet, "/invoices", "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, authz.AdminDashboard, resp.Header.Get("Location"))

	resp = b.do(http.MethodGet, authz.AdminDashboard, "")
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, authz.LookupScreen, resp.Header.Get("Location"))

	resp = b.do(http.MethodGet, authz.LookupScreen, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
