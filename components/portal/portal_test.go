package portal

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mosaic-cms/mosaic/internal/assistant"
	"github.com/mosaic-cms/mosaic/internal/config"
	"github.com/mosaic-cms/mosaic/internal/entity"
	"github.com/mosaic-cms/mosaic/internal/form"
	"github.com/mosaic-cms/mosaic/internal/identity"
	"github.com/mosaic-cms/mosaic/internal/site"
	"github.com/mosaic-cms/mosaic/internal/tenant"
	"github.com/mosaic-cms/mosaic/internal/theme"
	"github.com/mosaic-cms/mosaic/internal/view"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

// newTestComponent wires a Component against a mock pool.  The empty
// assistant config selects mock mode, so no model client is dialed.
func newTestComponent(t *testing.T) (*Component, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newMockDB(t)
	log := zap.NewNop().Sugar()

	chat, err := assistant.NewService(context.Background(), db, log, config.Assistant{})
	if err != nil {
		t.Fatalf("assistant service: %v", err)
	}

	c := New(db, log,
		identity.NewService(db, log, 5, 15*time.Minute),
		identity.NewTokenIssuer("portal-test-secret", 15*time.Minute),
		chat)
	return c, mock
}

// testTenant builds a request-scoped tenant by hand.  Its path cache is
// nil, which the API handlers never touch; render tests load a real
// tenant through the cache instead.
func testTenant() *tenant.Tenant {
	return &tenant.Tenant{
		Site: site.Record{
			Base:         entity.Base{ID: 7},
			Host:         "acme.example",
			Name:         "Acme",
			URLSlug:      "acme",
			Title:        "Acme Corp",
			Locale:       "en-US",
			RouteVersion: 1,
		},
		Config: map[string]string{"site.tagline": "Build on Acme"},
		Theme:  &theme.Set{Name: "base"},
	}
}

func withTenant(r *http.Request, ten *tenant.Tenant) *http.Request {
	return r.WithContext(tenant.WithTenant(r.Context(), ten))
}

// loadContactForm registers the contact definition from a throwaway
// content root, mirroring the shipped YAML.
func loadContactForm(t *testing.T) {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "components", "portal", "forms")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	const contactYAML = `id: portal/contact
fields:
  - name: name
    label: Your name
    type: text
    required: true
    maxlength: 100
  - name: email
    label: Email address
    type: email
    required: true
  - name: subject
    label: Subject
    type: select
    required: true
    options: [general, sales, support]
  - name: body
    label: Message
    type: textarea
    required: true
    minlength: 10
    error: The message needs at least 10 characters.
`
	if err := os.WriteFile(filepath.Join(dir, "contact.yaml"), []byte(contactYAML), 0o644); err != nil {
		t.Fatalf("write form: %v", err)
	}
	if err := form.Load(root); err != nil {
		t.Fatalf("form load: %v", err)
	}
}

var pageColNames = []string{
	"id", "site_id", "master_page_id", "title", "slug", "path", "body_html",
	"meta_description", "show_in_navigation", "is_published", "sort_order",
	"deleted_at", "created_at", "updated_at",
}

func pageRow(id int64, master any, title, path, body string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(pageColNames).
		AddRow(id, int64(7), master, title, strings.TrimPrefix(path, "/"), path,
			body, "", true, true, 0, nil, now, now)
}

var userColNames = []string{
	"id", "email", "username", "password_hash", "display_name", "security_stamp",
	"access_failed_count", "lockout_until", "deleted_at", "created_at", "updated_at",
}

func TestAPISiteReturnsInfoAndNav(t *testing.T) {
	c, mock := newTestComponent(t)

	mock.ExpectQuery(`(?s)SELECT.+FROM\s+pages.+show_in_navigation = 1`).
		WithArgs(int64(7)).
		WillReturnRows(pageRow(21, nil, "About", "/about", ""))

	w := httptest.NewRecorder()
	c.apiSite(w, withTenant(httptest.NewRequest(http.MethodGet, "/api/site", nil), testTenant()))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var got siteInfo
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != "Acme" || got.Host != "acme.example" || got.Tagline != "Build on Acme" {
		t.Fatalf("site info = %+v", got)
	}
	if len(got.Nav) != 1 || got.Nav[0].Path != "/about" || got.Nav[0].Title != "About" {
		t.Fatalf("nav = %+v", got.Nav)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAPIPageComposesMasterChain(t *testing.T) {
	c, mock := newTestComponent(t)

	mock.ExpectQuery(`(?s)SELECT.+FROM\s+pages\s+WHERE\s+site_id = \?\s+AND\s+path = \?`).
		WithArgs(int64(7), "/about").
		WillReturnRows(pageRow(21, int64(11), "About", "/about", "<h1>About us</h1>"))
	mock.ExpectQuery(`(?s)SELECT.+FROM\s+pages\s+WHERE\s+id = \?`).
		WithArgs(int64(11)).
		WillReturnRows(pageRow(11, nil, "Shell", "/_shell", "<main>"+view.ContentMarker+"</main>"))

	w := httptest.NewRecorder()
	c.apiPage(w, withTenant(httptest.NewRequest(http.MethodGet, "/api/pages?path=/about", nil), testTenant()))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var got pageBody
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Body != "<main><h1>About us</h1></main>" {
		t.Fatalf("composed body = %q", got.Body)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAPIPageUnknownPathIs404(t *testing.T) {
	c, mock := newTestComponent(t)

	mock.ExpectQuery(`(?s)SELECT.+FROM\s+pages\s+WHERE\s+site_id = \?\s+AND\s+path = \?`).
		WithArgs(int64(7), "/ghost").
		WillReturnError(sql.ErrNoRows)

	w := httptest.NewRecorder()
	c.apiPage(w, withTenant(httptest.NewRequest(http.MethodGet, "/api/pages?path=/ghost", nil), testTenant()))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAPILoginIssuesVerifiableToken(t *testing.T) {
	c, mock := newTestComponent(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	now := time.Now()
	mock.ExpectQuery(`(?s)SELECT.+FROM\s+users\s+WHERE.+email = \? OR username = \?`).
		WithArgs("ada@acme.test", "ada@acme.test").
		WillReturnRows(sqlmock.NewRows(userColNames).
			AddRow(4, "ada@acme.test", "ada", string(hash), "Ada", "stamp-1",
				0, nil, nil, now, now))
	mock.ExpectQuery(`(?s)SELECT r\.name\s+FROM\s+roles r`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("member"))

	body := strings.NewReader(`{"login": "ada@acme.test", "password": "s3cret-pass"}`)
	w := httptest.NewRecorder()
	c.apiLogin(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", body))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var got struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := c.tokens.Verify(got.Token)
	if err != nil {
		t.Fatalf("verify issued token: %v", err)
	}
	if claims.UserID != 4 || len(claims.Roles) != 1 || claims.Roles[0] != "member" {
		t.Fatalf("claims = %+v", claims)
	}
	if out := w.Body.String(); strings.Contains(out, "hash") || strings.Contains(out, "stamp") {
		t.Fatalf("secret material leaked: %s", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAPILoginRejectsWrongPassword(t *testing.T) {
	c, mock := newTestComponent(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("right-horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	now := time.Now()
	mock.ExpectQuery(`(?s)SELECT.+FROM\s+users\s+WHERE.+email = \? OR username = \?`).
		WithArgs("ada", "ada").
		WillReturnRows(sqlmock.NewRows(userColNames).
			AddRow(4, "ada@acme.test", "ada", string(hash), "Ada", "stamp-1",
				0, nil, nil, now, now))
	mock.ExpectExec(`UPDATE users SET access_failed_count = access_failed_count \+ 1`).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT access_failed_count FROM users WHERE id = \?`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"access_failed_count"}).AddRow(1))

	body := strings.NewReader(`{"login": "ada", "password": "wrong-horse"}`)
	w := httptest.NewRecorder()
	c.apiLogin(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", body))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "incorrect username or password") {
		t.Fatalf("body = %s", w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAPIMeReturnsFreshProfile(t *testing.T) {
	c, mock := newTestComponent(t)

	tok, err := c.tokens.Issue(
		&identity.User{Base: entity.Base{ID: 4}, Email: "ada@acme.test"},
		[]string{"member"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	now := time.Now()
	mock.ExpectQuery(`(?s)SELECT.+FROM\s+users\s+WHERE\s+id = \?`).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows(userColNames).
			AddRow(4, "ada@acme.test", "ada", "hash-value", "Ada", "stamp-1",
				0, nil, nil, now, now))

	req := withTenant(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), testTenant())
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	c.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var got struct {
		ID          int64    `json:"id"`
		DisplayName string   `json:"display_name"`
		Roles       []string `json:"roles"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != 4 || got.DisplayName != "Ada" {
		t.Fatalf("profile = %+v", got)
	}
	if len(got.Roles) != 1 || got.Roles[0] != "member" {
		t.Fatalf("roles = %v", got.Roles)
	}
	if strings.Contains(w.Body.String(), "hash") || strings.Contains(w.Body.String(), "stamp") {
		t.Fatalf("response leaks secrets: %s", w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAPIMeWithoutTokenIs401(t *testing.T) {
	c, _ := newTestComponent(t)

	req := withTenant(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), testTenant())
	w := httptest.NewRecorder()
	c.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "missing bearer token") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestAPIMeForDeletedUserIs401(t *testing.T) {
	c, mock := newTestComponent(t)

	tok, err := c.tokens.Issue(
		&identity.User{Base: entity.Base{ID: 4}, Email: "ada@acme.test"}, nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	mock.ExpectQuery(`(?s)SELECT.+FROM\s+users\s+WHERE\s+id = \?`).
		WithArgs(int64(4)).
		WillReturnError(sql.ErrNoRows)

	req := withTenant(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil), testTenant())
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	c.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "account no longer active") {
		t.Fatalf("body = %s", w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAPIContactStoresMessage(t *testing.T) {
	c, mock := newTestComponent(t)
	loadContactForm(t)

	mock.ExpectExec(`INSERT INTO messages`).
		WithArgs(int64(7), "Ada Lovelace", "ada@acme.test", "general",
			"Please call me back soon.").
		WillReturnResult(sqlmock.NewResult(3, 1))

	vals := url.Values{
		"name":    {"Ada Lovelace"},
		"email":   {"Ada@acme.test"},
		"subject": {"general"},
		"body":    {"Please call me back soon."},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	c.apiContact(w, withTenant(req, testTenant()))

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"id":3`) {
		t.Fatalf("body = %s", w.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAPIContactRejectsShortMessage(t *testing.T) {
	c, _ := newTestComponent(t)
	loadContactForm(t)

	vals := url.Values{
		"name":    {"Ada"},
		"email":   {"ada@acme.test"},
		"subject": {"general"},
		"body":    {"too short"},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	c.apiContact(w, withTenant(req, testTenant()))

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "at least 10 characters") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestAPIChatAnswersFromMockWithoutKey(t *testing.T) {
	c, mock := newTestComponent(t)

	mock.ExpectQuery(`(?s)SELECT title, path, meta_description, body_html\s+FROM\s+pages`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"title", "path", "meta_description", "body_html"}).
			AddRow("About", "/about", "Who we are", "<p>We build portals.</p>"))
	mock.ExpectQuery(`(?s)SELECT.+FROM\s+training_data\s+WHERE\s+site_id = \?`).
		WithArgs(int64(7), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "site_id", "category", "content", "source", "priority",
			"is_active", "created_at", "updated_at",
		}))

	body := strings.NewReader(`{"message": "hello", "history": [{"role": "user", "content": "hi"}]}`)
	w := httptest.NewRecorder()
	c.apiChat(w, withTenant(httptest.NewRequest(http.MethodPost, "/api/assistant/chat", body), testTenant()))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var got assistant.Reply
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Source != assistant.SourceMock {
		t.Fatalf("source = %q", got.Source)
	}
	if !strings.Contains(got.Message, "demo mode") {
		t.Fatalf("message = %q", got.Message)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestAPIChatRejectsEmptyMessage(t *testing.T) {
	c, _ := newTestComponent(t)

	body := strings.NewReader(`{"message": "   "}`)
	w := httptest.NewRecorder()
	c.apiChat(w, withTenant(httptest.NewRequest(http.MethodPost, "/api/assistant/chat", body), testTenant()))

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Message is required") {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestAssistantConfigFallsBackToDefaults(t *testing.T) {
	c, _ := newTestComponent(t)

	w := httptest.NewRecorder()
	c.apiAssistantConfig(w, withTenant(httptest.NewRequest(http.MethodGet, "/api/assistant/config", nil), testTenant()))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var got struct {
		Name    string `json:"name"`
		Welcome string `json:"welcomeMessage"`
		Live    bool   `json:"live"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != "Assistant" || got.Live {
		t.Fatalf("config = %+v", got)
	}

	ten := testTenant()
	ten.Config["assistant.name"] = "Acme Guide"
	ten.Config["assistant.welcome"] = "Hi, ask me anything."
	w = httptest.NewRecorder()
	c.apiAssistantConfig(w, withTenant(httptest.NewRequest(http.MethodGet, "/api/assistant/config", nil), ten))

	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Name != "Acme Guide" || got.Welcome != "Hi, ask me anything." {
		t.Fatalf("config = %+v", got)
	}
}

var siteColNames = []string{
	"id", "host", "name", "url_slug", "admin_email", "title", "locale",
	"theme_id", "route_version", "suspended_at", "deleted_at", "created_at",
	"updated_at",
}

var themeColNames = []string{
	"id", "name", "display_name", "description", "version", "is_default",
	"created_at", "updated_at",
}

// renderTenant parses a theme fixture from disk and loads a tenant
// through the cache, the same road a live request takes.
func renderTenant(t *testing.T, c *Component, mock sqlmock.Sqlmock) *tenant.Tenant {
	t.Helper()
	log := zap.NewNop().Sugar()
	root := t.TempDir()
	tplDir := filepath.Join(root, "themes", "base", "templates")
	if err := os.MkdirAll(tplDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	const layout = `<!doctype html>
<html>
<head>{{ .Head.Title }}{{ .Head.Metas }}{{ .Head.Links }}</head>
<body>
<p class="tagline">{{ .Tagline }}</p>
<nav>{{ range .Nav }}<a href="{{ .Path }}">{{ .Title }}</a>{{ end }}</nav>
<main>{{ .Content }}</main>
</body>
</html>
`
	const notFound = `<!doctype html>
<html>
<head>{{ .Head.Title }}</head>
<body>nothing lives here</body>
</html>
`
	if err := os.WriteFile(filepath.Join(tplDir, "layout.html"), []byte(layout), 0o644); err != nil {
		t.Fatalf("write layout: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tplDir, "404.html"), []byte(notFound), 0o644); err != nil {
		t.Fatalf("write 404: %v", err)
	}

	themes := theme.NewManager(filepath.Join(root, "themes"), nil, log)
	tenants := tenant.New(c.db, themes, log, config.Tenant{})
	t.Cleanup(tenants.Close)

	now := time.Now()
	mock.ExpectQuery(`(?s)SELECT.+FROM\s+sites\s+WHERE\s+host = \?`).
		WithArgs("acme.example").
		WillReturnRows(sqlmock.NewRows(siteColNames).
			AddRow(7, "acme.example", "Acme", "acme", "ops@acme.test", "Acme Corp",
				"en-US", nil, 1, nil, nil, now, now))
	mock.ExpectQuery(`(?s)SELECT name, value\s+FROM\s+site_config`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"name", "value"}).
			AddRow("site.tagline", "Build on Acme"))
	mock.ExpectQuery(`(?s)SELECT.+FROM\s+themes\s+WHERE\s+is_default = 1`).
		WillReturnRows(sqlmock.NewRows(themeColNames).
			AddRow(1, "base", "Base", "", "1.0.0", true, now, now))

	ten, err := tenants.Get(context.Background(), "acme.example")
	if err != nil {
		t.Fatalf("tenant load: %v", err)
	}
	return ten
}

func TestPageRenderComposesThemeLayout(t *testing.T) {
	c, mock := newTestComponent(t)
	ten := renderTenant(t, c, mock)

	mock.ExpectQuery(`SELECT route_version FROM sites WHERE id = \?`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"route_version"}).AddRow(1))
	mock.ExpectQuery(`(?s)SELECT id, path\s+FROM\s+pages\s+WHERE\s+site_id = \?`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "path"}).AddRow(21, "/about"))
	mock.ExpectQuery(`(?s)SELECT.+FROM\s+pages\s+WHERE\s+id = \?`).
		WithArgs(int64(21)).
		WillReturnRows(pageRow(21, nil, "About", "/about", "<h1>Hello from About</h1>"))
	mock.ExpectQuery(`(?s)SELECT.+FROM\s+pages.+show_in_navigation = 1`).
		WithArgs(int64(7)).
		WillReturnRows(pageRow(21, nil, "About", "/about", ""))

	// Trailing slash exercises path normalization on the way in.
	req := withTenant(httptest.NewRequest(http.MethodGet, "/about/", nil), ten)
	w := httptest.NewRecorder()
	c.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	for _, want := range []string{
		"<title>About | Acme Corp</title>",
		"<h1>Hello from About</h1>",
		"Build on Acme",
		`<a href="/about">About</a>`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("rendered page missing %q:\n%s", want, body)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPageRenderUnknownPathUses404Template(t *testing.T) {
	c, mock := newTestComponent(t)
	ten := renderTenant(t, c, mock)

	mock.ExpectQuery(`SELECT route_version FROM sites WHERE id = \?`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"route_version"}).AddRow(1))
	mock.ExpectQuery(`(?s)SELECT id, path\s+FROM\s+pages\s+WHERE\s+site_id = \?`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "path"}))

	req := withTenant(httptest.NewRequest(http.MethodGet, "/ghost", nil), ten)
	w := httptest.NewRecorder()
	c.Routes().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "nothing lives here") {
		t.Fatalf("404 template not used:\n%s", body)
	}
	if !strings.Contains(body, "<title>Not found | Acme</title>") {
		t.Fatalf("404 title missing:\n%s", body)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCleanPath(t *testing.T) {
	cases := map[string]string{
		"":          "/",
		"/":         "/",
		"/about":    "/about",
		"/about/":   "/about",
		"//a//b":    "/a/b",
		"/a/../b":   "/b",
		"/a/./b/":   "/a/b",
		"/../admin": "/admin",
	}
	for in, want := range cases {
		if got := cleanPath(in); got != want {
			t.Errorf("cleanPath(%q) = %q, want %q", in, got, want)
		}
	}
}
