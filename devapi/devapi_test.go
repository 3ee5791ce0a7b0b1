package devapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/contract-desk/apiclient"
	"github.com/jrsteele09/contract-desk/auth"
	"github.com/jrsteele09/contract-desk/contracts"
	"github.com/jrsteele09/contract-desk/devapi"
	deskerrors "github.com/jrsteele09/contract-desk/internal/errors"
	"github.com/jrsteele09/contract-desk/internal/utils"
	"github.com/jrsteele09/contract-desk/localstore"
	fakesessionstore "github.com/jrsteele09/contract-desk/sessions/repofakes"
	"github.com/jrsteele09/contract-desk/token"
	"github.com/jrsteele09/contract-desk/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const (
	testSecret   = "devapi-test-secret"
	testEmail    = "agent@example.com"
	testPassword = "correct-horse"
	testName     = "김중개"
)

type testClock struct {
	lock sync.Mutex
	now  time.Time
}

func (c *testClock) Now() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
}

type testFixture struct {
	clock     *testClock
	backend   *devapi.Server
	server    *httptest.Server
	tokens    *token.Holder
	client    *apiclient.Client
	store     *fakesessionstore.FakeSessionStore
	manager   *auth.Manager
	contracts *contracts.Service
}

func setupTestFixture(t *testing.T, opts ...devapi.Option) *testFixture {
	t.Helper()
	clock := &testClock{now: time.Now()}
	opts = append([]devapi.Option{devapi.WithNowTime(clock.Now), devapi.WithAccessTTL(15 * time.Minute)}, opts...)
	backend, err := devapi.New([]byte(testSecret), opts...)
	require.NoError(t, err)
	server := httptest.NewServer(backend)
	t.Cleanup(server.Close)

	tokens := token.NewHolder()
	client, err := apiclient.New(server.URL+devapi.BasePath, tokens)
	require.NoError(t, err)
	store := fakesessionstore.NewFakeSessionStore()
	manager, err := auth.NewManager(client, tokens, store)
	require.NoError(t, err)
	svc, err := contracts.NewService(client)
	require.NoError(t, err)

	return &testFixture{
		clock:     clock,
		backend:   backend,
		server:    server,
		tokens:    tokens,
		client:    client,
		store:     store,
		manager:   manager,
		contracts: svc,
	}
}

func (f *testFixture) signupAndLogin(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	signup := f.manager.Signup(ctx, testEmail, testPassword, testName)
	require.True(t, signup.Success, signup.Error)
	login := f.manager.Login(ctx, testEmail, testPassword, true)
	require.True(t, login.Success, login.Error)
}

func (f *testFixture) post(t *testing.T, path string, body any, header http.Header, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, f.server.URL+path, bytes.NewReader(raw))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func cookieNamed(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func saleRequest() *contracts.CreateRequest {
	return &contracts.CreateRequest{
		Type:    contracts.TypeSale,
		Address: "서울특별시 강남구 테헤란로 1",
		Parties: []contracts.Party{
			{Role: contracts.RoleSeller, Name: "홍길동", Phone: "010-1234-5678"},
			{Role: contracts.RoleBuyer, Name: "김철수", Phone: "010-8765-4321"},
		},
		SalePrice:    utils.Ptr[int64](850000000),
		ContractDate: "2024-06-01",
		HandoverDate: "2024-08-31",
	}
}

func TestNew_RequiresSecret(t *testing.T) {
	_, err := devapi.New(nil)
	require.Error(t, err)
}

func TestRegister(t *testing.T) {
	f := setupTestFixture(t)

	resp := f.post(t, devapi.RouteRegister, map[string]string{"name": testName, "email": testEmail, "password": testPassword}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = f.post(t, devapi.RouteRegister, map[string]string{"name": testName, "email": strings.ToUpper(testEmail), "password": testPassword}, nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = f.post(t, devapi.RouteRegister, map[string]string{"email": "x@example.com"}, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogin_SetsRefreshCookies(t *testing.T) {
	f := setupTestFixture(t)
	f.post(t, devapi.RouteRegister, map[string]string{"name": testName, "email": testEmail, "password": testPassword}, nil)

	bad := f.post(t, devapi.RouteLogin, map[string]string{"email": testEmail, "password": "wrong-password"}, nil)
	require.Equal(t, http.StatusUnauthorized, bad.StatusCode)

	resp := f.post(t, devapi.RouteLogin, map[string]string{"email": testEmail, "password": testPassword}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID        int64  `json:"id"`
			Email     string `json:"email"`
			Role      string `json:"role"`
			CreatedAt string `json:"created_at"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.AccessToken)
	require.Equal(t, testEmail, body.User.Email)
	require.Equal(t, "agent", body.User.Role)
	_, err := time.Parse(users.TimestampLayout, body.User.CreatedAt)
	require.NoError(t, err, "created_at carries no zone")

	refresh := cookieNamed(resp, devapi.RefreshCookie)
	require.NotNil(t, refresh)
	require.True(t, refresh.HttpOnly)
	csrf := cookieNamed(resp, devapi.CSRFCookie)
	require.NotNil(t, csrf)
	require.False(t, csrf.HttpOnly)
}

func TestLogin_UnknownEmailLooksLikeWrongPassword(t *testing.T) {
	f := setupTestFixture(t)
	f.post(t, devapi.RouteRegister, map[string]string{"name": testName, "email": testEmail, "password": testPassword}, nil)

	for _, email := range []string{testEmail, "nobody@example.com"} {
		resp := f.post(t, devapi.RouteLogin, map[string]string{"email": email, "password": "wrong-password"}, nil)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, email)
		var body map[string]string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Equal(t, "Invalid credentials", body["message"], email)
	}
}

func (f *testFixture) meWithBearer(t *testing.T, raw string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, f.server.URL+devapi.RouteMe, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+raw)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	msg, _ := body["msg"].(string)
	return resp.StatusCode, msg
}

func TestMe_ExplainsRejectedTokens(t *testing.T) {
	f := setupTestFixture(t)
	f.signupAndLogin(t)
	raw := f.tokens.AccessToken()

	status, _ := f.meWithBearer(t, raw)
	require.Equal(t, http.StatusOK, status)

	status, msg := f.meWithBearer(t, "not-a-jwt")
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "Invalid token", msg)

	f.manager.Logout(context.Background(), nil)
	status, msg = f.meWithBearer(t, raw)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "Token has been revoked", msg)

	f.clock.Advance(20 * time.Minute)
	status, msg = f.meWithBearer(t, raw)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "Token has expired", msg)
}

func TestRefresh_RequiresMatchingCSRF(t *testing.T) {
	f := setupTestFixture(t)
	f.post(t, devapi.RouteRegister, map[string]string{"name": testName, "email": testEmail, "password": testPassword}, nil)
	login := f.post(t, devapi.RouteLogin, map[string]string{"email": testEmail, "password": testPassword}, nil)
	refresh := cookieNamed(login, devapi.RefreshCookie)
	csrf := cookieNamed(login, devapi.CSRFCookie)

	noCookie := f.post(t, devapi.RouteRefresh, nil, nil)
	require.Equal(t, http.StatusUnauthorized, noCookie.StatusCode)

	noHeader := f.post(t, devapi.RouteRefresh, nil, nil, refresh)
	require.Equal(t, http.StatusUnauthorized, noHeader.StatusCode)

	wrong := f.post(t, devapi.RouteRefresh, nil, http.Header{apiclient.CSRFHeader: {"nope"}}, refresh)
	require.Equal(t, http.StatusUnauthorized, wrong.StatusCode)

	ok := f.post(t, devapi.RouteRefresh, nil, http.Header{apiclient.CSRFHeader: {csrf.Value}}, refresh)
	require.Equal(t, http.StatusOK, ok.StatusCode)
}

func TestMe_RequiresAccessToken(t *testing.T) {
	f := setupTestFixture(t)
	var out map[string]any
	err := f.client.GetJSON(context.Background(), "/auth/me", &out)
	require.ErrorIs(t, err, apiclient.ErrAuth)
	require.Equal(t, http.StatusUnauthorized, apiclient.StatusCode(err))
	require.Equal(t, "Missing Authorization Header", apiclient.Message(err))
}

func TestEndToEnd_LoginAndRestore(t *testing.T) {
	f := setupTestFixture(t)
	f.signupAndLogin(t)
	require.Equal(t, auth.StateAuthenticated, f.manager.State())
	require.Equal(t, testName, f.manager.User().Name)

	// A second manager sharing the client restores through /auth/me.
	restored, err := auth.NewManager(f.client, f.tokens, f.store)
	require.NoError(t, err)
	require.Equal(t, auth.StateAuthenticated, restored.RestoreSession(context.Background()))
	require.Equal(t, testEmail, restored.User().Email)
}

// desk is one run of the desk process against a sqlite file on disk.
type desk struct {
	db      *localstore.DB
	tokens  *token.Holder
	manager *auth.Manager
}

func (f *testFixture) startDesk(t *testing.T, path string) *desk {
	t.Helper()
	db, err := localstore.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	jar, err := db.CookieJar()
	require.NoError(t, err)

	tokens := token.NewHolder()
	client, err := apiclient.New(f.server.URL+devapi.BasePath, tokens, apiclient.WithCookieJar(jar))
	require.NoError(t, err)
	manager, err := auth.NewManager(client, tokens, db.SessionStore())
	require.NoError(t, err)
	return &desk{db: db, tokens: tokens, manager: manager}
}

func TestEndToEnd_RestoreAfterRestart(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), localstore.FileName)

	first := f.startDesk(t, path)
	require.True(t, first.manager.Signup(ctx, testEmail, testPassword, testName).Success)
	require.True(t, first.manager.Login(ctx, testEmail, testPassword, true).Success)
	firstToken := first.tokens.AccessToken()
	require.NoError(t, first.db.Close())

	second := f.startDesk(t, path)
	require.False(t, second.tokens.Present())
	require.Equal(t, auth.StateAuthenticated, second.manager.RestoreSession(ctx))
	require.Equal(t, testEmail, second.manager.User().Email)
	secondToken := second.tokens.AccessToken()
	require.NotEmpty(t, secondToken)

	second.manager.Logout(ctx, nil)
	for _, raw := range []string{firstToken, secondToken} {
		status, _ := f.meWithBearer(t, raw)
		require.Equal(t, http.StatusUnauthorized, status, "logout revokes every issued token")
	}
	require.NoError(t, second.db.Close())

	third := f.startDesk(t, path)
	require.Equal(t, auth.StateAnonymous, third.manager.RestoreSession(ctx))
}

func TestEndToEnd_LogoutAfterRestartRevokesTokens(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), localstore.FileName)

	first := f.startDesk(t, path)
	require.True(t, first.manager.Signup(ctx, testEmail, testPassword, testName).Success)
	require.True(t, first.manager.Login(ctx, testEmail, testPassword, true).Success)
	firstToken := first.tokens.AccessToken()
	require.NoError(t, first.db.Close())

	// Logging out without restoring first still reaches the server with a bearer.
	second := f.startDesk(t, path)
	second.manager.Logout(ctx, nil)

	status, msg := f.meWithBearer(t, firstToken)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "Token has been revoked", msg)
}

func TestEndToEnd_ExpiredAccessTokenIsRefreshed(t *testing.T) {
	f := setupTestFixture(t)
	f.signupAndLogin(t)
	ctx := context.Background()

	id, err := f.contracts.Create(ctx, saleRequest())
	require.NoError(t, err)
	before := f.tokens.AccessToken()

	f.clock.Advance(20 * time.Minute)

	page, err := f.contracts.List(ctx, contracts.ListParams{})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	require.Equal(t, id, page.Contracts[0].ID)
	require.NotEqual(t, before, f.tokens.AccessToken())
}

func TestEndToEnd_LogoutRevokesTokens(t *testing.T) {
	f := setupTestFixture(t)
	f.signupAndLogin(t)
	old := f.tokens.AccessToken()

	var landed string
	f.manager.Logout(context.Background(), auth.NavigatorFunc(func(path string) { landed = path }))
	require.Equal(t, "/", landed)
	require.Equal(t, auth.StateAnonymous, f.manager.State())
	require.False(t, f.tokens.Present())

	req, err := http.NewRequest(http.MethodGet, f.server.URL+devapi.RouteMe, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+old)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// With the token and cookies gone, protected calls end the session.
	_, err = f.contracts.List(context.Background(), contracts.ListParams{})
	require.ErrorIs(t, err, apiclient.ErrSessionExpired)
}

func TestEndToEnd_PasswordReset(t *testing.T) {
	f := setupTestFixture(t, devapi.WithRateLimit(rate.Inf, 1))
	ctx := context.Background()
	client, err := apiclient.New(f.server.URL+devapi.BasePath, f.tokens, apiclient.WithEndpoints(apiclient.EmailEndpoints()))
	require.NoError(t, err)
	manager, err := auth.NewManager(client, f.tokens, f.store, auth.WithEndpoints(apiclient.EmailEndpoints()))
	require.NoError(t, err)

	signup := manager.Signup(ctx, testEmail, testPassword, testName)
	require.True(t, signup.Success, signup.Error)
	outbox := f.backend.Outbox()
	require.Len(t, outbox, 1)
	require.Equal(t, devapi.PurposeVerifyEmail, outbox[0].Purpose)
	require.True(t, manager.VerifyEmail(ctx, outbox[0].Token).Success)
	require.False(t, manager.VerifyEmail(ctx, outbox[0].Token).Success)

	unknown := manager.RequestPasswordReset(ctx, "nobody@example.com")
	require.True(t, unknown.Success)
	require.Len(t, f.backend.Outbox(), 1)

	require.True(t, manager.RequestPasswordReset(ctx, testEmail).Success)
	outbox = f.backend.Outbox()
	require.Len(t, outbox, 2)
	resetToken := outbox[1].Token

	require.False(t, manager.ResetPassword(ctx, "bogus", "new-password-1").Success)
	require.True(t, manager.ResetPassword(ctx, resetToken, "new-password-1").Success)
	require.False(t, manager.ResetPassword(ctx, resetToken, "new-password-2").Success)

	require.False(t, manager.Login(ctx, testEmail, testPassword, false).Success)
	require.True(t, manager.Login(ctx, testEmail, "new-password-1", false).Success)
}

func TestRateLimit(t *testing.T) {
	f := setupTestFixture(t, devapi.WithRateLimit(rate.Every(time.Hour), 2))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.False(t, f.manager.Login(ctx, testEmail, testPassword, false).Success)
	}
	var out map[string]any
	err := f.client.PostJSON(ctx, "/auth/login", map[string]string{"email": testEmail, "password": testPassword}, &out)
	require.ErrorIs(t, err, deskerrors.ErrRateLimited)
}

func TestContracts_CRUD(t *testing.T) {
	f := setupTestFixture(t)
	f.signupAndLogin(t)
	ctx := context.Background()

	id, err := f.contracts.Create(ctx, saleRequest())
	require.NoError(t, err)

	c, err := f.contracts.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "홍길동", c.SellerName)
	require.Equal(t, "서울특별시 강남구 테헤란로 1", c.Address)
	require.Equal(t, int64(850000000), c.SalePrice)
	require.True(t, strings.HasPrefix(c.DocNo, "CONTRACT_"))
	require.Len(t, c.DocHash, 64)
	require.Len(t, c.Signatures, 3)
	require.Equal(t, contracts.RoleAgent, c.Signatures[2].Role)

	page, err := f.contracts.List(ctx, contracts.ListParams{Query: "김철수", Type: contracts.TypeSale})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	page, err = f.contracts.List(ctx, contracts.ListParams{Type: contracts.TypeJeonse})
	require.NoError(t, err)
	require.Zero(t, page.Total)

	require.NoError(t, f.contracts.Delete(ctx, id))
	_, err = f.contracts.Get(ctx, id)
	require.ErrorIs(t, err, deskerrors.ErrNotFound)
}

func TestContracts_ServerValidation(t *testing.T) {
	f := setupTestFixture(t)
	f.signupAndLogin(t)

	req := saleRequest()
	req.Deposit = utils.Ptr[int64](1)
	var out map[string]any
	err := f.client.PostJSON(context.Background(), "/contracts", req, &out)
	require.ErrorIs(t, err, deskerrors.ErrInvalidInput)

	var httpErr *apiclient.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Contains(t, httpErr.Details, "deposit")
}

func TestContracts_SignaturesAndPDF(t *testing.T) {
	f := setupTestFixture(t)
	f.signupAndLogin(t)
	ctx := context.Background()

	id, err := f.contracts.Create(ctx, saleRequest())
	require.NoError(t, err)

	image := contracts.EncodeDataURL("image/png", []byte("\x89PNG fake signature bytes"))
	sig, err := f.contracts.UploadSignature(ctx, id, contracts.TypeSale, contracts.RoleBroker, image)
	require.NoError(t, err)
	require.Equal(t, contracts.RoleAgent, sig.Role)
	require.NotEmpty(t, sig.SignedAt)
	require.NotEmpty(t, sig.ImageURL)

	_, err = f.contracts.UploadSignature(ctx, id, contracts.TypeSale, contracts.RoleLessor, image)
	require.ErrorIs(t, err, deskerrors.ErrNotFound)

	info, err := f.contracts.PDFInfo(ctx, id)
	require.NoError(t, err)
	require.Empty(t, info.PDFHash)

	doc, err := f.contracts.PDF(ctx, id)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(doc, []byte("%PDF-")))

	preview, err := f.contracts.PDFPreview(ctx, id, true, true)
	require.NoError(t, err)
	require.Contains(t, string(preview), "include=signatures,stamps")

	info, err = f.contracts.PDFInfo(ctx, id)
	require.NoError(t, err)
	require.Len(t, info.PDFHash, 64)
	require.Equal(t, "v1", info.FormVersion)
}
