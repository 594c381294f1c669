package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shellbridge/authflow/internal/flow"
	"github.com/shellbridge/authflow/internal/provider"
	"github.com/shellbridge/authflow/internal/testutil"
)

const (
	testBaseURL = "https://app.example.com"
	nativeUA    = "Mozilla/5.0 (iPhone) ShellBridge/2.1"
)

func newTestHandlers(t *testing.T, mockProvider *testutil.MockProvider) *httptest.Server {
	t.Helper()

	f, err := flow.New(flow.Config{
		AppBaseURL:   testBaseURL,
		NativeScheme: "myapp",
		Provider:     mockProvider,
	})
	require.NoError(t, err)

	mux := http.NewServeMux()
	NewAuthHandlers(f).Register(mux)

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func noRedirectClient() *http.Client {
	return &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func TestSignInRedirectsToAuthorizationURL(t *testing.T) {
	mockProvider := new(testutil.MockProvider)
	mockProvider.On("GetOAuthURL", mock.Anything, "oauth", testBaseURL+flow.WebCallbackPath, mock.AnythingOfType("string")).
		Return("https://idp.example.com/authorize?client_id=abc", nil)

	ts := newTestHandlers(t, mockProvider)

	resp, err := noRedirectClient().Get(ts.URL + "/auth/signin?provider=oauth")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "https://idp.example.com/authorize?client_id=abc", resp.Header.Get("Location"))
}

func TestSignInNativeRedirectsToDeeplink(t *testing.T) {
	mockProvider := new(testutil.MockProvider)
	mockProvider.On("GetOAuthURL", mock.Anything, "oauth", testBaseURL+flow.NativeCallbackPath, mock.AnythingOfType("string")).
		Return("https://idp.example.com/authorize", nil)

	ts := newTestHandlers(t, mockProvider)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/auth/signin?provider=oauth", nil)
	require.NoError(t, err)
	req.Header.Set("User-Agent", nativeUA)

	resp, err := noRedirectClient().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Location"), "myapp://oauth/authorize?url="))
}

func TestSignInProviderFailure(t *testing.T) {
	mockProvider := new(testutil.MockProvider)
	mockProvider.On("GetOAuthURL", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", assert.AnError)

	ts := newTestHandlers(t, mockProvider)

	resp, err := http.Get(ts.URL + "/auth/signin?provider=oauth")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestCallbackWithCodeRedirects(t *testing.T) {
	mockProvider := new(testutil.MockProvider)
	tokens := provider.TokenSet{AccessToken: "at-1"}
	mockProvider.On("HandleCallback", mock.Anything, mock.Anything).
		Return(&provider.AuthResult{Tokens: tokens}, nil)
	mockProvider.On("SetSession", mock.Anything, tokens).Return(nil)

	ts := newTestHandlers(t, mockProvider)

	resp, err := noRedirectClient().Get(ts.URL + "/auth/callback?code=abc&state=xyz")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, testBaseURL+flow.WebCallbackPath, resp.Header.Get("Location"))
}

func TestNativeCallbackRedirectsToDeeplink(t *testing.T) {
	mockProvider := new(testutil.MockProvider)
	tokens := provider.TokenSet{AccessToken: "at-1"}
	mockProvider.On("HandleCallback", mock.Anything, mock.Anything).
		Return(&provider.AuthResult{Tokens: tokens}, nil)
	mockProvider.On("SetSession", mock.Anything, tokens).Return(nil)

	ts := newTestHandlers(t, mockProvider)

	resp, err := noRedirectClient().Get(ts.URL + "/native-callback?code=abc")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "myapp://oauth/callback?access_token=at-1", resp.Header.Get("Location"))
}

func TestCallbackBareErrorRendersLandingWithoutReprocessing(t *testing.T) {
	// The orchestrator's own failure redirect carries error without state.
	// Re-processing it would loop forever.
	mockProvider := new(testutil.MockProvider)
	ts := newTestHandlers(t, mockProvider)

	resp, err := noRedirectClient().Get(ts.URL + "/auth/callback?error=" + url.QueryEscape("access_denied: user cancelled"))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Sign-in failed")
	assert.Contains(t, string(body), "access_denied")

	mockProvider.AssertNotCalled(t, "HandleCallback", mock.Anything, mock.Anything)
}

func TestCallbackProviderErrorWithStateIsProcessed(t *testing.T) {
	mockProvider := new(testutil.MockProvider)
	mockProvider.On("HandleCallback", mock.Anything, mock.Anything).
		Return(nil, &provider.ProtocolError{Code: "access_denied"})

	ts := newTestHandlers(t, mockProvider)

	resp, err := noRedirectClient().Get(ts.URL + "/auth/callback?error=access_denied&state=xyz")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, testBaseURL+flow.WebCallbackPath+"?error=access_denied", resp.Header.Get("Location"))
}

func TestCallbackLandingShowsSignedInUser(t *testing.T) {
	mockProvider := new(testutil.MockProvider)
	mockProvider.On("GetSession", mock.Anything).Return(&provider.Session{
		AccessToken: "at-1",
		User:        provider.UserRecord{ID: "u-1", Email: "dev@example.com"},
	}, nil)

	ts := newTestHandlers(t, mockProvider)

	resp, err := http.Get(ts.URL + "/auth/callback")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "dev@example.com")
}

func TestCallbackLandingForwardsFragment(t *testing.T) {
	mockProvider := new(testutil.MockProvider)
	mockProvider.On("GetSession", mock.Anything).Return(nil, nil)

	ts := newTestHandlers(t, mockProvider)

	resp, err := http.Get(ts.URL + "/auth/callback")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "location.hash", "landing page carries the fragment forwarder")
}

func TestSignOut(t *testing.T) {
	mockProvider := new(testutil.MockProvider)
	mockProvider.On("SignOut", mock.Anything).Return(nil)

	ts := newTestHandlers(t, mockProvider)

	resp, err := http.Post(ts.URL+"/auth/signout", "", nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	mockProvider.AssertExpectations(t)
}

func TestSessionEndpoint(t *testing.T) {
	mockProvider := new(testutil.MockProvider)
	mockProvider.On("GetSession", mock.Anything).Return(nil, nil)

	ts := newTestHandlers(t, mockProvider)

	resp, err := http.Get(ts.URL + "/auth/session")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"authenticated":false`)
}

func TestHealthz(t *testing.T) {
	ts := newTestHandlers(t, new(testutil.MockProvider))

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
