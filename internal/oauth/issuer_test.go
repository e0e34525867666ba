package oauth

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RFC 7636 appendix B reference pair.
const (
	appendixBVerifier  = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	appendixBChallenge = "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
)

func newIssuerFixture(t *testing.T) (*Issuer, *MemoryStore) {
	t.Helper()
	store := newTestStore(t)
	return NewIssuer(store, time.Hour), store
}

func seedClient(t *testing.T, store *MemoryStore, client *Client) *Client {
	t.Helper()
	require.NoError(t, store.SaveClient(client))
	return client
}

func seedCode(t *testing.T, store *MemoryStore, clientID, code string) {
	t.Helper()
	require.NoError(t, store.SaveAuthorizationCode(&AuthorizationCode{
		Code:                code,
		ClientID:            clientID,
		RedirectURI:         "http://localhost:9876/callback",
		Scope:               DefaultScope,
		CodeChallenge:       appendixBChallenge,
		CodeChallengeMethod: "S256",
		CreatedAt:           time.Now(),
		ExpiresAt:           time.Now().Add(time.Minute),
	}))
}

func exchangeParams(clientID, code string) ExchangeParams {
	return ExchangeParams{
		ClientID:     clientID,
		Code:         code,
		RedirectURI:  "http://localhost:9876/callback",
		CodeVerifier: appendixBVerifier,
	}
}

func TestExchange(t *testing.T) {
	issuer, store := newIssuerFixture(t)
	client := seedClient(t, store, testClient("client-1"))
	seedCode(t, store, client.ID, "code-ok")

	token, err := issuer.Exchange(exchangeParams(client.ID, "code-ok"))
	require.NoError(t, err)

	assert.NotEmpty(t, token.Token)
	assert.NotEqual(t, "code-ok", token.Token, "a code value must never double as a token")
	assert.Equal(t, client.ID, token.ClientID)
	assert.Equal(t, DefaultScope, token.Scope)
	assert.WithinDuration(t, time.Now().Add(time.Hour), token.ExpiresAt, 2*time.Second)

	stored, err := store.GetAccessToken(token.Token)
	require.NoError(t, err)
	assert.Equal(t, token.Token, stored.Token)
}

func TestExchange_ConfidentialClient(t *testing.T) {
	issuer, store := newIssuerFixture(t)
	client := seedClient(t, store, &Client{
		ID:           "client-secret",
		Secret:       "sSh-secret-value-here",
		Type:         ClientTypeConfidential,
		RedirectURIs: []string{"http://localhost:9876/callback"},
		CreatedAt:    time.Now(),
	})

	t.Run("correct secret", func(t *testing.T) {
		seedCode(t, store, client.ID, "code-conf-1")
		params := exchangeParams(client.ID, "code-conf-1")
		params.ClientSecret = "sSh-secret-value-here"

		_, err := issuer.Exchange(params)
		assert.NoError(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		seedCode(t, store, client.ID, "code-conf-2")
		params := exchangeParams(client.ID, "code-conf-2")
		params.ClientSecret = "sSh-secret-value-herf"

		_, err := issuer.Exchange(params)
		require.Error(t, err)
		assertWireCode(t, err, ErrorCodeInvalidClient)
		assert.ErrorIs(t, err, ErrInvalidClient)
	})

	t.Run("missing secret", func(t *testing.T) {
		seedCode(t, store, client.ID, "code-conf-3")
		params := exchangeParams(client.ID, "code-conf-3")

		_, err := issuer.Exchange(params)
		require.Error(t, err)
		assertWireCode(t, err, ErrorCodeInvalidClient)
	})
}

func TestExchange_PublicClientIgnoresStraySecret(t *testing.T) {
	issuer, store := newIssuerFixture(t)
	client := seedClient(t, store, testClient("client-pub"))
	seedCode(t, store, client.ID, "code-pub")

	params := exchangeParams(client.ID, "code-pub")
	params.ClientSecret = "not-needed"

	_, err := issuer.Exchange(params)
	assert.NoError(t, err)
}

func TestExchange_Failures(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*ExchangeParams)
		wireCode string
	}{
		{
			name:     "unknown code",
			mutate:   func(p *ExchangeParams) { p.Code = "ghost" },
			wireCode: ErrorCodeInvalidGrant,
		},
		{
			name:     "empty code",
			mutate:   func(p *ExchangeParams) { p.Code = "" },
			wireCode: ErrorCodeInvalidGrant,
		},
		{
			name:     "unknown client",
			mutate:   func(p *ExchangeParams) { p.ClientID = "ghost" },
			wireCode: ErrorCodeInvalidClient,
		},
		{
			name:     "redirect URI mismatch",
			mutate:   func(p *ExchangeParams) { p.RedirectURI = "http://localhost:9876/other" },
			wireCode: ErrorCodeInvalidGrant,
		},
		{
			name:     "redirect URI with extra query",
			mutate:   func(p *ExchangeParams) { p.RedirectURI = "http://localhost:9876/callback?x=1" },
			wireCode: ErrorCodeInvalidGrant,
		},
		{
			name:     "wrong verifier",
			mutate:   func(p *ExchangeParams) { p.CodeVerifier = "wrong-verifier-wrong-verifier-wrong-verifier" },
			wireCode: ErrorCodeInvalidGrant,
		},
		{
			name: "verifier off by one character",
			mutate: func(p *ExchangeParams) {
				mutated := []byte(appendixBVerifier)
				mutated[0] ^= 1
				p.CodeVerifier = string(mutated)
			},
			wireCode: ErrorCodeInvalidGrant,
		},
		{
			name:     "empty verifier",
			mutate:   func(p *ExchangeParams) { p.CodeVerifier = "" },
			wireCode: ErrorCodeInvalidGrant,
		},
		{
			name:     "challenge passed instead of verifier",
			mutate:   func(p *ExchangeParams) { p.CodeVerifier = appendixBChallenge },
			wireCode: ErrorCodeInvalidGrant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issuer, store := newIssuerFixture(t)
			client := seedClient(t, store, testClient("client-1"))
			seedCode(t, store, client.ID, "code-fail")

			params := exchangeParams(client.ID, "code-fail")
			tt.mutate(&params)

			_, err := issuer.Exchange(params)
			require.Error(t, err)
			assertWireCode(t, err, tt.wireCode)

			store.mu.RLock()
			tokenCount := len(store.tokens)
			store.mu.RUnlock()
			assert.Zero(t, tokenCount, "failed exchanges must not mint tokens")
		})
	}
}

func TestExchange_ClientMismatch(t *testing.T) {
	issuer, store := newIssuerFixture(t)
	seedClient(t, store, testClient("client-a"))
	other := seedClient(t, store, testClient("client-b"))
	seedCode(t, store, "client-a", "code-bound")

	_, err := issuer.Exchange(exchangeParams(other.ID, "code-bound"))
	require.Error(t, err)
	assertWireCode(t, err, ErrorCodeInvalidClient)
	assert.ErrorIs(t, err, ErrInvalidClient)
}

func TestExchange_ExpiredCode(t *testing.T) {
	issuer, store := newIssuerFixture(t)
	client := seedClient(t, store, testClient("client-1"))
	require.NoError(t, store.SaveAuthorizationCode(&AuthorizationCode{
		Code:                "code-stale",
		ClientID:            client.ID,
		RedirectURI:         "http://localhost:9876/callback",
		Scope:               DefaultScope,
		CodeChallenge:       appendixBChallenge,
		CodeChallengeMethod: "S256",
		CreatedAt:           time.Now().Add(-2 * time.Minute),
		ExpiresAt:           time.Now().Add(-time.Minute),
	}))

	_, err := issuer.Exchange(exchangeParams(client.ID, "code-stale"))
	require.Error(t, err)
	assertWireCode(t, err, ErrorCodeInvalidGrant)
	assert.ErrorIs(t, err, ErrInvalidGrant)
}

func TestExchange_FailureBurnsTheCode(t *testing.T) {
	issuer, store := newIssuerFixture(t)
	client := seedClient(t, store, testClient("client-1"))
	seedCode(t, store, client.ID, "code-burn")

	// First attempt fails PKCE after the code was consumed.
	params := exchangeParams(client.ID, "code-burn")
	params.CodeVerifier = "wrong-verifier-wrong-verifier-wrong-verifier"
	_, err := issuer.Exchange(params)
	require.Error(t, err)

	// A subsequent attempt with everything correct must not succeed.
	_, err = issuer.Exchange(exchangeParams(client.ID, "code-burn"))
	require.Error(t, err)
	assertWireCode(t, err, ErrorCodeInvalidGrant)
}

func TestExchange_SpentCode(t *testing.T) {
	issuer, store := newIssuerFixture(t)
	client := seedClient(t, store, testClient("client-1"))
	seedCode(t, store, client.ID, "code-once")

	token, err := issuer.Exchange(exchangeParams(client.ID, "code-once"))
	require.NoError(t, err)

	_, err = issuer.Exchange(exchangeParams(client.ID, "code-once"))
	require.Error(t, err)
	assertWireCode(t, err, ErrorCodeInvalidGrant)

	// The replay must not have touched the issued token or minted another.
	store.mu.RLock()
	tokenCount := len(store.tokens)
	store.mu.RUnlock()
	assert.Equal(t, 1, tokenCount)

	_, err = store.GetAccessToken(token.Token)
	assert.NoError(t, err)
}

func TestExchange_ConcurrentRedemption(t *testing.T) {
	issuer, store := newIssuerFixture(t)
	client := seedClient(t, store, testClient("client-1"))
	seedCode(t, store, client.ID, "code-race")

	const attempts = 32
	start := make(chan struct{})
	tokens := make(chan *AccessToken, attempts)
	failures := make(chan error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			token, err := issuer.Exchange(exchangeParams(client.ID, "code-race"))
			if err != nil {
				failures <- err
				return
			}
			tokens <- token
		}()
	}
	close(start)
	wg.Wait()
	close(tokens)
	close(failures)

	assert.Len(t, tokens, 1, "exactly one redemption must win")
	assert.Len(t, failures, attempts-1)
	for err := range failures {
		assertWireCode(t, err, ErrorCodeInvalidGrant)
	}

	store.mu.RLock()
	tokenCount := len(store.tokens)
	store.mu.RUnlock()
	assert.Equal(t, 1, tokenCount)
}

func assertWireCode(t *testing.T, err error, wireCode string) {
	t.Helper()
	flowErr, ok := AsFlowError(err)
	require.True(t, ok, "error must carry a wire code: %v", err)
	assert.Equal(t, wireCode, flowErr.Code)
}
