package gcs

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Client{
		httpClient:    srv.Client(),
		endpoint:      srv.URL,
		publicBaseURL: "https://cdn.example.com",
		bucket:        "farm-media",
		tokenSource: &tokenSource{fetch: func(context.Context) (string, time.Time, error) {
			return "test-token", time.Now().Add(time.Hour), nil
		}},
	}
}

func TestUploadSendsMediaRequest(t *testing.T) {
	var gotPath, gotName, gotAuth, gotType, gotBody string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotName = r.URL.Query().Get("name")
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"name":"ok"}`))
	})

	publicURL, err := client.Upload(context.Background(), "products/abc/photo 1.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "/upload/storage/v1/b/farm-media/o", gotPath)
	assert.Equal(t, "products/abc/photo 1.png", gotName)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, "png-bytes", gotBody)
	assert.Equal(t, "https://cdn.example.com/farm-media/products/abc/photo%201.png", publicURL)
}

func TestUploadSurfacesErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden bucket", http.StatusForbidden)
	})

	_, err := client.Upload(context.Background(), "a.png", "image/png", strings.NewReader("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
	assert.Contains(t, err.Error(), "forbidden bucket")
}

func TestPing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/storage/v1/b/farm-media/o", r.URL.Path)
		assert.Equal(t, "1", r.URL.Query().Get("maxResults"))
		w.WriteHeader(http.StatusOK)
	})
	require.NoError(t, client.Ping(context.Background()))

	var nilClient *Client
	require.Error(t, nilClient.Ping(context.Background()))
}

func TestTokenSourceCachesUntilNearExpiry(t *testing.T) {
	calls := 0
	ts := &tokenSource{fetch: func(context.Context) (string, time.Time, error) {
		calls++
		return "tok", time.Now().Add(10 * time.Minute), nil
	}}
	for i := 0; i < 3; i++ {
		tok, err := ts.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "tok", tok)
	}
	assert.Equal(t, 1, calls)
}

func TestSignJWTVerifiesWithPublicKey(t *testing.T) {
	key := mustGenerateKey(t)
	sig, err := signJWT("header.payload", key)
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(sig)
	require.NoError(t, err)
	hash := sha256.Sum256([]byte("header.payload"))
	require.NoError(t, rsa.VerifyPKCS1v15(&key.PublicKey, crypto.SHA256, hash[:], raw))
}

func TestParsePrivateKeyFormats(t *testing.T) {
	key := mustGenerateKey(t)

	pkcs1 := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	parsed, err := parsePrivateKey(string(pkcs1))
	require.NoError(t, err)
	assert.True(t, key.Equal(parsed))

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pkcs8 := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
	parsed, err = parsePrivateKey(string(pkcs8))
	require.NoError(t, err)
	assert.True(t, key.Equal(parsed))

	_, err = parsePrivateKey("not pem")
	require.Error(t, err)
}

func TestServiceAccountCredentialsValidated(t *testing.T) {
	_, err := newServiceAccountTokenSource(http.DefaultClient, `{"client_email":""}`)
	require.Error(t, err)
	_, err = newServiceAccountTokenSource(http.DefaultClient, `{`)
	require.Error(t, err)
}

func mustGenerateKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return key
}
