package server

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"testing"
	"time"

	"virtuefeed/internal/config"
	"virtuefeed/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	testSecret     = "test-secret-key-12345678901234567890123456789012"
	testWebhookKey = "webhook-signing-key-for-tests"
)

type testEnv struct {
	srv *Server
	app *fiber.App
	db  *gorm.DB
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Port:                 "0",
		Env:                  "test",
		IDPJWTSecret:         testSecret,
		IDPWebhookSecret:     "whsec_" + base64.StdEncoding.EncodeToString([]byte(testWebhookKey)),
		PostMaxContentLength: 2000,
		RewriteProvider:      "trim",
		StorageDriver:        "local",
		UploadDir:            t.TempDir(),
		UploadPublicPath:     "/uploads",
		ImageMaxUploadSizeMB: 1,
		UploadOrphanTTLHours: 24,
	}
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()

	cfg := testConfig(t)
	for _, m := range mutate {
		m(cfg)
	}

	db := testutil.NewSQLiteDB(t)
	srv, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)

	return &testEnv{srv: srv, app: srv.App(), db: db}
}

// sessionToken signs a provider session token for externalID. An empty
// email leaves the claim out.
func sessionToken(t *testing.T, externalID, email string) string {
	t.Helper()

	claims := jwt.MapClaims{
		"sub": externalID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	if email != "" {
		claims["email"] = email
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.send(t, req)
}

func (e *testEnv) send(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

// imageForm builds a multipart body with the file under "image" and any extra fields.
func imageForm(t *testing.T, data []byte, contentType string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if data != nil {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="image"; filename="upload"`)
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

// signedWebhook builds a delivery signed the way the provider's svix relay signs it.
func signedWebhook(t *testing.T, payload []byte) *http.Request {
	t.Helper()

	msgID := "msg_test"
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	mac := hmac.New(sha256.New, []byte(testWebhookKey))
	mac.Write([]byte(msgID + "." + ts + "." + string(payload)))

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("svix-id", msgID)
	req.Header.Set("svix-timestamp", ts)
	req.Header.Set("svix-signature", "v1,"+base64.StdEncoding.EncodeToString(mac.Sum(nil)))
	return req
}
