package captcha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVerifier(t *testing.T, body string, allowBrowserError bool) *RecaptchaVerifier {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "secret", r.PostForm.Get("secret"))
		assert.Equal(t, "tok", r.PostForm.Get("response"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return NewRecaptchaVerifier(Config{SecretKey: "secret", VerifyURL: srv.URL, AllowBrowserError: allowBrowserError})
}

func TestVerifyScored(t *testing.T) {
	v := newVerifier(t, `{"success":true,"score":0.7,"action":"contact"}`, false)
	res, err := v.Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.NotNil(t, res.Score)
	assert.InDelta(t, 0.7, *res.Score, 1e-9)
}

func TestVerifyUnscored(t *testing.T) {
	v := newVerifier(t, `{"success":true}`, false)
	res, err := v.Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Nil(t, res.Score)
}

func TestVerifyBrowserError(t *testing.T) {
	body := `{"success":false,"error-codes":["browser-error"]}`

	res, err := newVerifier(t, body, false).Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.False(t, res.Success)

	res, err = newVerifier(t, body, true).Verify(context.Background(), "tok")
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.NotNil(t, res.Score)
	assert.InDelta(t, 0.9, *res.Score, 1e-9)
}

func TestVerifyRequiresConfig(t *testing.T) {
	_, err := NewRecaptchaVerifier(Config{}).Verify(context.Background(), "tok")
	assert.Error(t, err)

	_, err = NewRecaptchaVerifier(Config{SecretKey: "s"}).Verify(context.Background(), "")
	assert.Error(t, err)
}
