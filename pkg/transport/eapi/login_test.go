package eapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/newtron-network/fakeswitches/pkg/auth"
)

const pingBody = `{"jsonrpc":"2.0","id":1,"method":"runCmds","params":{"version":1,"cmds":["a"]}}`

func TestRequireLogin(t *testing.T) {
	checker := auth.NewChecker(&auth.Policy{
		Users: []auth.User{
			{Name: "admin", Password: "secret"},
			{Name: "viewer", Password: "pw"},
		},
		Permissions: map[string][]string{string(auth.PermEAPI): {"admin"}},
	})
	h := RequireLogin(NewHandler(&echoRunner{}), checker, "sw1")

	tests := []struct {
		name     string
		user     string
		password string
		want     int
	}{
		{"no credentials", "", "", http.StatusUnauthorized},
		{"wrong password", "admin", "nope", http.StatusUnauthorized},
		{"not permitted", "viewer", "pw", http.StatusForbidden},
		{"permitted", "admin", "secret", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, Path, strings.NewReader(pingBody))
			if tt.user != "" {
				req.SetBasicAuth(tt.user, tt.password)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusUnauthorized {
				assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}

func TestRequireLogin_Anonymous(t *testing.T) {
	h := RequireLogin(NewHandler(&echoRunner{}), auth.NewChecker(nil), "sw1")
	rec, resp := post(t, h, pingBody)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, resp.Error)
}
