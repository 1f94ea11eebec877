package eapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoRunner answers every command with its text and fails on "fail".
type echoRunner struct {
	format string
	cmds   []Command
}

func (r *echoRunner) RunCmds(format string, cmds []Command) []Result {
	r.format, r.cmds = format, cmds
	var results []Result
	for _, c := range cmds {
		if c.Cmd == "fail" {
			return append(results, Result{Errors: []string{"boom"}})
		}
		results = append(results, Result{Output: map[string]interface{}{"output": c.Cmd + c.Input}})
	}
	return results
}

func post(t *testing.T, h http.Handler, body string) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, Path, strings.NewReader(body)))
	var resp Response
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestCommand_UnmarshalBothShapes(t *testing.T) {
	var cmds []Command
	require.NoError(t, json.Unmarshal([]byte(`["show vlan", {"cmd": "enable", "input": "pw"}]`), &cmds))
	assert.Equal(t, []Command{{Cmd: "show vlan"}, {Cmd: "enable", Input: "pw"}}, cmds)
}

func TestHandler_Success(t *testing.T) {
	runner := &echoRunner{}
	_, resp := post(t, NewHandler(runner),
		`{"jsonrpc":"2.0","id":7,"method":"runCmds","params":{"version":1,"cmds":["a",{"cmd":"b","input":"c"}]}}`)

	require.Nil(t, resp.Error)
	assert.Equal(t, "7", string(resp.ID))
	assert.Equal(t, "json", runner.format)
	assert.Equal(t, []interface{}{
		map[string]interface{}{"output": "a"},
		map[string]interface{}{"output": "bc"},
	}, resp.Result)
}

func TestHandler_CommandFailure(t *testing.T) {
	_, resp := post(t, NewHandler(&echoRunner{}),
		`{"jsonrpc":"2.0","id":1,"method":"runCmds","params":{"version":1,"cmds":["a","fail","b"],"format":"text"}}`)

	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidCommand, resp.Error.Code)
	assert.Equal(t, "CLI command 2 of 3 'fail' failed: invalid command", resp.Error.Message)
	assert.Equal(t, []interface{}{
		map[string]interface{}{"output": "a"},
		map[string]interface{}{"errors": []interface{}{"boom"}},
	}, resp.Error.Data)
}

func TestHandler_RequestErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
	}{
		{"not json", `{`, CodeParseError},
		{"wrong version", `{"jsonrpc":"1.0","id":1,"method":"runCmds","params":{"cmds":["a"]}}`, CodeInvalidRequest},
		{"unknown method", `{"jsonrpc":"2.0","id":1,"method":"getCommands","params":{"cmds":["a"]}}`, CodeMethodNotFound},
		{"bad format", `{"jsonrpc":"2.0","id":1,"method":"runCmds","params":{"cmds":["a"],"format":"xml"}}`, CodeInvalidParams},
		{"no commands", `{"jsonrpc":"2.0","id":1,"method":"runCmds","params":{"cmds":[]}}`, CodeInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp := post(t, NewHandler(&echoRunner{}), tt.body)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestHandler_OnlyPost(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(&echoRunner{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, Path, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
