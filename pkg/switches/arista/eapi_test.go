package arista

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newtron-network/fakeswitches/pkg/switches/core"
	"github.com/newtron-network/fakeswitches/pkg/transport/eapi"
)

func runCmds(t *testing.T, sw *Core, format string, cmds ...interface{}) eapi.Response {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      "test-1",
		"method":  "runCmds",
		"params":  map[string]interface{}{"version": 1, "cmds": cmds, "format": format},
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	sw.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, eapi.Path, strings.NewReader(string(body))))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp eapi.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, `"test-1"`, string(resp.ID))
	return resp
}

func TestEAPI_TextOutput(t *testing.T) {
	sw := newSwitch(core.Options{})
	resp := runCmds(t, sw, "text",
		"enable", "configure", "vlan 299", "name foo", "end", "show vlan 299")
	require.Nil(t, resp.Error)
	require.Len(t, resp.Result, 6)

	last := resp.Result[5].(map[string]interface{})
	assert.Equal(t,
		"VLAN  Name                             Status    Ports\n"+
			"----- -------------------------------- --------- -------------------------------\n"+
			"299   foo                              active\n\n",
		last["output"])
	assert.Equal(t, map[string]interface{}{"output": ""}, resp.Result[0])
}

func TestEAPI_JSONOutput(t *testing.T) {
	sw := newSwitch(core.Options{})
	resp := runCmds(t, sw, "json",
		"enable", "configure", "vlan 300", "name bar", "end", "show vlan")
	require.Nil(t, resp.Error)
	require.Len(t, resp.Result, 6)
	assert.Equal(t, map[string]interface{}{}, resp.Result[2])

	vlans := resp.Result[5].(map[string]interface{})["vlans"].(map[string]interface{})
	require.Contains(t, vlans, "300")
	vlan := vlans["300"].(map[string]interface{})
	assert.Equal(t, "bar", vlan["name"])
	assert.Equal(t, "active", vlan["status"])
	assert.Equal(t, "default", vlans["1"].(map[string]interface{})["name"])
}

func TestEAPI_InvalidCommand(t *testing.T) {
	sw := newSwitch(core.Options{})
	resp := runCmds(t, sw, "json", "enable", "show bogus", "show vlan")
	require.NotNil(t, resp.Error)
	assert.Equal(t, eapi.CodeInvalidCommand, resp.Error.Code)
	assert.Equal(t, "CLI command 2 of 3 'show bogus' failed: invalid command", resp.Error.Message)
	require.Len(t, resp.Error.Data, 2)
	assert.Equal(t, map[string]interface{}{"errors": []interface{}{"Invalid input"}}, resp.Error.Data[1])
}

func TestEAPI_UnconvertedCommand(t *testing.T) {
	sw := newSwitch(core.Options{})
	resp := runCmds(t, sw, "json", "enable", "show running-config")
	require.NotNil(t, resp.Error)
	assert.Equal(t, eapi.CodeUnconvertedCmd, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "'show running-config' failed: unconverted command")
}

func TestEAPI_EnableWithInput(t *testing.T) {
	sw := newSwitch(core.Options{PrivilegedPasswords: []string{"secret"}})

	resp := runCmds(t, sw, "text",
		map[string]string{"cmd": "enable", "input": "secret"}, "configure", "vlan 10")
	require.Nil(t, resp.Error)
	assert.NotNil(t, sw.Conf.GetVlan(10))

	resp = runCmds(t, sw, "text", map[string]string{"cmd": "enable", "input": "wrong"}, "configure")
	require.NotNil(t, resp.Error)
	assert.Equal(t, "CLI command 1 of 2 'enable' failed: invalid command", resp.Error.Message)
}

func TestEAPI_BatchesDoNotShareModes(t *testing.T) {
	sw := newSwitch(core.Options{})
	runCmds(t, sw, "text", "enable", "configure")
	resp := runCmds(t, sw, "text", "vlan 10")
	require.NotNil(t, resp.Error)
	assert.Nil(t, sw.Conf.GetVlan(10))
}
