// Package eapi serves the Arista eAPI JSON-RPC endpoint for any switch that
// can run a batch of CLI commands.
package eapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/newtron-network/fakeswitches/pkg/util"
)

// Path is the single eAPI endpoint.
const Path = "/command-api"

// JSON-RPC error codes
const (
	CodeParseError       = -32700
	CodeInvalidRequest   = -32600
	CodeMethodNotFound   = -32601
	CodeInvalidParams    = -32602
	CodeInvalidCommand   = 1002
	CodeUnconvertedCmd   = 1003
	defaultFormat        = "json"
	supportedRPCVersion  = "2.0"
	runCmdsMethod        = "runCmds"
	maxRequestBodyLength = 1 << 20
)

// Command is one entry of runCmds. Clients send either a bare string or
// {"cmd": ..., "input": ...}; input answers a prompt the command opens.
type Command struct {
	Cmd   string `json:"cmd"`
	Input string `json:"input,omitempty"`
}

// UnmarshalJSON accepts both command shapes.
func (c *Command) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.Cmd = s
		return nil
	}
	type plain Command
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = Command(p)
	return nil
}

// Result is the outcome of one command. A failed command carries Errors
// and ends the batch.
type Result struct {
	Output      map[string]interface{}
	Errors      []string
	Unconverted bool
}

// Failed reports whether the command did not run.
func (r Result) Failed() bool { return len(r.Errors) > 0 || r.Unconverted }

// Runner executes a batch of commands in one fresh CLI context. It returns
// one Result per command run, stopping after the first failure.
type Runner interface {
	RunCmds(format string, cmds []Command) []Result
}

// Request is a JSON-RPC 2.0 runCmds call.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Method  string          `json:"method"`
	Params  Params          `json:"params"`
}

// Params of runCmds.
type Params struct {
	Version interface{} `json:"version"`
	Cmds    []Command   `json:"cmds"`
	Format  string      `json:"format"`
}

// Response is a JSON-RPC 2.0 reply.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  []interface{}   `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int           `json:"code"`
	Message string        `json:"message"`
	Data    []interface{} `json:"data,omitempty"`
}

// NewHandler returns the eAPI router for runner.
func NewHandler(runner Runner) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc(Path, makeHandler(runner)).Methods(http.MethodPost)
	return router
}

func makeHandler(runner Runner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := handle(runner, r)
		content, err := json.Marshal(resp)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(content)
	}
}

func handle(runner Runner, r *http.Request) *Response {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodyLength))
	if err != nil {
		return errorResponse(nil, CodeParseError, "Parse error", nil)
	}
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		util.WithField("component", "eapi").Debugf("bad request: %v", err)
		return errorResponse(nil, CodeParseError, "Parse error", nil)
	}
	if req.JSONRPC != supportedRPCVersion {
		return errorResponse(req.ID, CodeInvalidRequest, "Invalid request", nil)
	}
	if req.Method != runCmdsMethod {
		return errorResponse(req.ID, CodeMethodNotFound, "Method not found", nil)
	}
	format := req.Params.Format
	if format == "" {
		format = defaultFormat
	}
	if format != "json" && format != "text" {
		return errorResponse(req.ID, CodeInvalidParams, "Invalid params: unsupported format "+format, nil)
	}
	if len(req.Params.Cmds) == 0 {
		return errorResponse(req.ID, CodeInvalidParams, "Invalid params: no commands", nil)
	}

	results := runner.RunCmds(format, req.Params.Cmds)
	outputs := make([]interface{}, 0, len(results))
	for i, res := range results {
		if !res.Failed() {
			outputs = append(outputs, res.Output)
			continue
		}
		code, reason := CodeInvalidCommand, "invalid command"
		if res.Unconverted {
			code, reason = CodeUnconvertedCmd, "unconverted command"
		}
		errors := res.Errors
		if errors == nil {
			errors = []string{}
		}
		data := append(outputs, map[string]interface{}{"errors": errors})
		message := fmt.Sprintf("CLI command %d of %d '%s' failed: %s", i+1, len(req.Params.Cmds), req.Params.Cmds[i].Cmd, reason)
		return errorResponse(req.ID, code, message, data)
	}
	return &Response{JSONRPC: supportedRPCVersion, ID: req.ID, Result: outputs}
}

func errorResponse(id json.RawMessage, code int, message string, data []interface{}) *Response {
	return &Response{
		JSONRPC: supportedRPCVersion,
		ID:      id,
		Error:   &Error{Code: code, Message: message, Data: data},
	}
}
