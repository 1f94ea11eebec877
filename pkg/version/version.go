// Package version carries the build identity of the fakeswitch binary.
package version

import "runtime"

// Set at build time:
//
//	go build -ldflags "-X github.com/newtron-network/fakeswitches/pkg/version.Version=v0.3.0 \
//	  -X github.com/newtron-network/fakeswitches/pkg/version.GitCommit=abc1234"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns the line printed by "fakeswitch version".
func Info() string {
	return "fakeswitch " + Version + " (" + GitCommit + ") built " + BuildDate + " " + runtime.Version()
}

// UserAgent identifies the emulator in HTTP server headers.
func UserAgent() string {
	return "fakeswitch/" + Version
}
