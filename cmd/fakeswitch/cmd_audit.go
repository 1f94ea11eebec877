package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/newtron-network/fakeswitches/pkg/audit"
	"github.com/newtron-network/fakeswitches/pkg/cli"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "View audit logs",
	Long: `View the audit log of client sessions.

Connections, CLI commands, NETCONF RPCs and commits are logged with the
switch, the user and the client address.

Examples:
  fakeswitch audit list --switch core1
  fakeswitch audit list --last 1h
  fakeswitch audit list --user alice --failures`,
}

// auditQuery collects the flags of "audit list".
type auditQuery struct {
	filter audit.Filter
	kind   string
	last   time.Duration
	tail   int
	json   bool
}

func (q *auditQuery) bind(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&q.filter.Switch, "switch", "", "Only events of this switch")
	f.StringVar(&q.filter.User, "user", "", "Only events of this user")
	f.StringVar(&q.filter.Session, "session", "", "Only events of this session")
	f.StringVar(&q.kind, "type", "", "Only events of this type (connect, disconnect, command, rpc, commit)")
	f.DurationVar(&q.last, "last", 0, "Only events newer than this (e.g. 1h, 30m)")
	f.IntVar(&q.filter.Offset, "offset", 0, "Skip this many matching events")
	f.IntVar(&q.filter.Limit, "limit", 0, "Show at most this many events, oldest first")
	f.IntVar(&q.tail, "tail", 100, "Show the newest events only (0 for all)")
	f.BoolVar(&q.filter.FailureOnly, "failures", false, "Only failed events")
	f.BoolVar(&q.json, "json", false, "Print JSON")
}

func (q *auditQuery) run(out io.Writer) error {
	filter := q.filter
	filter.Type = audit.EventType(q.kind)
	if q.last > 0 {
		filter.StartTime = time.Now().Add(-q.last)
	}
	events, err := audit.Query(filter)
	if err != nil {
		return fmt.Errorf("querying audit log: %w", err)
	}
	if q.tail > 0 && len(events) > q.tail {
		events = events[len(events)-q.tail:]
	}

	if q.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(events)
	}
	if len(events) == 0 {
		fmt.Fprintln(out, "No audit events found")
		return nil
	}
	t := cli.NewTable(out, "TIMESTAMP", "SWITCH", "SESSION", "USER", "TRANSPORT", "TYPE", "DETAIL", "STATUS")
	for _, e := range events {
		t.Row(e.Timestamp.Format("2006-01-02 15:04:05"), e.Switch, e.Session, e.User,
			e.Transport, string(e.Type), detail(e), status(e))
	}
	t.Flush()
	return nil
}

// detail is the command for command and rpc events, the client for the
// others.
func detail(e *audit.Event) string {
	if e.Command != "" {
		return e.Command
	}
	return e.ClientIP
}

func status(e *audit.Event) string {
	switch {
	case e.Success:
		return cli.State("ok")
	case e.Error != "":
		return cli.State("failed") + ": " + e.Error
	}
	return cli.State("failed")
}

var auditList auditQuery

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit events",
	RunE: func(cmd *cobra.Command, args []string) error {
		return auditList.run(os.Stdout)
	},
}

func init() {
	auditList.bind(auditListCmd)
	auditCmd.AddCommand(auditListCmd)
}
