package main

import (
	"fmt"
	"time"

	"gatecontrol-hq/gatecontrol/pkg/audit"
	"gatecontrol-hq/gatecontrol/pkg/cli"
	"gatecontrol-hq/gatecontrol/pkg/model"

	"github.com/spf13/cobra"
)

var auditFlags struct {
	entityType string
	entityID   string
	actor      string
	action     string
	since      string
	limit      int
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the audit trail",
}

var auditQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query audit entries, newest first",
	Long: `Query the audit trail. When audit.index.enabled is set the SQLite index is
queried; otherwise entries are read from the store.

Examples:
  gatecontrol audit query --entity-type Route --limit 20
  gatecontrol audit query --actor alice --since 24h
  gatecontrol audit query --action Publish --since 2026-01-01T00:00:00Z -o csv`,
	Args: cobra.NoArgs,
	RunE: runAuditQuery,
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.AddCommand(auditQueryCmd)

	f := auditQueryCmd.Flags()
	f.StringVar(&auditFlags.entityType, "entity-type", "", "filter by entity type (Environment, Service, Route, ChangeRequest)")
	f.StringVar(&auditFlags.entityID, "entity-id", "", "filter by entity id")
	f.StringVar(&auditFlags.actor, "actor", "", "filter by actor")
	f.StringVar(&auditFlags.action, "action", "", "filter by action")
	f.StringVar(&auditFlags.since, "since", "", "only entries after this RFC 3339 time or duration ago (e.g. 24h)")
	f.IntVar(&auditFlags.limit, "limit", audit.DefaultQueryLimit, "maximum number of entries")
}

// parseSince accepts an RFC 3339 timestamp or a duration before now.
func parseSince(s string, now time.Time) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		t := now.Add(-d)
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid --since %q: want RFC 3339 time or duration", s)
	}
	return &t, nil
}

func runAuditQuery(cmd *cobra.Command, _ []string) error {
	since, err := parseSince(auditFlags.since, time.Now())
	if err != nil {
		return cli.NewCommandError("audit query", err)
	}
	filter := &audit.Filter{
		EntityType: auditFlags.entityType,
		EntityID:   auditFlags.entityID,
		Actor:      auditFlags.actor,
		Action:     auditFlags.action,
		Since:      since,
		Limit:      auditFlags.limit,
	}

	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return cli.NewCommandError("audit query", err)
	}
	defer a.Close()

	var entries []model.AuditLogEntry
	if a.auditIndex != nil {
		entries, err = a.auditIndex.Query(cmd.Context(), filter)
		if err != nil {
			return cli.NewCommandError("audit query", err)
		}
	} else {
		entries = filter.Apply(a.store.AuditLogs())
	}
	return printResult(cmd, auditTable(entries))
}
