package config

import (
	"fmt"
	"strconv"
)

// SummaryItem is one line of the configuration summary shown before a run.
type SummaryItem struct {
	Key   string
	Value string
}

// Summary lists the settings an operator should review before confirming a
// run. The password is never included.
func (c *Config) Summary() []SummaryItem {
	password := "<not set>"
	if c.Database.Password != "" {
		password = "********"
	}

	return []SummaryItem{
		{"database.host", fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port)},
		{"database.name", c.Database.Name},
		{"database.user", c.Database.User},
		{"database.password", password},
		{"database.schema", c.Database.Schema},
		{"retention.start_date", c.Retention.StartDate},
		{"retention.offset_table", c.Retention.OffsetTable},
		{"run.dry_run", strconv.FormatBool(c.Run.DryRun)},
		{"run.on_error", c.Run.OnError},
		{"journal.enabled", strconv.FormatBool(c.Journal.Enabled)},
		{"telemetry.logging.dir", c.Telemetry.Logging.Dir},
	}
}
