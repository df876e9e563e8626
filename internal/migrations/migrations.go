// Package migrations embeds the goose SQL migrations for the users and audit_logs tables.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
