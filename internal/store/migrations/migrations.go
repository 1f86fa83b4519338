// Package migrations embeds the idempotent schema bootstrap SQL run by
// every process that owns a MySQL connection pool.
package migrations

import _ "embed"

//go:embed bootstrap.sql
var BootstrapSQL string
