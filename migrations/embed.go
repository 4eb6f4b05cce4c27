// Package migrations embeds the SQL schema so the server and tests apply the
// same migrations through goose without depending on a filesystem path.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
