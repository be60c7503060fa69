// Package migrations embeds the photo_sessions schema.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
