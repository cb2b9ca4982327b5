// Package migrations embeds the goose SQL migrations, one directory per
// database dialect.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
)

//go:embed postgres/*.sql sqlite/*.sql
var Migrations embed.FS

// Dir returns the migration files for the named dialect directory
// ("postgres" or "sqlite") rooted at that directory.
func Dir(dialect string) (fs.FS, error) {
	sub, err := fs.Sub(Migrations, dialect)
	if err != nil {
		return nil, fmt.Errorf("migrations for %q: %w", dialect, err)
	}
	return sub, nil
}
