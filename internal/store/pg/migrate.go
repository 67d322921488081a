package pg

import (
	"context"
	"io/fs"
	"sort"
)

// RunMigrations applies every *.sql file in fsys in lexical order. Files are
// idempotent (CREATE IF NOT EXISTS), so re-running on boot is safe.
func (s *Store) RunMigrations(ctx context.Context, fsys fs.FS) error {
	entries, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return err
	}
	sort.Strings(entries)
	for _, name := range entries {
		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		if _, err := s.pool.Exec(ctx, string(b)); err != nil {
			return err
		}
	}
	return nil
}
