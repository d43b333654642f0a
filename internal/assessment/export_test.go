package assessment

import "database/sql"

// Test seams for assessment_test. This file only compiles during `go test`.

// Execer aliases the internal exec interface so external tests can
// inject write-path hooks.
type Execer = execer

// DB exposes the internal *sql.DB for test helpers.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SetExecHook overrides the write-path hook for fault injection.
func (s *Store) SetExecHook(hook func(db Execer, query string, args ...any) (sql.Result, error)) {
	s.hooks.exec = hook
}

// SetLogf redirects the store's swallowed-failure log line.
func (s *Store) SetLogf(logf func(format string, args ...any)) {
	s.logf = logf
}
