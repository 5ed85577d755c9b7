// Package repokit holds the seams SQL repos bind through
package repokit

import "ghdigest/internal/platform/store/pg"

// Queryer is what a bound repo may call; *pgxpool.Pool and pgx.Tx both satisfy it
type Queryer = pg.Querier
