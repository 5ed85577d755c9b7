package pg

import (
	"context"
	"testing"
)

// WithTestDB opens a client against dsn and closes it on cleanup
func WithTestDB(t *testing.T, dsn string, fn func(p *PG)) {
	t.Helper()
	client, err := Open(context.Background(), Config{URL: dsn, AppName: "ghdigest-pg-integration"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(client.Close)
	fn(client)
}
