//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"campusid/internal/credential/lockout/store"
	"campusid/pkg/testutil/containers"
)

func TestPostgresContract(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	pg := containers.GetManager().GetPostgres(t)
	suite.Run(t, &ContractSuite{
		newStore: func() lockoutStore { return store.NewPostgres(pg.DB) },
		reset: func() {
			if err := pg.TruncateTables(context.Background(), "auth_lockouts"); err != nil {
				t.Fatalf("truncate auth_lockouts: %v", err)
			}
		},
	})
}
