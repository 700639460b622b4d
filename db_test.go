package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveDSN(t *testing.T) {
	t.Setenv("DPS_DB_DSN", "")
	t.Setenv("DATABASE_URL", "")

	_, err := resolveDSN("  ")
	require.Error(t, err)

	t.Setenv("DATABASE_URL", "postgres://fallback")
	dsn, err := resolveDSN("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://fallback", dsn)

	t.Setenv("DPS_DB_DSN", "postgres://app")
	dsn, err = resolveDSN("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://app", dsn)

	dsn, err = resolveDSN("postgres://flag")
	require.NoError(t, err)
	assert.Equal(t, "postgres://flag", dsn)
}

func TestSeedRowsOrder(t *testing.T) {
	records, err := loadFixtures(fixturePath)
	require.NoError(t, err)
	records["001R0"] = recordFixture{Scopes: map[string]*DashboardPayload{
		"Z9": {},
		"A1": {},
		"NIL": nil,
	}}

	rows := seedRows(records)

	type key struct{ record, bac string }
	got := make([]key, 0, len(rows))
	for _, r := range rows {
		got = append(got, key{r.RecordID, r.BAC})
	}
	assert.Equal(t, []key{
		{"001R0", "A1"},
		{"001R0", "Z9"},
		{"001R1", ""},
		{"001R1", "B2"},
		{"001R2", ""},
	}, got)
}

// Runs against a real database when DPS_TEST_DB_DSN is set.
func TestPGQueryServiceIntegration(t *testing.T) {
	dsn := os.Getenv("DPS_TEST_DB_DSN")
	if dsn == "" {
		t.Skip("DPS_TEST_DB_DSN not set")
	}
	ctx := context.Background()

	db, err := openDB(ctx, dsn)
	require.NoError(t, err)
	svc := newPGQueryService(db, 5*time.Second)
	t.Cleanup(func() { _ = svc.Close() })

	records, err := loadFixtures(fixturePath)
	require.NoError(t, err)
	require.NoError(t, seedDatabase(ctx, db, seedRows(records), time.Now()))

	p, err := svc.InitialData(ctx, "001R1")
	require.NoError(t, err)
	assert.Equal(t, "B1", p.SelectedBAC)

	p, err = svc.DataForBAC(ctx, "001R1", "B2")
	require.NoError(t, err)
	assert.Len(t, p.Opportunities, 2)

	_, err = svc.DataForBAC(ctx, "001R1", "B404")
	assert.Equal(t, "no dashboard data for BAC B404", ErrorMessage(err))
}
