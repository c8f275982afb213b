package state

import (
	"context"
	"testing"
	"time"

	"github.com/andresuchdata/salesreport/internal/config"
	"github.com/andresuchdata/salesreport/internal/domain"
	"github.com/stretchr/testify/require"
)

func sampleSource() domain.ActiveSource {
	start := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 5, 3, 10, 30, 0, 0, time.UTC)
	return domain.FileSource(&domain.Dataset{
		ID:         "ingest-1",
		FileName:   "may.csv",
		IngestedAt: time.Date(2025, 5, 4, 8, 0, 0, 0, time.UTC),
		Aggregates: &domain.Aggregates{
			Customers:     []domain.CustomerSales{{Name: "Alice", Amount: 150, Date: "2025-05-01", MemberIDs: []string{"1001"}, MemberID: "1001", StockiestID: "N/A"}},
			Branches:      []domain.BranchSales{{Branch: "PNH01A", Amount: 150, Date: "2025-05-01"}},
			DailyBranches: []string{"PNH01A"},
			Daily: []domain.DailyBranchSales{
				{Date: "2025-05-01", Amounts: map[string]float64{"PNH01A": 100}},
				{Date: "2025-05-03", Amounts: map[string]float64{"PNH01A": 50}},
			},
			PurchaseCount: 2,
		},
		DateRange: domain.DateRange{Start: &start, End: &end},
	})
}

func TestEncodeDecode(t *testing.T) {
	src := sampleSource()

	payload, err := Encode(src)
	require.NoError(t, err)
	require.Contains(t, string(payload), `"version":1`)
	require.Contains(t, string(payload), `"start":"2025-05-01T00:00:00Z"`)

	decoded, ok := Decode(payload)
	require.True(t, ok)
	require.Equal(t, domain.SourceFile, decoded.Kind())

	want, _ := src.Dataset()
	got, ok := decoded.Dataset()
	require.True(t, ok)
	require.Equal(t, want.FileName, got.FileName)
	require.Equal(t, want.Aggregates, got.Aggregates)
	require.True(t, want.DateRange.Start.Equal(*got.DateRange.Start))
	require.True(t, want.DateRange.End.Equal(*got.DateRange.End))
}

func TestEncodeNoSource(t *testing.T) {
	_, err := Encode(domain.NoSource())
	require.ErrorIs(t, err, ErrNothingToPersist)
}

func TestDecodeFailsClosed(t *testing.T) {
	cases := map[string]string{
		"empty":          ``,
		"malformed":      `{"version":1,`,
		"wrong version":  `{"version":2,"source":"file","data":{}}`,
		"missing data":   `{"version":1,"source":"file"}`,
		"unknown source": `{"version":1,"source":"ftp","data":{}}`,
		"none source":    `{"version":1,"source":"none","data":{}}`,
		"bad daily":      `{"version":1,"source":"file","data":{"salesByBranchDaily":[{"PNH01":1}]}}`,
		"bad date":       `{"version":1,"source":"file","data":{},"dateRange":{"start":"May 1"}}`,
	}

	for name, payload := range cases {
		src, ok := Decode([]byte(payload))
		require.False(t, ok, name)
		require.Equal(t, domain.SourceNone, src.Kind(), name)
	}
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	src, err := Restore(ctx, store)
	require.NoError(t, err)
	_, ok := src.Dataset()
	require.False(t, ok)

	require.NoError(t, Persist(ctx, store, sampleSource()))

	src, err = Restore(ctx, store)
	require.NoError(t, err)
	require.Equal(t, domain.SourceFile, src.Kind())

	require.NoError(t, store.Clear(ctx))
	payload, err := store.Load(ctx)
	require.NoError(t, err)
	require.Nil(t, payload)
	require.NoError(t, store.Close())
}

func TestRestoreIgnoresCorruptPayload(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, []byte("{garbage")))

	src, err := Restore(ctx, store)
	require.NoError(t, err)
	require.Equal(t, domain.SourceNone, src.Kind())
}

func TestNewSelectsBackend(t *testing.T) {
	store, err := New(&config.Config{State: config.StateConfig{Backend: "memory"}})
	require.NoError(t, err)
	require.IsType(t, &memoryStore{}, store)

	_, err = New(&config.Config{State: config.StateConfig{Backend: "etcd"}})
	require.Error(t, err)
}

func TestBuildRedisOptions(t *testing.T) {
	opts, err := buildRedisOptions(config.CacheConfig{RedisPassword: "secret", RedisDB: 2})
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:6379", opts.Addr)
	require.Equal(t, "secret", opts.Password)
	require.Equal(t, 2, opts.DB)

	opts, err = buildRedisOptions(config.CacheConfig{RedisURL: "redis://:pw@cache:6380/1"})
	require.NoError(t, err)
	require.Equal(t, "cache:6380", opts.Addr)
	require.Equal(t, 1, opts.DB)

	_, err = buildRedisOptions(config.CacheConfig{RedisURL: "http://nope"})
	require.Error(t, err)
}
