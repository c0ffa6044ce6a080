package coins

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore implements Store and Tx in memory. RunAward is not concurrent-safe
// and does not simulate rollback; these tests exercise the decision sequence,
// the Postgres store owns the isolation guarantees.
type memStore struct {
	awards      map[string]*CoinAward
	sheetStamps map[string]int
	watermarks  map[string]int
	totals      map[uuid.UUID]int
	byLang      map[uuid.UUID]map[string]int
}

func newMemStore() *memStore {
	return &memStore{
		awards:      map[string]*CoinAward{},
		sheetStamps: map[string]int{},
		watermarks:  map[string]int{},
		totals:      map[uuid.UUID]int{},
		byLang:      map[uuid.UUID]map[string]int{},
	}
}

func (m *memStore) setSheet(userID uuid.UUID, primary, target string, stamp int) {
	m.sheetStamps[userID.String()+"/"+PairKey(primary, target)] = stamp
}

func (m *memStore) RunAward(ctx context.Context, fn func(tx Tx) error) error {
	return fn(m)
}

func (m *memStore) Stats(ctx context.Context, userID uuid.UUID) (*UserCoinStats, error) {
	byLang := m.byLang[userID]
	if byLang == nil {
		byLang = map[string]int{}
	}
	return &UserCoinStats{UserID: userID, CoinTotal: m.totals[userID], CoinsByLang: byLang}, nil
}

func (m *memStore) LastAwardedCount(ctx context.Context, userID uuid.UUID, primary, target string) (*int, error) {
	return m.LastAwarded(ctx, userID, PairKey(primary, target))
}

func (m *memStore) GetAward(ctx context.Context, userID uuid.UUID, versionKey string) (*CoinAward, error) {
	return m.awards[userID.String()+"/"+versionKey], nil
}

func (m *memStore) SheetStamp(ctx context.Context, userID uuid.UUID, primary, target string) (*int, error) {
	stamp, ok := m.sheetStamps[userID.String()+"/"+PairKey(primary, target)]
	if !ok {
		return nil, nil
	}
	return &stamp, nil
}

func (m *memStore) LastAwarded(ctx context.Context, userID uuid.UUID, pairKey string) (*int, error) {
	count, ok := m.watermarks[userID.String()+"/"+pairKey]
	if !ok {
		return nil, nil
	}
	return &count, nil
}

func (m *memStore) PutAward(ctx context.Context, award *CoinAward) error {
	key := award.UserID.String() + "/" + award.VersionKey
	if _, exists := m.awards[key]; exists {
		return ErrDuplicateAward
	}
	m.awards[key] = award
	return nil
}

func (m *memStore) SetLastAwarded(ctx context.Context, userID uuid.UUID, pairKey string, count int) error {
	m.watermarks[userID.String()+"/"+pairKey] = count
	return nil
}

func (m *memStore) AddCoins(ctx context.Context, userID uuid.UUID, lang string, amount int) (int, error) {
	m.totals[userID] += amount
	if m.byLang[userID] == nil {
		m.byLang[userID] = map[string]int{}
	}
	m.byLang[userID][lang] += amount
	return m.totals[userID], nil
}

func awardReq(stamp, score int) *AwardRequest {
	return &AwardRequest{
		AttemptID:              uuid.New(),
		PrimaryLang:            "en",
		TargetLang:             "es",
		HistoryCountAtGenerate: stamp,
		TotalScore:             score,
	}
}

func TestAward(t *testing.T) {
	ctx := context.Background()

	t.Run("first award for a pair has no increment requirement", func(t *testing.T) {
		store := newMemStore()
		userID := uuid.New()
		store.setSheet(userID, "en", "es", 30)
		svc := NewService(store, nil)

		result, err := svc.Award(ctx, userID, awardReq(30, 8))
		require.NoError(t, err)
		assert.True(t, result.Awarded)
		assert.Equal(t, 8, result.CoinsAwarded)
		assert.Equal(t, 8, result.NewTotal)

		stats, err := svc.Stats(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 8, stats.CoinTotal)
		assert.Equal(t, 8, stats.CoinsByLang["es"])

		last, err := svc.LastAwardedCount(ctx, userID, "en", "es")
		require.NoError(t, err)
		require.NotNil(t, last)
		assert.Equal(t, 30, *last)
	})

	t.Run("retrying an awarded version is a no-op", func(t *testing.T) {
		store := newMemStore()
		userID := uuid.New()
		store.setSheet(userID, "en", "es", 30)
		svc := NewService(store, nil)

		first, err := svc.Award(ctx, userID, awardReq(30, 8))
		require.NoError(t, err)
		require.True(t, first.Awarded)

		second, err := svc.Award(ctx, userID, awardReq(30, 8))
		require.NoError(t, err)
		assert.False(t, second.Awarded)
		assert.Equal(t, ReasonAlreadyAwarded, second.Reason)

		stats, err := svc.Stats(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 8, stats.CoinTotal)
	})

	t.Run("zero score never enters the transaction", func(t *testing.T) {
		userID := uuid.New()
		svc := NewService(failingStore{}, nil)

		result, err := svc.Award(ctx, userID, awardReq(30, 0))
		require.NoError(t, err)
		assert.False(t, result.Awarded)
		assert.Equal(t, ReasonZeroScore, result.Reason)
	})

	t.Run("no sheet", func(t *testing.T) {
		store := newMemStore()
		userID := uuid.New()
		svc := NewService(store, nil)

		result, err := svc.Award(ctx, userID, awardReq(30, 8))
		require.NoError(t, err)
		assert.False(t, result.Awarded)
		assert.Equal(t, ReasonNoSheet, result.Reason)
	})

	t.Run("invalid sheet stamp", func(t *testing.T) {
		store := newMemStore()
		userID := uuid.New()
		store.setSheet(userID, "en", "es", 0)
		svc := NewService(store, nil)

		result, err := svc.Award(ctx, userID, awardReq(0, 8))
		require.NoError(t, err)
		assert.False(t, result.Awarded)
		assert.Equal(t, ReasonInvalidSheet, result.Reason)
	})

	t.Run("version mismatch against the stored sheet", func(t *testing.T) {
		store := newMemStore()
		userID := uuid.New()
		store.setSheet(userID, "en", "es", 35)
		svc := NewService(store, nil)

		result, err := svc.Award(ctx, userID, awardReq(30, 8))
		require.NoError(t, err)
		assert.False(t, result.Awarded)
		assert.Equal(t, ReasonVersionMismatch, result.Reason)
	})

	t.Run("insufficient growth reports the shortfall", func(t *testing.T) {
		store := newMemStore()
		userID := uuid.New()
		store.setSheet(userID, "en", "es", 35)
		store.watermarks[userID.String()+"/"+PairKey("en", "es")] = 30
		svc := NewService(store, nil)

		result, err := svc.Award(ctx, userID, awardReq(35, 6))
		require.NoError(t, err)
		assert.False(t, result.Awarded)
		assert.Equal(t, ReasonInsufficientRecords, result.Reason)
		assert.Equal(t, 5, result.Needed)
	})

	t.Run("duplicate ledger insert maps to already_awarded", func(t *testing.T) {
		store := newMemStore()
		userID := uuid.New()
		store.setSheet(userID, "en", "es", 30)
		// Simulate the race loser: the ledger row exists but the initial
		// read missed it.
		store.awards[userID.String()+"/"+VersionKey("en", "es", 30)] = &CoinAward{}
		raced := &racingStore{memStore: store}
		svc := NewService(raced, nil)

		result, err := svc.Award(ctx, userID, awardReq(30, 8))
		require.NoError(t, err)
		assert.False(t, result.Awarded)
		assert.Equal(t, ReasonAlreadyAwarded, result.Reason)
	})
}

// TestAwardProgression walks a pair through three quiz versions and checks
// the watermark gates each payout.
func TestAwardProgression(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	userID := uuid.New()
	svc := NewService(store, nil)

	// Version 30: first award, no increment requirement.
	store.setSheet(userID, "en", "es", 30)
	result, err := svc.Award(ctx, userID, awardReq(30, 8))
	require.NoError(t, err)
	require.True(t, result.Awarded)
	assert.Equal(t, 8, result.NewTotal)

	// Version 35: only +5 past the watermark, denied with the shortfall.
	store.setSheet(userID, "en", "es", 35)
	result, err = svc.Award(ctx, userID, awardReq(35, 6))
	require.NoError(t, err)
	assert.False(t, result.Awarded)
	assert.Equal(t, ReasonInsufficientRecords, result.Reason)
	assert.Equal(t, 5, result.Needed)

	// Version 40: +10 past the watermark, awarded again.
	store.setSheet(userID, "en", "es", 40)
	result, err = svc.Award(ctx, userID, awardReq(40, 10))
	require.NoError(t, err)
	require.True(t, result.Awarded)
	assert.Equal(t, 18, result.NewTotal)

	// The denied version never reached the ledger or the watermark.
	last, err := svc.LastAwardedCount(ctx, userID, "en", "es")
	require.NoError(t, err)
	assert.Equal(t, 40, *last)
	assert.Len(t, store.awards, 2)
}

// failingStore panics if the award transaction is entered at all.
type failingStore struct{}

func (failingStore) RunAward(ctx context.Context, fn func(tx Tx) error) error {
	panic("transaction entered for a zero-score claim")
}

func (failingStore) Stats(ctx context.Context, userID uuid.UUID) (*UserCoinStats, error) {
	return nil, nil
}

func (failingStore) LastAwardedCount(ctx context.Context, userID uuid.UUID, primary, target string) (*int, error) {
	return nil, nil
}

// racingStore hides existing awards from the initial read so PutAward's
// duplicate detection is what stops the double payout.
type racingStore struct {
	*memStore
}

func (r *racingStore) RunAward(ctx context.Context, fn func(tx Tx) error) error {
	return fn(r)
}

func (r *racingStore) GetAward(ctx context.Context, userID uuid.UUID, versionKey string) (*CoinAward, error) {
	return nil, nil
}

func TestVersionKey(t *testing.T) {
	assert.Equal(t, "en__es__30", VersionKey("en", "es", 30))
	assert.Equal(t, "en__es", PairKey("en", "es"))
}

func TestStatsForNewUser(t *testing.T) {
	store := newMemStore()
	svc := NewService(store, nil)

	stats, err := svc.Stats(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.CoinTotal)
	assert.Empty(t, stats.CoinsByLang)
	assert.True(t, stats.UpdatedAt.IsZero())
}
