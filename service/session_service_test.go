// service/session_service_test.go
package service

import (
	"database/sql"
	"go-habit-auth/model"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// memTokenRepo is a thread-safe in-memory ITokenRepository. The mutex gives
// it the same per-key atomicity the real store gets from row-level locking,
// which is what the rotation race test exercises.
type memTokenRepo struct {
	mu      sync.Mutex
	records map[int64]model.RefreshToken
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{records: make(map[int64]model.RefreshToken)}
}

func (r *memTokenRepo) Save(token *model.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[token.MemberID] = *token
	return nil
}

func (r *memTokenRepo) Find(memberID int64) (*model.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[memberID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &record, nil
}

func (r *memTokenRepo) Delete(memberID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, memberID)
	return nil
}

func (r *memTokenRepo) DeleteIfMatches(memberID int64, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[memberID]
	if !ok || record.Token != token {
		return false, nil
	}
	delete(r.records, memberID)
	return true, nil
}

func (r *memTokenRepo) DeleteExpired(now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for memberID, record := range r.records {
		if record.ExpiresAt.Before(now) {
			delete(r.records, memberID)
			deleted++
		}
	}
	return deleted, nil
}

// memBlacklistRepo is a thread-safe in-memory IBlacklistRepository.
type memBlacklistRepo struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func newMemBlacklistRepo() *memBlacklistRepo {
	return &memBlacklistRepo{entries: make(map[string]time.Time)}
}

func (r *memBlacklistRepo) Add(entry *model.BlacklistedToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[entry.TokenHash] = entry.ExpiresAt
	return nil
}

func (r *memBlacklistRepo) Contains(tokenHash string, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	expiresAt, ok := r.entries[tokenHash]
	if !ok {
		return false, nil
	}
	if !expiresAt.After(now) {
		delete(r.entries, tokenHash)
		return false, nil
	}
	return true, nil
}

func (r *memBlacklistRepo) DeleteExpired(now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for tokenHash, expiresAt := range r.entries {
		if expiresAt.Before(now) {
			delete(r.entries, tokenHash)
			deleted++
		}
	}
	return deleted, nil
}

type sessionFixture struct {
	clock         *fakeClock
	codec         *TokenCodec
	validator     *TokenValidator
	tokenRepo     *memTokenRepo
	blacklistRepo *memBlacklistRepo
	sessions      *SessionService
}

func newSessionFixture() *sessionFixture {
	clock := newFakeClock()
	codec := newTestCodec(clock)
	tokenRepo := newMemTokenRepo()
	blacklistRepo := newMemBlacklistRepo()
	validator := NewTokenValidator(codec, tokenRepo, blacklistRepo, clock)
	return &sessionFixture{
		clock:         clock,
		codec:         codec,
		validator:     validator,
		tokenRepo:     tokenRepo,
		blacklistRepo: blacklistRepo,
		sessions:      NewSessionService(codec, validator, tokenRepo, blacklistRepo, clock),
	}
}

func TestSessionService_LoginStoresIssuedRefreshToken(t *testing.T) {
	f := newSessionFixture()

	pair, err := f.sessions.Login(42, "member@example.com", "kakao-42")
	assert.NoError(t, err)

	stored, err := f.tokenRepo.Find(42)
	assert.NoError(t, err)
	assert.Equal(t, pair.RefreshToken, stored.Token)
	assert.Equal(t, pair.RefreshExpiresAt.Unix(), stored.ExpiresAt.Unix())
}

func TestSessionService_LoginReplacesPriorSession(t *testing.T) {
	f := newSessionFixture()

	first, err := f.sessions.Login(42, "member@example.com", "kakao-42")
	assert.NoError(t, err)
	second, err := f.sessions.Login(42, "member@example.com", "kakao-42")
	assert.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The first session's refresh token is dead the moment the second login lands.
	_, err = f.sessions.Refresh(first.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	stored, err := f.tokenRepo.Find(42)
	assert.NoError(t, err)
	assert.Equal(t, second.RefreshToken, stored.Token)
}

func TestSessionService_RefreshRotatesToken(t *testing.T) {
	f := newSessionFixture()

	pair1, err := f.sessions.Login(42, "member@example.com", "kakao-42")
	assert.NoError(t, err)

	pair2, err := f.sessions.Refresh(pair1.RefreshToken)
	assert.NoError(t, err)
	assert.NotEqual(t, pair1.RefreshToken, pair2.RefreshToken)
	assert.NotEqual(t, pair1.AccessToken, pair2.AccessToken)

	// Replaying the consumed token must fail with the same external shape
	// as any other invalid refresh token.
	_, err = f.sessions.Refresh(pair1.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	// The rotated-in token keeps working.
	pair3, err := f.sessions.Refresh(pair2.RefreshToken)
	assert.NoError(t, err)
	assert.NotEqual(t, pair2.RefreshToken, pair3.RefreshToken)
}

func TestSessionService_RefreshExpiredToken(t *testing.T) {
	f := newSessionFixture()

	pair, err := f.sessions.Login(42, "member@example.com", "kakao-42")
	assert.NoError(t, err)

	f.clock.Advance(25 * time.Hour)

	_, err = f.sessions.Refresh(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestSessionService_RefreshAfterLogout(t *testing.T) {
	f := newSessionFixture()

	pair, err := f.sessions.Login(42, "member@example.com", "kakao-42")
	assert.NoError(t, err)

	assert.NoError(t, f.sessions.Logout(pair.AccessToken, pair.RefreshToken))

	_, err = f.sessions.Refresh(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestSessionService_LogoutBlacklistsAccessToken(t *testing.T) {
	f := newSessionFixture()

	pair, err := f.sessions.Login(42, "member@example.com", "kakao-42")
	assert.NoError(t, err)

	claims, err := f.validator.ValidateAccess(pair.AccessToken)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), claims.MemberID)

	assert.NoError(t, f.sessions.Logout(pair.AccessToken, ""))

	_, err = f.validator.ValidateAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenBlacklisted)

	// The blacklist entry mirrors the token's own expiry: once the token is
	// naturally dead, the entry no longer answers true.
	f.clock.Advance(31 * time.Minute)
	revoked, err := f.blacklistRepo.Contains(HashToken(pair.AccessToken), f.clock.Now())
	assert.NoError(t, err)
	assert.False(t, revoked)
}

func TestSessionService_LogoutWithRefreshTokenOnly(t *testing.T) {
	f := newSessionFixture()

	pair, err := f.sessions.Login(42, "member@example.com", "kakao-42")
	assert.NoError(t, err)

	assert.NoError(t, f.sessions.Logout("", pair.RefreshToken))

	_, err = f.tokenRepo.Find(42)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSessionService_LogoutWithNoResolvableToken(t *testing.T) {
	f := newSessionFixture()

	err := f.sessions.Logout("", "")
	assert.ErrorIs(t, err, ErrTokenMalformed)
	assert.True(t, IsAuthFailure(err))
}

func TestSessionService_ConcurrentRefreshSingleWinner(t *testing.T) {
	f := newSessionFixture()

	pair, err := f.sessions.Login(42, "member@example.com", "kakao-42")
	assert.NoError(t, err)

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)

	results := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := f.sessions.Refresh(pair.RefreshToken)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	success := 0
	failed := 0
	for err := range results {
		if err == nil {
			success++
			continue
		}
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
		failed++
	}

	assert.Equal(t, 1, success, "exactly one concurrent refresh may win")
	assert.Equal(t, n-1, failed)

	// Exactly one session survives the race.
	stored, err := f.tokenRepo.Find(42)
	assert.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, stored.Token)
}
