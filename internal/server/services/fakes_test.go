package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/marketauth/internal/common"
	"github.com/dmitrijs2005/marketauth/internal/dbx"
	"github.com/dmitrijs2005/marketauth/internal/server/models"
	refreshtokensrepo "github.com/dmitrijs2005/marketauth/internal/server/repositories/refreshtokens"
	usersrepo "github.com/dmitrijs2005/marketauth/internal/server/repositories/users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// newTxDB returns a real *sql.DB so WithTx can begin and commit. The fakes
// below keep the actual data.
func newTxDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type memStore struct {
	mu     sync.Mutex
	users  map[string]*models.User // by id
	tokens map[string]*models.RefreshToken

	// failure injection
	usersErr  error
	tokensErr error
}

func newMemStore() *memStore {
	return &memStore{
		users:  map[string]*models.User{},
		tokens: map[string]*models.RefreshToken{},
	}
}

func (m *memStore) userCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users)
}

func (m *memStore) tokensOf(userID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, r := range m.tokens {
		if r.UserID == userID {
			out = append(out, r.Token)
		}
	}
	return out
}

func (m *memStore) hasToken(token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tokens[token]
	return ok
}

type memUsers struct{ s *memStore }

func (r memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.usersErr != nil {
		return nil, r.s.usersErr
	}
	for _, existing := range r.s.users {
		if existing.UserName == u.UserName {
			return nil, common.ErrDuplicateUsername
		}
		if existing.Email == u.Email {
			return nil, common.ErrDuplicateEmail
		}
	}
	cp := *u
	cp.ID = uuid.NewString()
	cp.RegisteredOn = time.Now().UTC().Truncate(24 * time.Hour)
	r.s.users[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r memUsers) find(match func(*models.User) bool) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.usersErr != nil {
		return nil, r.s.usersErr
	}
	for _, u := range r.s.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.UserName == login })
}

func (r memUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.Email == email })
}

func (r memUsers) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id })
}

type memTokens struct{ s *memStore }

func (r memTokens) Create(ctx context.Context, userID, token string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.tokensErr != nil {
		return nil, r.s.tokensErr
	}
	if _, ok := r.s.users[userID]; !ok {
		return nil, common.ErrorNotFound
	}
	rec := &models.RefreshToken{ID: uuid.NewString(), UserID: userID, Token: token, IssuedOn: time.Now()}
	r.s.tokens[token] = rec
	cp := *rec
	return &cp, nil
}

func (r memTokens) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.tokensErr != nil {
		return nil, r.s.tokensErr
	}
	rec, ok := r.s.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r memTokens) Delete(ctx context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.tokensErr != nil {
		return r.s.tokensErr
	}
	if _, ok := r.s.tokens[token]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.tokens, token)
	return nil
}

type fakeRepoManager struct{ s *memStore }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error            { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository                 { return memUsers{m.s} }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository { return memTokens{m.s} }

type flowEvent struct {
	flow string
	err  error
}

type recordingObserver struct {
	mu     sync.Mutex
	events []flowEvent
}

func (o *recordingObserver) ObserveFlow(flow string, err error, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, flowEvent{flow: flow, err: err})
}
