package auth

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/atmosai/atmosai/internal/domain/profile"
)

func testConfig() Config {
	return Config{
		Secret:     "test-secret",
		SessionTTL: time.Hour,
	}
}

func TestService_RegisterAndLogin(t *testing.T) {
	repo := newStubRepo()
	sessions := newStubSessions()
	svc := NewService(testConfig(), repo, sessions, newStubProfiles(), newTestLogger())

	view, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "User@Example.com",
		Password: "pass1234",
		Name:     "Asha Rao",
	})
	require.NoError(t, err)
	require.Equal(t, "user@example.com", view.Email)
	require.Equal(t, "Asha Rao", view.Name)
	require.NotZero(t, view.ID)

	session, err := svc.Login(context.Background(), LoginRequest{
		Email:    "user@example.com",
		Password: "pass1234",
	})
	require.NoError(t, err)
	require.NotEmpty(t, session.Token)
	require.Equal(t, view.ID, session.User.ID)
	require.True(t, session.ExpiresAt.After(time.Now()))

	claims, err := svc.ValidateSession(context.Background(), session.Token)
	require.NoError(t, err)
	require.Equal(t, view.ID, claims.UserID)
	require.Equal(t, "user@example.com", claims.Email)
	require.NotEmpty(t, claims.SessionID)
}

func TestService_RegisterRejectsDuplicateEmail(t *testing.T) {
	svc := NewService(testConfig(), newStubRepo(), newStubSessions(), newStubProfiles(), newTestLogger())

	req := RegisterRequest{Email: "dup@example.com", Password: "pass1234", Name: "First"}
	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), req)
	require.Error(t, err)
	require.Contains(t, err.Error(), "already registered")
}

func TestService_RegisterRejectsShortPassword(t *testing.T) {
	svc := NewService(testConfig(), newStubRepo(), newStubSessions(), newStubProfiles(), newTestLogger())

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "short@example.com",
		Password: "short",
		Name:     "Short",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "at least 8 characters")
}

func TestService_LoginRejectsWrongPassword(t *testing.T) {
	svc := NewService(testConfig(), newStubRepo(), newStubSessions(), newStubProfiles(), newTestLogger())

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "user@example.com",
		Password: "pass1234",
		Name:     "User",
	})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{
		Email:    "user@example.com",
		Password: "wrong-password",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid email or password")
}

func TestService_LogoutRevokesSession(t *testing.T) {
	svc := NewService(testConfig(), newStubRepo(), newStubSessions(), newStubProfiles(), newTestLogger())

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "user@example.com",
		Password: "pass1234",
		Name:     "User",
	})
	require.NoError(t, err)

	session, err := svc.Login(context.Background(), LoginRequest{
		Email:    "user@example.com",
		Password: "pass1234",
	})
	require.NoError(t, err)

	claims, err := svc.ValidateSession(context.Background(), session.Token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), claims))

	_, err = svc.ValidateSession(context.Background(), session.Token)
	require.Error(t, err)
	require.Contains(t, err.Error(), "revoked")
}

func TestService_ValidateSessionRejectsGarbage(t *testing.T) {
	svc := NewService(testConfig(), newStubRepo(), newStubSessions(), newStubProfiles(), newTestLogger())

	_, err := svc.ValidateSession(context.Background(), "")
	require.Error(t, err)

	_, err = svc.ValidateSession(context.Background(), "not-a-jwt")
	require.Error(t, err)
}

func TestService_Me(t *testing.T) {
	svc := NewService(testConfig(), newStubRepo(), newStubSessions(), newStubProfiles(), newTestLogger())

	view, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "user@example.com",
		Password: "pass1234",
		Name:     "User",
	})
	require.NoError(t, err)

	got, err := svc.Me(context.Background(), view.ID)
	require.NoError(t, err)
	require.Equal(t, view.Email, got.Email)

	_, err = svc.Me(context.Background(), 9999)
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestService_RegisterSeedsDefaultProfile(t *testing.T) {
	profiles := newStubProfiles()
	svc := NewService(testConfig(), newStubRepo(), newStubSessions(), profiles, newTestLogger())

	view, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "new@example.com",
		Password: "pass1234",
		Name:     "New User",
	})
	require.NoError(t, err)
	require.Contains(t, profiles.seeded, view.ID)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubProfiles struct {
	mu     sync.Mutex
	seeded map[int64]bool
}

func newStubProfiles() *stubProfiles {
	return &stubProfiles{seeded: make(map[int64]bool)}
}

func (p *stubProfiles) Get(_ context.Context, _ int64) (profile.HealthProfile, error) {
	return profile.HealthProfile{}, nil
}

func (p *stubProfiles) Update(_ context.Context, _ int64, _ profile.Patch) (profile.HealthProfile, error) {
	return profile.HealthProfile{}, nil
}

func (p *stubProfiles) EnsureDefault(_ context.Context, userID int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seeded[userID] = true
	return nil
}

type stubRepo struct {
	mu         sync.Mutex
	nextID     int64
	byEmail    map[string]User
	identities map[string]Identity
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		nextID:     1,
		byEmail:    make(map[string]User),
		identities: make(map[string]Identity),
	}
}

func (r *stubRepo) Create(_ context.Context, email, name, passwordHash string) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[email]; exists {
		return User{}, ErrEmailExists
	}
	user := User{
		ID:           r.nextID,
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	r.nextID++
	r.byEmail[email] = user
	return user, nil
}

func (r *stubRepo) GetByEmail(_ context.Context, email string) (User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.byEmail[email]
	return user, ok, nil
}

func (r *stubRepo) GetByID(_ context.Context, id int64) (User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.byEmail {
		if user.ID == id {
			return user, true, nil
		}
	}
	return User{}, false, nil
}

func (r *stubRepo) GetIdentity(_ context.Context, provider, subject string) (Identity, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	identity, ok := r.identities[provider+":"+subject]
	return identity, ok, nil
}

func (r *stubRepo) GetIdentityByUser(_ context.Context, userID int64, provider string) (Identity, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, identity := range r.identities {
		if identity.UserID == userID && identity.Provider == provider {
			return identity, true, nil
		}
	}
	return Identity{}, false, nil
}

func (r *stubRepo) UpsertIdentity(_ context.Context, identity Identity) (Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.identities[identity.Provider+":"+identity.ProviderSubject] = identity
	return identity, nil
}

type stubSessions struct {
	mu    sync.Mutex
	alive map[string]int64
}

func newStubSessions() *stubSessions {
	return &stubSessions{alive: make(map[string]int64)}
}

func (s *stubSessions) Save(_ context.Context, sessionID string, userID int64, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alive[sessionID] = userID
	return nil
}

func (s *stubSessions) Get(_ context.Context, sessionID string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.alive[sessionID]
	return userID, ok, nil
}

func (s *stubSessions) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.alive, sessionID)
	return nil
}
