package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	pkgAuth "github.com/jortegadev/ims-backend/pkg/auth"
	"github.com/jortegadev/ims-backend/pkg/config"
	"github.com/jortegadev/ims-backend/pkg/db/models"
	"github.com/jortegadev/ims-backend/pkg/enums"
	pkgerrors "github.com/jortegadev/ims-backend/pkg/errors"
	"github.com/jortegadev/ims-backend/pkg/security"
	"gorm.io/gorm"
)

type stubUserRepo struct {
	byUsername map[string]*models.User
	created    []*models.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byUsername: map[string]*models.User{}}
}

func (s *stubUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	s.byUsername[user.Username] = user
	s.created = append(s.created, user)
	return user, nil
}

func (s *stubUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	user, ok := s.byUsername[username]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (s *stubUserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, ok := s.byUsername[username]
	return ok, nil
}

type stubSessions struct {
	generated map[string]string
	revoked   []string
}

func newStubSessions() *stubSessions {
	return &stubSessions{generated: map[string]string{}}
}

func (s *stubSessions) Generate(ctx context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	s.generated[accessID] = token
	return token, nil
}

func (s *stubSessions) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	newID := uuid.NewString()
	delete(s.generated, oldAccessID)
	s.generated[newID] = "refresh-" + newID
	return newID, s.generated[newID], nil
}

func (s *stubSessions) Revoke(ctx context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	delete(s.generated, accessID)
	return nil
}

func testConfigs() (config.JWTConfig, config.PasswordConfig) {
	jwtCfg := config.JWTConfig{
		Secret:            "unit-test-secret",
		Issuer:            "ims-test",
		ExpirationMinutes: 15,
	}
	pwCfg := config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     8,
		ArgonKeyLen:      16,
	}
	return jwtCfg, pwCfg
}

func newTestService(t *testing.T, repo *stubUserRepo, sessions *stubSessions) Service {
	t.Helper()
	jwtCfg, pwCfg := testConfigs()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      jwtCfg,
		PasswordConfig: pwCfg,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func seedUser(t *testing.T, repo *stubUserRepo, username, password string, roles []string) *models.User {
	t.Helper()
	_, pwCfg := testConfigs()
	hash, err := security.HashPassword(password, pwCfg)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: hash,
		Roles:        roles,
		IsActive:     true,
	}
	repo.byUsername[username] = user
	return user
}

func TestLogin_Success(t *testing.T) {
	repo := newStubUserRepo()
	sessions := newStubSessions()
	seedUser(t, repo, "alice", "hunter2hunter2", []string{"ROLE_ADMIN"})

	svc := newTestService(t, repo, sessions)

	pair, err := svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "hunter2hunter2"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}
	if pair.TokenType != "Bearer" {
		t.Fatalf("expected Bearer token type, got %q", pair.TokenType)
	}

	jwtCfg, _ := testConfigs()
	claims, err := pkgAuth.ParseAccessToken(jwtCfg, pair.AccessToken)
	if err != nil {
		t.Fatalf("issued token failed to parse: %v", err)
	}
	if claims.Role != enums.RoleAdmin {
		t.Fatalf("expected admin role in claims, got %q", claims.Role)
	}
	if _, ok := sessions.generated[claims.ID]; !ok {
		t.Fatal("expected a session keyed by the token jti")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := newStubUserRepo()
	sessions := newStubSessions()
	seedUser(t, repo, "alice", "hunter2hunter2", nil)

	svc := newTestService(t, repo, sessions)

	_, err := svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "wrong"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	svc := newTestService(t, newStubUserRepo(), newStubSessions())

	_, err := svc.Login(context.Background(), LoginRequest{Username: "ghost", Password: "whatever"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED, got %v", err)
	}
}

func TestLogin_InactiveUser(t *testing.T) {
	repo := newStubUserRepo()
	user := seedUser(t, repo, "bob", "hunter2hunter2", nil)
	user.IsActive = false

	svc := newTestService(t, repo, newStubSessions())

	_, err := svc.Login(context.Background(), LoginRequest{Username: "bob", Password: "hunter2hunter2"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected UNAUTHORIZED for inactive user, got %v", err)
	}
}

func TestRegister_DefaultsToUserRole(t *testing.T) {
	repo := newStubUserRepo()
	svc := newTestService(t, repo, newStubSessions())

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Username: "carol",
		Password: "longenoughpw",
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if len(resp.Roles) != 1 || resp.Roles[0] != "ROLE_USER" {
		t.Fatalf("expected default ROLE_USER, got %v", resp.Roles)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one created user, got %d", len(repo.created))
	}
	if repo.created[0].PasswordHash == "longenoughpw" {
		t.Fatal("password must not be stored in plain text")
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	repo := newStubUserRepo()
	seedUser(t, repo, "carol", "longenoughpw", nil)
	svc := newTestService(t, repo, newStubSessions())

	_, err := svc.Register(context.Background(), RegisterRequest{
		Username: "carol",
		Password: "longenoughpw",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
}

func TestRefresh_RotatesSession(t *testing.T) {
	repo := newStubUserRepo()
	sessions := newStubSessions()
	seedUser(t, repo, "alice", "hunter2hunter2", []string{"ROLE_ADMIN"})
	svc := newTestService(t, repo, sessions)

	pair, err := svc.Login(context.Background(), LoginRequest{Username: "alice", Password: "hunter2hunter2"})
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}

	rotated, err := svc.Refresh(context.Background(), RefreshRequest{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
	if err != nil {
		t.Fatalf("Refresh returned error: %v", err)
	}
	if rotated.AccessToken == pair.AccessToken {
		t.Fatal("expected a freshly minted access token")
	}

	jwtCfg, _ := testConfigs()
	claims, err := pkgAuth.ParseAccessToken(jwtCfg, rotated.AccessToken)
	if err != nil {
		t.Fatalf("rotated token failed to parse: %v", err)
	}
	if claims.Username != "alice" {
		t.Fatalf("expected claims to carry over, got username %q", claims.Username)
	}
}

func TestLogout_RevokesSession(t *testing.T) {
	sessions := newStubSessions()
	svc := newTestService(t, newStubUserRepo(), sessions)

	if err := svc.Logout(context.Background(), "access-1"); err != nil {
		t.Fatalf("Logout returned error: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "access-1" {
		t.Fatalf("expected session access-1 revoked, got %v", sessions.revoked)
	}

	if err := svc.Logout(context.Background(), "  "); err == nil {
		t.Fatal("expected error for blank access id")
	}
}
