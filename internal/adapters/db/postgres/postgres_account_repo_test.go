package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/model"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&model.Account{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newAccount(username string) model.Account {
	now := time.Now().UTC()
	return model.Account{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: "h",
		Roles:        []string{model.RoleUser, model.RoleAuditor},
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestPostgresAccountRepo_CreateAndGet(t *testing.T) {
	repo := NewPostgresAccountRepo(setupDB(t))
	ctx := context.Background()
	acc := newAccount("alice")

	id, err := repo.CreateAccount(ctx, acc)
	if err != nil || id != acc.ID {
		t.Fatalf("create %v", err)
	}
	got, err := repo.GetAccountByUsername(ctx, "alice")
	if err != nil || got.ID != acc.ID {
		t.Fatalf("get by username %v", err)
	}
	got2, err := repo.GetAccountByID(ctx, acc.ID)
	if err != nil || got2.Username != "alice" {
		t.Fatalf("get by id %v", err)
	}
	if len(got2.Roles) != 2 || got2.Roles[1] != model.RoleAuditor {
		t.Fatalf("roles not round-tripped: %v", got2.Roles)
	}
	if got2.HasSession() {
		t.Fatal("new account must start without a session")
	}
	if _, err := repo.GetAccountByID(ctx, uuid.New()); !errors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := repo.GetAccountByUsername(ctx, "bob"); !errors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPostgresAccountRepo_DuplicateUsername(t *testing.T) {
	repo := NewPostgresAccountRepo(setupDB(t))
	ctx := context.Background()

	if _, err := repo.CreateAccount(ctx, newAccount("alice")); err != nil {
		t.Fatalf("create %v", err)
	}
	if _, err := repo.CreateAccount(ctx, newAccount("alice")); !errors.IsAlreadyExists(err) {
		t.Fatalf("expected already exists, got %v", err)
	}
}

func TestPostgresAccountRepo_RefreshSlot(t *testing.T) {
	repo := NewPostgresAccountRepo(setupDB(t))
	ctx := context.Background()
	acc := newAccount("alice")
	if _, err := repo.CreateAccount(ctx, acc); err != nil {
		t.Fatalf("create %v", err)
	}

	if err := repo.SetRefreshHash(ctx, acc.ID, "h1"); err != nil {
		t.Fatalf("set %v", err)
	}
	if err := repo.SwapRefreshHash(ctx, acc.ID, "h1", "h2"); err != nil {
		t.Fatalf("swap %v", err)
	}
	if err := repo.SwapRefreshHash(ctx, acc.ID, "h1", "h3"); !errors.IsStaleSession(err) {
		t.Fatalf("expected stale session, got %v", err)
	}
	got, _ := repo.GetAccountByID(ctx, acc.ID)
	if got.CurrentRefreshTokenHash != "h2" {
		t.Fatalf("slot = %q, want h2", got.CurrentRefreshTokenHash)
	}
	if got.UpdatedAt.Before(acc.UpdatedAt) {
		t.Fatal("updated_at went backwards")
	}

	if err := repo.SetRefreshHash(ctx, acc.ID, ""); err != nil {
		t.Fatalf("clear %v", err)
	}
	got, _ = repo.GetAccountByID(ctx, acc.ID)
	if got.HasSession() {
		t.Fatal("slot should be empty after clear")
	}

	if err := repo.SetRefreshHash(ctx, uuid.New(), "x"); !errors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := repo.SwapRefreshHash(ctx, uuid.New(), "", "x"); !errors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPostgresAccountRepo_SetActive(t *testing.T) {
	repo := NewPostgresAccountRepo(setupDB(t))
	ctx := context.Background()
	acc := newAccount("alice")
	if _, err := repo.CreateAccount(ctx, acc); err != nil {
		t.Fatalf("create %v", err)
	}
	if err := repo.SetRefreshHash(ctx, acc.ID, "h1"); err != nil {
		t.Fatalf("set %v", err)
	}

	if err := repo.SetActive(ctx, acc.ID, false); err != nil {
		t.Fatalf("deactivate %v", err)
	}
	got, _ := repo.GetAccountByID(ctx, acc.ID)
	if got.IsActive {
		t.Fatal("account should be inactive")
	}
	if got.CurrentRefreshTokenHash != "h1" {
		t.Fatal("status change must not touch the refresh slot")
	}
	if err := repo.SetActive(ctx, uuid.New(), true); !errors.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPostgresAccountRepo_Ping(t *testing.T) {
	repo := NewPostgresAccountRepo(setupDB(t))
	if err := repo.Ping(context.Background()); err != nil {
		t.Fatalf("ping %v", err)
	}
}
