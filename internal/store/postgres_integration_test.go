package store

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

func openTestDatabase(t *testing.T) *PostgresStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	dsn := strings.TrimSpace(os.Getenv("TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := Open(ctx, dsn, 4)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if _, err := db.ExecContext(ctx, `DROP SCHEMA IF EXISTS public CASCADE; CREATE SCHEMA public;`); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
	migrations, err := Migrations("")
	if err != nil {
		t.Fatalf("open migrations: %v", err)
	}
	if err := ApplyMigrations(ctx, db, migrations); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return NewPostgresStore(db)
}

func TestPostgresGuideCascadeIntegration(t *testing.T) {
	s := openTestDatabase(t)
	ctx := context.Background()

	user, err := s.CreateUser(ctx, User{ID: 2, Email: "alice@henritrip.test", PasswordHash: "x", Role: "User"})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	next, err := s.CreateUser(ctx, User{Email: "carol@henritrip.test", PasswordHash: "x", Role: "User"})
	if err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if next.ID != 3 {
		t.Fatalf("expected sequence to continue at 3, got %d", next.ID)
	}
	if _, err := s.CreateUser(ctx, User{Email: "ALICE@henritrip.test", PasswordHash: "x", Role: "User"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate email, got %v", err)
	}

	date := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	guide, days, err := s.CreateGuide(ctx, Guide{
		Title: "Weekend", Description: "Paris", NumberOfDays: 2,
		Mobility: MobilityPied, Season: SeasonPrintemps, ForWho: ForWhoEntreAmis, CreatedByUserID: 1,
	}, []GuideDay{{DayNumber: 1, Title: "Jour 1", Date: &date}, {DayNumber: 2, Title: "Jour 2"}})
	if err != nil {
		t.Fatalf("CreateGuide() error = %v", err)
	}
	activity, err := s.CreateActivity(ctx, Activity{
		GuideDayID: days[1].ID, Title: "Louvre", Description: "Musée", Category: CategoryMusee,
		Address: "Rue de Rivoli", ForWho: ForWhoGroupe, VisitOrder: 1,
	})
	if err != nil {
		t.Fatalf("CreateActivity() error = %v", err)
	}
	if err := s.CreateInvitation(ctx, Invitation{GuideID: guide.ID, UserID: user.ID}); err != nil {
		t.Fatalf("CreateInvitation() error = %v", err)
	}

	stored, err := s.GetDay(ctx, days[0].ID)
	if err != nil {
		t.Fatalf("GetDay() error = %v", err)
	}
	if stored.Date == nil || stored.Date.Format(DateLayout) != "2025-09-01" {
		t.Fatalf("expected date 2025-09-01, got %v", stored.Date)
	}

	guide.NumberOfDays = 1
	removed, err := s.UpdateGuide(ctx, guide, nil)
	if err != nil {
		t.Fatalf("UpdateGuide() error = %v", err)
	}
	if len(removed) != 1 || removed[0] != activity.ID {
		t.Fatalf("expected removed activity %d, got %v", activity.ID, removed)
	}
	if _, err := s.GetActivity(ctx, activity.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected activity removed with its day, got %v", err)
	}

	if err := s.DeleteGuide(ctx, guide.ID); err != nil {
		t.Fatalf("DeleteGuide() error = %v", err)
	}
	if ok, _ := s.HasInvitation(ctx, guide.ID, user.ID); ok {
		t.Fatal("expected invitation removed with its guide")
	}
	if _, err := s.GetDay(ctx, days[0].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected day removed with its guide, got %v", err)
	}
}
