package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"server/internal/adapter/repo"
	"server/internal/domain"
)

// Admin tool for the subscription whitelist: emails on it get pro
// access at subscribe time without paying. -grant additionally flips an
// existing profile to (pro, active) immediately.
func main() {
	var (
		addFlag    string
		removeFlag string
		noteFlag   string
		grantFlag  string
	)

	flag.StringVar(&addFlag, "add", "", "email to whitelist")
	flag.StringVar(&removeFlag, "remove", "", "email to remove from the whitelist")
	flag.StringVar(&noteFlag, "note", "", "note stored with the whitelist entry")
	flag.StringVar(&grantFlag, "grant", "", "user ID to grant pro directly")
	flag.Parse()

	add := strings.TrimSpace(strings.ToLower(addFlag))
	remove := strings.TrimSpace(strings.ToLower(removeFlag))
	grant := strings.TrimSpace(grantFlag)

	if add == "" && remove == "" && grant == "" {
		exitWithError(errors.New("one of -add, -remove or -grant is required"))
	}
	if add != "" {
		if _, err := mail.ParseAddress(add); err != nil {
			exitWithError(fmt.Errorf("invalid email %q", add))
		}
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	whitelist := repo.NewWhitelistRepository(pool)
	profiles := repo.NewProfileRepository(pool)

	switch {
	case add != "":
		if err := whitelist.Add(ctx, &domain.WhitelistEntry{Email: add, Note: noteFlag}); err != nil {
			exitWithError(fmt.Errorf("failed to whitelist %s: %w", add, err))
		}
		fmt.Printf("whitelisted %s\n", add)
	case remove != "":
		if err := whitelist.Remove(ctx, remove); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				exitWithError(fmt.Errorf("%s is not on the whitelist", remove))
			}
			exitWithError(fmt.Errorf("failed to remove %s: %w", remove, err))
		}
		fmt.Printf("removed %s\n", remove)
	}

	if grant != "" {
		profile, err := profiles.GetByUserID(ctx, grant)
		if err != nil {
			exitWithError(fmt.Errorf("failed to load profile %s: %w", grant, err))
		}
		state := domain.SubscriptionState{Plan: domain.PlanPro, Status: domain.SubscriptionActive}
		if err := profile.ApplySubscriptionState(state); err != nil {
			exitWithError(fmt.Errorf("invalid grant for %s: %w", grant, err))
		}
		if err := profiles.UpdateSubscriptionState(ctx, grant, state); err != nil {
			exitWithError(fmt.Errorf("failed to grant pro to %s: %w", grant, err))
		}
		fmt.Printf("granted pro to %s (%s)\n", grant, profile.Handle)
	}
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
