// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

//go:build integration

package integration

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gatehouse/gatehouse/internal/auth"
	authpg "github.com/gatehouse/gatehouse/internal/auth/postgres"
	"github.com/gatehouse/gatehouse/internal/store"
)

// testEnv holds the resources shared by the auth integration specs.
type testEnv struct {
	ctx       context.Context
	cancel    context.CancelFunc
	container testcontainers.Container
	pool      *pgxpool.Pool
	directory *auth.Directory
	sessions  *auth.SessionStore
}

func setupTestEnv() (*testEnv, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)

	env := &testEnv{ctx: ctx, cancel: cancel}

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("gatehouse_test"),
		postgres.WithUsername("gatehouse"),
		postgres.WithPassword("gatehouse"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		cancel()
		return nil, err
	}
	env.container = container

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		env.teardown()
		return nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		env.teardown()
		return nil, err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		env.teardown()
		return nil, err
	}
	_ = migrator.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env.pool, err = store.Connect(ctx, connStr, logger)
	if err != nil {
		env.teardown()
		return nil, err
	}

	users := authpg.NewUserRepository(env.pool)
	sessionRepo := authpg.NewSessionRepository(env.pool)

	env.directory, err = auth.NewDirectory(users, auth.NewSaltedHasher(logger))
	if err != nil {
		env.teardown()
		return nil, err
	}
	env.sessions, err = auth.NewSessionStore(sessionRepo, users, auth.DefaultSessionTTL)
	if err != nil {
		env.teardown()
		return nil, err
	}

	return env, nil
}

func (e *testEnv) teardown() {
	if e.pool != nil {
		e.pool.Close()
	}
	if e.container != nil {
		_ = e.container.Terminate(e.ctx)
	}
	e.cancel()
}

var _ = Describe("Authentication", Ordered, func() {
	var env *testEnv

	BeforeAll(func() {
		var err error
		env, err = setupTestEnv()
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		env.teardown()
	})

	Describe("user registration", func() {
		It("creates a user and rejects duplicate identities", func() {
			user, err := env.directory.Create(env.ctx, "ada", "ada@example.com", "secret1", "Ada Lovelace")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.ID).NotTo(BeZero())

			_, err = env.directory.Create(env.ctx, "ada", "other@example.com", "secret1", "Ada Again")
			Expect(err).To(MatchError(auth.ErrDuplicateIdentity))

			_, err = env.directory.Create(env.ctx, "ada2", "ada@example.com", "secret1", "Ada Again")
			Expect(err).To(MatchError(auth.ErrDuplicateIdentity))
		})
	})

	Describe("authentication", func() {
		It("accepts correct credentials and records the login", func() {
			user, err := env.directory.Authenticate(env.ctx, "ada", "secret1")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.IsAuthenticated).To(BeTrue())
			Expect(user.LastLogin).NotTo(BeNil())
		})

		It("rejects wrong passwords and unknown usernames identically", func() {
			_, err := env.directory.Authenticate(env.ctx, "ada", "wrong")
			Expect(err).To(MatchError(auth.ErrInvalidCredentials))

			_, err = env.directory.Authenticate(env.ctx, "nobody", "secret1")
			Expect(err).To(MatchError(auth.ErrInvalidCredentials))
		})
	})

	Describe("session lifecycle", func() {
		It("supersedes prior sessions on new login", func() {
			user, err := env.directory.Authenticate(env.ctx, "ada", "secret1")
			Expect(err).NotTo(HaveOccurred())

			first, err := env.sessions.CreateSession(env.ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())

			second, err := env.sessions.CreateSession(env.ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Token).NotTo(Equal(first.Token))

			// Only the newest session validates.
			_, err = env.sessions.ValidateSession(env.ctx, first.Token)
			Expect(err).To(MatchError(auth.ErrSessionInvalid))

			got, err := env.sessions.ValidateSession(env.ctx, second.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(user.ID))
		})

		It("invalidates sessions and clears the authenticated flag", func() {
			user, err := env.directory.Authenticate(env.ctx, "ada", "secret1")
			Expect(err).NotTo(HaveOccurred())

			session, err := env.sessions.CreateSession(env.ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())

			Expect(env.sessions.Invalidate(env.ctx, session.Token)).To(Succeed())

			_, err = env.sessions.ValidateSession(env.ctx, session.Token)
			Expect(err).To(MatchError(auth.ErrSessionInvalid))

			refreshed, err := env.directory.GetByID(env.ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(refreshed.IsAuthenticated).To(BeFalse())

			err = env.sessions.Invalidate(env.ctx, session.Token)
			Expect(err).To(MatchError(auth.ErrSessionInvalid), "second invalidate reports the session as gone")
		})

		It("leaves exactly one active session under concurrent logins", func() {
			user, err := env.directory.Create(env.ctx, "race", "race@example.com", "secret1", "Race Tester")
			Expect(err).NotTo(HaveOccurred())

			const workers = 8
			var wg sync.WaitGroup
			errs := make([]error, workers)
			for i := range workers {
				wg.Add(1)
				go func(n int) {
					defer wg.Done()
					_, errs[n] = env.sessions.CreateSession(env.ctx, user.ID)
				}(i)
			}
			wg.Wait()

			for i, err := range errs {
				Expect(err).NotTo(HaveOccurred(), fmt.Sprintf("worker %d", i))
			}

			var active int
			err = env.pool.QueryRow(env.ctx,
				`SELECT count(*) FROM user_sessions WHERE user_id = $1 AND is_active`,
				user.ID).Scan(&active)
			Expect(err).NotTo(HaveOccurred())
			Expect(active).To(Equal(1), "exactly one session should remain active")

			var total int
			err = env.pool.QueryRow(env.ctx,
				`SELECT count(*) FROM user_sessions WHERE user_id = $1`,
				user.ID).Scan(&total)
			Expect(err).NotTo(HaveOccurred())
			Expect(total).To(Equal(workers), "deactivated sessions are retained as history")
		})
	})
})
