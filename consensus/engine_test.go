// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package consensus

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wynnextras/server/testutil"
)

// trustedStub answers the allowlist check from a fixed set.
type trustedStub map[string]bool

func (s trustedStub) IsVerified(ctx context.Context, username string) (bool, error) {
	return s[strings.ToLower(username)], nil
}

func player(n int) Submitter {
	return Submitter{
		UUID:     testutil.TestUUID(fmt.Sprintf("player%d", n)),
		Username: fmt.Sprintf("Player%d", n),
	}
}

func newTestEngine(t *testing.T, trusted trustedStub) *Engine {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	if trusted == nil {
		trusted = trustedStub{}
	}
	return NewEngine(conn, trusted, 3, 10)
}

func TestSubmitUnknownSubject(t *testing.T) {
	e := newTestEngine(t, nil)

	_, err := e.Submit(context.Background(), RaidFamily, "BOGUS", player(1), `[]`)
	require.ErrorIs(t, err, ErrUnknownSubject)

	_, _, err = e.GetApproved(context.Background(), RaidFamily, "BOGUS")
	require.ErrorIs(t, err, ErrUnknownSubject)
}

func TestOrganicApproval(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()
	payload := `[{"name":"Aspect of Grace"}]`

	// Two agreeing submitters are not enough
	for i := 1; i <= 2; i++ {
		result, err := e.Submit(ctx, RaidFamily, "NOTG", player(i), payload)
		require.NoError(t, err)
		assert.False(t, result.Approved)
		assert.Equal(t, i, result.AgreeCount)
	}

	_, found, err := e.GetApproved(ctx, RaidFamily, "NOTG")
	require.NoError(t, err)
	assert.False(t, found, "no approved pool before quorum")

	// The third distinct submitter tips it
	result, err := e.Submit(ctx, RaidFamily, "NOTG", player(3), payload)
	require.NoError(t, err)
	assert.True(t, result.Approved)
	assert.False(t, result.Locked)
	assert.Equal(t, 3, result.AgreeCount)
	assert.Equal(t, payload, result.Payload)

	got, found, err := e.GetApproved(ctx, RaidFamily, "NOTG")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, payload, got.Payload)
}

func TestResubmissionDoesNotInflateQuorum(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()
	payload := `[{"name":"x"}]`

	for i := 0; i < 5; i++ {
		result, err := e.Submit(ctx, RaidFamily, "TCC", player(1), payload)
		require.NoError(t, err)
		assert.Equal(t, 1, result.AgreeCount, "one identity is one vote no matter how often it submits")
		assert.False(t, result.Approved)
	}
}

func TestChangedSubmissionReplacesVote(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()

	_, err := e.Submit(ctx, RaidFamily, "TNA", player(1), `["x"]`)
	require.NoError(t, err)
	_, err = e.Submit(ctx, RaidFamily, "TNA", player(2), `["x"]`)
	require.NoError(t, err)

	// Player 2 changes their mind; their old vote for "x" must vanish
	result, err := e.Submit(ctx, RaidFamily, "TNA", player(2), `["y"]`)
	require.NoError(t, err)
	assert.Equal(t, 1, result.AgreeCount)

	// "x" is back to one supporter as well
	result, err = e.Submit(ctx, RaidFamily, "TNA", player(1), `["x"]`)
	require.NoError(t, err)
	assert.Equal(t, 1, result.AgreeCount)
}

func TestConflictingPayloadsNeitherApproved(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()

	_, err := e.Submit(ctx, LootrunFamily, "SE", player(1), `["x"]`)
	require.NoError(t, err)
	_, err = e.Submit(ctx, LootrunFamily, "SE", player(2), `["x"]`)
	require.NoError(t, err)
	_, err = e.Submit(ctx, LootrunFamily, "SE", player(3), `["y"]`)
	require.NoError(t, err)
	result, err := e.Submit(ctx, LootrunFamily, "SE", player(4), `["y"]`)
	require.NoError(t, err)
	assert.False(t, result.Approved, "2 vs 2 split approves nothing")

	_, found, err := e.GetApproved(ctx, LootrunFamily, "SE")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLastQualifyingMajorityWins(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()

	// "x" reaches quorum first
	for i := 1; i <= 3; i++ {
		_, err := e.Submit(ctx, RaidFamily, "NOL", player(i), `["x"]`)
		require.NoError(t, err)
	}

	got, found, err := e.GetApproved(ctx, RaidFamily, "NOL")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `["x"]`, got.Payload)

	// A later payload also reaching quorum displaces it
	for i := 4; i <= 6; i++ {
		_, err := e.Submit(ctx, RaidFamily, "NOL", player(i), `["y"]`)
		require.NoError(t, err)
	}

	got, found, err = e.GetApproved(ctx, RaidFamily, "NOL")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `["y"]`, got.Payload)
}

func TestLockIsTerminal(t *testing.T) {
	e := newTestEngine(t, trustedStub{"trusty": true})
	ctx := context.Background()

	for i := 1; i <= 10; i++ {
		result, err := e.Submit(ctx, RaidFamily, "NOTG", player(i), `["x"]`)
		require.NoError(t, err)
		if i == 10 {
			assert.True(t, result.Locked)
			assert.Equal(t, 10, result.AgreeCount)
		}
	}

	// Ordinary submitters bounce off
	result, err := e.Submit(ctx, RaidFamily, "NOTG", player(11), `["y"]`)
	require.NoError(t, err)
	assert.True(t, result.Locked)
	assert.Equal(t, `["x"]`, result.Payload, "locked pool is served unchanged")

	// So do trusted ones
	trusty := Submitter{UUID: testutil.TestUUID("trusty"), Username: "Trusty"}
	result, err = e.Submit(ctx, RaidFamily, "NOTG", trusty, `["z"]`)
	require.NoError(t, err)
	assert.True(t, result.Locked)
	assert.Equal(t, `["x"]`, result.Payload)

	// And nothing was recorded for the bounced submissions
	got, found, err := e.GetApproved(ctx, RaidFamily, "NOTG")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `["x"]`, got.Payload)
	assert.True(t, got.Locked)
}

func TestTrustedBypass(t *testing.T) {
	e := newTestEngine(t, trustedStub{"trusty": true})
	ctx := context.Background()

	trusty := Submitter{UUID: testutil.TestUUID("trusty"), Username: "Trusty"}
	result, err := e.Submit(ctx, GambitFamily, GambitSubject, trusty, `["daily"]`)
	require.NoError(t, err)
	assert.True(t, result.Approved)
	assert.False(t, result.Locked, "trusted approval must not lock")
	assert.Equal(t, 1, result.AgreeCount)

	got, found, err := e.GetApproved(ctx, GambitFamily, GambitSubject)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `["daily"]`, got.Payload)
}

func TestTrustedBypassDoesNotDuplicateRecord(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	e := NewEngine(conn, trustedStub{"trusty": true}, 3, 10)
	ctx := context.Background()

	trusty := Submitter{UUID: testutil.TestUUID("trusty"), Username: "Trusty"}
	for i := 0; i < 3; i++ {
		_, err := e.Submit(ctx, GambitFamily, GambitSubject, trusty, fmt.Sprintf(`["v%d"]`, i))
		require.NoError(t, err)
	}

	var approvedRows, submissionRows int
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM pool_approved`).Scan(&approvedRows))
	require.NoError(t, conn.QueryRow(`SELECT COUNT(*) FROM pool_submission`).Scan(&submissionRows))
	assert.Equal(t, 1, approvedRows, "repeated trusted submissions overwrite one record")
	assert.Equal(t, 1, submissionRows)

	got, found, err := e.GetApproved(ctx, GambitFamily, GambitSubject)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `["v2"]`, got.Payload, "latest trusted submission wins")
}

func TestDuplicateSubmissionRowsRepaired(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	e := NewEngine(conn, trustedStub{}, 3, 10)
	ctx := context.Background()

	p := player(1)
	period := RaidFamily.Schedule.PeriodAt(time.Now())

	// Simulate legacy duplicate rows for one submitter
	for i := 0; i < 3; i++ {
		_, err := conn.Exec(`
			INSERT INTO pool_submission (id, family, subject, period, submitted_by, payload, submitted_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, uuid.NewString(), "raid", "NOTG", period, p.UUID, `["old"]`, time.Now().Add(-time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	result, err := e.Submit(ctx, RaidFamily, "NOTG", p, `["new"]`)
	require.NoError(t, err)
	assert.Equal(t, 1, result.AgreeCount)

	var rows int
	require.NoError(t, conn.QueryRow(`
		SELECT COUNT(*) FROM pool_submission WHERE submitted_by = $1
	`, p.UUID).Scan(&rows))
	assert.Equal(t, 1, rows, "duplicates collapsed to a single row")

	var payload string
	require.NoError(t, conn.QueryRow(`
		SELECT payload FROM pool_submission WHERE submitted_by = $1
	`, p.UUID).Scan(&payload))
	assert.Equal(t, `["new"]`, payload)
}

func TestPeriodsAreIndependent(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	e := NewEngine(conn, trustedStub{}, 3, 10)
	ctx := context.Background()

	day1 := time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return day1 }

	for i := 1; i <= 3; i++ {
		_, err := e.Submit(ctx, GambitFamily, GambitSubject, player(i), `["monday"]`)
		require.NoError(t, err)
	}

	_, found, err := e.GetApproved(ctx, GambitFamily, GambitSubject)
	require.NoError(t, err)
	assert.True(t, found)

	// Next day: same subject, fresh record, and yesterday's submissions
	// carry no weight
	e.now = func() time.Time { return day1.Add(24 * time.Hour) }

	_, found, err = e.GetApproved(ctx, GambitFamily, GambitSubject)
	require.NoError(t, err)
	assert.False(t, found, "new period starts at NoRecord")

	result, err := e.Submit(ctx, GambitFamily, GambitSubject, player(1), `["monday"]`)
	require.NoError(t, err)
	assert.Equal(t, 1, result.AgreeCount, "old-period submissions do not count")
}

func TestSubjectsAreIndependent(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := e.Submit(ctx, RaidFamily, "NOTG", player(i), `["x"]`)
		require.NoError(t, err)
	}

	_, found, err := e.GetApproved(ctx, RaidFamily, "TCC")
	require.NoError(t, err)
	assert.False(t, found, "approval of one subject must not leak to another")
}

func TestConcurrentSubmissions(t *testing.T) {
	e := newTestEngine(t, nil)
	ctx := context.Background()
	payload := `["concurrent"]`

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 1; i <= 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if _, err := e.Submit(ctx, RaidFamily, "NOTG", player(n), payload); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent submit failed: %v", err)
	}

	got, found, err := e.GetApproved(ctx, RaidFamily, "NOTG")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, got.Locked, "10 distinct agreeing submitters lock the pool")
	assert.Equal(t, payload, got.Payload)
}
