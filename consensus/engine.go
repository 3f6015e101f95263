// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package consensus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ErrUnknownSubject is returned for a subject outside the family's domain.
var ErrUnknownSubject = errors.New("unknown subject")

// TrustedSet answers allowlist membership for the trusted-submitter
// bypass. Implemented by verified.Registry.
type TrustedSet interface {
	IsVerified(ctx context.Context, username string) (bool, error)
}

// Submitter is a verified Mojang identity. The UUID is the quorum
// identity (name changes don't grant extra votes); the username is what
// the trusted allowlist is keyed by.
type Submitter struct {
	UUID     string
	Username string
}

// Result reports the outcome of a submission or lookup.
type Result struct {
	Approved   bool
	Locked     bool
	AgreeCount int
	Payload    string // canonical JSON; empty when not approved
}

// Engine is the consensus approval engine. For each (subject, period) it
// tracks one live submission per submitter, counts distinct submitters
// agreeing on an identical canonical payload, and promotes the payload to
// approved once enough agree. Approval is a two-step ratchet: at
// approveThreshold the payload becomes the served value but may still be
// displaced by a later payload crossing the threshold; at lockThreshold
// the record locks and nothing changes it until the period rolls over.
type Engine struct {
	db               *sql.DB
	trusted          TrustedSet
	approveThreshold int
	lockThreshold    int
	locks            keyedLocks
	now              func() time.Time
}

func NewEngine(db *sql.DB, trusted TrustedSet, approveThreshold, lockThreshold int) *Engine {
	return &Engine{
		db:               db,
		trusted:          trusted,
		approveThreshold: approveThreshold,
		lockThreshold:    lockThreshold,
		now:              time.Now,
	}
}

// Submit records submitter's canonical payload for subject in the current
// period and re-evaluates approval.
//
// The quorum check and the approved-record write are a check-then-act
// sequence, so everything from the locked fast path to the final write is
// serialized per (family, subject, period) key; submissions for different
// subjects or periods never contend.
func (e *Engine) Submit(ctx context.Context, fam Family, subject string, submitter Submitter, payload string) (Result, error) {
	if !fam.ValidSubject(subject) {
		return Result{}, ErrUnknownSubject
	}
	now := e.now()
	period := fam.Schedule.PeriodAt(now)

	// Outside the transaction: the allowlist is read-only here and must
	// not occupy a second pool connection while the tx holds one.
	trusted, err := e.trusted.IsVerified(ctx, submitter.Username)
	if err != nil {
		return Result{}, err
	}

	unlock := e.locks.lock(fam.Name + "|" + subject + "|" + period)
	defer unlock()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Locked pools are terminal for the period: serve the locked payload
	// and write nothing, whoever the submitter is.
	existing, haveExisting, err := e.queryApproved(ctx, tx, fam.Name, subject, period)
	if err != nil {
		return Result{}, err
	}
	if haveExisting && existing.Locked {
		slog.Info("pool locked, ignoring submission",
			"family", fam.Name, "subject", subject, "period", period, "submitter", submitter.Username)
		return existing, nil
	}

	if err := e.upsertSubmission(ctx, tx, fam.Name, subject, period, submitter.UUID, payload, now); err != nil {
		return Result{}, err
	}

	if trusted {
		slog.Info("verified user submitted, auto-approving",
			"family", fam.Name, "subject", subject, "period", period, "submitter", submitter.Username)
		result := Result{Approved: true, AgreeCount: 1, Payload: payload}
		if err := e.writeApproved(ctx, tx, fam.Name, subject, period, result, now); err != nil {
			return Result{}, err
		}
		if err := tx.Commit(); err != nil {
			return Result{}, fmt.Errorf("failed to commit submission: %w", err)
		}
		return result, nil
	}

	// Quorum is payload-specific: only distinct submitters whose live
	// submission byte-matches this payload count toward it.
	var agree int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT submitted_by) FROM pool_submission
		WHERE family = $1 AND subject = $2 AND period = $3 AND payload = $4
	`, fam.Name, subject, period, payload).Scan(&agree)
	if err != nil {
		return Result{}, fmt.Errorf("failed to count agreeing submitters: %w", err)
	}

	result := Result{AgreeCount: agree}
	switch {
	case agree >= e.lockThreshold:
		slog.Info("locking pool",
			"family", fam.Name, "subject", subject, "period", period, "agree_count", agree)
		result.Approved = true
		result.Locked = true
		result.Payload = payload
		if err := e.writeApproved(ctx, tx, fam.Name, subject, period, result, now); err != nil {
			return Result{}, err
		}
	case agree >= e.approveThreshold:
		slog.Info("approving pool",
			"family", fam.Name, "subject", subject, "period", period, "agree_count", agree)
		result.Approved = true
		result.Payload = payload
		if err := e.writeApproved(ctx, tx, fam.Name, subject, period, result, now); err != nil {
			return Result{}, err
		}
	default:
		slog.Info("not enough agreeing submitters yet",
			"family", fam.Name, "subject", subject, "period", period,
			"agree_count", agree, "needed", e.approveThreshold)
	}

	if err := tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("failed to commit submission: %w", err)
	}
	return result, nil
}

// GetApproved returns the approved pool for subject in the current
// period, if any. Read-only.
func (e *Engine) GetApproved(ctx context.Context, fam Family, subject string) (Result, bool, error) {
	if !fam.ValidSubject(subject) {
		return Result{}, false, ErrUnknownSubject
	}
	period := fam.Schedule.PeriodAt(e.now())

	var result Result
	err := e.db.QueryRowContext(ctx, `
		SELECT payload, agree_count, locked FROM pool_approved
		WHERE family = $1 AND subject = $2 AND period = $3
	`, fam.Name, subject, period).Scan(&result.Payload, &result.AgreeCount, &result.Locked)
	if err == sql.ErrNoRows {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, fmt.Errorf("failed to query approved pool: %w", err)
	}
	result.Approved = true
	return result, true, nil
}

// upsertSubmission keeps the at-most-one-live-submission invariant: an
// existing submission from the same submitter is overwritten in place,
// and duplicate rows left over from legacy data are collapsed to the most
// recent one.
func (e *Engine) upsertSubmission(ctx context.Context, tx *sql.Tx, family, subject, period, submitter, payload string, now time.Time) error {
	rows, err := tx.QueryContext(ctx, `
		SELECT id FROM pool_submission
		WHERE family = $1 AND subject = $2 AND period = $3 AND submitted_by = $4
		ORDER BY submitted_at DESC
	`, family, subject, period, submitter)
	if err != nil {
		return fmt.Errorf("failed to query existing submissions: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan submission id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate submissions: %w", err)
	}

	if len(ids) == 0 {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO pool_submission (id, family, subject, period, submitted_by, payload, submitted_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, uuid.NewString(), family, subject, period, submitter, payload, now)
		if err != nil {
			return fmt.Errorf("failed to insert submission: %w", err)
		}
		slog.Info("saved new submission",
			"family", family, "subject", subject, "period", period, "submitter", submitter)
		return nil
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE pool_submission SET payload = $1, submitted_at = $2 WHERE id = $3
	`, payload, now, ids[0])
	if err != nil {
		return fmt.Errorf("failed to update submission: %w", err)
	}
	for _, id := range ids[1:] {
		if _, err := tx.ExecContext(ctx, `DELETE FROM pool_submission WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete duplicate submission: %w", err)
		}
	}
	if len(ids) > 1 {
		slog.Warn("repaired duplicate submissions",
			"family", family, "subject", subject, "period", period,
			"submitter", submitter, "removed", len(ids)-1)
	}
	return nil
}

func (e *Engine) writeApproved(ctx context.Context, tx *sql.Tx, family, subject, period string, r Result, now time.Time) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE pool_approved SET payload = $1, agree_count = $2, locked = $3, approved_at = $4
		WHERE family = $5 AND subject = $6 AND period = $7
	`, r.Payload, r.AgreeCount, r.Locked, now, family, subject, period)
	if err != nil {
		return fmt.Errorf("failed to update approved pool: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if n > 0 {
		return nil
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO pool_approved (family, subject, period, payload, agree_count, locked, approved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, family, subject, period, r.Payload, r.AgreeCount, r.Locked, now)
	if err != nil {
		return fmt.Errorf("failed to insert approved pool: %w", err)
	}
	return nil
}

func (e *Engine) queryApproved(ctx context.Context, tx *sql.Tx, family, subject, period string) (Result, bool, error) {
	var result Result
	err := tx.QueryRowContext(ctx, `
		SELECT payload, agree_count, locked FROM pool_approved
		WHERE family = $1 AND subject = $2 AND period = $3
	`, family, subject, period).Scan(&result.Payload, &result.AgreeCount, &result.Locked)
	if err == sql.ErrNoRows {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, fmt.Errorf("failed to query approved pool: %w", err)
	}
	result.Approved = true
	return result, true, nil
}
