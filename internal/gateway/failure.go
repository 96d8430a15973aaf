// Package gateway is the boundary between the sync engine and the remote
// record store. Every failure leaves it as a *Failure tagged with a Kind.
package gateway

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"net"

	"posync/internal/infra"
	"posync/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
)

type Kind int

const (
	KindNone Kind = iota
	// Offline: no path to the store. Retry later, nothing is lost.
	Offline
	// Conflict: the remote row diverged from the write's base revision.
	Conflict
	// RemoteError: the store rejected the request. Not retried automatically.
	RemoteError
)

func (k Kind) String() string {
	switch k {
	case Offline:
		return "offline"
	case Conflict:
		return "conflict"
	case RemoteError:
		return "remote-error"
	default:
		return "none"
	}
}

// Failure is the only error type returned by gateways.
type Failure struct {
	Kind       Kind
	Op         string
	Collection string
	Err        error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("gateway: %s %s: %s: %v", f.Op, f.Collection, f.Kind, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// KindOf reports the kind of a gateway error, KindNone for nil.
// Errors that did not come from a gateway are classified on the spot.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	return classify(err)
}

func fail(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return err
	}
	return &Failure{Kind: classify(err), Op: op, Collection: collection, Err: err}
}

// Postgres SQLSTATEs that are not plain rejections.
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgAdminShutdown        = "57P01"
	pgCrashShutdown        = "57P02"
	pgCannotConnectNow     = "57P03"
	pgTooManyConnections   = "53300"
)

func classify(err error) Kind {
	switch {
	case errors.Is(err, infra.ErrCircuitOpen):
		return Offline
	case errors.Is(err, repository.ErrRevisionMismatch):
		return Conflict
	case errors.Is(err, repository.ErrTenantMismatch):
		return RemoteError
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgSerializationFailure, pgDeadlockDetected:
			return Conflict
		case pgAdminShutdown, pgCrashShutdown, pgCannotConnectNow, pgTooManyConnections:
			return Offline
		}
		if len(pgErr.Code) == 5 && pgErr.Code[:2] == "08" {
			return Offline
		}
		return RemoteError
	}

	var connErr *pgconn.ConnectError
	var netErr net.Error
	switch {
	case errors.As(err, &connErr),
		errors.As(err, &netErr),
		errors.Is(err, context.DeadlineExceeded),
		// the agent is shutting down or the store switched mid-call; the
		// write stays pending
		errors.Is(err, context.Canceled),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, io.EOF),
		errors.Is(err, io.ErrUnexpectedEOF),
		pgconn.Timeout(err),
		pgconn.SafeToRetry(err):
		return Offline
	}
	return RemoteError
}

// NewBreaker builds the circuit breaker shared by every gateway of one
// store. Only Offline outcomes trip it.
func NewBreaker(cfg infra.CircuitBreakerConfig) *infra.CircuitBreaker {
	cfg.IsFailure = func(err error) bool { return classify(err) == Offline }
	prev := cfg.OnStateChange
	cfg.OnStateChange = func(from, to infra.CBState) {
		logBreaker(from, to)
		if prev != nil {
			prev(from, to)
		}
	}
	return infra.NewCircuitBreaker(cfg)
}
