// Package lock serializes commands on one contract. A held lock is reported
// immediately with ErrLocked; callers never wait for it.
package lock

import (
	"context"
	"errors"
	"fmt"

	xerrors "contracts-service/internal/pkg/errors"
)

var ErrLocked = errors.New("lock held by another operation")

// Unlock releases a lock obtained from TryLock. It is safe to call more than once.
type Unlock func()

type Locker interface {
	TryLock(ctx context.Context, key string) (Unlock, error)
}

// ContractKey is the lock key guarding every command on one client's contract.
func ContractKey(clientID string) string {
	return "contract:" + clientID
}

// AcquireContract takes the per-client lock, turning a held lock into a conflict.
func AcquireContract(ctx context.Context, l Locker, clientID string) (Unlock, error) {
	unlock, err := l.TryLock(ctx, ContractKey(clientID))
	if errors.Is(err, ErrLocked) {
		return nil, fmt.Errorf("%w: operation in progress for client %s", xerrors.ErrConflict, clientID)
	}
	if err != nil {
		return nil, xerrors.NewStorage("acquire contract lock", err)
	}
	return unlock, nil
}
