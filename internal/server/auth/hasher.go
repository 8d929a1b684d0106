package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gallery/internal/common"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// MaxPasswordBytes is the longest password bcrypt accepts without truncation.
const MaxPasswordBytes = 72

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	// Hash returns a salted one-way encoding of password.
	Hash(ctx context.Context, password string) (string, error)

	// Verify reports whether password matches hash. A mismatch is (false, nil);
	// an error means the check itself could not be performed.
	Verify(ctx context.Context, password, hash string) (bool, error)

	// Dummy returns a valid hash of a random secret. Login verifies against it
	// when the user does not exist so both failure paths take the same time.
	Dummy() string
}

// BcryptHasher runs bcrypt on a bounded pool so that slow hashing cannot
// occupy more than `concurrency` CPUs at once.
type BcryptHasher struct {
	cost  int
	pool  *semaphore.Weighted
	dummy string
}

func NewBcryptHasher(cost int, concurrency int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	if concurrency < 1 {
		return nil, fmt.Errorf("hash concurrency must be positive, got %d", concurrency)
	}

	secret, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrHashingFailure, err)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrHashingFailure, err)
	}

	return &BcryptHasher{
		cost:  cost,
		pool:  semaphore.NewWeighted(int64(concurrency)),
		dummy: string(dummy),
	}, nil
}

func (h *BcryptHasher) Hash(ctx context.Context, password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", fmt.Errorf("%w: password longer than %d bytes", common.ErrValidation, MaxPasswordBytes)
	}

	var out []byte
	err := h.run(ctx, func() error {
		var err error
		out, err = bcrypt.GenerateFromPassword([]byte(password), h.cost)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrHashingFailure, err)
	}

	return string(out), nil
}

// Verify never accepts a password longer than MaxPasswordBytes. bcrypt only
// looks at the first 72 bytes, so such a password could otherwise match a
// stored secret it merely starts with.
func (h *BcryptHasher) Verify(ctx context.Context, password, hash string) (bool, error) {
	tooLong := len(password) > MaxPasswordBytes
	if tooLong {
		// Same amount of work as a real comparison.
		hash = h.dummy
		password = password[:MaxPasswordBytes]
	}

	err := h.run(ctx, func() error {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	})

	switch {
	case err == nil:
		return !tooLong, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %w", common.ErrHashingFailure, err)
	}
}

func (h *BcryptHasher) Dummy() string {
	return h.dummy
}

// run executes fn on the pool. It returns as soon as ctx is done; fn keeps
// its pool slot until it finishes.
func (h *BcryptHasher) run(ctx context.Context, fn func() error) error {
	if err := h.pool.Acquire(ctx, 1); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		defer h.pool.Release(1)
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
