package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pgregory.net/rapid"
)

// entriesLen returns the number of users with a live lock entry.
func (ul *UserLock) entriesLen() int {
	ul.mu.Lock()
	defer ul.mu.Unlock()
	return len(ul.entries)
}

// TestConcurrentDebitSafetyProperty checks that guarded check-then-debit
// sequences on one wallet never overdraw it, whatever the interleaving.
func TestConcurrentDebitSafetyProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initial := rapid.Int64Range(0, 5000).Draw(t, "wallet")
		numOps := rapid.IntRange(2, 30).Draw(t, "numOps")
		price := rapid.Int64Range(1, 500).Draw(t, "price")
		userID := rapid.Int64Range(1, 1000000).Draw(t, "userID")

		ul := NewUserLock()
		wallet := initial
		var succeeded atomic.Int64
		var failed atomic.Int64
		var wg sync.WaitGroup
		wg.Add(numOps)

		for i := 0; i < numOps; i++ {
			go func() {
				defer wg.Done()
				if err := ul.LockContext(context.Background(), userID); err != nil {
					failed.Add(1)
					return
				}
				defer ul.Unlock(userID)
				if wallet >= price {
					wallet -= price
					succeeded.Add(1)
				}
			}()
		}
		wg.Wait()

		if failed.Load() != 0 {
			t.Fatalf("%d lock attempts failed without a deadline", failed.Load())
		}
		if wallet < 0 {
			t.Fatalf("wallet went negative: %d", wallet)
		}
		if wallet != initial-succeeded.Load()*price {
			t.Fatalf("lost update: wallet %d, initial %d, %d debits of %d", wallet, initial, succeeded.Load(), price)
		}
		if want := min(int64(numOps), initial/price); succeeded.Load() != want {
			t.Fatalf("succeeded %d debits, want %d", succeeded.Load(), want)
		}
	})
}

// TestWithLockContextSerializesProperty checks that fn bodies for one user
// never overlap.
func TestWithLockContextSerializesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initial := rapid.Int64Range(0, 100000).Draw(t, "initial")
		numOps := rapid.IntRange(5, 30).Draw(t, "numOps")
		amount := rapid.Int64Range(1, 100).Draw(t, "amount")
		userID := rapid.Int64Range(1, 1000000).Draw(t, "userID")

		ul := NewUserLock()
		balance := initial
		var inside atomic.Int32
		var overlapped atomic.Bool

		var wg sync.WaitGroup
		wg.Add(numOps)
		for i := 0; i < numOps; i++ {
			go func() {
				defer wg.Done()
				_ = ul.WithLockContext(context.Background(), userID, time.Minute, func() error {
					if inside.Add(1) != 1 {
						overlapped.Store(true)
					}
					balance += amount
					inside.Add(-1)
					return nil
				})
			}()
		}
		wg.Wait()

		if overlapped.Load() {
			t.Fatal("two holders were inside the same user's lock")
		}
		if want := initial + int64(numOps)*amount; balance != want {
			t.Fatalf("balance = %d, want %d", balance, want)
		}
	})
}

// TestEntriesReleasedProperty checks that the lock table does not grow with
// the number of users ever seen.
func TestEntriesReleasedProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ids := rapid.SliceOfN(rapid.Int64Range(1, 50), 1, 40).Draw(t, "ids")

		ul := NewUserLock()
		var wg sync.WaitGroup
		wg.Add(len(ids))
		for _, id := range ids {
			go func(uid int64) {
				defer wg.Done()
				_ = ul.WithLockContext(context.Background(), uid, time.Minute, func() error { return nil })
			}(id)
		}
		wg.Wait()

		if n := ul.entriesLen(); n != 0 {
			t.Fatalf("lock table holds %d entries after all users released", n)
		}
	})
}

// TestOtherUsersNotBlockedProperty checks that holding one user's lock
// never delays another user.
func TestOtherUsersNotBlockedProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		held := rapid.Int64Range(1, 1000).Draw(t, "held")
		other := rapid.Int64Range(1001, 2000).Draw(t, "other")

		ul := NewUserLock()
		if err := ul.LockContext(context.Background(), held); err != nil {
			t.Fatalf("LockContext(%d): %v", held, err)
		}
		defer ul.Unlock(held)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := ul.WithLockContext(ctx, other, time.Second, func() error { return nil }); err != nil {
			t.Fatalf("user %d blocked by user %d: %v", other, held, err)
		}
	})
}

func TestLockContextTimeout(t *testing.T) {
	ul := NewUserLock()
	if err := ul.LockContext(context.Background(), 7); err != nil {
		t.Fatalf("LockContext: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := ul.LockContext(ctx, 7); !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("LockContext error = %v, want ErrLockTimeout", err)
	}

	ul.Unlock(7)

	// The abandoned waiter hands the lock back, so a later caller gets it.
	err := ul.WithLockContext(context.Background(), 7, time.Second, func() error { return nil })
	if err != nil {
		t.Fatalf("WithLockContext after timeout: %v", err)
	}
}

func TestWithLockContextCanceled(t *testing.T) {
	ul := NewUserLock()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := ul.WithLockContext(ctx, 3, time.Second, func() error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("WithLockContext error = %v, want context.Canceled", err)
	}
	if called {
		t.Fatal("fn ran on a canceled context")
	}
}
