package concurrent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunAllSucceed(t *testing.T) {
	var count int32
	err := Run(context.Background(),
		func(ctx context.Context) error { atomic.AddInt32(&count, 1); return nil },
		func(ctx context.Context) error { atomic.AddInt32(&count, 1); return nil },
		func(ctx context.Context) error { atomic.AddInt32(&count, 1); return nil },
	)
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
}

func TestRunPropagatesFirstError(t *testing.T) {
	wantErr := errors.New("objc walk failed")
	err := Run(context.Background(),
		func(ctx context.Context) error { return wantErr },
		func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	)
	if !errors.Is(err, wantErr) {
		t.Fatalf("Run error = %v, want wrapping %v", err, wantErr)
	}
}

func TestRunCancelsSiblingsOnFailure(t *testing.T) {
	done := make(chan struct{})
	err := Run(context.Background(),
		func(ctx context.Context) error { return errors.New("boom") },
		func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				close(done)
				return ctx.Err()
			case <-time.After(time.Second):
				t.Error("sibling task was not cancelled")
				return nil
			}
		},
	)
	if err == nil {
		t.Fatalf("expected error")
	}
	<-done
}

func TestGroupIncrementalScheduling(t *testing.T) {
	grp, ctx := NewGroup(context.Background())
	var count int32
	for i := 0; i < 5; i++ {
		grp.Go(func(ctx context.Context) error {
			atomic.AddInt32(&count, 1)
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		t.Fatalf("Wait returned error: %v", err)
	}
	if count != 5 {
		t.Fatalf("count = %d, want 5", count)
	}
	if ctx.Err() != nil {
		t.Fatalf("context unexpectedly cancelled after success: %v", ctx.Err())
	}
}
