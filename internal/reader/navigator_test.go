package reader

import (
	"errors"
	"testing"
)

func TestResolvePageCount_NoRetryWhenNonZero(t *testing.T) {
	reloads := 0
	n, err := resolvePageCount(
		func() (int, error) { return 42, nil },
		func() error { reloads++; return nil },
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 42 {
		t.Errorf("count = %d, want 42", n)
	}
	if reloads != 0 {
		t.Errorf("reloads = %d, want 0", reloads)
	}
}

func TestResolvePageCount_ExactlyOneReload(t *testing.T) {
	reloads := 0
	calls := 0
	n, err := resolvePageCount(
		func() (int, error) {
			calls++
			if calls == 1 {
				return 0, nil
			}
			return 128, nil
		},
		func() error { reloads++; return nil },
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 128 {
		t.Errorf("count = %d, want 128", n)
	}
	if reloads != 1 {
		t.Errorf("reloads = %d, want exactly 1", reloads)
	}
}

func TestResolvePageCount_FatalAfterSecondZero(t *testing.T) {
	reloads := 0
	_, err := resolvePageCount(
		func() (int, error) { return 0, nil },
		func() error { reloads++; return nil },
	)
	if err == nil {
		t.Fatal("expected fatal error after second zero")
	}
	if !errors.Is(err, ErrZeroPages) {
		t.Errorf("error = %v, want ErrZeroPages", err)
	}
	if reloads != 1 {
		t.Errorf("reloads = %d, want exactly 1 (not unbounded)", reloads)
	}
}

func TestResolvePageCount_CountErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	_, err := resolvePageCount(
		func() (int, error) { return 0, boom },
		func() error { t.Fatal("reload must not run on count error"); return nil },
	)
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want boom", err)
	}
}

func TestResolvePageCount_ReloadErrorPropagates(t *testing.T) {
	boom := errors.New("reload failed")
	_, err := resolvePageCount(
		func() (int, error) { return 0, nil },
		func() error { return boom },
	)
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want reload error", err)
	}
}
