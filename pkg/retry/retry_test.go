package retry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

// fastConfig keeps the backoff short enough for unit tests.
func fastConfig() *Config {
	return &Config{
		MaxRetries:       3,
		InitialDelay:     time.Millisecond,
		MaxDelay:         5 * time.Millisecond,
		Multiplier:       2.0,
		MaxSameErrorType: 5,
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.InitialDelay != 100*time.Millisecond {
		t.Errorf("InitialDelay = %v, want 100ms", cfg.InitialDelay)
	}
	if cfg.MaxDelay != 5*time.Second {
		t.Errorf("MaxDelay = %v, want 5s", cfg.MaxDelay)
	}
	if cfg.MaxSameErrorType != 5 {
		t.Errorf("MaxSameErrorType = %d, want 5", cfg.MaxSameErrorType)
	}
}

func TestDoIfRetryable_SucceedsFirstTry(t *testing.T) {
	calls := 0
	err := DoIfRetryable(context.Background(), fastConfig(), func() error {
		calls++
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestDoIfRetryable_RecoversAfterTransientFailures(t *testing.T) {
	calls := 0
	err := DoIfRetryable(context.Background(), fastConfig(), func() error {
		calls++
		if calls < 3 {
			return errors.New("driver: bad connection")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestDoIfRetryable_PermanentErrorReturnsImmediately(t *testing.T) {
	authErr := errors.New("password authentication failed for user \"veriqa\"")
	calls := 0
	err := DoIfRetryable(context.Background(), fastConfig(), func() error {
		calls++
		return authErr
	})

	if !errors.Is(err, authErr) {
		t.Fatalf("got %v, want the auth error unchanged", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1 for a permanent error", calls)
	}
}

func TestDoIfRetryable_ExhaustsBudget(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxRetries = 2
	cfg.MaxSameErrorType = 0

	calls := 0
	err := DoIfRetryable(context.Background(), cfg, func() error {
		calls++
		return errors.New("read tcp 10.0.0.5:5432: i/o timeout")
	})

	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3 (initial attempt plus 2 retries)", calls)
	}
}

func TestDoIfRetryable_SameErrorEscalation(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxRetries = 10
	cfg.MaxSameErrorType = 3

	base := errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")
	calls := 0
	err := DoIfRetryable(context.Background(), cfg, func() error {
		calls++
		return base
	})

	if calls != 3 {
		t.Errorf("fn called %d times, want 3 before escalation", calls)
	}
	if err == nil || !errors.Is(err, base) {
		t.Fatalf("escalated error should wrap the original, got %v", err)
	}
	if want := "repeated error (3 times, type=connection)"; !strings.Contains(err.Error(), want) {
		t.Errorf("error %q does not mention %q", err.Error(), want)
	}
}

func TestDoIfRetryable_AlternatingErrorsResetCounter(t *testing.T) {
	cfg := fastConfig()
	cfg.MaxRetries = 4
	cfg.MaxSameErrorType = 2

	calls := 0
	err := DoIfRetryable(context.Background(), cfg, func() error {
		calls++
		if calls%2 == 1 {
			return errors.New("deadlock detected")
		}
		return errors.New("i/o timeout")
	})

	if calls != 5 {
		t.Errorf("fn called %d times, want 5 (alternating classes never escalate)", calls)
	}
	if err == nil || !strings.Contains(err.Error(), "deadlock") {
		t.Errorf("want the final deadlock error, got %v", err)
	}
}

func TestDoIfRetryable_ContextCancelledDuringWait(t *testing.T) {
	cfg := fastConfig()
	cfg.InitialDelay = 200 * time.Millisecond
	cfg.MaxSameErrorType = 0

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	calls := 0
	err := DoIfRetryable(ctx, cfg, func() error {
		calls++
		return errors.New("connection refused")
	})

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want context.DeadlineExceeded", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1 before the deadline", calls)
	}
}

func TestDoIfRetryable_NilConfigUsesDefaults(t *testing.T) {
	calls := 0
	err := DoIfRetryable(context.Background(), nil, func() error {
		calls++
		return errors.New("syntax error at or near \"SELCT\"")
	})

	if err == nil {
		t.Fatal("expected the permanent error back")
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), true},
		{"io timeout", errors.New("read tcp 10.0.0.5:1433: i/o timeout"), true},
		{"bad connection", errors.New("driver: bad connection"), true},
		{"pgx closed pool", errors.New("closed pool"), true},
		{"conn closed", errors.New("conn closed"), true},
		{"mysql too many connections", errors.New("Error 1040: Too many connections"), true},
		{"mysql deadlock", errors.New("Error 1213: Deadlock found when trying to get lock"), true},
		{"pg shutting down", errors.New("FATAL: the server is not accepting clients"), true},
		{"auth failure", errors.New("password authentication failed for user \"veriqa\""), false},
		{"bad sql", errors.New("syntax error at or near \"SELCT\""), false},
		{"missing table", errors.New("ORA-00942: table or view does not exist"), false},
		{"mssql login", errors.New("mssql: login error: Login failed for user 'sa'"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

type flaggedError struct {
	msg       string
	retryable bool
}

func (e *flaggedError) Error() string     { return e.msg }
func (e *flaggedError) IsRetryable() bool { return e.retryable }

func TestIsRetryable_HonorsInterface(t *testing.T) {
	vetoed := &flaggedError{msg: "connection refused", retryable: false}
	if IsRetryable(vetoed) {
		t.Error("error declaring itself permanent should win over pattern match")
	}

	flagged := &flaggedError{msg: "custom transient condition", retryable: true}
	if !IsRetryable(flagged) {
		t.Error("error declaring itself retryable should be retried")
	}
}

func TestErrorClass(t *testing.T) {
	tests := []struct {
		err  string
		want string
	}{
		{"dial tcp: connect: connection refused", "connection"},
		{"read tcp: connection reset by peer", "connection"},
		{"i/o timeout", "timeout"},
		{"write: broken pipe", "broken_pipe"},
		{"Error 1040: Too many connections", "too_many_connections"},
		{"deadlock detected", "deadlock"},
		{"driver: bad connection", "bad_connection"},
		{"closed pool", "bad_connection"},
		{"sql: database is closed", "unknown"},
	}

	for _, tt := range tests {
		if got := errorClass(errors.New(tt.err)); got != tt.want {
			t.Errorf("errorClass(%q) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestBackoffGrowthIsCapped(t *testing.T) {
	cfg := &Config{
		InitialDelay: time.Millisecond,
		MaxDelay:     4 * time.Millisecond,
		Multiplier:   2.0,
	}
	bo := &backoff{cfg: cfg, delay: cfg.InitialDelay}

	want := []time.Duration{
		2 * time.Millisecond,
		4 * time.Millisecond,
		4 * time.Millisecond,
	}
	for i, w := range want {
		if err := bo.wait(context.Background()); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
		if bo.delay != w {
			t.Errorf("after wait %d delay = %v, want %v", i, bo.delay, w)
		}
	}
}
