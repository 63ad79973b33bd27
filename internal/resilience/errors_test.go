package resilience

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsTransient_Explicit(t *testing.T) {
	wrapped := fmt.Errorf("connect: %w", NewTransientError(errors.New("busy")))
	if !IsTransient(wrapped) {
		t.Error("expected wrapped TransientError to be transient")
	}
}

func TestIsTransient_Nil(t *testing.T) {
	if IsTransient(nil) {
		t.Error("nil error should not be transient")
	}
}

func TestIsTransient_Regular(t *testing.T) {
	if IsTransient(errors.New("invalid input")) {
		t.Error("regular error should not be transient")
	}
}

func TestIsTransient_Syscall(t *testing.T) {
	for _, errno := range []syscall.Errno{syscall.ECONNRESET, syscall.ECONNREFUSED, syscall.ECONNABORTED} {
		if !IsTransient(fmt.Errorf("dial tcp: %w", errno)) {
			t.Errorf("%v should be transient", errno)
		}
	}
}

func TestIsTransient_NetTimeout(t *testing.T) {
	err := &net.OpError{Op: "dial", Err: &timeoutErr{}}
	if !IsTransient(err) {
		t.Error("net timeout should be transient")
	}
}

func TestIsTransient_PgError(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"57P03", true},
		{"40001", true},
		{"40P01", true},
		{"08006", true},
		{"42P01", false},
		{"23505", false},
	}
	for _, tt := range tests {
		err := fmt.Errorf("query: %w", &pgconn.PgError{Code: tt.code, Message: "x"})
		if got := IsTransient(err); got != tt.want {
			t.Errorf("code %s: got %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestIsTransient_Message(t *testing.T) {
	if !IsTransient(errors.New("FATAL: the database system is starting up")) {
		t.Error("startup message should be transient")
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }
