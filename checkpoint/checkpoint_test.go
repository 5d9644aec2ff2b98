package checkpoint

import (
	"errors"
	"io"
	"strings"
	"testing"
)

var (
	errSentinel = errors.New("sentinel")
	errCause    = errors.New("cause")
)

func TestFrom(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantNil  bool
		wantSame bool
	}{
		{name: "nil stays nil", err: nil, wantNil: true},
		{name: "EOF is not decorated", err: io.EOF, wantSame: true},
		{name: "unexpected EOF is not decorated", err: io.ErrUnexpectedEOF, wantSame: true},
		{name: "other errors get a position", err: errCause},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := From(tt.err)
			if tt.wantNil {
				if got != nil {
					t.Errorf("From() = %v, want nil", got)
				}
				return
			}
			if tt.wantSame {
				if got != tt.err {
					t.Errorf("From() = %v, want %v", got, tt.err)
				}
				return
			}
			if !errors.Is(got, tt.err) {
				t.Errorf("From() = %v, does not match %v", got, tt.err)
			}
			if !strings.Contains(got.Error(), "checkpoint_test.go") {
				t.Errorf("From() = %q, want the caller file in the message", got.Error())
			}
		})
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name    string
		prev    error
		err     error
		wantNil bool
		wantIs  []error
	}{
		{name: "nil prev", prev: nil, err: errSentinel, wantNil: true},
		{name: "both errors match", prev: errCause, err: errSentinel, wantIs: []error{errCause, errSentinel}},
		{name: "nested checkpoints", prev: Wrap(errCause, errSentinel), err: io.ErrClosedPipe, wantIs: []error{errCause, errSentinel, io.ErrClosedPipe}},
		{name: "nil description", prev: errCause, err: nil, wantIs: []error{errCause}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Wrap(tt.prev, tt.err)
			if tt.wantNil {
				if got != nil {
					t.Errorf("Wrap() = %v, want nil", got)
				}
				return
			}
			for _, target := range tt.wantIs {
				if !errors.Is(got, target) {
					t.Errorf("Wrap() = %v, does not match %v", got, target)
				}
			}
			_ = got.Error()
		})
	}
}

func TestWrapf(t *testing.T) {
	got := Wrapf(errCause, "sector %d: %w", 3, errSentinel)
	if !errors.Is(got, errSentinel) || !errors.Is(got, errCause) {
		t.Errorf("Wrapf() = %v, want both errors to match", got)
	}
	if !strings.Contains(got.Error(), "sector 3") {
		t.Errorf("Wrapf() = %q, want the formatted message", got.Error())
	}
	if Wrapf(io.EOF, "x") != io.EOF {
		t.Error("Wrapf() must return io.EOF unchanged")
	}
}
