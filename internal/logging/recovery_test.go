package logging

import (
	"errors"
	"strings"
	"testing"
)

func TestRecoveryHandler_WrapError(t *testing.T) {
	handler := NewRecoveryHandler("test-component")

	// Should return nil on success
	err := handler.WrapError(func() error {
		return nil
	})
	if err != nil {
		t.Errorf("expected nil, got %v", err)
	}

	// Should pass through errors
	want := errors.New("plain failure")
	err = handler.WrapError(func() error {
		return want
	})
	if !errors.Is(err, want) {
		t.Errorf("expected %v, got %v", want, err)
	}
}

func TestRecoveryHandler_WrapErrorPanic(t *testing.T) {
	buf := capture(t, LevelError)
	handler := NewRecoveryHandler("test-component")

	var capturedErr interface{}
	var capturedStack string
	handler.OnPanic = func(err interface{}, stack string) {
		capturedErr = err
		capturedStack = stack
	}

	err := handler.WrapError(func() error {
		panic("test panic")
	})

	if err == nil {
		t.Fatal("expected error from panic")
	}
	if !strings.Contains(err.Error(), "panic in test-component: test panic") {
		t.Errorf("unexpected error message: %v", err)
	}
	if capturedErr != "test panic" {
		t.Errorf("expected 'test panic', got %v", capturedErr)
	}
	if !strings.Contains(capturedStack, "TestRecoveryHandler_WrapErrorPanic") {
		t.Error("stack trace should contain test function name")
	}

	got := lines(buf)
	if len(got) != 1 || got[0]["event"] != "panic_recovered" {
		t.Errorf("expected panic_recovered event, got %s", buf.String())
	}
}

func TestRecover(t *testing.T) {
	buf := capture(t, LevelError)

	func() {
		defer Recover("deferred")
		panic("deferred panic")
	}()

	if !strings.Contains(buf.String(), "deferred panic") {
		t.Errorf("expected panic to be logged, got %s", buf.String())
	}
}
