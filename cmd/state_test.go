package cmd

import (
	"errors"
	"testing"
	"time"
)

func TestWithDocPassesThroughResults(t *testing.T) {
	got, err := withDoc(func() (string, error) { return "ok", nil })
	if err != nil || got != "ok" {
		t.Fatalf("unexpected result: %q %v", got, err)
	}

	wantErr := errors.New("boom")
	if _, err := withDoc(func() (string, error) { return "", wantErr }); !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped fn error, got %v", err)
	}
}

func TestWithDocSerializesCallers(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		withDoc(func() (struct{}, error) {
			close(started)
			<-release
			return struct{}{}, nil
		})
	}()
	<-started

	done := make(chan struct{})
	go func() {
		withDoc(func() (struct{}, error) { return struct{}{}, nil })
		close(done)
	}()

	select {
	case <-done:
		t.Fatalf("second caller ran while the first held the lock")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("second caller never ran after the lock was released")
	}
}
