package pty

import (
	"bytes"
	"io"
	"testing"
	"time"
)

func TestSpawnAndReadOutput(t *testing.T) {
	s := New(80, 24, nil)
	if err := s.Spawn(SpawnConfig{Command: "echo hello"}); err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	var buf bytes.Buffer
	deadline := time.Now().Add(5 * time.Second)
	tmp := make([]byte, 4096)
	for time.Now().Before(deadline) {
		n, err := s.Read(tmp)
		buf.Write(tmp[:n])
		if err != nil {
			if err == io.EOF {
				break
			}
			t.Fatalf("Read: %v", err)
		}
		if bytes.Contains(buf.Bytes(), []byte("hello")) {
			break
		}
	}

	if !bytes.Contains(buf.Bytes(), []byte("hello")) {
		t.Fatalf("expected output to contain %q, got %q", "hello", buf.String())
	}

	if _, err := s.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestSizeReflectsConstructionAndResize(t *testing.T) {
	s := New(80, 24, nil)
	cols, rows := s.Size()
	if cols != 80 || rows != 24 {
		t.Fatalf("got (%d, %d), want (80, 24)", cols, rows)
	}

	if err := s.Resize(100, 30); err != nil {
		t.Fatalf("Resize before spawn should be a no-op, got error: %v", err)
	}
	cols, rows = s.Size()
	if cols != 100 || rows != 30 {
		t.Fatalf("got (%d, %d), want (100, 30)", cols, rows)
	}
}

func TestEnvInjection(t *testing.T) {
	s := New(80, 24, nil)
	err := s.Spawn(SpawnConfig{
		Command: "echo $ASCIINEMA_SESSION",
		Env:     map[string]string{"ASCIINEMA_SESSION": "test-session-id"},
	})
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	var buf bytes.Buffer
	deadline := time.Now().Add(5 * time.Second)
	tmp := make([]byte, 4096)
	for time.Now().Before(deadline) {
		n, err := s.Read(tmp)
		buf.Write(tmp[:n])
		if err != nil {
			break
		}
		if bytes.Contains(buf.Bytes(), []byte("test-session-id")) {
			break
		}
	}

	if !bytes.Contains(buf.Bytes(), []byte("test-session-id")) {
		t.Fatalf("expected env var to be visible to child, got %q", buf.String())
	}

	s.Wait()
}

func TestKillTerminatesLongRunningChild(t *testing.T) {
	s := New(80, 24, nil)
	if err := s.Spawn(SpawnConfig{Command: "sleep 30"}); err != nil {
		t.Fatalf("Spawn: %v", err)
	}

	start := time.Now()
	if _, err := s.Kill(); err != nil {
		t.Fatalf("Kill: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("Kill took too long: %v", elapsed)
	}
}
