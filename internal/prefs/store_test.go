package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

// TestSaveLoad_RoundTrip verifies saving and loading preserves preferences.
func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.yaml")
	in := Prefs{TouchMode: "relative", TransmissionID: "987654"}

	if err := Save(path, in); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	out, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if out != in {
		t.Fatalf("expected %+v, got %+v", in, out)
	}
}

// TestLoad_MissingFile_ReturnsEmpty verifies missing files return zero data.
func TestLoad_MissingFile_ReturnsEmpty(t *testing.T) {
	out, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if out != (Prefs{}) {
		t.Fatalf("expected empty prefs, got %+v", out)
	}
}

// TestLoad_Malformed verifies broken files are reported.
func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	if err := os.WriteFile(path, []byte("touch_mode: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

// TestStore_UpdateWritesThrough verifies updates reach the disk.
func TestStore_UpdateWritesThrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Update(func(p *Prefs) { p.TouchMode = "absolute" }); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if err := s.Update(func(p *Prefs) { p.TransmissionID = "123" }); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	again, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	want := Prefs{TouchMode: "absolute", TransmissionID: "123"}
	if got := again.Get(); got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

// TestStore_NoopUpdate verifies unchanged preferences do not create a file.
func TestStore_NoopUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.Update(func(*Prefs) {}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no file, got err=%v", err)
	}
}
