package match

import (
	"errors"
	"testing"

	"cardroom/gateway/internal/game"
)

type stubEngine struct {
	game.Engine
}

func TestDirectoryRegisterAndLookup(t *testing.T) {
	directory := NewDirectory()
	engine := &stubEngine{}

	if err := directory.Register("m1", engine); err != nil {
		t.Fatalf("Register: %v", err)
	}
	got, ok := directory.Lookup("m1")
	if !ok || got != game.Engine(engine) {
		t.Fatalf("expected the registered engine back")
	}
	if _, ok := directory.Lookup("m2"); ok {
		t.Fatalf("unknown match must not resolve")
	}
}

func TestDirectoryRejectsDuplicates(t *testing.T) {
	directory := NewDirectory()
	if err := directory.Register("m1", &stubEngine{}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := directory.Register("m1", &stubEngine{}); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestDirectoryRejectsNilEngine(t *testing.T) {
	directory := NewDirectory()
	if err := directory.Register("m1", nil); err == nil {
		t.Fatalf("nil engine must be rejected")
	}
}

func TestDirectoryUnregister(t *testing.T) {
	directory := NewDirectory()
	directory.Register("m1", &stubEngine{})
	directory.Unregister("m1")
	if _, ok := directory.Lookup("m1"); ok {
		t.Fatalf("unregistered match must not resolve")
	}
	// Unknown identifiers are a no-op.
	directory.Unregister("m2")
}

func TestDirectoryLenAndIDs(t *testing.T) {
	directory := NewDirectory()
	directory.Register("m1", &stubEngine{})
	directory.Register("m2", &stubEngine{})

	if directory.Len() != 2 {
		t.Fatalf("expected 2 matches, got %d", directory.Len())
	}
	ids := directory.IDs()
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %v", ids)
	}
}

func TestBanList(t *testing.T) {
	bans := NewBanList()
	if bans.IsBanned(7) {
		t.Fatalf("fresh list bans nobody")
	}
	bans.Ban(7)
	if !bans.IsBanned(7) {
		t.Fatalf("profile 7 should be banned")
	}
	if bans.Len() != 1 {
		t.Fatalf("expected 1 banned profile, got %d", bans.Len())
	}
	bans.Unban(7)
	if bans.IsBanned(7) {
		t.Fatalf("unban should clear the entry")
	}
}
