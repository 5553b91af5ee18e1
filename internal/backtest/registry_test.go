package backtest

import (
	"errors"
	"testing"
)

func TestNewSetup(t *testing.T) {
	for _, name := range []string{"ifr", "123", "maxmin"} {
		s, err := NewSetup(name)
		if err != nil {
			t.Fatalf("NewSetup(%q): %v", name, err)
		}
		if s.Name() != name {
			t.Errorf("Expected name %q, got %q", name, s.Name())
		}
	}

	_, err := NewSetup("turtle")
	if !errors.Is(err, ErrUnknownSetup) {
		t.Errorf("Expected ErrUnknownSetup, got %v", err)
	}
}

func TestSetupsSorted(t *testing.T) {
	names := Setups()
	if len(names) < 3 {
		t.Fatalf("Expected at least 3 setups, got %v", names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("Expected sorted names, got %v", names)
		}
	}
}

func TestWithThresholdCopies(t *testing.T) {
	orig := DefaultIFRSetup()
	next := orig.WithThreshold(5).(*IFRSetup)

	if orig.Entry != 25 {
		t.Errorf("Expected original untouched, got %f", orig.Entry)
	}
	if next.Entry != 5 {
		t.Errorf("Expected new threshold 5, got %f", next.Entry)
	}
}
