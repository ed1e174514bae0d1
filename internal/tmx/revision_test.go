package tmx_test

import (
	"testing"

	"tmx-go/internal/tmx"
)

func TestParseRevision(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    tmx.Revision
		wantErr bool
	}{
		{"two decimals", "1.00", 100, false},
		{"after one bump", "1.01", 101, false},
		{"carries across whole", "2.37", 237, false},
		{"empty means default", "", tmx.DefaultRevision, false},
		{"whitespace only means default", "  ", tmx.DefaultRevision, false},
		{"bare integer scaled", "3", 300, false},
		{"one fractional digit scaled", "1.5", 150, false},
		{"three fractional digits rejected", "1.015", 0, true},
		{"negative rejected", "-1.00", 0, true},
		{"garbage rejected", "abc", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tmx.ParseRevision(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRevision(%q) expected error, got %v", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRevision(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseRevision(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestRevisionString(t *testing.T) {
	tests := []struct {
		rev  tmx.Revision
		want string
	}{
		{100, "1.00"},
		{101, "1.01"},
		{110, "1.10"},
		{1000, "10.00"},
	}
	for _, tt := range tests {
		if got := tt.rev.String(); got != tt.want {
			t.Errorf("Revision(%d).String() = %q, want %q", tt.rev, got, tt.want)
		}
	}
}

func TestRevisionBump(t *testing.T) {
	// A hundred bumps from 1.00 must land exactly on 2.00; no drift.
	rev := tmx.DefaultRevision
	for i := 0; i < 100; i++ {
		rev = rev.Bump()
	}
	if got := rev.String(); got != "2.00" {
		t.Errorf("100 bumps from 1.00 = %q, want %q", got, "2.00")
	}
}

func TestReconcile(t *testing.T) {
	t.Run("identity found advances one step", func(t *testing.T) {
		next, isUpdate := tmx.Reconcile(100, true)
		if next != 101 || !isUpdate {
			t.Errorf("Reconcile(1.00, found) = %v, %v, want 1.01, true", next, isUpdate)
		}
	})

	t.Run("identity absent keeps current", func(t *testing.T) {
		next, isUpdate := tmx.Reconcile(237, false)
		if next != 237 || isUpdate {
			t.Errorf("Reconcile(2.37, not found) = %v, %v, want 2.37, false", next, isUpdate)
		}
	})

	t.Run("zero current falls back to default", func(t *testing.T) {
		next, isUpdate := tmx.Reconcile(0, false)
		if next != tmx.DefaultRevision || isUpdate {
			t.Errorf("Reconcile(0, not found) = %v, %v, want %v, false", next, isUpdate, tmx.DefaultRevision)
		}
	})

	t.Run("zero current with identity found bumps from default", func(t *testing.T) {
		next, isUpdate := tmx.Reconcile(0, true)
		if next != 101 || !isUpdate {
			t.Errorf("Reconcile(0, found) = %v, %v, want 1.01, true", next, isUpdate)
		}
	})
}
