package utils

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1290, "1290"},
		{12.5, "12.5"},
		{0, "0"},
		{math.NaN(), "-"},
		{math.Inf(1), "-"},
	}
	for _, tt := range tests {
		if got := FormatPrice(tt.in); got != tt.want {
			t.Errorf("FormatPrice(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetAbsDBPathDefault(t *testing.T) {
	got, err := GetAbsDBPath("")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(got, filepath.Join(".config", "shokuhi", "catalog.sqlite")) {
		t.Errorf("unexpected default path %q", got)
	}
}

func TestDBLockRoundTrip(t *testing.T) {
	l, err := NewDBLock(filepath.Join(t.TempDir(), "catalog.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Lock(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := l.Unlock(); err != nil {
		t.Fatal(err)
	}
}

func TestDBLockWaitHonorsContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.sqlite")
	held, err := NewDBLock(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := held.Lock(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer held.Unlock()

	other, err := NewDBLock(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if err := other.Lock(ctx); err == nil {
		other.Unlock()
		t.Fatal("expected the second lock to give up while the first is held")
	}
}
