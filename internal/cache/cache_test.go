package cache

import (
	"context"
	"sort"
	"testing"
	"time"
)

func TestNewMemory(t *testing.T) {
	s := NewMemory()
	defer s.Stop()

	if s.items == nil {
		t.Fatal("NewMemory() returned store with nil items map")
	}
	if s.sets == nil {
		t.Fatal("NewMemory() returned store with nil sets map")
	}
}

func TestMemoryStore_SetAndGet(t *testing.T) {
	s := NewMemory()
	defer s.Stop()
	ctx := context.Background()

	if err := s.Set(ctx, "key1", []byte("value1"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok, err := s.Get(ctx, "key1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Error("Get() returned false for existing key")
	}
	if string(got) != "value1" {
		t.Errorf("Get() = %q, want %q", got, "value1")
	}
}

func TestMemoryStore_Get_NotFound(t *testing.T) {
	s := NewMemory()
	defer s.Stop()

	got, ok, err := s.Get(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() should return false for non-existent key")
	}
	if got != nil {
		t.Errorf("Get() should return nil for non-existent key, got %v", got)
	}
}

func TestMemoryStore_Get_Expired(t *testing.T) {
	s := NewMemory()
	defer s.Stop()
	ctx := context.Background()

	s.Set(ctx, "key1", []byte("value1"), 50*time.Millisecond)

	if _, ok, _ := s.Get(ctx, "key1"); !ok {
		t.Error("Get() should return true for fresh key")
	}

	time.Sleep(60 * time.Millisecond)

	if _, ok, _ := s.Get(ctx, "key1"); ok {
		t.Error("Get() should return false for expired key")
	}
}

func TestMemoryStore_Set_ZeroTTL(t *testing.T) {
	s := NewMemory()
	defer s.Stop()
	ctx := context.Background()

	s.Set(ctx, "key1", []byte("value1"), 0)

	time.Sleep(10 * time.Millisecond)

	if _, ok, _ := s.Get(ctx, "key1"); !ok {
		t.Error("Get() should return true for key stored without TTL")
	}
}

func TestMemoryStore_SetNX(t *testing.T) {
	s := NewMemory()
	defer s.Stop()
	ctx := context.Background()

	set, err := s.SetNX(ctx, "flag", []byte("1"), time.Minute)
	if err != nil {
		t.Fatalf("SetNX() error = %v", err)
	}
	if !set {
		t.Error("SetNX() should return true for absent key")
	}

	set, _ = s.SetNX(ctx, "flag", []byte("2"), time.Minute)
	if set {
		t.Error("SetNX() should return false when key already exists")
	}

	got, _, _ := s.Get(ctx, "flag")
	if string(got) != "1" {
		t.Errorf("SetNX() should not overwrite, got %q", got)
	}
}

func TestMemoryStore_SetNX_AfterExpiry(t *testing.T) {
	s := NewMemory()
	defer s.Stop()
	ctx := context.Background()

	s.SetNX(ctx, "flag", []byte("1"), 30*time.Millisecond)
	time.Sleep(40 * time.Millisecond)

	set, _ := s.SetNX(ctx, "flag", []byte("2"), time.Minute)
	if !set {
		t.Error("SetNX() should succeed after previous value expired")
	}
}

func TestMemoryStore_Delete(t *testing.T) {
	s := NewMemory()
	defer s.Stop()
	ctx := context.Background()

	s.Set(ctx, "key1", []byte("v"), time.Minute)
	s.SetAdd(ctx, "set1", "a")

	if err := s.Delete(ctx, "key1", "set1", "missing"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, ok, _ := s.Get(ctx, "key1"); ok {
		t.Error("Delete() should remove plain keys")
	}
	if n, _ := s.SetCard(ctx, "set1"); n != 0 {
		t.Error("Delete() should remove set keys")
	}
}

func TestMemoryStore_DeletePattern(t *testing.T) {
	s := NewMemory()
	defer s.Stop()
	ctx := context.Background()

	s.Set(ctx, "feed-videos:user:u1:mixed:abc", []byte("v"), time.Minute)
	s.Set(ctx, "feed-videos:user:u1:sport:def", []byte("v"), time.Minute)
	s.Set(ctx, "feed-videos:user:u2:mixed:ghi", []byte("v"), time.Minute)

	if err := s.DeletePattern(ctx, "feed-videos:user:u1:*"); err != nil {
		t.Fatalf("DeletePattern() error = %v", err)
	}

	if _, ok, _ := s.Get(ctx, "feed-videos:user:u1:mixed:abc"); ok {
		t.Error("DeletePattern() should remove matching key")
	}
	if _, ok, _ := s.Get(ctx, "feed-videos:user:u1:sport:def"); ok {
		t.Error("DeletePattern() should remove all matching keys")
	}
	if _, ok, _ := s.Get(ctx, "feed-videos:user:u2:mixed:ghi"); !ok {
		t.Error("DeletePattern() should not touch other users' keys")
	}
}

func TestMemoryStore_SetOps(t *testing.T) {
	s := NewMemory()
	defer s.Stop()
	ctx := context.Background()

	if err := s.SetAdd(ctx, "watched", "v1", "v2", "v3"); err != nil {
		t.Fatalf("SetAdd() error = %v", err)
	}
	s.SetAdd(ctx, "watched", "v2") // duplicate

	n, err := s.SetCard(ctx, "watched")
	if err != nil {
		t.Fatalf("SetCard() error = %v", err)
	}
	if n != 3 {
		t.Errorf("SetCard() = %d, want 3", n)
	}

	members, err := s.SetMembers(ctx, "watched")
	if err != nil {
		t.Fatalf("SetMembers() error = %v", err)
	}
	sort.Strings(members)
	want := []string{"v1", "v2", "v3"}
	if len(members) != len(want) {
		t.Fatalf("SetMembers() = %v, want %v", members, want)
	}
	for i := range want {
		if members[i] != want[i] {
			t.Errorf("SetMembers()[%d] = %q, want %q", i, members[i], want[i])
		}
	}
}

func TestMemoryStore_SetPop(t *testing.T) {
	s := NewMemory()
	defer s.Stop()
	ctx := context.Background()

	s.SetAdd(ctx, "watched", "v1", "v2")

	first, err := s.SetPop(ctx, "watched")
	if err != nil {
		t.Fatalf("SetPop() error = %v", err)
	}
	if first != "v1" && first != "v2" {
		t.Errorf("SetPop() = %q, want a member of the set", first)
	}

	if n, _ := s.SetCard(ctx, "watched"); n != 1 {
		t.Errorf("SetCard() after pop = %d, want 1", n)
	}

	s.SetPop(ctx, "watched")
	empty, err := s.SetPop(ctx, "watched")
	if err != nil {
		t.Fatalf("SetPop() on empty set error = %v", err)
	}
	if empty != "" {
		t.Errorf("SetPop() on empty set = %q, want empty string", empty)
	}
}
