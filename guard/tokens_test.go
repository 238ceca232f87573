package guard

import (
	"fmt"
	"reflect"
	"sync"
	"testing"
)

func TestNewTokenSet(t *testing.T) {
	s := NewTokenSet("b", "", "a", "b")
	if got, want := s.Snapshot(), []string{"a", "b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("snapshot=%v, want=%v", got, want)
	}
	if !s.Seeded() || s.Len() != 2 {
		t.Fatalf("seeded=%v len=%d", s.Seeded(), s.Len())
	}
	if !s.Contains("a") || s.Contains("c") || s.Contains("") {
		t.Fatal("unexpected membership")
	}

	if NewTokenSet("").Seeded() {
		t.Fatal("set of empty strings should not be seeded")
	}
}

func TestLearnIfEmpty(t *testing.T) {
	s := NewTokenSet()
	if s.LearnIfEmpty("") {
		t.Fatal("learned an empty token")
	}
	if !s.LearnIfEmpty("first") {
		t.Fatal("did not learn into an empty set")
	}
	if s.LearnIfEmpty("second") {
		t.Fatal("learned into a seeded set")
	}
	if got, want := s.Snapshot(), []string{"first"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("snapshot=%v, want=%v", got, want)
	}

	if NewTokenSet("configured").LearnIfEmpty("other") {
		t.Fatal("learned into a configured set")
	}
}

func TestLearnIfEmptyConcurrent(t *testing.T) {
	const n = 64
	s := NewTokenSet()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners []string
	)
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(token string) {
			defer wg.Done()
			<-start
			if s.LearnIfEmpty(token) {
				mu.Lock()
				winners = append(winners, token)
				mu.Unlock()
			}
		}(fmt.Sprintf("token-%d", i))
	}
	close(start)
	wg.Wait()

	if len(winners) != 1 {
		t.Fatalf("winners=%v, want exactly one", winners)
	}
	if got, want := s.Snapshot(), winners; !reflect.DeepEqual(got, want) {
		t.Fatalf("snapshot=%v, want=%v", got, want)
	}
}
