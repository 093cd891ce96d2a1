package foreign

import (
	"sync"
	"testing"
)

func TestTransferAndTake(t *testing.T) {
	base := Count()

	tok := NewToken("payload")
	if tok == 0 {
		t.Fatal("NewToken returned zero token")
	}
	if Count() != base+1 {
		t.Fatalf("Count() = %d, want %d", Count(), base+1)
	}

	v, ok := tok.Take()
	if !ok {
		t.Fatal("Take failed on live token")
	}
	if v.(string) != "payload" {
		t.Errorf("Take returned %v, want payload", v)
	}
	if Count() != base {
		t.Errorf("Count() = %d after Take, want %d", Count(), base)
	}
}

func TestBorrowDoesNotConsume(t *testing.T) {
	tok := NewToken(42)
	defer tok.Take()

	for i := 0; i < 3; i++ {
		v, ok := tok.Borrow()
		if !ok {
			t.Fatalf("Borrow #%d failed", i)
		}
		if v.(int) != 42 {
			t.Fatalf("Borrow #%d returned %v", i, v)
		}
	}

	if !tok.Valid() {
		t.Error("token invalid after borrows")
	}
}

func TestTakeExactlyOnce(t *testing.T) {
	tok := NewToken("once")

	if _, ok := tok.Take(); !ok {
		t.Fatal("first Take failed")
	}
	if _, ok := tok.Take(); ok {
		t.Error("second Take succeeded")
	}
	if _, ok := tok.Borrow(); ok {
		t.Error("Borrow succeeded after Take")
	}
	if tok.Valid() {
		t.Error("token still valid after Take")
	}
}

func TestZeroTokenInvalid(t *testing.T) {
	var tok Token
	if tok.Valid() {
		t.Error("zero token reported valid")
	}
	if _, ok := tok.Borrow(); ok {
		t.Error("zero token borrowed")
	}
	if _, ok := tok.Take(); ok {
		t.Error("zero token taken")
	}
}

func TestConcurrentBorrows(t *testing.T) {
	type state struct {
		mu sync.Mutex
		n  int
	}

	s := &state{}
	tok := NewToken(s)
	defer tok.Take()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				v, ok := tok.Borrow()
				if !ok {
					t.Error("Borrow failed during concurrent access")
					return
				}
				st := v.(*state)
				st.mu.Lock()
				st.n++
				st.mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if s.n != 1600 {
		t.Errorf("state.n = %d, want 1600", s.n)
	}
}

func TestTokensAreDistinct(t *testing.T) {
	a := NewToken("a")
	b := NewToken("b")
	defer a.Take()
	defer b.Take()

	if a == b {
		t.Fatal("distinct transfers produced equal tokens")
	}

	va, _ := a.Borrow()
	vb, _ := b.Borrow()
	if va.(string) != "a" || vb.(string) != "b" {
		t.Errorf("tokens crossed: %v, %v", va, vb)
	}
}
