package di

import "testing"

type counter struct{ n int }

func TestContainer_LazySingleton(t *testing.T) {
	c := NewContainer()
	built := 0
	tok := NewToken[*counter]("test.counter")

	RegisterToken(c, tok, func(ServiceRegistry) *counter {
		built++
		return &counter{n: 7}
	})

	if built != 0 {
		t.Fatalf("factory ran before first Get")
	}

	first := GetToken(c, tok)
	second := GetToken(c, tok)

	if built != 1 {
		t.Errorf("factory ran %d times, want 1", built)
	}
	if first != second {
		t.Error("expected the same instance on repeated Get")
	}
	if first.n != 7 {
		t.Errorf("n = %d, want 7", first.n)
	}
}

func TestContainer_FactoryResolvesDependencies(t *testing.T) {
	c := NewContainer()
	c.Register("base", 40)
	tok := NewToken[int]("sum")

	RegisterToken(c, tok, func(sr ServiceRegistry) int {
		return sr.Get("base").(int) + 2
	})

	if got := GetToken(c, tok); got != 42 {
		t.Errorf("GetToken = %d, want 42", got)
	}
}

func TestContainer_UnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for unregistered service")
		}
	}()
	NewContainer().Get("missing")
}

func TestContainer_CyclePanics(t *testing.T) {
	c := NewContainer()
	c.RegisterFactory("a", func(sr ServiceRegistry) any { return sr.Get("b") })
	c.RegisterFactory("b", func(sr ServiceRegistry) any { return sr.Get("a") })

	defer func() {
		if recover() == nil {
			t.Error("expected panic for dependency cycle")
		}
	}()
	c.Get("a")
}
