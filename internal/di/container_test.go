package di

import "testing"

type greeter interface{ Greet() string }

type english struct{ n int }

func (e *english) Greet() string { return "hello" }

func TestRegisterToken_LazySingleton(t *testing.T) {
	c := NewContainer()
	tok := NewToken[greeter]("test.Greeter")

	builds := 0
	RegisterToken(c, tok, func(ServiceRegistry) greeter {
		builds++
		return &english{n: builds}
	})

	if builds != 0 {
		t.Fatalf("factory ran before first Get")
	}

	first := GetToken(c, tok)
	second := GetToken(c, tok)
	if builds != 1 {
		t.Errorf("builds = %d, want 1", builds)
	}
	if first != second {
		t.Errorf("GetToken returned different instances")
	}
	if first.Greet() != "hello" {
		t.Errorf("Greet() = %q", first.Greet())
	}
}

func TestContainer_FactoryResolvesDependencies(t *testing.T) {
	c := NewContainer()
	c.Register("name", "swapdesk")

	tok := NewToken[string]("test.Banner")
	RegisterToken(c, tok, func(sr ServiceRegistry) string {
		return "welcome to " + sr.Get("name").(string)
	})

	if got := GetToken(c, tok); got != "welcome to swapdesk" {
		t.Errorf("got %q", got)
	}
	if !c.Has("test.Banner") || c.Has("missing") {
		t.Errorf("Has reported wrong registrations")
	}
}

func TestContainer_GetMissingPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("expected panic for missing service")
		}
	}()
	NewContainer().Get("missing")
}
