package di

// Token names a service and carries its type.
type Token[T any] struct {
	name string
}

// NewToken creates a typed token. Public tokens use "context.Name",
// module-private ones "context:name".
func NewToken[T any](name string) Token[T] {
	return Token[T]{name: name}
}

func (t Token[T]) String() string {
	return t.name
}

// RegisterToken registers a lazily built singleton for tok.
func RegisterToken[T any](c Container, tok Token[T], factory func(ServiceRegistry) T) {
	c.RegisterFactory(tok.name, func(sr ServiceRegistry) any {
		return factory(sr)
	})
}

// GetToken resolves tok, panicking on a missing or mistyped registration.
func GetToken[T any](sr ServiceRegistry, tok Token[T]) T {
	return sr.Get(tok.name).(T)
}
