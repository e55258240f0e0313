package model

// Decorator adjusts a loaded Form in place before it is rendered or
// validated; widget resolution is one.
type Decorator interface {
	Decorate(*Form) error
}

type DecoratorFunc func(*Form) error

func (fn DecoratorFunc) Decorate(form *Form) error { return fn(form) }
