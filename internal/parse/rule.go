package parse

// Rule decodes a value from the start of s.
//
// On success ok is true and rest is the input after the consumed prefix. On
// failure ok is false and rest is where a tolerant caller should resume; most
// rules return s unchanged, rules that can recognise a damaged token return
// the input past it. rest is always a suffix of s.
type Rule[T any] interface {
	Apply(s string) (v T, ok bool, rest string)
}

// RuleFunc adapts a function to the Rule interface.
type RuleFunc[T any] func(s string) (T, bool, string)

func (f RuleFunc[T]) Apply(s string) (T, bool, string) { return f(s) }

type mapped[T, U any] struct {
	r Rule[T]
	f func(T) (U, bool)
}

// Map converts the output of r. If f rejects the value the rule fails, but the
// remainder still points past the token r consumed.
func Map[T, U any](r Rule[T], f func(T) (U, bool)) Rule[U] {
	return mapped[T, U]{r: r, f: f}
}

func (m mapped[T, U]) Apply(s string) (U, bool, string) {
	var zero U
	v, ok, rest := m.r.Apply(s)
	if !ok {
		return zero, false, rest
	}
	u, ok := m.f(v)
	if !ok {
		return zero, false, rest
	}
	return u, true, rest
}

type preceded[P, T any] struct {
	p Rule[P]
	r Rule[T]
}

// Preceded matches p, discards its value, then matches r. If p matches and r
// does not, the remainder is past p.
func Preceded[P, T any](p Rule[P], r Rule[T]) Rule[T] {
	return preceded[P, T]{p: p, r: r}
}

func (q preceded[P, T]) Apply(s string) (T, bool, string) {
	var zero T
	_, ok, rest := q.p.Apply(s)
	if !ok {
		return zero, false, s
	}
	return q.r.Apply(rest)
}

type terminated[T, S any] struct {
	r Rule[T]
	t Rule[S]
}

// Terminated matches r then t, keeping the value of r.
func Terminated[T, S any](r Rule[T], t Rule[S]) Rule[T] {
	return terminated[T, S]{r: r, t: t}
}

func (q terminated[T, S]) Apply(s string) (T, bool, string) {
	var zero T
	v, ok, rest := q.r.Apply(s)
	if !ok {
		return zero, false, rest
	}
	_, ok, rest = q.t.Apply(rest)
	if !ok {
		return zero, false, rest
	}
	return v, true, rest
}

type repeat[T any] struct {
	r   Rule[T]
	max int
}

// Repeat applies r up to max times and collects the matches. It stops at the
// first failure and never fails itself; the remainder is after the last match.
func Repeat[T any](r Rule[T], max int) Rule[[]T] {
	return repeat[T]{r: r, max: max}
}

func (q repeat[T]) Apply(s string) ([]T, bool, string) {
	var out []T
	for i := 0; i < q.max; i++ {
		v, ok, rest := q.r.Apply(s)
		if !ok {
			break
		}
		out = append(out, v)
		s = rest
	}
	return out, true, s
}
