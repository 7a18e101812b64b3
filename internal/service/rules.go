package service

import "context"

// rule is one step of a validation pipeline. fails reports whether the
// rule is violated; an error from fails is a store fault, not a violation.
type rule struct {
	kind  Kind
	msg   string
	fails func(ctx context.Context) (bool, error)
	// describe, when set, builds the message after fails reported a violation.
	describe func() string
}

// firstFailure evaluates rules in order and stops at the first violation.
// Later rules are never evaluated, so they may rely on earlier ones having
// passed.
func firstFailure(ctx context.Context, op string, rules []rule) error {
	for _, r := range rules {
		failed, err := r.fails(ctx)
		if err != nil {
			return internal(op, err)
		}
		if failed {
			kind := r.kind
			if kind == 0 {
				kind = KindInvalid
			}
			msg := r.msg
			if r.describe != nil {
				msg = r.describe()
			}
			return &Error{Kind: kind, Msg: msg}
		}
	}
	return nil
}

// check wraps a predicate that needs no store access.
func check(msg string, failed func() bool) rule {
	return rule{msg: msg, fails: func(context.Context) (bool, error) { return failed(), nil }}
}

// missing reports whether any value is empty.
func missing(values ...string) bool {
	for _, v := range values {
		if v == "" {
			return true
		}
	}
	return false
}
