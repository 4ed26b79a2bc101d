package ir

import "github.com/JoeySoprano420/Parashade/compiler/ast"

// fold is the closed-form constant evaluator of spec.md §4.4. It never
// emits instructions or warnings — callers decide what to do with a
// folded value. It has no knowledge of locals, so a Var is never
// constant even if every value ever stored to it happens to be one.
func fold(e ast.Expression) (uint64, bool) {
	switch e := e.(type) {
	case ast.Num:
		return e.Value, true

	case ast.Add:
		l, lok := fold(e.Left)
		r, rok := fold(e.Right)

		if !lok || !rok {
			return 0, false
		}

		return l + r, true

	case ast.Call:
		return foldCall(e)

	default:
		return 0, false
	}
}

func foldCall(c ast.Call) (uint64, bool) {
	switch c.Name {
	case "max":
		return foldBinary(c, func(a, b int64) uint64 {
			if a > b {
				return uint64(a)
			}

			return uint64(b)
		})

	case "min":
		return foldBinary(c, func(a, b int64) uint64 {
			if a < b {
				return uint64(a)
			}

			return uint64(b)
		})

	case "gt":
		return foldBinary(c, boolFold(func(a, b int64) bool { return a > b }))
	case "lt":
		return foldBinary(c, boolFold(func(a, b int64) bool { return a < b }))
	case "eq":
		return foldBinary(c, boolFold(func(a, b int64) bool { return a == b }))
	case "ne":
		return foldBinary(c, boolFold(func(a, b int64) bool { return a != b }))
	case "ge":
		return foldBinary(c, boolFold(func(a, b int64) bool { return a >= b }))
	case "le":
		return foldBinary(c, boolFold(func(a, b int64) bool { return a <= b }))

	case "ever_exact", "utterly_inline":
		if len(c.Args) != 1 {
			return 0, false
		}

		return fold(c.Args[0])

	default:
		return 0, false
	}
}

func boolFold(cmp func(a, b int64) bool) func(a, b int64) uint64 {
	return func(a, b int64) uint64 {
		if cmp(a, b) {
			return 1
		}

		return 0
	}
}

func foldBinary(c ast.Call, combine func(a, b int64) uint64) (uint64, bool) {
	if len(c.Args) != 2 {
		return 0, false
	}

	a, aok := fold(c.Args[0])
	b, bok := fold(c.Args[1])

	if !aok || !bok {
		return 0, false
	}

	return combine(int64(a), int64(b)), true
}
