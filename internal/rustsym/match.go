package rustsym

// TypeNameMatches reports whether the type name query refers to the type
// named candidate. Both sides are compared structurally after parsing, so the
// match is stable across whitespace differences, and two relaxations apply:
//
//   - path matching: the query's path segments must appear, in order, within
//     the candidate's (re-exports make "std::collections::HashMap" name the
//     same type as "std::collections::hash::map::HashMap"), and the final
//     segment must be identical;
//   - generic elision: trailing generic arguments present only on the
//     candidate (allocators, hashers) are ignored.
func TypeNameMatches(query, candidate string) bool {
	q, err := ParseTypeExpr(query)
	if err != nil {
		return false
	}
	c, err := ParseTypeExpr(candidate)
	if err != nil {
		return false
	}
	return typeExprMatches(q, c)
}

func typeExprMatches(q, c TypeExpr) bool {
	switch qe := q.(type) {
	case PathExpr:
		ce, ok := c.(PathExpr)
		if !ok {
			return false
		}
		if !pathSegmentsMatch(qe.Segments, ce.Segments) {
			return false
		}
		if len(qe.Generics) > len(ce.Generics) {
			return false
		}
		for i, g := range qe.Generics {
			if !typeExprMatches(g, ce.Generics[i]) {
				return false
			}
		}
		return true
	case ReferenceExpr:
		ce, ok := c.(ReferenceExpr)
		return ok && qe.Mutable == ce.Mutable && typeExprMatches(qe.Elem, ce.Elem)
	case PointerExpr:
		ce, ok := c.(PointerExpr)
		return ok && qe.Mutable == ce.Mutable && typeExprMatches(qe.Elem, ce.Elem)
	case SliceExpr:
		ce, ok := c.(SliceExpr)
		return ok && typeExprMatches(qe.Elem, ce.Elem)
	case ArrayExpr:
		ce, ok := c.(ArrayExpr)
		return ok && qe.Len == ce.Len && typeExprMatches(qe.Elem, ce.Elem)
	case TupleExpr:
		ce, ok := c.(TupleExpr)
		if !ok || len(qe.Elems) != len(ce.Elems) {
			return false
		}
		for i := range qe.Elems {
			if !typeExprMatches(qe.Elems[i], ce.Elems[i]) {
				return false
			}
		}
		return true
	case StrSliceExpr:
		_, ok := c.(StrSliceExpr)
		return ok
	case NeverExpr:
		_, ok := c.(NeverExpr)
		return ok
	case UnitExpr:
		_, ok := c.(UnitExpr)
		return ok
	case DynTraitExpr:
		ce, ok := c.(DynTraitExpr)
		return ok && qe.Trait == ce.Trait
	case FunctionExpr:
		ce, ok := c.(FunctionExpr)
		if !ok || len(qe.Args) != len(ce.Args) {
			return false
		}
		for i := range qe.Args {
			if !typeExprMatches(qe.Args[i], ce.Args[i]) {
				return false
			}
		}
		return typeExprMatches(qe.Ret, ce.Ret)
	default:
		return false
	}
}

// pathSegmentsMatch reports whether query appears as an ordered subsequence
// of candidate with both ending on the same final segment.
func pathSegmentsMatch(query, candidate []string) bool {
	if len(query) == 0 || len(candidate) == 0 {
		return false
	}
	if query[len(query)-1] != candidate[len(candidate)-1] {
		return false
	}
	ci := 0
	for _, seg := range query[:len(query)-1] {
		found := false
		for ci < len(candidate)-1 {
			if candidate[ci] == seg {
				found = true
				ci++
				break
			}
			ci++
		}
		if !found {
			return false
		}
	}
	return true
}
