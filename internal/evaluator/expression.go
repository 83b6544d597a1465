package evaluator

import (
	"fmt"
	"slices"
)

// Expression is a facial pose.
type Expression int

const (
	ExpressionNormal Expression = iota
	ExpressionSmile
	ExpressionAnger
	ExpressionSorrow
	ExpressionSurprise
	ExpressionBlink
	ExpressionOpenMouth
	ExpressionHappy
	ExpressionAngerOpenMouth
	ExpressionSorrowOpenMouth
	ExpressionSurpriseOpenMouth
	ExpressionBlinkOpenMouth
	ExpressionWinkLeft
	ExpressionWinkRight
	ExpressionWinkLeftOpenMouth
	ExpressionWinkRightOpenMouth
	ExpressionLikeWinkLeft
	ExpressionLikeWinkRight
	ExpressionFrustrated
	ExpressionLimit
)

var expressionNames = [ExpressionLimit]string{
	"normal", "smile", "anger", "sorrow", "surprise", "blink", "open_mouth",
	"happy", "anger_open_mouth", "sorrow_open_mouth", "surprise_open_mouth",
	"blink_open_mouth", "wink_left", "wink_right", "wink_left_open_mouth",
	"wink_right_open_mouth", "like_wink_left", "like_wink_right", "frustrated",
}

// Valid reports whether e is inside the supported enumeration.
func (e Expression) Valid() bool {
	return e >= 0 && e < ExpressionLimit
}

func (e Expression) String() string {
	if !e.Valid() {
		return fmt.Sprintf("Expression(%d)", int(e))
	}
	return expressionNames[e]
}

// ParseExpression maps a config name to an Expression.
func ParseExpression(name string) (Expression, error) {
	for i, n := range expressionNames {
		if n == name {
			return Expression(i), nil
		}
	}
	return 0, fmt.Errorf("evaluator: unknown expression %q", name)
}

// ExpressionSet is an ordered, duplicate-free set of expressions.
type ExpressionSet struct {
	members []Expression
}

// NewExpressionSet builds a set from es. Out-of-range values are an error.
func NewExpressionSet(es ...Expression) (ExpressionSet, error) {
	members := make([]Expression, 0, len(es))
	for _, e := range es {
		if !e.Valid() {
			return ExpressionSet{}, fmt.Errorf("evaluator: expression %d out of range", int(e))
		}
		if !slices.Contains(members, e) {
			members = append(members, e)
		}
	}
	slices.Sort(members)
	return ExpressionSet{members: members}, nil
}

// Has reports membership.
func (s ExpressionSet) Has(e Expression) bool {
	_, ok := slices.BinarySearch(s.members, e)
	return ok
}

// Len returns the number of members.
func (s ExpressionSet) Len() int { return len(s.members) }

// All returns the members in ascending order. The slice must not be modified.
func (s ExpressionSet) All() []Expression { return s.members }
