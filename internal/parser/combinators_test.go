package parser

import (
	"errors"
	"testing"

	"github.com/samscott89/rudy-sub002/internal/die"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constParser[T any](v T) Parser[T] {
	return func(d *die.Die) (T, error) { return v, nil }
}

func failParser[T any](msg string) Parser[T] {
	return func(d *die.Die) (T, error) {
		var zero T
		return zero, errors.New(msg)
	}
}

func TestMap(t *testing.T) {
	p := Map(constParser(3), func(n int) string { return "n=3" })
	got, err := p(nil)
	require.NoError(t, err)
	assert.Equal(t, "n=3", got)
}

func TestMapResPropagatesError(t *testing.T) {
	p := MapRes(constParser(3), func(n int) (int, error) { return 0, errors.New("boom") })
	_, err := p(nil)
	assert.ErrorContains(t, err, "boom")
}

func TestAndPairsResults(t *testing.T) {
	p := And(constParser("a"), constParser(1))
	got, err := p(nil)
	require.NoError(t, err)
	assert.Equal(t, Pair[string, int]{"a", 1}, got)
}

func TestAndShortCircuitsOnFirstError(t *testing.T) {
	p := And(failParser[string]("nope"), constParser(1))
	_, err := p(nil)
	assert.ErrorContains(t, err, "nope")
}

func TestThenChainsOnResult(t *testing.T) {
	p := Then(constParser(2), func(n int) Parser[int] {
		return constParser(n * 10)
	})
	got, err := p(nil)
	require.NoError(t, err)
	assert.Equal(t, 20, got)
}

func TestOption(t *testing.T) {
	some := Some(5)
	v, ok := some.Get()
	assert.True(t, ok)
	assert.Equal(t, 5, v)
	assert.True(t, some.IsSome())

	none := None[int]()
	_, ok = none.Get()
	assert.False(t, ok)
	assert.False(t, none.IsSome())
}

func TestParse3(t *testing.T) {
	p := Parse3(constParser("x"), constParser(1), constParser(true))
	got, err := p(nil)
	require.NoError(t, err)
	assert.Equal(t, Triple[string, int, bool]{"x", 1, true}, got)
}
