package orany_test

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/distribution-auth/ruleauth/pkg/option"
	"github.com/distribution-auth/ruleauth/pkg/orany"
)

func TestOrAny_State(t *testing.T) {
	t.Run("Some", func(t *testing.T) {
		for _, v := range []int{0, 1, -42} {
			o := orany.Some(v)

			assert.True(t, o.IsSome())
			assert.False(t, o.IsAny())
		}
	})

	t.Run("Any", func(t *testing.T) {
		o := orany.Any[int]()

		assert.True(t, o.IsAny())
		assert.False(t, o.IsSome())
	})

	t.Run("ZeroValue", func(t *testing.T) {
		var o orany.OrAny[string]

		assert.True(t, o.IsAny())
	})
}

func TestAsRef(t *testing.T) {
	t.Run("Some", func(t *testing.T) {
		o := orany.Some(42)

		ref := orany.AsRef(&o)
		require.True(t, ref.IsSome())

		assert.Equal(t, 42, *ref.Unwrap())
	})

	t.Run("Any", func(t *testing.T) {
		o := orany.Any[int]()

		assert.True(t, orany.AsRef(&o).IsAny())
	})
}

func TestAsMut(t *testing.T) {
	t.Run("Some", func(t *testing.T) {
		o := orany.Some(42)

		*orany.AsMut(&o).Unwrap() = 7

		assert.True(t, o.IsSome())
		assert.Equal(t, 7, o.Unwrap())
	})

	t.Run("Any", func(t *testing.T) {
		o := orany.Any[int]()

		assert.True(t, orany.AsMut(&o).IsAny())
		assert.True(t, o.IsAny())
	})
}

func TestOrAny_Ref(t *testing.T) {
	some := orany.Some("value")
	require.NotNil(t, some.Ref())
	assert.Equal(t, "value", *some.Ref())

	anyValue := orany.Any[string]()
	assert.Nil(t, anyValue.Ref())
}

func TestOrAny_Get(t *testing.T) {
	v, ok := orany.Some(3).Get()
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	v, ok = orany.Any[int]().Get()
	assert.False(t, ok)
	assert.Equal(t, 0, v)
}

func TestOrAny_Replace(t *testing.T) {
	t.Run("Some", func(t *testing.T) {
		o := orany.Some("old")

		previous := o.Replace("new")

		assert.Equal(t, orany.Some("old"), previous)
		assert.Equal(t, orany.Some("new"), o)
	})

	t.Run("Any", func(t *testing.T) {
		o := orany.Any[string]()

		previous := o.Replace("new")

		assert.True(t, previous.IsAny())
		assert.Equal(t, orany.Some("new"), o)
	})
}

func TestMap(t *testing.T) {
	identity := func(v int) int { return v }

	assert.Equal(t, orany.Some(5), orany.Map(orany.Some(5), identity))
	assert.Equal(t, orany.Some("5"), orany.Map(orany.Some(5), strconv.Itoa))

	called := false
	result := orany.Map(orany.Any[int](), func(v int) string {
		called = true

		return strconv.Itoa(v)
	})

	assert.False(t, called)
	assert.True(t, result.IsAny())
}

func TestMapOr(t *testing.T) {
	assert.Equal(t, "5", orany.MapOr(orany.Some(5), "default", strconv.Itoa))
	assert.Equal(t, "default", orany.MapOr(orany.Any[int](), "default", strconv.Itoa))
}

func TestOrAny_Filter(t *testing.T) {
	greaterThanTen := func(v *int) bool { return *v > 10 }

	testCases := []struct {
		input    orany.OrAny[int]
		expected orany.OrAny[int]
	}{
		{orany.Some(5), orany.Any[int]()},
		{orany.Some(15), orany.Some(15)},
		{orany.Any[int](), orany.Any[int]()},
	}

	for _, testCase := range testCases {
		testCase := testCase

		t.Run(testCase.input.String(), func(t *testing.T) {
			once := testCase.input.Filter(greaterThanTen)
			twice := once.Filter(greaterThanTen)

			assert.Equal(t, testCase.expected, once)
			assert.Equal(t, once, twice)
		})
	}
}

func TestOrAny_Expect(t *testing.T) {
	t.Run("Some", func(t *testing.T) {
		assert.Equal(t, 1, orany.Some(1).Expect("must have a value"))
	})

	t.Run("Any", func(t *testing.T) {
		assert.PanicsWithError(t, "must have a value", func() {
			orany.Any[int]().Expect("must have a value")
		})
	})
}

func TestOrAny_Unwrap(t *testing.T) {
	t.Run("Some", func(t *testing.T) {
		assert.Equal(t, "value", orany.Some("value").Unwrap())
	})

	t.Run("Any", func(t *testing.T) {
		assert.PanicsWithError(t, "called `OrAny.Unwrap()` on an `Any` value", func() {
			orany.Any[string]().Unwrap()
		})
	})

	t.Run("ErrUnwrapAny", func(t *testing.T) {
		var recovered interface{}

		func() {
			defer func() {
				recovered = recover()
			}()

			orany.Any[string]().Unwrap()
		}()

		err, ok := recovered.(error)
		require.True(t, ok)

		assert.True(t, errors.Is(err, orany.ErrUnwrapAny))

		var unwrapErr *orany.UnwrapError
		assert.True(t, errors.As(err, &unwrapErr))
	})
}

func TestOrAny_UnwrapOr(t *testing.T) {
	assert.Equal(t, 1, orany.Some(1).UnwrapOr(2))
	assert.Equal(t, 2, orany.Any[int]().UnwrapOr(2))
}

func TestOrAny_UnwrapOrDefault(t *testing.T) {
	assert.Equal(t, "value", orany.Some("value").UnwrapOrDefault())
	assert.Equal(t, "", orany.Any[string]().UnwrapOrDefault())
	assert.Equal(t, []int(nil), orany.Any[[]int]().UnwrapOrDefault())
}

func TestContains(t *testing.T) {
	assert.True(t, orany.Contains(orany.Any[int](), 42))
	assert.True(t, orany.Contains(orany.Some(42), 42))
	assert.False(t, orany.Contains(orany.Some(42), 7))

	for _, x := range []string{"", "a", "*", "anything"} {
		assert.True(t, orany.Contains(orany.Any[string](), x), x)
	}
}

func TestContainsFunc(t *testing.T) {
	sameLength := func(a, b []int) bool { return len(a) == len(b) }

	assert.True(t, orany.ContainsFunc(orany.Some([]int{1, 2}), []int{3, 4}, sameLength))
	assert.False(t, orany.ContainsFunc(orany.Some([]int{1, 2}), []int{3}, sameLength))
	assert.True(t, orany.ContainsFunc(orany.Any[[]int](), []int{3}, sameLength))
}

func TestEqual(t *testing.T) {
	testCases := []struct {
		a        orany.OrAny[int]
		b        orany.OrAny[int]
		expected bool
	}{
		{orany.Some(1), orany.Some(1), true},
		{orany.Some(1), orany.Some(2), false},
		{orany.Some(1), orany.Any[int](), true},
		{orany.Any[int](), orany.Some(2), true},
		{orany.Any[int](), orany.Any[int](), true},
	}

	for _, testCase := range testCases {
		testCase := testCase

		t.Run(testCase.a.String()+"=="+testCase.b.String(), func(t *testing.T) {
			assert.Equal(t, testCase.expected, orany.Equal(testCase.a, testCase.b))
			assert.Equal(t, testCase.expected, orany.Equal(testCase.b, testCase.a))
		})
	}
}

func TestEqual_NotTransitive(t *testing.T) {
	one := orany.Some(1)
	wildcard := orany.Any[int]()
	two := orany.Some(2)

	assert.True(t, orany.Equal(one, wildcard))
	assert.True(t, orany.Equal(wildcard, two))
	assert.False(t, orany.Equal(one, two))
}

func TestEqualFunc(t *testing.T) {
	sameLength := func(a, b string) bool { return len(a) == len(b) }

	assert.True(t, orany.EqualFunc(orany.Some("abc"), orany.Some("xyz"), sameLength))
	assert.False(t, orany.EqualFunc(orany.Some("abc"), orany.Some("xy"), sameLength))
	assert.True(t, orany.EqualFunc(orany.Some("abc"), orany.Any[string](), sameLength))
}

func TestOrAny_Option(t *testing.T) {
	var o option.Option[int] = orany.Some(1)

	assert.True(t, o.HasValue())
	assert.Equal(t, 1, option.ValueOr(o, 2))

	o = orany.Any[int]()

	assert.False(t, o.HasValue())
	assert.Equal(t, 2, option.ValueOr(o, 2))
}

func TestOrAny_String(t *testing.T) {
	assert.Equal(t, "*", orany.Any[int]().String())
	assert.Equal(t, "42", orany.Some(42).String())
}
