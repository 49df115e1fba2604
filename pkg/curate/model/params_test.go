package model

import (
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsCanonical(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		a, b Params
	}{
		"int and float":  {a: Params{"min": 10}, b: Params{"min": 10.0}},
		"key order":      {a: Params{"min": 1, "max": 2}, b: Params{"max": 2.0, "min": int64(1)}},
		"infinity":       {a: Params{"max": math.Inf(1)}, b: Params{"max": math.Inf(1)}},
		"duration":       {a: Params{"timeout": 30 * time.Second}, b: Params{"timeout": 30}},
		"nested list":    {a: Params{"x": []any{1, "a"}}, b: Params{"x": []any{1.0, "a"}}},
		"empty and nil":  {a: Params{}, b: nil},
		"string escaped": {a: Params{"v": "a\"b"}, b: Params{"v": "a\"b"}},
	}

	for name, tc := range tcs {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.a.Canonical(), tc.b.Canonical())
		})
	}

	assert.NotEqual(t, Params{"min": 10}.Canonical(), Params{"min": 11}.Canonical())
	assert.NotEqual(t, Params{"min": "10"}.Canonical(), Params{"min": 10}.Canonical())
	assert.Equal(t, `{"max":+Inf,"min":10}`, Params{"min": 10, "max": math.Inf(1)}.Canonical())
}

func TestParamsGetters(t *testing.T) {
	t.Parallel()

	p := Params{"min": 10, "max": "inf", "greater": "true", "value": "x", "bad": []int{1}}

	f, err := p.Float("min", 0)
	require.NoError(t, err)
	assert.Equal(t, 10.0, f)

	f, err = p.Float("max", 0)
	require.NoError(t, err)
	assert.True(t, math.IsInf(f, 1))

	f, err = p.Float("absent", 3)
	require.NoError(t, err)
	assert.Equal(t, 3.0, f)

	b, err := p.Bool("greater", false)
	require.NoError(t, err)
	assert.True(t, b)

	s, err := p.String("value", "")
	require.NoError(t, err)
	assert.Equal(t, "x", s)

	_, err = p.Float("bad", 0)
	assert.True(t, errors.Is(err, ErrParam))
	_, err = p.String("min", "")
	assert.True(t, errors.Is(err, ErrParam))

	assert.NoError(t, p.Check("min", "max", "greater", "value", "bad"))
	assert.True(t, errors.Is(p.Check("min"), ErrParam))
}

func TestLabel(t *testing.T) {
	t.Parallel()

	assert.True(t, ParseLabel("  ").IsMissing())
	f, ok := ParseLabel(" 4.5 ").Float()
	assert.True(t, ok)
	assert.Equal(t, 4.5, f)
	_, ok = TextLabel("active").Float()
	assert.False(t, ok)
	assert.Equal(t, "1", NumberLabel(1).String())

	raw, err := NumberLabel(2.5).MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "2.5", string(raw))
	raw, err = MissingLabel().MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, "null", string(raw))
}

func TestRank(t *testing.T) {
	t.Parallel()

	assert.True(t, RankDeduplicate.Valid())
	assert.False(t, Rank(8).Valid())
	assert.False(t, Rank(-1).Valid())
	assert.Equal(t, "exclude", RankExclude.String())
	assert.Equal(t, "rank(9)", Rank(9).String())
	assert.Equal(t, "update", KindUpdate.String())
}
