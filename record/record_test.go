package record_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/correlator-io/wat/record"
)

func TestKeyIsOrderSensitive(t *testing.T) {
	a := record.Record{"x", "y"}
	b := record.Record{"y", "x"}

	require.NotEqual(t, a.Key(), b.Key())
}

func TestEqual(t *testing.T) {
	a := record.Record{"x", "y"}
	b := record.Record{"x", "y"}
	c := record.Record{"x", "y", "z"}

	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}

func TestProject(t *testing.T) {
	r := record.Record{"a", "b", "c"}
	require.Equal(t, record.Record{"c", "a"}, record.Project(r, []int{2, 0}))
}

func TestConcat(t *testing.T) {
	a := record.Record{"a", "b"}
	b := record.Record{"c"}
	require.Equal(t, record.Record{"a", "b", "c"}, record.Concat(a, b))
}

func TestSetUnionAndDiff(t *testing.T) {
	s1 := record.NewSet(record.Record{"a"}, record.Record{"b"})
	s2 := record.NewSet(record.Record{"b"}, record.Record{"c"})

	union := s1.Union(s2)
	require.Len(t, union, 3)

	diff := s1.Diff(s2)
	require.Len(t, diff, 1)
	require.True(t, diff.Contains(record.Record{"a"}))
}
