package genome

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCoordinateOrder(t *testing.T) {
	cs := []Coordinate{{2, 5}, {1, 200}, {1, 100}, {2, 1}}
	sort.Slice(cs, func(i, j int) bool { return cs[i].Less(cs[j]) })
	require.Equal(t, []Coordinate{{1, 100}, {1, 200}, {2, 1}, {2, 5}}, cs)
	require.Equal(t, 0, Coordinate{1, 1}.Compare(Coordinate{1, 1}))
}

func TestReferenceLookupBothConventions(t *testing.T) {
	ref := NewReference("", []string{"chr1", "chr2", "chrM"})
	require.Equal(t, UnknownAssembly, ref.Assembly)

	for _, name := range []string{"chr2", "2"} {
		ch, ok := ref.Lookup(name)
		require.True(t, ok, name)
		require.Equal(t, 1, ch.Index)
		require.Equal(t, "2", ch.EnsemblName)
	}
	ch, ok := ref.Lookup("MT")
	require.True(t, ok)
	require.Equal(t, "chrM", ch.UCSCName)

	_, ok = ref.Lookup("chrUn")
	require.False(t, ok)

	_, ok = ref.ByIndex(3)
	require.False(t, ok)
}
