package toolchain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSelector_RoundTrip(t *testing.T) {
	for _, in := range []string{
		"5.9.2",
		"5.9",
		"5",
		"main-snapshot",
		"main-snapshot-2024-05-01",
		"5.10-snapshot",
		"5.10-snapshot-2024-05-01",
		"latest",
		"all",
	} {
		t.Run(in, func(t *testing.T) {
			sel, err := ParseSelector(in)
			require.NoError(t, err)
			assert.Equal(t, in, sel.String())
		})
	}
}

func TestParseSelector_Kinds(t *testing.T) {
	tests := []struct {
		in   string
		kind SelectorKind
	}{
		{"5.9.2", SelectStable},
		{"5", SelectStable},
		{"main-snapshot", SelectSnapshot},
		{"5.9-snapshot-2024-01-01", SelectSnapshot},
		{"latest", SelectLatest},
		{"all", SelectAll},
	}
	for _, tt := range tests {
		sel, err := ParseSelector(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.kind, sel.Kind, tt.in)
	}
}

func TestParseSelector_Invalid(t *testing.T) {
	for _, in := range []string{"", "  ", "snapshot", "Latest", "5.9.2-snapshot", "main", "5..1", "-1"} {
		_, err := ParseSelector(in)
		var pe *ParseError
		assert.True(t, errors.As(err, &pe), "ParseSelector(%q) = %v", in, err)
	}
}

func TestSelector_Matches(t *testing.T) {
	versions := []string{
		"5.9.0",
		"5.9.2",
		"5.10.0",
		"6.0.0",
		"main-snapshot-2024-01-01",
		"main-snapshot-2024-02-01",
		"5.10-snapshot-2024-01-01",
	}
	tests := []struct {
		sel  string
		want []string
	}{
		{"5.9.2", []string{"5.9.2"}},
		{"5.9", []string{"5.9.0", "5.9.2"}},
		{"5", []string{"5.9.0", "5.9.2", "5.10.0"}},
		{"7", nil},
		{"latest", []string{"5.9.0", "5.9.2", "5.10.0", "6.0.0"}},
		{"main-snapshot", []string{"main-snapshot-2024-01-01", "main-snapshot-2024-02-01"}},
		{"main-snapshot-2024-02-01", []string{"main-snapshot-2024-02-01"}},
		{"5.10-snapshot", []string{"5.10-snapshot-2024-01-01"}},
		{"5.9-snapshot", nil},
		{"all", versions},
	}
	for _, tt := range tests {
		t.Run(tt.sel, func(t *testing.T) {
			sel, err := ParseSelector(tt.sel)
			require.NoError(t, err)
			var got []string
			for _, text := range versions {
				if sel.Matches(MustParse(text)) {
					got = append(got, text)
				}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

// Every version matched by a narrower selector is matched by its wider form.
func TestSelector_Narrowing(t *testing.T) {
	chains := [][]string{
		{"5.9.2", "5.9", "5", "latest", "all"},
		{"main-snapshot-2024-01-01", "main-snapshot", "all"},
	}
	candidates := []Version{
		Stable(5, 9, 2), Stable(5, 9, 3), Stable(5, 1, 0), Stable(4, 0, 0),
		MustParse("main-snapshot-2024-01-01"), MustParse("main-snapshot-2024-01-02"),
	}
	for _, chain := range chains {
		for i := 0; i+1 < len(chain); i++ {
			narrow, err := ParseSelector(chain[i])
			require.NoError(t, err)
			wide, err := ParseSelector(chain[i+1])
			require.NoError(t, err)
			for _, v := range candidates {
				if narrow.Matches(v) {
					assert.True(t, wide.Matches(v), "%s matches %s but %s does not", chain[i], v, chain[i+1])
				}
			}
		}
	}
}

func TestSelector_Exact(t *testing.T) {
	v, ok := mustSelector(t, "5.9.2").Exact()
	require.True(t, ok)
	assert.Equal(t, Stable(5, 9, 2), v)

	_, ok = mustSelector(t, "5.9").Exact()
	assert.False(t, ok)
	_, ok = mustSelector(t, "main-snapshot").Exact()
	assert.False(t, ok)
	_, ok = mustSelector(t, "latest").Exact()
	assert.False(t, ok)
}

func TestExactSelector(t *testing.T) {
	for _, v := range []Version{Stable(1, 2, 3), MustParse("5.10-snapshot-2024-01-01")} {
		sel := ExactSelector(v)
		assert.True(t, sel.Matches(v))
		assert.Equal(t, v.String(), sel.String())
	}
}

func TestSelector_Family(t *testing.T) {
	f, ok := mustSelector(t, "5").Family()
	require.True(t, ok)
	assert.Equal(t, StableFamily, f)

	f, ok = mustSelector(t, "latest").Family()
	require.True(t, ok)
	assert.Equal(t, StableFamily, f)

	f, ok = mustSelector(t, "main-snapshot").Family()
	require.True(t, ok)
	assert.Equal(t, SnapshotFamily(MainBranch()), f)

	_, ok = mustSelector(t, "all").Family()
	assert.False(t, ok)
	_, ok = SnapshotSelector(nil, "").Family()
	assert.False(t, ok)
}

func TestSelector_Filter(t *testing.T) {
	got := mustSelector(t, "5.9").Filter([]Version{Stable(5, 9, 1), Stable(5, 8, 0), Stable(5, 9, 0)})
	assert.Equal(t, []Version{Stable(5, 9, 1), Stable(5, 9, 0)}, got)
}

func mustSelector(t *testing.T, text string) Selector {
	t.Helper()
	sel, err := ParseSelector(text)
	require.NoError(t, err)
	return sel
}
