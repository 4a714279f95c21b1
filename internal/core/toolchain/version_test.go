package toolchain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Version
	}{
		{"5.9.2", Stable(5, 9, 2)},
		{"10.0.0", Stable(10, 0, 0)},
		{" 6.0.1\n", Stable(6, 0, 1)},
		{"main-snapshot-2024-05-01", Snapshot(MainBranch(), "2024-05-01")},
		{"5.10-snapshot-2024-01-31", Snapshot(ReleaseBranch(5, 10), "2024-01-31")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	for _, in := range []string{
		"",
		"5.9",
		"5",
		"main-snapshot",
		"5.10-snapshot",
		"latest",
		"all",
		"5.9.2.1",
		"v5.9.2",
		"main-snapshot-2024-5-1",
		"dev-snapshot-2024-05-01",
		"5.9.x",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			require.Error(t, err)
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "want *ParseError, got %T", err)
			assert.ErrorIs(t, err, ErrInvalidFormat)
		})
	}
}

func TestParseError_CarriesText(t *testing.T) {
	_, err := Parse("five.nine")
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "five.nine", pe.Text)
	assert.Contains(t, err.Error(), `"five.nine"`)
}

func TestParse_OutOfRange(t *testing.T) {
	_, err := Parse("99999999999999999999.0.0")
	var pe *ParseError
	require.True(t, errors.As(err, &pe))
}

func TestVersion_RoundTrip(t *testing.T) {
	for _, v := range []Version{
		Stable(0, 0, 0),
		Stable(5, 9, 2),
		Stable(123, 45, 6),
		Snapshot(MainBranch(), "2023-12-31"),
		Snapshot(ReleaseBranch(6, 1), "2025-02-28"),
	} {
		got, err := Parse(v.String())
		require.NoError(t, err, v.String())
		assert.Equal(t, v, got)
	}
}

func TestVersion_String(t *testing.T) {
	assert.Equal(t, "5.9.2", Stable(5, 9, 2).String())
	assert.Equal(t, "main-snapshot-2024-05-01", Snapshot(MainBranch(), "2024-05-01").String())
	assert.Equal(t, "5.10-snapshot-2024-01-31", Snapshot(ReleaseBranch(5, 10), "2024-01-31").String())
}

func TestVersion_Family(t *testing.T) {
	assert.Equal(t, StableFamily, Stable(1, 2, 3).Family())
	assert.Equal(t, StableFamily, Stable(9, 0, 0).Family())
	assert.Equal(t, SnapshotFamily(MainBranch()), MustParse("main-snapshot-2024-01-01").Family())
	assert.NotEqual(t,
		MustParse("5.10-snapshot-2024-01-01").Family(),
		MustParse("5.9-snapshot-2024-01-01").Family())
	assert.Equal(t, "stable", StableFamily.String())
	assert.Equal(t, "5.10-snapshot", SnapshotFamily(ReleaseBranch(5, 10)).String())
}

func TestCompare_Stable(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"5.9.2", "5.9.2", 0},
		{"5.9.1", "5.9.2", -1},
		{"5.10.0", "5.9.9", 1},
		{"6.0.0", "5.99.99", 1},
		{"1.2.3", "1.3.0", -1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			got, err := Compare(MustParse(tt.a), MustParse(tt.b))
			require.NoError(t, err)
			assert.Equal(t, tt.want, sign(got))

			back, err := Compare(MustParse(tt.b), MustParse(tt.a))
			require.NoError(t, err)
			assert.Equal(t, -tt.want, sign(back))
		})
	}
}

func TestCompare_SnapshotByDate(t *testing.T) {
	a := MustParse("main-snapshot-2024-01-02")
	b := MustParse("main-snapshot-2024-01-10")

	got, err := Compare(a, b)
	require.NoError(t, err)
	assert.Less(t, got, 0)
}

func TestCompare_AcrossFamilies(t *testing.T) {
	pairs := [][2]string{
		{"5.9.2", "main-snapshot-2024-01-01"},
		{"main-snapshot-2024-01-01", "5.10-snapshot-2024-01-01"},
		{"5.9-snapshot-2024-01-01", "5.10-snapshot-2024-01-01"},
	}
	for _, p := range pairs {
		_, err := Compare(MustParse(p[0]), MustParse(p[1]))
		var ie *IncomparableError
		require.True(t, errors.As(err, &ie), "%s vs %s: got %v", p[0], p[1], err)
	}
}

func TestCompare_TotalWithinFamily(t *testing.T) {
	vs := []Version{
		Stable(5, 9, 2), Stable(5, 9, 0), Stable(6, 0, 0), Stable(5, 10, 1), Stable(4, 2, 0),
	}
	for _, a := range vs {
		for _, b := range vs {
			ab, err := Compare(a, b)
			require.NoError(t, err)
			ba, err := Compare(b, a)
			require.NoError(t, err)
			assert.Equal(t, sign(ab), -sign(ba), "%s vs %s", a, b)
			assert.Equal(t, a == b, ab == 0, "%s vs %s", a, b)
			for _, c := range vs {
				bc, _ := Compare(b, c)
				ac, _ := Compare(a, c)
				if ab < 0 && bc < 0 {
					assert.Less(t, ac, 0, "transitivity %s < %s < %s", a, b, c)
				}
			}
		}
	}
}

func TestSortDisplay(t *testing.T) {
	vs := []Version{
		MustParse("main-snapshot-2024-02-01"),
		MustParse("5.10-snapshot-2024-03-01"),
		MustParse("6.0.0"),
		MustParse("main-snapshot-2024-01-01"),
		MustParse("5.9.2"),
		MustParse("5.9-snapshot-2024-06-01"),
	}
	SortDisplay(vs)

	var got []string
	for _, v := range vs {
		got = append(got, v.String())
	}
	assert.Equal(t, []string{
		"5.9.2",
		"6.0.0",
		"5.9-snapshot-2024-06-01",
		"5.10-snapshot-2024-03-01",
		"main-snapshot-2024-01-01",
		"main-snapshot-2024-02-01",
	}, got)
}

func TestMax(t *testing.T) {
	_, ok, err := Max(nil)
	require.NoError(t, err)
	assert.False(t, ok)

	max, ok, err := Max([]Version{Stable(5, 9, 0), Stable(5, 10, 0), Stable(5, 9, 2)})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Stable(5, 10, 0), max)

	_, _, err = Max([]Version{Stable(5, 9, 0), MustParse("main-snapshot-2024-01-01")})
	var ie *IncomparableError
	assert.True(t, errors.As(err, &ie))
}

func TestFamilies(t *testing.T) {
	got := Families([]Version{
		MustParse("main-snapshot-2024-01-01"),
		MustParse("5.9.0"),
		MustParse("main-snapshot-2024-02-01"),
		MustParse("5.10-snapshot-2024-01-01"),
		MustParse("6.0.0"),
	})
	assert.Equal(t, []Family{
		StableFamily,
		SnapshotFamily(ReleaseBranch(5, 10)),
		SnapshotFamily(MainBranch()),
	}, got)
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
