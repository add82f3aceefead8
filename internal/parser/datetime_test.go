package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDateTime(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		want time.Time
	}{
		{
			name: "abbreviated month",
			raw:  "Apr. 7, 2009 at 11:35 PM",
			want: time.Date(2009, 4, 7, 23, 35, 0, 0, time.UTC),
		},
		{
			name: "full month",
			raw:  "April 7, 2009 at 11:35 PM",
			want: time.Date(2009, 4, 7, 23, 35, 0, 0, time.UTC),
		},
		{
			name: "day first",
			raw:  "7 April 2009 at 11:35 PM",
			want: time.Date(2009, 4, 7, 23, 35, 0, 0, time.UTC),
		},
		{
			name: "ordinal suffix stripped",
			raw:  "April 7th, 2009 at 11:35 PM",
			want: time.Date(2009, 4, 7, 23, 35, 0, 0, time.UTC),
		},
		{
			name: "utc marker dropped",
			raw:  "2009-04-07 23:35 (UTC)",
			want: time.Date(2009, 4, 7, 23, 35, 0, 0, time.UTC),
		},
		{
			name: "seconds zeroed",
			raw:  "2009-04-07 23:35:59",
			want: time.Date(2009, 4, 7, 23, 35, 0, 0, time.UTC),
		},
		{
			name: "extra whitespace collapsed",
			raw:  "  Apr. 7,   2009 at 11:35 PM ",
			want: time.Date(2009, 4, 7, 23, 35, 0, 0, time.UTC),
		},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseDateTime(tc.raw)
			require.NoError(t, err)
			require.True(t, tc.want.Equal(got), "want %s, got %s", tc.want, got)
		})
	}
}

func TestParseDateTime_Unrecognized(t *testing.T) {
	t.Parallel()

	_, err := parseDateTime("sometime last spring")
	require.Error(t, err)

	_, err = parseDateTime("   ")
	require.Error(t, err)
}
