package classify

import (
	"testing"

	"github.com/marco/multiclass/internal/media"
)

func TestExtract(t *testing.T) {
	testCases := []struct {
		name   string
		item   *media.Item
		want   Attributes
		wantOK bool
	}{
		{
			name:   "nil descriptor",
			item:   nil,
			wantOK: false,
		},
		{
			name:   "tv item bypasses classification",
			item:   &media.Item{Type: media.TypeTV, Year: 2010, Rating: 8},
			wantOK: false,
		},
		{
			name:   "full movie",
			item:   &media.Item{Type: media.TypeMovie, Year: 1999, Rating: 8.7, Collection: " The Matrix Collection "},
			want:   Attributes{MediaType: media.TypeMovie, Year: 1999, HasYear: true, Score: 8.7, HasScore: true, SeriesName: "The Matrix Collection"},
			wantOK: true,
		},
		{
			name:   "missing year and score",
			item:   &media.Item{Type: media.TypeMovie, Title: "Unknown"},
			want:   Attributes{MediaType: media.TypeMovie},
			wantOK: true,
		},
		{
			name:   "out of range score ignored",
			item:   &media.Item{Type: media.TypeMovie, Year: 2001, Rating: 42},
			want:   Attributes{MediaType: media.TypeMovie, Year: 2001, HasYear: true},
			wantOK: true,
		},
		{
			name:   "blank collection is no series",
			item:   &media.Item{Type: media.TypeMovie, Collection: "   "},
			want:   Attributes{MediaType: media.TypeMovie},
			wantOK: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Extract(tc.item)
			if ok != tc.wantOK {
				t.Fatalf("Extract ok = %v, want %v", ok, tc.wantOK)
			}
			if got != tc.want {
				t.Errorf("Extract = %+v, want %+v", got, tc.want)
			}
		})
	}
}
