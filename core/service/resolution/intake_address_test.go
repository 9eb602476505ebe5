package resolution

import "testing"

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"123 Main St.", "123 main street"},
		{"123 MAIN STREET", "123 main street"},
		{"456 N. Oak Ave, Apt 2", "456 north oak avenue apartment 2"},
		{"", ""},
		{"  ,.  ", ""},
	}

	for _, tt := range tests {
		if got := NormalizeAddress(tt.in); got != tt.want {
			t.Errorf("NormalizeAddress(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAddressSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{
			name: "abbreviation variants are identical after normalization",
			a:    NormalizeAddress("123 Main Street"),
			b:    NormalizeAddress("123 Main St."),
			want: 1.0,
		},
		{
			name: "partial overlap",
			a:    NormalizeAddress("123 Main Street"),
			b:    NormalizeAddress("123 Main Street Apt 4"),
			want: 0.6, // 3 shared of max 5 tokens
		},
		{
			name: "disjoint",
			a:    NormalizeAddress("123 Main Street"),
			b:    NormalizeAddress("987 Elm Road"),
			want: 0,
		},
		{
			name: "empty side scores zero",
			a:    "",
			b:    NormalizeAddress("123 Main Street"),
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AddressSimilarity(tt.a, tt.b); got != tt.want {
				t.Errorf("AddressSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}
