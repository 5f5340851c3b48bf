package crawler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "lowercases scheme and host",
			in:   "HTTPS://Example.TEST/Recipes/",
			want: "https://example.test/Recipes/",
		},
		{
			name: "strips default https port",
			in:   "https://example.test:443/recipes/",
			want: "https://example.test/recipes/",
		},
		{
			name: "strips default http port",
			in:   "http://example.test:80/recipes/",
			want: "http://example.test/recipes/",
		},
		{
			name: "keeps explicit port",
			in:   "https://example.test:8443/recipes/",
			want: "https://example.test:8443/recipes/",
		},
		{
			name: "drops fragment",
			in:   "https://example.test/recipes/#comments",
			want: "https://example.test/recipes/",
		},
		{
			name: "sorts query parameters",
			in:   "https://example.test/recipes/?sort=new&page=2",
			want: "https://example.test/recipes/?page=2&sort=new",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeURL(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeURLIdempotent(t *testing.T) {
	once, err := NormalizeURL("HTTP://Example.TEST:80/a?b=1&a=2#frag")
	require.NoError(t, err)
	twice, err := NormalizeURL(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestResolveRef(t *testing.T) {
	base := "https://example.test/recipes/category/1/?page=2"

	assert.Equal(t, "https://example.test/recipes/show/10/", ResolveRef(base, "/recipes/show/10/"))
	assert.Equal(t, "https://other.test/x", ResolveRef(base, "https://other.test/x"))
}

func TestListingPageURL(t *testing.T) {
	assert.Equal(t,
		"https://example.test/recipes/category/1/?page=3",
		ListingPageURL("https://example.test/recipes/category/1/", 3))

	// An existing page parameter is replaced, not appended.
	assert.Equal(t,
		"https://example.test/recipes/category/1/?page=2",
		ListingPageURL("https://example.test/recipes/category/1/?page=9", 2))
}
