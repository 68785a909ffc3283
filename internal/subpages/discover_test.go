package subpages

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeRoute(t *testing.T) {
	t.Parallel()

	tests := []struct {
		href  string
		want  string
		valid bool
	}{
		{"./contact.html?x=1#top", "/contact.html", true},
		{"about", "/about", true},
		{"/services/", "/services", true},
		{"../faq", "/faq", true},
		{"/", "", false},
		{"./", "", false},
		{"../", "", false},
		{"#pricing", "", false},
		{"https://example.com/about", "", false},
		{"HTTP://example.com", "", false},
		{"//cdn.example.com/x", "", false},
		{"mailto:hi@example.com", "", false},
		{"tel:+123", "", false},
		{"javascript:void(0)", "", false},
		{"?page=2", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.href, func(t *testing.T) {
			t.Parallel()
			got, ok := NormalizeRoute(tt.href)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDiscoverLinksDedupesInOrder(t *testing.T) {
	html := `<nav>
		<a href="/about">About</a>
		<a class="btn" href='contact.html?ref=nav'>Contact</a>
		<a href="https://twitter.com/x">Twitter</a>
		<a href="#top">Top</a>
		<A HREF="/about#team">Team</A>
		<a href="/">Home</a>
	</nav>`

	assert.Equal(t, []string{"/about", "/contact.html"}, DiscoverLinks(html))
	assert.Empty(t, DiscoverLinks("<p>no links</p>"))
}

func TestPlan(t *testing.T) {
	fallback := []string{"/about", "/contact"}

	t.Run("discovered minus existing", func(t *testing.T) {
		routes, usedFallback := Plan([]string{"/a", "/b", "/c"}, fallback, []string{"/b"})
		assert.Equal(t, []string{"/a", "/c"}, routes)
		assert.False(t, usedFallback)
	})

	t.Run("fallback when nothing discovered", func(t *testing.T) {
		routes, usedFallback := Plan(nil, fallback, []string{"/contact"})
		assert.Equal(t, []string{"/about"}, routes)
		assert.True(t, usedFallback)
	})

	t.Run("nothing when fallback disabled", func(t *testing.T) {
		routes, usedFallback := Plan(nil, nil, nil)
		assert.Empty(t, routes)
		assert.False(t, usedFallback)
	})

	t.Run("all exist", func(t *testing.T) {
		routes, _ := Plan([]string{"/a"}, fallback, []string{"/a"})
		assert.Empty(t, routes)
	})
}
