package subpages

import (
	"fmt"
	"net/url"
	"strings"
)

// PageKind is the category that selects a subpage's content requirements
type PageKind int

const (
	GenericPage PageKind = iota
	ArticlePage
	AboutPage
	ContactPage
	PrivacyPage
	TermsPage
	FaqPage
)

var kindNames = map[PageKind]string{
	GenericPage: "generic",
	ArticlePage: "article",
	AboutPage:   "about",
	ContactPage: "contact",
	PrivacyPage: "privacy",
	TermsPage:   "terms",
	FaqPage:     "faq",
}

func (k PageKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// classification order matters: "/blog/about-our-bakery" is an article
var classification = []struct {
	kind     PageKind
	keywords []string
}{
	{ArticlePage, []string{"article", "blog", "مقال"}},
	{AboutPage, []string{"about", "من-نحن"}},
	{ContactPage, []string{"contact", "اتصل"}},
	{PrivacyPage, []string{"privacy", "خصوصية"}},
	{TermsPage, []string{"terms", "شروط"}},
	{FaqPage, []string{"faq", "أسئلة"}},
}

// Classify picks a kind from keywords in the route
func Classify(route string) PageKind {
	r := route
	if decoded, err := url.PathUnescape(route); err == nil {
		r = decoded
	}
	r = strings.ToLower(r)
	for _, c := range classification {
		for _, kw := range c.keywords {
			if strings.Contains(r, kw) {
				return c.kind
			}
		}
	}
	return GenericPage
}

// PageName derives a readable title from a route: "/our-team.html" -> "our team"
func PageName(route string) string {
	name := route
	if decoded, err := url.PathUnescape(route); err == nil {
		name = decoded
	}
	name = strings.Trim(name, "/")
	name = strings.ReplaceAll(name, ".html", "")
	name = strings.NewReplacer("/", " ", "-", " ", "_", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}

// MinWords is the body length the prompt asks for
func (k PageKind) MinWords() int {
	switch k {
	case ArticlePage:
		return 1000
	case GenericPage:
		return 800
	default:
		return 500
	}
}

// Requirements describes the content a page of this kind must contain
func (k PageKind) Requirements(pageName string) string {
	switch k {
	case ArticlePage:
		return fmt.Sprintf("Write a complete article titled %q with an introduction of at least 150 words, "+
			"4 to 5 sections, at least 1000 words of body text, lists, quotations, a conclusion, "+
			"an author byline with a short bio, and links to related articles.", pageName)
	case AboutPage:
		return "Create an \"About us\" page with vision and mission, the founding story, 5 to 7 values, " +
			"a team of 4 to 6 members, achievements, goals, 3 to 5 testimonials and a timeline."
	case ContactPage:
		return "Create a contact page with a complete HTML form, contact details, a postal address, " +
			"an embedded map, opening hours and 3 to 5 frequently asked questions."
	case PrivacyPage:
		return "Create a comprehensive privacy policy covering: introduction, types of data collected, " +
			"how data is used, user rights, cookies, third parties, security, retention and policy updates."
	case TermsPage:
		return "Create terms of use covering: introduction, definitions, permitted and prohibited use, " +
			"intellectual property, accounts, disclaimers and governing law."
	case FaqPage:
		return "Create an FAQ page with 12 to 20 detailed questions and answers grouped into categories " +
			"(general, technical, accounts, payments), an accordion layout and a \"didn't find your answer\" form."
	default:
		return fmt.Sprintf("Create a comprehensive page about %q with at least 800 words, organized headings, "+
			"lists and concrete examples.", pageName)
	}
}
