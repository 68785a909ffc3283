// Package templates - starter projects
// Provides pre-built HTML/CSS/JS starters for new projects
package templates

import (
	"fmt"
)

// TemplateCategory organizes templates by type
type TemplateCategory string

const (
	CategoryLanding   TemplateCategory = "landing"
	CategoryPortfolio TemplateCategory = "portfolio"
	CategoryBlog      TemplateCategory = "blog"
	CategoryBusiness  TemplateCategory = "business"
)

// Template is a starter that seeds a new project's code
type Template struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Category    TemplateCategory `json:"category"`
	Icon        string           `json:"icon"`
	Tags        []string         `json:"tags"`
	Popular     bool             `json:"popular"`
	HTML        string           `json:"html"`
	CSS         string           `json:"css"`
	JS          string           `json:"js"`
}

// GetAllTemplates returns the full starter catalog
func GetAllTemplates() []Template {
	return []Template{
		{
			ID:          "blank",
			Name:        "صفحة فارغة",
			Description: "Empty RTL page with the base layout",
			Category:    CategoryLanding,
			Icon:        "📄",
			Tags:        []string{"starter", "rtl"},
			HTML:        blankHTML,
			CSS:         baseCSS,
		},
		{
			ID:          "landing-page",
			Name:        "صفحة هبوط",
			Description: "Product landing page with hero, features and contact section",
			Category:    CategoryLanding,
			Icon:        "🚀",
			Tags:        []string{"landing", "marketing", "rtl"},
			Popular:     true,
			HTML:        landingHTML,
			CSS:         baseCSS + landingCSS,
			JS:          smoothScrollJS,
		},
		{
			ID:          "portfolio",
			Name:        "معرض أعمال",
			Description: "Personal portfolio with project grid and about section",
			Category:    CategoryPortfolio,
			Icon:        "🎨",
			Tags:        []string{"portfolio", "personal", "rtl"},
			Popular:     true,
			HTML:        portfolioHTML,
			CSS:         baseCSS + portfolioCSS,
			JS:          smoothScrollJS,
		},
		{
			ID:          "blog",
			Name:        "مدونة",
			Description: "Blog home with article cards linking to article pages",
			Category:    CategoryBlog,
			Icon:        "✍️",
			Tags:        []string{"blog", "articles", "rtl"},
			HTML:        blogHTML,
			CSS:         baseCSS + blogCSS,
		},
		{
			ID:          "restaurant",
			Name:        "مطعم",
			Description: "Restaurant site with menu tabs and opening hours",
			Category:    CategoryBusiness,
			Icon:        "🍽️",
			Tags:        []string{"business", "menu", "rtl"},
			HTML:        restaurantHTML,
			CSS:         baseCSS + restaurantCSS,
			JS:          menuTabsJS,
		},
	}
}

// GetTemplateByID returns a specific template
func GetTemplateByID(id string) (*Template, error) {
	for _, t := range GetAllTemplates() {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("template not found: %s", id)
}

// GetTemplatesByCategory returns templates filtered by category
func GetTemplatesByCategory(category TemplateCategory) []Template {
	var result []Template
	for _, t := range GetAllTemplates() {
		if t.Category == category {
			result = append(result, t)
		}
	}
	return result
}

// GetPopularTemplates returns popular templates
func GetPopularTemplates() []Template {
	var result []Template
	for _, t := range GetAllTemplates() {
		if t.Popular {
			result = append(result, t)
		}
	}
	return result
}

const baseCSS = `* { box-sizing: border-box; margin: 0; padding: 0; }
body { font-family: 'Cairo', sans-serif; line-height: 1.7; color: #1f2937; background: #f9fafb; }
a { color: #2563eb; text-decoration: none; }
.container { max-width: 1100px; margin: 0 auto; padding: 0 1.25rem; }
header { background: #fff; box-shadow: 0 1px 3px rgba(0,0,0,.08); }
header nav { display: flex; gap: 1.5rem; padding: 1rem 0; }
footer { text-align: center; padding: 2rem 0; color: #6b7280; }
`

const blankHTML = `<!DOCTYPE html>
<html lang="ar" dir="rtl">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>مشروع جديد</title>
</head>
<body>
    <main class="container">
        <h1>مرحباً بك</h1>
    </main>
</body>
</html>`

const landingHTML = `<!DOCTYPE html>
<html lang="ar" dir="rtl">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>منتجنا</title>
</head>
<body>
    <header>
        <nav class="container">
            <a href="#features">المميزات</a>
            <a href="/about">من نحن</a>
            <a href="/contact">اتصل بنا</a>
        </nav>
    </header>
    <section class="hero">
        <div class="container">
            <h1>أطلق فكرتك اليوم</h1>
            <p>كل ما تحتاجه لبدء مشروعك في مكان واحد</p>
            <a class="cta" href="#features">اكتشف المزيد</a>
        </div>
    </section>
    <section id="features" class="container features">
        <div class="feature"><h3>سريع</h3><p>أداء عالٍ على جميع الأجهزة</p></div>
        <div class="feature"><h3>آمن</h3><p>حماية بياناتك أولويتنا</p></div>
        <div class="feature"><h3>بسيط</h3><p>واجهة سهلة الاستخدام</p></div>
    </section>
    <footer>© منتجنا</footer>
</body>
</html>`

const landingCSS = `.hero { background: linear-gradient(135deg, #2563eb, #7c3aed); color: #fff; padding: 5rem 0; text-align: center; }
.hero h1 { font-size: 2.5rem; margin-bottom: 1rem; }
.cta { display: inline-block; margin-top: 1.5rem; background: #fff; color: #2563eb; padding: .75rem 2rem; border-radius: 999px; }
.features { display: grid; grid-template-columns: repeat(auto-fit, minmax(240px, 1fr)); gap: 1.5rem; padding: 4rem 1.25rem; }
.feature { background: #fff; padding: 1.5rem; border-radius: 12px; }
`

const portfolioHTML = `<!DOCTYPE html>
<html lang="ar" dir="rtl">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>أعمالي</title>
</head>
<body>
    <header>
        <nav class="container">
            <a href="#work">أعمالي</a>
            <a href="/about">عني</a>
            <a href="/contact">تواصل</a>
        </nav>
    </header>
    <main class="container">
        <h1 class="title">مصمم ومطور واجهات</h1>
        <section id="work" class="grid">
            <article class="card"><h3>مشروع ١</h3><p>موقع متجر إلكتروني</p></article>
            <article class="card"><h3>مشروع ٢</h3><p>تطبيق حجز مواعيد</p></article>
            <article class="card"><h3>مشروع ٣</h3><p>هوية بصرية لمقهى</p></article>
        </section>
    </main>
    <footer>© أعمالي</footer>
</body>
</html>`

const portfolioCSS = `.title { margin: 3rem 0 2rem; font-size: 2rem; }
.grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(260px, 1fr)); gap: 1.25rem; }
.card { background: #fff; border-radius: 12px; padding: 1.5rem; transition: transform .2s; }
.card:hover { transform: translateY(-4px); }
`

const blogHTML = `<!DOCTYPE html>
<html lang="ar" dir="rtl">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>المدونة</title>
</head>
<body>
    <header>
        <nav class="container">
            <a href="/">الرئيسية</a>
            <a href="/about">عن المدونة</a>
        </nav>
    </header>
    <main class="container posts">
        <article class="post"><h2><a href="/article-first-steps">الخطوات الأولى</a></h2><p>كيف تبدأ رحلتك في التعلم</p></article>
        <article class="post"><h2><a href="/article-good-habits">عادات جيدة</a></h2><p>عادات يومية تصنع الفرق</p></article>
    </main>
    <footer>© المدونة</footer>
</body>
</html>`

const blogCSS = `.posts { padding: 3rem 1.25rem; display: flex; flex-direction: column; gap: 1.5rem; }
.post { background: #fff; padding: 1.5rem; border-radius: 10px; border-right: 4px solid #2563eb; }
`

const restaurantHTML = `<!DOCTYPE html>
<html lang="ar" dir="rtl">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>مطعمنا</title>
</head>
<body>
    <header>
        <nav class="container">
            <a href="#menu">القائمة</a>
            <a href="/contact">الحجز</a>
        </nav>
    </header>
    <main class="container">
        <section id="menu">
            <div class="tabs">
                <button class="tab active" data-tab="main">الأطباق الرئيسية</button>
                <button class="tab" data-tab="drinks">المشروبات</button>
            </div>
            <ul class="panel" id="main"><li>كبسة دجاج</li><li>مندي لحم</li></ul>
            <ul class="panel hidden" id="drinks"><li>قهوة عربية</li><li>شاي بالنعناع</li></ul>
        </section>
        <p class="hours">نفتح يومياً من ١٢ ظهراً حتى ١١ مساءً</p>
    </main>
    <footer>© مطعمنا</footer>
</body>
</html>`

const restaurantCSS = `.tabs { display: flex; gap: .5rem; margin: 2rem 0 1rem; }
.tab { border: none; padding: .5rem 1.25rem; border-radius: 8px; background: #e5e7eb; cursor: pointer; font-family: inherit; }
.tab.active { background: #b45309; color: #fff; }
.panel { list-style: none; background: #fff; padding: 1.5rem; border-radius: 10px; }
.hidden { display: none; }
.hours { margin: 2rem 0; color: #6b7280; }
`

const smoothScrollJS = `document.querySelectorAll('a[href^="#"]').forEach(function (link) {
  link.addEventListener('click', function (e) {
    var target = document.querySelector(link.getAttribute('href'));
    if (target) {
      e.preventDefault();
      target.scrollIntoView({ behavior: 'smooth' });
    }
  });
});`

const menuTabsJS = `document.querySelectorAll('.tab').forEach(function (tab) {
  tab.addEventListener('click', function () {
    document.querySelectorAll('.tab').forEach(function (t) { t.classList.remove('active'); });
    document.querySelectorAll('.panel').forEach(function (p) { p.classList.add('hidden'); });
    tab.classList.add('active');
    document.getElementById(tab.dataset.tab).classList.remove('hidden');
  });
});`
