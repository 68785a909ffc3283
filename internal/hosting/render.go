// Package hosting assembles published projects into standalone pages.
package hosting

import (
	"strings"
)

const fontLink = `<link href="https://fonts.googleapis.com/css2?family=Cairo:wght@300;400;600;700&display=swap" rel="stylesheet">`

// Render injects css before the first </head> and js before the first
// </body>. Markup without those tags gets the style prepended and the
// script appended.
func Render(html, css, js string) string {
	style := "<style>" + css + "</style>\n" + fontLink + "\n"
	script := "<script>" + js + "</script>\n"

	if i := indexFold(html, "</head>"); i >= 0 {
		html = html[:i] + style + html[i:]
	} else {
		html = style + html
	}
	if i := indexFold(html, "</body>"); i >= 0 {
		html = html[:i] + script + html[i:]
	} else {
		html += script
	}
	return html
}

// indexFold finds the first case-insensitive occurrence of an ASCII tag
func indexFold(s, tag string) int {
	return strings.Index(strings.ToLower(s), tag)
}

// NotFoundPage is served when no published project matches
const NotFoundPage = `<!DOCTYPE html>
<html lang="ar" dir="rtl">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>المشروع غير موجود</title>
    ` + fontLink + `
    <style>
        body { font-family: 'Cairo', sans-serif; display: flex; justify-content: center; align-items: center; min-height: 100vh; margin: 0; background: #f5f5f5; }
        .error-container { text-align: center; padding: 2rem; }
        h1 { font-size: 2rem; margin-bottom: 1rem; color: #333; }
        p { color: #666; }
    </style>
</head>
<body>
    <div class="error-container">
        <h1>المشروع غير موجود</h1>
        <p>لم يتم العثور على المشروع المطلوب أو أنه غير منشور</p>
    </div>
</body>
</html>`

// ErrorPage is served when loading a project fails
const ErrorPage = `<!DOCTYPE html>
<html lang="ar" dir="rtl">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>خطأ</title>
    ` + fontLink + `
</head>
<body style="font-family: 'Cairo', sans-serif; display: flex; justify-content: center; align-items: center; min-height: 100vh; margin: 0;">
    <div style="text-align: center; padding: 2rem;">
        <h1>حدث خطأ</h1>
        <p>عذراً، حدث خطأ أثناء تحميل المشروع</p>
    </div>
</body>
</html>`
