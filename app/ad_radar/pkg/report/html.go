package report

import (
	"bytes"
	"html"
	"html/template"
	"strings"
	"time"
)

const htmlTpl = `<!DOCTYPE html>
<html lang="ko">
<head>
    <meta charset="UTF-8">
    <title>광고 시장 Daily Brief - {{ .Date }}</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', 'Noto Sans KR', sans-serif;
            line-height: 1.8;
            color: #2c3e50;
            max-width: 900px;
            margin: 0 auto;
            padding: 40px 20px;
            background: #f8f9fa;
        }
        .container { background: white; border-radius: 12px; padding: 40px; box-shadow: 0 4px 6px rgba(0,0,0,0.07); }
        .header {
            background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
            color: white;
            padding: 30px;
            border-radius: 8px;
            margin-bottom: 30px;
            text-align: center;
        }
        .body { white-space: pre-wrap; font-family: monospace; }
        .footer {
            margin-top: 40px;
            padding-top: 20px;
            border-top: 2px solid #e9ecef;
            text-align: center;
            color: #6c757d;
            font-size: 0.9em;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1 style="margin:0;">🎯 광고 시장 Daily Brief</h1>
            <p style="margin:10px 0 0 0; font-size:1.1em;">{{ .Date }}</p>
        </div>

        <div class="body">
{{ .Body }}
        </div>

        <div class="footer">
            <p>💌 매일 아침 최신 광고 시장 인사이트를 받아보세요</p>
            <p>Powered by Ad Radar 🤖</p>
        </div>
    </div>
</body>
</html>
`

var pageTpl = template.Must(template.New("report").Parse(htmlTpl))

// bodyReplacer 换行转 <br>，粗线框字符换成细线
var bodyReplacer = strings.NewReplacer("\n", "<br>", "═", "─")

// RenderHTML 将纯文本报告包装成 HTML，内容与纯文本一致
func RenderHTML(text string, asOf time.Time) (string, error) {
	body := bodyReplacer.Replace(html.EscapeString(text))

	var buf bytes.Buffer
	err := pageTpl.Execute(&buf, struct {
		Date string
		Body template.HTML
	}{
		Date: asOf.Format(time.DateOnly),
		Body: template.HTML(body),
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
