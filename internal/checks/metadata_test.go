package checks

import (
	"testing"

	"github.com/jonathan/markup-checker/internal/types"
	"github.com/stretchr/testify/assert"
)

func refs(title, preheader, code string) Input {
	return Input{References: types.ReferenceValues{Title: title, Preheader: preheader, ProductCode: code}}
}

func TestCheckTitle(t *testing.T) {
	tests := []struct {
		name   string
		source string
		title  string
		pass   bool
	}{
		{name: "exact match", source: "<title>Example Campaign</title>", title: "Example Campaign", pass: true},
		{name: "case differs", source: "<title>example campaign</title>", title: "Example Campaign"},
		{name: "extra whitespace", source: "<title> Example Campaign</title>", title: "Example Campaign"},
		{name: "uppercase tag", source: "<TITLE>Example</TITLE>", title: "Example", pass: true},
		{name: "first title wins", source: "<title>A</title><title>B</title>", title: "B"},
		{name: "angle bracket inside", source: "<title>A > B</title>", title: "A > B"},
		{name: "no title", source: "<html></html>", title: "Example"},
		{name: "both empty", source: "<html></html>", title: "", pass: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messages := runCheck(t, CheckTitle, tt.source, refs(tt.title, "", ""))
			if tt.pass {
				assert.Empty(t, messages)
			} else {
				assert.Equal(t, []string{"・タイトルに誤りがあります"}, messages)
			}
		})
	}
}

func TestCheckMailPreheader(t *testing.T) {
	source := `<div id="preheader" style="display:none"> 春のセール開催中 </div>`

	assert.Empty(t, runCheck(t, CheckMailPreheader, source, refs("", "春のセール開催中", "")))
	assert.Empty(t, runCheck(t, CheckMailPreheader, source, refs("", "  春のセール開催中\n", "")))

	assert.Equal(t, []string{`・id="preheader"を追加してください。`},
		runCheck(t, CheckMailPreheader, `<div>春のセール開催中</div>`, refs("", "春のセール開催中", "")))
	assert.Equal(t, []string{"・プリヘッダーが設定されていません"},
		runCheck(t, CheckMailPreheader, source, refs("", "   ", "")))
	assert.Equal(t, []string{"・プリヘッダーを確認してください。"},
		runCheck(t, CheckMailPreheader, source, refs("", "夏のセール", "")))
	assert.Equal(t, []string{"・プリヘッダーを確認してください。"},
		runCheck(t, CheckMailPreheader, `<div id='preheader'>春の<b>セール</b></div>`, refs("", "春のセール", "")))
}

func TestCheckWebPreheader(t *testing.T) {
	source := "<body><!-- ▼ プリヘッダー ▼ --><div>x</div></body>"
	assert.Equal(t, []string{"・プリヘッダーを削除してください"}, runCheck(t, CheckWebPreheader, source, Input{}))
	assert.Empty(t, runCheck(t, CheckWebPreheader, "<body><div>x</div></body>", Input{}))
	assert.Equal(t, []string{"・プリヘッダーを削除してください"},
		runCheck(t, CheckWebPreheader, "<!--▼プリヘッダー▼-->", Input{}))
}

func TestCheckNoIndex(t *testing.T) {
	assert.Empty(t, runCheck(t, CheckNoIndex, `<head><meta name="robots" content="noindex"></head>`, Input{}))
	assert.Empty(t, runCheck(t, CheckNoIndex, `<META NAME='robots' CONTENT='noindex'>`, Input{}))
	assert.Equal(t, []string{"・noindexの記述がありません"},
		runCheck(t, CheckNoIndex, `<!-- <meta name="robots" content="noindex"> -->`, Input{}))
	assert.Equal(t, []string{"・noindexの記述がありません"}, runCheck(t, CheckNoIndex, `<head></head>`, Input{}))
	assert.Empty(t, runCheck(t, CheckNoIndex, `<!-- stray <meta name="robots" content="noindex">`, Input{}),
		"an unterminated opener does not hide the tag")
}

func TestCheckGTM(t *testing.T) {
	assert.Empty(t, runCheck(t, CheckGTM, "<body>x<!-- Google Tag Manager --><script></script></body>", Input{}))
	assert.Equal(t, []string{"・GTMの場所を確認してください"},
		runCheck(t, CheckGTM, "<body>x</body><!-- Google Tag Manager -->", Input{}))
	assert.Equal(t, []string{"・</body> タグが存在しません"},
		runCheck(t, CheckGTM, "<body><!-- Google Tag Manager -->", Input{}))
}

func TestCheckFavicon(t *testing.T) {
	standard := `<link rel="shortcut icon" href="/excludes/dmlite/favicon.ico">`
	seac := `<link rel="shortcut icon" href="/excludes/dmlite/seac/img/common/favicon.ico" />`
	seacFlags := Input{Flags: types.ChannelFlags{SEAC: true}}

	assert.Empty(t, runCheck(t, CheckFavicon, standard, Input{}))
	assert.Empty(t, runCheck(t, CheckFavicon, seac, seacFlags))

	assert.Equal(t, []string{"・faviconの記述を確認してください"}, runCheck(t, CheckFavicon, seac, Input{}))
	assert.Equal(t, []string{"・faviconの記述を確認してください"}, runCheck(t, CheckFavicon, standard, seacFlags))
	assert.Equal(t, []string{"・faviconの記述を確認してください"},
		runCheck(t, CheckFavicon, "<!-- "+standard+" -->", Input{}))
	assert.Equal(t, []string{"・faviconの記述を確認してください"}, runCheck(t, CheckFavicon, "<head></head>", Input{}))
}
