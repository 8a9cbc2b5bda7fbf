package checks

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	msgButtonText = "・ボタン%dのテキストを「%s」にしてください"
	msgButtonHref = "・ボタン%dのリンク先を%sにしてください"
)

const buttonSelector = ".p-mail__button"

// buttonRule pairs an href keyword with the label and anchor it requires.
type buttonRule struct {
	keyword string
	text    string
	anchor  string
}

var buttonRules = []buttonRule{
	{keyword: "quiz", text: "答えを見る ＞", anchor: "#quiz"},
	{keyword: "diagnosis", text: "結果を見る ＞", anchor: "#diagnosis"},
}

// CheckButtons verifies themed buttons carry the label and anchor matching
// their destination. Buttons are numbered in document order.
func CheckButtons(_ context.Context, page *Page, _ Input) ([]string, error) {
	doc, err := page.Document()
	if err != nil {
		return nil, err
	}

	var messages []string
	doc.Find(buttonSelector).Each(func(i int, button *goquery.Selection) {
		index := i + 1
		href := buttonHref(button)
		text := strings.TrimSpace(button.Text())

		for _, rule := range buttonRules {
			if !strings.Contains(href, rule.keyword) {
				continue
			}
			if text != rule.text {
				messages = append(messages, fmt.Sprintf(msgButtonText, index, rule.text))
			}
			if !strings.HasSuffix(href, rule.anchor) {
				messages = append(messages, fmt.Sprintf(msgButtonHref, index, rule.anchor))
			}
		}
	})
	return messages, nil
}

// buttonHref reads href from the button itself or its first link.
func buttonHref(button *goquery.Selection) string {
	if href, ok := button.Attr("href"); ok {
		return href
	}
	href, _ := button.Find("a[href]").First().Attr("href")
	return href
}
