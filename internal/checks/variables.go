package checks

import (
	"context"
	"regexp"
	"strings"
)

const (
	msgApplicationNoInvalid = "・冒頭変数または申込番号に誤りがあります"
	msgMonthVariable        = "・月の変数（@month）がありません"
	msgContactLinkVariable  = "・@contactlinkの変数がありません"
	msgOptoutLinkVariable   = "・@optoutlinkの変数がありません"
	msgApplicationNoRemove  = "・冒頭変数を削除してください"
	msgFooterNotTemplated   = "・フッター変数が変数化されていません"
	msgFooterNotRendered    = "・フッター変数が解除されていません"
)

const applicationNoPrefix = "SET @application_no = '"

// Footer forms: the templated macro used in email and the rendered anchor used on the web.
const (
	FooterMailForm = "お問い合わせは%%=TreatAsContent(@contactlink)=%%からお願いします。"
	FooterWebForm  = `お問い合わせは<a href="https://www.shizensyokuhin.jp/contact/">こちら</a>からお願いします。`
)

// The link variables are only required to be assigned; their values vary per send.
var (
	monthVariablePattern   = regexp.MustCompile(`(?i)SET\s+@month\s*=\s*Format\(\s*Now\(\)\s*,\s*["']M["']\s*\)`)
	contactVariablePattern = regexp.MustCompile(`(?i)SET\s+@contactlink\s*=\s*\S`)
	optoutVariablePattern  = regexp.MustCompile(`(?i)SET\s+@optoutlink\s*=\s*\S`)
)

// CheckMailApplicationNo verifies the leading variable block of an email.
// An empty product code expects the literal empty assignment.
func CheckMailApplicationNo(_ context.Context, page *Page, in Input) ([]string, error) {
	var messages []string
	if !strings.Contains(page.Source, applicationNoPrefix+in.References.ProductCode+"'") {
		messages = append(messages, msgApplicationNoInvalid)
	}

	clean := page.Uncommented()
	if !monthVariablePattern.MatchString(clean) {
		messages = append(messages, msgMonthVariable)
	}
	if !contactVariablePattern.MatchString(clean) {
		messages = append(messages, msgContactLinkVariable)
	}
	if !optoutVariablePattern.MatchString(clean) {
		messages = append(messages, msgOptoutLinkVariable)
	}
	return messages, nil
}

// CheckWebApplicationNo rejects the email variable block on web pages.
func CheckWebApplicationNo(_ context.Context, page *Page, _ Input) ([]string, error) {
	if strings.Contains(page.Source, applicationNoPrefix) {
		return fail(msgApplicationNoRemove)
	}
	return pass()
}

// CheckFooter requires the footer form that matches the active channel.
// A page carrying neither form passes.
func CheckFooter(_ context.Context, page *Page, in Input) ([]string, error) {
	hasMail := strings.Contains(page.Source, FooterMailForm)
	hasWeb := strings.Contains(page.Source, FooterWebForm)

	if in.Flags.Email {
		if !hasMail && hasWeb {
			return fail(msgFooterNotTemplated)
		}
		return pass()
	}
	if !hasWeb && hasMail {
		return fail(msgFooterNotRendered)
	}
	return pass()
}
