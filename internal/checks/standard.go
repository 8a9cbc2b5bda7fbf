package checks

// Check ids of the standard battery.
const (
	IDTitle             = "title"
	IDMailPreheader     = "mail_preheader"
	IDWebPreheader      = "web_preheader"
	IDMailApplicationNo = "mail_application_no"
	IDWebApplicationNo  = "web_application_no"
	IDUTMCampaign       = "utm_campaign"
	IDFallbackText      = "fallback_text"
	IDMailOpenTag       = "mail_open_tag"
	IDWebOpenTag        = "web_open_tag"
	IDNoIndex           = "noindex"
	IDFooter            = "footer"
	IDGTM               = "gtm"
	IDFavicon           = "favicon"
	IDDeviceChars       = "device_chars"
	IDURLWidth          = "url_width"
	IDAmpersand         = "ampersand"
	IDButtons           = "buttons"
)

// StandardDescriptors returns the canonical battery in report order.
func StandardDescriptors() []Descriptor {
	return []Descriptor{
		{ID: IDTitle, Label: "タイトル", Fn: CheckTitle},
		{ID: IDMailPreheader, Label: "プリヘッダー", Variant: VariantEmail, Fn: CheckMailPreheader},
		{ID: IDWebPreheader, Label: "プリヘッダー", Variant: VariantWeb, Fn: CheckWebPreheader},
		{ID: IDMailApplicationNo, Label: "冒頭変数・申込番号", Variant: VariantEmail, Fn: CheckMailApplicationNo},
		{ID: IDWebApplicationNo, Label: "冒頭変数", Variant: VariantWeb, Fn: CheckWebApplicationNo},
		{ID: IDImageLinks, Label: "画像リンク切れ", SortMessages: true, Fn: CheckImageLinks},
		{ID: IDUTMCampaign, Label: "$$$utm_campaign$$$", Fn: CheckUTMCampaign},
		{ID: IDFallbackText, Label: "※画像がうまく表示されない方はこちら", Fn: CheckFallbackText},
		{ID: IDMailOpenTag, Label: "開封タグ", Variant: VariantEmail, Fn: CheckMailOpenTag},
		{ID: IDWebOpenTag, Label: "開封タグ", Variant: VariantWeb, Fn: CheckWebOpenTag},
		{ID: IDNoIndex, Label: "noindex", Variant: VariantWeb, Fn: CheckNoIndex},
		{ID: IDFooter, Label: "フッター変数", Fn: CheckFooter},
		{ID: IDGTM, Label: "GTM", Variant: VariantWeb, Fn: CheckGTM},
		{ID: IDFavicon, Label: "favicon", Variant: VariantWeb, Fn: CheckFavicon},
		{ID: IDDeviceChars, Label: "機種依存文字", Fn: CheckDeviceChars},
		{ID: IDURLWidth, Label: "URL内の全角文字", Fn: CheckURLWidth},
		{ID: IDAmpersand, Label: "&の表記", Fn: CheckAmpersand},
		{ID: IDButtons, Label: "ボタンのテキスト・リンク", Fn: CheckButtons},
	}
}

// NewStandardRegistry builds a registry holding the standard battery.
func NewStandardRegistry() *Registry {
	r := NewRegistry()
	for _, d := range StandardDescriptors() {
		r.MustRegister(d)
	}
	return r
}
