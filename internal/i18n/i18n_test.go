package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/blogsite/internal/config"
)

func TestBuiltin(t *testing.T) {
	assert.Equal(t, "搜索文档", Builtin(language.MustParse("zh-CN")).ButtonText)
	assert.Equal(t, "Search", Builtin(language.MustParse("en-GB")).ButtonText)
	assert.Equal(t, "Search", Builtin(language.French).ButtonText, "unknown languages fall back to English")
}

func searchConfig() config.SearchConfig {
	return config.SearchConfig{
		Provider: config.SearchProviderLocal,
		Locales: map[string]config.SearchLocale{
			RootKey: {ButtonText: "搜索"},
			"en":    {ButtonText: "Find"},
		},
	}
}

func TestResolve_MatchesConfiguredLocales(t *testing.T) {
	s := searchConfig()

	zh := Resolve(s, "zh-CN", "zh-CN")
	assert.Equal(t, "搜索", zh.ButtonText)
	assert.Equal(t, "无法找到相关结果", zh.NoResultsText, "missing fields come from the bundled table")

	en := Resolve(s, "zh-CN", "en-US")
	assert.Equal(t, "Find", en.ButtonText)
	assert.Equal(t, "Search docs", en.Placeholder)
	assert.Equal(t, "to close", en.Footer.CloseText)
}

func TestResolve_UnknownLanguageFallsBackToRoot(t *testing.T) {
	fr := Resolve(searchConfig(), "zh-CN", "fr")
	assert.Equal(t, "搜索", fr.ButtonText)
	assert.Equal(t, "搜索文档", fr.Placeholder, "root is filled from the site language")
}

func TestResolve_InvalidWantUsesSiteLanguage(t *testing.T) {
	got := Resolve(searchConfig(), "zh-CN", "!!")
	assert.Equal(t, "搜索", got.ButtonText)
}

func TestResolve_NoConfiguredLocales(t *testing.T) {
	got := Resolve(config.SearchConfig{}, "en-US", "zh")
	assert.Equal(t, Builtin(language.Chinese), got)
}

func TestAll(t *testing.T) {
	all := All(searchConfig(), "zh-CN")
	assert.Len(t, all, 2)
	assert.Equal(t, "搜索", all[RootKey].ButtonText)
	assert.Equal(t, "Find", all["en"].ButtonText)
}
