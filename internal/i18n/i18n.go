// Package i18n resolves the translated search UI strings for a locale.
package i18n

import (
	"sort"

	"golang.org/x/text/language"

	"git.home.luguber.info/inful/blogsite/internal/config"
)

// RootKey is the locale key that stands for the site's own language.
const RootKey = "root"

var builtin = []struct {
	tag    language.Tag
	locale config.SearchLocale
}{
	{language.English, config.SearchLocale{
		ButtonText:       "Search",
		ButtonAriaLabel:  "Search",
		Placeholder:      "Search docs",
		NoResultsText:    "No results for",
		ResetButtonTitle: "Clear the query",
		Footer: config.SearchFooter{
			SelectText:   "to select",
			NavigateText: "to navigate",
			CloseText:    "to close",
		},
	}},
	{language.Chinese, config.SearchLocale{
		ButtonText:       "搜索文档",
		ButtonAriaLabel:  "搜索文档",
		Placeholder:      "搜索文档",
		NoResultsText:    "无法找到相关结果",
		ResetButtonTitle: "清除查询条件",
		Footer: config.SearchFooter{
			SelectText:   "选择",
			NavigateText: "切换",
			CloseText:    "关闭",
		},
	}},
}

var builtinMatcher = func() language.Matcher {
	tags := make([]language.Tag, len(builtin))
	for i, b := range builtin {
		tags[i] = b.tag
	}
	return language.NewMatcher(tags)
}()

// Builtin returns the bundled strings closest to tag, English when nothing matches.
func Builtin(tag language.Tag) config.SearchLocale {
	_, idx, conf := builtinMatcher.Match(tag)
	if conf == language.No {
		return builtin[0].locale
	}
	return builtin[idx].locale
}

// Resolve returns the search strings for want. Configured locales are matched
// first (RootKey stands for siteLang); missing fields are filled from the
// bundled table for the same language.
func Resolve(search config.SearchConfig, siteLang, want string) config.SearchLocale {
	wantTag, err := language.Parse(want)
	if err != nil {
		wantTag = parseOr(siteLang, language.English)
	}

	siteTag := parseOr(siteLang, language.English)
	keys := configuredKeys(search)
	var configured config.SearchLocale
	fillTag := wantTag
	if len(keys) > 0 {
		tags := make([]language.Tag, len(keys))
		for i, k := range keys {
			if k == RootKey {
				tags[i] = siteTag
				continue
			}
			tags[i] = language.MustParse(k)
		}
		_, idx, conf := language.NewMatcher(tags).Match(wantTag)
		switch {
		case conf != language.No:
			configured, fillTag = search.Locales[keys[idx]], tags[idx]
		case search.Locales[RootKey] != (config.SearchLocale{}):
			configured, fillTag = search.Locales[RootKey], siteTag
		}
	}
	return merge(configured, Builtin(fillTag))
}

// All resolves every configured locale key plus RootKey.
func All(search config.SearchConfig, siteLang string) map[string]config.SearchLocale {
	out := map[string]config.SearchLocale{RootKey: Resolve(search, siteLang, siteLang)}
	for k := range search.Locales {
		if k == RootKey {
			continue
		}
		out[k] = Resolve(search, siteLang, k)
	}
	return out
}

// configuredKeys returns valid locale keys in a stable order, root first.
func configuredKeys(search config.SearchConfig) []string {
	keys := make([]string, 0, len(search.Locales))
	for k := range search.Locales {
		if k == RootKey {
			continue
		}
		if _, err := language.Parse(k); err == nil {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := search.Locales[RootKey]; ok {
		keys = append([]string{RootKey}, keys...)
	}
	return keys
}

func parseOr(s string, fallback language.Tag) language.Tag {
	t, err := language.Parse(s)
	if err != nil {
		return fallback
	}
	return t
}

func merge(primary, fallback config.SearchLocale) config.SearchLocale {
	pick := func(a, b string) string {
		if a != "" {
			return a
		}
		return b
	}
	return config.SearchLocale{
		ButtonText:       pick(primary.ButtonText, fallback.ButtonText),
		ButtonAriaLabel:  pick(primary.ButtonAriaLabel, fallback.ButtonAriaLabel),
		Placeholder:      pick(primary.Placeholder, fallback.Placeholder),
		NoResultsText:    pick(primary.NoResultsText, fallback.NoResultsText),
		ResetButtonTitle: pick(primary.ResetButtonTitle, fallback.ResetButtonTitle),
		Footer: config.SearchFooter{
			SelectText:   pick(primary.Footer.SelectText, fallback.Footer.SelectText),
			NavigateText: pick(primary.Footer.NavigateText, fallback.Footer.NavigateText),
			CloseText:    pick(primary.Footer.CloseText, fallback.Footer.CloseText),
		},
	}
}
