package config

import "strings"

// Appearance selects the theme's color scheme behavior.
type Appearance string

const (
	AppearanceAuto      Appearance = "auto"
	AppearanceDark      Appearance = "dark"
	AppearanceLight     Appearance = "light"
	AppearanceForceDark Appearance = "force-dark"
)

// NormalizeAppearance maps user input onto a known Appearance; unknown values return "".
func NormalizeAppearance(raw string) Appearance {
	switch a := Appearance(strings.ToLower(strings.TrimSpace(raw))); a {
	case AppearanceAuto, AppearanceDark, AppearanceLight, AppearanceForceDark:
		return a
	case "":
		return AppearanceAuto
	default:
		return ""
	}
}

// SearchProviderLocal is the only supported search provider: an index built
// into the static output and queried in the browser.
const SearchProviderLocal = "local"

// MissingPolicy decides what happens to a diagram fence with no @startuml marker.
type MissingPolicy string

const (
	// MissingAsCode renders the block through the fallback fence renderer.
	MissingAsCode MissingPolicy = "code"
	// MissingRaw encodes the trimmed content without a style header.
	MissingRaw MissingPolicy = "raw"
	// MissingError fails the page render.
	MissingError MissingPolicy = "error"
)

// NormalizeMissingPolicy maps user input onto a known policy; unknown values return "".
func NormalizeMissingPolicy(raw string) MissingPolicy {
	switch p := MissingPolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case MissingAsCode, MissingRaw, MissingError:
		return p
	case "":
		return MissingAsCode
	default:
		return ""
	}
}
