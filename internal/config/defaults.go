package config

import "runtime"

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Dir:           "~/memex/browser",
			Mode:          ModeDaily,
			DomainSummary: true,
		},
		Capture: CaptureConfig{
			ExcludedPrefixes:    DefaultExcludedPrefixes(),
			TrackingParams:      DefaultTrackingParams(),
			ExtraTrackingParams: []string{},
			DenylistDomains:     []string{},
			DenylistRegex:       []string{},
			UseDefaultDenylist:  false,
		},
		Sources: SourcesConfig{
			Chrome: ChromeConfig{
				Enabled: true,
				BaseDir: defaultChromeBase(runtime.GOOS),
			},
			Safari: SafariConfig{
				Enabled:     runtime.GOOS == "darwin",
				HistoryPath: "~/Library/Safari/History.db",
			},
			TimeoutSeconds: 30,
		},
		Storage: StorageConfig{
			Path:           "~/.config/histdigest",
			SQLiteFile:     "state.db",
			RunHistoryDays: 30,
		},
		Notifications: NotificationConfig{
			Enabled: true,
			Title:   "Memex Browser Capture",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  ".errors.log",
			JSON:  false,
		},
	}
}

func defaultChromeBase(goos string) string {
	switch goos {
	case "darwin":
		return "~/Library/Application Support/Google/Chrome"
	case "windows":
		return "~/AppData/Local/Google/Chrome/User Data"
	default:
		return "~/.config/google-chrome"
	}
}

// DefaultExcludedPrefixes lists URL prefixes that never make it into a
// digest: browser-internal pages, extensions, local files, dev tools.
func DefaultExcludedPrefixes() []string {
	return []string{
		"chrome://",
		"chrome-extension://",
		"edge://",
		"about:",
		"file://",
		"devtools://",
		"favorites://",
		"bookmarks://",
	}
}

// DefaultTrackingParams lists ad, analytics and referral query keys that
// are stripped from every captured URL. Matching is case-insensitive.
func DefaultTrackingParams() []string {
	return []string{
		// UTM
		"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content",
		"utm_id", "utm_source_platform", "utm_creative_format", "utm_marketing_tactic",

		// Ad click ids
		"fbclid", "gclid", "gclsrc", "dclid", "gbraid", "wbraid",
		"msclkid", "twclid", "ttclid", "li_fat_id",

		// Mailchimp
		"mc_eid", "mc_cid",

		// Referral
		"ref", "_ref", "ref_", "referer", "referrer",
		"source", "_source",

		// Social share
		"igshid", "s", "t", "si",

		// Analytics
		"_ga", "_gl", "_hsenc", "_hsmi", "_ke",

		// LinkedIn
		"trk", "trkinfo", "originalreferer",

		// Marketplace
		"algo", "algo_expid", "btsid", "ws_ab_test", "spm", "pvid", "scm",
	}
}
