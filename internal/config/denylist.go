package config

// Denylist is a set of hosts whose visits are dropped before they reach a
// digest. Domains match the host exactly or as a parent domain; Regex
// entries are matched against the host.
type Denylist struct {
	Domains []string
	Regex   []string
}

// DefaultDenylist returns the curated list of sensitive services (banking,
// password managers, healthcare portals, identity providers) that users can
// opt into with capture.use_default_denylist.
func DefaultDenylist() Denylist {
	return Denylist{
		Domains: []string{
			// Banking & Financial
			"chase.com",
			"bankofamerica.com",
			"wellsfargo.com",
			"citi.com",
			"usbank.com",
			"capitalone.com",
			"ally.com",
			"schwab.com",
			"fidelity.com",
			"vanguard.com",
			"etrade.com",
			"robinhood.com",
			"paypal.com",
			"venmo.com",
			"navyfederal.org",
			"pnc.com",
			"truist.com",

			// Password Managers
			"1password.com",
			"lastpass.com",
			"bitwarden.com",
			"dashlane.com",
			"keepersecurity.com",

			// Authentication & Identity
			"accounts.google.com",
			"login.microsoftonline.com",
			"login.live.com",
			"auth0.com",
			"okta.com",
			"id.me",
			"login.gov",

			// Healthcare
			"mychart.com",
			"patient.myuhc.com",
			"kp.org",
			"healthcare.gov",

			// Tax
			"irs.gov",
			"turbotax.intuit.com",
			"hrblock.com",

			// Crypto
			"coinbase.com",
			"kraken.com",

			// Payroll
			"workday.com",
			"adp.com",
			"gusto.com",
		},
		Regex: []string{
			`.*\.xxx$`,
			`.*pornhub\.com$`,
		},
	}
}
