package identity

// SessionConfig is a literal Config implementation for hosts that do not
// carry their own configuration container.
type SessionConfig struct {
	SigningKey            string
	TokenExpiration       int
	ExtendedTokenDuration int
	ContextKey            string
	Issuer                string
	Audience              []string
	RejectedRouteKey      string
	RejectedRouteDefault  string
}

func (c SessionConfig) GetSigningKey() string { return c.SigningKey }

func (c SessionConfig) GetTokenExpiration() int {
	if c.TokenExpiration <= 0 {
		return 24
	}
	return c.TokenExpiration
}

func (c SessionConfig) GetExtendedTokenDuration() int { return c.ExtendedTokenDuration }

func (c SessionConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return "identity_session"
	}
	return c.ContextKey
}

func (c SessionConfig) GetIssuer() string { return c.Issuer }
func (c SessionConfig) GetAudience() []string { return c.Audience }

func (c SessionConfig) GetRejectedRouteKey() string {
	if c.RejectedRouteKey == "" {
		return "rejected_route"
	}
	return c.RejectedRouteKey
}

func (c SessionConfig) GetRejectedRouteDefault() string {
	if c.RejectedRouteDefault == "" {
		return "/"
	}
	return c.RejectedRouteDefault
}

// SitePolicy is a literal Policy implementation. The zero value is the most
// restrictive deployment: signup closed, local credentials, no demo lock.
type SitePolicy struct {
	SignupEnabled bool
	ExternalAuth  bool
	DemoSite      bool
}

func (p SitePolicy) AllowUserSignup() bool { return p.SignupEnabled }
func (p SitePolicy) UseExternalAuth() bool { return p.ExternalAuth }
func (p SitePolicy) IsDemoSite() bool      { return p.DemoSite }

type restrictivePolicy struct{}

func (restrictivePolicy) AllowUserSignup() bool { return false }
func (restrictivePolicy) UseExternalAuth() bool { return false }
func (restrictivePolicy) IsDemoSite() bool      { return false }

func normalizePolicy(p Policy) Policy {
	if p == nil {
		return restrictivePolicy{}
	}
	return p
}
