// Package recipient validates and describes the recipients named by an email
// template.
package recipient

import (
	"fmt"
	"net/mail"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"
)

// Checker provides information about template recipients.
type Checker interface {
	// Describe returns a human readable description of recipient, or a
	// *BadRecipientError if it cannot be used.
	Describe(recipient string) (string, error)
	// NoRecipient is consulted when a template has no recipients at all. It
	// returns a *MissingRecipientError when recipients are required.
	NoRecipient() error
}

// Config is the on-disk form of the checker configuration.
type Config struct {
	// Groups maps a group name usable as a recipient to its description.
	Groups map[string]string `yaml:"groups"`
	// Domains restricts addresses to these domains when non-empty.
	Domains          []string `yaml:"domains"`
	AllowNoRecipient bool     `yaml:"allow_no_recipient"`
}

// LoadConfig reads a YAML checker configuration.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	content, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading recipient config %s", path)
	}
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing recipient config %s", path)
	}
	return cfg, nil
}

// Options returns the checker options equivalent to the configuration.
func (c Config) Options() []Option {
	opts := []Option{WithGroups(c.Groups), WithDomains(c.Domains...)}
	if c.AllowNoRecipient {
		opts = append(opts, WithAllowNoRecipient())
	}
	return opts
}

// Option configures a checker.
type Option func(*checker)

// WithGroups adds named recipient groups.
func WithGroups(groups map[string]string) Option {
	return func(c *checker) {
		for name, description := range groups {
			c.groups[name] = description
		}
	}
}

// WithDomains restricts email addresses to the given domains.
func WithDomains(domains ...string) Option {
	return func(c *checker) {
		for _, d := range domains {
			c.domains[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
		}
	}
}

// WithAllowNoRecipient accepts templates which name no recipients.
func WithAllowNoRecipient() Option {
	return func(c *checker) {
		c.allowNoRecipient = true
	}
}

type checker struct {
	groups           map[string]string
	domains          map[string]struct{}
	allowNoRecipient bool
}

// NewChecker returns a Checker. Without options it accepts any valid RFC 5322
// address and requires at least one recipient.
func NewChecker(opts ...Option) Checker {
	c := &checker{
		groups:  map[string]string{},
		domains: map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *checker) Describe(recipient string) (string, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return "", &BadRecipientError{Recipient: recipient, Reason: "empty recipient"}
	}

	if description, ok := c.groups[recipient]; ok {
		return fmt.Sprintf("%s (%s)", description, recipient), nil
	}

	addr, err := mail.ParseAddress(recipient)
	if err != nil {
		return "", &BadRecipientError{Recipient: recipient, Reason: "not a valid email address or known group"}
	}

	if len(c.domains) > 0 {
		domain := strings.ToLower(addr.Address[strings.LastIndex(addr.Address, "@")+1:])
		if _, ok := c.domains[domain]; !ok {
			allowed := lo.Keys(c.domains)
			sort.Strings(allowed)
			return "", &BadRecipientError{
				Recipient: recipient,
				Reason:    fmt.Sprintf("domain %s is not one of %s", domain, strings.Join(allowed, ", ")),
			}
		}
	}

	if addr.Name != "" {
		return fmt.Sprintf("%s <%s>", addr.Name, addr.Address), nil
	}
	return addr.Address, nil
}

func (c *checker) NoRecipient() error {
	if c.allowNoRecipient {
		return nil
	}
	return &MissingRecipientError{}
}
