// Package placeholder substitutes {{namespace.field}} tokens in section content.
//
// Only a fixed vocabulary is recognized. Anything else that looks like a token
// is left untouched so commercial text is never silently altered. Substituted
// values are HTML-escaped with their braces encoded, which means a value can
// never introduce a new token and resolution is idempotent.
package placeholder

import (
	"html"
	"regexp"
	"sort"
	"strings"
)

// Recognized keys.
const (
	ProposalTitle      = "proposal.title"
	ProposalDate       = "proposal.date"
	ProposalNumber     = "proposal.number"
	ProposalValidUntil = "proposal.validUntil"
	ProposalTotal      = "proposal.total"
	ClientName         = "client.name"
	ClientCompany      = "client.company"
	ClientEmail        = "client.email"
	AgencyName         = "agency.name"
	AgencyEmail        = "agency.email"
	AgencyPhone        = "agency.phone"
)

var vocabulary = []string{
	ProposalTitle, ProposalDate, ProposalNumber, ProposalValidUntil, ProposalTotal,
	ClientName, ClientCompany, ClientEmail,
	AgencyName, AgencyEmail, AgencyPhone,
}

var tokenPattern = regexp.MustCompile(`\{\{\s*([A-Za-z]+)\.([A-Za-z]+)\s*\}\}`)

var valueEscaper = strings.NewReplacer("{", "&#123;", "}", "&#125;")

// Context holds the display values for every recognized key. Values are
// plain text, already formatted.
type Context struct {
	Proposal Proposal
	Client   Client
	Agency   Agency
}

type Proposal struct {
	Title      string
	Date       string
	Number     string
	ValidUntil string
	Total      string
}

type Client struct {
	Name    string
	Company string
	Email   string
}

type Agency struct {
	Name  string
	Email string
	Phone string
}

// Lookup returns the value for key and whether key is part of the vocabulary.
func (c Context) Lookup(key string) (string, bool) {
	switch key {
	case ProposalTitle:
		return c.Proposal.Title, true
	case ProposalDate:
		return c.Proposal.Date, true
	case ProposalNumber:
		return c.Proposal.Number, true
	case ProposalValidUntil:
		return c.Proposal.ValidUntil, true
	case ProposalTotal:
		return c.Proposal.Total, true
	case ClientName:
		return c.Client.Name, true
	case ClientCompany:
		return c.Client.Company, true
	case ClientEmail:
		return c.Client.Email, true
	case AgencyName:
		return c.Agency.Name, true
	case AgencyEmail:
		return c.Agency.Email, true
	case AgencyPhone:
		return c.Agency.Phone, true
	}
	return "", false
}

// Vocabulary lists the recognized keys in a stable order.
func Vocabulary() []string {
	out := make([]string, len(vocabulary))
	copy(out, vocabulary)
	return out
}

// Known reports whether key belongs to the vocabulary.
func Known(key string) bool {
	_, ok := Context{}.Lookup(key)
	return ok
}

// Resolve replaces every recognized token in content.
func Resolve(content string, ctx Context) string {
	if !strings.Contains(content, "{{") {
		return content
	}
	return tokenPattern.ReplaceAllStringFunc(content, func(match string) string {
		key := keyOf(match)
		value, ok := ctx.Lookup(key)
		if !ok {
			return match
		}
		return valueEscaper.Replace(html.EscapeString(value))
	})
}

// Tokens returns the distinct keys referenced by content, sorted.
func Tokens(content string) []string {
	seen := make(map[string]struct{})
	for _, m := range tokenPattern.FindAllStringSubmatch(content, -1) {
		seen[m[1]+"."+m[2]] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Unknown returns the distinct token keys in content that Resolve will leave as-is.
func Unknown(content string) []string {
	var out []string
	for _, k := range Tokens(content) {
		if !Known(k) {
			out = append(out, k)
		}
	}
	return out
}

func keyOf(match string) string {
	m := tokenPattern.FindStringSubmatch(match)
	if m == nil {
		return ""
	}
	return m[1] + "." + m[2]
}
