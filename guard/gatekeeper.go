package guard

import (
	"fmt"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"
	"github.com/skyezerfox/bungeeguard/constants"
	"github.com/skyezerfox/bungeeguard/models"
	"github.com/skyezerfox/bungeeguard/protocol"
	"go.uber.org/atomic"
)

// TokenStore persists the allowed tokens. SaveTokens is called with the full
// set whenever a token is learned and must not block on I/O.
type TokenStore interface {
	SaveTokens(tokens []string)
}

type nopStore struct{}

func (nopStore) SaveTokens([]string) {}

// Gatekeeper admits forwarded handshakes that carry an allowed token and strips
// the token from the ones it admits.
type Gatekeeper struct {
	tokens    *TokenSet
	tokenName string
	messages  KickMessages
	store     TokenStore
	audit     Auditor

	accepted     atomic.Int64
	learned      atomic.Int64
	malformed    atomic.Int64
	noProperties atomic.Int64
	invalidToken atomic.Int64
}

// Option configures a Gatekeeper.
type Option func(*Gatekeeper)

func WithMessages(m KickMessages) Option {
	return func(g *Gatekeeper) { g.messages = m }
}

func WithStore(s TokenStore) Option {
	return func(g *Gatekeeper) { g.store = s }
}

func WithAuditor(a Auditor) Option {
	return func(g *Gatekeeper) { g.audit = a }
}

// WithTokenName changes the property name the token is looked up under.
func WithTokenName(name string) Option {
	return func(g *Gatekeeper) { g.tokenName = name }
}

// New creates a Gatekeeper checking against tokens.
func New(tokens *TokenSet, opts ...Option) *Gatekeeper {
	g := &Gatekeeper{
		tokens:    tokens,
		tokenName: constants.TokenProperty,
		messages:  DefaultKickMessages,
		store:     nopStore{},
		audit:     NopAuditor{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Tokens returns the set the gatekeeper checks against.
func (g *Gatekeeper) Tokens() *TokenSet {
	return g.tokens
}

// Handle decodes the server address field of a handshake and evaluates it.
// It never panics; anything that goes wrong ends in a rejection.
func (g *Gatekeeper) Handle(raw string) (d Decision) {
	defer func() {
		if r := recover(); r != nil {
			hub := sentry.CurrentHub().Clone()
			hub.ConfigureScope(func(scope *sentry.Scope) {
				scope.SetTag("stage", "handshake")
			})
			hub.Recover(r)
			log.Error().Str("panic", fmt.Sprint(r)).Msg("Recovered while evaluating handshake")
			d = g.deny(Entry{}, ReasonMalformed, "internal error")
		}
	}()

	p, err := protocol.Decode(raw)
	if err != nil {
		return g.deny(Entry{}, ReasonMalformed, err.Error())
	}
	return g.Evaluate(p)
}

// Evaluate decides on already decoded forwarding data.
func (g *Gatekeeper) Evaluate(p models.HandshakePayload) Decision {
	entry := Entry{PlayerID: p.PlayerID, Address: p.Address}

	if p.Properties == nil {
		return g.deny(entry, ReasonNoProperties, "No properties were sent in their handshake.")
	}

	props, err := protocol.ParseProperties(*p.Properties)
	if err != nil {
		return g.deny(entry, ReasonMalformed, err.Error())
	}
	if len(props) == 0 {
		return g.deny(entry, ReasonNoProperties, "No properties were sent in their handshake.")
	}

	prop, ok := props.Find(g.tokenName)
	if !ok {
		return g.deny(entry, ReasonNoProperties, "A token was not included in their handshake properties.")
	}
	token := prop.Value
	if token == "" {
		return g.deny(entry, ReasonMalformed, "An empty token was used.")
	}

	if g.tokens.LearnIfEmpty(token) {
		g.learned.Inc()
		g.audit.Learned(entry)
		g.store.SaveTokens(g.tokens.Snapshot())
	} else if !g.tokens.Contains(token) {
		entry.Token = token
		return g.deny(entry, ReasonInvalidToken, "An invalid token was used.")
	}

	sanitized, err := protocol.EncodeProperties(protocol.SanitizeProperties(props, g.tokenName))
	if err != nil {
		return g.deny(entry, ReasonMalformed, err.Error())
	}

	g.accepted.Inc()
	return accept(p.WithProperties(sanitized))
}

func (g *Gatekeeper) deny(e Entry, r Reason, detail string) Decision {
	switch r {
	case ReasonMalformed:
		g.malformed.Inc()
	case ReasonNoProperties:
		g.noProperties.Inc()
	case ReasonInvalidToken:
		g.invalidToken.Inc()
	}
	e.Reason = r
	e.Detail = detail
	g.audit.Denied(e)
	return reject(r, g.messages.forReason(r))
}

// Stats counts decisions since the gatekeeper was created.
type Stats struct {
	Accepted     int64
	Learned      int64
	Malformed    int64
	NoProperties int64
	InvalidToken int64
}

func (g *Gatekeeper) Stats() Stats {
	return Stats{
		Accepted:     g.accepted.Load(),
		Learned:      g.learned.Load(),
		Malformed:    g.malformed.Load(),
		NoProperties: g.noProperties.Load(),
		InvalidToken: g.invalidToken.Load(),
	}
}
