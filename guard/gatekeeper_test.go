package guard

import (
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/skyezerfox/bungeeguard/constants"
	"github.com/skyezerfox/bungeeguard/protocol"
)

const playerHex = "069a79f444e94726a5befca90e38aaf5"

var testMessages = KickMessages{
	NoData:       "no data",
	NoProperties: "no properties",
	InvalidToken: "invalid token",
}

func forwarded(props string) string {
	return "mc.example.com\x00203.0.113.5\x00" + playerHex + "\x00" + props
}

func withToken(token string) string {
	return forwarded(`[{"name":"textures","value":"skin","signature":"sig"},{"name":"bungeeguard-token","value":"` + token + `"}]`)
}

type recordingStore struct {
	mu    sync.Mutex
	saves [][]string
}

func (s *recordingStore) SaveTokens(tokens []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves = append(s.saves, tokens)
}

func (s *recordingStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saves)
}

type recordingAuditor struct {
	mu      sync.Mutex
	denied  []Entry
	learned []Entry
}

func (a *recordingAuditor) Denied(e Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.denied = append(a.denied, e)
}

func (a *recordingAuditor) Learned(e Entry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.learned = append(a.learned, e)
}

type panicStore struct{}

func (panicStore) SaveTokens([]string) { panic("disk on fire") }

func newTestGatekeeper(tokens ...string) (*Gatekeeper, *recordingStore, *recordingAuditor) {
	store := &recordingStore{}
	audit := &recordingAuditor{}
	g := New(NewTokenSet(tokens...),
		WithMessages(testMessages),
		WithStore(store),
		WithAuditor(audit),
	)
	return g, store, audit
}

func TestHandleRejections(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		reason  Reason
		message string
	}{
		{name: "too few fields", raw: "mc.example.com\x00203.0.113.5", reason: ReasonMalformed, message: "no data"},
		{name: "too many fields", raw: forwarded("[]") + "\x00extra", reason: ReasonMalformed, message: "no data"},
		{name: "bad player id", raw: "mc.example.com\x00203.0.113.5\x00nothex", reason: ReasonMalformed, message: "no data"},
		{name: "legacy", raw: "mc.example.com\x00203.0.113.5\x00" + playerHex, reason: ReasonNoProperties, message: "no properties"},
		{name: "empty list", raw: forwarded("[]"), reason: ReasonNoProperties, message: "no properties"},
		{name: "no token", raw: forwarded(`[{"name":"textures","value":"skin"}]`), reason: ReasonNoProperties, message: "no properties"},
		{name: "bad json", raw: forwarded(`[{"name":`), reason: ReasonMalformed, message: "no data"},
		{name: "numeric token", raw: forwarded(`[{"name":"bungeeguard-token","value":1}]`), reason: ReasonMalformed, message: "no data"},
		{name: "empty token", raw: withToken(""), reason: ReasonMalformed, message: "no data"},
		{name: "wrong token", raw: withToken("wrong"), reason: ReasonInvalidToken, message: "invalid token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, store, audit := newTestGatekeeper("secret1", "secret2")
			d := g.Handle(tt.raw)
			if d.Accepted {
				t.Fatalf("accepted %q", tt.raw)
			}
			if d.Reason != tt.reason || d.Message != tt.message {
				t.Fatalf("reason=%v message=%q, want %v %q", d.Reason, d.Message, tt.reason, tt.message)
			}
			if len(audit.denied) != 1 || audit.denied[0].Reason != tt.reason {
				t.Fatalf("denied=%+v", audit.denied)
			}
			if got, want := g.Tokens().Snapshot(), []string{"secret1", "secret2"}; !reflect.DeepEqual(got, want) {
				t.Fatalf("tokens=%v, want=%v", got, want)
			}
			if store.count() != 0 {
				t.Fatalf("store saved %d times", store.count())
			}
		})
	}
}

func TestHandleNoPropertiesWithoutTokenEntry(t *testing.T) {
	// token entries are looked up by exact name only
	for _, props := range []string{
		`[{"name":"Bungeeguard-Token","value":"secret1"}]`,
		`[{"name":"textures","value":"bungeeguard-token"}]`,
		`[{"name":"bungeeguard-token ","value":"secret1"}]`,
	} {
		g, _, _ := newTestGatekeeper("secret1")
		if d := g.Handle(forwarded(props)); d.Accepted || d.Reason != ReasonNoProperties {
			t.Errorf("props=%s: decision=%+v", props, d)
		}
	}
}

func TestHandleAccepted(t *testing.T) {
	g, store, audit := newTestGatekeeper("secret1", "secret2")

	d := g.Handle(withToken("secret2"))
	if !d.Accepted {
		t.Fatalf("rejected: %+v", d)
	}
	p := d.Payload
	if p.Hostname != "mc.example.com" || p.Address != "203.0.113.5" || protocol.CompactUUID(p.PlayerID) != playerHex {
		t.Fatalf("payload=%+v", p)
	}
	want := `[{"name":"textures","value":"skin","signature":"sig"}]`
	if p.Properties == nil || *p.Properties != want {
		t.Fatalf("properties=%v, want=%s", p.Properties, want)
	}
	if len(audit.denied) != 0 || len(audit.learned) != 0 || store.count() != 0 {
		t.Fatalf("unexpected side effects: denied=%d learned=%d saves=%d", len(audit.denied), len(audit.learned), store.count())
	}
	if s := g.Stats(); s.Accepted != 1 || s.Learned != 0 {
		t.Fatalf("stats=%+v", s)
	}
}

func TestHandleRemovesEveryTokenEntry(t *testing.T) {
	g, _, _ := newTestGatekeeper("secret1")
	d := g.Handle(forwarded(`[{"name":"bungeeguard-token","value":"secret1"},{"name":"textures","value":"skin"},{"name":"bungeeguard-token","value":"leftover"}]`))
	if !d.Accepted {
		t.Fatalf("rejected: %+v", d)
	}
	if got, want := *d.Payload.Properties, `[{"name":"textures","value":"skin"}]`; got != want {
		t.Fatalf("properties=%s, want=%s", got, want)
	}
}

func TestHandleOnlyTokenProperty(t *testing.T) {
	g, _, _ := newTestGatekeeper("secret1")
	d := g.Handle(forwarded(`[{"name":"bungeeguard-token","value":"secret1"}]`))
	if !d.Accepted {
		t.Fatalf("rejected: %+v", d)
	}
	if got := *d.Payload.Properties; got != "[]" {
		t.Fatalf("properties=%s, want=[]", got)
	}
}

func TestAutoLearnOnce(t *testing.T) {
	g, store, audit := newTestGatekeeper()

	if d := g.Handle(withToken("T")); !d.Accepted {
		t.Fatalf("first connection rejected: %+v", d)
	}
	if got, want := g.Tokens().Snapshot(), []string{"T"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("tokens=%v, want=%v", got, want)
	}
	if len(store.saves) != 1 || !reflect.DeepEqual(store.saves[0], []string{"T"}) {
		t.Fatalf("saves=%v", store.saves)
	}
	if len(audit.learned) != 1 || audit.learned[0].Address != "203.0.113.5" {
		t.Fatalf("learned=%+v", audit.learned)
	}

	d := g.Handle(withToken("T2"))
	if d.Accepted || d.Reason != ReasonInvalidToken {
		t.Fatalf("second token: %+v", d)
	}
	if len(audit.denied) != 1 || audit.denied[0].Token != "T2" {
		t.Fatalf("denied=%+v", audit.denied)
	}

	if d := g.Handle(withToken("T")); !d.Accepted {
		t.Fatalf("learned token rejected: %+v", d)
	}
	if store.count() != 1 {
		t.Fatalf("saves=%d, want=1", store.count())
	}
	if s := g.Stats(); s.Accepted != 2 || s.Learned != 1 || s.InvalidToken != 1 {
		t.Fatalf("stats=%+v", s)
	}
}

func TestAutoLearnConcurrent(t *testing.T) {
	const n = 64
	g, store, _ := newTestGatekeeper()

	decisions := make([]Decision, n)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			decisions[i] = g.Handle(withToken(fmt.Sprintf("token-%d", i)))
		}(i)
	}
	close(start)
	wg.Wait()

	accepted := 0
	for i, d := range decisions {
		switch {
		case d.Accepted:
			accepted++
			if got, want := g.Tokens().Snapshot(), []string{fmt.Sprintf("token-%d", i)}; !reflect.DeepEqual(got, want) {
				t.Fatalf("tokens=%v, want=%v", got, want)
			}
		case d.Reason != ReasonInvalidToken:
			t.Fatalf("decision %d: %+v", i, d)
		}
	}
	if accepted != 1 {
		t.Fatalf("accepted=%d, want=1", accepted)
	}
	if store.count() != 1 {
		t.Fatalf("saves=%d, want=1", store.count())
	}
	if s := g.Stats(); s.Learned != 1 || s.InvalidToken != n-1 {
		t.Fatalf("stats=%+v", s)
	}
}

func TestHandleRecoversPanic(t *testing.T) {
	g := New(NewTokenSet(), WithMessages(testMessages), WithStore(panicStore{}))
	d := g.Handle(withToken("T"))
	if d.Accepted || d.Reason != ReasonMalformed || d.Message != "no data" {
		t.Fatalf("decision=%+v", d)
	}

	// the process keeps serving other handshakes
	if d := g.Handle(withToken("T")); !d.Accepted {
		t.Fatalf("follow-up rejected: %+v", d)
	}
}

func TestDefaults(t *testing.T) {
	g := New(NewTokenSet("secret1"))
	if g.tokenName != constants.TokenProperty {
		t.Fatalf("token name=%q", g.tokenName)
	}
	if d := g.Handle(withToken("wrong")); d.Message != DefaultKickMessages.InvalidToken {
		t.Fatalf("message=%q", d.Message)
	}

	g = New(NewTokenSet("secret1"), WithTokenName("custom-token"))
	if d := g.Handle(forwarded(`[{"name":"custom-token","value":"secret1"},{"name":"bungeeguard-token","value":"x"}]`)); !d.Accepted {
		t.Fatalf("rejected: %+v", d)
	} else if got, want := *d.Payload.Properties, `[{"name":"bungeeguard-token","value":"x"}]`; got != want {
		t.Fatalf("properties=%s, want=%s", got, want)
	}
}
