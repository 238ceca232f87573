package guard

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Entry describes one audited event.
type Entry struct {
	PlayerID uuid.UUID
	Address  string
	Reason   Reason
	Detail   string
	// Token is only set for rejected tokens, so operators can tell which
	// proxy is misconfigured.
	Token string
}

// Auditor records rejections and learned tokens.
type Auditor interface {
	Denied(e Entry)
	Learned(e Entry)
}

// NopAuditor discards everything.
type NopAuditor struct{}

func (NopAuditor) Denied(Entry)  {}
func (NopAuditor) Learned(Entry) {}

// AuditLog writes audit entries to a logrus logger.
type AuditLog struct {
	log *logrus.Logger
}

func NewAuditLog(l *logrus.Logger) *AuditLog {
	return &AuditLog{log: l}
}

func (a *AuditLog) Denied(e Entry) {
	fields := e.fields()
	fields["reason"] = e.Reason.String()
	if e.Token != "" {
		fields["token"] = e.Token
	}
	a.log.WithFields(fields).Warnf("Denied connection - %s", e.Detail)
}

func (a *AuditLog) Learned(e Entry) {
	a.log.WithFields(e.fields()).Info("No token configured. Saving the one from this connection to the config!")
}

func (e Entry) fields() logrus.Fields {
	fields := logrus.Fields{}
	if e.PlayerID != uuid.Nil {
		fields["player"] = e.PlayerID.String()
	}
	if e.Address != "" {
		fields["addr"] = e.Address
	}
	return fields
}
