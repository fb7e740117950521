package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// AuditEntry es una entrada del rastro de auditoría de operaciones WMS.
type AuditEntry struct {
	ID          int64
	Ts          time.Time
	UserName    string
	Action      string
	Payload     string // JSON de la petición
	PayloadHash string // SHA-256 del payload, para detección de alteraciones
}

// NewAuditEntry serializa el payload a JSON y calcula su hash SHA-256.
// Un payload no serializable produce una entrada sin payload, nunca un error:
// la auditoría no debe tumbar la operación que audita.
func NewAuditEntry(userName, action string, payload any) *AuditEntry {
	e := &AuditEntry{
		Ts:       time.Now().UTC(),
		UserName: userName,
		Action:   action,
	}
	if payload == nil {
		return e
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return e
	}
	sum := sha256.Sum256(raw)
	e.Payload = string(raw)
	e.PayloadHash = hex.EncodeToString(sum[:])
	return e
}
