// Package adapters provides pg-backed implementations of cross-cutting
// collaborator interfaces: audit logging, the role directory, and
// record-level access grants.
package adapters

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"crmcore_backend/platform/logger"
)

// AuditLog writes immutable audit entries. A failed write fails the
// enclosing operation; a mutation without its trail must not commit silently.
type AuditLog struct {
	pool *pgxpool.Pool
	log  *logger.Logger
}

func NewAuditLog(pool *pgxpool.Pool, log *logger.Logger) *AuditLog {
	return &AuditLog{pool: pool, log: log}
}

// AuditEntry is one recorded mutation.
type AuditEntry struct {
	OrganizationID uuid.UUID
	ActorID        uuid.UUID
	Action         string
	RecordType     string
	RecordID       uuid.UUID
	Changes        map[string]any
}

func (a *AuditLog) Record(ctx context.Context, entry AuditEntry) error {
	changes := entry.Changes
	if changes == nil {
		changes = map[string]any{}
	}
	_, err := a.pool.Exec(ctx, `
		INSERT INTO audit_logs (id, organization_id, actor_id, action, record_type, record_id, changes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.New(), entry.OrganizationID, entry.ActorID, entry.Action, entry.RecordType, entry.RecordID, changes)
	if err != nil {
		a.log.CollaboratorError("audit", "record", err)
		return err
	}
	return nil
}

// CalculateChanges diffs two JSON-marshalable snapshots into a
// field -> {from, to} map for the audit trail.
func CalculateChanges(before, after any) map[string]any {
	beforeMap := toMap(before)
	afterMap := toMap(after)

	changes := map[string]any{}
	for key, newValue := range afterMap {
		oldValue, existed := beforeMap[key]
		if !existed || !reflect.DeepEqual(oldValue, newValue) {
			changes[key] = map[string]any{"from": oldValue, "to": newValue}
		}
	}
	for key, oldValue := range beforeMap {
		if _, ok := afterMap[key]; !ok {
			changes[key] = map[string]any{"from": oldValue, "to": nil}
		}
	}
	return changes
}

func toMap(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return map[string]any{}
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{}
	}
	return out
}
