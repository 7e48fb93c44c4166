package repository

import (
	"context"

	"github.com/google/uuid"

	"crmcore_backend/internal/leads/domain"
)

func (r *Repository) CreateActivity(ctx context.Context, a domain.Activity) error {
	if a.Metadata == nil {
		a.Metadata = map[string]any{}
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO lead_activities (id, organization_id, lead_id, contact_id, type, title, metadata, actor_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, a.ID, a.OrganizationID, a.LeadID, a.ContactID, a.Type, a.Title, a.Metadata, a.ActorID)
	return err
}

func (r *Repository) ListLeadActivities(ctx context.Context, organizationID, leadID uuid.UUID) ([]domain.Activity, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, organization_id, lead_id, contact_id, type, title, metadata, actor_id, created_at
		FROM lead_activities
		WHERE organization_id = $1 AND lead_id = $2
		ORDER BY created_at DESC
	`, organizationID, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activities := make([]domain.Activity, 0)
	for rows.Next() {
		var a domain.Activity
		if err := rows.Scan(&a.ID, &a.OrganizationID, &a.LeadID, &a.ContactID, &a.Type, &a.Title, &a.Metadata, &a.ActorID, &a.CreatedAt); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func (r *Repository) CreateNote(ctx context.Context, n domain.Note) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO lead_notes (id, organization_id, lead_id, contact_id, body, author_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, n.ID, n.OrganizationID, n.LeadID, n.ContactID, n.Body, n.AuthorID)
	return err
}

// CopyActivitiesToContact clones the lead's timeline entries onto the
// contact. The originals stay on the lead untouched, so later edits to the
// contact copies cannot rewrite lead history. Timestamps carry over.
func (r *Repository) CopyActivitiesToContact(ctx context.Context, organizationID, leadID, contactID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO lead_activities (id, organization_id, lead_id, contact_id, type, title, metadata, actor_id, created_at)
		SELECT gen_random_uuid(), organization_id, NULL, $3, type, title, metadata, actor_id, created_at
		FROM lead_activities
		WHERE organization_id = $1 AND lead_id = $2
	`, organizationID, leadID, contactID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) CopyNotesToContact(ctx context.Context, organizationID, leadID, contactID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO lead_notes (id, organization_id, lead_id, contact_id, body, author_id, created_at)
		SELECT gen_random_uuid(), organization_id, NULL, $3, body, author_id, created_at
		FROM lead_notes
		WHERE organization_id = $1 AND lead_id = $2
	`, organizationID, leadID, contactID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CopyDocumentsToContact clones document metadata rows; the cloned rows
// reference the same storage key, blobs are not touched.
func (r *Repository) CopyDocumentsToContact(ctx context.Context, organizationID, leadID, contactID uuid.UUID) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		INSERT INTO lead_documents (id, organization_id, lead_id, contact_id, file_name, content_type, size_bytes, storage_key, uploaded_by, created_at)
		SELECT gen_random_uuid(), organization_id, NULL, $3, file_name, content_type, size_bytes, storage_key, uploaded_by, created_at
		FROM lead_documents
		WHERE organization_id = $1 AND lead_id = $2
	`, organizationID, leadID, contactID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *Repository) ListLeadDocuments(ctx context.Context, organizationID, leadID uuid.UUID) ([]domain.Document, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, organization_id, lead_id, contact_id, file_name, content_type, size_bytes, storage_key, uploaded_by, created_at
		FROM lead_documents
		WHERE organization_id = $1 AND lead_id = $2
		ORDER BY created_at DESC
	`, organizationID, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make([]domain.Document, 0)
	for rows.Next() {
		var d domain.Document
		if err := rows.Scan(&d.ID, &d.OrganizationID, &d.LeadID, &d.ContactID, &d.FileName, &d.ContentType, &d.SizeBytes, &d.StorageKey, &d.UploadedBy, &d.CreatedAt); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
