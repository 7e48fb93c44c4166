package transport

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func TestUpdateLeadRequestDistinguishesAbsentFromNull(t *testing.T) {
	var req UpdateLeadRequest
	if err := json.Unmarshal([]byte(`{"email": null, "company": "Acme"}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	params := req.ToParams()
	if !params.EmailSet || params.Email != nil {
		t.Errorf("explicit null must clear the field: set=%v value=%v", params.EmailSet, params.Email)
	}
	if !params.CompanySet || params.Company == nil || *params.Company != "Acme" {
		t.Errorf("company = %v (set=%v), want Acme", params.Company, params.CompanySet)
	}
	if params.PhoneSet {
		t.Error("absent key must not mark the field as set")
	}
}

func TestOptionalUUIDParsing(t *testing.T) {
	id := uuid.New()

	var req UpdateLeadRequest
	if err := json.Unmarshal([]byte(`{"ownerId": "`+id.String()+`"}`), &req); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !req.OwnerID.Set || req.OwnerID.Value == nil || *req.OwnerID.Value != id {
		t.Errorf("ownerId = %+v, want %s", req.OwnerID, id)
	}

	if err := json.Unmarshal([]byte(`{"ownerId": "not-a-uuid"}`), &req); err == nil {
		t.Error("malformed uuid must fail to unmarshal")
	}
}

func TestListLeadsRequestDefaultsAndParsing(t *testing.T) {
	stageID := uuid.New()
	req := ListLeadsRequest{StageID: stageID.String(), Page: 3, PerPage: 20}

	orgID := uuid.New()
	params, err := req.ToParams(orgID)
	if err != nil {
		t.Fatalf("ToParams: %v", err)
	}
	if params.OrganizationID != orgID {
		t.Errorf("organization = %s, want %s", params.OrganizationID, orgID)
	}
	if params.StageID == nil || *params.StageID != stageID {
		t.Errorf("stageId = %v, want %s", params.StageID, stageID)
	}
	if params.Offset != 40 || params.Limit != 20 {
		t.Errorf("offset/limit = %d/%d, want 40/20", params.Offset, params.Limit)
	}

	defaults, err := ListLeadsRequest{}.ToParams(orgID)
	if err != nil {
		t.Fatalf("ToParams: %v", err)
	}
	if defaults.Offset != 0 || defaults.Limit != 25 {
		t.Errorf("default offset/limit = %d/%d, want 0/25", defaults.Offset, defaults.Limit)
	}

	if _, err := (ListLeadsRequest{OwnerID: "junk"}).ToParams(orgID); err == nil {
		t.Error("malformed owner filter must error")
	}
}
