package shared

import "encoding/json"

// ComplianceRequest asks whether a transfer between two addresses is allowed.
type ComplianceRequest struct {
	FromAddress string `json:"from_address"`
	ToAddress   string `json:"to_address"`
	Amount      string `json:"amount"`
}

type ComplianceResponse struct {
	IsCompliant           bool     `json:"is_compliant"`
	Message               string   `json:"message"`
	FromAddressSanctioned bool     `json:"from_address_sanctioned"`
	ToAddressSanctioned   bool     `json:"to_address_sanctioned"`
	FromAddressProof      Proof    `json:"from_address_proof,omitempty"`
	ToAddressProof        Proof    `json:"to_address_proof,omitempty"`
	MerkleRoot            string   `json:"merkle_root,omitempty"`
	CheckedLists          []string `json:"checked_lists"`

	// Entity details are list specific and passed through untouched.
	FromEntityDetails json.RawMessage `json:"from_entity_details,omitempty"`
	ToEntityDetails   json.RawMessage `json:"to_entity_details,omitempty"`
}

type HealthResponse struct {
	Status                  string   `json:"status"`
	Version                 string   `json:"version"`
	SanctionsAddressesCount uint64   `json:"sanctions_addresses_count"`
	MerkleRoot              string   `json:"merkle_root,omitempty"`
	ActiveLists             []string `json:"active_lists"`
}
