package verifiers

import (
	"time"

	"gorm.io/datatypes"
)

// VerifierType categorizes accredited verifiers
type VerifierType string

const (
	TypeScientificInstitution VerifierType = "SCIENTIFIC_INSTITUTION"
	TypeGovernmentAgency      VerifierType = "GOVERNMENT_AGENCY"
	TypeCertificationBody     VerifierType = "CERTIFICATION_BODY"
	TypeLocalCommunity        VerifierType = "LOCAL_COMMUNITY"
	TypeTechnicalAuditor      VerifierType = "TECHNICAL_AUDITOR"
	TypeThirdPartyValidator   VerifierType = "THIRD_PARTY_VALIDATOR"
)

// InitialReputation is the score every verifier starts with.
const InitialReputation = uint64(100)

// ReputationReward is added per successful verification. Growth is
// unbounded; no decay or cap is applied.
const ReputationReward = uint64(10)

// Verifier is one directory entry. Created once per address; mutated only
// by successful verifications or an external deactivation action.
type Verifier struct {
	Address           string         `gorm:"size:64;primaryKey" json:"address"`
	Type              VerifierType   `gorm:"size:30;not null" json:"verifier_type"`
	Credentials       datatypes.JSON `json:"credentials"`
	ReputationScore   uint64         `json:"reputation_score"`
	VerificationCount uint64         `json:"verification_count"`
	IsActive          bool           `json:"is_active"`
	RegistrationDate  time.Time      `json:"registration_date"`
	Specializations   datatypes.JSON `json:"specializations"`
}
