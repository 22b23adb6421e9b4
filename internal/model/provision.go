package model

import "strings"

// Provision is a single numbered requirement of the certification standard
type Provision struct {
	ID        string          `json:"id" yaml:"id"`                                   // e.g. "A.1.4a"
	Text      string          `json:"text" yaml:"text"`                               // Full requirement text
	Kind      RequirementKind `json:"kind" yaml:"kind"`                               // mandatory or recommended
	Keywords  []string        `json:"keywords,omitempty" yaml:"keywords,omitempty"`   // Derived by the keyword index
	Tags      []string        `json:"tags,omitempty" yaml:"tags,omitempty"`           // Category tags (e.g. TRAINING)
	Audiences []Audience      `json:"audiences,omitempty" yaml:"audiences,omitempty"` // Expected answering roles
}

// RequirementKind is the strength of a provision ("shall" vs "should")
type RequirementKind string

const (
	KindMandatory   RequirementKind = "mandatory"
	KindRecommended RequirementKind = "recommended"
)

// ParseRequirementKind normalizes the source vocabulary into a RequirementKind.
// Unknown or empty values default to recommended.
func ParseRequirementKind(s string) RequirementKind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "shall", "mandatory", "must":
		return KindMandatory
	default:
		return KindRecommended
	}
}

// IsMandatory reports whether the kind is a "shall" requirement
func (k RequirementKind) IsMandatory() bool {
	return k == KindMandatory
}

// Audience is the organizational role expected to answer a question
type Audience string

const (
	AudienceOwner     Audience = "Owner"
	AudienceIT        Audience = "IT"
	AudienceHR        Audience = "HR"
	AudienceEmployee  Audience = "Employee"
	AudiencePurchaser Audience = "Purchaser"
)

// Audiences lists the closed set of audience labels
var Audiences = []Audience{AudienceOwner, AudienceIT, AudienceHR, AudienceEmployee, AudiencePurchaser}

// ParseAudience matches s case-insensitively against the audience set
func ParseAudience(s string) (Audience, bool) {
	s = strings.TrimSpace(s)
	for _, a := range Audiences {
		if strings.EqualFold(string(a), s) {
			return a, true
		}
	}
	return "", false
}

// Question is an audit question supplied per mapping request
type Question struct {
	ID            string   `json:"id" yaml:"id"`
	Text          string   `json:"question" yaml:"question"`
	Tag           string   `json:"group_tag,omitempty" yaml:"group_tag,omitempty"`
	Audience      Audience `json:"audience,omitempty" yaml:"audience,omitempty"`
	NamedCategory string   `json:"named_category,omitempty" yaml:"named_category,omitempty"` // e.g. "access", "backup"
}
