package domain

// UserType labels the audience a query appears to come from.
type UserType string

const (
	UserProfessional UserType = "professional"
	UserEducational  UserType = "educational"
)

// DetectionResult is the outcome of user-type classification. Both raw scores
// are kept so callers can audit the decision.
type DetectionResult struct {
	UserType          UserType `json:"user_type"`
	Confidence        float64  `json:"confidence"`
	ProfessionalScore int      `json:"professional_score"`
	EducationalScore  int      `json:"educational_score"`
	MatchedPatterns   []string `json:"matched_patterns"`
}

// EmergencyLevel orders severity: none < urgent < critical.
type EmergencyLevel string

const (
	EmergencyNone     EmergencyLevel = "none"
	EmergencyUrgent   EmergencyLevel = "urgent"
	EmergencyCritical EmergencyLevel = "critical"
)

// EmergencyResult is the outcome of emergency classification.
type EmergencyResult struct {
	IsEmergency     bool           `json:"is_emergency"`
	Level           EmergencyLevel `json:"level"`
	MatchedKeywords []string       `json:"matched_keywords"`
	Category        string         `json:"category"`
}
