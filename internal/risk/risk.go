// Package risk implements the deterministic scoring engine for project
// applications. Every function here is pure: same inputs, same outputs,
// no side effects.
package risk

import "strings"

// Factors are the inputs the scorer combines into a single risk score.
type Factors struct {
	Cost                float64
	Duration            int
	ProjectType         string
	TechnicalComplexity int
}

// LevelInfo describes a categorical risk band used for presentation and
// filtering.
type LevelInfo struct {
	Level string `json:"level"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// Risk level identifiers.
const (
	LevelLow      = "LOW"
	LevelMedium   = "MEDIUM"
	LevelHigh     = "HIGH"
	LevelCritical = "CRITICAL"
)

// technicalTerms is the fixed vocabulary scanned by Complexity. Matching is
// case-insensitive substring containment.
var technicalTerms = []string{
	"api", "database", "authentication", "integration", "microservice",
	"cloud", "deployment", "architecture", "scalability", "security",
	"algorithm", "optimization", "framework", "library", "backend",
	"frontend", "devops", "ci/cd", "docker", "kubernetes",
}

// typeRisk maps a project type to its sub-score. Unknown types fall back
// to the OTHER weight.
var typeRisk = map[string]int{
	"WEB_DEVELOPMENT": 8,
	"MOBILE_APP":      12,
	"DATA_ANALYSIS":   10,
	"INFRASTRUCTURE":  18,
	"SECURITY":        20,
	"RESEARCH":        15,
	"OTHER":           10,
}

// Complexity derives a technical complexity estimate in [0,5] from the
// free-text technical description. Longer texts and a richer technical
// vocabulary raise the estimate.
func Complexity(technicalDesc string) int {
	length := len(technicalDesc)

	score := 0
	switch {
	case length > 1000:
		score = 3
	case length > 500:
		score = 2
	case length > 200:
		score = 1
	}

	lowered := strings.ToLower(technicalDesc)
	termCount := 0
	for _, term := range technicalTerms {
		if strings.Contains(lowered, term) {
			termCount++
		}
	}

	switch {
	case termCount >= 5:
		score += 2
	case termCount >= 3:
		score++
	}

	if score > 5 {
		score = 5
	}
	return score
}

// Score combines cost, duration, project type and technical complexity into
// a risk score in [0,100]. Each factor contributes a step-function sub-score;
// there is no interpolation between bands. The clamp is defensive: with
// in-range inputs the additive maximum is exactly 100.
func Score(factors Factors) int {
	score := 0

	switch {
	case factors.Cost < 5000:
		score += 5
	case factors.Cost < 20000:
		score += 15
	case factors.Cost < 50000:
		score += 25
	case factors.Cost < 100000:
		score += 35
	default:
		score += 40
	}

	switch {
	case factors.Duration < 30:
		score += 5
	case factors.Duration < 90:
		score += 12
	case factors.Duration < 180:
		score += 20
	default:
		score += 30
	}

	if weight, ok := typeRisk[factors.ProjectType]; ok {
		score += weight
	} else {
		score += 10
	}

	complexityPoints := factors.TechnicalComplexity * 2
	if complexityPoints > 10 {
		complexityPoints = 10
	}
	score += complexityPoints

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// Level maps a score onto one of four non-overlapping half-open bands:
// [0,30) LOW, [30,60) MEDIUM, [60,80) HIGH, [80,100] CRITICAL.
func Level(score int) LevelInfo {
	switch {
	case score < 30:
		return LevelInfo{Level: LevelLow, Label: "Low Risk", Color: "green"}
	case score < 60:
		return LevelInfo{Level: LevelMedium, Label: "Medium Risk", Color: "yellow"}
	case score < 80:
		return LevelInfo{Level: LevelHigh, Label: "High Risk", Color: "orange"}
	default:
		return LevelInfo{Level: LevelCritical, Label: "Critical Risk", Color: "red"}
	}
}
