package entity

import (
	"fmt"
	"strconv"
	"strings"
)

// Severity é a classificação de um finding do Macie.
type Severity string

const (
	SeverityLow     Severity = "Low"
	SeverityMedium  Severity = "Medium"
	SeverityHigh    Severity = "High"
	SeverityUnknown Severity = "Unknown"
)

// Score retorna a pontuação numérica da severidade (Low=1, Medium=2, High=3).
// Severidades desconhecidas valem 0 e portanto nunca atingem um threshold.
func (s Severity) Score() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	default:
		return 0
	}
}

// IsKnown indica se a severidade pertence ao conjunto Low/Medium/High.
func (s Severity) IsKnown() bool {
	return s.Score() > 0
}

// AtLeast retorna true quando a pontuação da severidade é >= threshold.
func (s Severity) AtLeast(threshold int) bool {
	return s.IsKnown() && s.Score() >= threshold
}

func (s Severity) String() string {
	return string(s)
}

// ParseSeverity normaliza a descrição de severidade vinda do Macie.
func ParseSeverity(description string) Severity {
	switch strings.ToUpper(strings.TrimSpace(description)) {
	case "LOW":
		return SeverityLow
	case "MEDIUM":
		return SeverityMedium
	case "HIGH":
		return SeverityHigh
	default:
		return SeverityUnknown
	}
}

// SeverityFromScore converte a pontuação numérica do Macie em Severity.
func SeverityFromScore(score int) Severity {
	switch score {
	case 1:
		return SeverityLow
	case 2:
		return SeverityMedium
	case 3:
		return SeverityHigh
	default:
		return SeverityUnknown
	}
}

// ParseThreshold aceita tanto a pontuação ("2") quanto o nome ("Medium").
func ParseThreshold(value string) (int, error) {
	value = strings.TrimSpace(value)
	if n, err := strconv.Atoi(value); err == nil {
		if SeverityFromScore(n) == SeverityUnknown {
			return 0, fmt.Errorf("severity threshold %d out of range 1..3", n)
		}
		return n, nil
	}
	sev := ParseSeverity(value)
	if !sev.IsKnown() {
		return 0, fmt.Errorf("invalid severity threshold %q", value)
	}
	return sev.Score(), nil
}
