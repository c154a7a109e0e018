package engine

import "strings"

// Outcome é o resultado de três vias de uma partida
type Outcome uint8

const (
	OutcomeNone Outcome = iota
	OutcomeHome
	OutcomeDraw
	OutcomeAway
)

func (o Outcome) Valid() bool {
	return o == OutcomeHome || o == OutcomeDraw || o == OutcomeAway
}

func (o Outcome) String() string {
	switch o {
	case OutcomeHome:
		return "HOME"
	case OutcomeDraw:
		return "DRAW"
	case OutcomeAway:
		return "AWAY"
	default:
		return "NONE"
	}
}

// ParseOutcome aceita "home"/"draw"/"away" em qualquer caixa
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "HOME":
		return OutcomeHome, nil
	case "DRAW":
		return OutcomeDraw, nil
	case "AWAY":
		return OutcomeAway, nil
	default:
		return OutcomeNone, ErrInvalidPrediction
	}
}

// Status do ciclo de vida de um mercado. LIVE e CANCELLED são reservados:
// nenhuma operação produz esses estados hoje, mas o domínio os representa.
type Status uint8

const (
	StatusOpen Status = iota + 1
	StatusLive
	StatusResolved
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "OPEN"
	case StatusLive:
		return "LIVE"
	case StatusResolved:
		return "RESOLVED"
	case StatusCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}

// ParseStatus converte a representação persistida de volta para Status
func ParseStatus(s string) (Status, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OPEN":
		return StatusOpen, nil
	case "LIVE":
		return StatusLive, nil
	case "RESOLVED":
		return StatusResolved, nil
	case "CANCELLED":
		return StatusCancelled, nil
	default:
		return 0, ErrInvalidStatus
	}
}
