package engine

import "fmt"

// ResolvePolicy decide quem pode resolver um mercado. A política é injetada na
// configuração do serviço, não é um branch fixo no motor.
type ResolvePolicy interface {
	Authorize(m *Market, resolver string, isParticipant bool) error
}

// CreatorOnly: apenas o criador do mercado pode resolver
type CreatorOnly struct{}

func (CreatorOnly) Authorize(m *Market, resolver string, _ bool) error {
	if resolver != m.Creator {
		return ErrUnauthorizedResolver
	}
	return nil
}

// CreatorOrParticipant: o criador ou qualquer participante do mercado
type CreatorOrParticipant struct{}

func (CreatorOrParticipant) Authorize(m *Market, resolver string, isParticipant bool) error {
	if resolver == m.Creator || isParticipant {
		return nil
	}
	return ErrUnauthorizedResolver
}

// PolicyFromName resolve o nome configurado (RESOLVE_POLICY) para a política
func PolicyFromName(name string) (ResolvePolicy, error) {
	switch name {
	case "creator":
		return CreatorOnly{}, nil
	case "creator-or-participant":
		return CreatorOrParticipant{}, nil
	default:
		return nil, fmt.Errorf("unknown resolve policy %q", name)
	}
}
