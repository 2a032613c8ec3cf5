package domain

import (
	"fmt"
	"time"
)

// TeamType enumerates the fixed set of team categories. Exactly one team
// exists per type.
type TeamType string

const (
	TeamTypeCards TeamType = "CARDS"
	TeamTypeLoans TeamType = "LOANS"
	TeamTypeOther TeamType = "OTHER"
)

// TicketSubject enumerates the closed set of ticket subjects. Each subject
// maps 1:1 to a team type.
type TicketSubject string

const (
	SubjectCardProblem TicketSubject = "CARD_PROBLEM"
	SubjectLoanRequest TicketSubject = "LOAN_REQUEST"
	SubjectOther       TicketSubject = "OTHER"
)

// Team is the organizational unit handling one subject category.
type Team struct {
	ID        string
	Name      string
	Type      TeamType
	CreatedAt time.Time
	UpdatedAt time.Time
}

var subjectToTeam = map[TicketSubject]TeamType{
	SubjectCardProblem: TeamTypeCards,
	SubjectLoanRequest: TeamTypeLoans,
	SubjectOther:       TeamTypeOther,
}

var teamToSubject = map[TeamType]TicketSubject{
	TeamTypeCards: SubjectCardProblem,
	TeamTypeLoans: SubjectLoanRequest,
	TeamTypeOther: SubjectOther,
}

// TeamForSubject resolves the owning team type for a subject. The mapping is
// total over the closed enum; an unmapped subject means code and data have
// diverged and the caller must treat it as fatal.
func TeamForSubject(subject TicketSubject) (TeamType, error) {
	teamType, ok := subjectToTeam[subject]
	if !ok {
		return "", fmt.Errorf("unmapped ticket subject %q", subject)
	}
	return teamType, nil
}

// SubjectForTeam is the exact inverse of TeamForSubject.
func SubjectForTeam(teamType TeamType) (TicketSubject, error) {
	subject, ok := teamToSubject[teamType]
	if !ok {
		return "", fmt.Errorf("unmapped team type %q", teamType)
	}
	return subject, nil
}

// AllTeamTypes returns the closed set of team types in stable order.
func AllTeamTypes() []TeamType {
	return []TeamType{TeamTypeCards, TeamTypeLoans, TeamTypeOther}
}

// ValidSubject reports whether subject belongs to the closed enum.
func ValidSubject(subject TicketSubject) bool {
	_, ok := subjectToTeam[subject]
	return ok
}
