package httpadapter

import (
	"agora/contexts/association-governance/governance-engine/domain/entities"
	httptransport "agora/contexts/association-governance/governance-engine/transport/http"
)

func toLocation(in httptransport.LocationDTO) entities.Location {
	return entities.Location{Country: in.Country, Region: in.Region, City: in.City}
}

func toAddress(in httptransport.AddressDTO) entities.Address {
	return entities.Address{Location: toLocation(in.Location), Street: in.Street, PostalCode: in.PostalCode}
}

func fromLocation(in entities.Location) httptransport.LocationDTO {
	return httptransport.LocationDTO{Country: in.Country, Region: in.Region, City: in.City}
}

func mapAssociation(in entities.Association, active int) httptransport.AssociationResponse {
	return httptransport.AssociationResponse{
		AssociationID: in.AssociationID,
		Name:          in.Name,
		Location:      fromLocation(in.Location),
		Description:   in.Description,
		MemberCap:     in.MemberCap,
		ActiveMembers: active,
		CreatedAt:     in.CreatedAt,
	}
}

func mapMembership(in entities.Membership) httptransport.MembershipResponse {
	return httptransport.MembershipResponse{
		AssociationID: in.AssociationID,
		UserID:        in.UserID,
		Address: httptransport.AddressDTO{
			Location:   fromLocation(in.Address.Location),
			Street:     in.Address.Street,
			PostalCode: in.Address.PostalCode,
		},
		Status:         string(in.Status),
		Board:          in.Board,
		InGoodStanding: in.InGoodStanding,
		JoinedAt:       in.JoinedAt,
		LeftAt:         in.LeftAt,
	}
}

func mapRule(in entities.Rule) httptransport.RuleResponse {
	return httptransport.RuleResponse{
		RuleID:       in.RuleID,
		Position:     in.Position,
		Text:         in.Text,
		Version:      in.Version,
		LastMotionID: in.LastMotionID,
		UpdatedAt:    in.UpdatedAt,
	}
}

func mapElection(in entities.Election) httptransport.ElectionResponse {
	return httptransport.ElectionResponse{
		RoundID:          in.RoundID,
		AssociationID:    in.AssociationID,
		Seat:             in.Seat,
		Candidates:       in.Candidates,
		OutgoingHolderID: in.OutgoingHolderID,
		State:            string(in.State),
		Outcome:          string(in.Outcome),
		WinnerID:         in.WinnerID,
		Counts:           in.Counts,
		Eligible:         in.Eligible,
		BallotsCast:      in.BallotsCast,
		Turnout:          in.Turnout,
		OpensAt:          in.OpensAt,
		ClosesAt:         in.ClosesAt,
		AbortReason:      in.AbortReason,
		ResolvedAt:       in.ResolvedAt,
	}
}

func mapMotion(in entities.Motion) httptransport.MotionResponse {
	return httptransport.MotionResponse{
		RoundID:       in.RoundID,
		AssociationID: in.AssociationID,
		Kind:          string(in.Kind),
		TargetRuleID:  in.TargetRuleID,
		Text:          in.Text,
		ProposerID:    in.ProposerID,
		State:         string(in.State),
		Outcome:       string(in.Outcome),
		FailureReason: in.FailureReason,
		ResultRuleID:  in.ResultRuleID,
		For:           in.For,
		Against:       in.Against,
		Abstain:       in.Abstain,
		Eligible:      in.Eligible,
		Turnout:       in.Turnout,
		OpensAt:       in.OpensAt,
		ClosesAt:      in.ClosesAt,
		AbortReason:   in.AbortReason,
		ResolvedAt:    in.ResolvedAt,
	}
}

func mapBallot(in entities.Ballot) httptransport.BallotResponse {
	return httptransport.BallotResponse{RoundID: in.RoundID, VoterID: in.VoterID, Choice: in.Choice, CastAt: in.CastAt}
}

func mapSanction(in entities.SanctionRecord) httptransport.SanctionResponse {
	return httptransport.SanctionResponse{
		SanctionID:    in.SanctionID,
		AssociationID: in.Key.AssociationID,
		ViolatorID:    in.Key.ViolatorID,
		RuleID:        in.Key.RuleID,
		Epoch:         in.Epoch,
		ReportCount:   in.ReportCount,
		Action:        string(in.Action),
		DecidedAt:     in.DecidedAt,
	}
}
