// Package ledger owns association membership: who belongs, who is in good
// standing, and who holds a board seat.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	application "agora/contexts/association-governance/governance-engine/application"
	"agora/contexts/association-governance/governance-engine/domain/entities"
	domainerrors "agora/contexts/association-governance/governance-engine/domain/errors"
	"agora/contexts/association-governance/governance-engine/ports"
)

// Service is the membership ledger: associations, members, board seats and
// system service accounts.
type Service struct {
	UnitOfWork      ports.UnitOfWork
	Associations    ports.AssociationRepository
	Memberships     ports.MembershipRepository
	ServiceAccounts ports.ServiceAccountRegistry
	Clock           ports.Clock
	IDGen           ports.IDGenerator
	Logger          *slog.Logger
}

// RegisterAssociationCommand carries a new association and its optional founder.
type RegisterAssociationCommand struct {
	AssociationID  string
	Name           string
	Location       entities.Location
	Description    string
	MemberCap      int
	FounderID      string
	FounderAddress entities.Address
}

// AddMemberCommand admits a user with a validated address, subject to the
// member cap.
type AddMemberCommand struct {
	AssociationID string
	UserID        string
	Address       entities.Address
}

// RegisterAssociation creates an association. A founder, when given, joins as
// the first member and holds a board seat.
func (s Service) RegisterAssociation(ctx context.Context, cmd RegisterAssociationCommand) (entities.Association, error) {
	logger := application.ResolveLogger(s.Logger)
	cmd.Name = strings.TrimSpace(cmd.Name)
	cmd.FounderID = strings.TrimSpace(cmd.FounderID)
	if cmd.Name == "" || cmd.MemberCap < 1 {
		return entities.Association{}, fmt.Errorf("%w: name and a member cap of at least 1 are required", domainerrors.ErrInvalidRequest)
	}
	location := cmd.Location.Normalize()
	if err := location.Validate(); err != nil {
		return entities.Association{}, err
	}
	var founderAddress entities.Address
	if cmd.FounderID != "" {
		founderAddress = cmd.FounderAddress.Normalize()
		if err := founderAddress.Location.Validate(); err != nil {
			return entities.Association{}, err
		}
	}

	associationID := strings.TrimSpace(cmd.AssociationID)
	if associationID == "" {
		id, err := s.IDGen.NewID(ctx)
		if err != nil {
			return entities.Association{}, err
		}
		associationID = id
	}

	now := s.now()
	association := entities.Association{
		AssociationID: associationID,
		Name:          cmd.Name,
		Location:      location,
		Description:   strings.TrimSpace(cmd.Description),
		MemberCap:     cmd.MemberCap,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	err := s.UnitOfWork.WithinAssociation(ctx, associationID, func(ctx context.Context, repos ports.Repositories) error {
		if _, err := repos.GetAssociation(ctx, associationID); err == nil {
			return fmt.Errorf("%w: association %s already exists", domainerrors.ErrConflict, associationID)
		} else if !errors.Is(err, domainerrors.ErrAssociationNotFound) {
			return err
		}
		if err := repos.SaveAssociation(ctx, association); err != nil {
			return err
		}
		if cmd.FounderID == "" {
			return nil
		}
		return repos.SaveMembership(ctx, entities.Membership{
			AssociationID:  associationID,
			UserID:         cmd.FounderID,
			Address:        founderAddress,
			Status:         entities.MembershipStatusActive,
			Board:          true,
			InGoodStanding: true,
			JoinedAt:       now,
			UpdatedAt:      now,
		})
	})
	if err != nil {
		logger.Warn("governance association registration rejected",
			"event", "governance_association_register_rejected",
			"module", "association-governance/governance-engine",
			"layer", "application",
			"association_id", associationID,
			"error", err.Error(),
		)
		return entities.Association{}, err
	}
	logger.Info("governance association registered",
		"event", "governance_association_registered",
		"module", "association-governance/governance-engine",
		"layer", "application",
		"association_id", associationID,
		"member_cap", association.MemberCap,
		"founder_id", cmd.FounderID,
	)
	return association, nil
}

// SetMemberCap changes the cap. It never drops below the active member count.
func (s Service) SetMemberCap(ctx context.Context, actorID string, associationID string, memberCap int) (entities.Association, error) {
	if memberCap < 1 {
		return entities.Association{}, fmt.Errorf("%w: member cap must be at least 1", domainerrors.ErrInvalidRequest)
	}
	var updated entities.Association
	err := s.UnitOfWork.WithinAssociation(ctx, associationID, func(ctx context.Context, repos ports.Repositories) error {
		association, err := repos.GetAssociation(ctx, associationID)
		if err != nil {
			return err
		}
		if err := s.RequireBoardActorIn(ctx, repos, associationID, actorID); err != nil {
			return err
		}
		active, err := repos.CountActiveMembers(ctx, associationID)
		if err != nil {
			return err
		}
		if memberCap < active {
			return fmt.Errorf("%w: %d active members exceed cap %d", domainerrors.ErrCapacityExceeded, active, memberCap)
		}
		association.MemberCap = memberCap
		association.UpdatedAt = s.now()
		updated = association
		return repos.SaveAssociation(ctx, association)
	})
	if err != nil {
		return entities.Association{}, err
	}
	application.ResolveLogger(s.Logger).Info("governance member cap updated",
		"event", "governance_member_cap_updated",
		"module", "association-governance/governance-engine",
		"layer", "application",
		"association_id", associationID,
		"member_cap", memberCap,
		"actor_id", actorID,
	)
	return updated, nil
}

// AddMember admits a user, reactivating a previously left membership row.
func (s Service) AddMember(ctx context.Context, cmd AddMemberCommand) (entities.Membership, error) {
	logger := application.ResolveLogger(s.Logger)
	cmd.AssociationID = strings.TrimSpace(cmd.AssociationID)
	cmd.UserID = strings.TrimSpace(cmd.UserID)
	if cmd.AssociationID == "" || cmd.UserID == "" {
		return entities.Membership{}, fmt.Errorf("%w: association and user ids are required", domainerrors.ErrInvalidRequest)
	}
	address := cmd.Address.Normalize()
	if err := address.Location.Validate(); err != nil {
		return entities.Membership{}, err
	}

	var membership entities.Membership
	err := s.UnitOfWork.WithinAssociation(ctx, cmd.AssociationID, func(ctx context.Context, repos ports.Repositories) error {
		association, err := repos.GetAssociation(ctx, cmd.AssociationID)
		if err != nil {
			return err
		}
		existing, found, err := repos.GetMembership(ctx, cmd.AssociationID, cmd.UserID)
		if err != nil {
			return err
		}
		if found && existing.IsActive() {
			return domainerrors.ErrAlreadyMember
		}
		if found && existing.Status == entities.MembershipStatusExpelled {
			return fmt.Errorf("%w: expelled members cannot rejoin", domainerrors.ErrNotEligible)
		}
		active, err := repos.CountActiveMembers(ctx, cmd.AssociationID)
		if err != nil {
			return err
		}
		if active+1 > association.MemberCap {
			return fmt.Errorf("%w: cap %d reached", domainerrors.ErrCapacityExceeded, association.MemberCap)
		}
		now := s.now()
		membership = entities.Membership{
			AssociationID:  cmd.AssociationID,
			UserID:         cmd.UserID,
			Address:        address,
			Status:         entities.MembershipStatusActive,
			Board:          false,
			InGoodStanding: true,
			JoinedAt:       now,
			UpdatedAt:      now,
		}
		return repos.SaveMembership(ctx, membership)
	})
	if err != nil {
		logger.Warn("governance member admission rejected",
			"event", "governance_member_add_rejected",
			"module", "association-governance/governance-engine",
			"layer", "application",
			"association_id", cmd.AssociationID,
			"user_id", cmd.UserID,
			"error", err.Error(),
		)
		return entities.Membership{}, err
	}
	logger.Info("governance member added",
		"event", "governance_member_added",
		"module", "association-governance/governance-engine",
		"layer", "application",
		"association_id", cmd.AssociationID,
		"user_id", cmd.UserID,
	)
	return membership, nil
}

func (s Service) RemoveMember(ctx context.Context, associationID string, userID string) error {
	err := s.UnitOfWork.WithinAssociation(ctx, associationID, func(ctx context.Context, repos ports.Repositories) error {
		membership, err := s.requireActiveIn(ctx, repos, associationID, userID)
		if err != nil {
			return err
		}
		now := s.now()
		membership.Status = entities.MembershipStatusLeft
		membership.Board = false
		membership.LeftAt = &now
		membership.UpdatedAt = now
		return repos.SaveMembership(ctx, membership)
	})
	if err != nil {
		return err
	}
	application.ResolveLogger(s.Logger).Info("governance member removed",
		"event", "governance_member_removed",
		"module", "association-governance/governance-engine",
		"layer", "application",
		"association_id", associationID,
		"user_id", userID,
	)
	return nil
}

func (s Service) SetBoardStatus(ctx context.Context, associationID string, userID string, board bool) error {
	return s.UnitOfWork.WithinAssociation(ctx, associationID, func(ctx context.Context, repos ports.Repositories) error {
		return s.SetBoardStatusIn(ctx, repos, associationID, userID, board)
	})
}

func (s Service) GetAssociation(ctx context.Context, associationID string) (entities.Association, error) {
	return s.Associations.GetAssociation(ctx, strings.TrimSpace(associationID))
}

func (s Service) GetMembership(ctx context.Context, associationID string, userID string) (entities.Membership, error) {
	membership, found, err := s.Memberships.GetMembership(ctx, strings.TrimSpace(associationID), strings.TrimSpace(userID))
	if err != nil {
		return entities.Membership{}, err
	}
	if !found {
		return entities.Membership{}, domainerrors.ErrNotAMember
	}
	return membership, nil
}

func (s Service) ListMembers(ctx context.Context, associationID string) ([]entities.Membership, error) {
	if _, err := s.Associations.GetAssociation(ctx, associationID); err != nil {
		return nil, err
	}
	return s.Memberships.ListActiveMembers(ctx, associationID)
}

// IsEligibleVoter reports an active membership in good standing.
func (s Service) IsEligibleVoter(ctx context.Context, associationID string, userID string) (bool, error) {
	membership, found, err := s.Memberships.GetMembership(ctx, associationID, userID)
	if err != nil || !found {
		return false, err
	}
	return membership.CanVote(), nil
}

func (s Service) IsInGoodStanding(ctx context.Context, associationID string, userID string) (bool, error) {
	return s.IsEligibleVoter(ctx, associationID, userID)
}

func (s Service) IsBoardMember(ctx context.Context, associationID string, userID string) (bool, error) {
	membership, found, err := s.Memberships.GetMembership(ctx, associationID, userID)
	if err != nil || !found {
		return false, err
	}
	return membership.IsBoardMember(), nil
}

func (s Service) IsServiceAccount(ctx context.Context, actorID string) (bool, error) {
	if s.ServiceAccounts == nil || strings.TrimSpace(actorID) == "" {
		return false, nil
	}
	return s.ServiceAccounts.IsServiceAccount(ctx, strings.TrimSpace(actorID))
}

// RequireBoardActorIn admits board members and registered service accounts.
func (s Service) RequireBoardActorIn(ctx context.Context, repos ports.MembershipRepository, associationID string, actorID string) error {
	system, err := s.IsServiceAccount(ctx, actorID)
	if err != nil {
		return err
	}
	if system {
		return nil
	}
	membership, found, err := repos.GetMembership(ctx, associationID, strings.TrimSpace(actorID))
	if err != nil {
		return err
	}
	if !found || !membership.IsBoardMember() {
		return fmt.Errorf("%w: actor %s is not a board member", domainerrors.ErrNotEligible, actorID)
	}
	return nil
}

// RequireVoterIn admits active members in good standing.
func (s Service) RequireVoterIn(ctx context.Context, repos ports.MembershipRepository, associationID string, userID string) error {
	membership, found, err := repos.GetMembership(ctx, associationID, strings.TrimSpace(userID))
	if err != nil {
		return err
	}
	if !found || !membership.IsActive() {
		return domainerrors.ErrNotAMember
	}
	if !membership.CanVote() {
		return fmt.Errorf("%w: member %s is not in good standing", domainerrors.ErrNotEligible, userID)
	}
	return nil
}

// GoodStandingVotersIn returns the sorted ids of every member who may vote.
func (s Service) GoodStandingVotersIn(ctx context.Context, repos ports.MembershipRepository, associationID string) ([]string, error) {
	members, err := repos.ListActiveMembers(ctx, associationID)
	if err != nil {
		return nil, err
	}
	voters := make([]string, 0, len(members))
	for _, member := range members {
		if member.CanVote() {
			voters = append(voters, member.UserID)
		}
	}
	sort.Strings(voters)
	return voters, nil
}

func (s Service) SetBoardStatusIn(ctx context.Context, repos ports.MembershipRepository, associationID string, userID string, board bool) error {
	membership, err := s.requireActiveIn(ctx, repos, associationID, userID)
	if err != nil {
		return err
	}
	if membership.Board == board {
		return nil
	}
	membership.Board = board
	membership.UpdatedAt = s.now()
	if err := repos.SaveMembership(ctx, membership); err != nil {
		return err
	}
	application.ResolveLogger(s.Logger).Info("governance board status changed",
		"event", "governance_board_status_changed",
		"module", "association-governance/governance-engine",
		"layer", "application",
		"association_id", associationID,
		"user_id", userID,
		"board", board,
	)
	return nil
}

func (s Service) SetGoodStandingIn(ctx context.Context, repos ports.MembershipRepository, associationID string, userID string, standing bool) error {
	membership, err := s.requireActiveIn(ctx, repos, associationID, userID)
	if err != nil {
		return err
	}
	if membership.InGoodStanding == standing {
		return nil
	}
	membership.InGoodStanding = standing
	membership.UpdatedAt = s.now()
	return repos.SaveMembership(ctx, membership)
}

// ExpelIn disables the membership permanently and drops any board seat.
func (s Service) ExpelIn(ctx context.Context, repos ports.MembershipRepository, associationID string, userID string) error {
	membership, err := s.requireActiveIn(ctx, repos, associationID, userID)
	if err != nil {
		return err
	}
	now := s.now()
	membership.Status = entities.MembershipStatusExpelled
	membership.Board = false
	membership.InGoodStanding = false
	membership.LeftAt = &now
	membership.UpdatedAt = now
	return repos.SaveMembership(ctx, membership)
}

func (s Service) requireActiveIn(ctx context.Context, repos ports.MembershipRepository, associationID string, userID string) (entities.Membership, error) {
	membership, found, err := repos.GetMembership(ctx, associationID, strings.TrimSpace(userID))
	if err != nil {
		return entities.Membership{}, err
	}
	if !found || !membership.IsActive() {
		return entities.Membership{}, domainerrors.ErrNotAMember
	}
	return membership, nil
}

func (s Service) now() time.Time {
	return application.NowUTC(s.Clock)
}
