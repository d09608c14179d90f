// services/battle_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"aura-api/metrics"
	"aura-api/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BattleService struct {
	DB        *gorm.DB
	Moderator *Moderator
	Notifier  *NotificationService
	Badges    *BadgeService
	Now       func() time.Time
}

func NewBattleService(db *gorm.DB, moderator *Moderator, notifier *NotificationService, badges *BadgeService) *BattleService {
	return &BattleService{DB: db, Moderator: moderator, Notifier: notifier, Badges: badges, Now: time.Now}
}

func (s *BattleService) notify(tx *gorm.DB, userID string, kind models.NotificationKind, title, body, emoji, battleID string) {
	if s.Notifier != nil {
		s.Notifier.Notify(tx, userID, kind, title, body, emoji, battleID)
	}
}

// lockBattle loads a battle row FOR UPDATE inside tx.
func lockBattle(tx *gorm.DB, id string) (*models.Battle, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, invalid("id", "must be a uuid")
	}
	var b models.Battle
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// moveStatus updates the row only if it is still in from.
func moveStatus(tx *gorm.DB, b *models.Battle, from, to models.BattleStatus, extra map[string]interface{}) error {
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	res := tx.Model(&models.Battle{}).Where("id = ? AND status = ?", b.ID, from).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: battle changed concurrently", ErrInvalidTransition)
	}
	b.Status = to
	return nil
}

// Challenge creates a pending battle and escrows the challenger's stake.
func (s *BattleService) Challenge(ctx context.Context, challengerID string, in ChallengeInput) (*models.Battle, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := s.Moderator.Check("title", in.Title); err != nil {
		return nil, err
	}
	now := s.Now()
	var battle models.Battle

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var challenger models.User
		if err := tx.First(&challenger, "id = ?", challengerID).Error; err != nil {
			return err
		}
		if err := ValidateChallenge(challengerID, &in, challenger.AuraPoints); err != nil {
			return err
		}

		var opponent models.User
		if err := tx.First(&opponent, "id = ?", in.OpponentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: opponent", ErrNotFound)
			}
			return err
		}
		if opponent.IsBanned {
			return invalid("opponent_id", "opponent cannot be challenged")
		}

		if err := debit(tx, colAura, challengerID, in.Stake); err != nil {
			return err
		}

		battle = models.Battle{
			ID:           uuid.NewString(),
			ChallengerID: challengerID,
			OpponentID:   in.OpponentID,
			Title:        in.Title,
			Stake:        in.Stake,
			Status:       models.BattleStatusPending,
			VotingHours:  in.VotingHours,
			ExpiresAt:    now.Add(ChallengeTTL),
		}
		if err := tx.Create(&battle).Error; err != nil {
			return err
		}

		s.notify(tx, opponent.ID, models.NotificationBattleChallenge,
			"New battle challenge",
			fmt.Sprintf("@%s challenged you to \"%s\" for %d aura", challenger.Username, battle.Title, battle.Stake),
			"⚔️", battle.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{"battle_id": battle.ID, "stake": battle.Stake}).
		Printf("⚔️ [BATTLE] %s challenged %s", challengerID, battle.OpponentID)
	return &battle, nil
}

// Accept activates a pending battle; the opponent's stake is escrowed.
func (s *BattleService) Accept(ctx context.Context, battleID, userID string) (*models.Battle, error) {
	var battle *models.Battle
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := lockBattle(tx, battleID)
		if err != nil {
			return err
		}
		to, err := CheckTransition(b, ActionAccept, userID)
		if err != nil {
			return err
		}
		now := s.Now()
		if !now.Before(b.ExpiresAt) {
			return fmt.Errorf("%w: challenge has expired", ErrInvalidTransition)
		}
		if err := debit(tx, colAura, userID, b.Stake); err != nil {
			return err
		}
		ends := now.Add(time.Duration(b.VotingHours) * time.Hour)
		if err := moveStatus(tx, b, models.BattleStatusPending, to, map[string]interface{}{
			"accepted_at":    now,
			"voting_ends_at": ends,
		}); err != nil {
			return err
		}
		b.AcceptedAt, b.VotingEndsAt = &now, &ends

		s.notify(tx, b.ChallengerID, models.NotificationBattleAccepted,
			"Battle accepted", fmt.Sprintf("\"%s\" is live, voting ends %s", b.Title, ends.UTC().Format(time.RFC1123)),
			"🔥", b.ID)
		battle = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.WithField("battle_id", battleID).Println("🔥 [BATTLE] Accepted")
	return battle, nil
}

// Reject cancels a pending battle at the opponent's request.
func (s *BattleService) Reject(ctx context.Context, battleID, userID string) (*models.Battle, error) {
	return s.cancel(ctx, battleID, userID, ActionReject, models.CancelReasonRejected)
}

// Cancel withdraws a pending battle at the challenger's request.
func (s *BattleService) Cancel(ctx context.Context, battleID, userID string) (*models.Battle, error) {
	return s.cancel(ctx, battleID, userID, ActionCancel, models.CancelReasonWithdrawn)
}

func (s *BattleService) cancel(ctx context.Context, battleID, actorID string, action BattleAction, reason string) (*models.Battle, error) {
	var battle *models.Battle
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := lockBattle(tx, battleID)
		if err != nil {
			return err
		}
		to, err := CheckTransition(b, action, actorID)
		if err != nil {
			return err
		}
		now := s.Now()
		if err := moveStatus(tx, b, models.BattleStatusPending, to, map[string]interface{}{
			"cancel_reason": reason,
			"completed_at":  now,
		}); err != nil {
			return err
		}
		b.CancelReason, b.CompletedAt = reason, &now

		// only the challenger has escrowed anything while pending
		if err := credit(tx, colAura, b.ChallengerID, b.Stake); err != nil {
			return err
		}

		switch action {
		case ActionReject:
			s.notify(tx, b.ChallengerID, models.NotificationBattleRejected,
				"Battle rejected", fmt.Sprintf("\"%s\" was rejected, %d aura refunded", b.Title, b.Stake), "🛡️", b.ID)
		case ActionExpire:
			s.notify(tx, b.ChallengerID, models.NotificationBattleRejected,
				"Battle expired", fmt.Sprintf("\"%s\" was not accepted in time, %d aura refunded", b.Title, b.Stake), "⌛", b.ID)
		}
		battle = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.BattlesFinished.WithLabelValues(reason).Inc()
	log.WithFields(log.Fields{"battle_id": battleID, "reason": reason}).Println("🛑 [BATTLE] Cancelled")
	return battle, nil
}

// Vote spends the voter's steeze on one side of an active battle.
func (s *BattleService) Vote(ctx context.Context, battleID, voterID string, in VoteInput) (*models.BattleVote, error) {
	var vote models.BattleVote
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := lockBattle(tx, battleID)
		if err != nil {
			return err
		}

		var voter models.User
		if err := tx.First(&voter, "id = ?", voterID).Error; err != nil {
			return err
		}
		if err := ValidateVote(b, voterID, in, voter.SteezeBalance, s.Now()); err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.BattleVote{}).
			Where("battle_id = ? AND voter_id = ?", b.ID, voterID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return fmt.Errorf("%w: already voted in this battle", ErrConflict)
		}

		if err := debit(tx, colSteeze, voterID, in.Amount); err != nil {
			return err
		}

		multiplier := MultiplierForStreak(voter.CurrentStreak)
		weight := VoteWeight(in.Amount, multiplier)
		vote = models.BattleVote{
			ID:         uuid.NewString(),
			BattleID:   b.ID,
			VoterID:    voterID,
			TargetID:   in.TargetID,
			Amount:     in.Amount,
			Multiplier: multiplier,
			Weighted:   weight,
		}
		if err := tx.Create(&vote).Error; err != nil {
			return err
		}

		tally := "opponent_votes"
		if in.TargetID == b.ChallengerID {
			tally = "challenger_votes"
		}
		res := tx.Model(&models.Battle{}).
			Where("id = ? AND status = ?", b.ID, models.BattleStatusActive).
			UpdateColumns(map[string]interface{}{
				tally:       gorm.Expr(tally+" + ?", weight),
				"vote_pool": gorm.Expr("vote_pool + ?", in.Amount),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: battle is no longer active", ErrInvalidTransition)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"battle_id": battleID, "amount": in.Amount, "weight": vote.Weighted}).
		Println("🗳️ [BATTLE] Vote cast")
	return &vote, nil
}

// Resolve completes an active battle whose voting window has closed. The
// winner takes both stakes as aura and the vote pool as steeze; on a tie
// stakes and votes are refunded.
func (s *BattleService) Resolve(ctx context.Context, battleID string) (*models.Battle, error) {
	var battle *models.Battle
	var outcome Outcome
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := lockBattle(tx, battleID)
		if err != nil {
			return err
		}
		to, err := CheckTransition(b, ActionResolve, "")
		if err != nil {
			return err
		}
		now := s.Now()
		if b.VotingEndsAt != nil && now.Before(*b.VotingEndsAt) {
			return fmt.Errorf("%w: voting is still open", ErrInvalidTransition)
		}
		outcome = DecideOutcome(b)

		extra := map[string]interface{}{"completed_at": now}
		if !outcome.Tie {
			extra["winner_id"] = outcome.WinnerID
		}
		if err := moveStatus(tx, b, models.BattleStatusActive, to, extra); err != nil {
			return err
		}
		b.CompletedAt = &now

		if outcome.Tie {
			if err := credit(tx, colAura, b.ChallengerID, b.Stake); err != nil {
				return err
			}
			if err := credit(tx, colAura, b.OpponentID, b.Stake); err != nil {
				return err
			}
			var votes []models.BattleVote
			if err := tx.Where("battle_id = ?", b.ID).Find(&votes).Error; err != nil {
				return err
			}
			for _, v := range votes {
				if err := credit(tx, colSteeze, v.VoterID, v.Amount); err != nil {
					return err
				}
			}
			body := fmt.Sprintf("\"%s\" ended in a tie, stakes refunded", b.Title)
			s.notify(tx, b.ChallengerID, models.NotificationBattleResult, "Battle tied", body, "🤝", b.ID)
			s.notify(tx, b.OpponentID, models.NotificationBattleResult, "Battle tied", body, "🤝", b.ID)
		} else {
			winner := outcome.WinnerID
			b.WinnerID = &winner
			if err := credit(tx, colAura, winner, outcome.WinnerAura); err != nil {
				return err
			}
			if err := credit(tx, colSteeze, winner, outcome.WinnerSteeze); err != nil {
				return err
			}
			if err := bumpCounter(tx, "battles_won", winner); err != nil {
				return err
			}
			s.notify(tx, winner, models.NotificationBattleResult, "You won!",
				fmt.Sprintf("\"%s\": +%d aura, +%d steeze", b.Title, outcome.WinnerAura, outcome.WinnerSteeze), "🏆", b.ID)
			s.notify(tx, outcome.LoserID, models.NotificationBattleResult, "Battle lost",
				fmt.Sprintf("\"%s\" went to your opponent", b.Title), "💀", b.ID)
		}
		battle = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	label := "won"
	if outcome.Tie {
		label = "tie"
	}
	metrics.BattlesFinished.WithLabelValues(label).Inc()
	log.WithFields(log.Fields{"battle_id": battleID, "outcome": label, "winner": outcome.WinnerID}).
		Println("🏁 [BATTLE] Resolved")

	if !outcome.Tie && s.Badges != nil {
		if err := s.Badges.AutoAwardBadges(ctx, outcome.WinnerID); err != nil {
			log.Printf("⚠️ [BATTLE] Badge check failed for %s: %v", outcome.WinnerID, err)
		}
	}
	return battle, nil
}

// ResolveDue resolves every active battle whose voting window has closed.
func (s *BattleService) ResolveDue(ctx context.Context) (int, error) {
	var ids []string
	if err := s.DB.WithContext(ctx).Model(&models.Battle{}).
		Where("status = ? AND voting_ends_at <= ?", models.BattleStatusActive, s.Now()).
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	resolved := 0
	for _, id := range ids {
		if _, err := s.Resolve(ctx, id); err != nil {
			if errors.Is(err, ErrInvalidTransition) {
				continue // another replica got there first
			}
			log.Printf("❌ [BATTLE] Failed to resolve %s: %v", id, err)
			continue
		}
		resolved++
	}
	return resolved, nil
}

// ExpireStale cancels pending challenges past their expiry and refunds them.
func (s *BattleService) ExpireStale(ctx context.Context) (int, error) {
	var ids []string
	if err := s.DB.WithContext(ctx).Model(&models.Battle{}).
		Where("status = ? AND expires_at <= ?", models.BattleStatusPending, s.Now()).
		Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	expired := 0
	for _, id := range ids {
		if _, err := s.cancel(ctx, id, "", ActionExpire, models.CancelReasonExpired); err != nil {
			if !errors.Is(err, ErrInvalidTransition) {
				log.Printf("❌ [BATTLE] Failed to expire %s: %v", id, err)
			}
			continue
		}
		expired++
	}
	return expired, nil
}

// Get loads a battle with participants and votes.
func (s *BattleService) Get(ctx context.Context, id string) (*models.Battle, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, invalid("id", "must be a uuid")
	}
	var b models.Battle
	if err := s.DB.WithContext(ctx).
		Preload("Challenger").Preload("Opponent").
		Preload("Votes", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&b, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// List returns recent battles, optionally filtered by status.
func (s *BattleService) List(ctx context.Context, status string, limit int) ([]models.Battle, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	db := s.DB.WithContext(ctx).Preload("Challenger").Preload("Opponent")
	if status != "" {
		switch models.BattleStatus(status) {
		case models.BattleStatusPending, models.BattleStatusActive, models.BattleStatusCompleted, models.BattleStatusCancelled:
			db = db.Where("status = ?", status)
		default:
			return nil, invalid("status", "unknown battle status")
		}
	}
	var battles []models.Battle
	err := db.Order("created_at DESC").Limit(limit).Find(&battles).Error
	return battles, err
}

// ForUser lists battles the user takes part in.
func (s *BattleService) ForUser(ctx context.Context, userID string, limit int) ([]models.Battle, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var battles []models.Battle
	err := s.DB.WithContext(ctx).
		Preload("Challenger").Preload("Opponent").
		Where("challenger_id = ? OR opponent_id = ?", userID, userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&battles).Error
	return battles, err
}
