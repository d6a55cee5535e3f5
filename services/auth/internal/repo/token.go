package repo

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/restaurant_orders/services/auth/internal/models"
)

func (r *GormRepo) SaveRefreshToken(ctx context.Context, t *models.RefreshToken) error {
	return r.DB.WithContext(ctx).Create(t).Error
}

func (r *GormRepo) FindRefreshByJTI(ctx context.Context, jti string) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("jti = ?", jti).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// RotateRefreshToken revokes the token identified by oldJTI and stores next
// in one transaction. The old row is locked so two concurrent rotations of
// the same token cannot both succeed.
func (r *GormRepo) RotateRefreshToken(ctx context.Context, oldJTI, oldHash string, now time.Time, next *models.RefreshToken) error {
	return r.InTx(ctx, func(tx *GormRepo) error {
		var old models.RefreshToken
		err := tx.DB.WithContext(ctx).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("jti = ?", oldJTI).
			First(&old).Error
		if err != nil {
			if IsNotFound(err) {
				return ErrRefreshRejected
			}
			return err
		}
		if old.TokenHash != oldHash || old.UserID != next.UserID || !old.Usable(now) {
			return ErrRefreshRejected
		}

		res := tx.DB.WithContext(ctx).Model(&models.RefreshToken{}).
			Where("id = ? AND revoked = ?", old.ID, false).
			Update("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrRefreshRejected
		}

		return tx.SaveRefreshToken(ctx, next)
	})
}

// RevokeRefreshToken is a no-op for unknown tokens.
func (r *GormRepo) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token_hash = ?", tokenHash).
		Update("revoked", true).Error
}
