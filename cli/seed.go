package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"sisterhood-backend/config"
	"sisterhood-backend/logger"
	"sisterhood-backend/models/counseling"
	"sisterhood-backend/models/users"
)

const (
	demoCounselorEmail = "demo.counselor@example.com"
	demoCounselorName  = "Dr. Demo Counselor"
	demoLicense        = "DEMO-0001"
	demoSpecialization = "Trauma & PTSD"
	demoSlotCount      = 3
	demoSlotLength     = 30 * time.Minute
)

var seedCmd = &cobra.Command{
	Use:   "seed-counseling",
	Short: "Create a verified demo counselor with a few free slots",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := config.InitDB(cfg)
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return err
	}

	res, err := SeedCounseling(cmd.Context(), db, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("seed counseling: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "counselor %d ready, %d new slots\n", res.CounselorID, res.SlotsCreated)
	return nil
}

type SeedResult struct {
	CounselorID  uint
	SlotsCreated int
}

// SeedCounseling - демо-консультант и слоты на ближайшие часы; повторный запуск ничего не дублирует
func SeedCounseling(ctx context.Context, db *gorm.DB, now time.Time) (*SeedResult, error) {
	var res SeedResult
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := demoUser(tx)
		if err != nil {
			return err
		}

		profile := counseling.CounselorProfile{
			UserID:          user.ID,
			FullName:        demoCounselorName,
			LicenseNo:       demoLicense,
			Specialization:  demoSpecialization,
			Languages:       counseling.StringList{"English"},
			YearsExperience: 5,
			Bio:             "Demo profile for local development.",
			Verified:        true,
			Eligible:        true,
			AvailableChat:   true,
			AvailableVoice:  true,
			AvailableVideo:  true,
		}
		if err := tx.Where(counseling.CounselorProfile{UserID: user.ID}).
			Assign(map[string]interface{}{"verified": true, "eligible": true}).
			FirstOrCreate(&profile).Error; err != nil {
			return fmt.Errorf("counselor profile: %w", err)
		}
		res.CounselorID = profile.ID

		first := now.Truncate(time.Hour).Add(time.Hour)
		for i := 0; i < demoSlotCount; i++ {
			start := first.Add(time.Duration(i) * time.Hour)
			slot := counseling.AvailabilitySlot{CounselorID: profile.ID, Start: start, End: start.Add(demoSlotLength)}
			var count int64
			if err := tx.Model(&counseling.AvailabilitySlot{}).
				Where("counselor_id = ? AND start_at = ? AND end_at = ?", slot.CounselorID, slot.Start, slot.End).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				continue
			}
			if err := tx.Create(&slot).Error; err != nil {
				return fmt.Errorf("slot at %s: %w", start.Format(time.RFC3339), err)
			}
			res.SlotsCreated++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Logger.WithField("counselor_id", res.CounselorID).Infof("seeded %d slots", res.SlotsCreated)
	return &res, nil
}

func demoUser(tx *gorm.DB) (*users.User, error) {
	var user users.User
	err := tx.Where("email = ?", demoCounselorEmail).First(&user).Error
	if err == nil {
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// пароль случайный: вход под демо-аккаунтом не предполагается
	hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user = users.User{
		Name:     demoCounselorName,
		Email:    demoCounselorEmail,
		Password: string(hash),
		Role:     users.RoleCounselor,
		Provider: users.ProviderLocal,
	}
	if err := tx.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("demo user: %w", err)
	}
	return &user, nil
}
