package counseling

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"sisterhood-backend/logger"
	models "sisterhood-backend/models/counseling"
	"sisterhood-backend/models/users"
)

const directoryCachePrefix = "counselors:"

type DirectoryFilter struct {
	Specialization string
	MinRating      *float64
	Search         string
}

func (f DirectoryFilter) cacheKey() string {
	rating := ""
	if f.MinRating != nil {
		rating = strconv.FormatFloat(*f.MinRating, 'f', 2, 64)
	}
	return directoryCachePrefix + strings.ToLower(f.Specialization) + "|" + rating + "|" + strings.ToLower(f.Search)
}

func likePattern(s string) string {
	return "%" + strings.ToLower(strings.TrimSpace(s)) + "%"
}

// ListCounselors - справочник проверенных консультантов, лучшие по рейтингу сверху
func (e *Engine) ListCounselors(ctx context.Context, f DirectoryFilter) ([]models.CounselorProfile, error) {
	key := f.cacheKey()
	if raw, ok, err := e.cache.Get(ctx, key); err != nil {
		logger.Logger.WithError(err).Warn("counselor directory cache read failed")
	} else if ok {
		var cached []models.CounselorProfile
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
	}

	q := e.db.WithContext(ctx).Where("verified = ? AND eligible = ?", true, true)
	if s := strings.TrimSpace(f.Specialization); s != "" {
		q = q.Where("LOWER(specialization) LIKE ?", likePattern(s))
	}
	if f.MinRating != nil {
		q = q.Where("rating >= ?", *f.MinRating)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		p := likePattern(s)
		q = q.Where("LOWER(full_name) LIKE ? OR LOWER(specialization) LIKE ? OR LOWER(bio) LIKE ?", p, p, p)
	}

	var profiles []models.CounselorProfile
	if err := q.Order("rating IS NULL, rating DESC, created_at DESC").Find(&profiles).Error; err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(profiles); err == nil {
		if err := e.cache.Set(ctx, key, raw, e.cacheTTL); err != nil {
			logger.Logger.WithError(err).Warn("counselor directory cache write failed")
		}
	}
	return profiles, nil
}

// Specializations - различные специализации проверенных консультантов
func (e *Engine) Specializations(ctx context.Context) ([]string, error) {
	var out []string
	err := e.db.WithContext(ctx).Model(&models.CounselorProfile{}).
		Where("verified = ? AND specialization <> ?", true, "").
		Distinct().Order("specialization").
		Pluck("specialization", &out).Error
	return out, err
}

// GetCounselor - карточка консультанта, доступного для записи
func (e *Engine) GetCounselor(ctx context.Context, id uint) (*models.CounselorProfile, error) {
	var profile models.CounselorProfile
	if err := e.db.WithContext(ctx).First(&profile, id).Error; err != nil {
		return nil, notFound(err, "counselor", id)
	}
	if !profile.Bookable() {
		return nil, fmt.Errorf("%w: counselor %d", ErrNotFound, id)
	}
	return &profile, nil
}

// CounselorByUser - профиль консультанта текущего пользователя
func (e *Engine) CounselorByUser(ctx context.Context, userID uint) (*models.CounselorProfile, error) {
	var profile models.CounselorProfile
	if err := e.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, notFound(err, "counselor profile for user", userID)
	}
	return &profile, nil
}

type ProfileInput struct {
	FullName        string
	LicenseNo       string
	Specialization  string
	Languages       []string
	YearsExperience int
	Bio             string
	PhotoURL        string
	AvailableChat   bool
	AvailableVoice  bool
	AvailableVideo  bool
}

func (in ProfileInput) apply(p *models.CounselorProfile) {
	p.FullName = in.FullName
	p.LicenseNo = in.LicenseNo
	p.Specialization = in.Specialization
	p.Languages = models.StringList(in.Languages)
	p.YearsExperience = in.YearsExperience
	p.Bio = in.Bio
	p.PhotoURL = in.PhotoURL
	p.AvailableChat = in.AvailableChat
	p.AvailableVoice = in.AvailableVoice
	p.AvailableVideo = in.AvailableVideo
}

// CreateCounselorProfile - анкета консультанта; проверку проводит персонал
func (e *Engine) CreateCounselorProfile(ctx context.Context, userID uint, in ProfileInput) (*models.CounselorProfile, error) {
	if strings.TrimSpace(in.FullName) == "" || strings.TrimSpace(in.LicenseNo) == "" {
		return nil, fmt.Errorf("%w: full name and license number are required", ErrValidation)
	}
	profile := models.CounselorProfile{UserID: userID}
	in.apply(&profile)

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user users.User
		if err := tx.First(&user, userID).Error; err != nil {
			return notFound(err, "user", userID)
		}
		if !user.IsCounselor() {
			return fmt.Errorf("%w: only counselors can create a profile", ErrForbidden)
		}
		var count int64
		if err := tx.Model(&models.CounselorProfile{}).
			Where("user_id = ? OR license_no = ?", userID, in.LicenseNo).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: profile or license already registered", ErrConflict)
		}
		return tx.Create(&profile).Error
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateCounselorProfile - правка своей анкеты; проверка и рейтинг не меняются
func (e *Engine) UpdateCounselorProfile(ctx context.Context, userID uint, in ProfileInput) (*models.CounselorProfile, error) {
	profile, err := e.CounselorByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.FullName) == "" {
		in.FullName = profile.FullName
	}
	if strings.TrimSpace(in.LicenseNo) == "" {
		in.LicenseNo = profile.LicenseNo
	}
	in.apply(profile)
	if err := e.db.WithContext(ctx).Save(profile).Error; err != nil {
		return nil, err
	}
	if err := e.invalidateDirectory(ctx); err != nil {
		logger.Logger.WithError(err).Warn("counselor directory cache invalidation failed")
	}
	return profile, nil
}

// VerifyCounselor - модерация анкеты персоналом
func (e *Engine) VerifyCounselor(ctx context.Context, id uint, actor Actor, verified, eligible bool) (*models.CounselorProfile, error) {
	if !actor.IsStaff {
		return nil, fmt.Errorf("%w: staff only", ErrForbidden)
	}
	var profile models.CounselorProfile
	db := e.db.WithContext(ctx)
	if err := db.First(&profile, id).Error; err != nil {
		return nil, notFound(err, "counselor", id)
	}
	if err := db.Model(&profile).Updates(map[string]interface{}{"verified": verified, "eligible": eligible}).Error; err != nil {
		return nil, err
	}
	profile.Verified, profile.Eligible = verified, eligible
	if err := e.invalidateDirectory(ctx); err != nil {
		logger.Logger.WithError(err).Warn("counselor directory cache invalidation failed")
	}
	return &profile, nil
}

func (e *Engine) invalidateDirectory(ctx context.Context) error {
	return e.cache.DeletePrefix(ctx, directoryCachePrefix)
}
