package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	model "github.com/consentlens/backend/models"
	"gorm.io/gorm"
)

// ErrProfileNotFound is returned when a profile id does not exist.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileService manages the user-profile record set kept alongside the
// external auth provider's users.
type ProfileService struct {
	db *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{db: db}
}

// CreateProfile inserts a new profile row.
func (s *ProfileService) CreateProfile(profile *model.UserProfile) error {
	if profile.Email == "" {
		return fmt.Errorf("email is required")
	}
	profile.CreatedAt = time.Now()
	profile.UpdatedAt = time.Now()
	if err := s.db.Create(profile).Error; err != nil {
		log.Printf("ERROR saving user profile: %v", err)
		return fmt.Errorf("failed to save profile: %w", err)
	}
	log.Printf("Profile created for %s", profile.Email)
	return nil
}

// GetProfile fetches one profile by id.
func (s *ProfileService) GetProfile(id string) (*model.UserProfile, error) {
	var profile model.UserProfile
	if err := s.db.First(&profile, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to fetch profile: %w", err)
	}
	return &profile, nil
}

// DeleteProfile removes a profile row. Deleting the auth-provider user is the
// external collaborator's job; only the app-level row is owned here.
func (s *ProfileService) DeleteProfile(id string) error {
	result := s.db.Delete(&model.UserProfile{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete profile: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProfileNotFound
	}
	log.Printf("Profile %s deleted", id)
	return nil
}
