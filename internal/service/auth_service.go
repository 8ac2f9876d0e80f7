package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/edutrack/edutrack-api/internal/dto"
	"github.com/edutrack/edutrack-api/internal/models"
	"github.com/edutrack/edutrack-api/internal/repository"
)

// ErrInvalidCredentials signals a failed login attempt.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrEmailTaken signals a registration against an existing email.
var ErrEmailTaken = errors.New("email already registered")

// ErrUserNotFound signals a lookup for a missing account.
var ErrUserNotFound = errors.New("user not found")

// ErrAccountDisabled signals a login against a deactivated account.
var ErrAccountDisabled = errors.New("account is disabled")

// ErrInvalidPreferences signals a preferences document that fails schema validation.
var ErrInvalidPreferences = errors.New("invalid preferences document")

// ErrAvatarNotImage signals an avatar upload that is not an image file.
var ErrAvatarNotImage = errors.New("avatar must be an image")

// ErrAvatarUploadsDisabled signals that no avatar storage backend is configured.
var ErrAvatarUploadsDisabled = errors.New("avatar uploads are not configured")

const tokenLifetime = 7 * 24 * time.Hour

// preferencesSchema bounds what the free-form preferences column may hold.
const preferencesSchema = `{
	"type": "object",
	"properties": {
		"theme": {"type": "string", "enum": ["light", "dark", "system"]},
		"email_notifications": {"type": "boolean"},
		"public_portfolio": {"type": "boolean"},
		"language": {"type": "string", "minLength": 2, "maxLength": 8}
	},
	"additionalProperties": false
}`

// AvatarUploader pushes avatar images to an external image store.
type AvatarUploader interface {
	UploadAvatar(ctx context.Context, userID uint, name string, reader io.Reader) (string, error)
}

// AuthService handles registration, login, and profile management.
type AuthService interface {
	Register(ctx context.Context, payload dto.RegisterRequest) (dto.AuthResponse, error)
	Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error)
	Profile(ctx context.Context, userID uint) (dto.UserResponse, error)
	UpdateProfile(ctx context.Context, userID uint, payload dto.UpdateProfileRequest) (dto.UserResponse, error)
	ChangePassword(ctx context.Context, userID uint, payload dto.ChangePasswordRequest) error
	UploadAvatar(ctx context.Context, userID uint, filename string, content []byte) (dto.UserResponse, error)
}

type authService struct {
	users     repository.UserRepository
	avatars   AvatarUploader
	validator *validator.Validate
	schema    *jsonschema.Schema
	logger    zerolog.Logger
	jwtSecret string
	now       func() time.Time
}

// NewAuthService constructs the auth service. The avatar uploader may be nil
// when no image store is configured.
func NewAuthService(
	users repository.UserRepository,
	avatars AvatarUploader,
	validator *validator.Validate,
	logger zerolog.Logger,
	jwtSecret string,
) AuthService {
	return &authService{
		users:     users,
		avatars:   avatars,
		validator: validator,
		schema:    jsonschema.MustCompileString("preferences.json", preferencesSchema),
		logger:    logger.With().Str("component", "auth_service").Logger(),
		jwtSecret: jwtSecret,
		now:       time.Now,
	}
}

func (s *authService) Register(ctx context.Context, payload dto.RegisterRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	role := payload.Role
	if role == "" {
		role = models.RoleStudent
	}

	if _, err := s.users.GetByEmail(ctx, payload.Email); err == nil {
		return dto.AuthResponse{}, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.AuthResponse{}, err
	}

	preferences, err := s.validatePreferences(payload.Preferences)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.AuthResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Name:         strings.TrimSpace(payload.Name),
		Email:        strings.ToLower(strings.TrimSpace(payload.Email)),
		PasswordHash: string(hash),
		Role:         role,
		Department:   strings.TrimSpace(payload.Department),
		Year:         payload.Year,
		GPA:          payload.GPA,
		IsActive:     true,
		Preferences:  preferences,
	}

	if role == models.RoleStudent {
		studentID := strings.TrimSpace(payload.StudentID)
		if studentID == "" {
			studentID, err = s.generateStudentID(ctx)
			if err != nil {
				return dto.AuthResponse{}, err
			}
		}
		user.StudentID = &studentID
	}

	if err := s.users.Create(ctx, &user); err != nil {
		s.logger.Error().Err(err).Msg("failed to create user")
		return dto.AuthResponse{}, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("user registered")

	return dto.AuthResponse{Token: token, User: dto.NewUserResponse(user)}, nil
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest) (dto.AuthResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	user, err := s.users.GetByEmailAndRole(ctx, payload.Email, payload.Role)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		return dto.AuthResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		return dto.AuthResponse{}, ErrInvalidCredentials
	}

	if !user.IsActive {
		return dto.AuthResponse{}, ErrAccountDisabled
	}

	loginAt := s.now().UTC()
	user, err = s.users.Update(ctx, user.ID, map[string]interface{}{"last_login": loginAt})
	if err != nil {
		return dto.AuthResponse{}, err
	}

	token, err := s.issueToken(user)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	return dto.AuthResponse{Token: token, User: dto.NewUserResponse(user)}, nil
}

func (s *authService) Profile(ctx context.Context, userID uint) (dto.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	return dto.NewUserResponse(user), nil
}

func (s *authService) UpdateProfile(ctx context.Context, userID uint, payload dto.UpdateProfileRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	updates := map[string]interface{}{}
	if payload.Name != nil {
		updates["name"] = strings.TrimSpace(*payload.Name)
	}
	if payload.Department != nil {
		updates["department"] = strings.TrimSpace(*payload.Department)
	}
	if payload.Year != nil {
		updates["year"] = *payload.Year
	}
	if payload.GPA != nil {
		updates["gpa"] = *payload.GPA
	}
	if len(payload.Preferences) > 0 {
		preferences, err := s.validatePreferences(payload.Preferences)
		if err != nil {
			return dto.UserResponse{}, err
		}
		updates["preferences"] = preferences
	}

	user, err := s.users.Update(ctx, userID, updates)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	return dto.NewUserResponse(user), nil
}

func (s *authService) ChangePassword(ctx context.Context, userID uint, payload dto.ChangePasswordRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if _, err := s.users.Update(ctx, userID, map[string]interface{}{"password_hash": string(hash)}); err != nil {
		return err
	}

	s.logger.Info().Uint("user_id", userID).Msg("password changed")

	return nil
}

func (s *authService) UploadAvatar(ctx context.Context, userID uint, filename string, content []byte) (dto.UserResponse, error) {
	if s.avatars == nil {
		return dto.UserResponse{}, ErrAvatarUploadsDisabled
	}

	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.UserResponse{}, ErrUserNotFound
		}
		return dto.UserResponse{}, err
	}

	detected := mimetype.Detect(content)
	if !strings.HasPrefix(detected.String(), "image/") {
		return dto.UserResponse{}, ErrAvatarNotImage
	}

	url, err := s.avatars.UploadAvatar(ctx, userID, filename, bytes.NewReader(content))
	if err != nil {
		s.logger.Error().Err(err).Uint("user_id", userID).Msg("avatar upload failed")
		return dto.UserResponse{}, err
	}

	user, err := s.users.Update(ctx, userID, map[string]interface{}{"avatar": url})
	if err != nil {
		return dto.UserResponse{}, err
	}

	return dto.NewUserResponse(user), nil
}

// validatePreferences checks the raw document against the preferences schema
// and returns it ready for the JSON column.
func (s *authService) validatePreferences(raw json.RawMessage) (datatypes.JSON, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var document interface{}
	if err := json.Unmarshal(raw, &document); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPreferences, err)
	}

	if err := s.schema.Validate(document); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPreferences, err)
	}

	return datatypes.JSON(raw), nil
}

// generateStudentID assigns identifiers of the form CS<year><4 digits>,
// retrying on the rare suffix collision.
func (s *authService) generateStudentID(ctx context.Context) (string, error) {
	year := s.now().Year()
	for attempt := 0; attempt < 10; attempt++ {
		candidate := fmt.Sprintf("CS%d%04d", year, rand.Intn(10000))
		_, err := s.users.GetByStudentID(ctx, candidate)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}

	return "", fmt.Errorf("failed to allocate a unique student id")
}

func (s *authService) issueToken(user models.User) (string, error) {
	issuedAt := s.now()
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": user.Role,
		"name": user.Name,
		"iat":  issuedAt.Unix(),
		"exp":  issuedAt.Add(tokenLifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}
