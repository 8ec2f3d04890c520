package service

import (
	"context"
	"strings"

	"unajuda/internal/models"
	"unajuda/internal/repository"
	"unajuda/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// UserService handles accounts and profiles.
type UserService struct {
	userRepo   repository.UserRepository
	bcryptCost int
}

// SignupInput is the registration payload.
type SignupInput struct {
	Email    string
	Password string
	Username string
	FullName string
}

// UpdateProfileInput carries the editable profile fields. Nil fields are left unchanged.
type UpdateProfileInput struct {
	UserID     uint
	FullName   *string
	Headline   *string
	Bio        *string
	University *string
	Course     *string
	AvatarURL  *string
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo, bcryptCost: bcrypt.DefaultCost}
}

// WithBcryptCost overrides the hashing cost; tests use bcrypt.MinCost.
func (s *UserService) WithBcryptCost(cost int) *UserService {
	s.bcryptCost = cost
	return s
}

// Signup validates input, hashes the password and creates the profile.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	in.Email = strings.ToLower(models.SanitizeInput(in.Email))
	in.Username = models.SanitizeInput(in.Username)
	in.FullName = models.SanitizeInput(in.FullName)

	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, err
	}
	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, err
	}
	if err := validation.ValidateFullName(in.FullName); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByEmail(ctx, in.Email); err == nil {
		return nil, models.NewFieldValidationError("email", models.SanitizeAuthMessage("User already registered"))
	} else if !repository.IsNotFound(err) {
		return nil, err
	}
	if _, err := s.userRepo.GetByUsername(ctx, in.Username); err == nil {
		return nil, models.NewFieldValidationError("username", "Este nome de usuário já está em uso")
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, models.NewStoreError(err)
	}

	user := &models.User{
		Email:    in.Email,
		Password: string(hash),
		Username: in.Username,
		FullName: in.FullName,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks credentials. Unknown email and wrong password are indistinguishable.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	invalid := models.NewAuthRequiredError(models.SanitizeAuthMessage("Invalid login credentials"))

	email = strings.ToLower(models.SanitizeInput(email))
	if email == "" || password == "" {
		return nil, invalid
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, invalid
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, invalid
	}
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// UpdateProfile applies the provided fields after validating each one.
func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	if in.UserID == 0 {
		return nil, models.NewAuthRequiredError("Faça login para editar o perfil")
	}
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.FullName != nil {
		name := models.SanitizeInput(*in.FullName)
		if err := validation.ValidateFullName(name); err != nil {
			return nil, err
		}
		user.FullName = name
	}

	optional := []struct {
		value *string
		dest  *string
		field string
		label string
		max   int
	}{
		{in.Headline, &user.Headline, "headline", "Descrição", validation.MaxHeadline},
		{in.Bio, &user.Bio, "bio", "Bio", validation.MaxBio},
		{in.University, &user.University, "university", "Nome da universidade", validation.MaxUniversity},
		{in.Course, &user.Course, "course", "Nome do curso", validation.MaxCourse},
	}
	for _, f := range optional {
		if f.value == nil {
			continue
		}
		v := models.SanitizeInput(*f.value)
		if err := validation.ValidateOptionalMax(f.field, f.label, v, f.max); err != nil {
			return nil, err
		}
		*f.dest = v
	}

	if in.AvatarURL != nil {
		avatar := models.SanitizeInput(*in.AvatarURL)
		if err := validation.ValidateAvatarURL(avatar); err != nil {
			return nil, err
		}
		user.AvatarURL = avatar
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
