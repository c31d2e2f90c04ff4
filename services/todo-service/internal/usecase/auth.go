package usecase

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/model"
	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/payload"
	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/repository"
	"github.com/vasapolrittideah/task-wand-api/services/todo-service/internal/validation"
	"github.com/vasapolrittideah/task-wand-api/shared/auth"
	"github.com/vasapolrittideah/task-wand-api/shared/security"
)

// AuthUsecase defines the interface for signup and login.
type AuthUsecase interface {
	SignUp(ctx context.Context, req payload.SignupRequest) (*SignUpResult, error)
	LogIn(ctx context.Context, req payload.LoginRequest) (*payload.LoginResponse, error)
}

// SignUpResult is the created user together with its first access token.
type SignUpResult struct {
	User  *model.User
	Token string
}

// TokenIssuer issues access tokens.
type TokenIssuer interface {
	IssueToken(identity auth.Identity) (string, error)
}

// WelcomeMailer sends the welcome email after signup.
type WelcomeMailer interface {
	SendHTML(to []string, subject, htmlBody string) error
}

var (
	ErrEmailAlreadyTaken  = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type authUsecase struct {
	userRepo  repository.UserRepository
	tokens    TokenIssuer
	validator *validation.Validator
	mailer    WelcomeMailer
	logger    *zerolog.Logger
	dummyHash string
}

// NewAuthUsecase creates a new AuthUsecase. mailer may be nil, in which case no
// welcome email is sent.
func NewAuthUsecase(
	userRepo repository.UserRepository,
	tokens TokenIssuer,
	validator *validation.Validator,
	mailer WelcomeMailer,
	logger *zerolog.Logger,
) (AuthUsecase, error) {
	// Verified against when the email is unknown so both login failures cost the same.
	dummyHash, err := security.HashPassword("task-wand-dummy-password")
	if err != nil {
		return nil, err
	}

	return &authUsecase{
		userRepo:  userRepo,
		tokens:    tokens,
		validator: validator,
		mailer:    mailer,
		logger:    logger,
		dummyHash: dummyHash,
	}, nil
}

func (u *authUsecase) SignUp(ctx context.Context, req payload.SignupRequest) (*SignUpResult, error) {
	if err := u.validator.Validate(req); err != nil {
		return nil, err
	}

	_, err := u.userRepo.GetUserByEmail(ctx, req.Email)
	switch {
	case err == nil:
		return nil, ErrEmailAlreadyTaken
	case !errors.Is(err, mongo.ErrNoDocuments):
		return nil, err
	}

	passwordHash, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := u.userRepo.CreateUser(ctx, &model.User{
		Email:        req.Email,
		PasswordHash: passwordHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		MobileNumber: req.MobileNumber,
	})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailAlreadyTaken
		}

		return nil, err
	}

	token, err := u.tokens.IssueToken(auth.Identity{ID: user.ID.Hex(), Username: user.Email})
	if err != nil {
		return nil, err
	}

	u.sendWelcome(user)

	return &SignUpResult{User: user, Token: token}, nil
}

func (u *authUsecase) LogIn(ctx context.Context, req payload.LoginRequest) (*payload.LoginResponse, error) {
	if err := u.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := u.userRepo.GetUserByEmail(ctx, req.Username)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			_, _ = security.VerifyPassword(req.Password, u.dummyHash)
			return nil, ErrInvalidCredentials
		}

		return nil, err
	}

	if ok, err := security.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrInvalidCredentials
	}

	token, err := u.tokens.IssueToken(auth.Identity{ID: user.ID.Hex(), Username: req.Username})
	if err != nil {
		return nil, err
	}

	return &payload.LoginResponse{
		Token: token,
		User: payload.LoginUser{
			ID:       user.ID.Hex(),
			Username: user.Email,
		},
	}, nil
}

// sendWelcome is best effort: a mail failure is logged and never fails the signup.
func (u *authUsecase) sendWelcome(user *model.User) {
	if u.mailer == nil {
		return
	}

	htmlBody := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Your Task Wand account is ready. Log in with %s to start adding your todos.</p>
		<p>Thank you,</p>
		<p>Task Wand Team</p>
	`, html.EscapeString(user.FirstName), html.EscapeString(user.Email))

	if err := u.mailer.SendHTML([]string{user.Email}, "Welcome to Task Wand", htmlBody); err != nil {
		u.logger.Warn().Err(err).Str("user_id", user.ID.Hex()).Msg("failed to send welcome email")
	}
}
