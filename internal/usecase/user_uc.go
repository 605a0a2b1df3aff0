package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"cairo-metro-ticketing/internal/domain"
	"cairo-metro-ticketing/internal/domain/model"
	"cairo-metro-ticketing/internal/domain/ports/adapter"
	"cairo-metro-ticketing/internal/domain/ports/repository"
	"cairo-metro-ticketing/internal/infra/logging"
	"cairo-metro-ticketing/internal/infra/metrics"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
)

// Compile-time check
var _ UserUseCase = (*userUC)(nil)

const (
	minPasswordLength = 8
	loginWindow       = time.Minute
)

// UserUseCase exposes registration, login and account administration.
type UserUseCase interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Get(ctx context.Context, id string) (*model.User, error)
	// EnsureAdmin creates an admin account unless the username exists.
	EnsureAdmin(ctx context.Context, in RegisterInput) (*model.User, bool, error)
	Count(ctx context.Context) (int, error)
	List(ctx context.Context, limit, offset int) ([]*model.User, error)
	// Promote grants admin rights; promoting an admin again is a no-op.
	Promote(ctx context.Context, actor Actor, id string) (*model.User, error)
}

type RegisterInput struct {
	Username  string
	FirstName string
	LastName  string
	Phone     string
	Email     string
	Password  string
}

type LoginResult struct {
	User      *model.User
	Token     string
	ExpiresAt time.Time
}

type userUC struct {
	users      repository.UserRepository
	tm         repository.TransactionManager
	hasher     adapter.PasswordHasher
	tokens     adapter.TokenManager
	limiter    adapter.RateLimiter
	loginLimit int
	log        *zerolog.Logger
}

func NewUserUseCase(users repository.UserRepository, tm repository.TransactionManager, hasher adapter.PasswordHasher, tokens adapter.TokenManager, limiter adapter.RateLimiter, loginLimit int, logger *zerolog.Logger) *userUC {
	l := logger.With().Str("component", "UserUC").Logger()
	if loginLimit <= 0 {
		loginLimit = 10
	}
	return &userUC{
		users:      users,
		tm:         tm,
		hasher:     hasher,
		tokens:     tokens,
		limiter:    limiter,
		loginLimit: loginLimit,
		log:        &l,
	}
}

func (u *userUC) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	defer logging.TraceDuration(u.log, "UserUC.Register")()
	return u.create(ctx, in, false)
}

func (u *userUC) create(ctx context.Context, in RegisterInput, admin bool) (*model.User, error) {
	if len(in.Password) < minPasswordLength {
		return nil, domain.ErrInvalidArgument
	}
	hash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	user, err := model.NewUser("", in.Username, in.FirstName, in.LastName, in.Phone, strings.TrimSpace(in.Email), hash)
	if err != nil {
		return nil, err
	}
	user.IsAdmin = admin
	if err := u.users.Save(ctx, repository.NoTX, user); err != nil {
		return nil, err
	}
	u.log.Info().Str("user_id", user.ID).Bool("admin", admin).Msg("user registered")
	return user, nil
}

func (u *userUC) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	defer logging.TraceDuration(u.log, "UserUC.Login")()
	username = strings.TrimSpace(username)

	ok, err := u.limiter.Allow(ctx, "login:"+strings.ToLower(username), u.loginLimit, loginWindow)
	if err != nil {
		// Redis being down must not lock everybody out.
		u.log.Error().Err(err).Msg("login rate limiter unavailable")
	} else if !ok {
		metrics.IncLoginAttempt("rate_limited")
		return nil, domain.ErrRateLimited
	}

	var (
		user     *model.User
		loginErr error
	)
	// Failed-attempt bookkeeping commits even when the login is refused.
	err = u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		usr, err := u.users.FindByUsername(ctx, tx, username)
		if errors.Is(err, domain.ErrNotFound) {
			loginErr = domain.ErrInvalidCredentials
			return nil
		}
		if err != nil {
			return err
		}
		if usr.IsLocked {
			loginErr = domain.ErrAccountLocked
			return nil
		}
		if !usr.IsActive {
			loginErr = domain.ErrInvalidCredentials
			return nil
		}
		if err := u.hasher.Compare(usr.PasswordHash, password); err != nil {
			usr.RecordFailedLogin()
			loginErr = domain.ErrInvalidCredentials
			if usr.IsLocked {
				loginErr = domain.ErrAccountLocked
			}
			return u.users.Save(ctx, tx, usr)
		}
		usr.RecordLogin(time.Now())
		user = usr
		return u.users.Save(ctx, tx, usr)
	})
	if err != nil {
		return nil, err
	}
	if loginErr != nil {
		result := "invalid"
		if errors.Is(loginErr, domain.ErrAccountLocked) {
			result = "locked"
		}
		metrics.IncLoginAttempt(result)
		u.log.Info().Str("username", logging.Redact(username, false)).Str("result", result).Msg("login refused")
		return nil, loginErr
	}

	token, exp, err := u.tokens.Issue(adapter.Claims{UserID: user.ID, IsAdmin: user.IsAdmin})
	if err != nil {
		return nil, err
	}
	metrics.IncLoginAttempt("ok")
	return &LoginResult{User: user, Token: token, ExpiresAt: exp}, nil
}

func (u *userUC) Get(ctx context.Context, id string) (*model.User, error) {
	return u.users.FindByID(ctx, repository.NoTX, id)
}

func (u *userUC) EnsureAdmin(ctx context.Context, in RegisterInput) (*model.User, bool, error) {
	existing, err := u.users.FindByUsername(ctx, repository.NoTX, in.Username)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, err
	}
	user, err := u.create(ctx, in, true)
	if err != nil {
		return nil, false, err
	}
	return user, true, nil
}

func (u *userUC) Count(ctx context.Context) (int, error) {
	return u.users.CountUsers(ctx, repository.NoTX)
}

func (u *userUC) List(ctx context.Context, limit, offset int) ([]*model.User, error) {
	return u.users.List(ctx, repository.NoTX, limit, offset)
}

func (u *userUC) Promote(ctx context.Context, actor Actor, id string) (*model.User, error) {
	if !actor.IsAdmin {
		return nil, domain.ErrForbidden
	}
	var (
		user     *model.User
		promoted bool
	)
	err := u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		usr, err := u.users.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		user = usr
		if usr.IsAdmin {
			return nil
		}
		usr.IsAdmin = true
		promoted = true
		return u.users.Save(ctx, tx, usr)
	})
	if err != nil {
		return nil, err
	}
	if promoted {
		logging.With(ctx, u.log).Info().Str("user_id", id).Str("by", actor.UserID).Msg("user promoted to admin")
	}
	return user, nil
}
