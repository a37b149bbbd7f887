// Package account registers guests and hosts and logs them in.
package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type TokenIssuer interface {
	IssueUser(u *domain.User) (string, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

var Genders = map[string]bool{
	"masculino":            true,
	"feminino":             true,
	"outro":                true,
	"prefiro_nao_informar": true,
}

type Service struct {
	users     core.UserStore
	tokens    TokenIssuer
	passwords PasswordHasher
	now       func() time.Time
}

func NewService(users core.UserStore, tokens TokenIssuer, passwords PasswordHasher) *Service {
	return &Service{users: users, tokens: tokens, passwords: passwords, now: time.Now}
}

// Session is a freshly issued token and the account it belongs to.
type Session struct {
	Token string
	User  *domain.User
}

type GuestInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type ProfileInput struct {
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	City      string `json:"city"`
	BirthDate string `json:"birthDate"`
	Gender    string `json:"gender"`
}

type HostInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	ProfileInput
}

func invalid(msg string) error { return domain.WithMessage(domain.ErrValidation, msg) }

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func parseBirthDate(raw string) (time.Time, error) {
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
			return t, nil
		}
	}
	return time.Time{}, invalid("Data inválida")
}

func (p ProfileInput) validate() (time.Time, error) {
	if len(p.Phone) < 10 {
		return time.Time{}, invalid("Telefone deve ter pelo menos 10 dígitos")
	}
	if len(p.Password) < 6 {
		return time.Time{}, invalid("Senha deve ter pelo menos 6 caracteres")
	}
	if utf8.RuneCountInString(p.City) < 2 {
		return time.Time{}, invalid("Cidade inválida")
	}
	if p.BirthDate == "" {
		return time.Time{}, invalid("Data de nascimento é obrigatória")
	}
	birth, err := parseBirthDate(p.BirthDate)
	if err != nil {
		return time.Time{}, err
	}
	if !Genders[p.Gender] {
		return time.Time{}, invalid("Gênero é obrigatório")
	}
	return birth, nil
}

func (s *Service) findByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return u, nil
}

func (s *Service) session(u *domain.User) (*Session, error) {
	token, err := s.tokens.IssueUser(u)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, User: u}, nil
}

// RegisterGuest creates a passwordless account or refreshes an existing guest.
func (s *Service) RegisterGuest(ctx context.Context, in GuestInput) (*Session, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if utf8.RuneCountInString(name) < 2 {
		return nil, invalid("Nome deve ter pelo menos 2 caracteres")
	}
	if !validEmail(email) {
		return nil, invalid("Email inválido")
	}
	if len(in.Phone) < 10 {
		return nil, invalid("Telefone deve ter pelo menos 10 dígitos")
	}

	u, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	switch {
	case u == nil:
		u = &domain.User{ID: uuid.NewString(), Name: name, Email: email, Phone: in.Phone, CreatedAt: s.now()}
		if err := s.users.CreateUser(ctx, u); err != nil {
			return nil, err
		}
		log.Info().Str("module", "account").Str("user", u.ID).Msg("guest registered")
	case u.IsComplete():
		return nil, domain.WithMessage(domain.ErrEmailRegistered, "Este email já está cadastrado. Faça login com sua senha.")
	case u.Name != name || u.Phone != in.Phone:
		u.Name, u.Phone = name, in.Phone
		if err := s.users.UpdateUser(ctx, u); err != nil {
			return nil, err
		}
	}
	return s.session(u)
}

// RegisterHost creates a host account in one step or upgrades a guest.
func (s *Service) RegisterHost(ctx context.Context, in HostInput) (*Session, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if utf8.RuneCountInString(name) < 2 {
		return nil, invalid("Nome deve ter pelo menos 2 caracteres")
	}
	if !strings.Contains(email, "@") {
		return nil, invalid("Email inválido")
	}
	birth, err := in.ProfileInput.validate()
	if err != nil {
		return nil, err
	}

	u, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u != nil && u.CanHost {
		return nil, domain.WithMessage(domain.ErrAlreadyHost, "Este email já está cadastrado como Host. Faça login.")
	}
	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	save := s.users.UpdateUser
	if u == nil {
		u = &domain.User{ID: uuid.NewString(), Email: email, CreatedAt: s.now()}
		save = s.users.CreateUser
	}
	u.Name = name
	applyProfile(u, in.ProfileInput, hash, birth)
	if err := save(ctx, u); err != nil {
		return nil, err
	}
	log.Info().Str("module", "account").Str("user", u.ID).Msg("host registered")
	return s.session(u)
}

// CompleteRegistration upgrades the caller's guest account to host.
func (s *Service) CompleteRegistration(ctx context.Context, p *core.Principal, in ProfileInput) (*Session, error) {
	if p == nil || p.Kind != core.PrincipalUser {
		return nil, domain.ErrUnauthorized
	}
	birth, err := in.validate()
	if err != nil {
		return nil, err
	}
	u, err := s.byID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if u.CanHost {
		return nil, domain.WithMessage(domain.ErrAlreadyComplete, "Cadastro já está completo")
	}
	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	applyProfile(u, in, hash, birth)
	if err := s.users.UpdateUser(ctx, u); err != nil {
		return nil, err
	}
	log.Info().Str("module", "account").Str("user", u.ID).Msg("registration completed")
	return s.session(u)
}

func applyProfile(u *domain.User, in ProfileInput, hash string, birth time.Time) {
	u.Phone = in.Phone
	u.PasswordHash = hash
	u.City = in.City
	u.BirthDate = &birth
	u.Gender = in.Gender
	u.CanHost = true
}

func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if !validEmail(email) {
		return nil, invalid("Email inválido")
	}
	if password == "" {
		return nil, invalid("Senha é obrigatória")
	}
	u, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, domain.WithMessage(domain.ErrInvalidCredentials, "Email ou senha inválidos")
	}
	if !u.IsComplete() {
		return nil, domain.WithMessage(domain.ErrNoPassword, "Esta conta não possui senha. Complete o cadastro primeiro.")
	}
	if !s.passwords.Compare(u.PasswordHash, password) {
		return nil, domain.WithMessage(domain.ErrInvalidCredentials, "Email ou senha inválidos")
	}
	return s.session(u)
}

func (s *Service) Me(ctx context.Context, p *core.Principal) (*domain.User, error) {
	if p == nil || p.Kind != core.PrincipalUser {
		return nil, domain.ErrUnauthorized
	}
	return s.byID(ctx, p.UserID)
}

func (s *Service) byID(ctx context.Context, id string) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return u, nil
}
