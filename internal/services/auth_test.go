package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gatherly/internal/domain"
)

type memUserRepo struct {
	byEmail map[string]*domain.User
	created *domain.User
}

func (r *memUserRepo) Create(ctx context.Context, user *domain.User) error {
	if _, ok := r.byEmail[user.Email]; ok {
		return domain.ErrDuplicateEmail
	}
	r.created = user
	if r.byEmail == nil {
		r.byEmail = map[string]*domain.User{}
	}
	r.byEmail[user.Email] = user
	return nil
}

func (r *memUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	for _, user := range r.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, domain.ErrNotFound
}

// plainHasher stores passwords reversibly so tests can assert without bcrypt.
type plainHasher struct{}

func (plainHasher) GenerateSalt() (string, error) { return "salt", nil }

func (plainHasher) Hash(salt, password string) (string, error) {
	return salt + ":" + password, nil
}

func (plainHasher) Compare(hash, salt, password string) error {
	if hash != salt+":"+password {
		return errors.New("mismatch")
	}
	return nil
}

type stubTokenIssuer struct {
	token string
	err   error

	gotUserID string
	gotExpiry time.Duration
}

func (i *stubTokenIssuer) Issue(userID, email string, expiry time.Duration) (string, error) {
	i.gotUserID = userID
	i.gotExpiry = expiry
	return i.token, i.err
}

func newAuthFixture(repo *memUserRepo, issuer *stubTokenIssuer) domain.AuthService {
	if issuer == nil {
		issuer = &stubTokenIssuer{token: "tok"}
	}
	return NewAuthService(repo, plainHasher{}, issuer, 72*time.Hour)
}

func TestSignUp(t *testing.T) {
	repo := &memUserRepo{}
	svc := newAuthFixture(repo, nil)

	user, err := svc.SignUp(context.Background(), "  Ada  ", "Ada@Example.COM", "correct horse")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Errorf("email = %q, want lowercased", user.Email)
	}
	if user.Name != "Ada" {
		t.Errorf("name = %q, want trimmed", user.Name)
	}
	if user.PasswordHash == "" || strings.Contains(user.PasswordHash, "correct horse") == false {
		t.Errorf("password hash not derived from password: %q", user.PasswordHash)
	}
	if repo.created == nil {
		t.Fatal("expected user to be persisted")
	}
}

func TestSignUpValidation(t *testing.T) {
	svc := newAuthFixture(&memUserRepo{}, nil)
	ctx := context.Background()

	cases := []struct {
		name              string
		usr, email, pwd   string
	}{
		{"bad email", "Ada", "not-an-email", "longenough"},
		{"short password", "Ada", "ada@example.com", "short"},
		{"blank name", "   ", "ada@example.com", "longenough"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.SignUp(ctx, tc.usr, tc.email, tc.pwd); !errors.Is(err, domain.ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	repo := &memUserRepo{byEmail: map[string]*domain.User{
		"ada@example.com": {ID: "u1", Email: "ada@example.com"},
	}}
	svc := newAuthFixture(repo, nil)

	_, err := svc.SignUp(context.Background(), "Ada", "ada@example.com", "longenough")
	if !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("err = %v, want ErrDuplicateEmail", err)
	}
}

func TestLogin(t *testing.T) {
	repo := &memUserRepo{byEmail: map[string]*domain.User{
		"ada@example.com": {
			ID:           "u1",
			Email:        "ada@example.com",
			PasswordHash: "salt:correct horse",
			Salt:         "salt",
		},
	}}
	issuer := &stubTokenIssuer{token: "signed-token"}
	svc := newAuthFixture(repo, issuer)

	token, user, err := svc.Login(context.Background(), "ADA@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token != "signed-token" {
		t.Errorf("token = %q", token)
	}
	if user.ID != "u1" {
		t.Errorf("user ID = %q", user.ID)
	}
	if issuer.gotUserID != "u1" {
		t.Errorf("issuer user ID = %q", issuer.gotUserID)
	}
	if issuer.gotExpiry != 72*time.Hour {
		t.Errorf("issuer expiry = %v", issuer.gotExpiry)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	repo := &memUserRepo{byEmail: map[string]*domain.User{
		"ada@example.com": {
			ID:           "u1",
			Email:        "ada@example.com",
			PasswordHash: "salt:correct horse",
			Salt:         "salt",
		},
	}}
	svc := newAuthFixture(repo, nil)
	ctx := context.Background()

	if _, _, err := svc.Login(ctx, "ada@example.com", "wrong"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
	// Unknown email fails the same way to avoid account probing.
	if _, _, err := svc.Login(ctx, "nobody@example.com", "whatever"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("unknown email err = %v, want ErrInvalidCredentials", err)
	}
}

func TestAuthGetByID(t *testing.T) {
	repo := &memUserRepo{byEmail: map[string]*domain.User{
		"ada@example.com": {ID: "u1", Email: "ada@example.com"},
	}}
	svc := newAuthFixture(repo, nil)

	user, err := svc.GetByID(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Errorf("email = %q", user.Email)
	}
	if _, err := svc.GetByID(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
