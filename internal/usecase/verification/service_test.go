package verification

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"testing/iotest"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/nutrisearch/internal/domain"
	domverify "github.com/kailas-cloud/nutrisearch/internal/domain/verification"
)

// --- Mocks ---

type memRepo struct {
	mu       sync.Mutex
	hashes   map[string]string
	attempts map[string]int64
	saveErr  error
}

func newMemRepo() *memRepo {
	return &memRepo{hashes: map[string]string{}, attempts: map[string]int64{}}
}

func (m *memRepo) Save(_ context.Context, id, codeHash string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.hashes[id] = codeHash
	return nil
}

func (m *memRepo) CodeHash(_ context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.hashes[id]
	if !ok {
		return "", domain.ErrCodeExpired
	}
	return h, nil
}

func (m *memRepo) IncrAttempts(_ context.Context, id string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[id]++
	return m.attempts[id], nil
}

func (m *memRepo) Consume(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.hashes[id]; !ok {
		return domain.ErrCodeExpired
	}
	delete(m.hashes, id)
	delete(m.attempts, id)
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.hashes, id)
	delete(m.attempts, id)
	return nil
}

type mockMailer struct {
	sent []domverify.Message
	err  error
}

func (m *mockMailer) Send(_ context.Context, msg domverify.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

func sentCode(t *testing.T, m *mockMailer) string {
	t.Helper()
	if len(m.sent) == 0 {
		t.Fatal("no email sent")
	}
	code := codePattern.FindString(m.sent[len(m.sent)-1].Body)
	if code == "" {
		t.Fatalf("no code in body %q", m.sent[len(m.sent)-1].Body)
	}
	return code
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newService(repo Repository, mailer *mockMailer) *Service {
	return New(repo, mailer, Config{Now: func() time.Time { return fixedNow }}, nil)
}

func wrongCode(code string) string {
	if code == "000000" {
		return "000001"
	}
	return "000000"
}

// --- Issue ---

func TestIssue(t *testing.T) {
	repo, mailer := newMemRepo(), &mockMailer{}
	svc := newService(repo, mailer)

	ch, err := svc.Issue(context.Background(), "Alice@Example.com", "password_reset")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := uuid.Parse(ch.ID()); err != nil {
		t.Errorf("challenge ID is not a uuid: %q", ch.ID())
	}
	if !ch.ExpiresAt().Equal(fixedNow.Add(DefaultTTL)) {
		t.Errorf("ExpiresAt = %s", ch.ExpiresAt())
	}

	msg := mailer.sent[0]
	if msg.To != "alice@example.com" || msg.Subject != "Password Reset Code" {
		t.Errorf("unexpected message %+v", msg)
	}

	code := sentCode(t, mailer)
	if repo.hashes[ch.ID()] != hashCode(code) {
		t.Error("stored value must be the code hash")
	}
	if repo.hashes[ch.ID()] == code {
		t.Error("plain code must not be stored")
	}
}

func TestIssue_Validation(t *testing.T) {
	tests := []struct {
		name, email, purpose string
	}{
		{"bad email", "not-an-email", "mfa"},
		{"bad purpose", "a@b.co", "unlock"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mailer := newMemRepo(), &mockMailer{}
			_, err := newService(repo, mailer).Issue(context.Background(), tt.email, tt.purpose)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if len(repo.hashes) != 0 || len(mailer.sent) != 0 {
				t.Error("nothing should be stored or sent")
			}
		})
	}
}

func TestIssue_MailFailureDiscardsChallenge(t *testing.T) {
	repo, mailer := newMemRepo(), &mockMailer{err: errors.New("ses throttled")}

	_, err := newService(repo, mailer).Issue(context.Background(), "a@b.co", "mfa")
	if !errors.Is(err, domain.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if len(repo.hashes) != 0 {
		t.Error("unsent challenge should be deleted")
	}
}

func TestIssue_RandomFailure(t *testing.T) {
	repo, mailer := newMemRepo(), &mockMailer{}
	svc := New(repo, mailer, Config{Random: iotest.ErrReader(errors.New("no entropy"))}, nil)

	if _, err := svc.Issue(context.Background(), "a@b.co", "mfa"); err == nil {
		t.Fatal("expected error")
	}
	if len(repo.hashes) != 0 {
		t.Error("nothing should be stored")
	}
}

func TestGenerateCode_Format(t *testing.T) {
	svc := newService(newMemRepo(), &mockMailer{})
	for range 200 {
		code, err := svc.generateCode()
		if err != nil {
			t.Fatal(err)
		}
		if err := domverify.ValidateCode(code); err != nil {
			t.Fatalf("generated code %q is malformed: %v", code, err)
		}
	}
}

// --- Verify ---

func issue(t *testing.T, svc *Service, mailer *mockMailer) (string, string) {
	t.Helper()
	ch, err := svc.Issue(context.Background(), "a@b.co", "email_verification")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return ch.ID(), sentCode(t, mailer)
}

func TestVerify_Success(t *testing.T) {
	repo, mailer := newMemRepo(), &mockMailer{}
	svc := newService(repo, mailer)
	id, code := issue(t, svc, mailer)

	if err := svc.Verify(context.Background(), id, code); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if _, ok := repo.hashes[id]; ok {
		t.Error("challenge should be deleted after success")
	}

	// A consumed challenge behaves as expired.
	if err := svc.Verify(context.Background(), id, code); !errors.Is(err, domain.ErrCodeExpired) {
		t.Errorf("expected ErrCodeExpired on reuse, got %v", err)
	}
}

func TestVerify_ConcurrentCorrectCodeSucceedsOnce(t *testing.T) {
	repo, mailer := newMemRepo(), &mockMailer{}
	svc := newService(repo, mailer)
	id, code := issue(t, svc, mailer)

	const callers = 4
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		expired int
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := svc.Verify(context.Background(), id, code)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrCodeExpired):
				expired++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || expired != callers-1 {
		t.Errorf("ok=%d expired=%d, want 1 and %d", ok, expired, callers-1)
	}
}

// consumedRepo simulates another request consuming the challenge between the
// hash read and the consume.
type consumedRepo struct{ *memRepo }

func (r consumedRepo) Consume(_ context.Context, _ string) error { return domain.ErrCodeExpired }

func TestVerify_LostConsumeRaceIsExpired(t *testing.T) {
	repo, mailer := newMemRepo(), &mockMailer{}
	id, code := issue(t, newService(repo, mailer), mailer)

	svc := newService(consumedRepo{repo}, mailer)
	if err := svc.Verify(context.Background(), id, code); !errors.Is(err, domain.ErrCodeExpired) {
		t.Fatalf("expected ErrCodeExpired, got %v", err)
	}
}

func TestVerify_WrongCode(t *testing.T) {
	repo, mailer := newMemRepo(), &mockMailer{}
	svc := newService(repo, mailer)
	id, code := issue(t, svc, mailer)

	if err := svc.Verify(context.Background(), id, wrongCode(code)); !errors.Is(err, domain.ErrCodeInvalid) {
		t.Fatalf("expected ErrCodeInvalid, got %v", err)
	}
	if _, ok := repo.hashes[id]; !ok {
		t.Error("challenge should survive a wrong guess")
	}
}

func TestVerify_UnknownOrExpired(t *testing.T) {
	svc := newService(newMemRepo(), &mockMailer{})

	for _, id := range []string{uuid.NewString(), "not-a-uuid", ""} {
		if err := svc.Verify(context.Background(), id, "123456"); !errors.Is(err, domain.ErrCodeExpired) {
			t.Errorf("id %q: expected ErrCodeExpired, got %v", id, err)
		}
	}
}

func TestVerify_MalformedCode(t *testing.T) {
	repo, mailer := newMemRepo(), &mockMailer{}
	svc := newService(repo, mailer)
	id, _ := issue(t, svc, mailer)

	if err := svc.Verify(context.Background(), id, "12ab"); !errors.Is(err, domain.ErrCodeInvalid) {
		t.Fatalf("expected ErrCodeInvalid, got %v", err)
	}
	if repo.attempts[id] != 0 {
		t.Error("malformed codes should be rejected before counting")
	}
}

func TestVerify_TooManyAttempts(t *testing.T) {
	repo, mailer := newMemRepo(), &mockMailer{}
	svc := newService(repo, mailer)
	id, code := issue(t, svc, mailer)

	for i := 1; i <= DefaultMaxAttempts; i++ {
		if err := svc.Verify(context.Background(), id, wrongCode(code)); !errors.Is(err, domain.ErrCodeInvalid) {
			t.Fatalf("attempt %d: expected ErrCodeInvalid, got %v", i, err)
		}
	}

	// The sixth attempt is refused even with the right code.
	if err := svc.Verify(context.Background(), id, code); !errors.Is(err, domain.ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
}

func TestVerify_CustomAttemptLimit(t *testing.T) {
	repo, mailer := newMemRepo(), &mockMailer{}
	svc := New(repo, mailer, Config{MaxAttempts: 1}, nil)
	id, code := issue(t, svc, mailer)

	_ = svc.Verify(context.Background(), id, wrongCode(code))
	if err := svc.Verify(context.Background(), id, code); !errors.Is(err, domain.ErrTooManyAttempts) {
		t.Fatalf("expected ErrTooManyAttempts, got %v", err)
	}
}
