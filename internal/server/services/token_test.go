package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/tokenvault/internal/common"
	"github.com/dmitrijs2005/tokenvault/internal/cryptox"
	"github.com/dmitrijs2005/tokenvault/internal/server/models"
)

func newTokenService(t *testing.T, rm *fakeRepoManager, rec *fakeRecorder) (*TokenService, *cryptox.Envelope) {
	t.Helper()
	env, err := cryptox.NewEnvelope(cryptox.GenerateKey())
	if err != nil {
		t.Fatalf("NewEnvelope error: %v", err)
	}
	return NewTokenService(nil, rm, env, rec, testConfig()), env
}

func TestSave_AutoGenerate(t *testing.T) {
	repo := newFakeTokensRepo()
	s, env := newTokenService(t, &fakeRepoManager{t: repo}, &fakeRecorder{})

	res, err := s.Save(context.Background(), "alice", "")
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if !res.Created {
		t.Fatal("first save must report creation")
	}
	if res.Record.Method != models.MethodAuto {
		t.Fatalf("expected AUTO, got %s", res.Record.Method)
	}
	if len(res.Token) != GeneratedTokenLength {
		t.Fatalf("expected %d-char token, got %d", GeneratedTokenLength, len(res.Token))
	}
	for _, r := range res.Token {
		if !strings.ContainsRune(common.TokenAlphabet, r) {
			t.Fatalf("generated token contains %q outside the alphabet", r)
		}
	}

	stored := repo.records["alice"]
	if strings.Contains(string(stored.Ciphertext), res.Token) {
		t.Fatal("stored ciphertext contains the plaintext")
	}
	plaintext, err := env.Decrypt(stored.Ciphertext)
	if err != nil {
		t.Fatalf("Decrypt error: %v", err)
	}
	if string(plaintext) != res.Token {
		t.Fatal("stored ciphertext does not decrypt to the returned token")
	}
}

func TestSave_ManualRoundTrip(t *testing.T) {
	repo := newFakeTokensRepo()
	rec := &fakeRecorder{}
	s, _ := newTokenService(t, &fakeRepoManager{t: repo}, rec)

	res, err := s.Save(context.Background(), "alice", "ghp_suppliedByCaller123")
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if res.Record.Method != models.MethodManual {
		t.Fatalf("expected MANUAL, got %s", res.Record.Method)
	}

	access, err := s.Access(context.Background(), "alice", "alice", "ci", "deploy")
	if err != nil {
		t.Fatalf("Access error: %v", err)
	}
	if access.Token != "ghp_suppliedByCaller123" {
		t.Fatalf("round trip mismatch: %q", access.Token)
	}
}

func TestSave_RotationKeepsOneRecord(t *testing.T) {
	repo := newFakeTokensRepo()
	s, _ := newTokenService(t, &fakeRepoManager{t: repo}, &fakeRecorder{})

	first, err := s.Save(context.Background(), "alice", "token-one-first!")
	if err != nil {
		t.Fatalf("first Save error: %v", err)
	}
	second, err := s.Save(context.Background(), "alice", "token-two-second")
	if err != nil {
		t.Fatalf("second Save error: %v", err)
	}

	if second.Created {
		t.Fatal("rotation must not report creation")
	}
	if len(repo.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(repo.records))
	}
	if !second.Record.CreatedAt.Equal(first.Record.CreatedAt) {
		t.Fatal("rotation must preserve created_at")
	}
	if second.Record.UpdatedAt.Before(second.Record.CreatedAt) {
		t.Fatal("updated_at must not precede created_at")
	}
}

func TestSave_EmptyUserID(t *testing.T) {
	s, _ := newTokenService(t, &fakeRepoManager{t: newFakeTokensRepo()}, &fakeRecorder{})

	if _, err := s.Save(context.Background(), "", "tok"); !errors.Is(err, common.ErrorValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAccess_EmitsAuditRecord(t *testing.T) {
	repo := newFakeTokensRepo()
	rec := &fakeRecorder{}
	s, _ := newTokenService(t, &fakeRepoManager{t: repo}, rec)

	if _, err := s.Save(context.Background(), "alice", "secret-token-abc"); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	res, err := s.Access(context.Background(), "alice", "alice", "report-generator", "monthly export")
	if err != nil {
		t.Fatalf("Access error: %v", err)
	}
	if res.AccessedAt.IsZero() {
		t.Fatal("AccessedAt not set")
	}

	if len(rec.records) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(rec.records))
	}
	got := rec.records[0]
	if got.Subject != "alice" || got.UserID != "alice" ||
		got.Application != "report-generator" || got.Purpose != "monthly export" {
		t.Fatalf("unexpected audit record: %+v", got)
	}
}

func TestAccess_AuditWriteIsTimeBounded(t *testing.T) {
	repo := newFakeTokensRepo()
	rec := &fakeRecorder{}
	s, _ := newTokenService(t, &fakeRepoManager{t: repo}, rec)

	if _, err := s.Save(context.Background(), "alice", "secret-token-abc"); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if _, err := s.Access(context.Background(), "alice", "alice", "ci", "deploy"); err != nil {
		t.Fatalf("Access error: %v", err)
	}
	if !rec.ctxHadDeadline {
		t.Fatal("audit write ran without a deadline")
	}
}

func TestAccess_NotFound(t *testing.T) {
	s, _ := newTokenService(t, &fakeRepoManager{t: newFakeTokensRepo()}, &fakeRecorder{})

	_, err := s.Access(context.Background(), "ghost", "ghost", "app", "p")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestAccess_CorruptedCiphertext(t *testing.T) {
	repo := newFakeTokensRepo()
	rec := &fakeRecorder{}
	s, _ := newTokenService(t, &fakeRepoManager{t: repo}, rec)

	if _, err := s.Save(context.Background(), "alice", "secret-token-abc"); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	repo.records["alice"].Ciphertext[5] ^= 0xff

	_, err := s.Access(context.Background(), "alice", "alice", "app", "p")
	if !errors.Is(err, common.ErrCorruptedRecord) {
		t.Fatalf("expected ErrCorruptedRecord, got %v", err)
	}
	if errors.Is(err, common.ErrorNotFound) {
		t.Fatal("corruption must not be reported as not-found")
	}
	if len(rec.records) != 0 {
		t.Fatal("no audit record must be written for a failed access")
	}
}

func TestAccess_FailsClosedWhenAuditFails(t *testing.T) {
	repo := newFakeTokensRepo()
	rec := &fakeRecorder{err: errors.New("audit store down")}
	s, _ := newTokenService(t, &fakeRepoManager{t: repo}, rec)

	if _, err := s.Save(context.Background(), "alice", "secret-token-abc"); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	if _, err := s.Access(context.Background(), "alice", "alice", "app", "p"); err == nil {
		t.Fatal("access must fail when the audit write fails")
	}
}

func TestStatus_MetadataOnly(t *testing.T) {
	repo := newFakeTokensRepo()
	s, _ := newTokenService(t, &fakeRepoManager{t: repo}, &fakeRecorder{})

	if _, err := s.Save(context.Background(), "alice", ""); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	status, err := s.Status(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Status error: %v", err)
	}
	if status.Method != models.MethodAuto {
		t.Fatalf("expected AUTO, got %s", status.Method)
	}
	if status.Ciphertext != nil {
		t.Fatal("status must not carry ciphertext")
	}
}

func TestStatus_NotFound(t *testing.T) {
	s, _ := newTokenService(t, &fakeRepoManager{t: newFakeTokensRepo()}, &fakeRecorder{})

	_, err := s.Status(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestDelete_ReportsExistence(t *testing.T) {
	repo := newFakeTokensRepo()
	s, _ := newTokenService(t, &fakeRepoManager{t: repo}, &fakeRecorder{})

	if _, err := s.Save(context.Background(), "alice", "some-token-value"); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	deleted, err := s.Delete(context.Background(), "alice")
	if err != nil || !deleted {
		t.Fatalf("first Delete: deleted=%v err=%v", deleted, err)
	}
	deleted, err = s.Delete(context.Background(), "alice")
	if err != nil || deleted {
		t.Fatalf("second Delete must be a clean not-found: deleted=%v err=%v", deleted, err)
	}
}
