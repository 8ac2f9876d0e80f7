package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"

	"github.com/edutrack/edutrack-api/internal/dto"
	"github.com/edutrack/edutrack-api/internal/models"
)

type fakeStorage struct {
	saved   map[string][]byte
	counter int
	failOn  string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{saved: make(map[string][]byte)}
}

func (f *fakeStorage) Save(originalName string, reader io.Reader) (string, int64, error) {
	if f.failOn == originalName {
		return "", 0, fmt.Errorf("disk full")
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return "", 0, err
	}
	f.counter++
	name := fmt.Sprintf("blob-%d", f.counter)
	f.saved[name] = content
	return name, int64(len(content)), nil
}

func (f *fakeStorage) Open(storedName string) (io.ReadCloser, error) {
	content, ok := f.saved[storedName]
	if !ok {
		return nil, fmt.Errorf("missing blob %s", storedName)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (f *fakeStorage) Remove(storedName string) error {
	delete(f.saved, storedName)
	return nil
}

// pdfBytes is a minimal document that sniffs as application/pdf.
func pdfBytes() []byte {
	return []byte("%PDF-1.4\n%test\n")
}

func pngBytes() []byte {
	return []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
}

func newActivityFixture(t *testing.T) (*fakeActivityRepo, *fakeStorage, ActivityService) {
	t.Helper()
	repo := newFakeActivityRepo()
	store := newFakeStorage()
	validate := validator.New(validator.WithRequiredStructEnabled())
	return repo, store, NewActivityService(repo, store, validate, testLogger(), 5, 10)
}

func validSubmission() dto.ActivityCreateRequest {
	return dto.ActivityCreateRequest{
		Title:        "AWS Certification",
		Description:  "Completed the associate architect track",
		Type:         models.ActivityTypeCertification,
		Organization: "Amazon Web Services",
		Date:         "2026-05-10",
		Credits:      4,
		Tags:         "cloud, aws",
	}
}

func TestActivityServiceSubmitRoundTrip(t *testing.T) {
	repo, store, svc := newActivityFixture(t)
	actor := Actor{ID: 7, Role: models.RoleStudent}

	created, err := svc.Submit(context.Background(), actor, validSubmission(), []UploadedFile{
		{Name: "cert.pdf", Content: pdfBytes()},
		{Name: "badge.png", Content: pngBytes()},
	})
	require.NoError(t, err)
	require.Equal(t, models.ActivityStatusPending, created.Status)
	require.Len(t, created.Files, 2)
	require.Len(t, store.saved, 2)

	fetched, err := svc.Get(context.Background(), actor, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.Title, fetched.Title)
	require.Equal(t, created.Description, fetched.Description)
	require.Equal(t, created.Type, fetched.Type)
	require.Equal(t, created.Credits, fetched.Credits)
	require.Equal(t, []string{"cloud", "aws"}, fetched.Tags)
	require.Equal(t, repo.activities[created.ID].UserID, actor.ID)
}

func TestActivityServiceSubmitCreditsOutOfRange(t *testing.T) {
	_, store, svc := newActivityFixture(t)

	payload := validSubmission()
	payload.Credits = 11

	_, err := svc.Submit(context.Background(), Actor{ID: 7, Role: models.RoleStudent}, payload, nil)
	require.Error(t, err)
	require.True(t, isValidatorError(err))
	require.Empty(t, store.saved)
}

func TestActivityServiceSubmitTooManyFiles(t *testing.T) {
	_, store, svc := newActivityFixture(t)

	files := make([]UploadedFile, 6)
	for i := range files {
		files[i] = UploadedFile{Name: fmt.Sprintf("doc-%d.pdf", i), Content: pdfBytes()}
	}

	_, err := svc.Submit(context.Background(), Actor{ID: 7, Role: models.RoleStudent}, validSubmission(), files)
	require.ErrorIs(t, err, ErrTooManyFiles)
	require.Empty(t, store.saved)
}

func TestActivityServiceSubmitDisallowedTypeRollsBack(t *testing.T) {
	_, store, svc := newActivityFixture(t)

	_, err := svc.Submit(context.Background(), Actor{ID: 7, Role: models.RoleStudent}, validSubmission(), []UploadedFile{
		{Name: "cert.pdf", Content: pdfBytes()},
		{Name: "evil.exe", Content: []byte{'M', 'Z', 0x90, 0x00, 0x03}},
	})
	require.ErrorIs(t, err, ErrFileTypeNotAllowed)
	require.Empty(t, store.saved, "accepted blobs must be rolled back")
}

func TestActivityServiceSubmitInvalidDate(t *testing.T) {
	_, _, svc := newActivityFixture(t)

	payload := validSubmission()
	payload.Date = "not-a-date"

	_, err := svc.Submit(context.Background(), Actor{ID: 7, Role: models.RoleStudent}, payload, nil)
	require.ErrorIs(t, err, ErrInvalidDate)
}

func TestActivityServiceUpdateByNonOwner(t *testing.T) {
	repo, _, svc := newActivityFixture(t)
	id := repo.put(models.Activity{UserID: 7, Status: models.ActivityStatusPending, Title: "Original"})

	title := "Hijacked"
	_, err := svc.Update(context.Background(), Actor{ID: 8, Role: models.RoleStudent}, id, dto.ActivityUpdateRequest{Title: &title})
	require.ErrorIs(t, err, ErrActivityForbidden)
	require.Equal(t, "Original", repo.activities[id].Title)
}

func TestActivityServiceUpdateReviewedActivity(t *testing.T) {
	repo, _, svc := newActivityFixture(t)
	id := repo.put(models.Activity{UserID: 7, Status: models.ActivityStatusVerified, Title: "Original"})

	title := "Changed"
	_, err := svc.Update(context.Background(), Actor{ID: 7, Role: models.RoleStudent}, id, dto.ActivityUpdateRequest{Title: &title})
	require.ErrorIs(t, err, ErrActivityNotPending)
}

func TestActivityServiceDeletePendingRemovesBlobs(t *testing.T) {
	repo, store, svc := newActivityFixture(t)
	actor := Actor{ID: 7, Role: models.RoleStudent}

	created, err := svc.Submit(context.Background(), actor, validSubmission(), []UploadedFile{
		{Name: "cert.pdf", Content: pdfBytes()},
	})
	require.NoError(t, err)
	require.Len(t, store.saved, 1)

	require.NoError(t, svc.Delete(context.Background(), actor, created.ID))
	require.Empty(t, store.saved)
	_, ok := repo.activities[created.ID]
	require.False(t, ok)
}

func TestActivityServiceDeleteVerifiedLeavesEverything(t *testing.T) {
	repo, store, svc := newActivityFixture(t)
	store.saved["blob-1"] = pdfBytes()
	id := repo.put(models.Activity{
		UserID: 7,
		Status: models.ActivityStatusVerified,
		Files:  []models.ActivityFile{{StoredName: "blob-1"}},
	})

	err := svc.Delete(context.Background(), Actor{ID: 7, Role: models.RoleStudent}, id)
	require.ErrorIs(t, err, ErrActivityNotPending)
	require.Contains(t, store.saved, "blob-1")
	_, ok := repo.activities[id]
	require.True(t, ok)
}

func TestActivityServiceGetVisibility(t *testing.T) {
	repo, _, svc := newActivityFixture(t)
	id := repo.put(models.Activity{UserID: 7, Status: models.ActivityStatusPending})

	_, err := svc.Get(context.Background(), Actor{ID: 8, Role: models.RoleStudent}, id)
	require.ErrorIs(t, err, ErrActivityForbidden)

	_, err = svc.Get(context.Background(), Actor{ID: 2, Role: models.RoleFaculty}, id)
	require.NoError(t, err)
}

func TestActivityServiceCommentRequiresReviewer(t *testing.T) {
	repo, _, svc := newActivityFixture(t)
	id := repo.put(models.Activity{UserID: 7, Status: models.ActivityStatusPending})

	_, err := svc.AddComment(context.Background(), Actor{ID: 7, Role: models.RoleStudent}, id, dto.CommentCreateRequest{Content: "nice"})
	require.ErrorIs(t, err, ErrActivityForbidden)

	comment, err := svc.AddComment(context.Background(), Actor{ID: 2, Role: models.RoleFaculty}, id, dto.CommentCreateRequest{Content: "please attach the certificate"})
	require.NoError(t, err)
	require.Equal(t, "please attach the certificate", comment.Content)
}

func TestActivityServiceListForcesStudentOwnership(t *testing.T) {
	repo, _, svc := newActivityFixture(t)
	repo.put(models.Activity{UserID: 7, Status: models.ActivityStatusPending})
	repo.put(models.Activity{UserID: 8, Status: models.ActivityStatusPending})

	response, err := svc.List(context.Background(), Actor{ID: 7, Role: models.RoleStudent}, dto.ActivityFilter{StudentID: "8"})
	require.NoError(t, err)
	require.Equal(t, int64(1), response.Total)
	require.Equal(t, uint(7), repo.activities[response.Activities[0].ID].UserID)
}

func isValidatorError(err error) bool {
	var validationErrors validator.ValidationErrors
	return errors.As(err, &validationErrors)
}
