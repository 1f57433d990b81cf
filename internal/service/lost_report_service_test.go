package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-lostfound-api/internal/dto"
	"github.com/noah-isme/campus-lostfound-api/internal/models"
	appErrors "github.com/noah-isme/campus-lostfound-api/pkg/errors"
)

type lostReportRepoStub struct {
	reports map[string]*models.LostReport
	filter  models.LostReportFilter
}

func newLostReportRepoStub() *lostReportRepoStub {
	return &lostReportRepoStub{reports: make(map[string]*models.LostReport)}
}

func (s *lostReportRepoStub) Create(ctx context.Context, report *models.LostReport) error {
	report.ID = "report-1"
	report.Status = models.LostReportStatusPending
	s.reports[report.ID] = report
	return nil
}

func (s *lostReportRepoStub) GetByID(ctx context.Context, id string) (*models.LostReport, error) {
	if report, ok := s.reports[id]; ok {
		copy := *report
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *lostReportRepoStub) List(ctx context.Context, filter models.LostReportFilter) ([]models.LostReport, error) {
	s.filter = filter
	result := make([]models.LostReport, 0, len(s.reports))
	for _, report := range s.reports {
		result = append(result, *report)
	}
	return result, nil
}

func (s *lostReportRepoStub) Review(ctx context.Context, id string, to models.LostReportStatus) error {
	report, ok := s.reports[id]
	if !ok {
		return sql.ErrNoRows
	}
	report.Status = to
	return nil
}

func TestLostReportServiceCreate(t *testing.T) {
	repo := newLostReportRepoStub()
	audit := &auditStub{}

	svc := NewLostReportService(repo, audit, nil, nil, nil)

	report, err := svc.Create(context.Background(), dto.CreateLostReportRequest{
		Name:     "Black Umbrella",
		Category: "ACCESSORY",
	}, studentClaims("student-1"))
	require.NoError(t, err)
	require.Equal(t, "student-1", report.ReporterID)
	require.Equal(t, "NORTH", report.Campus)
	require.Equal(t, models.LostReportStatusPending, report.Status)
	require.Len(t, audit.logs, 1)
}

func TestLostReportServiceReview(t *testing.T) {
	repo := newLostReportRepoStub()
	repo.reports["report-1"] = &models.LostReport{ID: "report-1", ReporterID: "student-1", Status: models.LostReportStatusPending}
	metrics := &metricsStub{}

	svc := NewLostReportService(repo, &auditStub{}, metrics, nil, nil)

	report, err := svc.Review(context.Background(), "report-1", dto.ReviewLostReportRequest{
		Status: models.LostReportStatusVerified,
	}, staffClaims("staff-1"))
	require.NoError(t, err)
	require.Equal(t, models.LostReportStatusVerified, report.Status)
	require.Len(t, metrics.transitions, 1)
}

func TestLostReportServiceReviewTwice(t *testing.T) {
	repo := newLostReportRepoStub()
	repo.reports["report-1"] = &models.LostReport{ID: "report-1", ReporterID: "student-1", Status: models.LostReportStatusVerified}

	svc := NewLostReportService(repo, &auditStub{}, nil, nil, nil)

	_, err := svc.Review(context.Background(), "report-1", dto.ReviewLostReportRequest{
		Status: models.LostReportStatusRejected,
	}, staffClaims("staff-1"))
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrInvalidState.Code, appErr.Code)
}

func TestLostReportServiceListScopesStudents(t *testing.T) {
	repo := newLostReportRepoStub()

	svc := NewLostReportService(repo, &auditStub{}, nil, nil, nil)

	_, err := svc.List(context.Background(), dto.LostReportQuery{}, studentClaims("student-1"))
	require.NoError(t, err)
	require.Equal(t, "student-1", repo.filter.ReporterID)

	_, err = svc.List(context.Background(), dto.LostReportQuery{}, staffClaims("staff-1"))
	require.NoError(t, err)
	require.Empty(t, repo.filter.ReporterID)
}

func TestLostReportServiceGetScope(t *testing.T) {
	repo := newLostReportRepoStub()
	repo.reports["report-1"] = &models.LostReport{ID: "report-1", ReporterID: "student-1", Status: models.LostReportStatusPending}

	svc := NewLostReportService(repo, &auditStub{}, nil, nil, nil)

	_, err := svc.Get(context.Background(), "report-1", studentClaims("student-1"))
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), "report-1", studentClaims("student-2"))
	require.Error(t, err)
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}
