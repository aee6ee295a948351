package repositories

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"studyplan/internal/models"
)

type ExamRepository interface {
	Create(ctx context.Context, ownerID string, draft models.ExamDraft) (*models.Exam, error)
	List(ctx context.Context, ownerID string) ([]models.Exam, error)
	ListUpcoming(ctx context.Context, ownerID string, today models.Date) ([]models.Exam, error)
	FindByID(ctx context.Context, id string) (*models.Exam, error)
	Update(ctx context.Context, id string, upd models.ExamUpdate) error
	Delete(ctx context.Context, id string) error
}

type examRepository struct {
	db *sqlx.DB
	settings
}

func NewExamRepository(db *sqlx.DB, opts ...Option) ExamRepository {
	return &examRepository{db: db, settings: newSettings(opts)}
}

const examColumns = `id, owner_id, subject, exam_date, estimated_time, notes, created_at, updated_at`

func (r *examRepository) Create(ctx context.Context, ownerID string, draft models.ExamDraft) (*models.Exam, error) {
	now := r.timestamp()
	exam := &models.Exam{
		ID:            r.newID(),
		OwnerID:       ownerID,
		Subject:       draft.Subject,
		Date:          draft.Date,
		EstimatedTime: draft.EstimatedTime,
		Notes:         draft.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	query := `
		INSERT INTO exams (id, owner_id, subject, exam_date, estimated_time, notes, created_at, updated_at)
		VALUES (:id, :owner_id, :subject, :exam_date, :estimated_time, :notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, exam); err != nil {
		return nil, storeErr("create", examsCollection, "", err)
	}
	return exam, nil
}

func (r *examRepository) List(ctx context.Context, ownerID string) ([]models.Exam, error) {
	query := r.db.Rebind(`SELECT ` + examColumns + ` FROM exams
		WHERE owner_id = ?
		ORDER BY exam_date ASC, created_at ASC`)
	exams := []models.Exam{}
	if err := r.db.SelectContext(ctx, &exams, query, ownerID); err != nil {
		return nil, storeErr("list", examsCollection, "", err)
	}
	return exams, nil
}

func (r *examRepository) ListUpcoming(ctx context.Context, ownerID string, today models.Date) ([]models.Exam, error) {
	query := r.db.Rebind(`SELECT ` + examColumns + ` FROM exams
		WHERE owner_id = ? AND exam_date >= ?
		ORDER BY exam_date ASC, created_at ASC`)
	exams := []models.Exam{}
	if err := r.db.SelectContext(ctx, &exams, query, ownerID, today); err != nil {
		return nil, storeErr("list upcoming", examsCollection, "", err)
	}
	return exams, nil
}

func (r *examRepository) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	query := r.db.Rebind(`SELECT ` + examColumns + ` FROM exams WHERE id = ?`)
	exam := &models.Exam{}
	if err := r.db.GetContext(ctx, exam, query, id); err != nil {
		return nil, storeErr("find", examsCollection, id, err)
	}
	return exam, nil
}

func (r *examRepository) Update(ctx context.Context, id string, upd models.ExamUpdate) error {
	sets := []string{}
	args := []interface{}{}

	if upd.Subject != nil {
		sets = append(sets, "subject = ?")
		args = append(args, *upd.Subject)
	}
	if upd.Date != nil {
		sets = append(sets, "exam_date = ?")
		args = append(args, *upd.Date)
	}
	if upd.EstimatedTime != nil {
		sets = append(sets, "estimated_time = ?")
		args = append(args, *upd.EstimatedTime)
	}
	if upd.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *upd.Notes)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, r.timestamp(), id)

	query := r.db.Rebind("UPDATE exams SET " + strings.Join(sets, ", ") + " WHERE id = ?")
	return execOne(ctx, r.db, "update", examsCollection, id, query, args...)
}

func (r *examRepository) Delete(ctx context.Context, id string) error {
	query := r.db.Rebind(`DELETE FROM exams WHERE id = ?`)
	return execOne(ctx, r.db, "delete", examsCollection, id, query, id)
}
