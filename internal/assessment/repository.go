package assessment

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrStateNotFound   = errors.New("patient state not found")
)

type Repository interface {
	GetProfile(ctx context.Context, patientID uuid.UUID) (*PatientProfile, error)
	GetState(ctx context.Context, patientID uuid.UUID) (*PatientState, error)
	UpsertState(ctx context.Context, state *PatientState) error

	// ListQuestionBank filters by condition and, when category is non-empty,
	// by category.
	ListQuestionBank(ctx context.Context, condition, category string) ([]QuestionBankItem, error)
	// GetQuestionBankItem returns (nil, nil) for an unknown id: callers fall
	// back to the supplied question context instead.
	GetQuestionBankItem(ctx context.Context, id int64) (*QuestionBankItem, error)

	AppendHistory(ctx context.Context, patientID uuid.UUID, question string, answer int, at time.Time) error
	SaveAnswer(ctx context.Context, patientID uuid.UUID, questionID int64, value int, at time.Time) error
	RecentAnswers(ctx context.Context, patientID uuid.UUID, limit int) ([]AnswerRecord, error)
	HistoryQuestions(ctx context.Context, patientID uuid.UUID, limit int) ([]string, error)
	HistoryEntries(ctx context.Context, patientID uuid.UUID, limit int) ([]HistoryEntry, error)
}

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) GetProfile(ctx context.Context, patientID uuid.UUID) (*PatientProfile, error) {
	query := `SELECT id, name, condition, location, budget_preference, latitude, longitude
		FROM patients WHERE id = $1`

	var p PatientProfile
	err := r.db.QueryRowContext(ctx, query, patientID).Scan(
		&p.PatientID,
		&p.Name,
		&p.Condition,
		&p.Location,
		&p.BudgetPreference,
		&p.Latitude,
		&p.Longitude,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) GetState(ctx context.Context, patientID uuid.UUID) (*PatientState, error) {
	query := `SELECT patient_id, stress_score, energy_score, trend, last_updated,
		last_assessment_at, next_assessment_due, risk_level, risk_probability,
		risk_reason, recommendation
		FROM patient_states WHERE patient_id = $1`

	var s PatientState
	err := r.db.QueryRowContext(ctx, query, patientID).Scan(
		&s.PatientID,
		&s.StressScore,
		&s.EnergyScore,
		&s.Trend,
		&s.LastUpdated,
		&s.LastAssessmentAt,
		&s.NextAssessmentDue,
		&s.RiskLevel,
		&s.RiskProbability,
		&s.RiskReason,
		&s.Recommendation,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrStateNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresRepo) UpsertState(ctx context.Context, s *PatientState) error {
	query := `
		INSERT INTO patient_states (patient_id, stress_score, energy_score, trend,
			last_updated, last_assessment_at, next_assessment_due,
			risk_level, risk_probability, risk_reason, recommendation)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (patient_id) DO UPDATE SET
			stress_score = $2,
			energy_score = $3,
			trend = $4,
			last_updated = $5,
			last_assessment_at = $6,
			next_assessment_due = $7,
			risk_level = $8,
			risk_probability = $9,
			risk_reason = $10,
			recommendation = $11
	`
	_, err := r.db.ExecContext(ctx, query,
		s.PatientID, s.StressScore, s.EnergyScore, s.Trend,
		s.LastUpdated, s.LastAssessmentAt, s.NextAssessmentDue,
		s.RiskLevel, s.RiskProbability, s.RiskReason, s.Recommendation)
	return err
}

func (r *postgresRepo) ListQuestionBank(ctx context.Context, condition, category string) ([]QuestionBankItem, error) {
	query := `SELECT id, condition, category, question_text, weight
		FROM question_bank WHERE condition = $1`
	args := []interface{}{condition}
	if category != "" {
		query += ` AND category = $2`
		args = append(args, category)
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []QuestionBankItem
	for rows.Next() {
		var q QuestionBankItem
		if err := rows.Scan(&q.ID, &q.Condition, &q.Category, &q.QuestionText, &q.Weight); err != nil {
			return nil, err
		}
		items = append(items, q)
	}
	return items, rows.Err()
}

func (r *postgresRepo) GetQuestionBankItem(ctx context.Context, id int64) (*QuestionBankItem, error) {
	query := `SELECT id, condition, category, question_text, weight
		FROM question_bank WHERE id = $1`

	var q QuestionBankItem
	err := r.db.QueryRowContext(ctx, query, id).Scan(&q.ID, &q.Condition, &q.Category, &q.QuestionText, &q.Weight)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &q, nil
}

func (r *postgresRepo) AppendHistory(ctx context.Context, patientID uuid.UUID, question string, answer int, at time.Time) error {
	query := `INSERT INTO assessment_history (patient_id, question, answer, created_at)
		VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, patientID, question, answer, at)
	return err
}

func (r *postgresRepo) SaveAnswer(ctx context.Context, patientID uuid.UUID, questionID int64, value int, at time.Time) error {
	query := `INSERT INTO patient_answers (patient_id, question_id, answer_value, created_at)
		VALUES ($1, $2, $3, $4)`
	_, err := r.db.ExecContext(ctx, query, patientID, questionID, value, at)
	return err
}

func (r *postgresRepo) RecentAnswers(ctx context.Context, patientID uuid.UUID, limit int) ([]AnswerRecord, error) {
	query := `SELECT a.question_id, a.answer_value, q.category
		FROM patient_answers a
		JOIN question_bank q ON q.id = a.question_id
		WHERE a.patient_id = $1
		ORDER BY a.created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, patientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []AnswerRecord
	for rows.Next() {
		var a AnswerRecord
		if err := rows.Scan(&a.QuestionID, &a.AnswerValue, &a.Category); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

func (r *postgresRepo) HistoryQuestions(ctx context.Context, patientID uuid.UUID, limit int) ([]string, error) {
	query := `SELECT question FROM assessment_history
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, patientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (r *postgresRepo) HistoryEntries(ctx context.Context, patientID uuid.UUID, limit int) ([]HistoryEntry, error) {
	query := `SELECT question, answer, created_at FROM assessment_history
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, patientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.Question, &e.Answer, &e.Timestamp); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
