package health

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	AddMedicine(ctx context.Context, m *Medicine) error
	Medicines(ctx context.Context, patientID uuid.UUID) ([]Medicine, error)
	// LogDoseTaken increments taken_count, capped at total_count.
	LogDoseTaken(ctx context.Context, medicineID int64) error

	CreateHealthLog(ctx context.Context, l *HealthLog) error
	LatestHealthLog(ctx context.Context, patientID uuid.UUID) (*HealthLog, error)
}

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) AddMedicine(ctx context.Context, m *Medicine) error {
	query := `INSERT INTO medicines (patient_id, name, dosage, schedule, total_count, taken_count)
		VALUES ($1, $2, $3, $4, $5, 0)
		RETURNING id`
	return r.db.QueryRowContext(ctx, query,
		m.PatientID, m.Name, m.Dosage, m.Schedule, m.TotalCount).Scan(&m.ID)
}

func (r *postgresRepo) Medicines(ctx context.Context, patientID uuid.UUID) ([]Medicine, error) {
	query := `SELECT id, patient_id, name, dosage, schedule, total_count, taken_count
		FROM medicines WHERE patient_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var medicines []Medicine
	for rows.Next() {
		var m Medicine
		if err := rows.Scan(&m.ID, &m.PatientID, &m.Name, &m.Dosage, &m.Schedule, &m.TotalCount, &m.TakenCount); err != nil {
			return nil, err
		}
		medicines = append(medicines, m)
	}
	return medicines, rows.Err()
}

func (r *postgresRepo) LogDoseTaken(ctx context.Context, medicineID int64) error {
	query := `UPDATE medicines
		SET taken_count = LEAST(taken_count + 1, total_count)
		WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, medicineID)
	return err
}

func (r *postgresRepo) CreateHealthLog(ctx context.Context, l *HealthLog) error {
	if l.LoggedAt.IsZero() {
		l.LoggedAt = time.Now()
	}
	query := `INSERT INTO health_logs (patient_id, sleep_hours, stress_level, energy_level, symptoms, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	return r.db.QueryRowContext(ctx, query,
		l.PatientID, l.SleepHours, l.StressLevel, l.EnergyLevel, l.Symptoms, l.LoggedAt).Scan(&l.ID)
}

func (r *postgresRepo) LatestHealthLog(ctx context.Context, patientID uuid.UUID) (*HealthLog, error) {
	query := `SELECT id, patient_id, sleep_hours, stress_level, energy_level, symptoms, logged_at
		FROM health_logs WHERE patient_id = $1
		ORDER BY logged_at DESC LIMIT 1`

	var l HealthLog
	err := r.db.QueryRowContext(ctx, query, patientID).Scan(
		&l.ID, &l.PatientID, &l.SleepHours, &l.StressLevel, &l.EnergyLevel, &l.Symptoms, &l.LoggedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}
