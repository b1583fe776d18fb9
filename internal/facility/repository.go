package facility

import (
	"context"
	"database/sql"
	"errors"
)

var ErrFacilityNotFound = errors.New("facility not found")

type Repository interface {
	ListFacilities(ctx context.Context) ([]Facility, error)
	ListEmergencyFacilities(ctx context.Context) ([]Facility, error)
	GetFacility(ctx context.Context, id int64) (*Facility, error)
	DoctorsByFacility(ctx context.Context, facilityID int64) ([]Doctor, error)
}

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

const facilityColumns = `id, name, location, specialization, rating, avg_cost,
	emergency_capable, ambulance_available, COALESCE(ambulance_number, ''),
	latitude, longitude`

func (r *postgresRepo) ListFacilities(ctx context.Context) ([]Facility, error) {
	query := `SELECT ` + facilityColumns + ` FROM facilities ORDER BY id`
	return r.queryFacilities(ctx, query)
}

func (r *postgresRepo) ListEmergencyFacilities(ctx context.Context) ([]Facility, error) {
	query := `SELECT ` + facilityColumns + ` FROM facilities WHERE emergency_capable ORDER BY id`
	return r.queryFacilities(ctx, query)
}

func (r *postgresRepo) queryFacilities(ctx context.Context, query string, args ...interface{}) ([]Facility, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facilities []Facility
	for rows.Next() {
		var f Facility
		if err := rows.Scan(
			&f.ID, &f.Name, &f.Location, &f.Specialization, &f.Rating, &f.AvgCost,
			&f.EmergencyCapable, &f.AmbulanceAvailable, &f.AmbulanceNumber,
			&f.Latitude, &f.Longitude,
		); err != nil {
			return nil, err
		}
		f.Source = "db"
		facilities = append(facilities, f)
	}
	return facilities, rows.Err()
}

func (r *postgresRepo) GetFacility(ctx context.Context, id int64) (*Facility, error) {
	query := `SELECT ` + facilityColumns + ` FROM facilities WHERE id = $1`

	var f Facility
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&f.ID, &f.Name, &f.Location, &f.Specialization, &f.Rating, &f.AvgCost,
		&f.EmergencyCapable, &f.AmbulanceAvailable, &f.AmbulanceNumber,
		&f.Latitude, &f.Longitude,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrFacilityNotFound
		}
		return nil, err
	}
	f.Source = "db"
	return &f, nil
}

func (r *postgresRepo) DoctorsByFacility(ctx context.Context, facilityID int64) ([]Doctor, error) {
	query := `SELECT id, name, specialization, experience_years, rating
		FROM doctors WHERE facility_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, facilityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var doctors []Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Specialization, &d.ExperienceYears, &d.Rating); err != nil {
			return nil, err
		}
		doctors = append(doctors, d)
	}
	return doctors, rows.Err()
}
