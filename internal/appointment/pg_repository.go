package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const pgUniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const appointmentColumns = `id, professional_id, patient_id, start_time, duration_minutes,
	status, consultation_type, insurance_provider_id, copay, created_by, created_at, updated_at`

// Helpers

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var email *string

	err := row.Scan(&p.ID, &p.Name, &email, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	p.Email = email
	return &p, nil
}

func scanProfessional(row pgx.Row) (*Professional, error) {
	var p Professional
	var specialty *string

	err := row.Scan(&p.ID, &p.Name, &specialty, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfessionalNotFound
		}
		return nil, err
	}

	p.Specialty = specialty
	return &p, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var copay decimal.NullDecimal

	err := row.Scan(
		&a.ID,
		&a.ProfessionalID,
		&a.PatientID,
		&a.StartTime,
		&a.DurationMinutes,
		&a.Status,
		&a.Type,
		&a.InsuranceProviderID,
		&copay,
		&a.CreatedBy,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	if copay.Valid {
		a.Copay = &copay.Decimal
	}
	return &a, nil
}

func scanCancellation(row pgx.Row) (*Cancellation, error) {
	var c Cancellation

	err := row.Scan(&c.ID, &c.AppointmentID, &c.PatientID, &c.CancelledBy, &c.Reason, &c.CancelledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &c, nil
}

// filterClause renders f as a WHERE fragment over the aliased tables
// "a" (appointments) and "pr" (professionals).
func filterClause(f Filter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.ProfessionalID != nil {
		add("a.professional_id = $%d", *f.ProfessionalID)
	}
	if f.PatientID != nil {
		add("a.patient_id = $%d", *f.PatientID)
	}
	if f.From != nil {
		add("a.start_time >= $%d", *f.From)
	}
	if f.To != nil {
		add("a.start_time < $%d", *f.To)
	}
	if len(f.Statuses) > 0 {
		add("a.status = ANY($%d)", statusStrings(f.Statuses))
	}
	if len(f.NotStatuses) > 0 {
		add("a.status != ALL($%d)", statusStrings(f.NotStatuses))
	}
	if f.Specialty != nil {
		add("pr.specialty = $%d", *f.Specialty)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// Interface methods

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, email, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) GetProfessionalByID(ctx context.Context, id uuid.UUID) (*Professional, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, specialty, created_at, updated_at
		FROM professionals
		WHERE id = $1
	`, id)
	return scanProfessional(row)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) GetOwnedAppointment(ctx context.Context, professionalID, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1 AND professional_id = $2
	`, id, professionalID)
	return scanAppointment(row)
}

func (r *PgRepository) FindAppointments(ctx context.Context, f Filter) ([]Detail, error) {
	where, args := filterClause(f)

	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT a.id, a.professional_id, a.patient_id, a.start_time, a.duration_minutes,
		       a.status, a.consultation_type, a.insurance_provider_id, a.copay,
		       a.created_by, a.created_at, a.updated_at,
		       pr.id, pr.name, pr.specialty, pr.created_at, pr.updated_at
		FROM appointments a
		JOIN professionals pr ON pr.id = a.professional_id
		%s
		ORDER BY a.start_time
	`, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Detail
	for rows.Next() {
		var d Detail
		var copay decimal.NullDecimal
		var pr Professional

		err := rows.Scan(
			&d.ID,
			&d.ProfessionalID,
			&d.PatientID,
			&d.StartTime,
			&d.DurationMinutes,
			&d.Status,
			&d.Type,
			&d.InsuranceProviderID,
			&copay,
			&d.CreatedBy,
			&d.CreatedAt,
			&d.UpdatedAt,
			&pr.ID,
			&pr.Name,
			&pr.Specialty,
			&pr.CreatedAt,
			&pr.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		if copay.Valid {
			d.Copay = &copay.Decimal
		}
		d.Professional = &pr
		result = append(result, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) CountAppointments(ctx context.Context, f Filter) (int, error) {
	where, args := filterClause(f)

	join := ""
	if f.Specialty != nil {
		join = "JOIN professionals pr ON pr.id = a.professional_id"
	}

	var n int
	err := r.pool.QueryRow(ctx, fmt.Sprintf(`
		SELECT count(*)
		FROM appointments a
		%s
		%s
	`, join, where), args...).Scan(&n)
	if err != nil {
		return 0, err
	}

	return n, nil
}

func (r *PgRepository) InsertAppointment(ctx context.Context, a *Appointment) (*Appointment, error) {
	id := a.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, professional_id, patient_id, start_time, duration_minutes,
			status, consultation_type, insurance_provider_id, copay, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		RETURNING `+appointmentColumns+`
	`, id, a.ProfessionalID, a.PatientID, a.StartTime, a.DurationMinutes,
		a.Status, a.Type, a.InsuranceProviderID, nullableDecimal(a.Copay), a.CreatedBy)

	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)

	return scanAppointment(row)
}

// CancelAppointment performs the status flip and the compensating insert
// in a single transaction. The guard on the UPDATE closes the window
// between the service's state read and this write; a racing cancel that
// slips past it is caught by the unique key on cancellations.
func (r *PgRepository) CancelAppointment(ctx context.Context, c Cancellation) (*Cancellation, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin cancel tx: %w", err)
	}
	defer tx.Rollback(ctx)

	ct, err := tx.Exec(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status NOT IN ($3, $4)
	`, c.AppointmentID, StatusCancelado, StatusCancelado, StatusCompletado)
	if err != nil {
		return nil, fmt.Errorf("cancel status update: %w", err)
	}
	if ct.RowsAffected() == 0 {
		// Re-read inside the tx to tell a vanished row from a
		// terminal one.
		var status Status
		err := tx.QueryRow(ctx, `SELECT status FROM appointments WHERE id = $1`, c.AppointmentID).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		if err != nil {
			return nil, err
		}
		if status == StatusCancelado {
			return nil, ErrAlreadyCancelled
		}
		return nil, ErrInvalidTransition
	}

	id := c.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO cancellations (id, appointment_id, patient_id, cancelled_by, reason, cancelled_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, appointment_id, patient_id, cancelled_by, reason, cancelled_at
	`, id, c.AppointmentID, c.PatientID, c.CancelledBy, c.Reason, c.CancelledAt)

	created, err := scanCancellation(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrAlreadyCancelled
		}
		return nil, fmt.Errorf("insert cancellation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit cancel tx: %w", err)
	}

	return created, nil
}

func (r *PgRepository) CountPatientsCreatedBefore(ctx context.Context, t time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM patients WHERE created_at < $1
	`, t).Scan(&n)
	return n, err
}

func (r *PgRepository) CountPatientsCreatedInRange(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM patients WHERE created_at >= $1 AND created_at < $2
	`, from, to).Scan(&n)
	return n, err
}

func statusStrings(statuses []Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func nullableDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return *d
}
