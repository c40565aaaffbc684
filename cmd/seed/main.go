package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/clinova/clinic-scheduling/internal/appointment"
	"github.com/clinova/clinic-scheduling/internal/db"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	providers, err := seedInsuranceProviders(context.Background(), pool, 12)
	if err != nil {
		log.Fatalf("seed insurance providers: %v", err)
	}
	professionals, err := seedProfessionals(context.Background(), pool, 40)
	if err != nil {
		log.Fatalf("seed professionals: %v", err)
	}
	patients, err := seedPatients(context.Background(), pool, 2000)
	if err != nil {
		log.Fatalf("seed patients: %v", err)
	}
	if err := seedAppointments(context.Background(), pool, professionals, patients, providers, 6000); err != nil {
		log.Fatalf("seed appointments: %v", err)
	}

	log.Println("seed complete")
}

var specialties = []string{
	"Clínica Médica",
	"Cardiología",
	"Dermatología",
	"Pediatría",
	"Traumatología",
	"Endocrinología",
	"Neurología",
	"Oftalmología",
	"Psiquiatría",
	"Otorrinolaringología",
}

func seedInsuranceProviders(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d insurance providers", count)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		_, err := pool.Exec(ctx, `
			INSERT INTO insurance_providers (id, name, created_at, updated_at)
			VALUES ($1, $2, now(), now())
		`, id, gofakeit.Company())
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	return ids, nil
}

func seedProfessionals(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d professionals", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	ids := make([]uuid.UUID, 0, count)
	for i := 0; i < count; i++ {
		id := uuid.New()
		spec := specialties[gofakeit.Number(0, len(specialties)-1)]

		// Leave a few professionals without specialty to exercise the
		// report's sentinel bucket.
		var specArg *string
		if gofakeit.Number(0, 9) > 0 {
			specArg = &spec
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO professionals (id, name, specialty, created_at, updated_at)
			VALUES ($1, $2, $3, now(), now())
		`, id, gofakeit.Name(), specArg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return ids, nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) ([]uuid.UUID, error) {
	log.Printf("seeding %d patients", count)

	const batchSize = 500

	ids := make([]uuid.UUID, 0, count)
	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return nil, err
		}

		for i := offset; i < end; i++ {
			id := uuid.New()
			email := gofakeit.Email()
			// Spread creation dates over the last year so the growth
			// series in reports has a curve.
			createdAt := time.Now().AddDate(0, 0, -gofakeit.Number(0, 365))

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, name, email, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $4)
			`, id, gofakeit.Name(), email, createdAt)
			if err != nil {
				_ = tx.Rollback(ctx)
				return nil, err
			}
			ids = append(ids, id)
		}

		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	return ids, nil
}

var statusWeights = []struct {
	status appointment.Status
	weight int
}{
	{appointment.StatusCompletado, 50},
	{appointment.StatusConfirmado, 15},
	{appointment.StatusProgramado, 15},
	{appointment.StatusCancelado, 12},
	{appointment.StatusNoAsistio, 6},
	{appointment.StatusEnSalaEspera, 2},
}

func pickStatus() appointment.Status {
	total := 0
	for _, sw := range statusWeights {
		total += sw.weight
	}
	n := gofakeit.Number(1, total)
	for _, sw := range statusWeights {
		n -= sw.weight
		if n <= 0 {
			return sw.status
		}
	}
	return appointment.StatusProgramado
}

func seedAppointments(ctx context.Context, pool *pgxpool.Pool, professionals, patients, providers []uuid.UUID, count int) error {
	log.Printf("seeding %d appointments", count)

	durations := []int{15, 30, 30, 30, 45, 60}

	// Slots are capped at one non-cancelled appointment per
	// professional per hour, keeping seeded data inside the
	// no-overlap invariant the service enforces.
	taken := make(map[string]bool)

	const batchSize = 500
	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			prof := professionals[gofakeit.Number(0, len(professionals)-1)]
			patient := patients[gofakeit.Number(0, len(patients)-1)]
			status := pickStatus()

			day := time.Now().AddDate(0, 0, -gofakeit.Number(0, 180))
			start := time.Date(day.Year(), day.Month(), day.Day(),
				gofakeit.Number(8, 19), 0, 0, 0, time.UTC)
			duration := durations[gofakeit.Number(0, len(durations)-1)]

			slotKey := prof.String() + start.Format("|2006-01-02|15")
			if status != appointment.StatusCancelado && status != appointment.StatusNoAsistio {
				if taken[slotKey] {
					status = appointment.StatusCancelado
				} else {
					taken[slotKey] = true
				}
			}

			var insuranceID *uuid.UUID
			var copay *decimal.Decimal
			ctype := appointment.ConsultationObraSocial
			if gofakeit.Number(0, 3) == 0 {
				ctype = appointment.ConsultationParticular
				amount := decimal.NewFromInt(int64(gofakeit.Number(4, 30) * 500))
				copay = &amount
			} else {
				insuranceID = &providers[gofakeit.Number(0, len(providers)-1)]
			}

			apptID := uuid.New()
			_, err := tx.Exec(ctx, `
				INSERT INTO appointments (id, professional_id, patient_id, start_time, duration_minutes,
					status, consultation_type, insurance_provider_id, copay, created_by, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $4, $4)
			`, apptID, prof, patient, start, duration, status, ctype, insuranceID, copay, prof)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}

			if status == appointment.StatusCancelado {
				_, err := tx.Exec(ctx, `
					INSERT INTO cancellations (id, appointment_id, patient_id, cancelled_by, reason, cancelled_at)
					VALUES ($1, $2, $3, $4, $5, $6)
				`, uuid.New(), apptID, patient, prof, gofakeit.Sentence(6), start.AddDate(0, 0, -1))
				if err != nil {
					_ = tx.Rollback(ctx)
					return err
				}
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("appointments seeded: %d/%d", end, count)
	}

	return nil
}
