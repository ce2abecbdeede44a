package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atlasclinic/clinic-admin/internal/appointment"
	"github.com/atlasclinic/clinic-admin/internal/db"
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

	pool, err := db.Connect(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedProviders(context.Background(), pool, 20); err != nil {
		log.Fatalf("seed providers: %v", err)
	}
	if err := seedPatients(context.Background(), pool, 2000); err != nil {
		log.Fatalf("seed patients: %v", err)
	}

	log.Println("seed complete")
}

func seedProviders(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d providers", count)

	specialties := []string{
		"Dermatology",
		"Cardiology",
		"General Practice",
		"Orthopedics",
		"Endocrinology",
		"Neurology",
		"Pediatrics",
		"Psychiatry",
		"Ophthalmology",
		"ENT",
	}
	roles := []string{
		appointment.RoleProvider,
		appointment.RoleProvider,
		appointment.RoleProvider,
		appointment.RoleReceptionist,
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for i := 0; i < count; i++ {
		id := uuid.New()
		name := "Dr. " + gofakeit.LastName()
		role := roles[gofakeit.Number(0, len(roles)-1)]
		var spec *string
		if role == appointment.RoleProvider {
			s := specialties[gofakeit.Number(0, len(specialties)-1)]
			spec = &s
		}

		_, err := tx.Exec(ctx, `
			INSERT INTO providers (id, name, role, specialty, created_at, updated_at)
			VALUES ($1, $2, $3, $4, now(), now())
		`, id, name, role, spec)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Println("providers seeded")
	return nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Printf("seeding %d patients", count)

	const (
		batchSize        = 500
		recordNumberBase = 1000
	)

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
			id := uuid.New()
			name := gofakeit.Name()
			email := gofakeit.Email()
			phone := gofakeit.Phone()
			address := gofakeit.Address().Address
			birthday := gofakeit.DateRange(
				time.Date(1940, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2010, 12, 31, 0, 0, 0, 0, time.UTC),
			)

			// Record numbers are handed out sequentially above the
			// base, same as the runtime allocator.
			recordNumber := recordNumberBase + int64(i) + 1

			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, record_number, name, phone, address, email, birthday, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
			`, id, recordNumber, name, phone, address, email, birthday)
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		log.Printf("patients seeded: %d/%d", end, count)
	}

	// Leave the counter pointing past the seeded range so runtime
	// allocation continues from there.
	_, err := pool.Exec(ctx, `
		INSERT INTO record_number_seq (id, next_number)
		VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET next_number = GREATEST(record_number_seq.next_number, $1)
	`, int64(recordNumberBase+count))
	if err != nil {
		return err
	}

	log.Println("patients seeded")
	return nil
}
