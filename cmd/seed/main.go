package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smileworks/clinic-scheduling/internal/clinic"
	"github.com/smileworks/clinic-scheduling/internal/db"
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

	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	gofakeit.Seed(time.Now().UnixNano())

	dentistIDs, err := seedDentists(context.Background(), pool)
	if err != nil {
		log.Fatalf("seed dentists: %v", err)
	}
	procedureIDs, err := seedProcedures(context.Background(), pool)
	if err != nil {
		log.Fatalf("seed procedures: %v", err)
	}
	if err := seedBookings(context.Background(), pool, dentistIDs, procedureIDs, 200); err != nil {
		log.Fatalf("seed bookings: %v", err)
	}

	log.Println("seed complete")
}

func seedDentists(ctx context.Context, pool *pgxpool.Pool) ([]int64, error) {
	count := 8
	log.Printf("seeding %d dentists", count)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var ids []int64
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("Dr. %s %s", gofakeit.FirstName(), gofakeit.LastName())

		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO dentists (name, active, created_at, updated_at)
			VALUES ($1, TRUE, now(), now())
			ON CONFLICT (name) DO UPDATE SET updated_at = now()
			RETURNING id
		`, name).Scan(&id)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("dentists seeded")
	return ids, nil
}

func seedProcedures(ctx context.Context, pool *pgxpool.Pool) ([]int64, error) {
	names := []string{
		"Cleaning",
		"Filling",
		"Extraction",
		"Root Canal",
		"Whitening",
		"Crown Fitting",
		"Braces Consultation",
		"Dental Implant",
	}
	log.Printf("seeding %d procedures", len(names))

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var ids []int64
	for _, name := range names {
		var id int64
		err := tx.QueryRow(ctx, `
			INSERT INTO procedures (name, created_at)
			VALUES ($1, now())
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, name).Scan(&id)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	log.Println("procedures seeded")
	return ids, nil
}

func seedBookings(ctx context.Context, pool *pgxpool.Pool, dentistIDs, procedureIDs []int64, count int) error {
	log.Printf("seeding up to %d bookings", count)

	schedule := clinic.DefaultSchedule()
	statuses := []string{"PENDING", "CONFIRMED", "COMPLETED", "DECLINED"}

	inserted := 0
	for i := 0; i < count; i++ {
		date := time.Now().AddDate(0, 0, gofakeit.Number(1, 28))
		block := schedule.Blocks[gofakeit.Number(0, len(schedule.Blocks)-1)]
		dentistID := dentistIDs[gofakeit.Number(0, len(dentistIDs)-1)]
		procedureID := procedureIDs[gofakeit.Number(0, len(procedureIDs)-1)]
		status := statuses[gofakeit.Number(0, len(statuses)-1)]

		// The partial unique index rejects colliding active slots; skip those.
		tag, err := pool.Exec(ctx, `
			INSERT INTO bookings (patient_name, email, age, gender, phone, address,
				visit_date, block_start, dentist_id, procedure_id, notes, status,
				created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, '', $11, now(), now())
			ON CONFLICT DO NOTHING
		`,
			gofakeit.Name(),
			gofakeit.Email(),
			gofakeit.Number(18, 80),
			gofakeit.RandomString([]string{"male", "female"}),
			gofakeit.Phone(),
			gofakeit.Address().Address,
			date,
			block.Start,
			dentistID,
			procedureID,
			status,
		)
		if err != nil {
			return err
		}
		inserted += int(tag.RowsAffected())
	}

	log.Printf("bookings seeded: %d", inserted)
	return nil
}
