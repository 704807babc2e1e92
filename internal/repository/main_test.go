package repository

import (
	"context"
	"database/sql"
	"flag"
	"log"
	"os"
	"testing"
	"time"

	"catalog-api/internal/database"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	testDB    *sql.DB
	testMongo *mongo.Database
)

func setupTestDB(ctx context.Context) (func(context.Context, ...testcontainers.TerminateOption) error, error) {
	var (
		dbName = "testdb"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		ctx,
		"postgres:15",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, err
	}

	connStr, err := dbContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return dbContainer.Terminate, err
	}

	testDB, err = sql.Open("pgx", connStr)
	if err != nil {
		return dbContainer.Terminate, err
	}

	if err := database.RunMigrations(ctx, testDB, database.MigrationSource(""), zap.NewNop()); err != nil {
		return dbContainer.Terminate, err
	}

	return dbContainer.Terminate, nil
}

func setupTestMongo(ctx context.Context) (func(context.Context, ...testcontainers.TerminateOption) error, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, err
	}

	endpoint, err := container.PortEndpoint(ctx, "27017/tcp", "mongodb")
	if err != nil {
		return container.Terminate, err
	}

	_, db, err := database.ConnectMongo(ctx, endpoint, "catalog_test")
	if err != nil {
		return container.Terminate, err
	}
	testMongo = db

	return container.Terminate, nil
}

func TestMain(m *testing.M) {
	flag.Parse()
	ctx := context.Background()

	var teardowns []func(context.Context, ...testcontainers.TerminateOption) error

	if !testing.Short() {
		if teardown, err := setupTestDB(ctx); err != nil {
			log.Printf("postgres tests disabled: %v", err)
			testDB = nil
			if teardown != nil {
				teardowns = append(teardowns, teardown)
			}
		} else {
			teardowns = append(teardowns, teardown)
		}

		if teardown, err := setupTestMongo(ctx); err != nil {
			log.Printf("mongo tests disabled: %v", err)
			testMongo = nil
			if teardown != nil {
				teardowns = append(teardowns, teardown)
			}
		} else {
			teardowns = append(teardowns, teardown)
		}
	}

	code := m.Run()

	if testDB != nil {
		testDB.Close()
	}
	if testMongo != nil {
		_ = testMongo.Client().Disconnect(ctx)
	}
	for _, teardown := range teardowns {
		if err := teardown(ctx); err != nil {
			log.Printf("could not teardown container: %v", err)
		}
	}

	os.Exit(code)
}
