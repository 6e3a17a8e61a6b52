// Package testhelpers starts throwaway database containers for integration
// tests. Each supported backend gets a shared container seeded with the
// dq_people fixture table so connector and check tests can assert against
// known row and violation counts.
package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/veriqa-inc/veriqa-engine/pkg/connector"
	"github.com/veriqa-inc/veriqa-engine/pkg/dialect"

	// database/sql drivers used to seed fixtures.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
)

const (
	postgresImage = "postgres:16-alpine"
	mysqlImage    = "mysql:8.0"
	mssqlImage    = "mcr.microsoft.com/mssql/server:2022-latest"

	sourceDatabase = "veriqa_it"
	sourceUser     = "veriqa"
	sourcePassword = "test_password"

	// SQL Server enforces password complexity for sa.
	mssqlPassword = "Veriqa2024engine"
)

// Fixture rows carry known defects: two NULL emails, one email without an @,
// a duplicated name, one TCKN with a bad checksum, one row whose start_date
// is after its end_date and one signup_text value in the wrong date layout.
var fixtureStatements = []string{
	`CREATE TABLE dq_people (
		id integer PRIMARY KEY,
		name varchar(50) NOT NULL,
		email varchar(100),
		amount decimal(10,2) NOT NULL,
		tckn varchar(11),
		start_date date NOT NULL,
		end_date date NOT NULL,
		status varchar(20) NOT NULL,
		signup_text varchar(10)
	)`,
	`INSERT INTO dq_people (id, name, email, amount, tckn, start_date, end_date, status, signup_text) VALUES
		(1, 'alice', 'alice@example.com', 10.00, '10000000146', '2024-01-01', '2024-02-01', 'active', '01.01.2024'),
		(2, 'bob', 'bob@example.com', 20.00, '10000000382', '2024-01-05', '2024-03-01', 'active', '05.01.2024'),
		(3, 'carol', 'carol@example.com', 3.00, '10000000147', '2024-02-01', '2024-02-15', 'inactive', '01.02.2024'),
		(4, 'dave', NULL, 40.00, NULL, '2024-03-01', '2024-04-01', 'active', '01.03.2024'),
		(5, 'erin', NULL, 55.50, NULL, '2024-03-10', '2024-03-20', 'pending', '10.03.2024'),
		(6, 'frank', 'frank-at-example.com', 60.00, NULL, '2024-04-01', '2024-05-01', 'active', '01.04.2024'),
		(7, 'alice', 'alice2@example.com', 70.00, NULL, '2024-05-01', '2024-04-01', 'inactive', '2024-05-01'),
		(8, 'grace', 'grace@example.com', 80.25, NULL, '2024-06-01', '2024-06-30', 'active', '01.06.2024'),
		(9, 'heidi', 'heidi@example.com', 97.00, NULL, '2024-07-01', '2024-07-15', 'active', '01.07.2024'),
		(10, 'ivan', 'ivan@example.com', 5.00, NULL, '2024-08-01', '2024-08-02', 'active', NULL)`,
	`CREATE TABLE dq_orders (
		id integer PRIMARY KEY,
		person_id integer NOT NULL,
		total decimal(10,2) NOT NULL,
		CONSTRAINT fk_dq_orders_person FOREIGN KEY (person_id) REFERENCES dq_people (id)
	)`,
	`INSERT INTO dq_orders (id, person_id, total) VALUES
		(1, 1, 10.00),
		(2, 1, 25.50),
		(3, 2, 99.99)`,
	`CREATE VIEW dq_active_people AS
		SELECT id, name, email FROM dq_people WHERE status = 'active'`,
}

// Source holds a running seeded container and the profile a Connector needs
// to reach it.
type Source struct {
	Container testcontainers.Container
	Kind      dialect.Kind
	Profile   connector.Profile
	Schema    string

	// Driver and ConnStr let tests open a plain database/sql handle to the
	// seeded database without rebuilding the DSN.
	Driver  string
	ConnStr string
}

var (
	sharedPostgres     *Source
	sharedPostgresOnce sync.Once
	sharedPostgresErr  error

	sharedMySQL     *Source
	sharedMySQLOnce sync.Once
	sharedMySQLErr  error

	sharedMSSQL     *Source
	sharedMSSQLOnce sync.Once
	sharedMSSQLErr  error
)

// PostgresSource returns a shared seeded PostgreSQL container for integration
// tests. The container is created once and reused across all tests in the run.
func PostgresSource(t *testing.T) *Source {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedPostgresOnce.Do(func() {
		sharedPostgres, sharedPostgresErr = setupPostgres()
	})

	if sharedPostgresErr != nil {
		t.Fatalf("Failed to setup postgres container: %v", sharedPostgresErr)
	}

	return sharedPostgres
}

// MySQLSource returns a shared seeded MySQL container for integration tests.
func MySQLSource(t *testing.T) *Source {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedMySQLOnce.Do(func() {
		sharedMySQL, sharedMySQLErr = setupMySQL()
	})

	if sharedMySQLErr != nil {
		t.Fatalf("Failed to setup mysql container: %v", sharedMySQLErr)
	}

	return sharedMySQL
}

// MSSQLSource returns a shared seeded SQL Server container for integration
// tests.
func MSSQLSource(t *testing.T) *Source {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedMSSQLOnce.Do(func() {
		sharedMSSQL, sharedMSSQLErr = setupMSSQL()
	})

	if sharedMSSQLErr != nil {
		t.Fatalf("Failed to setup mssql container: %v", sharedMSSQLErr)
	}

	return sharedMSSQL
}

func setupPostgres() (*Source, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        postgresImage,
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       sourceDatabase,
			"POSTGRES_USER":     sourceUser,
			"POSTGRES_PASSWORD": sourcePassword,
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		sourceUser, sourcePassword, host, port.Port(), sourceDatabase)
	if err := seed(ctx, "pgx", connStr, fixtureStatements); err != nil {
		return nil, fmt.Errorf("failed to seed postgres fixture: %w", err)
	}

	return &Source{
		Container: container,
		Kind:      dialect.Postgres,
		Profile: connector.Profile{
			Host:     host,
			Port:     port.Int(),
			User:     sourceUser,
			Password: sourcePassword,
			Database: sourceDatabase,
			SSLMode:  "disable",
		},
		Schema:  "public",
		Driver:  "pgx",
		ConnStr: connStr,
	}, nil
}

func setupMySQL() (*Source, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        mysqlImage,
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_DATABASE":      sourceDatabase,
			"MYSQL_USER":          sourceUser,
			"MYSQL_PASSWORD":      sourcePassword,
			"MYSQL_ROOT_PASSWORD": sourcePassword,
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").
			WithStartupTimeout(120 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start mysql container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "3306")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	connStr := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		sourceUser, sourcePassword, host, port.Port(), sourceDatabase)
	if err := seed(ctx, "mysql", connStr, fixtureStatements); err != nil {
		return nil, fmt.Errorf("failed to seed mysql fixture: %w", err)
	}

	return &Source{
		Container: container,
		Kind:      dialect.MySQL,
		Profile: connector.Profile{
			Host:     host,
			Port:     port.Int(),
			User:     sourceUser,
			Password: sourcePassword,
			Database: sourceDatabase,
		},
		Schema:  sourceDatabase,
		Driver:  "mysql",
		ConnStr: connStr,
	}, nil
}

func setupMSSQL() (*Source, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        mssqlImage,
		ExposedPorts: []string{"1433/tcp"},
		Env: map[string]string{
			"ACCEPT_EULA":       "Y",
			"MSSQL_SA_PASSWORD": mssqlPassword,
		},
		WaitingFor: wait.ForLog("Recovery is complete.").
			WithStartupTimeout(120 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start mssql container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "1433")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	// The image ships with system databases only; create the test database
	// through master before seeding it.
	masterStr := fmt.Sprintf("sqlserver://sa:%s@%s:%s", mssqlPassword, host, port.Port())
	if err := seed(ctx, "sqlserver", masterStr, []string{"CREATE DATABASE " + sourceDatabase}); err != nil {
		return nil, fmt.Errorf("failed to create mssql database: %w", err)
	}

	connStr := masterStr + "?database=" + sourceDatabase
	if err := seed(ctx, "sqlserver", connStr, fixtureStatements); err != nil {
		return nil, fmt.Errorf("failed to seed mssql fixture: %w", err)
	}

	return &Source{
		Container: container,
		Kind:      dialect.MSSQL,
		Profile: connector.Profile{
			Host:     host,
			Port:     port.Int(),
			User:     "sa",
			Password: mssqlPassword,
			Database: sourceDatabase,
			SSLMode:  "disable",
		},
		Schema:  "dbo",
		Driver:  "sqlserver",
		ConnStr: connStr,
	}, nil
}

// seed opens a plain database/sql handle and runs the given statements. The
// mapped port can be reachable before the server inside is, so the first
// ping is retried.
func seed(ctx context.Context, driver, dsn string, statements []string) error {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return fmt.Errorf("failed to open seed connection: %w", err)
	}
	defer db.Close()

	var pingErr error
	for i := 0; i < 20; i++ {
		if pingErr = db.PingContext(ctx); pingErr == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	if pingErr != nil {
		return fmt.Errorf("database never became ready: %w", pingErr)
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to run seed statement: %w", err)
		}
	}

	return nil
}
