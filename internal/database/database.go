package database

import (
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

// Table Structure:
//
// CREATE TABLE IF NOT EXISTS job_post (
// 	id                   SERIAL PRIMARY KEY,
// 	title                VARCHAR(255) NOT NULL,
// 	description          TEXT NOT NULL,
// 	company              VARCHAR(255) NOT NULL,
// 	location             VARCHAR(255) NOT NULL,
// 	job_type             VARCHAR(50) NOT NULL,
// 	salary               NUMERIC(10, 2) DEFAULT NULL,
// 	contact_email        VARCHAR(255) NOT NULL,
// 	skills               TEXT[] DEFAULT NULL,
// 	application_deadline DATE DEFAULT NULL,
// 	is_active            BOOLEAN NOT NULL DEFAULT TRUE,
// 	slug                 VARCHAR(255) NOT NULL UNIQUE,
// 	created_at           TIMESTAMP NOT NULL,
// 	updated_at           TIMESTAMP NOT NULL
// );
//
// CREATE TABLE IF NOT EXISTS job_application (
// 	id              SERIAL PRIMARY KEY,
// 	job_post_id     INTEGER NOT NULL REFERENCES job_post (id) ON DELETE CASCADE,
// 	full_name       VARCHAR(255) NOT NULL,
// 	phone_number    VARCHAR(20) NOT NULL,
// 	email           VARCHAR(255) DEFAULT NULL,
// 	work_experience TEXT NOT NULL,
// 	status          VARCHAR(20) NOT NULL DEFAULT 'applied',
// 	created_at      TIMESTAMP NOT NULL,
// 	updated_at      TIMESTAMP NOT NULL
// );
// CREATE INDEX IF NOT EXISTS job_application_job_post_id_idx ON job_application (job_post_id);
// CREATE INDEX IF NOT EXISTS job_application_status_idx ON job_application (status);
var schema = []string{
	`CREATE TABLE IF NOT EXISTS job_post (
	id                   SERIAL PRIMARY KEY,
	title                VARCHAR(255) NOT NULL,
	description          TEXT NOT NULL,
	company              VARCHAR(255) NOT NULL,
	location             VARCHAR(255) NOT NULL,
	job_type             VARCHAR(50) NOT NULL,
	salary               NUMERIC(10, 2) DEFAULT NULL,
	contact_email        VARCHAR(255) NOT NULL,
	skills               TEXT[] DEFAULT NULL,
	application_deadline DATE DEFAULT NULL,
	is_active            BOOLEAN NOT NULL DEFAULT TRUE,
	slug                 VARCHAR(255) NOT NULL UNIQUE,
	created_at           TIMESTAMP NOT NULL,
	updated_at           TIMESTAMP NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS job_application (
	id              SERIAL PRIMARY KEY,
	job_post_id     INTEGER NOT NULL REFERENCES job_post (id) ON DELETE CASCADE,
	full_name       VARCHAR(255) NOT NULL,
	phone_number    VARCHAR(20) NOT NULL,
	email           VARCHAR(255) DEFAULT NULL,
	work_experience TEXT NOT NULL,
	status          VARCHAR(20) NOT NULL DEFAULT 'applied',
	created_at      TIMESTAMP NOT NULL,
	updated_at      TIMESTAMP NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS job_application_job_post_id_idx ON job_application (job_post_id)`,
	`CREATE INDEX IF NOT EXISTS job_application_status_idx ON job_application (status)`,
}

// GetDbConn opens a postgres connection pool and checks it is reachable.
func GetDbConn(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(20)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// CloseDbConn closes db conn
func CloseDbConn(conn *sql.DB) {
	conn.Close()
}

// Migrate creates the tables and indexes if they do not exist yet.
func Migrate(conn *sql.DB) error {
	for _, stmt := range schema {
		if _, err := conn.Exec(stmt); err != nil {
			return errors.Wrap(err, "unable to apply schema")
		}
	}
	return nil
}
