package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed records.sql
var recordsSQL string

// Function lists for verification
var RecordsFunctions = []string{
	"init_records",
	"upsert_record",
	"select_records_by_similarity",
	"count_records_by_video",
	"select_video_model",
	"delete_records_by_video",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadRecordsSql loads record-related SQL functions
func LoadRecordsSql(db *sql.DB, force bool) error {
	if !force {
		exist, err := checkFunctions(db, RecordsFunctions)
		if err != nil {
			return fmt.Errorf("error checking existing records functions: %w", err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(recordsSQL)
	if err != nil {
		return fmt.Errorf("error executing records SQL: %w", err)
	}

	exist, err := checkFunctions(db, RecordsFunctions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Println("SQL records functions loaded successfully")
	return nil
}

func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
