package models

import (
	"log"

	"github.com/mmdatafocus/backoffice_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Customer{},
		&Product{},
		&Transaction{}, &TransactionDetail{},
		&IdempotencyKey{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
