package main

import (
	"github.com/prontodb/prontodb/internal/storage"
	"github.com/prontodb/prontodb/internal/storage/sqlite"
)

func openStorage(dbPath string) (storage.Engine, error) {
	return sqlite.New(dbPath)
}
