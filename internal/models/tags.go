package models

import "gorm.io/datatypes"

// Tags - набор строковых меток, хранится в БД как JSON-массив
// (JSON в SQLite, JSONB в PostgreSQL)
type Tags = datatypes.JSONSlice[string]
