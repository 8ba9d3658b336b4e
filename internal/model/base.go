package model

import "github.com/google/uuid"

// asignarID fills a zero primary key before insert. IDs are generated in Go
// rather than with gen_random_uuid() so the same models run on SQLite in tests.
func asignarID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
