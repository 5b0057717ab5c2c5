package models

import "time"

// Trainer is one registered trainer slot of a module: a key ("a", "b", ...)
// plus the typed display name the coordinators entered for it. The display
// name doubles as the cross-module identity of the person, so keeping it
// consistent across modules matters more than its spelling.
type Trainer struct {
	ID          string    `db:"id" json:"id"`
	ModuleID    int       `db:"module_id" json:"module_id"`
	TrainerKey  string    `db:"trainer_key" json:"trainer_key"`
	DisplayName string    `db:"display_name" json:"display_name"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// RankGroupCount is the number of trainee groups opened for one rank in the
// running cycle.
type RankGroupCount struct {
	Rank       string    `db:"rank" json:"rank"`
	GroupCount int       `db:"group_count" json:"group_count"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
