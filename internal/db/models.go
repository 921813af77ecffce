package db

import "time"

// HistoryRecord is one row of the append-only branch creation log.
// PatternJSON holds the serialized pattern exactly as it was generated from.
type HistoryRecord struct {
	ID          string    `json:"id" db:"id"`
	BranchName  string    `json:"branch_name" db:"branch_name"`
	PatternJSON string    `json:"pattern_json" db:"pattern_json"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// TableName returns the table name for HistoryRecord
func (HistoryRecord) TableName() string {
	return "branch_history"
}

// Setting is a single named blob in the settings table
type Setting struct {
	Key       string    `json:"key" db:"key"`
	Value     string    `json:"value" db:"value"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for Setting
func (Setting) TableName() string {
	return "settings"
}

// SettingBranchConfig is the key under which the active branch naming
// configuration is stored.
const SettingBranchConfig = "branch_config"
