package models

import "time"

// Application represents one managed (server, deployment) pairing.
// A row is created by the first connection verification for its natural key
// (host, username, application_name) and updated in place by later steps
// that discover or change connection facts.
type Application struct {
	ID              uint   `gorm:"primaryKey;column:id" json:"id"`
	Host            string `gorm:"column:host;uniqueIndex:idx_app_natural_key;size:253" json:"host" validate:"required"`
	Username        string `gorm:"column:username;uniqueIndex:idx_app_natural_key;size:100" json:"username" validate:"required"`
	ApplicationName string `gorm:"column:application_name;uniqueIndex:idx_app_natural_key;size:128" json:"applicationName" validate:"required"`
	Port            int    `gorm:"column:port;default:22" json:"port"`
	SSHPrivateKey   string `gorm:"column:ssh_private_key;type:text" json:"-"` // PEM, never echoed back
	GithubToken     string `gorm:"column:github_token;type:text" json:"-"`
	GithubUsername  string `gorm:"column:github_username" json:"githubUsername"`
	SelectedRepo    string `gorm:"column:selected_repo" json:"selectedRepo"` // owner/name
	Pathname        string `gorm:"column:pathname" json:"pathname"`
	Domain          string `gorm:"column:domain" json:"domain"`
	DBType          string `gorm:"column:db_type" json:"dbType"`
	Status          string `gorm:"column:status" json:"status"` // free-form summary of last activity

	DatabaseConfig DatabaseConfig `gorm:"embedded;embeddedPrefix:dbcfg_" json:"databaseConfig"`

	CreatedAt time.Time `gorm:"column:created_at" json:"createdAt"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// DatabaseConfig holds the database provisioned for an application.
// Saved wholesale; there are no partial-update semantics.
type DatabaseConfig struct {
	DBType     string `gorm:"column:db_type" json:"dbType"`
	DBName     string `gorm:"column:db_name" json:"dbName"`
	DBUsername string `gorm:"column:db_username" json:"dbUsername"`
	DBPassword string `gorm:"column:db_password" json:"-"`
	DBPort     int    `gorm:"column:db_port" json:"dbPort"`
}

// TableName specifies the static table name for GORM.
// Required to override GORM's default pluralization behavior.
func (Application) TableName() string {
	return "applications"
}
