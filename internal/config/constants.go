package config

// Default paths for databases
const (
	// DefaultDatabasePath is the default path for the credential database
	DefaultDatabasePath = "./stockcast.db"

	// DefaultTasksDatabasePath is the default path for the background task queue
	DefaultTasksDatabasePath = "./stockcast-tasks.db"
)

// Runtime profiles
const (
	EnvironmentProduction  = "production"
	EnvironmentDevelopment = "development"
)
