// Package database opens the GORM connection used to persist diff changelogs.
//
// Connect selects the MySQL or SQLite dialect from the configuration, applies
// pool settings and verifies the connection with a ping bounded by the
// configured timeout. SQLite is meant for local runs and tests.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns read the live table definition so the
// changelog store can report schema drift before writing.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    logger.Warn("Changelog persistence disabled", zap.Error(err))
//	}
package database
