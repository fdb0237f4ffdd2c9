package monitor

import (
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
	_ "modernc.org/sqlite"
)

// ChannelPosition is one row of the channel positions table.
type ChannelPosition struct {
	Board   int `db:"board"`
	Channel int `db:"channel"`
	X       int `db:"x"`
	Y       int `db:"y"`
	Z       int `db:"z"`
}

func ConnectToDatabase(config Configuration) (*sqlx.DB, error) {
	var dbURI string
	switch config.DBType {
	case "mysql":
		port := "3306"
		dbURI = fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", config.User, config.Passwd, config.Host, port, config.DBName)
	case "pgx":
		port := "5432"
		dbURI = fmt.Sprintf("postgres://%s:%s@%s:%s/%s", config.User, config.Passwd, config.Host, port, config.DBName)
	case "sqlite":
		dbURI = config.DBPath
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.DBType)
	}
	db, err := sqlx.Connect(config.DBType, dbURI)
	if err != nil {
		return nil, fmt.Errorf("error connecting to %s database: %w", config.DBType, err)
	}
	if config.DBType == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	return db, nil
}

func getChannelPositionsFromDB(db *sqlx.DB, runNumber int) ([]ChannelPosition, error) {
	query := db.Rebind("SELECT Board AS board, Channel AS channel, X AS x, Y AS y, Z AS z " +
		"FROM CaenChannelPositions WHERE MinRun <= ? and MaxRun >= ? ORDER BY Board, Channel")

	if configuration.Verbosity > 0 {
		logger.Info("Channel positions read from DB", "database")
	}
	if configuration.Verbosity > 2 {
		message := fmt.Sprintf("Query: %s (run %d)", query, runNumber)
		logger.Info(message, "database")
	}

	positions := make([]ChannelPosition, 0)
	if err := db.Select(&positions, query, runNumber, runNumber); err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	return positions, nil
}

// LoadGeometry reads the channel positions valid for runNumber. Channels
// without an entry keep the default layout.
func LoadGeometry(db *sqlx.DB, runNumber int, caenUnits int, channels int) (*Geometry, error) {
	positions, err := getChannelPositionsFromDB(db, runNumber)
	if err != nil {
		errMessage := fmt.Errorf("error getting channel positions from database: %w", err)
		logger.Error(errMessage.Error())
		return nil, errMessage
	}
	if configuration.Verbosity > 0 {
		message := fmt.Sprintf("Read %d channel positions for run %d", len(positions), runNumber)
		logger.Info(message, "database")
	}
	return NewGeometryFromPositions(caenUnits, channels, positions), nil
}
