package monitor

import "time"

type Configuration struct {
	FileIn               string  `json:"file_in"`
	RunNumber            int     `json:"run_number"`
	CaenUnits            int     `json:"caen_units"`
	Channels             int     `json:"channels"`
	HeaderLines          int     `json:"header_lines"`
	IdleIntervalMs       int     `json:"idle_interval_ms"`
	Retention            int     `json:"retention"`
	SearchDepth          int     `json:"search_depth"`
	DropIncompleteBlocks bool    `json:"drop_incomplete_blocks"`
	AdcThreshold         int     `json:"adc_threshold"`
	Saturation           int     `json:"saturation"`
	GainRatio            float64 `json:"gain_ratio"`
	SeriesCapacity       int     `json:"series_capacity"`
	Verbosity            int     `json:"verbosity"`
	NoDB                 bool    `json:"no_db"`
	DBType               string  `json:"db_type"`
	Host                 string  `json:"host"`
	User                 string  `json:"user"`
	Passwd               string  `json:"pass"`
	DBName               string  `json:"dbname"`
	DBPath               string  `json:"db_path"`
	MetricsAddr          string  `json:"metrics_addr"`
}

// DefaultHeaderLines is the length of the comment header of a list file.
const DefaultHeaderLines = 9

// DefaultChannels is the number of channels of a CAEN unit.
const DefaultChannels = 64

// DefaultConfiguration returns the values used for the CAEN setup with
// 8 units of 64 channels.
func DefaultConfiguration() Configuration {
	return Configuration{
		RunNumber:            0,
		CaenUnits:            8,
		Channels:             DefaultChannels,
		HeaderLines:          DefaultHeaderLines,
		IdleIntervalMs:       1000,
		Retention:            10000,
		SearchDepth:          0,
		DropIncompleteBlocks: true,
		AdcThreshold:         500,
		Saturation:           DefaultSaturation,
		GainRatio:            DefaultGainRatio,
		SeriesCapacity:       3600,
		Verbosity:            0,
		NoDB:                 true,
		DBType:               "mysql",
		Host:                 "next.ific.uv.es",
		User:                 "nextreader",
		Passwd:               "readonly",
		DBName:               "NEXT100DB",
	}
}

func (c Configuration) IdleInterval() time.Duration {
	return time.Duration(c.IdleIntervalMs) * time.Millisecond
}

// Calibration returns the gain reconciliation constants of the configuration.
func (c Configuration) Calibration() Calibration {
	return Calibration{Saturation: c.Saturation, GainRatio: c.GainRatio}
}

var configuration = DefaultConfiguration()

func GetConfiguration() Configuration {
	return configuration
}

func SetConfiguration(config Configuration) {
	configuration = config
}
