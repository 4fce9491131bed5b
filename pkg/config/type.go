package config

type AppConfig struct {
	DataDir   string          `toml:"data_dir" default:"/var/lib/conso_prod_reconciler" validate:"required"`
	Sources   SourcesConfig   `toml:"sources"`
	Pipeline  PipelineConfig  `toml:"pipeline"`
	API       APIConfig       `toml:"api"`
	Log       LogConfig       `toml:"log"`
	Database  DatabaseConfig  `toml:"database"`
	Collector CollectorConfig `toml:"collector"`
}

// Relative paths are resolved against DataDir.
type SourcesConfig struct {
	ConsumptionExport    string   `toml:"consumption_export" default:"raw/conso/consumption_export.csv" validate:"required"`
	ConsumptionFrequency string   `toml:"consumption_frequency" default:"30 minutes" validate:"required"`
	ProductionDir        string   `toml:"production_dir" default:"raw/prod" validate:"required"`
	ProductionPatterns   []string `toml:"production_patterns" default:"[\"station_power_data_*.csv\",\"prod_*.csv\"]" validate:"min=1,dive,required"`
	ProductionFrequency  string   `toml:"production_frequency" default:"15 minutes" validate:"required"`
	IncomingArchiveDir   string   `toml:"incoming_archive_dir" default:"raw/prod/incoming"`
	ProductionArchive    string   `toml:"production_archive" default:"raw/prod/raw_prod_files.zip"`
}

type PipelineConfig struct {
	TargetFrequency  string `toml:"target_frequency" default:"30 minutes" validate:"required"`
	// Parser output, before any gap filling or resampling
	CleanConsumption string `toml:"clean_consumption" default:"clean/consumption_data.csv" validate:"required"`
	CleanProduction  string `toml:"clean_production" default:"clean/production_data.csv" validate:"required"`
	// Zero-filled series at the target frequency. Empty paths skip them.
	GridConsumption string `toml:"grid_consumption" default:"grid/consumption.csv"`
	GridProduction  string `toml:"grid_production" default:"grid/production.csv"`
	Merged          string `toml:"merged" default:"merged/global.csv" validate:"required"`
	Resampled30Min   string `toml:"resampled_30min" default:"resampled/production_30min.csv"`
	Resampled1H      string `toml:"resampled_1h" default:"resampled/production_1h.csv"`
	// Zero disables periodic reloads
	ReloadInterval string `toml:"reload_interval" default:"5m"`
}

type APIConfig struct {
	ListenAddress  string   `toml:"listen_address" default:"0.0.0.0" validate:"required"`
	ListenPort     int      `toml:"listen_port" default:"9040" validate:"min=1,max=65535"`
	AllowedOrigins []string `toml:"allowed_origins" default:"[\"*\"]"`
}

type LogConfig struct {
	Level  string `toml:"level" default:"info" validate:"oneof=trace debug info warn error fatal panic"`
	Format string `toml:"format" default:"console" validate:"oneof=json console"`
	// stdout, stderr or a file path
	Output string `toml:"output" default:"stdout" validate:"required"`
}

type DatabaseConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path" default:"reconciler.db"`
}

// The collector fetches one raw production day from URLTemplate,
// with {date} replaced by YYYY-MM-DD.
type CollectorConfig struct {
	URLTemplate string `toml:"url_template"`
	Token       string `toml:"token"`
	Timeout     string `toml:"timeout" default:"20s" validate:"required"`
	Attempts    int    `toml:"attempts" default:"3" validate:"min=1,max=10"`
}
