package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/qubicboard/internal/flagx"
	"github.com/dmitrijs2005/qubicboard/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "8s" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON configuration
// files. After unmarshalling, its fields are copied into the runtime Config
// struct which uses time.Duration.
type JsonConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	DataDir                     string         `json:"data_dir"`
	StorageBackend              string         `json:"storage_backend"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	QubicRPCEndpoint            string         `json:"qubic_rpc_endpoint"`
	QubicRequestTimeout         timex.Duration `json:"qubic_request_timeout"`
	MarketAPIEndpoint           string         `json:"market_api_endpoint"`
	MarketRequestTimeout        timex.Duration `json:"market_request_timeout"`
	MaxHistoryPoints            int            `json:"max_history_points"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The lookup order for the JSON file path is:
//
//	The -c or -config command-line flags.
//	If it is not set, no JSON file is loaded.
//
// The DTO is pre-seeded from the current Config, so keys omitted from the
// file keep their defaults. If the file cannot be read or contains invalid
// JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{
		EndpointAddrHTTP:            config.EndpointAddrHTTP,
		DataDir:                     config.DataDir,
		StorageBackend:              config.StorageBackend,
		DatabaseDSN:                 config.DatabaseDSN,
		SecretKey:                   config.SecretKey,
		AccessTokenValidityDuration: timex.Duration{Duration: config.AccessTokenValidityDuration},
		QubicRPCEndpoint:            config.QubicRPCEndpoint,
		QubicRequestTimeout:         timex.Duration{Duration: config.QubicRequestTimeout},
		MarketAPIEndpoint:           config.MarketAPIEndpoint,
		MarketRequestTimeout:        timex.Duration{Duration: config.MarketRequestTimeout},
		MaxHistoryPoints:            config.MaxHistoryPoints,
		S3RootUser:                  config.S3RootUser,
		S3RootPassword:              config.S3RootPassword,
		S3Bucket:                    config.S3Bucket,
		S3Region:                    config.S3Region,
		S3BaseEndpoint:              config.S3BaseEndpoint,
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.DataDir = c.DataDir
	config.StorageBackend = c.StorageBackend
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.AccessTokenValidityDuration = time.Duration(c.AccessTokenValidityDuration.Duration)
	config.QubicRPCEndpoint = c.QubicRPCEndpoint
	config.QubicRequestTimeout = time.Duration(c.QubicRequestTimeout.Duration)
	config.MarketAPIEndpoint = c.MarketAPIEndpoint
	config.MarketRequestTimeout = time.Duration(c.MarketRequestTimeout.Duration)
	config.MaxHistoryPoints = c.MaxHistoryPoints
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
}
