package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/hospedagem/internal/grpcapi"
	"github.com/MarkoPoloResearchLab/hospedagem/internal/httpapi"
	"github.com/MarkoPoloResearchLab/hospedagem/pkg/booking"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix = "HOSPEDAGEM"

	flagDatabaseURL        = "database-url"
	flagListenAddr         = "listen-addr"
	flagAllowedOrigins     = "allowed-origins"
	flagJWTSigningKey      = "jwt-signing-key"
	flagJWTIssuer          = "jwt-issuer"
	flagJWTCookieName      = "jwt-cookie-name"
	flagRequestTimeout     = "request-timeout"
	flagLockWaitTimeout    = "lock-wait-timeout"
	flagRooms              = "rooms"
	flagRedisAddr          = "redis-addr"
	flagRedisPassword      = "redis-password"
	flagRedisDB            = "redis-db"
	flagRedisChannel       = "redis-channel"
	flagDynamoTable        = "dynamodb-table"
	flagDynamoEndpoint     = "dynamodb-endpoint"
	flagAWSRegion          = "aws-region"
	flagAWSAccessKeyID     = "aws-access-key-id"
	flagAWSSecretAccessKey = "aws-secret-access-key"
	flagMercadoPagoToken   = "mercadopago-access-token"
	flagGRPCListenAddr     = "grpc-listen-addr"
	flagGRPCProbeInterval  = "grpc-probe-interval"

	defaultDatabaseURL     = "sqlite:///tmp/hospedagem.db"
	defaultLockWaitTimeout = 5 * time.Second
	defaultProbeInterval   = 10 * time.Second
)

var allFlags = []string{
	flagDatabaseURL, flagListenAddr, flagAllowedOrigins, flagJWTSigningKey, flagJWTIssuer, flagJWTCookieName,
	flagRequestTimeout, flagLockWaitTimeout, flagRooms,
	flagRedisAddr, flagRedisPassword, flagRedisDB, flagRedisChannel,
	flagDynamoTable, flagDynamoEndpoint, flagAWSRegion, flagAWSAccessKeyID, flagAWSSecretAccessKey,
	flagMercadoPagoToken, flagGRPCListenAddr, flagGRPCProbeInterval,
}

type runtimeConfig struct {
	DatabaseURL     string
	LockWaitTimeout time.Duration
	Rooms           []booking.Room
	HTTP            httpapi.Config

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisChannel  string

	DynamoTable        string
	DynamoEndpoint     string
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	MercadoPagoToken string

	GRPC grpcapi.Config
}

func registerFlags(cmd *cobra.Command) {
	cmd.Flags().String(flagDatabaseURL, defaultDatabaseURL, "PostgreSQL URL or sqlite path")
	cmd.Flags().String(flagListenAddr, "", "HTTP listen address")
	cmd.Flags().String(flagAllowedOrigins, "", "comma-separated list of allowed CORS origins")
	cmd.Flags().String(flagJWTSigningKey, "", "TAuth JWT signing key (required)")
	cmd.Flags().String(flagJWTIssuer, "", "expected JWT issuer")
	cmd.Flags().String(flagJWTCookieName, "", "JWT cookie name")
	cmd.Flags().Duration(flagRequestTimeout, 0, "per-request timeout (e.g. 5s)")
	cmd.Flags().Duration(flagLockWaitTimeout, defaultLockWaitTimeout, "how long a booking waits for a busy room before failing")
	cmd.Flags().String(flagRooms, "", "room catalog to upsert at startup, e.g. 101:STANDARD,201:LUXO")
	cmd.Flags().String(flagRedisAddr, "", "Redis address for notifications (disabled when empty)")
	cmd.Flags().String(flagRedisPassword, "", "Redis password")
	cmd.Flags().Int(flagRedisDB, 0, "Redis database index")
	cmd.Flags().String(flagRedisChannel, "", "Redis pub/sub channel for notifications")
	cmd.Flags().String(flagDynamoTable, "", "DynamoDB table for the operation audit trail (disabled when empty)")
	cmd.Flags().String(flagDynamoEndpoint, "", "DynamoDB endpoint override, e.g. http://localhost:8000")
	cmd.Flags().String(flagAWSRegion, "", "AWS region")
	cmd.Flags().String(flagAWSAccessKeyID, "", "static AWS access key id")
	cmd.Flags().String(flagAWSSecretAccessKey, "", "static AWS secret access key")
	cmd.Flags().String(flagMercadoPagoToken, "", "Mercado Pago access token for card reconciliation (disabled when empty)")
	cmd.Flags().String(flagGRPCListenAddr, "", "gRPC listen address for lifecycle triggers and health (disabled when empty)")
	cmd.Flags().Duration(flagGRPCProbeInterval, defaultProbeInterval, "how often the gRPC health service probes the store")
}

func loadConfig(cmd *cobra.Command, cfg *runtimeConfig) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for _, flagName := range allFlags {
		if err := v.BindPFlag(flagName, cmd.Flags().Lookup(flagName)); err != nil {
			return err
		}
	}
	if err := v.BindEnv(flagDatabaseURL, envPrefix+"_DATABASE_URL", "DATABASE_URL"); err != nil {
		return err
	}

	if !v.IsSet(flagJWTSigningKey) {
		return fmt.Errorf("%s is required", flagJWTSigningKey)
	}

	cfg.DatabaseURL = strings.TrimSpace(v.GetString(flagDatabaseURL))
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = defaultDatabaseURL
	}
	cfg.LockWaitTimeout = v.GetDuration(flagLockWaitTimeout)
	if cfg.LockWaitTimeout <= 0 {
		return fmt.Errorf("%s must be positive", flagLockWaitTimeout)
	}
	rooms, err := parseRooms(v.GetString(flagRooms))
	if err != nil {
		return err
	}
	cfg.Rooms = rooms

	cfg.HTTP = httpapi.Config{
		ListenAddr:        strings.TrimSpace(v.GetString(flagListenAddr)),
		AllowedOrigins:    httpapi.ParseAllowedOrigins(v.GetString(flagAllowedOrigins)),
		SessionSigningKey: v.GetString(flagJWTSigningKey),
		SessionIssuer:     strings.TrimSpace(v.GetString(flagJWTIssuer)),
		SessionCookieName: strings.TrimSpace(v.GetString(flagJWTCookieName)),
		RequestTimeout:    v.GetDuration(flagRequestTimeout),
	}

	cfg.RedisAddr = strings.TrimSpace(v.GetString(flagRedisAddr))
	cfg.RedisPassword = v.GetString(flagRedisPassword)
	cfg.RedisDB = v.GetInt(flagRedisDB)
	cfg.RedisChannel = strings.TrimSpace(v.GetString(flagRedisChannel))

	cfg.DynamoTable = strings.TrimSpace(v.GetString(flagDynamoTable))
	cfg.DynamoEndpoint = strings.TrimSpace(v.GetString(flagDynamoEndpoint))
	cfg.AWSRegion = strings.TrimSpace(v.GetString(flagAWSRegion))
	cfg.AWSAccessKeyID = strings.TrimSpace(v.GetString(flagAWSAccessKeyID))
	cfg.AWSSecretAccessKey = v.GetString(flagAWSSecretAccessKey)

	cfg.MercadoPagoToken = strings.TrimSpace(v.GetString(flagMercadoPagoToken))

	cfg.GRPC = grpcapi.Config{
		ListenAddr:    strings.TrimSpace(v.GetString(flagGRPCListenAddr)),
		ProbeInterval: v.GetDuration(flagGRPCProbeInterval),
	}
	if cfg.GRPC.ProbeInterval <= 0 {
		return fmt.Errorf("%s must be positive", flagGRPCProbeInterval)
	}

	return cfg.HTTP.Validate()
}

// parseRooms reads "number:TIER" pairs. Seeded rooms start FREE.
func parseRooms(raw string) ([]booking.Room, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	rooms := make([]booking.Room, 0)
	for _, part := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		number, tier, found := strings.Cut(trimmed, ":")
		if !found {
			return nil, fmt.Errorf("%s: %q must be number:TIER", flagRooms, trimmed)
		}
		roomNumber, err := booking.NewRoomNumber(number)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", flagRooms, err)
		}
		roomTier, err := booking.ParseRoomTier(strings.ToUpper(strings.TrimSpace(tier)))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", flagRooms, err)
		}
		rooms = append(rooms, booking.Room{Number: roomNumber, Tier: roomTier, Status: booking.RoomStatusFree})
	}
	return rooms, nil
}
