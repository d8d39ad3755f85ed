package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/sales-backend/pkg/e"
	"github.com/DRSN-tech/sales-backend/pkg/logger"
	"github.com/jimlawless/whereami"
)

// Политики определения цены строки продажи
const (
	PricePolicyCatalog = "catalog" // цена всегда берётся из каталога
	PricePolicyClient  = "client"  // цена клиента принимается, если передана
)

type Config struct {
	Minio  *MinIOCfg
	Http   *HTTPConfig
	Grpc   *GRPCConfig
	Db     *PGDBCfg
	Redis  *RedisCfg
	Kafka  *KafkaCfg
	Sales  *SalesCfg
	Outbox *OutboxCfg
}

type KafkaCfg struct {
	Topic             string
	Brokers           []string
	NetworkMode       string
	Partitions        int
	ReplicationFactor int
}

// Enabled сообщает, настроена ли публикация событий в Kafka.
func (k *KafkaCfg) Enabled() bool {
	return len(k.Brokers) > 0
}

type MinIOCfg struct {
	MinioEndpoint     string // Адрес конечной точки Minio
	BucketName        string // Название конкретного бакета в Minio
	MinioRootUser     string // Имя пользователя для доступа к Minio
	MinioRootPassword string // Пароль для доступа к Minio
	MinioUseSSL       bool   // Использовать ли TLS при подключении к Minio
	MaxImageSize      int64  // Максимальный размер изображения товара в байтах
	CleanupRetries    int    // Количество попыток удаления объекта при компенсации
}

type HTTPConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type GRPCConfig struct {
	Port           string
	NetworkMode    string
	HealthInterval time.Duration
}

type PGDBCfg struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MaxConns       int32
	MigrationsPath string
}

// DSN возвращает строку подключения в формате key=value.
func (c *PGDBCfg) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.DBName,
		c.SSLMode,
	)
}

type RedisCfg struct {
	Addr         string
	Password     string
	User         string
	DB           int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	ProductTTL   time.Duration // время жизни карточки товара в кэше
}

// SalesCfg — параметры транзакционного контура продаж.
type SalesCfg struct {
	TxTimeout   time.Duration // верхняя граница длительности транзакции
	LockTimeout time.Duration // SET LOCAL lock_timeout внутри транзакции
	PricePolicy string
	TopLimit    int // размер топов в статистике по умолчанию
}

type OutboxCfg struct {
	BatchSize    int
	PollInterval time.Duration
	StaleAfter   time.Duration // через сколько событие в processing возвращается в очередь
}

// Load безопасно загружает конфигурацию и возвращает ошибку в случае неудачи.
func Load(log logger.Logger) (*Config, error) {
	db, err := loadPGDBCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	http, err := loadHTTPConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	grpc, err := loadGRPCConfig(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	redis, err := loadRedisCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	minio, err := loadMinIOCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	kafka, err := loadKafkaCfg()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	sales, err := loadSalesCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	outbox, err := loadOutboxCfg(log)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Config{
		Minio:  minio,
		Http:   http,
		Grpc:   grpc,
		Db:     db,
		Redis:  redis,
		Kafka:  kafka,
		Sales:  sales,
		Outbox: outbox,
	}, nil
}

// loadKafkaCfg читает настройки Kafka. Пустой KAFKA_BROKERS отключает публикацию событий.
func loadKafkaCfg() (*KafkaCfg, error) {
	const (
		defaultPartitions        = 3
		defaultReplicationFactor = 1
		defaultNetworkMode       = "tcp"
		defaultTopic             = "sales.events"
	)

	var brokers []string
	if brokerStr := getEnv("KAFKA_BROKERS"); brokerStr != "" {
		for _, b := range strings.Split(brokerStr, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	partitions, err := parseIntEnv("KAFKA_PARTITIONS", defaultPartitions)
	if err != nil {
		return nil, e.Wrap("KAFKA_PARTITIONS", err)
	}

	replicationFactor, err := parseIntEnv("REPLICATION_FACTOR", defaultReplicationFactor)
	if err != nil {
		return nil, e.Wrap("REPLICATION_FACTOR", err)
	}

	return &KafkaCfg{
		Brokers:           brokers,
		Topic:             getEnvOrDefault("KAFKA_TOPIC", defaultTopic),
		Partitions:        partitions,
		ReplicationFactor: replicationFactor,
		NetworkMode:       getEnvOrDefault("KAFKA_NETWORK_MODE", defaultNetworkMode),
	}, nil
}

func loadMinIOCfg(log logger.Logger) (*MinIOCfg, error) {
	const (
		defaultUseSSL         = false
		defaultEndpoint       = "minio:9000"
		defaultBucket         = "product-images"
		defaultMaxImageSize   = 5 << 20
		defaultCleanupRetries = 3
	)

	useSSL, err := strconv.ParseBool(getEnvOrDefault("MINIO_USE_SSL", strconv.FormatBool(defaultUseSSL)))
	if err != nil {
		log.Errorf(err, "invalid MINIO_USE_SSL")
		return nil, err
	}

	maxImageSize, err := parseIntEnv("MAX_IMAGE_SIZE", defaultMaxImageSize)
	if err != nil {
		log.Errorf(err, "invalid MAX_IMAGE_SIZE")
		return nil, err
	}

	return &MinIOCfg{
		MinioEndpoint:     getEnvOrDefault("MINIO_ENDPOINT", defaultEndpoint),
		BucketName:        getEnvOrDefault("BUCKET_NAME", defaultBucket),
		MinioRootUser:     getEnv("MINIO_ROOT_USER"),
		MinioRootPassword: getEnv("MINIO_ROOT_PASSWORD"),
		MinioUseSSL:       useSSL,
		MaxImageSize:      int64(maxImageSize),
		CleanupRetries:    defaultCleanupRetries,
	}, nil
}

func loadHTTPConfig(log logger.Logger) (*HTTPConfig, error) {
	const (
		defaultPort         = "8080"
		defaultReadTimeout  = 5 * time.Second
		defaultWriteTimeout = 10 * time.Second
		defaultIdleTimeout  = 60 * time.Second
	)

	port := getEnvOrDefault("HTTP_PORT", defaultPort)

	readTimeout, err := parseDurationEnv("HTTP_READ_TIMEOUT", defaultReadTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_READ_TIMEOUT")
		return nil, err
	}

	writeTimeout, err := parseDurationEnv("HTTP_WRITE_TIMEOUT", defaultWriteTimeout)
	if err != nil {
		log.Errorf(err, "invalid HTTP_WRITE_TIMEOUT")
		return nil, err
	}

	idleTimeout, err := parseDurationEnv("KEEP_ALIVE", defaultIdleTimeout)
	if err != nil {
		log.Errorf(err, "invalid KEEP_ALIVE")
		return nil, err
	}

	return &HTTPConfig{
		Port:         port,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}, nil
}

func loadGRPCConfig(log logger.Logger) (*GRPCConfig, error) {
	const (
		defaultPort           = "8091"
		defaultNetworkMode    = "tcp"
		defaultHealthInterval = 10 * time.Second
	)

	interval, err := parseDurationEnv("GRPC_HEALTH_INTERVAL", defaultHealthInterval)
	if err != nil {
		log.Errorf(err, "invalid GRPC_HEALTH_INTERVAL")
		return nil, err
	}

	return &GRPCConfig{
		Port:           getEnvOrDefault("GRPC_PORT", defaultPort),
		NetworkMode:    getEnvOrDefault("GRPC_NETWORK_MODE", defaultNetworkMode),
		HealthInterval: interval,
	}, nil
}

func loadPGDBCfg(log logger.Logger) (*PGDBCfg, error) {
	const (
		defaultHost           = "localhost"
		defaultPort           = "5432"
		defaultSSLMode        = "disable"
		defaultMaxConns       = 10
		defaultMigrationsPath = "file://db/migrations"
	)

	user := getEnv("POSTGRES_USER")
	if user == "" {
		err := fmt.Errorf("POSTGRES_USER is required")
		log.Errorf(err, "missing POSTGRES_USER")
		return nil, err
	}

	password := getEnv("POSTGRES_PASSWORD")
	if password == "" {
		err := fmt.Errorf("POSTGRES_PASSWORD is required")
		log.Errorf(err, "missing POSTGRES_PASSWORD")
		return nil, err
	}

	dbName := getEnv("POSTGRES_DB")
	if dbName == "" {
		err := fmt.Errorf("POSTGRES_DB is required")
		log.Errorf(err, "missing POSTGRES_DB")
		return nil, err
	}

	maxConns, err := parseIntEnv("POSTGRES_MAX_CONNS", defaultMaxConns)
	if err != nil {
		log.Errorf(err, "invalid POSTGRES_MAX_CONNS")
		return nil, err
	}

	return &PGDBCfg{
		Host:           getEnvOrDefault("POSTGRES_HOST", defaultHost),
		Port:           getEnvOrDefault("POSTGRES_PORT", defaultPort),
		User:           user,
		Password:       password,
		DBName:         dbName,
		SSLMode:        getEnvOrDefault("SSL_MODE", defaultSSLMode),
		MaxConns:       int32(maxConns),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", defaultMigrationsPath),
	}, nil
}

// loadRedisCfg читает настройки кэша товаров. Таймауты и ретраи задаются переменными с префиксом REDIS_.
func loadRedisCfg(log logger.Logger) (*RedisCfg, error) {
	const (
		defaultAddr       = "localhost:6379"
		defaultMaxRetries = 3
		defaultProductTTL = 3 * time.Minute
	)

	rc := &RedisCfg{
		Addr:     getEnvOrDefault("REDIS_ADDR", defaultAddr),
		Password: getEnv("REDIS_PASSWORD"),
		User:     getEnv("REDIS_USER"),
	}

	var err error
	if rc.DB, err = parseIntEnv("REDIS_DB_ID", 0); err != nil {
		log.Errorf(err, "invalid REDIS_DB_ID")
		return nil, err
	}
	if rc.MaxRetries, err = parseIntEnv("REDIS_MAX_RETRIES", defaultMaxRetries); err != nil {
		log.Errorf(err, "invalid REDIS_MAX_RETRIES")
		return nil, err
	}

	durations := []struct {
		key string
		def time.Duration
		dst *time.Duration
	}{
		{"REDIS_DIAL_TIMEOUT", 5 * time.Second, &rc.DialTimeout},
		{"REDIS_READ_TIMEOUT", 3 * time.Second, &rc.ReadTimeout},
		{"REDIS_WRITE_TIMEOUT", 3 * time.Second, &rc.WriteTimeout},
		{"PRODUCT_TTL", defaultProductTTL, &rc.ProductTTL},
	}
	for _, d := range durations {
		if *d.dst, err = parseDurationEnv(d.key, d.def); err != nil {
			log.Errorf(err, "invalid %s", d.key)
			return nil, err
		}
	}

	if rc.ProductTTL <= 0 {
		err := fmt.Errorf("%s: PRODUCT_TTL must be positive, got %s", whereami.WhereAmI(), rc.ProductTTL)
		log.Errorf(err, "invalid redis config")
		return nil, err
	}

	return rc, nil
}

func loadSalesCfg(log logger.Logger) (*SalesCfg, error) {
	const (
		defaultTxTimeout   = 5 * time.Second
		defaultLockTimeout = 2 * time.Second
		defaultTopLimit    = 10
	)

	txTimeout, err := parseDurationEnv("SALES_TX_TIMEOUT", defaultTxTimeout)
	if err != nil {
		log.Errorf(err, "invalid SALES_TX_TIMEOUT")
		return nil, err
	}

	lockTimeout, err := parseDurationEnv("SALES_LOCK_TIMEOUT", defaultLockTimeout)
	if err != nil {
		log.Errorf(err, "invalid SALES_LOCK_TIMEOUT")
		return nil, err
	}

	policy := strings.ToLower(getEnvOrDefault("SALES_PRICE_POLICY", PricePolicyCatalog))
	if policy != PricePolicyCatalog && policy != PricePolicyClient {
		err := fmt.Errorf("SALES_PRICE_POLICY must be %q or %q, got %q", PricePolicyCatalog, PricePolicyClient, policy)
		log.Errorf(err, "invalid SALES_PRICE_POLICY")
		return nil, err
	}

	topLimit, err := parseIntEnv("STATS_TOP_LIMIT", defaultTopLimit)
	if err != nil {
		log.Errorf(err, "invalid STATS_TOP_LIMIT")
		return nil, err
	}

	return &SalesCfg{
		TxTimeout:   txTimeout,
		LockTimeout: lockTimeout,
		PricePolicy: policy,
		TopLimit:    topLimit,
	}, nil
}

func loadOutboxCfg(log logger.Logger) (*OutboxCfg, error) {
	const (
		defaultBatchSize    = 10
		defaultPollInterval = 30 * time.Second
		defaultStaleAfter   = 2 * time.Minute
	)

	batchSize, err := parseIntEnv("OUTBOX_BATCH_SIZE", defaultBatchSize)
	if err != nil {
		log.Errorf(err, "invalid OUTBOX_BATCH_SIZE")
		return nil, err
	}

	pollInterval, err := parseDurationEnv("OUTBOX_POLL_INTERVAL", defaultPollInterval)
	if err != nil {
		log.Errorf(err, "invalid OUTBOX_POLL_INTERVAL")
		return nil, err
	}

	staleAfter, err := parseDurationEnv("OUTBOX_STALE_AFTER", defaultStaleAfter)
	if err != nil {
		log.Errorf(err, "invalid OUTBOX_STALE_AFTER")
		return nil, err
	}

	if batchSize <= 0 || pollInterval <= 0 {
		return nil, e.Wrap("OUTBOX_BATCH_SIZE/OUTBOX_POLL_INTERVAL", e.ErrIncorrectEnvVariable)
	}

	return &OutboxCfg{
		BatchSize:    batchSize,
		PollInterval: pollInterval,
		StaleAfter:   staleAfter,
	}, nil
}

// getEnv возвращает значение переменной окружения.
// Возвращает пустую строку, если переменная не задана.
func getEnv(key string) string {
	return os.Getenv(key)
}

// getEnvOrDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// parseDurationEnv считывает длительность или возвращает значение по умолчанию.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		return time.ParseDuration(v)
	}

	return defaultValue, nil
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}

	intValue, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue, e.ErrIncorrectEnvVariable
	}

	return intValue, nil
}
